package domain

import (
	"testing"
	"time"
)

func TestTaskPatchStatusOnly(t *testing.T) {
	status := StatusCompleted
	title := "x"
	now := time.Now()

	cases := []struct {
		name  string
		patch TaskPatch
		want  bool
	}{
		{"status alone", TaskPatch{Status: &status}, true},
		{"empty", TaskPatch{}, false},
		{"status plus title", TaskPatch{Status: &status, Title: &title}, false},
		{"status plus due clear", TaskPatch{Status: &status, ClearDue: true}, false},
		{"status plus due date", TaskPatch{Status: &status, DueDate: &now}, false},
		{"title alone", TaskPatch{Title: &title}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.patch.StatusOnly(); got != tc.want {
				t.Fatalf("StatusOnly() = %v; want %v", got, tc.want)
			}
		})
	}
}

func TestTaskPatchApply(t *testing.T) {
	due := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	task := Task{
		Title:       "old",
		Description: "old desc",
		Status:      StatusPending,
		Priority:    PriorityLow,
		DueDate:     &due,
		AssignedTo:  1,
		Tags:        []string{"old"},
	}

	title := "new"
	status := StatusInProgress
	assignee := int64(2)
	patch := TaskPatch{Title: &title, Status: &status, AssignedTo: &assignee}
	patch.Apply(&task)

	if task.Title != "new" || task.Status != StatusInProgress || task.AssignedTo != 2 {
		t.Fatalf("patched fields not applied: %+v", task)
	}
	if task.Description != "old desc" || task.Priority != PriorityLow || task.DueDate == nil {
		t.Fatalf("omitted fields were touched: %+v", task)
	}

	clear := TaskPatch{ClearDue: true}
	clear.Apply(&task)
	if task.DueDate != nil {
		t.Fatal("ClearDue did not clear the due date")
	}
}

func TestEnumValidity(t *testing.T) {
	for _, s := range Statuses {
		if !s.Valid() {
			t.Fatalf("status %s should be valid", s)
		}
	}
	if Status("done").Valid() {
		t.Fatal("unknown status accepted")
	}
	if Priority("asap").Valid() {
		t.Fatal("unknown priority accepted")
	}
	if !Role("manager").Valid() || Role("admin").Valid() {
		t.Fatal("role validity wrong")
	}
}

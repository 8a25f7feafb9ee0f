package handlers

import (
	"errors"
	"testing"

	"taskflow/internal/domain"
)

func TestParseDueDate(t *testing.T) {
	cases := []struct {
		in      string
		wantNil bool
		wantErr bool
	}{
		{"", true, false},
		{"2024-01-15", false, false},
		{"2024-01-15T10:30:00Z", false, false},
		{"2020-01-01", false, false}, // past dates are accepted
		{"not-a-date", false, true},
		{"15/01/2024", false, true},
	}

	for _, tc := range cases {
		got, err := parseDueDate(tc.in)
		if tc.wantErr {
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("parseDueDate(%q) err = %v; want validation error", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseDueDate(%q): %v", tc.in, err)
		}
		if (got == nil) != tc.wantNil {
			t.Fatalf("parseDueDate(%q) = %v; wantNil=%v", tc.in, got, tc.wantNil)
		}
	}
}

func TestUpdateRequestToPatch(t *testing.T) {
	status := "completed"
	empty := ""
	bad := "never"

	req := UpdateTaskRequest{Status: &status}
	patch, err := req.toPatch()
	if err != nil {
		t.Fatalf("toPatch: %v", err)
	}
	if !patch.StatusOnly() {
		t.Fatal("status-only request did not produce a status-only patch")
	}

	req = UpdateTaskRequest{DueDate: &empty}
	patch, err = req.toPatch()
	if err != nil {
		t.Fatalf("toPatch: %v", err)
	}
	if !patch.ClearDue || patch.DueDate != nil {
		t.Fatalf("empty dueDate should clear: %+v", patch)
	}

	req = UpdateTaskRequest{DueDate: &bad}
	if _, err := req.toPatch(); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("bad dueDate err = %v; want validation error", err)
	}

	patch, err = (&UpdateTaskRequest{}).toPatch()
	if err != nil {
		t.Fatalf("toPatch: %v", err)
	}
	if !patch.Empty() {
		t.Fatal("request with no fields should produce an empty patch")
	}
}

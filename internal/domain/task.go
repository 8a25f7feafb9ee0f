package domain

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Statuses lists every task status, in display order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Task struct {
	ID          int64      `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Status      Status     `db:"status" json:"status"`
	Priority    Priority   `db:"priority" json:"priority"`
	DueDate     *time.Time `db:"due_date" json:"dueDate,omitempty"`
	AssignedTo  int64      `db:"assigned_to" json:"assignedTo"`
	CreatedBy   int64      `db:"created_by" json:"createdBy"`
	Tags        []string   `db:"tags" json:"tags"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`

	// Display names resolved by the repository join; not stored on the task row.
	AssigneeName string `db:"assignee_name" json:"assigneeName,omitempty"`
	CreatorName  string `db:"creator_name" json:"creatorName,omitempty"`
}

// TaskPatch is a partial update: nil fields keep their prior value.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
	DueDate     *time.Time
	ClearDue    bool
	AssignedTo  *int64
	Tags        *[]string
}

// StatusOnly reports whether the patch touches nothing but the status.
// Such patches are allowed to the task's assignee, not just managers.
func (p *TaskPatch) StatusOnly() bool {
	return p.Status != nil &&
		p.Title == nil &&
		p.Description == nil &&
		p.Priority == nil &&
		p.DueDate == nil &&
		!p.ClearDue &&
		p.AssignedTo == nil &&
		p.Tags == nil
}

// Empty reports whether the patch changes nothing.
func (p *TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && p.DueDate == nil && !p.ClearDue &&
		p.AssignedTo == nil && p.Tags == nil
}

// Apply copies the patch's present fields onto the task.
func (p *TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	if p.ClearDue {
		t.DueDate = nil
	}
	if p.AssignedTo != nil {
		t.AssignedTo = *p.AssignedTo
	}
	if p.Tags != nil {
		t.Tags = *p.Tags
	}
}

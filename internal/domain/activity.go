package domain

import "time"

// Activity is one entry in a task's history, recorded for every mutation.
type Activity struct {
	ID        int64                  `db:"id" json:"id"`
	TaskID    int64                  `db:"task_id" json:"task_id"`
	UserID    int64                  `db:"user_id" json:"user_id"`
	Action    string                 `db:"action" json:"action"`
	Details   map[string]interface{} `db:"details" json:"details"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`

	UserName string `db:"user_name" json:"user_name,omitempty"`
}

// Activity actions
const (
	ActivityActionCreated       = "created"
	ActivityActionUpdated       = "updated"
	ActivityActionStatusChanged = "status_changed"
	ActivityActionDeleted       = "deleted"
)

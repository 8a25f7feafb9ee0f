package domain

// EventType identifies a task mutation pushed to connected clients.
type EventType string

const (
	EventTaskCreated EventType = "task:created"
	EventTaskUpdated EventType = "task:updated"
	EventTaskDeleted EventType = "task:deleted"
)

// TaskEvent is the ephemeral notification produced once per successful
// mutation. Task is set for created/updated, TaskID for deleted. Events
// are delivered best-effort and never persisted; the HTTP API remains
// the source of truth.
type TaskEvent struct {
	Type   EventType `json:"type"`
	Task   *Task     `json:"data,omitempty"`
	TaskID int64     `json:"id,omitempty"`
}

func NewTaskCreated(t *Task) TaskEvent {
	return TaskEvent{Type: EventTaskCreated, Task: t}
}

func NewTaskUpdated(t *Task) TaskEvent {
	return TaskEvent{Type: EventTaskUpdated, Task: t}
}

func NewTaskDeleted(id int64) TaskEvent {
	return TaskEvent{Type: EventTaskDeleted, TaskID: id}
}

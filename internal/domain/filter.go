package domain

// TaskFilter narrows a task listing. Zero values mean "no restriction";
// AssignedTo is forced by the service for non-manager actors.
type TaskFilter struct {
	Status     Status
	Priority   Priority
	Search     string
	AssignedTo int64

	Limit  int
	Offset int
}

// StatusCount is one bucket of the per-status task stats. The `_id`
// wire name is what existing frontend clients expect.
type StatusCount struct {
	Status Status `json:"_id"`
	Count  int64  `json:"count"`
}

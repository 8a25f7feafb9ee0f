package service

import "taskflow/internal/domain"

// Action is something an actor may attempt against a task.
type Action string

const (
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionDelete       Action = "delete"
	ActionChangeStatus Action = "changeStatus"
	ActionRead         Action = "read"
)

// Allowed is the authorization policy: a pure decision over
// (actor, action, target). target may be nil for create/read. It never
// errors; callers turn a false into domain.ErrForbidden.
//
// Visibility filtering of listings (non-managers see only their own
// tasks) is a query concern of the task service, not of this policy.
func Allowed(actor *domain.User, action Action, target *domain.Task) bool {
	if actor == nil {
		return false
	}

	switch action {
	case ActionCreate, ActionUpdate, ActionDelete:
		return actor.IsManager()
	case ActionChangeStatus:
		if actor.IsManager() {
			return true
		}
		return target != nil && target.AssignedTo == actor.ID
	case ActionRead:
		return true
	}
	return false
}

package service

import (
	"context"
	"errors"

	"taskflow/internal/domain"
)

// TaskStore is the task side of the record store. Implemented by
// repository.TaskRepository; test code substitutes in-memory fakes.
type TaskStore interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	Update(ctx context.Context, t *domain.Task) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f domain.TaskFilter) ([]*domain.Task, int64, error)
	CountByStatus(ctx context.Context, assignedTo int64) ([]domain.StatusCount, error)
}

// UserStore is the user side of the record store.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// EventPublisher fans a task event out to every live connection of the
// target users. Delivery is best-effort; Publish never returns an error
// and must not block on slow consumers.
type EventPublisher interface {
	Publish(userIDs []int64, ev domain.TaskEvent)
}

// ActivityRecorder appends task history entries.
type ActivityRecorder interface {
	Record(ctx context.Context, taskID, userID int64, action string, details map[string]interface{})
}

// TaskService validates, authorizes and applies task mutations, then
// publishes one event per successful mutation. Events are published only
// after the store write has returned, so a client that reacts to an
// event and re-queries observes the triggering change.
type TaskService struct {
	tasks    TaskStore
	users    UserStore
	events   EventPublisher
	activity ActivityRecorder

	defaultPageSize int
	maxPageSize     int
}

func NewTaskService(tasks TaskStore, users UserStore, events EventPublisher, activity ActivityRecorder) *TaskService {
	return &TaskService{
		tasks:           tasks,
		users:           users,
		events:          events,
		activity:        activity,
		defaultPageSize: 10,
		maxPageSize:     100,
	}
}

// SetPageLimits overrides the listing page size bounds from config.
func (s *TaskService) SetPageLimits(def, max int) {
	if def > 0 {
		s.defaultPageSize = def
	}
	if max > 0 {
		s.maxPageSize = max
	}
}

// CreateTask persists a new task created by actor (manager only) and
// notifies the assignee and the creator.
func (s *TaskService) CreateTask(ctx context.Context, actor *domain.User, t *domain.Task) (*domain.Task, error) {
	if !Allowed(actor, ActionCreate, nil) {
		return nil, domain.ErrForbidden
	}

	if t.Status == "" {
		t.Status = domain.StatusPending
	}
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}

	if err := s.validateTask(ctx, t); err != nil {
		return nil, err
	}

	t.CreatedBy = actor.ID
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, err
	}

	s.record(ctx, t.ID, actor.ID, domain.ActivityActionCreated, map[string]interface{}{
		"title":       t.Title,
		"assigned_to": t.AssignedTo,
	})
	s.events.Publish(notifyTargets(t.AssignedTo, t.CreatedBy), domain.NewTaskCreated(t))
	return t, nil
}

func (s *TaskService) GetTask(ctx context.Context, actor *domain.User, id int64) (*domain.Task, error) {
	if !Allowed(actor, ActionRead, nil) {
		return nil, domain.ErrForbidden
	}
	return s.tasks.GetByID(ctx, id)
}

// UpdateTask applies a partial update. A patch touching only the status
// is allowed to the assignee; anything else requires a manager.
func (s *TaskService) UpdateTask(ctx context.Context, actor *domain.User, id int64, patch *domain.TaskPatch) (*domain.Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	action := ActionUpdate
	if patch.StatusOnly() {
		action = ActionChangeStatus
	}
	if !Allowed(actor, action, t) {
		return nil, domain.ErrForbidden
	}

	oldAssignee := t.AssignedTo
	oldStatus := t.Status
	patch.Apply(t)

	if err := s.validateTask(ctx, t); err != nil {
		return nil, err
	}

	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, err
	}

	if patch.StatusOnly() {
		s.record(ctx, t.ID, actor.ID, domain.ActivityActionStatusChanged, map[string]interface{}{
			"from": oldStatus,
			"to":   t.Status,
		})
	} else {
		s.record(ctx, t.ID, actor.ID, domain.ActivityActionUpdated, nil)
	}

	// Old and new assignee both get notified on reassignment.
	s.events.Publish(notifyTargets(oldAssignee, t.AssignedTo, t.CreatedBy), domain.NewTaskUpdated(t))
	return t, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, actor *domain.User, id int64) error {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !Allowed(actor, ActionDelete, t) {
		return domain.ErrForbidden
	}

	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}

	s.record(ctx, id, actor.ID, domain.ActivityActionDeleted, map[string]interface{}{
		"title": t.Title,
	})
	s.events.Publish(notifyTargets(t.AssignedTo, t.CreatedBy), domain.NewTaskDeleted(id))
	return nil
}

// ListTasks returns one page plus the total page count. Non-managers are
// restricted to tasks assigned to them regardless of the given filter.
func (s *TaskService) ListTasks(ctx context.Context, actor *domain.User, f domain.TaskFilter, page int) ([]*domain.Task, int64, int64, error) {
	if !Allowed(actor, ActionRead, nil) {
		return nil, 0, 0, domain.ErrForbidden
	}

	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, 0, domain.NewValidationError("status", "unknown value")
	}
	if f.Priority != "" && !f.Priority.Valid() {
		return nil, 0, 0, domain.NewValidationError("priority", "unknown value")
	}

	if !actor.IsManager() {
		f.AssignedTo = actor.ID
	}

	if f.Limit <= 0 {
		f.Limit = s.defaultPageSize
	}
	if f.Limit > s.maxPageSize {
		f.Limit = s.maxPageSize
	}
	if page < 1 {
		page = 1
	}
	f.Offset = (page - 1) * f.Limit

	tasks, total, err := s.tasks.List(ctx, f)
	if err != nil {
		return nil, 0, 0, err
	}

	pages := total / int64(f.Limit)
	if total%int64(f.Limit) != 0 {
		pages++
	}
	return tasks, total, pages, nil
}

// GetStats counts tasks grouped by status under the same visibility rule
// as ListTasks.
func (s *TaskService) GetStats(ctx context.Context, actor *domain.User) ([]domain.StatusCount, error) {
	if !Allowed(actor, ActionRead, nil) {
		return nil, domain.ErrForbidden
	}

	var assignedTo int64
	if !actor.IsManager() {
		assignedTo = actor.ID
	}
	return s.tasks.CountByStatus(ctx, assignedTo)
}

func (s *TaskService) validateTask(ctx context.Context, t *domain.Task) error {
	if t.Title == "" {
		return domain.NewValidationError("title", "must not be empty")
	}
	if !t.Status.Valid() {
		return domain.NewValidationError("status", "unknown value")
	}
	if !t.Priority.Valid() {
		return domain.NewValidationError("priority", "unknown value")
	}
	if t.AssignedTo == 0 {
		return domain.NewValidationError("assignedTo", "is required")
	}
	if _, err := s.users.GetByID(ctx, t.AssignedTo); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewValidationError("assignedTo", "no such user")
		}
		return err
	}
	return nil
}

// record appends an activity entry; failures are logged, never surfaced,
// so history can't break a mutation that already committed.
func (s *TaskService) record(ctx context.Context, taskID, userID int64, action string, details map[string]interface{}) {
	if s.activity == nil {
		return
	}
	s.activity.Record(ctx, taskID, userID, action, details)
}

// notifyTargets deduplicates the user ids an event is addressed to.
func notifyTargets(ids ...int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"taskflow/internal/domain"
)

type fakeTaskStore struct {
	nextID int64
	tasks  map[int64]*domain.Task
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[int64]*domain.Task)}
}

func (s *fakeTaskStore) Create(_ context.Context, t *domain.Task) error {
	s.nextID++
	t.ID = s.nextID
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}

func (s *fakeTaskStore) GetByID(_ context.Context, id int64) (*domain.Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *fakeTaskStore) Update(_ context.Context, t *domain.Task) error {
	if _, ok := s.tasks[t.ID]; !ok {
		return domain.ErrNotFound
	}
	t.UpdatedAt = time.Now()
	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}

func (s *fakeTaskStore) Delete(_ context.Context, id int64) error {
	if _, ok := s.tasks[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *fakeTaskStore) List(_ context.Context, f domain.TaskFilter) ([]*domain.Task, int64, error) {
	var all []*domain.Task
	for _, t := range s.tasks {
		if f.AssignedTo != 0 && t.AssignedTo != f.AssignedTo {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		cp := *t
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := int64(len(all))
	if f.Offset >= len(all) {
		return nil, total, nil
	}
	end := f.Offset + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[f.Offset:end], total, nil
}

func (s *fakeTaskStore) CountByStatus(_ context.Context, assignedTo int64) ([]domain.StatusCount, error) {
	counts := make(map[domain.Status]int64)
	for _, t := range s.tasks {
		if assignedTo != 0 && t.AssignedTo != assignedTo {
			continue
		}
		counts[t.Status]++
	}
	var out []domain.StatusCount
	for st, n := range counts {
		out = append(out, domain.StatusCount{Status: st, Count: n})
	}
	return out, nil
}

type fakeUserStore struct {
	users map[int64]*domain.User
}

func (s *fakeUserStore) GetByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

type published struct {
	targets []int64
	event   domain.TaskEvent
}

type fakePublisher struct {
	events []published
}

func (p *fakePublisher) Publish(userIDs []int64, ev domain.TaskEvent) {
	p.events = append(p.events, published{targets: userIDs, event: ev})
}

var (
	manager  = &domain.User{ID: 1, Name: "M", Role: domain.RoleManager}
	assignee = &domain.User{ID: 2, Name: "A", Role: domain.RoleUser}
	other    = &domain.User{ID: 3, Name: "O", Role: domain.RoleUser}
)

func newTestService() (*TaskService, *fakeTaskStore, *fakePublisher) {
	store := newFakeTaskStore()
	users := &fakeUserStore{users: map[int64]*domain.User{
		manager.ID:  manager,
		assignee.ID: assignee,
		other.ID:    other,
	}}
	pub := &fakePublisher{}
	return NewTaskService(store, users, pub, nil), store, pub
}

func mustCreate(t *testing.T, svc *TaskService, task *domain.Task) *domain.Task {
	t.Helper()
	created, err := svc.CreateTask(context.Background(), manager, task)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	return created
}

func TestCreateTaskForbiddenForNonManager(t *testing.T) {
	svc, _, pub := newTestService()

	_, err := svc.CreateTask(context.Background(), assignee, &domain.Task{
		Title:      "nope",
		AssignedTo: assignee.ID,
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("expected no events on failure, got %d", len(pub.events))
	}
}

func TestCreateTaskDefaultsAndTargets(t *testing.T) {
	svc, _, pub := newTestService()

	created := mustCreate(t, svc, &domain.Task{Title: "Fix bug", Priority: domain.PriorityHigh, AssignedTo: assignee.ID})

	if created.Status != domain.StatusPending {
		t.Fatalf("default status = %s; want pending", created.Status)
	}
	if created.CreatedBy != manager.ID {
		t.Fatalf("createdBy = %d; want %d", created.CreatedBy, manager.ID)
	}
	if created.ID == 0 || created.CreatedAt.IsZero() {
		t.Fatal("server-assigned fields missing")
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.events))
	}
	ev := pub.events[0]
	if ev.event.Type != domain.EventTaskCreated {
		t.Fatalf("event type = %s", ev.event.Type)
	}
	assertTargets(t, ev.targets, assignee.ID, manager.ID)
}

func TestCreateTaskValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		name string
		task *domain.Task
	}{
		{"empty title", &domain.Task{AssignedTo: assignee.ID}},
		{"bad status", &domain.Task{Title: "t", Status: "done", AssignedTo: assignee.ID}},
		{"bad priority", &domain.Task{Title: "t", Priority: "asap", AssignedTo: assignee.ID}},
		{"missing assignee", &domain.Task{Title: "t"}},
		{"unknown assignee", &domain.Task{Title: "t", AssignedTo: 999}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateTask(ctx, manager, tc.task); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	svc, _, _ := newTestService()

	in := &domain.Task{
		Title:       "Round trip",
		Description: "desc",
		Priority:    domain.PriorityUrgent,
		AssignedTo:  assignee.ID,
		Tags:        []string{"a", "b"},
	}
	created := mustCreate(t, svc, in)

	got, err := svc.GetTask(context.Background(), other, created.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Title != "Round trip" || got.Description != "desc" ||
		got.Priority != domain.PriorityUrgent || got.AssignedTo != assignee.ID {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestUpdateStatusOnlyPermissions(t *testing.T) {
	svc, _, _ := newTestService()
	task := mustCreate(t, svc, &domain.Task{Title: "t", AssignedTo: assignee.ID})

	status := domain.StatusCompleted
	patch := &domain.TaskPatch{Status: &status}

	// assignee may flip status
	if _, err := svc.UpdateTask(context.Background(), assignee, task.ID, patch); err != nil {
		t.Fatalf("assignee status change: %v", err)
	}

	// a non-assignee user may not
	if _, err := svc.UpdateTask(context.Background(), other, task.ID, patch); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-assignee, got %v", err)
	}

	// and a non-status field makes the same patch manager-only
	title := "renamed"
	full := &domain.TaskPatch{Status: &status, Title: &title}
	if _, err := svc.UpdateTask(context.Background(), assignee, task.ID, full); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for mixed patch, got %v", err)
	}
	if _, err := svc.UpdateTask(context.Background(), manager, task.ID, full); err != nil {
		t.Fatalf("manager full update: %v", err)
	}
}

func TestUpdatePartialSemantics(t *testing.T) {
	svc, _, _ := newTestService()
	task := mustCreate(t, svc, &domain.Task{
		Title:       "keep title",
		Description: "keep desc",
		Priority:    domain.PriorityLow,
		AssignedTo:  assignee.ID,
	})

	p := domain.PriorityUrgent
	updated, err := svc.UpdateTask(context.Background(), manager, task.ID, &domain.TaskPatch{Priority: &p})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	if updated.Title != "keep title" || updated.Description != "keep desc" {
		t.Fatalf("omitted fields changed: %+v", updated)
	}
	if updated.Priority != domain.PriorityUrgent {
		t.Fatalf("priority = %s; want urgent", updated.Priority)
	}
}

func TestUpdateReassignmentNotifiesBothAssignees(t *testing.T) {
	svc, _, pub := newTestService()
	task := mustCreate(t, svc, &domain.Task{Title: "t", AssignedTo: assignee.ID})
	pub.events = nil

	newAssignee := other.ID
	if _, err := svc.UpdateTask(context.Background(), manager, task.ID, &domain.TaskPatch{AssignedTo: &newAssignee}); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.events))
	}
	assertTargets(t, pub.events[0].targets, assignee.ID, other.ID, manager.ID)
}

func TestUpdateMissingTask(t *testing.T) {
	svc, _, _ := newTestService()
	status := domain.StatusCompleted
	if _, err := svc.UpdateTask(context.Background(), manager, 404, &domain.TaskPatch{Status: &status}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	svc, store, pub := newTestService()
	task := mustCreate(t, svc, &domain.Task{Title: "t", AssignedTo: assignee.ID})
	pub.events = nil

	if err := svc.DeleteTask(context.Background(), assignee, task.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-manager delete, got %v", err)
	}

	if err := svc.DeleteTask(context.Background(), manager, task.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if _, ok := store.tasks[task.ID]; ok {
		t.Fatal("task still present after delete")
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.events))
	}
	ev := pub.events[0]
	if ev.event.Type != domain.EventTaskDeleted || ev.event.TaskID != task.ID {
		t.Fatalf("unexpected event %+v", ev.event)
	}
	assertTargets(t, ev.targets, assignee.ID, manager.ID)

	if err := svc.DeleteTask(context.Background(), manager, task.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListVisibilityForNonManager(t *testing.T) {
	svc, _, _ := newTestService()
	mustCreate(t, svc, &domain.Task{Title: "mine", AssignedTo: assignee.ID})
	mustCreate(t, svc, &domain.Task{Title: "not mine", AssignedTo: other.ID})

	// even an explicit filter for another user is overridden
	tasks, total, _, err := svc.ListTasks(context.Background(), assignee, domain.TaskFilter{AssignedTo: other.ID}, 1)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if total != 1 {
		t.Fatalf("total = %d; want 1", total)
	}
	for _, task := range tasks {
		if task.AssignedTo != assignee.ID {
			t.Fatalf("leaked task assigned to %d", task.AssignedTo)
		}
	}

	// the manager sees everything
	_, total, _, err = svc.ListTasks(context.Background(), manager, domain.TaskFilter{}, 1)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if total != 2 {
		t.Fatalf("manager total = %d; want 2", total)
	}
}

func TestListPageCount(t *testing.T) {
	svc, _, _ := newTestService()
	svc.SetPageLimits(2, 100)
	for i := 0; i < 5; i++ {
		mustCreate(t, svc, &domain.Task{Title: "t", AssignedTo: assignee.ID})
	}

	tasks, total, pages, err := svc.ListTasks(context.Background(), manager, domain.TaskFilter{}, 3)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if total != 5 || pages != 3 {
		t.Fatalf("total=%d pages=%d; want 5/3", total, pages)
	}
	if len(tasks) != 1 {
		t.Fatalf("last page length = %d; want 1", len(tasks))
	}
}

func TestGetStatsScoping(t *testing.T) {
	svc, _, _ := newTestService()
	mustCreate(t, svc, &domain.Task{Title: "a", AssignedTo: assignee.ID})
	mustCreate(t, svc, &domain.Task{Title: "b", Status: domain.StatusCompleted, AssignedTo: other.ID})

	counts, err := svc.GetStats(context.Background(), assignee)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	var sum int64
	for _, c := range counts {
		sum += c.Count
	}
	if sum != 1 {
		t.Fatalf("non-manager stats cover %d tasks; want 1", sum)
	}

	counts, err = svc.GetStats(context.Background(), manager)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	sum = 0
	for _, c := range counts {
		sum += c.Count
	}
	if sum != 2 {
		t.Fatalf("manager stats cover %d tasks; want 2", sum)
	}
}

func assertTargets(t *testing.T, got []int64, want ...int64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("targets = %v; want %v", got, want)
	}
	seen := make(map[int64]bool, len(got))
	for _, id := range got {
		if seen[id] {
			t.Fatalf("duplicate target %d in %v", id, got)
		}
		seen[id] = true
	}
	for _, id := range want {
		if !seen[id] {
			t.Fatalf("missing target %d in %v", id, got)
		}
	}
}

package ws

import (
	"encoding/json"
	"fmt"
	"testing"

	"taskflow/internal/domain"
)

func newTestConn(userID int64, queue int) *Client {
	return &Client{
		ID:     fmt.Sprintf("test-%d-%d", userID, queue),
		UserID: userID,
		Send:   make(chan []byte, queue),
	}
}

func drain(c *Client) []domain.TaskEvent {
	var events []domain.TaskEvent
	for {
		select {
		case msg := <-c.Send:
			var ev domain.TaskEvent
			if err := json.Unmarshal(msg, &ev); err == nil {
				events = append(events, ev)
			}
		default:
			return events
		}
	}
}

func TestPublishTargetsOnlySubscribedUsers(t *testing.T) {
	hub := NewHub()

	assigneeConn := newTestConn(2, 8)
	creatorConn := newTestConn(1, 8)
	bystanderConn := newTestConn(3, 8)

	hub.Subscribe(2, assigneeConn)
	hub.Subscribe(1, creatorConn)
	hub.Subscribe(3, bystanderConn)

	hub.Publish([]int64{2, 1}, domain.NewTaskDeleted(42))

	for _, c := range []*Client{assigneeConn, creatorConn} {
		events := drain(c)
		if len(events) != 1 {
			t.Fatalf("user %d got %d events; want exactly 1", c.UserID, len(events))
		}
		if events[0].Type != domain.EventTaskDeleted || events[0].TaskID != 42 {
			t.Fatalf("user %d got wrong event: %+v", c.UserID, events[0])
		}
	}

	if events := drain(bystanderConn); len(events) != 0 {
		t.Fatalf("unrelated user received %d events", len(events))
	}
}

func TestPublishReachesEveryConnectionOfAUser(t *testing.T) {
	hub := NewHub()

	first := newTestConn(7, 8)
	second := newTestConn(7, 8)
	hub.Subscribe(7, first)
	hub.Subscribe(7, second)

	task := &domain.Task{ID: 1, Title: "Fix bug", AssignedTo: 7}
	hub.Publish([]int64{7}, domain.NewTaskCreated(task))

	for _, c := range []*Client{first, second} {
		events := drain(c)
		if len(events) != 1 {
			t.Fatalf("connection got %d events; want 1", len(events))
		}
		if events[0].Task == nil || events[0].Task.Title != "Fix bug" {
			t.Fatalf("wrong payload: %+v", events[0])
		}
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	hub := NewHub()
	c := newTestConn(5, 8)

	hub.Subscribe(5, c)
	if n := hub.Connections(5); n != 1 {
		t.Fatalf("connections = %d; want 1", n)
	}

	hub.Unsubscribe(5, c)
	hub.Unsubscribe(5, c) // second removal is a no-op
	hub.Unsubscribe(99, c)

	if n := hub.Connections(5); n != 0 {
		t.Fatalf("connections after unsubscribe = %d; want 0", n)
	}

	hub.Publish([]int64{5}, domain.NewTaskDeleted(1))
	if events := drain(c); len(events) != 0 {
		t.Fatal("unsubscribed connection still received events")
	}
}

func TestLatecomerSeesNoBacklog(t *testing.T) {
	hub := NewHub()

	hub.Publish([]int64{4}, domain.NewTaskDeleted(1))

	late := newTestConn(4, 8)
	hub.Subscribe(4, late)
	if events := drain(late); len(events) != 0 {
		t.Fatal("connection subscribed after publish received the event")
	}
}

func TestPublishDropsWhenQueueFull(t *testing.T) {
	hub := NewHub()

	slow := newTestConn(6, 1)
	hub.Subscribe(6, slow)

	// first fills the queue; second must be dropped, not block
	hub.Publish([]int64{6}, domain.NewTaskDeleted(1))
	hub.Publish([]int64{6}, domain.NewTaskDeleted(2))

	events := drain(slow)
	if len(events) != 1 {
		t.Fatalf("got %d events; want 1 (newest dropped)", len(events))
	}
	if events[0].TaskID != 1 {
		t.Fatalf("kept event id = %d; want the first", events[0].TaskID)
	}
}

func TestConcurrentSubscribeUnsubscribe(t *testing.T) {
	hub := NewHub()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(userID int64) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				c := newTestConn(userID, 4)
				hub.Subscribe(userID, c)
				hub.Publish([]int64{userID}, domain.NewTaskDeleted(int64(j)))
				hub.Unsubscribe(userID, c)
			}
		}(int64(i % 3))
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	for id := int64(0); id < 3; id++ {
		if n := hub.Connections(id); n != 0 {
			t.Fatalf("user %d left with %d connections", id, n)
		}
	}
}

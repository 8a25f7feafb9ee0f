package ws

import (
	"encoding/json"
	"sync"

	"taskflow/internal/domain"
	"taskflow/internal/logger"
)

// Hub is the channel registry: user id -> set of live connections for
// that user. It is constructed once at process start and handed to both
// the connection-accept path and the task service (as its
// EventPublisher); there is no ambient singleton.
type Hub struct {
	mu       sync.RWMutex
	channels map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		channels: make(map[int64]map[*Client]struct{}),
	}
}

// Subscribe registers the connection under userID's channel. A user may
// hold any number of simultaneous connections; all of them receive every
// event for that user.
func (h *Hub) Subscribe(userID int64, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.channels[userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.channels[userID] = set
	}
	set[c] = struct{}{}
}

// Unsubscribe removes the connection from userID's channel. Idempotent:
// removing an absent connection is a no-op.
func (h *Hub) Unsubscribe(userID int64, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.channels[userID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.channels, userID)
	}
}

// Connections returns how many live connections userID currently holds.
func (h *Hub) Connections(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[userID])
}

// Publish delivers ev to every connection registered under any of the
// target ids at the moment of the call. Connections joining later see
// nothing: no buffering, no replay. A full send queue drops the event
// for that connection only; events are invalidation hints and the HTTP
// API stays authoritative, so a miss leaves a client stale at worst
// until its next fetch or reconnect.
func (h *Hub) Publish(userIDs []int64, ev domain.TaskEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Error("failed to marshal task event", "error", err, "type", ev.Type)
		return
	}

	h.mu.RLock()
	var targets []*Client
	for _, id := range userIDs {
		for c := range h.channels[id] {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	// The lock is released before any send: a slow consumer must never
	// stall registry mutations or other deliveries.
	for _, c := range targets {
		select {
		case c.Send <- payload:
			wsEventsPublished.WithLabelValues(string(ev.Type)).Inc()
		default:
			wsEventsDropped.WithLabelValues(string(ev.Type)).Inc()
			logger.Warn("dropping event for slow connection", "conn", c.ID, "user_id", c.UserID, "type", ev.Type)
		}
	}
}

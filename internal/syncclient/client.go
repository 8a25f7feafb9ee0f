package syncclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"taskflow/internal/domain"
	"taskflow/internal/logger"

	"github.com/gorilla/websocket"
)

// State of the push connection.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

const (
	readWait   = 60 * time.Second
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

type Config struct {
	// ServerURL is the http(s) base of the API, e.g. http://localhost:8080.
	ServerURL string
	Token     string
	UserID    int64

	// Query mirrored on every refetch.
	Filter domain.TaskFilter
	Page   int

	// OnUpdate fires after each successful refetch.
	OnUpdate func(Snapshot)
	// OnStateChange fires on every transition of the connection state.
	OnStateChange func(State)
}

// Client keeps one browser-tab-equivalent view of the task list in sync.
// It never patches its cached page from a push event; every event is an
// invalidation signal that triggers a full refetch of the current list
// and stats query. Duplicate or out-of-order events therefore cost a
// redundant refresh but can never corrupt the view.
type Client struct {
	cfg Config
	api *apiClient

	mu    sync.RWMutex
	state State
	snap  Snapshot

	// invalidate has capacity 1: any number of events pending at once
	// collapse into a single refetch.
	invalidate chan struct{}
}

// Snapshot is the client's current server-confirmed view.
type Snapshot struct {
	Tasks []*domain.Task
	Total int64
	Pages int64
	Stats []domain.StatusCount
}

func New(cfg Config) *Client {
	if cfg.Page < 1 {
		cfg.Page = 1
	}
	return &Client{
		cfg:        cfg,
		api:        newAPIClient(cfg.ServerURL, cfg.Token),
		state:      StateDisconnected,
		invalidate: make(chan struct{}, 1),
	}
}

func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Client) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Run connects and keeps the client in sync until ctx is cancelled,
// reconnecting with capped exponential backoff. Missed events during an
// outage are irrelevant: every (re)connect refetches current state.
func (c *Client) Run(ctx context.Context) {
	go c.refetchLoop(ctx)

	backoff := minBackoff
	for {
		if ctx.Err() != nil {
			c.setState(StateDisconnected)
			return
		}

		c.setState(StateConnecting)
		conn, err := c.dial(ctx)
		if err != nil {
			logger.Debug("sync connect failed", "error", err)
			c.setState(StateDisconnected)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}

		backoff = minBackoff
		c.setState(StateConnected)

		// re-announce identity, then refetch: the server replays nothing
		if err := conn.WriteJSON(map[string]any{"type": "join", "user_id": c.cfg.UserID}); err == nil {
			c.trigger()
			c.readLoop(ctx, conn)
		}

		conn.Close()
		c.setState(StateDisconnected)
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	wsURL, err := c.wsURL()
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, wsURL, nil)
	return conn, err
}

func (c *Client) wsURL() (string, error) {
	u, err := url.Parse(c.cfg.ServerURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	q := u.Query()
	q.Set("token", c.cfg.Token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(readWait))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second))
	})

	// close the socket when ctx ends so ReadMessage unblocks
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(readWait))
		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &env); err != nil {
		return
	}

	switch domain.EventType(env.Type) {
	case domain.EventTaskCreated, domain.EventTaskUpdated, domain.EventTaskDeleted:
		c.trigger()
	}
}

// trigger schedules one refetch; concurrent triggers coalesce.
func (c *Client) trigger() {
	select {
	case c.invalidate <- struct{}{}:
	default:
	}
}

func (c *Client) refetchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.invalidate:
		}

		snap, err := c.refetch(ctx)
		if err != nil {
			logger.Debug("sync refetch failed", "error", err)
			continue
		}

		c.mu.Lock()
		c.snap = snap
		c.mu.Unlock()

		if c.cfg.OnUpdate != nil {
			c.cfg.OnUpdate(snap)
		}
	}
}

func (c *Client) refetch(ctx context.Context) (Snapshot, error) {
	list, err := c.api.listTasks(ctx, c.cfg.Filter, c.cfg.Page)
	if err != nil {
		return Snapshot{}, err
	}
	stats, err := c.api.getStats(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Tasks: list.Data,
		Total: list.Total,
		Pages: list.Pages,
		Stats: stats,
	}, nil
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	changed := c.state != s
	c.state = s
	c.mu.Unlock()

	if changed && c.cfg.OnStateChange != nil {
		c.cfg.OnStateChange(s)
	}
}

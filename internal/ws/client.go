package ws

import (
	"encoding/json"
	"time"

	"taskflow/internal/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	// sendQueueSize bounds the per-connection outbound queue. When it is
	// full the hub drops the newest event instead of blocking.
	sendQueueSize = 256
)

// Client is one live websocket connection. UserID is the token subject
// established during the upgrade; the connection only ever subscribes to
// that user's channel.
type Client struct {
	ID     string
	UserID int64
	Conn   *websocket.Conn
	Send   chan []byte

	hub    *Hub
	joined bool
}

func NewClient(userID int64, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, sendQueueSize),
		hub:    hub,
	}
}

func (c *Client) Run() {
	wsConnections.Inc()
	go c.writePump()

	// explicit ready handshake so clients know the pumps are up
	if payload, err := json.Marshal(ack{Type: MsgReady}); err == nil {
		select {
		case c.Send <- payload:
		default:
		}
	}

	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.disconnect()
		wsConnections.Dec()
	}()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			logger.Debug("ws read closed", "conn", c.ID, "error", err)
			break
		}
		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg []byte) {
	var in inbound
	if err := json.Unmarshal(msg, &in); err != nil {
		c.sendError("invalid message")
		return
	}

	switch in.Type {
	case MsgJoin:
		// a connection may only join the channel of its own token subject
		if in.UserID != c.UserID {
			c.sendError("cannot join another user's channel")
			return
		}
		if !c.joined {
			c.hub.Subscribe(c.UserID, c)
			c.joined = true
			logger.Debug("client joined channel", "conn", c.ID, "user_id", c.UserID)
		}
		c.sendJSON(ack{Type: MsgJoined, UserID: c.UserID})

	case MsgLeave:
		if c.joined {
			c.hub.Unsubscribe(c.UserID, c)
			c.joined = false
			logger.Debug("client left channel", "conn", c.ID, "user_id", c.UserID)
		}

	default:
		c.sendError("unknown message type")
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("ws write failed", "conn", c.ID, "error", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) sendJSON(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case c.Send <- payload:
	default:
	}
}

func (c *Client) sendError(reason string) {
	c.sendJSON(errorMsg{Type: MsgError, Error: reason})
}

func (c *Client) disconnect() {
	if c.joined {
		c.hub.Unsubscribe(c.UserID, c)
		c.joined = false
	}
	_ = c.Conn.Close()
}

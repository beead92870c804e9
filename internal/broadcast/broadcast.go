// Package broadcast fans outbound assistant messages out to connected
// WebSocket clients, generalizing the teacher's ws.Broadcaster
// client/writePump/flush shape into the single-stream delivery
// transport this runtime needs.
package broadcast

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/assistantd/assistantd/internal/contextmodel"
)

// ErrTooManyConnections is returned by AddClient once maxConns is reached.
var ErrTooManyConnections = errors.New("too many WebSocket connections")

// WSResponse is the single outbound message shape sent to every client.
type WSResponse struct {
	Type             string  `json:"type"`
	Content          string  `json:"content"`
	InterventionType string  `json:"intervention_type,omitempty"`
	Urgency          int     `json:"urgency,omitempty"`
	Reasoning        string  `json:"reasoning,omitempty"`
	State            string  `json:"state,omitempty"`
	Tooltip          string  `json:"tooltip,omitempty"`
	Seq              uint64  `json:"seq"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{conn: conn, send: make(chan []byte, 32)}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *client) close() {
	close(c.send)
}

// Broadcaster fans messages out to every connected client, dropping any
// client that can't keep up rather than blocking the sender.
type Broadcaster struct {
	mu       sync.RWMutex
	clients  map[*client]bool
	maxConns int
	logger   *slog.Logger
	seq      atomic.Uint64
}

// New constructs a Broadcaster. maxConns <= 0 means unlimited.
func New(maxConns int, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		clients:  make(map[*client]bool),
		maxConns: maxConns,
		logger:   logger,
	}
}

// AddClient registers a new WebSocket connection.
func (b *Broadcaster) AddClient(conn *websocket.Conn) (*client, error) {
	b.mu.Lock()
	if b.maxConns > 0 && len(b.clients) >= b.maxConns {
		b.mu.Unlock()
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too many connections"))
		conn.Close()
		return nil, ErrTooManyConnections
	}
	c := newClient(conn)
	b.clients[c] = true
	b.mu.Unlock()
	return c, nil
}

// RemoveClient disconnects and unregisters a client.
func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

// ClientCount reports the number of currently connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Send delivers a message to every connected client, stamping it with
// the next sequence number.
func (b *Broadcaster) Send(msg WSResponse) {
	msg.Seq = b.seq.Add(1)
	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Warn("broadcast marshal failed", "error", err)
		return
	}

	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- data:
		default:
			b.logger.Warn("ws client too slow, disconnecting")
			b.RemoveClient(c)
		}
	}
}

// SendMessage converts a contextmodel.Message into a WSResponse and sends it.
func (b *Broadcaster) SendMessage(msg contextmodel.Message, state contextmodel.UserState) {
	b.Send(WSResponse{
		Type:             "message",
		Content:          msg.Content,
		InterventionType: msg.InterventionType.String(),
		Urgency:          msg.Urgency,
		Reasoning:        msg.Reasoning,
		State:            state.String(),
	})
}

// SendAmbient broadcasts an ambient status message, e.g. goal_check's
// on_track/goal_behind tag. Ambient messages carry no intervention_type or
// urgency and bypass the Delivery Coordinator gate entirely.
func (b *Broadcaster) SendAmbient(content, state string) {
	b.Send(WSResponse{
		Type:    "ambient",
		Content: content,
		State:   state,
	})
}

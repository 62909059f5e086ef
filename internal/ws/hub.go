package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"energy_simulator/internal/util"
)

const (
	sendBuffer = 256
	writeWait  = 10 * time.Second
)

// Client is a connected telemetry subscriber.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	remote string
	send   chan []byte

	// dropped counts envelopes skipped because the send buffer was full
	dropped int
}

func newClient(hub *Hub, conn *websocket.Conn, remote string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		remote: remote,
		send:   make(chan []byte, sendBuffer),
	}
}

// Hub fans simulation envelopes out to all clients.
type Hub struct {
	log     *util.Logger
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		log:     util.NewLogger("ws"),
		clients: make(map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	h.log.DEBUG.Printf("client %s connected (%d total)", c.remote, len(h.clients))
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	if c.dropped > 0 {
		h.log.WARN.Printf("client %s disconnected after %d dropped messages", c.remote, c.dropped)
	}
}

// Publish encodes one envelope and queues it for every client.
func (h *Hub) Publish(msgType string, payload any) error {
	msg, err := NewEnvelope(msgType, payload)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if !c.enqueue(msg) {
			h.log.TRACE.Printf("client %s buffer full, dropping %s", c.remote, msgType)
		}
	}
	return nil
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Send queues an envelope for this client only.
func (c *Client) Send(msgType string, payload any) error {
	msg, err := NewEnvelope(msgType, payload)
	if err != nil {
		return err
	}

	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	if _, ok := c.hub.clients[c]; ok {
		c.enqueue(msg)
	}
	return nil
}

// enqueue must be called with the hub lock held.
func (c *Client) enqueue(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		c.dropped++
		return false
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "simulator shutting down"))
}

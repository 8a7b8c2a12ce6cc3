// Package stream exposes a running simulation's event stream over
// WebSocket, for live dashboards watching a simulation as it runs. The
// upgrade/broadcast shape is grounded on
// jontk-slurm-client/pkg/streaming/websocket.go's WebSocketServer, adapted
// from SLURM watch-channel fan-out to monitor.Sink's push-based callbacks.
package stream

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/joeycumines/go-mcsim/monitor"
)

// Message is the wire envelope for one event, discriminated by Type.
type Message struct {
	Type      string                  `json:"type"`
	Job       *monitor.JobEvent       `json:"job,omitempty"`
	Scheduler *monitor.SchedulerEvent `json:"scheduler,omitempty"`
	Timestamp time.Time               `json:"timestamp"`
}

// Hub is a monitor.Sink that fans every event out to all connected
// WebSocket clients. The zero value is not usable; construct with NewHub.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan Message
}

// NewHub constructs an empty Hub, ready to accept connections via
// ServeWS and events via JobEvent/SchedulerEvent.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// ServeWS upgrades r to a WebSocket connection and registers it as a
// broadcast target until reading from the connection fails (for example
// when the client closes it) or a write to it fails.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("mcsim: websocket upgrade error: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan Message, 64)}
	h.register(c)

	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// readLoop discards inbound frames; this is a push-only feed, but a
// connection must still be read to observe close frames and pings.
func (h *Hub) readLoop(c *client) {
	defer h.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop drains c.send until the channel is closed by unregister, then
// closes the underlying connection.
func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			log.Printf("mcsim: websocket write error: %v", err)
			h.unregister(c)
			return
		}
	}
}

func (h *Hub) broadcast(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// slow client; drop the message rather than block the
			// simulation's single active goroutine.
		}
	}
}

// JobEvent implements monitor.Sink.
func (h *Hub) JobEvent(e monitor.JobEvent) {
	h.broadcast(Message{Type: "job", Job: &e, Timestamp: time.Now()})
}

// SchedulerEvent implements monitor.Sink.
func (h *Hub) SchedulerEvent(e monitor.SchedulerEvent) {
	h.broadcast(Message{Type: "scheduler", Scheduler: &e, Timestamp: time.Now()})
}

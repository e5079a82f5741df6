// Package broadcast fans market events out to WebSocket subscribers.
package broadcast

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"glue-exchange/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientBufSize  = 32
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The market feed is public and read-only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains the set of live WebSocket clients and pushes every
// market event to each of them. Clients that cannot keep up are
// disconnected rather than allowed to stall the feed.
type Hub struct {
	events <-chan domain.MarketEvent

	register   chan *client
	unregister chan *client
	clients    map[*client]struct{}

	logger *log.Logger

	// onCountChange observes the client count, used for gauges.
	onCountChange func(n int)
}

// NewHub creates a hub reading from the given event stream.
func NewHub(events <-chan domain.MarketEvent, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		events:     events,
		register:   make(chan *client),
		unregister: make(chan *client),
		clients:    make(map[*client]struct{}),
		logger:     logger,
	}
}

// OnClientCountChange registers a callback invoked with the new client
// count after every connect and disconnect. Must be set before Run.
func (h *Hub) OnClientCountChange(fn func(n int)) {
	h.onCountChange = fn
}

// Run owns the client set. It exits when ctx is cancelled, closing
// every client connection.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for c := range h.clients {
			close(c.send)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.notifyCount()

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.notifyCount()
			}

		case ev := <-h.events:
			payload, err := json.Marshal(ev)
			if err != nil {
				h.logger.Printf("marshal market event: %v", err)
				continue
			}
			for c := range h.clients {
				select {
				case c.send <- payload:
				default:
					// Slow consumer: drop it.
					delete(h.clients, c)
					close(c.send)
					h.notifyCount()
				}
			}
		}
	}
}

func (h *Hub) notifyCount() {
	if h.onCountChange != nil {
		h.onCountChange(len(h.clients))
	}
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("websocket upgrade: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBufSize)}
	h.register <- c

	go c.writePump(h)
	go c.readPump(h)
}

// writePump drains the client's send channel onto the wire and keeps
// the connection alive with pings.
func (c *client) writePump(h *Hub) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound messages; the feed is one-way. Its real job
// is detecting disconnects and answering pongs.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Package hub fans forum events out to connected websocket clients.
//
// The hub consumes the store's event subscription and broadcasts each
// frame to every connected client. Delivery is at-most-once: frames are
// not queued for disconnected clients, and a client whose send buffer
// stays full is dropped rather than allowed to stall the broadcast. The
// client side repairs any gap with a pull on reconnect.
package hub

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openfloor/openfloor/internal/server/store"
	"github.com/openfloor/openfloor/pkg/forum"
)

const (
	// writeWait bounds a single frame write to a client.
	writeWait = 10 * time.Second

	// pongWait is how long the hub tolerates a silent client.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBuffer is the per-client frame backlog before the client is
	// considered too slow and dropped.
	sendBuffer = 32
)

// Hub broadcasts forum event frames to websocket clients.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			// The forum is an open surface; cross-origin browsers are
			// expected (the original deployment served UI and API from
			// different hosts).
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Run consumes store events and broadcasts them until the context is
// cancelled. Subscription errors are logged and skipped, never fatal.
func (h *Hub) Run(ctx context.Context, s *store.Store) error {
	sub, err := s.SubscribeEvents(ctx)
	if err != nil {
		return err
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return nil

		case event, ok := <-sub.Events():
			if !ok {
				h.closeAll()
				return nil
			}
			h.broadcast(event)

		case err, ok := <-sub.Errors():
			if !ok {
				h.closeAll()
				return nil
			}
			log.Printf("[Hub] Subscription error: %v", err)
		}
	}
}

// ServeWS upgrades an HTTP request to a websocket connection and
// registers it for broadcasts.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Hub] Upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	log.Printf("[Hub] Client connected (%d total)", count)

	go h.writePump(c)
	go h.readPump(c)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// broadcast sends an encoded event frame to every client. A client with
// a full send buffer is dropped; stalling here would stall every other
// client's delivery.
func (h *Hub) broadcast(event *forum.Event) {
	frame, err := forum.EncodeEvent(event)
	if err != nil {
		log.Printf("[Hub] Failed to encode event: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// remove unregisters a client. Safe to call twice; only the first call
// closes the send channel.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// closeAll disconnects every client.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// writePump drains the client's send channel onto the wire and keeps the
// connection alive with pings. Exit closes the connection, which also
// terminates readPump.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
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

// readPump discards inbound frames (clients only listen) and unregisters
// the client when the connection drops or the client goes silent.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
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

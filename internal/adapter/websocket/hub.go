// Package websocket pushes dashboard updates to connected browsers.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/couchcryptid/trashrake-monitor/internal/domain"
	"github.com/couchcryptid/trashrake-monitor/internal/observability"
	"github.com/gorilla/websocket"
)

// ErrHubClosed is returned when publishing after the hub has stopped.
var ErrHubClosed = errors.New("websocket hub closed")

// MessageOverview is the type tag of overview pushes.
const MessageOverview = "overview"

// Renderer turns an accepted snapshot into the payload pushed to clients.
type Renderer func(domain.Snapshot) any

// Message is the envelope written to every client.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Hub maintains the set of active clients and broadcasts messages. The
// client set is owned by the Run goroutine.
type Hub struct {
	render   Renderer
	upgrader websocket.Upgrader
	logger   *slog.Logger
	metrics  *observability.Metrics

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	clients    atomic.Int64
}

// NewHub creates a hub. Run must be started before clients can connect.
func NewHub(render Renderer, logger *slog.Logger, metrics *observability.Metrics) *Hub {
	return &Hub{
		render: render,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:     logger,
		metrics:    metrics,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is cancelled. New clients are sent the
// most recent broadcast straight away.
func (h *Hub) Run(ctx context.Context) {
	clients := make(map[*Client]struct{})
	var last []byte

	defer func() {
		close(h.done)
		for c := range clients {
			close(c.send)
		}
		h.setClients(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			clients[c] = struct{}{}
			h.setClients(len(clients))
			h.logger.Debug("websocket client registered", "remote", c.remote)
			if last != nil {
				c.send <- last
			}
		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
				h.setClients(len(clients))
				h.logger.Debug("websocket client unregistered", "remote", c.remote)
			}
		case msg := <-h.broadcast:
			last = msg
			for c := range clients {
				select {
				case c.send <- msg:
				default:
					h.logger.Warn("websocket client too slow, dropping", "remote", c.remote)
					delete(clients, c)
					close(c.send)
				}
			}
			h.setClients(len(clients))
		}
	}
}

// Name implements pipeline.Publisher.
func (h *Hub) Name() string { return "websocket" }

// Publish implements pipeline.Publisher by broadcasting the rendered
// snapshot to every client.
func (h *Hub) Publish(ctx context.Context, snap domain.Snapshot) error {
	return h.Broadcast(ctx, MessageOverview, h.render(snap))
}

// Broadcast sends one typed message to every client.
func (h *Hub) Broadcast(ctx context.Context, msgType string, payload any) error {
	data, err := json.Marshal(Message{Type: msgType, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", msgType, err)
	}
	select {
	case h.broadcast <- data:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	return int(h.clients.Load())
}

// ServeHTTP upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		remote: conn.RemoteAddr().String(),
		logger: h.logger,
	}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (h *Hub) setClients(n int) {
	h.clients.Store(int64(n))
	if h.metrics != nil {
		h.metrics.WebsocketClients.Set(float64(n))
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

/*
Package socket holds the real-time endpoint of the server.

The endpoint is a placeholder: it accepts WebSocket connections, keeps them alive with ping/pong
and logs when they come and go. Inbound frames are read and discarded; nothing is ever broadcast.
*/
package socket

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"echospace/internal/pkg/logx"
	"echospace/internal/pkg/metrics"
)

// Hub tracks the open connections so they can be counted and closed on shutdown.
type Hub struct {
	// mu protects conns and closed.
	mu sync.Mutex

	conns  map[*Conn]struct{}
	closed bool

	// wg counts connections that have not finished their cleanup.
	wg sync.WaitGroup

	logger zerolog.Logger
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{
		conns:  make(map[*Conn]struct{}),
		logger: logx.Component("SocketHub"),
	}
}

// Serve runs an upgraded connection until the peer leaves or the hub shuts down.
// It blocks for the lifetime of the connection.
func (h *Hub) Serve(ws *websocket.Conn, remoteAddr string) {
	c := newConn(h, ws, remoteAddr)

	if !h.register(c) {
		c.logger.Info().Msg("Socket rejected: hub is shutting down.")
		c.closeWith(websocket.CloseGoingAway, "server shutting down")
		return
	}

	go c.writePump()
	c.readPump()
}

func (h *Hub) register(c *Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}

	h.conns[c] = struct{}{}
	h.wg.Add(1)
	metrics.SocketConnected()

	c.logger.Info().Int("open_connections", len(h.conns)).Msg("Socket connected.")
	return true
}

func (h *Hub) unregister(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; !ok {
		return
	}

	delete(h.conns, c)
	h.wg.Done()
	metrics.SocketDisconnected()

	c.logger.Info().
		Dur("duration", c.age()).
		Int("open_connections", len(h.conns)).
		Msg("Socket disconnected.")
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Shutdown refuses new connections, sends a going-away close frame to every open one and
// waits until all of them have been cleaned up or ctx is done.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	open := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		open = append(open, c)
	}
	h.mu.Unlock()

	h.logger.Info().Int("open_connections", len(open)).Msg("Shutting down socket hub...")

	for _, c := range open {
		c.closeWith(websocket.CloseGoingAway, "server shutting down")
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info().Msg("Socket hub shutdown complete.")
		return nil
	case <-ctx.Done():
		h.logger.Warn().Msg("Socket hub shutdown timed out.")
		return ctx.Err()
	}
}

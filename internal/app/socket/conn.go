package socket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"echospace/internal/pkg/logx"
	"echospace/internal/pkg/randx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxMessageSize = 8192
)

// Conn is one open placeholder connection.
type Conn struct {
	id  string
	hub *Hub
	ws  *websocket.Conn

	connectedAt time.Time

	// done is closed once the connection is torn down; it stops the write pump.
	done      chan struct{}
	closeOnce sync.Once

	logger zerolog.Logger
}

func newConn(hub *Hub, ws *websocket.Conn, remoteAddr string) *Conn {
	id := randx.ID()

	return &Conn{
		id:          id,
		hub:         hub,
		ws:          ws,
		connectedAt: time.Now(),
		done:        make(chan struct{}),
		logger: logx.Logger().With().
			Str("component", "Socket").
			Str("conn_id", id).
			Str("remote_ip", logx.AnonymizeIP(remoteAddr)).
			Logger(),
	}
}

// readPump reads and discards frames until the connection fails, then cleans up.
func (c *Conn) readPump() {
	defer func() {
		c.close()
		c.hub.unregister(c)
	}()

	c.ws.SetReadLimit(maxMessageSize)

	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Socket read ended unexpectedly")
			}
			return
		}

		c.logger.Debug().
			Int("message_type", messageType).
			Int("bytes", len(payload)).
			Msg("Discarding inbound frame")
	}
}

// writePump keeps the peer alive with periodic pings until the connection is torn down.
// Control frames go through WriteControl, which is safe next to Shutdown's close frame.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return

		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.logger.Warn().Err(err).Msg("Error writing ping")
				c.close()
				return
			}
		}
	}
}

// closeWith sends a close frame with code and reason, then tears the connection down.
func (c *Conn) closeWith(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	if err := c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		c.logger.Debug().Err(err).Msg("Failed to send close frame")
	}
	c.close()
}

func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if err := c.ws.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Socket close error")
		}
	})
}

func (c *Conn) age() time.Duration {
	return time.Since(c.connectedAt)
}

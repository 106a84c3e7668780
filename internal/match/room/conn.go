package room

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ConnConfig holds per-connection WebSocket tuning.
type ConnConfig struct {
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

// DefaultConnConfig returns the default connection tuning.
func DefaultConnConfig() ConnConfig {
	return ConnConfig{
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 4096,
		SendBuffer:     32,
	}
}

// Conn is one player's WebSocket connection. Outbound frames go
// through the send channel so the write pump is the only writer.
type Conn struct {
	ID       string
	PlayerID string
	RoomCode string

	ws   *websocket.Conn
	send chan []byte
	cfg  ConnConfig

	// mu guards closed so no frame is ever enqueued onto a closed
	// send channel, whichever goroutine gets there first.
	mu     sync.Mutex
	closed bool
}

// NewConn wraps an upgraded WebSocket connection.
func NewConn(ws *websocket.Conn, cfg ConnConfig) *Conn {
	return &Conn{
		ID:   uuid.New().String(),
		ws:   ws,
		send: make(chan []byte, cfg.SendBuffer),
		cfg:  cfg,
	}
}

// Outbound exposes the queued frames. The write pump is the normal
// consumer; anything else draining this channel replaces it.
func (c *Conn) Outbound() <-chan []byte {
	return c.send
}

// Enqueue queues a frame for delivery. It reports false when the
// connection is shut down or its send buffer is full, which callers
// treat as a dead connection.
func (c *Conn) Enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// shutdown closes the send channel exactly once, letting the write
// pump drain and exit. Safe against concurrent Enqueue calls.
func (c *Conn) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// WritePump drains the send channel onto the socket and keeps the
// connection alive with pings. It exits when the send channel closes
// or a write fails.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Debug().Err(err).Str("connection_id", c.ID).Msg("write failed")
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadFrame blocks for the next text frame from the client.
func (c *Conn) ReadFrame() ([]byte, error) {
	c.ws.SetReadLimit(c.cfg.MaxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		return nil
	})
	_, data, err := c.ws.ReadMessage()
	return data, err
}

// Close tears down the socket directly; the manager closes the send
// channel when it unregisters the connection.
func (c *Conn) Close() {
	c.ws.Close()
}

package realtime

import (
	"context"
	"dm-lab/domain/event"
	"dm-lab/errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type ConnectionConfig struct {
	BufferSize   int
	WriteTimeout time.Duration
	PongTimeout  time.Duration
	PingInterval time.Duration
	ReadLimit    int64
}

// Connection wraps a websocket and coordinates outbound writes via a buffered channel.
// A connection is uniquely identified per user session and is safe for concurrent use.
type Connection struct {
	ID     string
	UserID string

	ws     *websocket.Conn
	cfg    ConnectionConfig
	log    *slog.Logger
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	closed sync.WaitGroup
}

func NewConnection(userID string, ws *websocket.Conn, cfg ConnectionConfig, log *slog.Logger) *Connection {
	id := uuid.NewString()
	return &Connection{
		ID:     id,
		UserID: userID,
		ws:     ws,
		cfg:    cfg,
		log:    log.With("connection_id", id, "user_id", userID),
		send:   make(chan []byte, cfg.BufferSize),
		done:   make(chan struct{}),
	}
}

// Start launches the write loop. It must be called exactly once per connection.
func (c *Connection) Start() {
	c.closed.Add(1)
	go c.writeLoop()
}

// Consume frames the event and enqueues it without blocking.
func (c *Connection) Consume(_ context.Context, e event.Event) error {
	frame, err := e.Frame()
	if err != nil {
		return err
	}
	return c.Send(frame)
}

// Send enqueues payload for delivery. If the client is slow and the buffer is full,
// the connection is closed to keep backpressure bounded.
func (c *Connection) Send(payload []byte) error {
	select {
	case <-c.done:
		return errors.ErrClosed
	default:
	}
	select {
	case c.send <- payload:
		return nil
	default:
		c.log.Warn("Slow consumer, closing connection")
		c.Close(websocket.ClosePolicyViolation, "send buffer full")
		return errors.ErrSlowConsumer
	}
}

// Close terminates the connection and stops the write loop. It is idempotent and never blocks:
// the close frame is written in the background.
func (c *Connection) Close(code int, reason string) {
	c.once.Do(func() {
		close(c.done)
		go func() {
			deadline := time.Now().Add(c.cfg.WriteTimeout)
			_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(wireCloseCode(code), reason), deadline)
			_ = c.ws.Close()
		}()
	})
}

// wireCloseCode replaces the codes that must never be sent in a close frame.
func wireCloseCode(code int) int {
	switch code {
	case websocket.CloseNoStatusReceived, websocket.CloseAbnormalClosure, websocket.CloseTLSHandshake:
		return websocket.CloseInternalServerErr
	}
	return code
}

func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the write loop exited.
func (c *Connection) Wait() {
	c.closed.Wait()
}

// ReadLoop hands every text frame to handle until the peer leaves or stops answering pings.
func (c *Connection) ReadLoop(handle func(payload []byte)) {
	defer c.Close(websocket.CloseNormalClosure, "")

	if c.cfg.ReadLimit > 0 {
		c.ws.SetReadLimit(c.cfg.ReadLimit)
	}
	_ = c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	})

	for {
		kind, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("Connection read failed", "error", err)
			}
			return
		}
		if kind == websocket.TextMessage {
			handle(payload)
		}
	}
}

func (c *Connection) writeLoop() {
	defer c.closed.Done()
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				c.Close(websocket.CloseInternalServerErr, "write failed")
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.Close(websocket.CloseInternalServerErr, "ping failed")
				return
			}
		}
	}
}

func (c *Connection) write(kind int, payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(kind, payload)
}

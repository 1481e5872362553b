package registry

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Conn owns the outbound half of one websocket connection. All frames pass
// through a single buffered queue drained by one goroutine, which is what
// gives per-session submission-order delivery.
type Conn struct {
	id string
	ws WireConn

	queue chan []byte
	done  chan struct{}

	closed   atomic.Bool
	shutOnce sync.Once

	writeTimeout time.Duration
	logger       *slog.Logger
}

func (c *Conn) send(frame []byte) bool {
	if c.closed.Load() {
		return false
	}
	select {
	case c.queue <- frame:
		return true
	case <-c.done:
		return false
	}
}

func (c *Conn) open() bool {
	return !c.closed.Load()
}

// shutdown stops the writer and closes the socket. Frames already queued
// are abandoned; the peer is gone or being replaced.
func (c *Conn) shutdown() {
	c.shutOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)
	})
}

func (c *Conn) writeLoop() {
	defer func() {
		_ = c.ws.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.queue:
			if err := c.write(frame); err != nil {
				c.logger.Warn("outbound write failed", "session_id", c.id, "error", err)
				c.shutdown()
				return
			}
		}
	}
}

func (c *Conn) write(frame []byte) error {
	if c.writeTimeout > 0 {
		if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return c.ws.WriteMessage(websocket.TextMessage, frame)
}

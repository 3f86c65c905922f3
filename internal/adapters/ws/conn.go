package ws

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/codepals/collab/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// Conn wraps one websocket with a bounded outbound queue. TrySend
// never blocks: when the queue is full the frame is rejected and the
// caller's backpressure policy decides what happens to the connection.
type Conn struct {
	id   core.ConnID
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newConn(id core.ConnID, wsc *websocket.Conn, sendBuffer int) *Conn {
	if sendBuffer <= 0 {
		sendBuffer = 32
	}
	return &Conn{
		id:   id,
		conn: wsc,
		send: make(chan core.Frame, sendBuffer),
	}
}

func (c *Conn) ID() core.ConnID { return c.id }

func (c *Conn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

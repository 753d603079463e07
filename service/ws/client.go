package ws

import (
	"sync"
	"time"

	"DriveSync/logger"

	"github.com/gorilla/websocket"
)

const writeDeadline = 5 * time.Second

// Client is one live connection. A single user may hold several at once,
// each with its own send queue drained by a single writer goroutine.
type Client struct {
	ConnID string          // connection handle, unique per process
	UserID string          // set after AUTH; "" while unauthenticated
	WS     *websocket.Conn // nil in tests
	Send   chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func NewClient(connID string, ws *websocket.Conn, sendQueueSize int) *Client {
	return &Client{
		ConnID: connID,
		WS:     ws,
		Send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
	}
}

// Enqueue offers payload to the send queue without blocking. A slow
// client drops frames; it refetches authoritative state on reconnect.
func (c *Client) Enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- payload:
		return true
	default:
		logger.Warnf("[ws] send queue full, drop frame conn=%s user=%s", c.ConnID, c.UserID)
		return false
	}
}

// writePump drains the send queue onto the socket. Exits on Close or on
// the first write error; the read loop notices via the closed socket.
func (c *Client) writePump() {
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.Send:
			if c.WS == nil {
				continue
			}
			_ = c.WS.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.WS.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Infof("[ws] write err conn=%s err=%v", c.ConnID, err)
				c.Close()
				return
			}
		}
	}
}

// Close is idempotent; safe from any goroutine.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.WS != nil {
			_ = c.WS.Close()
		}
	})
}

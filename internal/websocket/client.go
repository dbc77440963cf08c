package websocket

import (
	"bytes"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second

	// Short enough to notice a dropped connection within a countdown minute.
	pongWait = 30 * time.Second

	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512

	// A countdown sends one message per second, so this is two minutes of backlog.
	defaultClientBufferSize = 128

	// Consecutive dropped messages before the client is disconnected.
	maxBufferWarnings = 3
)

var (
	newline = []byte{'\n'}
	space   = []byte{' '}
)

// MessageHandler handles one inbound message. A returned error closes the
// connection.
type MessageHandler func(message []byte, client *Client) error

// Client sits between one websocket connection and the hub.
type Client struct {
	UserID       string
	ConnectionID string

	hub  *Hub
	conn *websocket.Conn

	mu         sync.Mutex
	send       chan []byte
	sendClosed bool

	bufferWarnings atomic.Int32
}

// NewClient creates a client for an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return newClient(hub, conn, userID, defaultClientBufferSize)
}

func newClient(hub *Hub, conn *websocket.Conn, userID string, bufferSize int) *Client {
	return &Client{
		UserID:       userID,
		ConnectionID: uuid.NewString(),
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, bufferSize),
	}
}

func (c *Client) enqueue(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendClosed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// CloseSend closes the outbound queue, which makes writePump send a close
// frame. It reports whether this call closed it.
func (c *Client) CloseSend() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendClosed {
		return false
	}
	c.sendClosed = true
	close(c.send)
	return true
}

func (c *Client) IsSendClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendClosed
}

func (c *Client) incrementBufferWarningCount() int32 {
	return c.bufferWarnings.Add(1)
}

func (c *Client) resetBufferWarningCount() {
	c.bufferWarnings.Store(0)
}

// StartPumps registers the client and starts its read and write goroutines.
func (c *Client) StartPumps(handler MessageHandler) {
	if c.UserID == "" {
		log.Printf("[WebSocket] Client has no user id, closing connection")
		c.conn.Close()
		return
	}
	c.hub.Register(c)

	go c.writePump()
	go c.readPump(handler)
}

func (c *Client) readPump(handler MessageHandler) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("[WebSocket] Read error (user %s, conn %s): %v", c.UserID, c.ConnectionID, err)
			}
			return
		}
		c.hub.metrics.AddMessageReceived()

		if err := safeHandleMessage(message, c, handler); err != nil {
			log.Printf("[WebSocket] Handler error (user %s, conn %s): %v. Closing connection.", c.UserID, c.ConnectionID, err)
			return
		}
	}
}

func safeHandleMessage(message []byte, client *Client, handler MessageHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WebSocket] PANIC in message handler (user %s, conn %s): %v\n%s",
				client.UserID, client.ConnectionID, r, string(debug.Stack()))
			err = fmt.Errorf("panic recovered: %v", r)
		}
	}()

	message = bytes.TrimSpace(bytes.Replace(message, newline, space, -1))
	if handler == nil {
		return nil
	}
	return handler(message, client)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				log.Printf("[WebSocket] NextWriter error (user %s, conn %s): %v", c.UserID, c.ConnectionID, err)
				return
			}
			if _, err := w.Write(message); err != nil {
				log.Printf("[WebSocket] Write error (user %s, conn %s): %v", c.UserID, c.ConnectionID, err)
			}
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

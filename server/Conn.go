package server

import (
	"PongOnline/logger"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

var ErrConnClosed = errors.New("connection closed")
var ErrSendQueueFull = errors.New("send queue full")

// Conn adapts one websocket to core.Transport. Outbound frames go through a
// buffered queue drained by writePump, so Send never blocks the room.
type Conn struct {
	ws   *websocket.Conn
	send chan []byte

	open      atomic.Bool
	mu        sync.RWMutex
	closeOnce sync.Once
}

func NewConn(ws *websocket.Conn, sendBuffer int) *Conn {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	c := &Conn{
		ws:   ws,
		send: make(chan []byte, sendBuffer),
	}
	c.open.Store(true)
	return c
}

func (c *Conn) IsOpen() bool {
	return c.open.Load()
}

func (c *Conn) Send(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.open.Load() {
		return ErrConnClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close stops accepting frames and lets writePump send a close frame.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.open.Store(false)
		close(c.send)
		c.mu.Unlock()
	})
}

// readPump delivers inbound text frames to onMessage until the peer goes
// away, then calls onClose exactly once.
func (c *Conn) readPump(onMessage func([]byte), onClose func()) {
	defer func() {
		c.Close()
		c.ws.Close()
		onClose()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.WithError(err).Warn("websocket read error")
			}
			return
		}
		if messageType == websocket.TextMessage {
			onMessage(data)
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

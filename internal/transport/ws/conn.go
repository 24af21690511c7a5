package ws

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Msaabiam/Global-Bus/internal/repository"
	"github.com/Msaabiam/Global-Bus/pkg/logger"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

var (
	ErrConnClosed    = errors.New("ws: connection closed")
	ErrSendQueueFull = errors.New("ws: send queue full")
)

// Conn: то, что хранит Hub. Send не блокируется.
type Conn interface {
	Send(b []byte) error
	PassengerID() string
}

// wsConn: gorilla-соединение с очередью отправки.
// Пишет в сокет только writeLoop, поэтому порядок кадров: порядок Send.
type wsConn struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	mu            sync.RWMutex
	closed        bool
	roomID        string
	passengerID   string
	passengerName string
}

func newWsConn(c *websocket.Conn, queue int) *wsConn {
	if queue <= 0 {
		queue = 64
	}
	return &wsConn{
		id:   repository.NewID(),
		conn: c,
		send: make(chan []byte, queue),
		done: make(chan struct{}),
	}
}

func (c *wsConn) Send(b []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- b:
		return nil
	default:
		return ErrSendQueueFull
	}
}

func (c *wsConn) PassengerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.passengerID
}

// associate привязывает соединение к комнате. Второй раз: false.
func (c *wsConn) associate(roomID, passengerID, passengerName string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.roomID != "" || c.closed {
		return false
	}
	c.roomID, c.passengerID, c.passengerName = roomID, passengerID, passengerName
	return true
}

func (c *wsConn) association() (roomID, passengerID, passengerName string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID, c.passengerID, c.passengerName
}

// close идемпотентен; будит writeLoop и рвёт сокет, чтобы read вернул ошибку.
func (c *wsConn) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	if err := c.conn.Close(); err != nil {
		slog.Debug("ws close failed", logger.Conn(c.id), logger.Err(err))
	}
}

func (c *wsConn) writeLoop(pingEvery time.Duration) {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()

	for {
		select {
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				slog.Debug("ws write failed", logger.Conn(c.id), logger.Err(err))
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				slog.Debug("ws ping failed", logger.Conn(c.id), logger.Err(err))
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

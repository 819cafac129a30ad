package realtime

import (
	"errors"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// ErrConnClosed is returned by writes to a connection that already closed.
var ErrConnClosed = errors.New("connection closed")

// Conn is one live client connection. Implementations must make WriteEvent
// safe for concurrent use: the dispatcher and room broadcasts fan out from
// multiple goroutines, and writes to an already-closed connection must fail
// with an error rather than panic.
type Conn interface {
	ID() string
	WriteEvent(event string, data any) error
	Close() error
}

// ServerEvent is the envelope every push to a client uses.
type ServerEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type wsConn struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func newWSConn(c *websocket.Conn) *wsConn {
	return &wsConn{id: uuid.New().String(), conn: c}
}

func (w *wsConn) ID() string {
	return w.id
}

func (w *wsConn) WriteEvent(event string, data any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(ServerEvent{Event: event, Data: data})
}

func (w *wsConn) Close() error {
	return w.conn.Close()
}

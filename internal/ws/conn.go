package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// closeWriteWait bounds how long a close frame may take to send.
const closeWriteWait = 5 * time.Second

// Conn is the write side of a live subscriber connection.
type Conn interface {
	WriteJSON(v any) error
}

// SocketConn wraps a gorilla websocket connection with a write mutex so the
// read-loop acknowledgements and hub broadcasts never interleave writes on
// the same socket.
type SocketConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// NewSocketConn wraps conn for concurrent writers.
func NewSocketConn(conn *websocket.Conn) *SocketConn {
	return &SocketConn{conn: conn}
}

// WriteJSON writes v as a single JSON frame.
func (c *SocketConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// WriteClose sends a close frame under the same write mutex, so it cannot
// interleave with an in-flight broadcast on this socket.
func (c *SocketConn) WriteClose(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(closeWriteWait))
}

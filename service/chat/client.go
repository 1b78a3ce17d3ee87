package chat

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// Socket is the write side of one connection. *wsSocket in production,
// fakes in tests.
type Socket interface {
	WriteJSON(v any) error
	Close() error
}

// Client is one live connection. UserID is empty until the auth frame
// arrives; ConnID is assigned at upgrade time and never changes, so logs
// and the presence mirror can follow a connection across its lifetime.
type Client struct {
	ConnID string
	UserID string
	sock   Socket
}

func (c *Client) Send(v any) error { return c.sock.WriteJSON(v) }

// wsSocket serializes writes: the owning reader goroutine writes acks while
// other connections' readers relay new_message frames into the same socket.
type wsSocket struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSocket) WriteJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(v)
}

func (s *wsSocket) Close() error { return s.conn.Close() }

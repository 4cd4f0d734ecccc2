package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

const writeWait = 10 * time.Second

// Sink is the single path for frames going back to a client. Implementations
// serialize writes; the bridge loops and the protocol loop share one sink per
// connection.
type Sink interface {
	SendMessage(msg ServerMessage) error
	SendAudio(chunk []byte) error
}

type wsConn interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
}

type connSink struct {
	mu   sync.Mutex
	conn wsConn
}

func newConnSink(conn *websocket.Conn) *connSink {
	return &connSink{conn: conn}
}

func (s *connSink) SendMessage(msg ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.write(websocket.TextMessage, data)
}

func (s *connSink) SendAudio(chunk []byte) error {
	return s.write(websocket.BinaryMessage, chunk)
}

func (s *connSink) write(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(messageType, data)
}

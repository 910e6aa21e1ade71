package websocket

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// conn adapts a gorilla connection to the relay's Transport. gorilla allows one concurrent
// writer, so every write goes through mu.
type conn struct {
	ws     *websocket.Conn
	mu     sync.Mutex
	closed atomic.Bool
}

func newConn(ws *websocket.Conn) *conn {
	return &conn{ws: ws}
}

func (that *conn) Send(data []byte) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	return that.ws.WriteMessage(websocket.TextMessage, data)
}

func (that *conn) Ping() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Close is safe to call more than once.
func (that *conn) Close() error {
	if !that.closed.CompareAndSwap(false, true) {
		return nil
	}

	that.mu.Lock()
	_ = that.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	that.mu.Unlock()

	return that.ws.Close()
}

func (that *conn) IsOpen() bool {
	return !that.closed.Load()
}

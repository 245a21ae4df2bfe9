package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/devconnect-api/internal/pkg/id"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 << 10
)

// Conn is one websocket session. It satisfies presence.Conn: frames queue on
// a bounded channel drained by writePump, and a full queue drops the frame.
type Conn struct {
	id   string
	ws   *websocket.Conn
	send chan []byte

	done     chan struct{}
	doneOnce sync.Once

	// tokenUser is the verified identity, empty when running without a
	// verifier. user is the id this session announced; only the read
	// loop touches it.
	tokenUser string
	user      string
}

func newConn(ws *websocket.Conn, tokenUser string, buffer int) *Conn {
	if buffer < 1 {
		buffer = 1
	}
	return &Conn{
		id:        id.New(),
		ws:        ws,
		send:      make(chan []byte, buffer),
		done:      make(chan struct{}),
		tokenUser: tokenUser,
		user:      tokenUser,
	}
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) TrySend(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Conn) close() {
	c.doneOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// goingAway tells the peer the server is stopping, then closes the socket.
// WriteControl is safe alongside writePump.
func (c *Conn) goingAway() {
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), time.Now().Add(writeWait))
	c.close()
}

// writePump owns all writes to the socket.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()
	for {
		select {
		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

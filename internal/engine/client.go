package engine

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sociochat/engine/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is one live transport session for an authenticated identity.
type Client struct {
	conn        *websocket.Conn
	engine      *Engine
	log         *log.Logger
	user        types.User
	connectedAt time.Time
	send        chan *ServerEvent
	stop        chan struct{}
	stopOnce    sync.Once
}

func NewClient(user types.User, conn *websocket.Conn, e *Engine, l *log.Logger) *Client {
	return &Client{
		conn:        conn,
		engine:      e,
		log:         l,
		user:        user,
		connectedAt: Now(),
		send:        make(chan *ServerEvent, 256),
		stop:        make(chan struct{}),
	}
}

// User returns the profile summary resolved at the auth handshake.
func (c *Client) User() types.User {
	return c.user
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.log.Printf("write exiting for user %q", c.user.Id)
	}()

	for {
		select {
		case evt, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(evt)
			if err != nil {
				c.log.Println("failed to serialize event:", err)
				continue
			}

			if !c.writeFrame(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.writeFrame(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
		c.log.Printf("read exiting for user %q", c.user.Id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var evt ClientEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			c.log.Println("error parsing event:", err)
			c.queueEvent(errInvalidMessage(-1))
			continue
		}

		c.engine.dispatch(c, &evt)
	}
}

// queueEvent places an event on the client's send buffer. Best-effort: when
// the buffer is full the event is dropped rather than blocking the caller.
func (c *Client) queueEvent(evt *ServerEvent) bool {
	select {
	case c.send <- evt:
	default:
		c.log.Printf("send buffer full for user %q, dropping %q", c.user.Id, evt.Event)
		return false
	}

	return true
}

func (c *Client) writeFrame(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

// close stops the write pump and closes the underlying connection. Safe to
// call more than once; supersession and normal teardown may race here.
func (c *Client) close() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	if c.conn != nil {
		c.conn.Close()
	}
}

func (c *Client) cleanup() {
	c.engine.Unregister(c)
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

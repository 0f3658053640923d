package gateway

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBufferSize = 64
)

// Client wraps one WebSocket connection. A client starts unidentified and
// receives user-targeted events only after a join event binds it to a user.
type Client struct {
	id      string
	gateway *Gateway
	conn    *websocket.Conn
	send    chan Event
}

func newClient(g *Gateway, conn *websocket.Conn) *Client {
	return &Client{
		id:      uuid.New().String(),
		gateway: g,
		conn:    conn,
		send:    make(chan Event, sendBufferSize),
	}
}

// ID identifies the connection in logs, not the user bound to it.
func (c *Client) ID() string {
	return c.id
}

// trySend queues an event without blocking. A full buffer drops the event;
// live pushes are best-effort and the durable record is the recovery path.
func (c *Client) trySend(event Event) bool {
	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

func (c *Client) start() {
	go c.writePump()
	go c.readPump()
}

// readPump consumes inbound events until the connection dies. It is the
// only place join events are handled and the only trigger for disconnect
// cleanup.
func (c *Client) readPump() {
	defer func() {
		c.gateway.handleDisconnect(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var event Event
		if err := c.conn.ReadJSON(&event); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.gateway.logger.Debug().Err(err).Str("client_id", c.id).Msg("unexpected websocket close")
			}
			return
		}

		if event.Type == EventJoin {
			c.gateway.handleJoin(event.UserID, c)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
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

package websocket

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client represents a WebSocket client
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   string
	once sync.Once
}

// NewClient creates a client without a network connection. Messages for it
// accumulate in Mailbox.
func NewClient(hub *Hub, id string, mailboxSize int) *Client {
	return &Client{hub: hub, id: id, send: make(chan []byte, mailboxSize)}
}

// ID returns the connection id
func (c *Client) ID() string {
	return c.id
}

// Mailbox returns the client's outbound channel
func (c *Client) Mailbox() <-chan []byte {
	return c.send
}

// close is the single cleanup path for a connection
func (c *Client) close() {
	c.once.Do(func() {
		c.hub.removeClient(c)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer c.close()

	timeout := c.hub.clientTimeout
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(timeout))
	c.conn.SetPongHandler(func(string) error {
		c.hub.UpdateActivity(c.id)
		c.conn.SetReadDeadline(time.Now().Add(timeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[hub] read error for %s: %v", c.id, err)
			}
			return
		}
		c.hub.UpdateActivity(c.id)
		c.conn.SetReadDeadline(time.Now().Add(timeout))
		c.hub.dispatch(c, message)
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.heartbeatInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Flush what is already queued, one frame per message
			n := len(c.send)
			for i := 0; i < n; i++ {
				queued, ok := <-c.send
				if !ok {
					c.conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.conn.WriteMessage(websocket.TextMessage, queued); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

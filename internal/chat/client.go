package chat

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"persona-chat/internal/models"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 10 * time.Second

	// A 1000-character message plus its JSON envelope must fit.
	maxFrameSize = 8192
)

// Client is one websocket connection. Until a join succeeds, room is empty
// and the connection belongs to no room. The hub's loop is the only writer
// of room.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Hub  *Hub
	Send chan []byte

	room string
	once sync.Once
}

func NewClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:   models.NewID("conn"),
		Conn: conn,
		Hub:  h,
		Send: make(chan []byte, 256),
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.unregister()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.Send)
			for i := 0; i < n; i++ {
				msg, ok := <-c.Send
				if !ok {
					break
				}
				w.Write([]byte{'\n'})
				w.Write(msg)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// unregister hands the connection back to the hub, unless the hub has
// already quit and nobody is left to receive it.
func (c *Client) unregister() {
	select {
	case c.Hub.Unregister <- c:
	case <-c.Hub.Quit:
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.unregister()
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxFrameSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[CLIENT] Unexpected close: %v", err)
			}
			break
		}

		envelope := &Envelope{}
		if err := json.Unmarshal(message, envelope); err != nil {
			continue
		}

		switch envelope.Type {
		case EventJoin:
			select {
			case c.Hub.Join <- JoinRequest{Client: c, BotID: envelope.BotID}:
			case <-c.Hub.Quit:
				return
			}
		case EventSend:
			req := SendRequest{
				Client:  c,
				BotID:   envelope.BotID,
				Content: envelope.Content,
				Sender:  envelope.Sender,
			}
			select {
			case c.Hub.Send <- req:
			case <-c.Hub.Quit:
				return
			}
		default:
			// unknown frame types are ignored, not fatal
		}
	}
}

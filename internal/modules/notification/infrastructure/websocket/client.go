package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Verifier accepts or rejects the credentials of a register frame.
type Verifier func(subscriberID, token string) error

type registerFrame struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

// Client is one live-channel connection on the server side. It joins the hub
// once it has sent a valid register frame.
type Client struct {
	hub          *Hub
	conn         *websocket.Conn
	send         chan []byte
	subscriberID string
}

func (c *Client) remoteAddr() string {
	if c.conn == nil {
		return "test"
	}
	return c.conn.RemoteAddr().String()
}

// ServeWs upgrades the request and serves the live channel until the peer
// goes away. verify may be nil to accept any registration.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, verify Verifier) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Live Hub] Upgrade failed: %v", err)
		return
	}
	client := &Client{hub: hub, conn: conn, send: make(chan []byte, sendBuffer)}

	go client.writePump()
	go client.readPump(verify)
}

func (c *Client) readPump(verify Verifier) {
	registered := false
	defer func() {
		if registered {
			c.hub.Unregister(c)
		} else {
			close(c.send)
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[Live Hub] Read error: %v", err)
			}
			return
		}
		if registered {
			continue
		}

		var frame registerFrame
		if err := json.Unmarshal(message, &frame); err != nil || frame.Type != "register" || frame.UserID == "" {
			log.Printf("[Live Hub] Ignoring frame before registration from %s", c.remoteAddr())
			continue
		}
		if verify != nil {
			if err := verify(frame.UserID, frame.Token); err != nil {
				log.Printf("[Live Hub] Registration rejected for %s: %v", frame.UserID, err)
				return
			}
		}
		c.subscriberID = frame.UserID
		c.hub.Register(c)
		registered = true
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
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

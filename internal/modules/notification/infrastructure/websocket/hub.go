package websocket

import (
	"log"
	"sync"
)

// Delivery is a message addressed to every connection of one subscriber.
type Delivery struct {
	SubscriberID string
	Message      []byte
}

type presenceQuery struct {
	subscriberID string
	reply        chan int
}

// Hub tracks registered live-channel connections and routes frames to them.
// All state is owned by the Run goroutine.
type Hub struct {
	clients map[*Client]bool

	deliver    chan Delivery
	register   chan *Client
	unregister chan *Client
	presence   chan presenceQuery

	stop     chan struct{}
	stopOnce sync.Once
}

func NewHub() *Hub {
	return &Hub{
		deliver:    make(chan Delivery),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		presence:   make(chan presenceQuery),

		clients: make(map[*Client]bool),
		stop:    make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			log.Printf("[Live Hub] Subscriber registered: %s (%s)", client.subscriberID, client.remoteAddr())
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Printf("[Live Hub] Subscriber unregistered: %s (%s)", client.subscriberID, client.remoteAddr())
			}
		case d := <-h.deliver:
			n := 0
			for client := range h.clients {
				if client.subscriberID == d.SubscriberID {
					h.offer(client, d.Message)
					n++
				}
			}
			log.Printf("[Live Hub] Delivered frame to %d connection(s) of %s", n, d.SubscriberID)
		case q := <-h.presence:
			n := 0
			for client := range h.clients {
				if client.subscriberID == q.subscriberID {
					n++
				}
			}
			q.reply <- n
		case <-h.stop:
			log.Println("[Live Hub] Stopping hub")
			for client := range h.clients {
				h.drop(client)
			}
			return
		}
	}
}

// offer queues message for client, dropping the client when its buffer is
// full.
func (h *Hub) offer(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		h.drop(client)
	}
}

func (h *Hub) drop(client *Client) {
	close(client.send)
	delete(h.clients, client)
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.stop:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stop:
	}
}

// SendTo queues message for every connection registered by subscriberID.
func (h *Hub) SendTo(subscriberID string, message []byte) {
	select {
	case h.deliver <- Delivery{SubscriberID: subscriberID, Message: message}:
	case <-h.stop:
	}
}

// Connections reports how many registered connections subscriberID has.
func (h *Hub) Connections(subscriberID string) int {
	q := presenceQuery{subscriberID: subscriberID, reply: make(chan int, 1)}
	select {
	case h.presence <- q:
	case <-h.stop:
		return 0
	}
	return <-q.reply
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
}

package rpc

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/klingon-exchange/klingon-pair/internal/pairevents"
	"github.com/klingon-exchange/klingon-pair/pkg/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSEvent is the wire form of a pairevents.Event broadcast to subscribers.
type WSEvent struct {
	Type      pairevents.Kind `json:"type"`
	Data      pairevents.Event `json:"data"`
	Timestamp int64            `json:"timestamp"`
}

// WSSubscription represents a subscription request.
type WSSubscription struct {
	Action string   `json:"action"`
	Events []string `json:"events"`
}

// WSClient represents a connected WebSocket client.
type WSClient struct {
	conn          *websocket.Conn
	send          chan []byte
	subscriptions map[pairevents.Kind]bool
	mu            sync.RWMutex
	hub           *WSHub
}

// WSHub manages all WebSocket connections subscribed to the pair's events.
type WSHub struct {
	clients    map[*WSClient]bool
	broadcast  chan *WSEvent
	register   chan *WSClient
	unregister chan *WSClient
	log        *logging.Logger
	mu         sync.RWMutex
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan *WSEvent, 256),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		log:        logging.GetDefault().Component("ws"),
	}
}

// Run starts the hub event loop. Call it once, in its own goroutine.
func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Debug("WebSocket client connected", "clients", len(h.clients))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.log.Debug("WebSocket client disconnected", "clients", len(h.clients))

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				h.log.Error("failed to marshal event", "error", err)
				continue
			}

			h.mu.RLock()
			for client := range h.clients {
				client.mu.RLock()
				subscribed := client.subscriptions[event.Type] || len(client.subscriptions) == 0
				client.mu.RUnlock()
				if !subscribed {
					continue
				}

				select {
				case client.send <- data:
				default:
					h.mu.RUnlock()
					h.mu.Lock()
					delete(h.clients, client)
					close(client.send)
					h.mu.Unlock()
					h.mu.RLock()
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast sends an event to every subscribed client.
func (h *WSHub) Broadcast(ev pairevents.Event) {
	wsEv := &WSEvent{Type: ev.Kind, Data: ev, Timestamp: ev.Timestamp.Unix()}
	select {
	case h.broadcast <- wsEv:
	default:
		h.log.Warn("broadcast channel full, dropping event", "type", ev.Kind)
	}
}

// ClientCount returns the number of connected clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcastEvent is registered as a pairevents.Handler, forwarding every
// emitted event onto the WebSocket hub.
func (s *Server) broadcastEvent(ev pairevents.Event) {
	if s.wsHub != nil {
		s.wsHub.Broadcast(ev)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("WebSocket upgrade failed", "error", err)
		return
	}

	client := &WSClient{
		conn:          conn,
		send:          make(chan []byte, 256),
		subscriptions: make(map[pairevents.Kind]bool),
		hub:           s.wsHub,
	}

	s.wsHub.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *WSClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("WebSocket read error", "error", err)
			}
			break
		}

		var sub WSSubscription
		if err := json.Unmarshal(message, &sub); err == nil {
			c.handleSubscription(&sub)
		}
	}
}

func (c *WSClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WSClient) handleSubscription(sub *WSSubscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, eventStr := range sub.Events {
		kind := pairevents.Kind(eventStr)
		switch sub.Action {
		case "subscribe":
			c.subscriptions[kind] = true
		case "unsubscribe":
			delete(c.subscriptions, kind)
		}
	}
}

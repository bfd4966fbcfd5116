package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/dashboard"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced by the HTTP middleware
	},
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	// Outbound queue per client.
	sendBuffer = 64
)

// ============================================================
// Messages
// ============================================================

// WSMessage is a server to client message.
//
//	panel             Data is a *dashboard.Panel
//	error             Data is a string
//	pong              no data
//	dataset_reloaded  Data has rows and crops
type WSMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// wsRequest is a client to server message.
type wsRequest struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// SelectRequest is the payload of a "select" message.
type SelectRequest struct {
	View     string `json:"view"`
	Crop     string `json:"crop"`
	ShowData bool   `json:"show_data"`
	ShowCode bool   `json:"show_code"`
}

// ============================================================
// Hub
// ============================================================

// WSClient is one connected WebSocket peer.
type WSClient struct {
	hub  *WSHub
	send chan WSMessage

	mu     sync.Mutex
	closed bool
}

// trySend queues msg without blocking. It reports false when the client is
// closed or its queue is full.
func (c *WSClient) trySend(msg WSMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *WSClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// WSHub tracks connected clients and fans out broadcasts.
type WSHub struct {
	clients    map[*WSClient]bool
	register   chan *WSClient
	unregister chan *WSClient
	broadcast  chan WSMessage
	mu         sync.RWMutex
}

// NewWSHub creates a hub. Call Run to start it.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		broadcast:  make(chan WSMessage, 64),
	}
}

// Run processes registrations and broadcasts until the process exits.
func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("ws: client connected (%d total)", h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
			}
			h.mu.Unlock()
			log.Printf("ws: client disconnected (%d total)", h.ClientCount())

		case msg := <-h.broadcast:
			h.mu.RLock()
			var slow []*WSClient
			for client := range h.clients {
				if !client.trySend(msg) {
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()

			if len(slow) > 0 {
				h.mu.Lock()
				for _, client := range slow {
					delete(h.clients, client)
					client.close()
				}
				h.mu.Unlock()
				log.Printf("ws: dropped %d slow clients", len(slow))
			}
		}
	}
}

// Register adds a client.
func (h *WSHub) Register(client *WSClient) {
	h.register <- client
}

// Unregister removes a client and closes its send channel.
func (h *WSHub) Unregister(client *WSClient) {
	h.unregister <- client
}

// Broadcast queues msg for every connected client. It never blocks; when
// the broadcast queue is full the message is dropped.
func (h *WSHub) Broadcast(msg WSMessage) {
	select {
	case h.broadcast <- msg:
	default:
		log.Printf("ws: broadcast queue full, dropping %s", msg.Type)
	}
}

// ClientCount returns the number of connected clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ============================================================
// Connection handling
// ============================================================

// handleWebSocket upgrades the connection and serves selection events.
// Each connection has its own dashboard session, so a repeated selection
// produces no output.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade error: %v", err)
		return
	}

	client := &WSClient{
		hub:  s.wsHub,
		send: make(chan WSMessage, sendBuffer),
	}
	s.wsHub.Register(client)

	go wsWritePump(conn, client)
	go s.wsReadPump(conn, client, dashboard.NewSession(s.dash))
}

// wsReadPump reads client messages until the connection closes.
func (s *Server) wsReadPump(conn *websocket.Conn, client *WSClient, session *dashboard.Session) {
	defer func() {
		client.hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: read error: %v", err)
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(message, &req); err != nil {
			client.trySend(WSMessage{Type: "error", Data: "invalid message: " + err.Error()})
			continue
		}

		switch req.Type {
		case "select":
			if reply, ok := s.handleSelect(session, req.Data); ok {
				client.trySend(reply)
			}
		case "ping":
			client.trySend(WSMessage{Type: "pong"})
		default:
			client.trySend(WSMessage{Type: "error", Data: "unknown message type " + req.Type})
		}
	}
}

// handleSelect applies a selection to the session. ok is false when the
// selection did not change and nothing needs to be sent.
func (s *Server) handleSelect(session *dashboard.Session, raw json.RawMessage) (WSMessage, bool) {
	var req SelectRequest
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &req); err != nil {
			return WSMessage{Type: "error", Data: "invalid selection: " + err.Error()}, true
		}
	}

	rawView := req.View
	if rawView == "" {
		rawView = s.cfg.Dashboard.DefaultView
	}
	view, err := dashboard.ParseView(rawView)
	if err != nil {
		return WSMessage{Type: "error", Data: err.Error()}, true
	}

	t := s.store.Table()
	sel := dashboard.Selection{
		View:     view,
		Crop:     s.resolveCrop(req.Crop, t),
		ShowData: req.ShowData,
		ShowCode: req.ShowCode,
	}
	panel, changed, err := session.Select(t, sel)
	if err != nil {
		return WSMessage{Type: "error", Data: err.Error()}, true
	}
	if !changed {
		return WSMessage{}, false
	}
	return WSMessage{Type: "panel", Data: panel}, true
}

// wsWritePump writes queued messages and keepalive pings to the connection.
func wsWritePump(conn *websocket.Conn, client *WSClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	write := func(msg WSMessage) error {
		data, err := json.Marshal(msg)
		if err != nil {
			log.Printf("ws: marshal error: %v", err)
			return nil
		}
		return conn.WriteMessage(websocket.TextMessage, data)
	}

	for {
		select {
		case msg, ok := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := write(msg); err != nil {
				return
			}

			// Flush queued messages
			n := len(client.send)
			for i := 0; i < n; i++ {
				next, ok := <-client.send
				if !ok {
					return
				}
				if err := write(next); err != nil {
					return
				}
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

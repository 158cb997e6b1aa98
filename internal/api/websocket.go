package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"boxer-arena/internal/game"

	"github.com/gorilla/websocket"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 100

	// StateBroadcastInterval is how often game:state goes out (20/s)
	StateBroadcastInterval = 50 * time.Millisecond

	// maxWSMessageSize caps inbound intent messages
	maxWSMessageSize = 512
)

// wsClient tracks a WebSocket connection with its source IP
type wsClient struct {
	conn *websocket.Conn
	ip   string
}

// wsMessage is the envelope for everything the hub sends.
type wsMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// WebSocketHub manages all WebSocket connections with DoS protection.
// Clients receive game:state and game:events; they send intent messages
// shaped like the POST /api/intent body.
type WebSocketHub struct {
	clients    map[*websocket.Conn]*wsClient
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *websocket.Conn
	mu         sync.RWMutex

	engine   EngineInterface
	upgrader websocket.Upgrader
	origins  []string

	// Per-client socket slots and the intent budget shared with HTTP
	limiter *ClientLimiter

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewWebSocketHub creates a new hub. Pass the router's limiter so socket
// intents and POST /api/intent share one budget per client.
func NewWebSocketHub(engine EngineInterface, allowedOrigins []string, limiter *ClientLimiter) *WebSocketHub {
	h := &WebSocketHub{
		clients:    make(map[*websocket.Conn]*wsClient),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *websocket.Conn),
		engine:     engine,
		origins:    allowedOrigins,
		limiter:    limiter,
		stopChan:   make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *WebSocketHub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if IsAllowedOrigin(origin, h.origins) {
		return true
	}

	// Log rejected origin for security monitoring
	log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
	RecordConnectionRejected("origin")
	return false
}

// Run starts the hub. It returns after Stop.
func (h *WebSocketHub) Run() {
	for {
		select {
		case <-h.stopChan:
			h.mu.Lock()
			for conn, client := range h.clients {
				h.limiter.ReleaseSocket(client.ip)
				conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			UpdateWSConnections(0)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Client connected from %s (%d total)", client.ip, count)
			UpdateWSConnections(count)

		case conn := <-h.unregister:
			h.mu.Lock()
			if client, ok := h.clients[conn]; ok {
				// Release the connection slot for this IP
				h.limiter.ReleaseSocket(client.ip)
				delete(h.clients, conn)
				conn.Close()
			}
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Client disconnected (%d remaining)", count)
			UpdateWSConnections(count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for conn, client := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					h.limiter.ReleaseSocket(client.ip)
					delete(h.clients, conn)
					conn.Close()
				}
			}
			h.mu.Unlock()
			IncrementWSMessages()
		}
	}
}

// Stop closes every connection and ends Run and the broadcast loop.
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
	})
}

// Broadcast sends a message to all connected clients
func (h *WebSocketHub) Broadcast(event string, data interface{}) {
	jsonBytes, err := json.Marshal(wsMessage{Event: event, Data: data})
	if err != nil {
		return
	}

	select {
	case h.broadcast <- jsonBytes:
	default:
		// Channel full, skip (backpressure)
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartBroadcastLoop broadcasts the latest snapshot 20 times per second.
// Unchanged snapshots are not resent.
func (h *WebSocketHub) StartBroadcastLoop() {
	ticker := time.NewTicker(StateBroadcastInterval)

	go func() {
		defer ticker.Stop()
		var lastSeq uint64

		for {
			select {
			case <-h.stopChan:
				return
			case <-ticker.C:
			}

			if h.ClientCount() == 0 {
				continue
			}

			snap := h.engine.GetSnapshot()
			if snap.Sequence == lastSeq {
				continue
			}
			lastSeq = snap.Sequence
			h.Broadcast("game:state", snap)
		}
	}()
}

// EventSink forwards combat events to clients as game:events.
func (h *WebSocketHub) EventSink() game.EventSink {
	return func(events []game.Event) {
		if h.ClientCount() == 0 {
			return
		}
		h.Broadcast("game:events", events)
	}
}

// HandleWebSocket handles incoming WebSocket connections with DoS protection
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if h.ClientCount() >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", MaxWSConnectionsTotal)
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	if !h.limiter.AcquireSocket(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.limiter.ReleaseSocket(ip) // Release the slot we reserved
		return
	}
	conn.SetReadLimit(maxWSMessageSize)

	select {
	case h.register <- &wsClient{conn: conn, ip: ip}:
	case <-h.stopChan:
		h.limiter.ReleaseSocket(ip)
		conn.Close()
		return
	}

	go h.readLoop(conn, ip)
}

// readLoop turns inbound messages into intents until the connection drops.
func (h *WebSocketHub) readLoop(conn *websocket.Conn, ip string) {
	defer func() {
		select {
		case h.unregister <- conn:
		case <-h.stopChan:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		if !h.limiter.AllowIntent(ip) {
			RecordIntent("throttled")
			continue
		}

		var req intentRequest
		if err := json.Unmarshal(message, &req); err != nil {
			RecordIntent("invalid")
			continue
		}
		in, err := req.toIntent()
		if err != nil {
			log.Printf("⚠️ Bad intent from %s: %v", ip, err)
			RecordIntent("invalid")
			continue
		}

		if h.engine.SubmitIntent(in) {
			RecordIntent("accepted")
		} else {
			RecordIntent("dropped")
		}
	}
}

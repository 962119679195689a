package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/plansketch/plansketch/internal/logging"
	"github.com/plansketch/plansketch/internal/types"
)

// OriginValidator decides whether a websocket upgrade from the given origin
// is allowed.
type OriginValidator interface {
	IsAllowedOrigin(origin string) bool
}

// OriginList is an OriginValidator over a fixed allow-list. An empty list
// allows everything, which is the development default.
type OriginList []string

func (o OriginList) IsAllowedOrigin(origin string) bool {
	if len(o) == 0 {
		return true
	}
	for _, allowed := range o {
		if allowed == origin {
			return true
		}
	}
	return false
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans canvas events out to connected websocket clients.
//
// A single goroutine owns the client set lifecycle via the register,
// unregister, and broadcast channels; the clients map is additionally
// mutex-protected so Shutdown and ClientCount can touch it from outside.
type Hub struct {
	clients      map[*websocket.Conn]*client
	clientsMutex sync.RWMutex

	broadcast  chan []byte
	register   chan *client
	unregister chan *websocket.Conn

	origins OriginValidator
	logger  logging.Logger

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
}

// NewHub creates a hub and starts its background goroutine.
func NewHub(origins OriginValidator, logger logging.Logger) *Hub {
	if origins == nil {
		origins = OriginList(nil)
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		clients:    make(map[*websocket.Conn]*client),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client, 32),
		unregister: make(chan *websocket.Conn, 32),
		origins:    origins,
		logger:     logger.WithComponent("hub"),
		ctx:        ctx,
		cancel:     cancel,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.clientsMutex.Lock()
			h.clients[c.conn] = c
			total := len(h.clients)
			h.clientsMutex.Unlock()
			h.logger.Debug(h.ctx, "websocket client connected", "total", total)

		case conn := <-h.unregister:
			h.clientsMutex.Lock()
			c, exists := h.clients[conn]
			if exists {
				delete(h.clients, conn)
				close(c.send)
			}
			total := len(h.clients)
			h.clientsMutex.Unlock()
			if exists {
				_ = conn.Close(websocket.StatusNormalClosure, "")
				h.logger.Debug(h.ctx, "websocket client disconnected", "total", total)
			}

		case message := <-h.broadcast:
			h.broadcastToClients(message)

		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Hub) broadcastToClients(message []byte) {
	h.clientsMutex.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMutex.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- message:
		default:
			// Send buffer full, drop the client
			go func(conn *websocket.Conn) {
				select {
				case h.unregister <- conn:
				case <-h.ctx.Done():
				}
			}(c.conn)
		}
	}
}

// Broadcast serializes a canvas event and queues it for all clients.
func (h *Hub) Broadcast(event types.CanvasEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error(h.ctx, err, "failed to marshal canvas event")
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.ctx.Done():
	default:
		h.logger.Warn(h.ctx, nil, "broadcast channel full, dropping event", "type", event.Type)
	}
}

// HandleWebSocket upgrades an HTTP request and registers the client.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	select {
	case <-h.ctx.Done():
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	default:
	}

	if origin := r.Header.Get("Origin"); origin != "" && !h.origins.IsAllowedOrigin(origin) {
		h.logger.Warn(h.ctx, nil, "websocket rejected, invalid origin", "origin", origin, "remote", r.RemoteAddr)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  []string{"*"}, // origin validated above
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		h.logger.Error(h.ctx, err, "websocket upgrade failed", "remote", r.RemoteAddr)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 256)}
	select {
	case h.register <- c:
	case <-h.ctx.Done():
		_ = conn.Close(websocket.StatusServiceRestart, "server shutting down")
		return
	}

	go h.handleClient(c)
}

func (h *Hub) handleClient(c *client) {
	defer func() {
		select {
		case h.unregister <- c.conn:
		case <-h.ctx.Done():
		}
	}()

	go h.writePump(c)
	h.readPump(c)
}

// readPump drains inbound frames. Clients are listen-only; anything they send
// is discarded, but the reads keep ping/pong and close handling alive.
func (h *Hub) readPump(c *client) {
	for {
		ctx, cancel := context.WithTimeout(h.ctx, 60*time.Second)
		_, _, err := c.conn.Read(ctx)
		cancel()
		if err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(h.ctx, 10*time.Second)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(h.ctx, 10*time.Second)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}

		case <-h.ctx.Done():
			return
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()
	return len(h.clients)
}

// Shutdown closes all client connections and stops the hub goroutine.
func (h *Hub) Shutdown() {
	h.shutdownOnce.Do(func() {
		h.cancel()

		h.clientsMutex.Lock()
		for conn, c := range h.clients {
			close(c.send)
			_ = conn.Close(websocket.StatusNormalClosure, "server shutdown")
		}
		h.clients = make(map[*websocket.Conn]*client)
		h.clientsMutex.Unlock()
	})
}

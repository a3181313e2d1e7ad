package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"markets-lab/internal/observability"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans broadcast messages out to connected websocket clients. Slow
// clients whose buffer is full are disconnected.
type Hub struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
	closed  bool
	wg      sync.WaitGroup
}

// NewHub creates a Hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger: logger.Named("hub"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// ServeWS upgrades the request and registers the connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("upgrade failed", zap.Error(err))
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c.id] = c
	n := len(h.clients)
	h.wg.Add(2)
	h.mu.Unlock()

	observability.UpdateWSClients(n)
	h.logger.Debug("client connected", zap.String("client_id", c.id), zap.Int("clients", n))

	go h.writePump(c)
	go h.readPump(c)
}

// Broadcast encodes v as JSON and queues it for every client.
func (h *Hub) Broadcast(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode broadcast: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		select {
		case c.send <- data:
			observability.RecordWSMessage()
		default:
			h.logger.Warn("dropping slow client", zap.String("client_id", id))
			delete(h.clients, id)
			c.close()
		}
	}
	observability.UpdateWSClients(len(h.clients))
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and waits for their goroutines.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for id, c := range h.clients {
		delete(h.clients, id)
		c.close()
	}
	h.mu.Unlock()
	observability.UpdateWSClients(0)
	h.wg.Wait()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		c.close()
	}
	n := len(h.clients)
	h.mu.Unlock()
	observability.UpdateWSClients(n)
}

// readPump discards client input and detects disconnects.
func (h *Hub) readPump(c *client) {
	defer h.wg.Done()
	defer h.unregister(c)

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	defer h.wg.Done()
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Debug("write failed", zap.String("client_id", c.id), zap.Error(err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Package relay is a stateless websocket fan-out for auction clients. It
// routes frames by scope and never inspects or stores auction state.
package relay

import (
	"net/http"
	"sync"
	"time"

	"auction-sync/internal/server"
	"auction-sync/internal/transport"
	"auction-sync/utils"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds one inbound frame; sync snapshots can be large.
	maxMessageSize = 1 << 20

	// sendBufferSize is the channel buffer for outgoing messages per client.
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// client is one connected auction node.
type client struct {
	hub  *Hub
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// Hub tracks connected clients by id.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
}

// NewHub creates an empty relay hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*client)}
}

// Router returns the relay's HTTP routes.
func (h *Hub) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(server.RequestLoggerMiddleware)

	router.GET("/relay", h.HandleWS)
	router.GET("/healthz", func(c *gin.Context) {
		utils.JSONResponse(c, http.StatusOK, gin.H{"clients": h.ClientCount()}, "relay is up")
	})
	return router
}

// HandleWS upgrades GET /relay?client_id=<id> and registers the client. A
// second connection with the same id replaces the first.
func (h *Hub) HandleWS(c *gin.Context) {
	id := c.Query("client_id")
	if id == "" {
		utils.JSONError(c, http.StatusBadRequest, errMissingClientID, "client_id query parameter is required")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.Error("relay: upgrade failed", map[string]any{"client_id": id, "error": err.Error()})
		return
	}

	cl := &client{hub: h, id: id, conn: conn, send: make(chan []byte, sendBufferSize)}
	h.register(cl)

	go cl.writePump()
	go cl.readPump()
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	old := h.clients[c.id]
	h.clients[c.id] = c
	total := len(h.clients)
	h.mu.Unlock()

	if old != nil {
		old.close()
	}
	utils.Info("relay: client connected", map[string]any{"client_id": c.id, "total_clients": total})
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if h.clients[c.id] == c {
		delete(h.clients, c.id)
	}
	total := len(h.clients)
	h.mu.Unlock()

	c.close()
	utils.Info("relay: client disconnected", map[string]any{"client_id": c.id, "total_clients": total})
}

// Route delivers payload from origin to every client scope selects. Slow
// clients lose the message.
func (h *Hub) Route(origin string, scope transport.Scope, payload []byte) {
	out, err := json.Marshal(transport.Frame{Origin: origin, Payload: payload})
	if err != nil {
		utils.Debug("relay: frame dropped", map[string]any{"origin": origin, "error": err.Error()})
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.clients {
		if !transport.Accepts(id, origin, scope) {
			continue
		}
		select {
		case c.send <- out:
		default:
			utils.Warn("relay: dropping message for slow client", map[string]any{"client_id": id})
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*client)
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// readPump routes every frame the client sends until the connection drops.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				utils.Warn("relay: unexpected close error", map[string]any{"client_id": c.id, "error": err.Error()})
			}
			return
		}

		f, scope, err := transport.DecodeFrame(message)
		if err != nil {
			utils.Debug("relay: malformed frame dropped", map[string]any{"client_id": c.id, "error": err.Error()})
			continue
		}
		c.hub.Route(c.id, scope, f.Payload)
	}
}

// writePump pumps messages from the hub to the websocket connection and
// keeps it alive with pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

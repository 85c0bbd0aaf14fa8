package endpoints

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/minbar/internal/engine"
	"github.com/Nixie-Tech-LLC/minbar/internal/http/api"
	"github.com/Nixie-Tech-LLC/minbar/internal/model"
)

const (
	writeWait   = 5 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = pongWait * 9 / 10
	clientQueue = 8
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is one frame sent to display sockets.
type Message struct {
	Type     string          `json:"type"` // "snapshot" or "event"
	Snapshot *model.Snapshot `json:"snapshot,omitempty"`
	Event    *model.Event    `json:"event,omitempty"`
}

type socketClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub streams engine snapshots and events to connected display sockets.
type Hub struct {
	current func() model.Snapshot

	mu      sync.Mutex
	clients map[*socketClient]struct{}
}

var _ engine.SnapshotObserver = (*Hub)(nil)

// NewHub creates a hub; current supplies the snapshot sent on connect.
func NewHub(current func() model.Snapshot) *Hub {
	return &Hub{current: current, clients: make(map[*socketClient]struct{})}
}

// SocketModule mounts GET /socket.
func SocketModule(hub *Hub) api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.RAW(http.MethodGet, "/socket", hub.serve)
	})
}

func (h *Hub) OnEvent(ev model.Event) {
	if ev.Kind == model.EventTick && ev.Detail == "" {
		return
	}
	h.broadcast(Message{Type: "event", Event: &ev})
}

func (h *Hub) OnSnapshot(s model.Snapshot) {
	h.broadcast(Message{Type: "snapshot", Snapshot: &s})
}

// Clients is the number of connected sockets.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcast(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode socket message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// the client stopped reading
			h.removeLocked(c)
		}
	}
}

func (h *Hub) removeLocked(c *socketClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) serve(ctx *gin.Context) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &socketClient{conn: conn, send: make(chan []byte, clientQueue)}
	if h.current != nil {
		snap := h.current()
		if payload, err := json.Marshal(Message{Type: "snapshot", Snapshot: &snap}); err == nil {
			c.send <- payload
		}
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	log.Info().Str("remote", ctx.ClientIP()).Int("clients", n).Msg("display socket connected")

	go h.writePump(c)
	h.readPump(c)
}

// readPump discards client frames and unregisters the client when the connection ends.
func (h *Hub) readPump(c *socketClient) {
	defer func() {
		h.mu.Lock()
		h.removeLocked(c)
		h.mu.Unlock()
		_ = c.conn.Close()
		log.Info().Msg("display socket disconnected")
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *socketClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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

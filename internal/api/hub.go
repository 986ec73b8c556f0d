package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/arb-scout/internal/models"
)

const (
	writeWait       = 10 * time.Second
	broadcastBuffer = 256
)

// Hub maintains the set of connected websocket clients and pushes freshly
// stored opportunity rows to all of them.
type Hub struct {
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan []models.OpportunityRow
	logger    *logrus.Logger
}

// NewHub creates a new broadcast hub
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan []models.OpportunityRow, broadcastBuffer),
		logger:    logger,
	}
}

// Run drains the broadcast channel until the channel is closed or the
// process exits. Call it from a goroutine.
func (h *Hub) Run() {
	for rows := range h.broadcast {
		h.send(rows)
	}
}

// Broadcast queues stored rows for delivery to connected clients. Drops the
// batch when the buffer is full rather than blocking a pipeline run.
func (h *Hub) Broadcast(rows []models.OpportunityRow) {
	if len(rows) == 0 {
		return
	}
	select {
	case h.broadcast <- rows:
	default:
		h.logger.Warn("Broadcast buffer full, dropping opportunity batch")
	}
}

// HandleWS upgrades an HTTP request to a websocket subscription.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	h.clientsMu.Lock()
	h.clients[conn] = true
	h.clientsMu.Unlock()

	h.logger.WithField("remote", conn.RemoteAddr().String()).Info("Websocket client connected")

	// Reader goroutine: its only job is to surface disconnects.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) send(rows []models.OpportunityRow) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(rows); err != nil {
			h.logger.WithError(err).Debug("Dropping unresponsive websocket client")
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if h.clients[conn] {
		conn.Close()
		delete(h.clients, conn)
	}
}

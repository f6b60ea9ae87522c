package ws

import (
	"log/slog"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	writeWait = 5 * time.Second

	// Heartbeat staleness thresholds. "Poor" is a display hint; "offline"
	// is still only a connectivity state, never a leave.
	poorAfter    = 10 * time.Second
	offlineAfter = 30 * time.Second
)

// Client is one socket subscribed to a session. Writes are serialized per
// connection so the tick loop and event broadcasts never interleave frames.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex

	Role          Role
	PlayerID      uint
	ConnectedAt   time.Time
	lastHeartbeat time.Time
}

type ConnectionStatus struct {
	PlayerID      uint      `json:"player_id"`
	ConnectedAt   time.Time `json:"connected_at"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
	IsOnline      bool      `json:"is_online"`
	Quality       string    `json:"quality"`
}

type Hub struct {
	mu       sync.RWMutex
	sessions map[uint]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[uint]map[*Client]bool),
	}
}

func (h *Hub) AddConnection(sessionID uint, conn *websocket.Conn, role Role, playerID uint) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	c := &Client{
		conn:          conn,
		Role:          role,
		PlayerID:      playerID,
		ConnectedAt:   now,
		lastHeartbeat: now,
	}
	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[*Client]bool)
	}
	h.sessions[sessionID][c] = true
	slog.Info("ws client connected", "session_id", sessionID, "role", role, "total", len(h.sessions[sessionID]))
	return c
}

func (h *Hub) RemoveConnection(sessionID uint, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.sessions[sessionID]; ok {
		delete(conns, c)
		c.conn.Close()
		if len(conns) == 0 {
			delete(h.sessions, sessionID)
		}
		slog.Info("ws client disconnected", "session_id", sessionID, "role", c.Role)
	}
}

// Heartbeat refreshes the liveness clock for a player connection.
func (h *Hub) Heartbeat(c *Client) {
	h.mu.Lock()
	c.lastHeartbeat = time.Now()
	h.mu.Unlock()
}

// Broadcast fans a message out to every socket on the session. A failed
// write drops that connection only; the session carries on.
func (h *Hub) Broadcast(sessionID uint, message WSMessage) {
	h.send(sessionID, message, func(*Client) bool { return true })
}

// BroadcastToHosts limits delivery to host-role sockets.
func (h *Hub) BroadcastToHosts(sessionID uint, message WSMessage) {
	h.send(sessionID, message, func(c *Client) bool { return c.Role == RoleHost })
}

func (h *Hub) send(sessionID uint, message WSMessage, want func(*Client) bool) {
	data, err := json.Marshal(message)
	if err != nil {
		slog.Error("ws marshal error", "err", err)
		return
	}

	h.mu.RLock()
	conns := make([]*Client, 0, len(h.sessions[sessionID]))
	for c := range h.sessions[sessionID] {
		if want(c) {
			conns = append(conns, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.mu.Lock()
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := c.conn.WriteMessage(websocket.TextMessage, data)
		c.mu.Unlock()
		if err != nil {
			slog.Warn("ws write error, dropping connection", "session_id", sessionID, "err", err)
			h.RemoveConnection(sessionID, c)
		}
	}
}

// ConnectionStatuses derives the per-player liveness view for a session.
// Disconnected is a display state; it never implies the player left.
func (h *Hub) ConnectionStatuses(sessionID uint) []ConnectionStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	now := time.Now()
	statuses := make([]ConnectionStatus, 0)
	for c := range h.sessions[sessionID] {
		if c.Role != RolePlayer || c.PlayerID == 0 {
			continue
		}
		age := now.Sub(c.lastHeartbeat)
		quality := "good"
		online := true
		switch {
		case age > offlineAfter:
			quality = "offline"
			online = false
		case age > poorAfter:
			quality = "poor"
		}
		statuses = append(statuses, ConnectionStatus{
			PlayerID:      c.PlayerID,
			ConnectedAt:   c.ConnectedAt,
			LastHeartbeat: c.lastHeartbeat,
			IsOnline:      online,
			Quality:       quality,
		})
	}
	return statuses
}

// SweepLoop pushes CONNECTION_STATUS_UPDATE to host sockets on an interval
// until the stop channel closes.
func (h *Hub) SweepLoop(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			h.mu.RLock()
			ids := make([]uint, 0, len(h.sessions))
			for id := range h.sessions {
				ids = append(ids, id)
			}
			h.mu.RUnlock()

			for _, id := range ids {
				statuses := h.ConnectionStatuses(id)
				if len(statuses) == 0 {
					continue
				}
				h.BroadcastToHosts(id, WSMessage{Type: EventConnectionStatus, Data: statuses})
			}
		}
	}
}

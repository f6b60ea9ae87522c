package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/services"
	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/ws"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// WSHandler owns the session socket endpoint. Hosts authenticate with their
// bearer token, players with their access token; both subscribe to the same
// session fan-out but inbound game input is only honored for players.
type WSHandler struct {
	hub      *ws.Hub
	sessions *services.SessionService
	identity *services.IdentityService
	auth     *services.AuthService
	minigame *services.MinigameService
	audio    *services.AudioRouter
}

func NewWSHandler(hub *ws.Hub, sessions *services.SessionService, identity *services.IdentityService, auth *services.AuthService, minigame *services.MinigameService, audio *services.AudioRouter) *WSHandler {
	return &WSHandler{hub: hub, sessions: sessions, identity: identity, auth: auth, minigame: minigame, audio: audio}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (h *WSHandler) HandleSession(c *gin.Context) {
	code := c.Param("code")
	session, err := h.sessions.GetByCode(code)
	if err != nil {
		writeError(c, err)
		return
	}

	role := ws.Role(c.Query("role"))
	token := c.Query("token")
	var playerID uint

	switch role {
	case ws.RoleHost:
		hostID, err := h.auth.ValidateToken(token)
		if err != nil || hostID != session.HostID {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid host token"})
			return
		}
	case ws.RolePlayer:
		player, _, err := h.identity.ResolveAccessToken(token)
		if err != nil || player.SessionID != session.ID {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid access token"})
			return
		}
		playerID = player.ID
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "role must be host or player"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade error", "err", err)
		return
	}

	client := h.hub.AddConnection(session.ID, conn, role, playerID)
	defer h.hub.RemoveConnection(session.ID, client)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		h.dispatch(session.ID, client, raw)
	}
}

// dispatch routes one inbound frame. Malformed frames are dropped; a bad
// packet never tears the connection down or perturbs engine state.
func (h *WSHandler) dispatch(sessionID uint, client *ws.Client, raw []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}

	switch msg.Type {
	case ws.EventHeartbeat:
		h.hub.Heartbeat(client)
	case ws.EventMoveInput:
		if client.Role != ws.RolePlayer {
			return
		}
		var input ws.MoveInput
		if err := json.Unmarshal(msg.Data, &input); err != nil {
			return
		}
		h.minigame.HandleMove(sessionID, client.PlayerID, input.Angle, input.Speed)
	case ws.EventActivateAbility:
		if client.Role != ws.RolePlayer {
			return
		}
		var input ws.AbilityInput
		if err := json.Unmarshal(msg.Data, &input); err != nil {
			return
		}
		h.minigame.HandleAbility(sessionID, client.PlayerID, input.Ability)
	case ws.EventAudioCommand:
		// Playback control over the socket is host-only.
		if client.Role != ws.RoleHost {
			return
		}
		var cmd services.AudioCommand
		if err := json.Unmarshal(msg.Data, &cmd); err != nil || cmd.Action == "" {
			return
		}
		if err := h.audio.Dispatch(sessionID, cmd); err != nil {
			slog.Debug("audio command rejected", "session_id", sessionID, "err", err)
		}
	}
}

package handlers

import (
	"net/http"
	"time"

	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/models"
	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/services"
	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/swanchase"
	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/ws"

	"github.com/gin-gonic/gin"
)

// SessionHandler is the host-facing control surface: lifecycle transitions,
// item progression, answer corrections, the minigame, and audio routing.
type SessionHandler struct {
	sessions    *services.SessionService
	identity    *services.IdentityService
	progression *services.ProgressionService
	answers     *services.AnswerService
	board       *services.LeaderboardService
	export      *services.ExportService
	minigame    *services.MinigameService
	audio       *services.AudioRouter
	hub         *ws.Hub
}

func NewSessionHandler(
	sessions *services.SessionService,
	identity *services.IdentityService,
	progression *services.ProgressionService,
	answers *services.AnswerService,
	board *services.LeaderboardService,
	export *services.ExportService,
	minigame *services.MinigameService,
	audio *services.AudioRouter,
	hub *ws.Hub,
) *SessionHandler {
	return &SessionHandler{
		sessions:    sessions,
		identity:    identity,
		progression: progression,
		answers:     answers,
		board:       board,
		export:      export,
		minigame:    minigame,
		audio:       audio,
		hub:         hub,
	}
}

type CreateSessionRequest struct {
	QuizID uint `json:"quiz_id" binding:"required"`
}

func (h *SessionHandler) CreateSession(c *gin.Context) {
	hostID := c.GetUint("host_id")

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	session, err := h.sessions.CreateSession(req.QuizID, hostID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// GetSession returns the full host view: session row, item progression with
// the derived countdown, players, and connection liveness. The stale-quiz
// guard runs on every read so an edited quiz archives the session before the
// host can act on outdated items.
func (h *SessionHandler) GetSession(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	if _, err := h.sessions.ArchiveIfStale(sessionID); err != nil {
		writeError(c, err)
		return
	}

	session, err := h.sessions.GetByID(sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	prog, remaining := h.progression.State(sessionID)
	c.JSON(http.StatusOK, gin.H{
		"session":      session,
		"progression":  prog,
		"remaining_ms": remaining,
		"players":      h.sessions.ActivePlayers(sessionID),
		"connections":  h.hub.ConnectionStatuses(sessionID),
	})
}

type TransitionRequest struct {
	Status models.SessionStatus `json:"status" binding:"required"`
}

func (h *SessionHandler) Transition(c *gin.Context) {
	hostID := c.GetUint("host_id")
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	session, err := h.sessions.Transition(sessionID, hostID, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

type RegisterPlayerRequest struct {
	Name   string `json:"name" binding:"required,min=1,max=100"`
	Avatar string `json:"avatar"`
}

func (h *SessionHandler) RegisterPlayer(c *gin.Context) {
	hostID := c.GetUint("host_id")
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	var req RegisterPlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	player, err := h.identity.RegisterPlayer(sessionID, hostID, req.Name, req.Avatar)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, player)
}

func (h *SessionHandler) StartItem(c *gin.Context) {
	hostID := c.GetUint("host_id")
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	state, err := h.progression.StartItem(sessionID, hostID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *SessionHandler) LockItem(c *gin.Context) {
	hostID := c.GetUint("host_id")
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	state, err := h.progression.LockItem(sessionID, hostID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *SessionHandler) RevealAnswers(c *gin.Context) {
	hostID := c.GetUint("host_id")
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	state, err := h.progression.RevealAnswers(sessionID, hostID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

type NavigateRequest struct {
	Direction string `json:"direction" binding:"required,oneof=next previous"`
}

func (h *SessionHandler) Navigate(c *gin.Context) {
	hostID := c.GetUint("host_id")
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	var req NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	state, err := h.progression.Navigate(sessionID, hostID, req.Direction)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *SessionHandler) GetLeaderboard(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	entries, err := h.board.Standings(sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *SessionHandler) ExportResults(c *gin.Context) {
	hostID := c.GetUint("host_id")
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	rows, err := h.export.Results(sessionID, hostID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

type OverrideAnswerRequest struct {
	IsCorrect *bool `json:"is_correct"`
	Score     *int  `json:"score"`
}

func (h *SessionHandler) OverrideAnswer(c *gin.Context) {
	hostID := c.GetUint("host_id")
	answerID, err := parseUintParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid answer id"})
		return
	}

	var req OverrideAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	answer, err := h.answers.Override(answerID, hostID, req.IsCorrect, req.Score)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

func (h *SessionHandler) DeleteAnswer(c *gin.Context) {
	hostID := c.GetUint("host_id")
	answerID, err := parseUintParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid answer id"})
		return
	}

	if err := h.answers.Delete(answerID, hostID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "answer deleted"})
}

type StartMinigameRequest struct {
	Mode        string `json:"mode"`
	DurationSec int    `json:"duration_sec"`
}

func (h *SessionHandler) StartMinigame(c *gin.Context) {
	hostID := c.GetUint("host_id")
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	var req StartMinigameRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	settings := swanchase.DefaultSettings()
	switch req.Mode {
	case "", string(swanchase.ModeChase):
		settings.Mode = swanchase.ModeChase
	case string(swanchase.ModeKingOfTheLake):
		settings.Mode = swanchase.ModeKingOfTheLake
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown minigame mode"})
		return
	}
	if req.DurationSec > 0 {
		settings.Duration = time.Duration(req.DurationSec) * time.Second
	}

	if err := h.minigame.Start(sessionID, hostID, settings); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "minigame started"})
}

func (h *SessionHandler) StopMinigame(c *gin.Context) {
	hostID := c.GetUint("host_id")
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	if err := h.minigame.Stop(sessionID, hostID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "minigame stopped"})
}

func (h *SessionHandler) DispatchAudio(c *gin.Context) {
	hostID := c.GetUint("host_id")
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	session, err := h.sessions.GetByID(sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	if session.HostID != hostID {
		writeError(c, services.ForbiddenError{Reason: "only the host may control playback"})
		return
	}

	var cmd services.AudioCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if cmd.Action == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "audio action required"})
		return
	}

	if err := h.audio.Dispatch(sessionID, cmd); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "audio command dispatched"})
}

package handlers

import (
	"net/http"

	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/services"

	"github.com/gin-gonic/gin"
)

// PlayHandler is the unauthenticated player surface. Players identify by
// access token or device id, never by a host bearer token.
type PlayHandler struct {
	identity    *services.IdentityService
	tickets     *services.TicketService
	answers     *services.AnswerService
	progression *services.ProgressionService
}

func NewPlayHandler(identity *services.IdentityService, tickets *services.TicketService, answers *services.AnswerService, progression *services.ProgressionService) *PlayHandler {
	return &PlayHandler{identity: identity, tickets: tickets, answers: answers, progression: progression}
}

type JoinRequest struct {
	Code   string `json:"code" binding:"required"`
	Name   string `json:"name" binding:"required,min=1,max=100"`
	Avatar string `json:"avatar"`
}

func (h *PlayHandler) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	player, err := h.identity.JoinByCode(req.Code, req.Name, req.Avatar)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, player)
}

func (h *PlayHandler) Claimable(c *gin.Context) {
	code := c.Query("code")
	deviceID := c.Query("device_id")
	if code == "" || deviceID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "code and device_id required"})
		return
	}

	players, err := h.identity.ClaimablePlayers(code, deviceID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, players)
}

type ClaimRequest struct {
	Code     string `json:"code" binding:"required"`
	PlayerID uint   `json:"player_id" binding:"required"`
	DeviceID string `json:"device_id" binding:"required"`
}

func (h *PlayHandler) Claim(c *gin.Context) {
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	player, err := h.identity.ClaimPlayer(req.Code, req.PlayerID, req.DeviceID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, player)
}

// Resolve is the permanent deep link: an access token re-activates its
// player on any device.
func (h *PlayHandler) Resolve(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "token required"})
		return
	}

	player, session, err := h.identity.ResolveAccessToken(token)
	if err != nil {
		writeError(c, err)
		return
	}

	prog, remaining := h.progression.State(session.ID)
	c.JSON(http.StatusOK, gin.H{
		"player":       player,
		"session":      session,
		"progression":  prog,
		"remaining_ms": remaining,
	})
}

type IssueTicketRequest struct {
	AccessToken string `json:"access_token" binding:"required"`
}

func (h *PlayHandler) IssueTicket(c *gin.Context) {
	var req IssueTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	ticket, err := h.tickets.Issue(c.Request.Context(), req.AccessToken)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket})
}

func (h *PlayHandler) ResolveTicket(c *gin.Context) {
	ticket := c.Param("ticket")
	if ticket == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "ticket required"})
		return
	}

	player, session, err := h.tickets.Resolve(c.Request.Context(), ticket)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"player": player, "session": session})
}

type LeaveRequest struct {
	AccessToken string `json:"access_token" binding:"required"`
}

func (h *PlayHandler) Leave(c *gin.Context) {
	var req LeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.identity.Leave(req.AccessToken); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "left session"})
}

type SubmitAnswerRequest struct {
	AccessToken string `json:"access_token" binding:"required"`
	ItemID      uint   `json:"item_id" binding:"required"`
	OptionID    *uint  `json:"option_id"`
	Payload     string `json:"payload"`
}

func (h *PlayHandler) SubmitAnswer(c *gin.Context) {
	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	answer, err := h.answers.Submit(req.AccessToken, req.ItemID, req.OptionID, req.Payload)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

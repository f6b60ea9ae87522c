package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/services"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// writeError maps the engine's typed rejections onto HTTP statuses. Anything
// untyped is a plain bad request; nothing here ever panics the handler.
func writeError(c *gin.Context, err error) {
	var (
		notFoundSession services.SessionNotFoundError
		notFoundPlayer  services.PlayerNotFoundError
		forbidden       services.ForbiddenError
		tokenInvalid    services.TokenInvalidError
		deviceConflict  services.DeviceConflictError
		badTransition   services.InvalidTransitionError
		terminal        services.SessionTerminalError
		phaseClosed     services.PhaseClosedError
		noPlayback      services.PlaybackUnavailableError
	)

	status := http.StatusBadRequest
	switch {
	case errors.As(err, &notFoundSession), errors.As(err, &notFoundPlayer):
		status = http.StatusNotFound
	case errors.As(err, &forbidden):
		status = http.StatusForbidden
	case errors.As(err, &tokenInvalid):
		status = http.StatusUnauthorized
	case errors.As(err, &deviceConflict),
		errors.As(err, &badTransition),
		errors.As(err, &terminal),
		errors.As(err, &phaseClosed):
		status = http.StatusConflict
	case errors.As(err, &noPlayback):
		status = http.StatusUnprocessableEntity
	}

	c.JSON(status, ErrorResponse{Error: err.Error()})
}

func parseUintParam(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	return uint(id), err
}

func sessionIDParam(c *gin.Context) (uint, bool) {
	id, err := parseUintParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid session id"})
		return 0, false
	}
	return id, true
}

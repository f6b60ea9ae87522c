package services

import "fmt"

// The engine never crashes the process on a bad client message: every
// rejection below is a recoverable, typed value the handler layer maps onto
// an HTTP status, and the authoritative state is left unchanged.

// InvalidTransitionError rejects a session or item phase edge that the
// state machine does not allow.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// DeviceConflictError rejects a claim for a player already bound to a
// different device, naming the current holder.
type DeviceConflictError struct {
	PlayerName string
}

func (e DeviceConflictError) Error() string {
	return fmt.Sprintf("player %q is already claimed by another device", e.PlayerName)
}

type PlayerNotFoundError struct {
	PlayerID uint
}

func (e PlayerNotFoundError) Error() string {
	if e.PlayerID == 0 {
		return "player not found"
	}
	return fmt.Sprintf("player %d not found", e.PlayerID)
}

type SessionNotFoundError struct {
	Code string
}

func (e SessionNotFoundError) Error() string {
	if e.Code == "" {
		return "session not found"
	}
	return fmt.Sprintf("session %s not found", e.Code)
}

// SessionTerminalError rejects any action on an ended or archived session.
type SessionTerminalError struct {
	Status string
}

func (e SessionTerminalError) Error() string {
	return fmt.Sprintf("session is %s", e.Status)
}

// PhaseClosedError rejects an answer submitted outside the STARTED phase.
type PhaseClosedError struct {
	Phase string
}

func (e PhaseClosedError) Error() string {
	return fmt.Sprintf("item is not accepting answers (phase %s)", e.Phase)
}

// TokenInvalidError covers expired, consumed, or unknown rejoin tickets and
// unknown access tokens.
type TokenInvalidError struct{}

func (e TokenInvalidError) Error() string {
	return "token expired or invalid"
}

// ForbiddenError rejects host-only actions attempted by a non-host.
type ForbiddenError struct {
	Reason string
}

func (e ForbiddenError) Error() string {
	if e.Reason == "" {
		return "forbidden"
	}
	return "forbidden: " + e.Reason
}

// PlaybackUnavailableError rejects restartLast when nothing has played yet.
type PlaybackUnavailableError struct{}

func (e PlaybackUnavailableError) Error() string {
	return "no previously played track to restart"
}

package services

import (
	"time"

	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/models"
	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/ws"
)

// ProgressionService drives one quiz item through idle → started → locked
// → revealed. The countdown everywhere is derived from the broadcast
// PhaseStartedAt and TimeLimitMs; the host UI's local ticker is a display
// convenience, never the source of truth.
type ProgressionService struct {
	hub      *ws.Hub
	registry *Registry
	sessions *SessionService
	answers  *AnswerService
	board    *LeaderboardService
}

func NewProgressionService(hub *ws.Hub, registry *Registry, sessions *SessionService, answers *AnswerService, board *LeaderboardService) *ProgressionService {
	return &ProgressionService{hub: hub, registry: registry, sessions: sessions, answers: answers, board: board}
}

// hostActive loads the session and enforces host + ACTIVE status.
func (s *ProgressionService) hostActive(sessionID, hostID uint) (*models.LiveSession, error) {
	session, err := s.sessions.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session.HostID != hostID {
		return nil, ForbiddenError{Reason: "only the host may drive item progression"}
	}
	if session.Status.Terminal() {
		return nil, SessionTerminalError{Status: string(session.Status)}
	}
	if session.Status != models.SessionStatusActive {
		return nil, InvalidTransitionError{From: string(session.Status), To: "item progression"}
	}
	return session, nil
}

// currentItemLocked returns the item under the cursor. Callers hold rt.mu.
func currentItemLocked(rt *Runtime) (*models.QuizItem, bool) {
	if rt.prog.CurrentIndex < 0 || rt.prog.CurrentIndex >= len(rt.items) {
		return nil, false
	}
	return &rt.items[rt.prog.CurrentIndex], true
}

// StartItem opens the answer window for the current item and stamps the
// authoritative phase start time.
func (s *ProgressionService) StartItem(sessionID, hostID uint) (*ProgressionState, error) {
	if _, err := s.hostActive(sessionID, hostID); err != nil {
		return nil, err
	}

	rt := s.registry.Get(sessionID)
	rt.mu.Lock()
	defer rt.mu.Unlock()

	item, ok := currentItemLocked(rt)
	if !ok {
		return nil, InvalidTransitionError{From: string(rt.prog.Phase), To: string(PhaseStarted)}
	}
	if rt.prog.Phase != PhaseIdle {
		return nil, InvalidTransitionError{From: string(rt.prog.Phase), To: string(PhaseStarted)}
	}

	rt.prog.Phase = PhaseStarted
	rt.prog.PhaseStartedAt = time.Now()
	rt.prog.TimeLimitMs = item.TimeLimitMs

	state := rt.prog
	s.hub.Broadcast(sessionID, ws.WSMessage{
		Type: ws.EventItemStarted,
		Data: map[string]interface{}{
			"item_id":          item.ID,
			"item_index":       rt.prog.CurrentIndex,
			"time_limit_ms":    item.TimeLimitMs,
			"phase_started_at": rt.prog.PhaseStartedAt.UnixMilli(),
		},
	})
	return &state, nil
}

// LockItem freezes submissions regardless of remaining time.
func (s *ProgressionService) LockItem(sessionID, hostID uint) (*ProgressionState, error) {
	if _, err := s.hostActive(sessionID, hostID); err != nil {
		return nil, err
	}

	rt := s.registry.Get(sessionID)
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.prog.Phase != PhaseStarted {
		return nil, InvalidTransitionError{From: string(rt.prog.Phase), To: string(PhaseLocked)}
	}
	item, _ := currentItemLocked(rt)

	rt.prog.Phase = PhaseLocked
	state := rt.prog
	s.hub.Broadcast(sessionID, ws.WSMessage{
		Type: ws.EventItemLocked,
		Data: map[string]interface{}{"item_id": item.ID},
	})
	return &state, nil
}

// RevealAnswers finalizes scoring for the locked item and pushes the
// leaderboard. The phase order is strict: a started item must be locked
// before it can be revealed.
func (s *ProgressionService) RevealAnswers(sessionID, hostID uint) (*ProgressionState, error) {
	if _, err := s.hostActive(sessionID, hostID); err != nil {
		return nil, err
	}

	rt := s.registry.Get(sessionID)
	rt.mu.Lock()

	if rt.prog.Phase != PhaseLocked {
		rt.mu.Unlock()
		return nil, InvalidTransitionError{From: string(rt.prog.Phase), To: string(PhaseRevealed)}
	}
	item, _ := currentItemLocked(rt)
	rt.prog.Phase = PhaseRevealed
	state := rt.prog
	rt.mu.Unlock()

	if err := s.answers.FinalizeItem(sessionID, item); err != nil {
		return nil, err
	}

	s.hub.Broadcast(sessionID, ws.WSMessage{
		Type: ws.EventAnswersRevealed,
		Data: map[string]interface{}{"item_id": item.ID},
	})
	if entries, err := s.board.Standings(sessionID); err == nil {
		s.hub.Broadcast(sessionID, ws.WSMessage{Type: ws.EventLeaderboardUpdate, Data: entries})
	}
	return &state, nil
}

// Navigate moves the host-local cursor and resets the phase to idle for the
// newly selected item. It is not a scored event and is never allowed once
// the session has ended.
func (s *ProgressionService) Navigate(sessionID, hostID uint, direction string) (*ProgressionState, error) {
	if _, err := s.hostActive(sessionID, hostID); err != nil {
		return nil, err
	}

	rt := s.registry.Get(sessionID)
	rt.mu.Lock()
	defer rt.mu.Unlock()

	switch direction {
	case "next":
		if rt.prog.CurrentIndex < len(rt.items)-1 {
			rt.prog.CurrentIndex++
		}
	case "previous":
		if rt.prog.CurrentIndex > 0 {
			rt.prog.CurrentIndex--
		}
	default:
		return nil, InvalidTransitionError{From: string(rt.prog.Phase), To: direction}
	}

	rt.prog.Phase = PhaseIdle
	rt.prog.PhaseStartedAt = time.Time{}
	rt.prog.TimeLimitMs = 0
	state := rt.prog
	return &state, nil
}

// State returns the progression view plus the derived countdown.
func (s *ProgressionService) State(sessionID uint) (ProgressionState, int64) {
	rt := s.registry.Get(sessionID)
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.prog, rt.prog.RemainingMs(time.Now())
}

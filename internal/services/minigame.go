package services

import (
	"log/slog"
	"time"

	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/models"
	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/swanchase"
	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/ws"
)

// MinigameService wires the swan chase simulation into a session: one game
// per session runtime, snapshots fanned out over the hub, final placements
// folded into answer scores.
type MinigameService struct {
	hub      *ws.Hub
	registry *Registry
	sessions *SessionService
	answers  *AnswerService
	board    *LeaderboardService
	tickRate int
}

func NewMinigameService(hub *ws.Hub, registry *Registry, sessions *SessionService, answers *AnswerService, board *LeaderboardService, tickRate int) *MinigameService {
	return &MinigameService{hub: hub, registry: registry, sessions: sessions, answers: answers, board: board, tickRate: tickRate}
}

// Start launches a fresh game for the session's active players. A game
// already in countdown or running is left alone; a finished one is
// replaced — a stopped tick loop is never restarted.
func (s *MinigameService) Start(sessionID, hostID uint, settings swanchase.Settings) error {
	session, err := s.sessions.GetByID(sessionID)
	if err != nil {
		return err
	}
	if session.HostID != hostID {
		return ForbiddenError{Reason: "only the host may start the minigame"}
	}
	if session.Status != models.SessionStatusActive {
		return InvalidTransitionError{From: string(session.Status), To: "minigame"}
	}

	settings.TickRate = s.tickRate

	rt := s.registry.Get(sessionID)
	rt.mu.Lock()
	if rt.game != nil && rt.game.Status() != swanchase.StatusEnded {
		rt.mu.Unlock()
		return InvalidTransitionError{From: "running", To: "minigame"}
	}

	game := swanchase.New(settings,
		func(snap swanchase.Snapshot) {
			s.hub.Broadcast(sessionID, ws.WSMessage{Type: ws.EventGameState, Data: snap})
		},
		func(results []swanchase.Result) {
			s.finish(sessionID, results)
		},
	)
	rt.game = game
	rt.mu.Unlock()

	for _, p := range s.sessions.ActivePlayers(sessionID) {
		game.AddPlayer(p.ID, p.Name)
	}

	go game.Run()
	slog.Info("minigame started", "session_id", sessionID, "mode", settings.Mode)
	return nil
}

// Stop cancels the session's game, if any. Idempotent.
func (s *MinigameService) Stop(sessionID, hostID uint) error {
	session, err := s.sessions.GetByID(sessionID)
	if err != nil {
		return err
	}
	if session.HostID != hostID {
		return ForbiddenError{Reason: "only the host may stop the minigame"}
	}

	rt := s.registry.Get(sessionID)
	rt.mu.Lock()
	game := rt.game
	rt.mu.Unlock()
	if game != nil {
		game.Stop()
	}
	return nil
}

// HandleMove feeds a movement input into the running game. Unknown player,
// no game, or an immobilized status all fall through silently — a bad
// packet never perturbs authoritative state.
func (s *MinigameService) HandleMove(sessionID, playerID uint, angle, speed float64) {
	rt := s.registry.Get(sessionID)
	rt.mu.Lock()
	game := rt.game
	rt.mu.Unlock()
	if game != nil {
		game.SetInput(playerID, angle, speed)
	}
}

// HandleAbility activates sprint or dash for a player.
func (s *MinigameService) HandleAbility(sessionID, playerID uint, ability string) {
	rt := s.registry.Get(sessionID)
	rt.mu.Lock()
	game := rt.game
	rt.mu.Unlock()
	if game != nil {
		game.ActivateAbility(playerID, ability, time.Now())
	}
}

// finish folds final placements into the leaderboard and announces the end.
// Placement points decay from 50 by 10 per rank, floored at 10 for anyone
// who played.
func (s *MinigameService) finish(sessionID uint, results []swanchase.Result) {
	s.hub.Broadcast(sessionID, ws.WSMessage{Type: ws.EventGameEnded, Data: results})

	for _, r := range results {
		points := 50 - (r.Placement-1)*10
		if points < 10 {
			points = 10
		}
		if err := s.answers.RecordMinigameScore(sessionID, r.PlayerID, points); err != nil {
			slog.Warn("failed to record minigame score", "session_id", sessionID, "player_id", r.PlayerID, "err", err)
		}
	}

	if entries, err := s.board.Standings(sessionID); err == nil {
		s.hub.Broadcast(sessionID, ws.WSMessage{Type: ws.EventLeaderboardUpdate, Data: entries})
	}
}

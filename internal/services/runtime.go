package services

import (
	"sync"
	"time"

	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/models"
	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/swanchase"
)

type ItemPhase string

const (
	PhaseIdle     ItemPhase = "idle"
	PhaseStarted  ItemPhase = "started"
	PhaseLocked   ItemPhase = "locked"
	PhaseRevealed ItemPhase = "revealed"
)

// ProgressionState is the in-memory phase of the current quiz item. It is
// created when the host starts the session, advanced by host actions, and
// discarded with the runtime when the session ends. Countdowns everywhere
// derive from PhaseStartedAt + TimeLimitMs; no observer decrements its own
// clock authoritatively.
type ProgressionState struct {
	CurrentIndex   int       `json:"current_index"`
	Phase          ItemPhase `json:"phase"`
	PhaseStartedAt time.Time `json:"phase_started_at"`
	TimeLimitMs    int       `json:"time_limit_ms"`
}

// RemainingMs recomputes the countdown from the authoritative start stamp.
func (p *ProgressionState) RemainingMs(now time.Time) int64 {
	if p.Phase != PhaseStarted {
		return 0
	}
	remaining := int64(p.TimeLimitMs) - now.Sub(p.PhaseStartedAt).Milliseconds()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Runtime is the per-session context object: every engine mutation for one
// session serializes on mu, so no two handlers for the same session run
// concurrently while different sessions stay fully independent.
type Runtime struct {
	SessionID uint

	mu sync.Mutex

	items []models.QuizItem
	prog  ProgressionState
	game  *swanchase.Game

	lastPlay *AudioCommand
}

// Items returns the immutable item snapshot taken at session start.
func (rt *Runtime) Items() []models.QuizItem {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.items
}

// Progression returns a copy of the current progression state.
func (rt *Runtime) Progression() ProgressionState {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.prog
}

// Game returns the live minigame handle, if one is running.
func (rt *Runtime) Game() *swanchase.Game {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.game
}

// Registry supervises per-session runtimes: created on first use, torn down
// when the session reaches a terminal state. There is no global lock —
// ending one session has no effect on any other session's timers or state.
type Registry struct {
	mu       sync.RWMutex
	runtimes map[uint]*Runtime
}

func NewRegistry() *Registry {
	return &Registry{runtimes: make(map[uint]*Runtime)}
}

func (r *Registry) Get(sessionID uint) *Runtime {
	r.mu.RLock()
	rt, ok := r.runtimes[sessionID]
	r.mu.RUnlock()
	if ok {
		return rt
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if rt, ok := r.runtimes[sessionID]; ok {
		return rt
	}
	rt = &Runtime{
		SessionID: sessionID,
		prog:      ProgressionState{Phase: PhaseIdle},
	}
	r.runtimes[sessionID] = rt
	return rt
}

// Drop tears a runtime down, cancelling any running minigame tick first so
// no broadcast follows the teardown.
func (r *Registry) Drop(sessionID uint) {
	r.mu.Lock()
	rt, ok := r.runtimes[sessionID]
	delete(r.runtimes, sessionID)
	r.mu.Unlock()

	if ok {
		rt.mu.Lock()
		game := rt.game
		rt.game = nil
		rt.mu.Unlock()
		if game != nil {
			game.Stop()
		}
	}
}

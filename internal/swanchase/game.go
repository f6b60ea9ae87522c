// Package swanchase implements the authoritative simulation for the swan
// chase minigame family: many phone controllers steering players around a
// pond while AI swans chase them down. The server owns every rule; clients
// only predict kinematics (see predict.go).
package swanchase

import (
	"math/rand"
	"sync"
	"time"

	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/swanchase/kinematics"
)

type GameStatus string

const (
	StatusCountdown GameStatus = "countdown"
	StatusRunning   GameStatus = "running"
	StatusEnded     GameStatus = "ended"
)

type PlayerStatus string

const (
	PlayerAlive      PlayerStatus = "alive"
	PlayerTagged     PlayerStatus = "tagged"
	PlayerSafe       PlayerStatus = "safe"
	PlayerEliminated PlayerStatus = "eliminated"
)

// Immobilized reports whether movement input must be refused.
func (s PlayerStatus) Immobilized() bool {
	return s == PlayerTagged || s == PlayerSafe || s == PlayerEliminated
}

type Mode string

const (
	// ModeChase: AI swans hunt players; a caught player is tagged out for
	// the wave. Reaching the safe zone banks the player.
	ModeChase Mode = "chase"
	// ModeKingOfTheLake: caught players are eliminated outright; last one
	// moving wins.
	ModeKingOfTheLake Mode = "king-of-the-lake"
)

type Ability struct {
	Active        bool      `json:"active"`
	ActiveUntil   time.Time `json:"active_until"`
	CooldownUntil time.Time `json:"cooldown_until"`
	Charges       int       `json:"charges"`
}

// Ready reports whether the ability can fire now. Unlimited-charge
// abilities use Charges < 0.
func (a *Ability) Ready(now time.Time) bool {
	if now.Before(a.CooldownUntil) {
		return false
	}
	return a.Charges != 0
}

type Player struct {
	ID      uint            `json:"id"`
	Name    string          `json:"name"`
	Pos     kinematics.Vec2 `json:"pos"`
	Heading float64         `json:"heading"`
	Status  PlayerStatus    `json:"status"`
	Sprint  Ability         `json:"sprint"`
	Dash    Ability         `json:"dash"`

	// Latest queued input, consumed once per tick.
	inputAngle float64
	inputSpeed float64

	dashImpulse float64
}

type Swan struct {
	ID      int             `json:"id"`
	Pos     kinematics.Vec2 `json:"pos"`
	Heading float64         `json:"heading"`
	Speed   float64         `json:"speed"`
}

type SafeZone struct {
	Center kinematics.Vec2 `json:"center"`
	Radius float64         `json:"radius"`
}

// WaveFunc maps elapsed running time onto a difficulty step. It must depend
// on time only, never on player actions, so the curve is reproducible.
type WaveFunc func(elapsed time.Duration) (wave int, swans int, speedScale float64)

type Settings struct {
	Mode         Mode
	WorldWidth   float64
	WorldHeight  float64
	PlayerRadius float64
	SwanRadius   float64
	BaseSpeed    float64
	SwanSpeed    float64
	TagRadius    float64

	SprintMultiplier float64
	SprintDuration   time.Duration
	SprintCooldown   time.Duration
	DashImpulse      float64
	DashCooldown     time.Duration
	DashCharges      int

	SafeZone  SafeZone
	Obstacles []kinematics.CircleObstacle

	Countdown time.Duration
	Duration  time.Duration
	TickRate  int
	Wave      WaveFunc
	Seed      int64
}

func DefaultSettings() Settings {
	return Settings{
		Mode:             ModeChase,
		WorldWidth:       800,
		WorldHeight:      600,
		PlayerRadius:     14,
		SwanRadius:       18,
		BaseSpeed:        140,
		SwanSpeed:        110,
		TagRadius:        24,
		SprintMultiplier: 1.6,
		SprintDuration:   2 * time.Second,
		SprintCooldown:   6 * time.Second,
		DashImpulse:      90,
		DashCooldown:     4 * time.Second,
		DashCharges:      3,
		SafeZone:         SafeZone{Center: kinematics.Vec2{X: 400, Y: 80}, Radius: 60},
		Obstacles: []kinematics.CircleObstacle{
			{X: 200, Y: 300, Radius: 40},
			{X: 600, Y: 250, Radius: 50},
			{X: 420, Y: 450, Radius: 35},
		},
		Countdown: 3 * time.Second,
		Duration:  90 * time.Second,
		TickRate:  20,
		Wave:      DefaultWave,
		Seed:      time.Now().UnixNano(),
	}
}

// DefaultWave adds a wave every 15 seconds: two more swans and 8% more
// speed per wave, starting from three swans at wave one.
func DefaultWave(elapsed time.Duration) (int, int, float64) {
	wave := 1 + int(elapsed/(15*time.Second))
	swans := 3 + (wave-1)*2
	scale := 1.0 + 0.08*float64(wave-1)
	return wave, swans, scale
}

// Result is what survives the game: final placement per player, folded into
// quiz scores by the caller. The game state itself is never persisted.
type Result struct {
	PlayerID  uint         `json:"player_id"`
	Name      string       `json:"name"`
	Status    PlayerStatus `json:"status"`
	Placement int          `json:"placement"`
}

// Snapshot is the wire form broadcast to every socket each tick.
type Snapshot struct {
	Status          GameStatus                  `json:"status"`
	Players         []Player                    `json:"players"`
	Swans           []Swan                      `json:"swans"`
	CurrentWave     int                         `json:"current_wave"`
	TimeRemainingMs int64                       `json:"time_remaining_ms"`
	SafeZone        SafeZone                    `json:"safe_zone"`
	Obstacles       []kinematics.CircleObstacle `json:"obstacles"`
	ServerTime      int64                       `json:"server_time"`
}

// Game is one session's authoritative minigame state. All mutation happens
// on the tick goroutine or under mu; the in-memory state is the source of
// truth for the next tick regardless of any persistence in flight.
type Game struct {
	mu         sync.Mutex
	settings   Settings
	status     GameStatus
	players    map[uint]*Player
	swans      []*Swan
	wave       int
	speedScale float64

	startedAt time.Time
	endsAt    time.Time
	rng       *rand.Rand

	stop    chan struct{}
	stopped bool

	broadcast func(Snapshot)
	onEnd     func([]Result)
	nextSwan  int

	elimOrder []uint
}

// New builds a game in countdown state. broadcast is called once per tick
// with a consistent snapshot; onEnd fires exactly once.
func New(settings Settings, broadcast func(Snapshot), onEnd func([]Result)) *Game {
	if settings.TickRate <= 0 {
		settings.TickRate = 20
	}
	if settings.Wave == nil {
		settings.Wave = DefaultWave
	}
	return &Game{
		settings:   settings,
		status:     StatusCountdown,
		players:    make(map[uint]*Player),
		speedScale: 1,
		rng:        rand.New(rand.NewSource(settings.Seed)),
		stop:       make(chan struct{}),
		broadcast:  broadcast,
		onEnd:      onEnd,
	}
}

// AddPlayer registers a controller before or during the countdown. Players
// spawn spread along the bottom edge.
func (g *Game) AddPlayer(id uint, name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.status == StatusEnded {
		return
	}
	if _, ok := g.players[id]; ok {
		return
	}
	n := float64(len(g.players))
	g.players[id] = &Player{
		ID:     id,
		Name:   name,
		Status: PlayerAlive,
		Pos: kinematics.Vec2{
			X: 60 + n*40,
			Y: g.settings.WorldHeight - 40,
		},
		Sprint: Ability{Charges: -1},
		Dash:   Ability{Charges: g.settings.DashCharges},
	}
}

// SetInput queues the latest movement input for a player. Only the most
// recent input before a tick is applied; stale packets are simply
// overwritten, which makes duplicate and out-of-order delivery harmless.
func (g *Game) SetInput(playerID uint, angle, speed float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.players[playerID]
	if !ok || p.Status.Immobilized() {
		return
	}
	p.inputAngle = kinematics.NormalizeAngle(angle)
	p.inputSpeed = kinematics.Clamp(speed, 0, 1)
}

// ActivateAbility fires sprint or dash. Activation before the cooldown has
// elapsed is a no-op, not an error: the client just sees "not ready".
func (g *Game) ActivateAbility(playerID uint, name string, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.players[playerID]
	if !ok || p.Status.Immobilized() || g.status != StatusRunning {
		return
	}

	switch name {
	case "sprint":
		if !p.Sprint.Ready(now) {
			return
		}
		p.Sprint.Active = true
		p.Sprint.ActiveUntil = now.Add(g.settings.SprintDuration)
		p.Sprint.CooldownUntil = now.Add(g.settings.SprintCooldown)
	case "dash":
		if !p.Dash.Ready(now) {
			return
		}
		if p.Dash.Charges > 0 {
			p.Dash.Charges--
		}
		p.Dash.CooldownUntil = now.Add(g.settings.DashCooldown)
		p.dashImpulse = g.settings.DashImpulse
	}
}

// Stop cancels the tick loop. Idempotent; a stopped game can never be
// restarted — callers build a fresh Game for a new countdown.
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopLocked()
}

func (g *Game) stopLocked() {
	if g.stopped {
		return
	}
	g.stopped = true
	g.status = StatusEnded
	close(g.stop)
}

// Status returns the current lifecycle state.
func (g *Game) Status() GameStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// PlayerSnapshot returns a copy of one player's state, for tests and for
// folding outcomes.
func (g *Game) PlayerSnapshot(id uint) (Player, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.players[id]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

func (g *Game) snapshotLocked(now time.Time) Snapshot {
	players := make([]Player, 0, len(g.players))
	for _, p := range g.players {
		players = append(players, *p)
	}
	swans := make([]Swan, 0, len(g.swans))
	for _, s := range g.swans {
		swans = append(swans, *s)
	}
	remaining := int64(0)
	if g.status == StatusRunning {
		remaining = g.endsAt.Sub(now).Milliseconds()
		if remaining < 0 {
			remaining = 0
		}
	}
	return Snapshot{
		Status:          g.status,
		Players:         players,
		Swans:           swans,
		CurrentWave:     g.wave,
		TimeRemainingMs: remaining,
		SafeZone:        g.settings.SafeZone,
		Obstacles:       g.settings.Obstacles,
		ServerTime:      now.UnixMilli(),
	}
}

func (g *Game) resultsLocked() []Result {
	// Placement: survivors first (safe, then alive), then reverse
	// elimination order.
	results := make([]Result, 0, len(g.players))
	place := 1
	for _, status := range []PlayerStatus{PlayerSafe, PlayerAlive} {
		for _, p := range g.players {
			if p.Status == status {
				results = append(results, Result{PlayerID: p.ID, Name: p.Name, Status: p.Status, Placement: place})
				place++
			}
		}
	}
	for i := len(g.elimOrder) - 1; i >= 0; i-- {
		p, ok := g.players[g.elimOrder[i]]
		if !ok {
			continue
		}
		results = append(results, Result{PlayerID: p.ID, Name: p.Name, Status: p.Status, Placement: place})
		place++
	}
	return results
}

package swanchase

import (
	"math"
	"time"

	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/swanchase/kinematics"
)

// Run drives the countdown and then the fixed-rate tick loop until the game
// ends or Stop is called. It blocks; callers run it on its own goroutine.
func (g *Game) Run() {
	countdown := time.NewTimer(g.settings.Countdown)
	defer countdown.Stop()

	select {
	case <-g.stop:
		return
	case <-countdown.C:
	}

	now := time.Now()
	g.mu.Lock()
	// Stop can land while countdown.C is already ready; the select above may
	// then take the countdown branch. A stopped game must never start.
	if g.stopped {
		g.mu.Unlock()
		return
	}
	g.status = StatusRunning
	g.startedAt = now
	g.endsAt = now.Add(g.settings.Duration)
	g.spawnWaveLocked(now)
	g.mu.Unlock()

	ticker := time.NewTicker(time.Second / time.Duration(g.settings.TickRate))
	defer ticker.Stop()

	last := now
	for {
		select {
		case <-g.stop:
			return
		case tick := <-ticker.C:
			dt := tick.Sub(last).Seconds()
			if dt <= 0 {
				dt = 1.0 / float64(g.settings.TickRate)
			}
			last = tick

			snap, results, ended, running := g.advance(tick, dt)
			if !running {
				// Stopped between ticks; nothing more goes out.
				return
			}
			if g.broadcast != nil {
				g.broadcast(snap)
			}
			if ended {
				if g.onEnd != nil {
					g.onEnd(results)
				}
				return
			}
		}
	}
}

// advance runs one simulation step and returns the resulting snapshot plus,
// when the game just finished, the final results. The last return reports
// whether the game was still running when the step began; after an external
// Stop it is false and the caller must not broadcast.
func (g *Game) advance(now time.Time, dt float64) (Snapshot, []Result, bool, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != StatusRunning {
		return Snapshot{}, nil, false, false
	}

	elapsed := now.Sub(g.startedAt)
	wave, _, scale := g.settings.Wave(elapsed)
	if wave > g.wave {
		g.wave = wave
		g.speedScale = scale
		g.spawnWaveLocked(now)
	}

	g.stepPlayersLocked(now, dt)
	g.stepSwansLocked(dt)
	g.resolveTagsLocked()

	if now.After(g.endsAt) || g.noneLeftLocked() {
		results := g.resultsLocked()
		g.stopLocked()
		return g.snapshotLocked(now), results, true, true
	}
	return g.snapshotLocked(now), nil, false, true
}

func (g *Game) stepPlayersLocked(now time.Time, dt float64) {
	s := &g.settings
	for _, p := range g.players {
		if p.Sprint.Active && now.After(p.Sprint.ActiveUntil) {
			p.Sprint.Active = false
		}
		if p.Status.Immobilized() {
			continue
		}
		if p.inputSpeed == 0 && p.dashImpulse == 0 {
			continue
		}

		speed := p.inputSpeed
		maxSpeed := s.BaseSpeed
		if p.Sprint.Active {
			maxSpeed *= s.SprintMultiplier
		}
		p.Heading = p.inputAngle

		pos := kinematics.Integrate(p.Pos, p.inputAngle, speed, maxSpeed, dt)
		if p.dashImpulse > 0 {
			pos.X += math.Cos(p.Heading) * p.dashImpulse
			pos.Y += math.Sin(p.Heading) * p.dashImpulse
			p.dashImpulse = 0
		}
		pos = kinematics.ClampToBounds(pos, s.PlayerRadius, s.WorldWidth, s.WorldHeight)
		pos = kinematics.ResolveCircleObstacles(pos, s.PlayerRadius, s.Obstacles)
		p.Pos = kinematics.ClampToBounds(pos, s.PlayerRadius, s.WorldWidth, s.WorldHeight)
	}
}

// stepSwansLocked steers each swan toward the nearest vulnerable player.
func (g *Game) stepSwansLocked(dt float64) {
	s := &g.settings
	for _, swan := range g.swans {
		target, ok := g.nearestAliveLocked(swan.Pos)
		if !ok {
			continue
		}
		angle := math.Atan2(target.Pos.Y-swan.Pos.Y, target.Pos.X-swan.Pos.X)
		swan.Heading = angle
		pos := kinematics.Integrate(swan.Pos, angle, 1, swan.Speed*g.speedScale, dt)
		pos = kinematics.ClampToBounds(pos, s.SwanRadius, s.WorldWidth, s.WorldHeight)
		swan.Pos = kinematics.ResolveCircleObstacles(pos, s.SwanRadius, s.Obstacles)
	}
}

func (g *Game) nearestAliveLocked(from kinematics.Vec2) (*Player, bool) {
	var best *Player
	bestDist := math.MaxFloat64
	for _, p := range g.players {
		if p.Status != PlayerAlive {
			continue
		}
		d := kinematics.Distance(from, p.Pos)
		if d < bestDist {
			bestDist = d
			best = p
		}
	}
	return best, best != nil
}

// resolveTagsLocked applies safe-zone banking and tag checks. Tagging stays
// server-authoritative; the predictor never mirrors this.
func (g *Game) resolveTagsLocked() {
	s := &g.settings
	for _, p := range g.players {
		if p.Status != PlayerAlive {
			continue
		}
		if kinematics.Distance(p.Pos, s.SafeZone.Center) <= s.SafeZone.Radius {
			p.Status = PlayerSafe
			continue
		}
		for _, swan := range g.swans {
			if kinematics.Distance(p.Pos, swan.Pos) > s.TagRadius {
				continue
			}
			if s.Mode == ModeKingOfTheLake {
				p.Status = PlayerEliminated
			} else {
				p.Status = PlayerTagged
			}
			g.elimOrder = append(g.elimOrder, p.ID)
			break
		}
	}
}

func (g *Game) noneLeftLocked() bool {
	for _, p := range g.players {
		if p.Status == PlayerAlive {
			return false
		}
	}
	return len(g.players) > 0
}

// spawnWaveLocked tops the swan flock up to the count the wave schedule
// asks for. Spawn positions come from the seeded RNG so the curve replays
// identically for the same seed.
func (g *Game) spawnWaveLocked(now time.Time) {
	elapsed := time.Duration(0)
	if !g.startedAt.IsZero() {
		elapsed = now.Sub(g.startedAt)
	}
	wave, count, scale := g.settings.Wave(elapsed)
	if g.wave == 0 {
		g.wave = wave
		g.speedScale = scale
	}
	for len(g.swans) < count {
		g.nextSwan++
		g.swans = append(g.swans, &Swan{
			ID:    g.nextSwan,
			Speed: g.settings.SwanSpeed,
			Pos: kinematics.Vec2{
				X: g.settings.WorldWidth * g.rng.Float64(),
				Y: g.settings.WorldHeight * 0.1,
			},
		})
	}
}

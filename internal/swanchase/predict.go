package swanchase

import (
	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/swanchase/kinematics"
)

// Predictor mirrors the pure kinematics of the authoritative tick for one
// local player, hiding input latency between snapshots. It deliberately
// knows nothing about tagging, elimination, or win conditions — those only
// ever arrive from the server.
type Predictor struct {
	settings Settings
	Pos      kinematics.Vec2
	Heading  float64
}

func NewPredictor(settings Settings, start kinematics.Vec2) *Predictor {
	return &Predictor{settings: settings, Pos: start}
}

// Step advances the local prediction by dt using the same integration,
// bounds clamp, and obstacle push-out as the server.
func (p *Predictor) Step(angle, speed float64, sprinting bool, dt float64) {
	s := &p.settings
	maxSpeed := s.BaseSpeed
	if sprinting {
		maxSpeed *= s.SprintMultiplier
	}
	p.Heading = kinematics.NormalizeAngle(angle)

	pos := kinematics.Integrate(p.Pos, p.Heading, speed, maxSpeed, dt)
	pos = kinematics.ClampToBounds(pos, s.PlayerRadius, s.WorldWidth, s.WorldHeight)
	pos = kinematics.ResolveCircleObstacles(pos, s.PlayerRadius, s.Obstacles)
	p.Pos = kinematics.ClampToBounds(pos, s.PlayerRadius, s.WorldWidth, s.WorldHeight)
}

// Reconcile blends the local state toward an authoritative snapshot.
// Position interpolates linearly, heading along the shortest arc; blend is
// clamped to [0,1] so reconciliation can never overshoot or snap.
func (p *Predictor) Reconcile(authoritative kinematics.Vec2, authHeading, blend float64) {
	blend = kinematics.Clamp(blend, 0, 1)
	p.Pos = kinematics.LerpVec(p.Pos, authoritative, blend)
	p.Heading = kinematics.LerpAngle(p.Heading, authHeading, blend)
}

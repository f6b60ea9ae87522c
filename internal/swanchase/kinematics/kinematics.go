// Package kinematics holds the pure movement math shared by the
// authoritative simulation and the client-side predictor. Keeping both on
// one deterministic implementation means they cannot drift in formula;
// tagging, elimination, and win conditions stay out of this package on
// purpose.
package kinematics

import "math"

type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type CircleObstacle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// Integrate advances a position by one step of heading/throttle input.
// Speed is normalized input in [0,1] and is clamped; maxSpeed is in
// units/second.
func Integrate(pos Vec2, angle, speed, maxSpeed, dt float64) Vec2 {
	speed = Clamp(speed, 0, 1)
	v := speed * maxSpeed
	return Vec2{
		X: pos.X + math.Cos(angle)*v*dt,
		Y: pos.Y + math.Sin(angle)*v*dt,
	}
}

// ClampToBounds keeps a circle of the given radius inside the world rect.
func ClampToBounds(pos Vec2, radius, width, height float64) Vec2 {
	return Vec2{
		X: Clamp(pos.X, radius, width-radius),
		Y: Clamp(pos.Y, radius, height-radius),
	}
}

// ResolveCircleObstacles pushes a circle of the given radius out of any
// overlapping round obstacle along the contact normal.
func ResolveCircleObstacles(pos Vec2, radius float64, obstacles []CircleObstacle) Vec2 {
	for _, obs := range obstacles {
		dx := pos.X - obs.X
		dy := pos.Y - obs.Y
		distSq := dx*dx + dy*dy
		minDist := radius + obs.Radius
		if distSq >= minDist*minDist {
			continue
		}
		if distSq == 0 {
			// Dead center: push straight right so the result stays
			// deterministic.
			pos.X = obs.X + minDist
			continue
		}
		dist := math.Sqrt(distSq)
		overlap := minDist - dist
		pos.X += dx / dist * overlap
		pos.Y += dy / dist * overlap
	}
	return pos
}

func Distance(a, b Vec2) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Lerp blends linearly from a to b; t is clamped to [0,1].
func Lerp(a, b, t float64) float64 {
	t = Clamp(t, 0, 1)
	return a + (b-a)*t
}

func LerpVec(a, b Vec2, t float64) Vec2 {
	return Vec2{X: Lerp(a.X, b.X, t), Y: Lerp(a.Y, b.Y, t)}
}

// LerpAngle interpolates headings along the shortest arc so a reconciling
// client never spins the long way around.
func LerpAngle(a, b, t float64) float64 {
	t = Clamp(t, 0, 1)
	diff := NormalizeAngle(b - a)
	return NormalizeAngle(a + diff*t)
}

// NormalizeAngle wraps an angle into (-pi, pi].
func NormalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

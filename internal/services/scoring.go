package services

// SpeedBonusFunc maps submission timing onto bonus points. The bonus is
// computed from the elapsed time at the submission instant, not at lock
// time, and implementations must be monotonically non-increasing in elapsed
// with a floor of zero. The formula is configuration-shaped policy, so it
// is pluggable rather than hard-coded.
type SpeedBonusFunc func(elapsedMs int64, timeLimitMs, points int) int

// DefaultSpeedBonus decays linearly from half the item's points at t=0 to
// zero at the time limit, so a correct answer scores in
// [points/2, points].
func DefaultSpeedBonus(elapsedMs int64, timeLimitMs, points int) int {
	if timeLimitMs <= 0 || elapsedMs >= int64(timeLimitMs) {
		return 0
	}
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	maxBonus := points / 2
	bonus := int(float64(maxBonus) * (1 - float64(elapsedMs)/float64(timeLimitMs)))
	if bonus < 0 {
		return 0
	}
	return bonus
}

type ScoringService struct {
	bonus SpeedBonusFunc
}

func NewScoringService(bonus SpeedBonusFunc) *ScoringService {
	if bonus == nil {
		bonus = DefaultSpeedBonus
	}
	return &ScoringService{bonus: bonus}
}

// Score computes the points for one answer. Incorrect answers score zero;
// correct ones get the base plus the speed bonus, capped at the item's max.
func (s *ScoringService) Score(correct bool, elapsedMs int64, timeLimitMs, points int) int {
	if !correct {
		return 0
	}
	base := points - points/2
	score := base + s.bonus(elapsedMs, timeLimitMs, points)
	if score > points {
		score = points
	}
	if score < 0 {
		score = 0
	}
	return score
}

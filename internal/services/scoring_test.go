package services

import "testing"

func TestScoreIncorrectIsZero(t *testing.T) {
	s := NewScoringService(nil)
	if got := s.Score(false, 0, 20000, 100); got != 0 {
		t.Fatalf("incorrect answer must score 0, got %d", got)
	}
}

func TestScoreFasterNeverScoresLess(t *testing.T) {
	s := NewScoringService(nil)
	prev := s.Score(true, 0, 20000, 100)
	for elapsed := int64(1000); elapsed <= 20000; elapsed += 1000 {
		got := s.Score(true, elapsed, 20000, 100)
		if got > prev {
			t.Fatalf("score increased with elapsed time: %d at %dms > %d earlier", got, elapsed, prev)
		}
		prev = got
	}
}

func TestScoreBounds(t *testing.T) {
	s := NewScoringService(nil)

	fast := s.Score(true, 5000, 20000, 100)
	slow := s.Score(true, 19000, 20000, 100)
	if fast > 100 || slow > 100 {
		t.Fatalf("scores above the item max: fast=%d slow=%d", fast, slow)
	}
	if fast <= slow {
		t.Fatalf("faster correct answer must outscore slower one: %d vs %d", fast, slow)
	}
	// Correct answers never drop below the base.
	if slow < 50 {
		t.Fatalf("correct answer fell below the base: %d", slow)
	}
}

func TestScoreAtAndPastTheLimit(t *testing.T) {
	s := NewScoringService(nil)
	at := s.Score(true, 20000, 20000, 100)
	past := s.Score(true, 25000, 20000, 100)
	if at != 50 || past != 50 {
		t.Fatalf("at/past the limit only the base remains: %d, %d", at, past)
	}
}

func TestDefaultSpeedBonusDegenerateLimit(t *testing.T) {
	if got := DefaultSpeedBonus(0, 0, 100); got != 0 {
		t.Fatalf("zero time limit must yield no bonus, got %d", got)
	}
	if got := DefaultSpeedBonus(-5, 20000, 100); got != 50 {
		t.Fatalf("negative elapsed clamps to the full bonus, got %d", got)
	}
}

func TestCustomBonusFunc(t *testing.T) {
	flat := func(elapsedMs int64, timeLimitMs, points int) int { return 7 }
	s := NewScoringService(flat)
	if got := s.Score(true, 10000, 20000, 100); got != 57 {
		t.Fatalf("expected base 50 + flat 7, got %d", got)
	}
}

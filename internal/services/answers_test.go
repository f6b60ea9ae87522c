package services

import (
	"errors"
	"testing"

	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/models"
)

// playingSession activates a session, joins one player, and starts the first
// item. Returns the session, the player, and the started item.
func playingSession(t *testing.T, e *env) (*models.LiveSession, *models.LivePlayer, *models.QuizItem) {
	t.Helper()
	session := startedSession(t, e)
	player, err := e.identity.JoinByCode(session.Code, "ada", "")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := e.progression.StartItem(session.ID, testHostID); err != nil {
		t.Fatalf("start item: %v", err)
	}
	rt := e.registry.Get(session.ID)
	items := rt.Items()
	return session, player, &items[0]
}

func correctOption(t *testing.T, item *models.QuizItem) uint {
	t.Helper()
	for _, o := range item.Options {
		if o.IsCorrect {
			return o.ID
		}
	}
	t.Fatal("seeded item has no correct option")
	return 0
}

func wrongOption(t *testing.T, item *models.QuizItem) uint {
	t.Helper()
	for _, o := range item.Options {
		if !o.IsCorrect {
			return o.ID
		}
	}
	t.Fatal("seeded item has no wrong option")
	return 0
}

func TestSubmitRecordsAnswer(t *testing.T) {
	e := newEnv(t)
	_, player, item := playingSession(t, e)
	optID := correctOption(t, item)

	answer, err := e.answers.Submit(player.AccessToken, item.ID, &optID, "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if answer.IsCorrect == nil || !*answer.IsCorrect {
		t.Fatal("correct option must be marked correct")
	}
	if answer.ElapsedMs < 0 {
		t.Fatalf("elapsed must be non-negative, got %d", answer.ElapsedMs)
	}
}

func TestSubmitResubmissionReplacesWhileStarted(t *testing.T) {
	e := newEnv(t)
	session, player, item := playingSession(t, e)
	right := correctOption(t, item)
	wrong := wrongOption(t, item)

	first, _ := e.answers.Submit(player.AccessToken, item.ID, &right, "")
	second, err := e.answers.Submit(player.AccessToken, item.ID, &wrong, "")
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("resubmission must replace in place: %d vs %d", second.ID, first.ID)
	}

	var count int64
	e.db.Model(&models.LiveAnswer{}).
		Where("session_id = ? AND player_id = ? AND quiz_item_id = ?", session.ID, player.ID, item.ID).
		Count(&count)
	if count != 1 {
		t.Fatalf("one answer per (player, item) expected, found %d", count)
	}
}

func TestSubmitRejectedAfterLock(t *testing.T) {
	e := newEnv(t)
	session, player, item := playingSession(t, e)
	optID := correctOption(t, item)

	e.answers.Submit(player.AccessToken, item.ID, &optID, "")
	e.progression.LockItem(session.ID, testHostID)

	wrong := wrongOption(t, item)
	_, err := e.answers.Submit(player.AccessToken, item.ID, &wrong, "")
	var closed PhaseClosedError
	if !errors.As(err, &closed) {
		t.Fatalf("expected PhaseClosedError after lock, got %v", err)
	}

	// The stored answer is untouched.
	var stored models.LiveAnswer
	e.db.Where("session_id = ? AND player_id = ?", session.ID, player.ID).First(&stored)
	if stored.OptionID == nil || *stored.OptionID != optID {
		t.Fatal("late submission must not replace the stored answer")
	}
}

func TestSubmitRejectedForWrongItem(t *testing.T) {
	e := newEnv(t)
	_, player, item := playingSession(t, e)
	optID := correctOption(t, item)

	_, err := e.answers.Submit(player.AccessToken, item.ID+999, &optID, "")
	var closed PhaseClosedError
	if !errors.As(err, &closed) {
		t.Fatalf("expected PhaseClosedError for a non-current item, got %v", err)
	}
}

func TestSubmitRejectedWhenSessionNotActive(t *testing.T) {
	e := newEnv(t)
	session, player, item := playingSession(t, e)
	e.sessions.Transition(session.ID, testHostID, models.SessionStatusPaused)

	optID := correctOption(t, item)
	_, err := e.answers.Submit(player.AccessToken, item.ID, &optID, "")
	var closed PhaseClosedError
	if !errors.As(err, &closed) {
		t.Fatalf("expected PhaseClosedError while paused, got %v", err)
	}
}

func TestSubmitUnknownToken(t *testing.T) {
	e := newEnv(t)
	_, _, item := playingSession(t, e)
	optID := correctOption(t, item)

	_, err := e.answers.Submit("nope", item.ID, &optID, "")
	var invalid TokenInvalidError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected TokenInvalidError, got %v", err)
	}
}

func TestRevealFinalizesScores(t *testing.T) {
	e := newEnv(t)
	session, player, item := playingSession(t, e)
	right := correctOption(t, item)

	e.answers.Submit(player.AccessToken, item.ID, &right, "")
	e.progression.LockItem(session.ID, testHostID)
	if _, err := e.progression.RevealAnswers(session.ID, testHostID); err != nil {
		t.Fatalf("reveal: %v", err)
	}

	var answer models.LiveAnswer
	e.db.Where("session_id = ? AND player_id = ?", session.ID, player.ID).First(&answer)
	if answer.Score < item.Points/2 || answer.Score > item.Points {
		t.Fatalf("correct answer score %d outside [%d, %d]", answer.Score, item.Points/2, item.Points)
	}
}

func TestRevealScoresIncorrectAsZero(t *testing.T) {
	e := newEnv(t)
	session, player, item := playingSession(t, e)
	wrong := wrongOption(t, item)

	e.answers.Submit(player.AccessToken, item.ID, &wrong, "")
	e.progression.LockItem(session.ID, testHostID)
	e.progression.RevealAnswers(session.ID, testHostID)

	var answer models.LiveAnswer
	e.db.Where("session_id = ? AND player_id = ?", session.ID, player.ID).First(&answer)
	if answer.Score != 0 {
		t.Fatalf("incorrect answer must score 0, got %d", answer.Score)
	}
}

func TestOverrideCorrectsAnswer(t *testing.T) {
	e := newEnv(t)
	session, player, item := playingSession(t, e)
	wrong := wrongOption(t, item)

	answer, _ := e.answers.Submit(player.AccessToken, item.ID, &wrong, "")
	e.progression.LockItem(session.ID, testHostID)
	e.progression.RevealAnswers(session.ID, testHostID)

	correct := true
	score := 75
	updated, err := e.answers.Override(answer.ID, testHostID, &correct, &score)
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	_ = updated

	var stored models.LiveAnswer
	e.db.First(&stored, answer.ID)
	if stored.IsCorrect == nil || !*stored.IsCorrect || stored.Score != 75 {
		t.Fatalf("override not applied: %+v", stored)
	}

	// The override is visible in the leaderboard.
	entries, _ := e.board.Standings(session.ID)
	if len(entries) != 1 || entries[0].TotalScore != 75 {
		t.Fatalf("leaderboard must reflect the override, got %+v", entries)
	}
}

func TestRevealPreservesEarlierOverride(t *testing.T) {
	e := newEnv(t)
	session, player, item := playingSession(t, e)
	wrong := wrongOption(t, item)

	answer, _ := e.answers.Submit(player.AccessToken, item.ID, &wrong, "")
	e.progression.LockItem(session.ID, testHostID)

	// Host corrects the answer before reveal. The scoring pass would give a
	// correct answer at least half points, so 40 only survives if the pass
	// skips the row.
	correct := true
	score := 40
	if _, err := e.answers.Override(answer.ID, testHostID, &correct, &score); err != nil {
		t.Fatalf("override: %v", err)
	}
	if _, err := e.progression.RevealAnswers(session.ID, testHostID); err != nil {
		t.Fatalf("reveal: %v", err)
	}

	var stored models.LiveAnswer
	e.db.First(&stored, answer.ID)
	if stored.Score != 40 {
		t.Fatalf("reveal must not recompute an overridden score, got %d", stored.Score)
	}
	if !stored.Overridden {
		t.Fatal("override must mark the row")
	}
}

func TestResubmissionClearsOverrideMark(t *testing.T) {
	e := newEnv(t)
	_, player, item := playingSession(t, e)
	right := correctOption(t, item)
	wrong := wrongOption(t, item)

	answer, _ := e.answers.Submit(player.AccessToken, item.ID, &wrong, "")
	score := 10
	e.answers.Override(answer.ID, testHostID, nil, &score)

	// The player changes their mind while the item is still open; the new
	// submission supersedes the correction.
	resubmitted, err := e.answers.Submit(player.AccessToken, item.ID, &right, "")
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}

	var stored models.LiveAnswer
	e.db.First(&stored, resubmitted.ID)
	if stored.Overridden {
		t.Fatal("a fresh submission must clear the override mark")
	}
}

func TestOverrideClampsNegativeScore(t *testing.T) {
	e := newEnv(t)
	_, player, item := playingSession(t, e)
	optID := correctOption(t, item)
	answer, _ := e.answers.Submit(player.AccessToken, item.ID, &optID, "")

	score := -10
	e.answers.Override(answer.ID, testHostID, nil, &score)

	var stored models.LiveAnswer
	e.db.First(&stored, answer.ID)
	if stored.Score != 0 {
		t.Fatalf("negative override must clamp to 0, got %d", stored.Score)
	}
}

func TestOverrideForbiddenForNonHost(t *testing.T) {
	e := newEnv(t)
	_, player, item := playingSession(t, e)
	optID := correctOption(t, item)
	answer, _ := e.answers.Submit(player.AccessToken, item.ID, &optID, "")

	_, err := e.answers.Override(answer.ID, 42, nil, nil)
	var forbidden ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected ForbiddenError, got %v", err)
	}
}

func TestDeleteAnswer(t *testing.T) {
	e := newEnv(t)
	_, player, item := playingSession(t, e)
	optID := correctOption(t, item)
	answer, _ := e.answers.Submit(player.AccessToken, item.ID, &optID, "")

	if err := e.answers.Delete(answer.ID, testHostID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var count int64
	e.db.Model(&models.LiveAnswer{}).Where("id = ?", answer.ID).Count(&count)
	if count != 0 {
		t.Fatal("answer must be gone")
	}
}

func TestRecordMinigameScoreAccumulates(t *testing.T) {
	e := newEnv(t)
	session := startedSession(t, e)
	player, _ := e.identity.JoinByCode(session.Code, "ada", "")

	if err := e.answers.RecordMinigameScore(session.ID, player.ID, 50); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := e.answers.RecordMinigameScore(session.ID, player.ID, 30); err != nil {
		t.Fatalf("record again: %v", err)
	}

	entries, _ := e.board.Standings(session.ID)
	if len(entries) != 1 || entries[0].TotalScore != 80 {
		t.Fatalf("expected total 80, got %+v", entries)
	}
}

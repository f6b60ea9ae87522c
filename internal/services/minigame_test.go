package services

import (
	"errors"
	"testing"
	"time"

	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/models"
	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/swanchase"
)

func newMinigameEnv(t *testing.T) (*env, *MinigameService) {
	t.Helper()
	e := newEnv(t)
	return e, NewMinigameService(e.hub, e.registry, e.sessions, e.answers, e.board, 20)
}

func quickSettings() swanchase.Settings {
	s := swanchase.DefaultSettings()
	s.Seed = 1
	s.Countdown = time.Hour // never leaves countdown during a test
	return s
}

func TestStartMinigameRequiresActiveSession(t *testing.T) {
	e, m := newMinigameEnv(t)
	quizID := seedQuiz(t, e.db)
	session, _ := e.sessions.CreateSession(quizID, testHostID)

	err := m.Start(session.ID, testHostID, quickSettings())
	var invalid InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError in lobby, got %v", err)
	}
}

func TestStartMinigameHostOnly(t *testing.T) {
	e, m := newMinigameEnv(t)
	session := startedSession(t, e)

	err := m.Start(session.ID, 42, quickSettings())
	var forbidden ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected ForbiddenError, got %v", err)
	}
}

func TestStartMinigameRefusesWhileRunning(t *testing.T) {
	e, m := newMinigameEnv(t)
	session := startedSession(t, e)
	e.identity.JoinByCode(session.Code, "ada", "")

	if err := m.Start(session.ID, testHostID, quickSettings()); err != nil {
		t.Fatalf("first start: %v", err)
	}
	defer m.Stop(session.ID, testHostID)

	err := m.Start(session.ID, testHostID, quickSettings())
	var invalid InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("second start must be refused, got %v", err)
	}
}

func TestStartMinigameReplacesEndedGame(t *testing.T) {
	e, m := newMinigameEnv(t)
	session := startedSession(t, e)
	e.identity.JoinByCode(session.Code, "ada", "")

	if err := m.Start(session.ID, testHostID, quickSettings()); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if err := m.Stop(session.ID, testHostID); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if err := m.Start(session.ID, testHostID, quickSettings()); err != nil {
		t.Fatalf("restart after end must build a fresh game: %v", err)
	}
	m.Stop(session.ID, testHostID)
}

func TestStopMinigameIdempotent(t *testing.T) {
	e, m := newMinigameEnv(t)
	session := startedSession(t, e)

	// No game yet: still fine.
	if err := m.Stop(session.ID, testHostID); err != nil {
		t.Fatalf("stop without game: %v", err)
	}

	m.Start(session.ID, testHostID, quickSettings())
	if err := m.Stop(session.ID, testHostID); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := m.Stop(session.ID, testHostID); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}

func TestHandleMoveWithoutGameIsHarmless(t *testing.T) {
	e, m := newMinigameEnv(t)
	session := startedSession(t, e)

	// Must not panic or create state.
	m.HandleMove(session.ID, 1, 0.5, 1)
	m.HandleAbility(session.ID, 1, "dash")
}

func TestStartAddsActivePlayers(t *testing.T) {
	e, m := newMinigameEnv(t)
	session := startedSession(t, e)
	ada, _ := e.identity.JoinByCode(session.Code, "ada", "")
	gone, _ := e.identity.JoinByCode(session.Code, "gone", "")
	e.identity.Leave(gone.AccessToken)

	if err := m.Start(session.ID, testHostID, quickSettings()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop(session.ID, testHostID)

	game := e.registry.Get(session.ID).Game()
	if _, ok := game.PlayerSnapshot(ada.ID); !ok {
		t.Fatal("active player missing from the game")
	}
	if _, ok := game.PlayerSnapshot(gone.ID); ok {
		t.Fatal("left player must not be added to the game")
	}
}

func TestFinishFoldsPlacementsIntoScores(t *testing.T) {
	e, m := newMinigameEnv(t)
	session := startedSession(t, e)
	ada, _ := e.identity.JoinByCode(session.Code, "ada", "")
	ben, _ := e.identity.JoinByCode(session.Code, "ben", "")

	m.finish(session.ID, []swanchase.Result{
		{PlayerID: ben.ID, Name: "ben", Status: swanchase.PlayerSafe, Placement: 1},
		{PlayerID: ada.ID, Name: "ada", Status: swanchase.PlayerTagged, Placement: 2},
	})

	entries, _ := e.board.Standings(session.ID)
	byName := make(map[string]int, len(entries))
	for _, entry := range entries {
		byName[entry.Name] = entry.TotalScore
	}
	if byName["ben"] != 50 {
		t.Fatalf("first place should bank 50, got %d", byName["ben"])
	}
	if byName["ada"] != 40 {
		t.Fatalf("second place should bank 40, got %d", byName["ada"])
	}
}

func TestFinishFloorsPlacementPoints(t *testing.T) {
	e, m := newMinigameEnv(t)
	session := startedSession(t, e)
	player, _ := e.identity.JoinByCode(session.Code, "ada", "")

	m.finish(session.ID, []swanchase.Result{
		{PlayerID: player.ID, Name: "ada", Status: swanchase.PlayerEliminated, Placement: 9},
	})

	entries, _ := e.board.Standings(session.ID)
	if len(entries) != 1 || entries[0].TotalScore != 10 {
		t.Fatalf("deep placements floor at 10 points, got %+v", entries)
	}
}

func TestEndedSessionStopsGameViaRegistryDrop(t *testing.T) {
	e, m := newMinigameEnv(t)
	session := startedSession(t, e)
	e.identity.JoinByCode(session.Code, "ada", "")

	m.Start(session.ID, testHostID, quickSettings())
	game := e.registry.Get(session.ID).Game()

	e.sessions.Transition(session.ID, testHostID, models.SessionStatusEnded)

	if game.Status() != swanchase.StatusEnded {
		t.Fatalf("ending the session must stop the game, got %s", game.Status())
	}
}

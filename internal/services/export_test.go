package services

import (
	"errors"
	"testing"
)

func TestExportResultsTable(t *testing.T) {
	e := newEnv(t)
	session, player, item := playingSession(t, e)
	right := correctOption(t, item)

	e.answers.Submit(player.AccessToken, item.ID, &right, "")
	e.progression.LockItem(session.ID, testHostID)
	e.progression.RevealAnswers(session.ID, testHostID)

	rows, err := e.export.Results(session.ID, testHostID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	row := rows[0]
	if row.Rank != 1 || row.Name != "ada" {
		t.Fatalf("unexpected row head: %+v", row)
	}
	// One cell per item, answered or not.
	if len(row.Cells) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(row.Cells))
	}

	answered := row.Cells[0]
	if answered.AnswerText != "right" {
		t.Fatalf("expected the option text, got %q", answered.AnswerText)
	}
	if answered.IsCorrect == nil || !*answered.IsCorrect {
		t.Fatal("answered cell must carry correctness")
	}
	if answered.Points <= 0 {
		t.Fatalf("answered cell must carry the score, got %d", answered.Points)
	}

	empty := row.Cells[1]
	if empty.AnswerText != "" || empty.IsCorrect != nil || empty.Points != 0 {
		t.Fatalf("unanswered cell must be blank, got %+v", empty)
	}
}

func TestExportDeterministicAcrossCalls(t *testing.T) {
	e := newEnv(t)
	session, player, item := playingSession(t, e)
	right := correctOption(t, item)
	e.answers.Submit(player.AccessToken, item.ID, &right, "")
	e.progression.LockItem(session.ID, testHostID)
	e.progression.RevealAnswers(session.ID, testHostID)

	a, _ := e.export.Results(session.ID, testHostID)
	b, _ := e.export.Results(session.ID, testHostID)
	if len(a) != len(b) {
		t.Fatal("row counts differ across identical exports")
	}
	for i := range a {
		if a[i].PlayerID != b[i].PlayerID || a[i].TotalScore != b[i].TotalScore {
			t.Fatal("export order or totals differ across identical exports")
		}
	}
}

func TestExportForbiddenForNonHost(t *testing.T) {
	e := newEnv(t)
	session := startedSession(t, e)

	_, err := e.export.Results(session.ID, 42)
	var forbidden ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected ForbiddenError, got %v", err)
	}
}

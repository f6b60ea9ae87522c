package services

import (
	"testing"

	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/models"
	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/ws"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// One pooled connection, or every new connection sees its own empty
	// in-memory database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&models.Host{},
		&models.Quiz{},
		&models.QuizRound{},
		&models.QuizItem{},
		&models.QuizOption{},
		&models.LiveSession{},
		&models.LivePlayer{},
		&models.LiveAnswer{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// env bundles the wired engine for tests. Everything shares one in-memory
// database and one hub with no sockets attached.
type env struct {
	db          *gorm.DB
	hub         *ws.Hub
	registry    *Registry
	board       *LeaderboardService
	sessions    *SessionService
	identity    *IdentityService
	scoring     *ScoringService
	answers     *AnswerService
	progression *ProgressionService
	audio       *AudioRouter
	export      *ExportService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := newTestDB(t)
	hub := ws.NewHub()
	registry := NewRegistry()
	board := NewLeaderboardService(db)
	sessions := NewSessionService(db, hub, registry, board)
	identity := NewIdentityService(db, hub, sessions, "test-salt")
	scoring := NewScoringService(nil)
	answers := NewAnswerService(db, hub, registry, sessions, scoring, board)
	progression := NewProgressionService(hub, registry, sessions, answers, board)
	return &env{
		db:          db,
		hub:         hub,
		registry:    registry,
		board:       board,
		sessions:    sessions,
		identity:    identity,
		scoring:     scoring,
		answers:     answers,
		progression: progression,
		audio:       NewAudioRouter(hub, registry),
		export:      NewExportService(db, sessions, board),
	}
}

const testHostID = 1

// seedQuiz creates a host and a two-item quiz, returning the quiz id.
func seedQuiz(t *testing.T, db *gorm.DB) uint {
	t.Helper()

	host := models.Host{ID: testHostID, Username: "host", PasswordHash: "x"}
	if err := db.Create(&host).Error; err != nil {
		t.Fatalf("seed host: %v", err)
	}

	quiz := models.Quiz{HostID: testHostID, Title: "General Knowledge", Version: 1}
	if err := db.Create(&quiz).Error; err != nil {
		t.Fatalf("seed quiz: %v", err)
	}

	round := models.QuizRound{QuizID: quiz.ID, Title: "Round 1", OrderNum: 1}
	if err := db.Create(&round).Error; err != nil {
		t.Fatalf("seed round: %v", err)
	}

	for i := 1; i <= 2; i++ {
		item := models.QuizItem{
			RoundID:      round.ID,
			QuizID:       quiz.ID,
			QuestionText: "question",
			TimeLimitMs:  20000,
			Points:       100,
			OrderNum:     i,
		}
		if err := db.Create(&item).Error; err != nil {
			t.Fatalf("seed item: %v", err)
		}
		options := []models.QuizOption{
			{ItemID: item.ID, Text: "right", IsCorrect: true},
			{ItemID: item.ID, Text: "wrong", IsCorrect: false},
		}
		if err := db.Create(&options).Error; err != nil {
			t.Fatalf("seed options: %v", err)
		}
	}
	return quiz.ID
}

// startedSession creates a session and drives it into ACTIVE.
func startedSession(t *testing.T, e *env) *models.LiveSession {
	t.Helper()
	quizID := seedQuiz(t, e.db)
	session, err := e.sessions.CreateSession(quizID, testHostID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	session, err = e.sessions.Transition(session.ID, testHostID, models.SessionStatusActive)
	if err != nil {
		t.Fatalf("activate session: %v", err)
	}
	return session
}

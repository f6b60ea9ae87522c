package services

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/models"
	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/ws"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// allowedEdges is the closed session state machine. ARCHIVED is handled
// separately: it is reachable from any non-ENDED state via the stale-quiz
// guard or an explicit archive. ENDED is only reachable from play; a host
// cancelling a lobby archives it instead.
var allowedEdges = map[models.SessionStatus][]models.SessionStatus{
	models.SessionStatusLobby:  {models.SessionStatusActive},
	models.SessionStatusActive: {models.SessionStatusPaused, models.SessionStatusEnded},
	models.SessionStatusPaused: {models.SessionStatusActive, models.SessionStatusEnded},
}

func edgeAllowed(from, to models.SessionStatus) bool {
	if to == models.SessionStatusArchived {
		return from != models.SessionStatusEnded
	}
	for _, next := range allowedEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

type SessionService struct {
	db       *gorm.DB
	hub      *ws.Hub
	registry *Registry
	board    *LeaderboardService
}

func NewSessionService(db *gorm.DB, hub *ws.Hub, registry *Registry, board *LeaderboardService) *SessionService {
	return &SessionService{db: db, hub: hub, registry: registry, board: board}
}

// CreateSession opens a lobby for a quiz and snapshots the quiz version so
// later edits to the definition can be detected.
func (s *SessionService) CreateSession(quizID, hostID uint) (*models.LiveSession, error) {
	var quiz models.Quiz
	if err := s.db.Where("id = ? AND host_id = ?", quizID, hostID).First(&quiz).Error; err != nil {
		return nil, SessionNotFoundError{}
	}

	items := s.orderedItems(quizID)
	if len(items) == 0 {
		return nil, errors.New("quiz must have at least one item")
	}

	session := models.LiveSession{
		PublicID:    uuid.NewString(),
		QuizID:      quizID,
		QuizVersion: quiz.Version,
		HostID:      hostID,
		Code:        s.generateUniqueCode(),
		Status:      models.SessionStatusLobby,
	}
	if err := s.db.Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// orderedItems flattens rounds → items in play order.
func (s *SessionService) orderedItems(quizID uint) []models.QuizItem {
	var rounds []models.QuizRound
	s.db.Where("quiz_id = ?", quizID).
		Order("order_num ASC").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_num ASC")
		}).
		Preload("Items.Options").
		Find(&rounds)

	var items []models.QuizItem
	for _, r := range rounds {
		items = append(items, r.Items...)
	}
	return items
}

func (s *SessionService) GetByCode(code string) (*models.LiveSession, error) {
	var session models.LiveSession
	if err := s.db.Where("code = ? AND status NOT IN ?", code,
		[]models.SessionStatus{models.SessionStatusEnded, models.SessionStatusArchived}).
		First(&session).Error; err != nil {
		return nil, SessionNotFoundError{Code: code}
	}
	return &session, nil
}

func (s *SessionService) GetByID(sessionID uint) (*models.LiveSession, error) {
	var session models.LiveSession
	if err := s.db.First(&session, sessionID).Error; err != nil {
		return nil, SessionNotFoundError{}
	}
	return &session, nil
}

// ActivePlayers returns the session's current (not left) participants.
func (s *SessionService) ActivePlayers(sessionID uint) []models.LivePlayer {
	var players []models.LivePlayer
	s.db.Where("session_id = ? AND left_at IS NULL", sessionID).
		Order("joined_at ASC").
		Find(&players)
	return players
}

// Transition moves the session along one allowed edge. Only the host may
// request it; re-requesting ENDED is a no-op, every other disallowed edge
// is an InvalidTransitionError. The status write is an optimistic
// compare-and-update on the expected current status, so two racing host
// requests cannot both win.
func (s *SessionService) Transition(sessionID, hostID uint, target models.SessionStatus) (*models.LiveSession, error) {
	session, err := s.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session.HostID != hostID {
		return nil, ForbiddenError{Reason: "only the host may change session state"}
	}

	if session.Status == target && target == models.SessionStatusEnded {
		return session, nil
	}
	if session.Status.Terminal() {
		return nil, SessionTerminalError{Status: string(session.Status)}
	}
	if !edgeAllowed(session.Status, target) {
		return nil, InvalidTransitionError{From: string(session.Status), To: string(target)}
	}

	updates := map[string]interface{}{"status": target}
	now := time.Now()
	if target == models.SessionStatusActive && session.StartedAt == nil {
		updates["started_at"] = now
	}
	if target == models.SessionStatusEnded {
		updates["ended_at"] = now
	}

	res := s.db.Model(&models.LiveSession{}).
		Where("id = ? AND status = ?", sessionID, session.Status).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the race; re-read and re-evaluate once.
		return s.Transition(sessionID, hostID, target)
	}

	if target == models.SessionStatusActive && session.StartedAt == nil {
		s.loadItemSnapshot(sessionID, session.QuizID)
	}

	session, err = s.GetByID(sessionID)
	if err != nil {
		return nil, err
	}

	s.hub.Broadcast(sessionID, ws.WSMessage{
		Type: ws.EventSessionStatusChanged,
		Data: map[string]interface{}{"status": session.Status, "ended_at": session.EndedAt},
	})

	if target.Terminal() {
		if s.board != nil && target == models.SessionStatusEnded {
			if entries, err := s.board.Standings(sessionID); err == nil {
				s.hub.Broadcast(sessionID, ws.WSMessage{Type: ws.EventLeaderboardUpdate, Data: entries})
			}
		}
		s.registry.Drop(sessionID)
	}
	return session, nil
}

// loadItemSnapshot pins the ordered item list into the runtime when play
// begins. The session plays this snapshot even if the quiz is edited later;
// the stale guard archives the session instead of mutating the list.
func (s *SessionService) loadItemSnapshot(sessionID, quizID uint) {
	rt := s.registry.Get(sessionID)
	items := s.orderedItems(quizID)
	rt.mu.Lock()
	rt.items = items
	rt.prog = ProgressionState{Phase: PhaseIdle}
	rt.mu.Unlock()
}

// ArchiveIfStale archives the session when the underlying quiz definition
// changed after the session's snapshot was taken, so players can never
// answer questions that no longer exist. Returns true when it archived.
func (s *SessionService) ArchiveIfStale(sessionID uint) (bool, error) {
	session, err := s.GetByID(sessionID)
	if err != nil {
		return false, err
	}
	if session.Status.Terminal() {
		return false, nil
	}

	var quiz models.Quiz
	if err := s.db.First(&quiz, session.QuizID).Error; err != nil || quiz.Version != session.QuizVersion {
		res := s.db.Model(&models.LiveSession{}).
			Where("id = ? AND status NOT IN ?", sessionID,
				[]models.SessionStatus{models.SessionStatusEnded, models.SessionStatusArchived}).
			Update("status", models.SessionStatusArchived)
		if res.Error != nil {
			return false, res.Error
		}
		if res.RowsAffected > 0 {
			s.hub.Broadcast(sessionID, ws.WSMessage{
				Type: ws.EventSessionStatusChanged,
				Data: map[string]interface{}{"status": models.SessionStatusArchived},
			})
			s.registry.Drop(sessionID)
			return true, nil
		}
	}
	return false, nil
}

func (s *SessionService) generateUniqueCode() string {
	for {
		code := fmt.Sprintf("%06d", rand.Intn(1000000))
		var count int64
		s.db.Model(&models.LiveSession{}).
			Where("code = ? AND status NOT IN ?", code,
				[]models.SessionStatus{models.SessionStatusEnded, models.SessionStatusArchived}).
			Count(&count)
		if count == 0 {
			return code
		}
	}
}

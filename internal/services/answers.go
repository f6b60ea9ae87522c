package services

import (
	"log/slog"
	"time"

	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/models"
	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/ws"

	"gorm.io/gorm"
)

// AnswerService owns the one-answer-per-(player,item) invariant and the
// scoring pass at reveal time.
type AnswerService struct {
	db       *gorm.DB
	hub      *ws.Hub
	registry *Registry
	sessions *SessionService
	scoring  *ScoringService
	board    *LeaderboardService
}

func NewAnswerService(db *gorm.DB, hub *ws.Hub, registry *Registry, sessions *SessionService, scoring *ScoringService, board *LeaderboardService) *AnswerService {
	return &AnswerService{db: db, hub: hub, registry: registry, sessions: sessions, scoring: scoring, board: board}
}

// Submit records an answer for the current item. While the item is STARTED
// a resubmission replaces the earlier one (players may change their mind
// before lock); once LOCKED or REVEALED everything is rejected and the
// stored answer is left untouched.
func (s *AnswerService) Submit(accessToken string, itemID uint, optionID *uint, payload string) (*models.LiveAnswer, error) {
	var player models.LivePlayer
	if err := s.db.Where("access_token = ?", accessToken).First(&player).Error; err != nil {
		return nil, TokenInvalidError{}
	}

	session, err := s.sessions.GetByID(player.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionStatusActive {
		return nil, PhaseClosedError{Phase: string(session.Status)}
	}

	rt := s.registry.Get(session.ID)
	rt.mu.Lock()
	item, ok := currentItemLocked(rt)
	if !ok || item.ID != itemID || rt.prog.Phase != PhaseStarted {
		phase := rt.prog.Phase
		rt.mu.Unlock()
		return nil, PhaseClosedError{Phase: string(phase)}
	}
	elapsed := time.Since(rt.prog.PhaseStartedAt).Milliseconds()
	options := item.Options
	rt.mu.Unlock()

	var isCorrect *bool
	if optionID != nil {
		correct := false
		known := false
		for _, o := range options {
			if o.ID == *optionID {
				correct = o.IsCorrect
				known = true
				break
			}
		}
		if !known {
			return nil, PhaseClosedError{Phase: "invalid option for current item"}
		}
		isCorrect = &correct
	}

	answer := models.LiveAnswer{
		SessionID:  session.ID,
		PlayerID:   player.ID,
		QuizItemID: itemID,
		OptionID:   optionID,
		Payload:    payload,
		IsCorrect:  isCorrect,
		ElapsedMs:  elapsed,
		AnsweredAt: time.Now(),
	}

	var existing models.LiveAnswer
	err = s.db.Where("session_id = ? AND player_id = ? AND quiz_item_id = ?",
		session.ID, player.ID, itemID).First(&existing).Error
	if err == nil {
		answer.ID = existing.ID
		if err := s.db.Save(&answer).Error; err != nil {
			return nil, err
		}
	} else if err := s.db.Create(&answer).Error; err != nil {
		return nil, err
	}

	s.broadcastCount(session.ID, itemID)
	return &answer, nil
}

func (s *AnswerService) broadcastCount(sessionID, itemID uint) {
	var count int64
	s.db.Model(&models.LiveAnswer{}).
		Where("session_id = ? AND quiz_item_id = ?", sessionID, itemID).
		Count(&count)
	s.hub.Broadcast(sessionID, ws.WSMessage{
		Type: ws.EventAnswerCountUpdated,
		Data: map[string]interface{}{"item_id": itemID, "count": count},
	})
}

// FinalizeItem writes scores for every answer on the item in one
// transaction. Answers a host already overrode keep their override. A
// storage failure here is retried once; the in-memory phase is not rolled
// back — the store only needs duplicate-safe upserts.
func (s *AnswerService) FinalizeItem(sessionID uint, item *models.QuizItem) error {
	finalize := func() error {
		var answers []models.LiveAnswer
		if err := s.db.Where("session_id = ? AND quiz_item_id = ?", sessionID, item.ID).
			Find(&answers).Error; err != nil {
			return err
		}

		tx := s.db.Begin()
		for _, a := range answers {
			if a.Overridden {
				continue
			}
			correct := a.IsCorrect != nil && *a.IsCorrect
			score := s.scoring.Score(correct, a.ElapsedMs, item.TimeLimitMs, item.Points)
			if err := tx.Model(&models.LiveAnswer{}).Where("id = ?", a.ID).
				Update("score", score).Error; err != nil {
				tx.Rollback()
				return err
			}
		}
		return tx.Commit().Error
	}

	if err := finalize(); err != nil {
		slog.Warn("scoring persistence failed, retrying once", "session_id", sessionID, "item_id", item.ID, "err", err)
		return finalize()
	}
	return nil
}

// RecordMinigameScore folds a minigame placement into the session's scores
// as an answer row keyed to item 0 (no quiz item). Repeated games
// accumulate.
func (s *AnswerService) RecordMinigameScore(sessionID, playerID uint, points int) error {
	var existing models.LiveAnswer
	err := s.db.Where("session_id = ? AND player_id = ? AND quiz_item_id = 0",
		sessionID, playerID).First(&existing).Error
	if err == nil {
		return s.db.Model(&existing).Update("score", gorm.Expr("score + ?", points)).Error
	}

	answer := models.LiveAnswer{
		SessionID:  sessionID,
		PlayerID:   playerID,
		QuizItemID: 0,
		Payload:    "minigame",
		Score:      points,
		AnsweredAt: time.Now(),
	}
	return s.db.Create(&answer).Error
}

// Override lets the host correct an answer after the fact: set correctness
// and/or score directly. No phase restriction applies; the leaderboard is a
// derived view, so nothing else needs recomputing here. The row is marked
// overridden so the scoring pass at reveal leaves it alone; a fresh
// submission before lock clears the mark along with the rest of the row.
func (s *AnswerService) Override(answerID, hostID uint, isCorrect *bool, score *int) (*models.LiveAnswer, error) {
	answer, err := s.hostAnswer(answerID, hostID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if isCorrect != nil {
		updates["is_correct"] = *isCorrect
	}
	if score != nil {
		v := *score
		if v < 0 {
			v = 0
		}
		updates["score"] = v
	}
	if len(updates) > 0 {
		updates["overridden"] = true
		if err := s.db.Model(answer).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	if entries, err := s.board.Standings(answer.SessionID); err == nil {
		s.hub.Broadcast(answer.SessionID, ws.WSMessage{Type: ws.EventLeaderboardUpdate, Data: entries})
	}
	return answer, nil
}

// Delete removes an answer entirely; scoring treats it as never submitted.
func (s *AnswerService) Delete(answerID, hostID uint) error {
	answer, err := s.hostAnswer(answerID, hostID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(&models.LiveAnswer{}, answer.ID).Error; err != nil {
		return err
	}
	s.broadcastCount(answer.SessionID, answer.QuizItemID)
	return nil
}

func (s *AnswerService) hostAnswer(answerID, hostID uint) (*models.LiveAnswer, error) {
	var answer models.LiveAnswer
	if err := s.db.First(&answer, answerID).Error; err != nil {
		return nil, PlayerNotFoundError{}
	}
	session, err := s.sessions.GetByID(answer.SessionID)
	if err != nil {
		return nil, err
	}
	if session.HostID != hostID {
		return nil, ForbiddenError{Reason: "only the host may correct answers"}
	}
	return &answer, nil
}

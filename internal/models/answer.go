package models

import "time"

// LiveAnswer holds one submission per (session, player, item). The unique
// index backs the engine-level invariant; resubmission while the item is
// still open replaces the row in place.
type LiveAnswer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SessionID  uint      `gorm:"not null;uniqueIndex:idx_live_answer_unique" json:"session_id"`
	PlayerID   uint      `gorm:"not null;uniqueIndex:idx_live_answer_unique" json:"player_id"`
	QuizItemID uint      `gorm:"not null;uniqueIndex:idx_live_answer_unique" json:"quiz_item_id"`
	OptionID   *uint     `json:"option_id,omitempty"`
	Payload    string    `gorm:"type:text" json:"payload,omitempty"`
	IsCorrect  *bool     `json:"is_correct,omitempty"`
	Score      int       `gorm:"not null;default:0" json:"score"`
	Overridden bool      `gorm:"not null;default:false" json:"overridden"`
	ElapsedMs  int64     `gorm:"not null;default:0" json:"elapsed_ms"`
	AnsweredAt time.Time `json:"answered_at"`
}

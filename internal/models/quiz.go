package models

import "time"

// Quiz is the definition a live session is played from. Version bumps on
// every edit; a running session snapshots the version it was created with
// so the engine can detect stale definitions and archive the session.
type Quiz struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	HostID    uint        `gorm:"not null;index" json:"host_id"`
	Host      Host        `gorm:"foreignKey:HostID;constraint:OnDelete:CASCADE" json:"-"`
	Title     string      `gorm:"size:255;not null" json:"title"`
	Version   int         `gorm:"not null;default:1" json:"version"`
	Rounds    []QuizRound `gorm:"foreignKey:QuizID" json:"rounds,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type QuizRound struct {
	ID       uint       `gorm:"primaryKey" json:"id"`
	QuizID   uint       `gorm:"not null;index" json:"quiz_id"`
	Title    string     `gorm:"size:255" json:"title"`
	OrderNum int        `gorm:"not null" json:"order_num"`
	Items    []QuizItem `gorm:"foreignKey:RoundID" json:"items,omitempty"`
}

// QuizItem is immutable while a session runs; editing the source quiz does
// not change a running session's item list except through the stale-quiz
// archive guard.
type QuizItem struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	RoundID      uint         `gorm:"not null;index" json:"round_id"`
	QuizID       uint         `gorm:"not null;index" json:"quiz_id"`
	QuestionText string       `gorm:"type:text;not null" json:"question_text"`
	TimeLimitMs  int          `gorm:"not null;default:20000" json:"time_limit_ms"`
	Points       int          `gorm:"not null;default:100" json:"points"`
	OrderNum     int          `gorm:"not null" json:"order_num"`
	Options      []QuizOption `gorm:"foreignKey:ItemID" json:"options,omitempty"`
}

type QuizOption struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ItemID    uint   `gorm:"not null;index" json:"item_id"`
	Text      string `gorm:"type:text;not null" json:"text"`
	IsCorrect bool   `gorm:"not null" json:"is_correct"`
}

package models

import "time"

type SessionStatus string

const (
	SessionStatusLobby    SessionStatus = "lobby"
	SessionStatusActive   SessionStatus = "active"
	SessionStatusPaused   SessionStatus = "paused"
	SessionStatusEnded    SessionStatus = "ended"
	SessionStatusArchived SessionStatus = "archived"
)

// Terminal reports whether no further transitions are possible.
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusEnded || s == SessionStatusArchived
}

type LiveSession struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	PublicID    string        `gorm:"size:36;uniqueIndex" json:"public_id"`
	QuizID      uint          `gorm:"not null;index" json:"quiz_id"`
	Quiz        Quiz          `gorm:"foreignKey:QuizID" json:"quiz,omitempty"`
	QuizVersion int           `gorm:"not null" json:"quiz_version"`
	HostID      uint          `gorm:"not null;index" json:"host_id"`
	Code        string        `gorm:"size:6;index" json:"code"`
	Status      SessionStatus `gorm:"size:20;not null;default:'lobby'" json:"status"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	EndedAt     *time.Time    `json:"ended_at,omitempty"`
	Players     []LivePlayer  `gorm:"foreignKey:SessionID" json:"players,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

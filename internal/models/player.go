package models

import "time"

// LivePlayer is one participant's identity within a session. The row is
// never deleted on leave so recorded answers stay attributable; LeftAt
// marks departure instead.
type LivePlayer struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	SessionID    uint       `gorm:"not null;index" json:"session_id"`
	Name         string     `gorm:"size:100;not null" json:"name"`
	Avatar       string     `gorm:"size:100" json:"avatar,omitempty"`
	DeviceIDHash *string    `gorm:"size:64;index" json:"-"`
	AccessToken  string     `gorm:"size:36;uniqueIndex" json:"-"`
	JoinedAt     time.Time  `json:"joined_at"`
	LastActiveAt time.Time  `json:"last_active_at"`
	LeftAt       *time.Time `json:"left_at,omitempty"`
}

// Active reports whether the player currently participates.
func (p *LivePlayer) Active() bool {
	return p.LeftAt == nil
}

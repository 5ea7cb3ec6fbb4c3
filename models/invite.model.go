package models

import (
	"time"
)

// InviteLink binds a random token to a room. Lookups never consume it.
type InviteLink struct {
	ID        uint       `gorm:"primaryKey" json:"-"`
	Token     string     `gorm:"size:64;not null;uniqueIndex" json:"token"`
	RoomID    string     `gorm:"size:191;not null;index" json:"roomId"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Expired reports whether an explicit expiry has passed. Links without
// ExpiresAt never expire.
func (l *InviteLink) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

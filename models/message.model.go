package models

import (
	"time"
)

type MessageKind string

const (
	KindUser MessageKind = "USER"
	KindAI   MessageKind = "AI"
)

// DeletedPlaceholder replaces the text of a soft-deleted message.
const DeletedPlaceholder = "[Message deleted]"

type Message struct {
	ID       string      `gorm:"primaryKey;size:36" json:"id"`
	RoomID   string      `gorm:"size:191;not null;index:idx_room_created" json:"roomId"`
	UserID   string      `gorm:"size:191;not null;index" json:"userId"` // sole edit/delete authority
	Username string      `gorm:"size:100" json:"username"`
	Text     string      `gorm:"type:text;not null" json:"text"`
	Kind     MessageKind `gorm:"size:8;not null;default:'USER'" json:"kind"`

	CreatedAt time.Time  `gorm:"index:idx_room_created" json:"createdAt"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"` // plain column, rows are never hidden
	IsDeleted bool       `gorm:"not null;default:false" json:"isDeleted"`

	Reactions []MessageReaction `gorm:"foreignKey:MessageID" json:"reactions"`
}

type MessageReaction struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	MessageID string `gorm:"size:36;not null;uniqueIndex:idx_reaction" json:"-"`
	UserID    string `gorm:"size:191;not null;uniqueIndex:idx_reaction" json:"userId"`
	Emoji     string `gorm:"size:32;not null;uniqueIndex:idx_reaction" json:"emoji"`
	Username  string `gorm:"size:100" json:"username"`
}

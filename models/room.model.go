package models

import (
	"time"
)

// RoomTemplate selects the system-prompt framing applied to a room.
type RoomTemplate string

const (
	TemplateTravelPlanning RoomTemplate = "TRAVEL_PLANNING"
	TemplateLiveTrip       RoomTemplate = "LIVE_TRIP"
	TemplateFlightTracking RoomTemplate = "FLIGHT_TRACKING"
	TemplateFoodDiscovery  RoomTemplate = "FOOD_DISCOVERY"
	TemplateGeneral        RoomTemplate = "GENERAL"
)

// DefaultTemplate is used when a room is created implicitly.
const DefaultTemplate = TemplateTravelPlanning

func (t RoomTemplate) Valid() bool {
	switch t {
	case TemplateTravelPlanning, TemplateLiveTrip, TemplateFlightTracking, TemplateFoodDiscovery, TemplateGeneral:
		return true
	}
	return false
}

type Room struct {
	ID       uint         `gorm:"primaryKey" json:"-"`
	RoomID   string       `gorm:"size:191;not null;uniqueIndex" json:"roomId"`
	Template RoomTemplate `gorm:"size:32;not null;default:'TRAVEL_PLANNING'" json:"template"` // immutable after creation

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type RoomMember struct {
	ID       uint      `gorm:"primaryKey" json:"-"`
	RoomID   string    `gorm:"size:191;not null;uniqueIndex:idx_room_member" json:"roomId"`
	UserID   string    `gorm:"size:191;not null;uniqueIndex:idx_room_member" json:"userId"`
	Username string    `gorm:"size:100" json:"username"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joinedAt"`
}

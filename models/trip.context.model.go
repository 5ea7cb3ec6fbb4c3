package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// TripContextData is the structured trip document. Every field is optional;
// pointers keep absent fields absent when the document is echoed back.
type TripContextData struct {
	Destination *string   `json:"destination,omitempty"`
	StartDate   *string   `json:"startDate,omitempty"`
	EndDate     *string   `json:"endDate,omitempty"`
	Travelers   *int      `json:"travelers,omitempty" validate:"omitempty,gt=0"`
	BudgetRange *string   `json:"budgetRange,omitempty"`
	Interests   *[]string `json:"interests,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
}

// TripContext is a single mutable document per room, replaced on every write.
type TripContext struct {
	ID        uint                                `gorm:"primaryKey" json:"-"`
	RoomID    string                              `gorm:"size:191;not null;uniqueIndex" json:"roomId"`
	Data      datatypes.JSONType[TripContextData] `json:"data"`
	UpdatedAt time.Time                           `json:"updatedAt"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (d TripContextData) DestinationText() string { return strings.TrimSpace(deref(d.Destination)) }
func (d TripContextData) StartDateText() string   { return deref(d.StartDate) }
func (d TripContextData) EndDateText() string     { return deref(d.EndDate) }
func (d TripContextData) BudgetText() string      { return deref(d.BudgetRange) }
func (d TripContextData) NotesText() string       { return deref(d.Notes) }

func (d TripContextData) TravelerCount() int {
	if d.Travelers == nil {
		return 0
	}
	return *d.Travelers
}

func (d TripContextData) InterestList() []string {
	if d.Interests == nil {
		return nil
	}
	return *d.Interests
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Devhypertech/aigroupgepanda/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormTripContextRepository struct {
	db *gorm.DB
}

func NewGormTripContextRepository(db *gorm.DB) *GormTripContextRepository {
	return &GormTripContextRepository{db: db}
}

func (r *GormTripContextRepository) Get(ctx context.Context, roomID string) (*models.TripContext, error) {
	var tc models.TripContext
	if err := r.db.WithContext(ctx).Where("room_id = ?", roomID).First(&tc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tc, nil
}

func (r *GormTripContextRepository) Upsert(ctx context.Context, roomID string, data models.TripContextData) (*models.TripContext, error) {
	tc := models.TripContext{
		RoomID:    roomID,
		Data:      datatypes.NewJSONType(data),
		UpdatedAt: time.Now(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&tc).Error
	if err != nil {
		return nil, err
	}
	return &tc, nil
}

// NewGormStore wires every repository onto one database handle.
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Backend:      "database",
		Rooms:        NewGormRoomRepository(db),
		Messages:     NewGormMessageRepository(db),
		Invites:      NewGormInviteRepository(db),
		TripContexts: NewGormTripContextRepository(db),
	}
}

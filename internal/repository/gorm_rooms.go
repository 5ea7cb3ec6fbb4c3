package repository

import (
	"context"
	"errors"

	"github.com/Devhypertech/aigroupgepanda/internal/apperr"
	"github.com/Devhypertech/aigroupgepanda/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormRoomRepository struct {
	db *gorm.DB
}

func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	return &GormRoomRepository{db: db}
}

func (r *GormRoomRepository) GetOrCreate(ctx context.Context, roomID string, template models.RoomTemplate) (*models.Room, error) {
	if !template.Valid() {
		template = models.DefaultTemplate
	}
	candidate := models.Room{RoomID: roomID, Template: template}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "room_id"}}, DoNothing: true}).
		Create(&candidate).Error; err != nil {
		return nil, err
	}
	return r.Find(ctx, roomID)
}

func (r *GormRoomRepository) Find(ctx context.Context, roomID string) (*models.Room, error) {
	var room models.Room
	if err := r.db.WithContext(ctx).Where("room_id = ?", roomID).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("room", roomID)
		}
		return nil, err
	}
	return &room, nil
}

func (r *GormRoomRepository) AddMember(ctx context.Context, roomID, userID, username string) error {
	if _, err := r.Find(ctx, roomID); err != nil {
		return err
	}
	member := models.RoomMember{RoomID: roomID, UserID: userID, Username: username}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&member).Error
}

func (r *GormRoomRepository) Members(ctx context.Context, roomID string) ([]models.RoomMember, error) {
	var members []models.RoomMember
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

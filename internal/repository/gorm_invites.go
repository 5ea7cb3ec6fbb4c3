package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Devhypertech/aigroupgepanda/internal/apperr"
	"github.com/Devhypertech/aigroupgepanda/models"

	"gorm.io/gorm"
)

type GormInviteRepository struct {
	db *gorm.DB
}

func NewGormInviteRepository(db *gorm.DB) *GormInviteRepository {
	return &GormInviteRepository{db: db}
}

func (r *GormInviteRepository) Create(ctx context.Context, roomID string, expiresAt *time.Time) (*models.InviteLink, error) {
	token, err := NewToken()
	if err != nil {
		return nil, err
	}
	link := models.InviteLink{Token: token, RoomID: roomID, ExpiresAt: expiresAt}
	if err := r.db.WithContext(ctx).Create(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *GormInviteRepository) Resolve(ctx context.Context, token string) (string, error) {
	var link models.InviteLink
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.NotFound("invite", "")
		}
		return "", err
	}
	if link.Expired(time.Now()) {
		return "", apperr.NotFound("invite", "")
	}
	return link.RoomID, nil
}

// Cleanup only removes links whose explicit expiry has passed; durable
// invites without ExpiresAt are kept regardless of age.
func (r *GormInviteRepository) Cleanup(ctx context.Context, _ time.Duration) (int, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", time.Now()).
		Delete(&models.InviteLink{})
	return int(res.RowsAffected), res.Error
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Devhypertech/aigroupgepanda/internal/apperr"
	"github.com/Devhypertech/aigroupgepanda/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) Create(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Kind == "" {
		msg.Kind = models.KindUser
	}
	return r.db.WithContext(ctx).Omit("Reactions").Create(msg).Error
}

func (r *GormMessageRepository) Get(ctx context.Context, messageID string) (*models.Message, error) {
	return r.get(r.db.WithContext(ctx), messageID)
}

func (r *GormMessageRepository) get(db *gorm.DB, messageID string) (*models.Message, error) {
	var msg models.Message
	if err := db.Preload("Reactions").Where("id = ?", messageID).First(&msg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("message", messageID)
		}
		return nil, err
	}
	return &msg, nil
}

func (r *GormMessageRepository) ListByRoom(ctx context.Context, roomID string, limit int, beforeID string) ([]models.Message, error) {
	db := r.db.WithContext(ctx)
	query := db.Preload("Reactions").Where("room_id = ? AND is_deleted = ?", roomID, false)

	if beforeID != "" {
		var before models.Message
		if err := db.Select("created_at").Where("id = ?", beforeID).First(&before).Error; err == nil {
			query = query.Where("created_at < ?", before.CreatedAt)
		}
	}

	var messages []models.Message
	err := query.Order("created_at DESC").Limit(clampLimit(limit)).Find(&messages).Error
	return messages, err
}

// loadOwned fetches a message inside tx and checks that userID authored it.
func loadOwned(tx *gorm.DB, messageID, userID, action string) (*models.Message, error) {
	var msg models.Message
	if err := tx.Where("id = ?", messageID).First(&msg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("message", messageID)
		}
		return nil, err
	}
	if msg.UserID != userID {
		return nil, apperr.Forbidden("not authorized to " + action + " this message")
	}
	return &msg, nil
}

func (r *GormMessageRepository) Edit(ctx context.Context, messageID, userID, text string) (*models.Message, error) {
	var updated *models.Message
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		msg, err := loadOwned(tx, messageID, userID, "edit")
		if err != nil {
			return err
		}
		if msg.IsDeleted {
			return apperr.Validation("cannot edit deleted message")
		}
		now := time.Now()
		if err := tx.Model(&models.Message{}).Where("id = ?", messageID).
			Updates(map[string]interface{}{"text": text, "edited_at": now}).Error; err != nil {
			return err
		}
		updated, err = r.get(tx, messageID)
		return err
	})
	return updated, err
}

func (r *GormMessageRepository) Delete(ctx context.Context, messageID, userID string) (*models.Message, error) {
	var deleted *models.Message
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadOwned(tx, messageID, userID, "delete"); err != nil {
			return err
		}
		now := time.Now()
		if err := tx.Model(&models.Message{}).Where("id = ?", messageID).
			Updates(map[string]interface{}{
				"is_deleted": true,
				"deleted_at": now,
				"text":       models.DeletedPlaceholder,
			}).Error; err != nil {
			return err
		}
		var err error
		deleted, err = r.get(tx, messageID)
		return err
	})
	return deleted, err
}

func (r *GormMessageRepository) AddReaction(ctx context.Context, reaction models.MessageReaction) error {
	db := r.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Message{}).Where("id = ?", reaction.MessageID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperr.NotFound("message", reaction.MessageID)
	}
	reaction.ID = 0
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}, {Name: "emoji"}},
		DoNothing: true,
	}).Create(&reaction).Error
}

func (r *GormMessageRepository) RemoveReaction(ctx context.Context, messageID, userID, emoji string) error {
	return r.db.WithContext(ctx).
		Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
		Delete(&models.MessageReaction{}).Error
}

func (r *GormMessageRepository) Reactions(ctx context.Context, messageID string) ([]models.MessageReaction, error) {
	var reactions []models.MessageReaction
	err := r.db.WithContext(ctx).Where("message_id = ?", messageID).Order("id ASC").Find(&reactions).Error
	return reactions, err
}

package config

import (
	"github.com/Devhypertech/aigroupgepanda/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func schema() []interface{} {
	return []interface{}{
		&models.Room{},
		&models.RoomMember{},
		&models.Message{},
		&models.MessageReaction{},
		&models.InviteLink{},
		&models.TripContext{},
	}
}

func Migrate(db *gorm.DB, log *zap.SugaredLogger) error {
	if err := db.AutoMigrate(schema()...); err != nil {
		log.Errorw("failed to migrate database schema", "error", err)
		return err
	}
	log.Info("database migrations completed")
	return nil
}

// ResetAndMigrate drops every table before migrating. Development only.
func ResetAndMigrate(db *gorm.DB, log *zap.SugaredLogger) error {
	if err := db.Migrator().DropTable(schema()...); err != nil {
		log.Errorw("failed to drop tables", "error", err)
		return err
	}
	log.Info("all tables dropped")
	return Migrate(db, log)
}

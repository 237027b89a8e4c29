package repository

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noteduco342/OMMessenger-sync/internal/models"
)

// InitDB opens the local sync database. path is a filesystem location, or
// ":memory:" for tests.
func InitDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// Auto-migrate models
	if err := db.AutoMigrate(
		&models.Message{},
		&models.Conversation{},
	); err != nil {
		return nil, err
	}

	return db, nil
}

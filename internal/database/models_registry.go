package database

import (
	"charitydesk/internal/models"

	"gorm.io/gorm"
)

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Order matters for AutoMigrate: referenced tables come first.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.ContentItem{},
		&models.Attachment{},
		&models.Comment{},
		&models.Like{},
		&models.Bank{},
		&models.ContactMessage{},
		&models.Donation{},
	}
}

// AutoMigrate creates or updates every persistent table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

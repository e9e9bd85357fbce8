package repository

import (
	"testing"

	"charitydesk/internal/database"
	"charitydesk/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupTestDB returns a fresh in-memory SQLite database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// setupMockDB returns a Postgres-dialect GORM handle backed by sqlmock.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

func createUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	u := &models.User{Name: email, Email: email, Password: "hash", Role: role}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createItem(t *testing.T, db *gorm.DB, kind models.ContentKind, title string, archived bool, authorID *uint) *models.ContentItem {
	t.Helper()
	item := &models.ContentItem{Kind: kind, Title: title, Body: "Body of " + title, AuthorID: authorID}
	require.NoError(t, db.Create(item).Error)
	if archived {
		require.NoError(t, db.Model(item).Update("archived", true).Error)
		item.Archived = true
	}
	return item
}

package service

import (
	"testing"
	"time"

	"charitydesk/internal/access"
	"charitydesk/internal/cache"
	"charitydesk/internal/database"
	"charitydesk/internal/models"
	"charitydesk/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err), "expected validation error, got %v", err)
}

func assertDenied(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, models.CodeForbidden, models.ErrorCode(err), "expected denied, got %v", err)
}

func assertNotFound(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err), "expected not found, got %v", err)
}

// fieldErrors returns the per-field map of a validation error.
func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Fields
}

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

func setupContentCache(t *testing.T) (*cache.ContentCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.NewContentCache(rdb), mr
}

// stack wires every service to one SQLite database.
type stack struct {
	db           *gorm.DB
	news         *NewsService
	stories      *StoryService
	interactions *InteractionService
	users        *UserService
	backOffice   *BackOfficeService
}

func newStack(t *testing.T, c *cache.ContentCache) *stack {
	t.Helper()
	db := setupTestDB(t)
	content := repository.NewContentRepository(db)
	users := NewUserService(repository.NewUserRepository(db))
	users.bcryptCost = 4
	return &stack{
		db:      db,
		news:    NewNewsService(content, c),
		stories: NewStoryService(content, c),
		interactions: NewInteractionService(
			repository.NewCommentRepository(db),
			repository.NewLikeRepository(db),
			content,
			c,
		),
		users: users,
		backOffice: NewBackOfficeService(
			repository.NewBankRepository(db),
			repository.NewContactRepository(db),
			repository.NewDonationRepository(db),
		),
	}
}

// principal creates a user with the given role and returns its principal.
func (s *stack) principal(t *testing.T, email string, role access.Role, verified bool) access.Principal {
	t.Helper()
	u := &models.User{Name: email, Email: email, Password: "hash", Role: role.String()}
	require.NoError(t, s.db.Create(u).Error)
	if verified {
		require.NoError(t, s.db.Model(u).Update("email_verified_at", time.Now()).Error)
		require.NoError(t, s.db.First(u, u.ID).Error)
	}
	return access.PrincipalFor(u)
}

// cast creates a verified editor, a verified admin and an unverified guest.
func (s *stack) cast(t *testing.T) (editor, admin, guest access.Principal) {
	t.Helper()
	editor = s.principal(t, "editor@charity.test", access.RoleEditor, true)
	admin = s.principal(t, "admin@charity.test", access.RoleAdmin, true)
	guest = s.principal(t, "guest@charity.test", access.RoleGuest, false)
	return editor, admin, guest
}

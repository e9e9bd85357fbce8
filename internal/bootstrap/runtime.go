// Package bootstrap initializes the runtime dependencies shared by the
// server and the command-line tools.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"charitydesk/internal/cache"
	"charitydesk/internal/config"
	"charitydesk/internal/database"
	"charitydesk/internal/middleware"
	"charitydesk/internal/models"
	"charitydesk/internal/validation"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const defaultRootEmail = "root@charitydesk.local"

// Options control runtime initialization behavior.
type Options struct {
	// SkipSchema leaves the schema untouched, for tools that manage it themselves.
	SkipSchema bool
	// SkipRedis leaves the Redis client nil.
	SkipRedis bool
}

// InitRuntime connects to the database, applies the schema, connects Redis
// (a nil client when unreachable) and ensures the development root admin.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if !opts.SkipSchema {
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return nil, nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	var r *redis.Client
	if !opts.SkipRedis {
		cache.InitRedis(cfg.RedisURL)
		r = cache.GetClient()
	}

	if err := ensureDevRootAdmin(ctx, cfg, db, bcrypt.DefaultCost); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development root admin: %w", err)
	}

	return db, r, nil
}

// ensureDevRootAdmin creates or re-elevates the development root admin.
// It only runs with APP_ENV=development and DEV_BOOTSTRAP_ROOT enabled.
func ensureDevRootAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB, cost int) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapRoot {
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(cfg.DevRootEmail))
	if email == "" {
		email = defaultRootEmail
	}
	password := cfg.DevRootPassword
	if password == "" {
		return errors.New("DEV_ROOT_PASSWORD must be set when DEV_BOOTSTRAP_ROOT is enabled")
	}
	if err := validation.ValidatePassword(password); err != nil {
		return fmt.Errorf("DEV_ROOT_PASSWORD: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return fmt.Errorf("hash root password: %w", err)
	}

	now := time.Now()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var root models.User
		findErr := tx.Where("email = ?", email).Take(&root).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			root = models.User{
				Name:            "Root Admin",
				Email:           email,
				Password:        string(hashedPassword),
				Role:            models.RoleNameAdmin,
				EmailVerifiedAt: &now,
			}
			return tx.Create(&root).Error
		case findErr != nil:
			return findErr
		default:
			updates := map[string]interface{}{"role": models.RoleNameAdmin}
			if root.EmailVerifiedAt == nil {
				updates["email_verified_at"] = now
			}
			return tx.Model(&models.User{}).Where("id = ?", root.ID).Updates(updates).Error
		}
	})
	if err != nil {
		return err
	}

	middleware.Logger.InfoContext(ctx, "development root admin ensured", slog.String("email", email))
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"charitydesk/internal/database"
	"charitydesk/internal/models"

	"gorm.io/gorm"
)

// UserFilter narrows a user listing.
type UserFilter struct {
	Role   string
	Query  string
	Limit  int
	Offset int
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	List(ctx context.Context, filter UserFilter) ([]models.User, int64, error)
	ListStaff(ctx context.Context) ([]models.User, error)
	UpdateRole(ctx context.Context, id uint, role string) error
	MarkEmailVerified(ctx context.Context, id uint, at time.Time) error
	UpdateProfile(ctx context.Context, id uint, updates map[string]interface{}) error
	DeleteOrphaning(ctx context.Context, id uint) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func notFoundUser(err error, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError("User", id)
	}
	return fmt.Errorf("load user %v: %w", id, err)
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Take(&user, id).Error; err != nil {
		return nil, notFoundUser(err, id)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	email = strings.ToLower(strings.TrimSpace(email))
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error; err != nil {
		return nil, notFoundUser(err, email)
	}
	return &user, nil
}

func (r *userRepository) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if token == "" {
		return nil, models.NewNotFoundError("Verification token", "")
	}
	if err := r.db.WithContext(ctx).Where("verification_token = ?", token).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Verification token", token)
		}
		return nil, fmt.Errorf("load user by token: %w", err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Role == "" {
		user.Role = models.RoleNameGuest
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return models.NewConflictError("Email is already registered")
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if s := strings.ToLower(strings.TrimSpace(filter.Query)); s != "" {
		like := "%" + s + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	var users []models.User
	if err := q.Order("id ASC").Limit(filter.Limit).Offset(filter.Offset).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

func (r *userRepository) ListStaff(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("role IN ?", []string{models.RoleNameAdmin, models.RoleNameEditor}).
		Order("role ASC, id ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return users, nil
}

func (r *userRepository) update(ctx context.Context, id uint, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.User{ID: id}).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

func (r *userRepository) UpdateRole(ctx context.Context, id uint, role string) error {
	return r.update(ctx, id, map[string]interface{}{"role": role})
}

func (r *userRepository) MarkEmailVerified(ctx context.Context, id uint, at time.Time) error {
	return r.update(ctx, id, map[string]interface{}{
		"email_verified_at":  at,
		"verification_token": "",
	})
}

func (r *userRepository) UpdateProfile(ctx context.Context, id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.update(ctx, id, updates)
}

// DeleteOrphaning deletes the user. Content and comments they authored stay
// with author_id cleared; their likes are removed.
func (r *userRepository) DeleteOrphaning(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").Take(&user, id).Error; err != nil {
			return notFoundUser(err, id)
		}

		if err := tx.Model(&models.ContentItem{}).Where("author_id = ?", id).Update("author_id", nil).Error; err != nil {
			return fmt.Errorf("orphan content of user %d: %w", id, err)
		}
		if err := tx.Model(&models.Comment{}).Where("author_id = ?", id).Update("author_id", nil).Error; err != nil {
			return fmt.Errorf("orphan comments of user %d: %w", id, err)
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return fmt.Errorf("remove likes of user %d: %w", id, err)
		}
		if err := tx.Delete(&models.User{}, id).Error; err != nil {
			return fmt.Errorf("delete user %d: %w", id, err)
		}
		return nil
	})
}

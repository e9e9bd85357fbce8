package repository

import (
	"context"
	"errors"
	"fmt"

	"charitydesk/internal/database"
	"charitydesk/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	CreateOnActive(ctx context.Context, kind models.ContentKind, comment *models.Comment) error
	ListByItem(ctx context.Context, itemID uint, limit, offset int) ([]*models.Comment, int64, error)
	DeleteFromItem(ctx context.Context, kind models.ContentKind, itemID, commentID uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// CreateOnActive appends comment if its item exists and is active. An item
// deleted between the check and the insert surfaces as NotFound through the
// foreign key.
func (r *commentRepository) CreateOnActive(ctx context.Context, kind models.ContentKind, comment *models.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActive(tx, kind, comment.ContentItemID); err != nil {
			return err
		}
		if err := tx.Create(comment).Error; err != nil {
			if database.IsForeignKeyViolation(err) {
				return models.NewNotFoundError(kind.Label(), comment.ContentItemID)
			}
			return fmt.Errorf("create comment: %w", err)
		}
		if err := tx.Scopes(models.PreloadAuthor).Take(comment, comment.ID).Error; err != nil {
			return fmt.Errorf("reload comment %d: %w", comment.ID, err)
		}
		return nil
	})
}

func (r *commentRepository) ListByItem(ctx context.Context, itemID uint, limit, offset int) ([]*models.Comment, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("content_item_id = ?", itemID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Scopes(models.PreloadAuthor).
		Where("content_item_id = ?", itemID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	return comments, total, nil
}

// DeleteFromItem removes commentID only if it belongs to itemID. A comment on
// another item is reported as NotFound and left untouched.
func (r *commentRepository) DeleteFromItem(ctx context.Context, kind models.ContentKind, itemID, commentID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadItem(tx, kind, itemID); err != nil {
			return err
		}

		var comment models.Comment
		if err := tx.Select("id", "content_item_id").Take(&comment, commentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Comment", commentID)
			}
			return fmt.Errorf("load comment %d: %w", commentID, err)
		}
		if comment.ContentItemID != itemID {
			return models.NewNotFoundError("Comment", commentID)
		}

		if err := tx.Delete(&models.Comment{}, commentID).Error; err != nil {
			return fmt.Errorf("delete comment %d: %w", commentID, err)
		}
		return nil
	})
}

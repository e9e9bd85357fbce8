package repository

import (
	"context"
	"fmt"

	"charitydesk/internal/database"
	"charitydesk/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository defines persistence operations for likes.
type LikeRepository interface {
	Toggle(ctx context.Context, kind models.ContentKind, itemID, userID uint, emoji string) (*models.LikeResult, error)
	Count(ctx context.Context, itemID uint) (int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// Toggle removes the user's like if one exists, otherwise inserts one. The
// insert relies on the (content_item_id, author_id) unique index: when a
// concurrent toggle wins the race the insert is a no-op and the result is
// still Liked, flagged ConflictIgnored.
func (r *likeRepository) Toggle(ctx context.Context, kind models.ContentKind, itemID, userID uint, emoji string) (*models.LikeResult, error) {
	result := &models.LikeResult{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActive(tx, kind, itemID); err != nil {
			return err
		}

		del := tx.Where("content_item_id = ? AND author_id = ?", itemID, userID).Delete(&models.Like{})
		if del.Error != nil {
			return fmt.Errorf("remove like: %w", del.Error)
		}

		if del.RowsAffected > 0 {
			result.State = models.LikeStateUnliked
		} else {
			like := models.Like{ContentItemID: itemID, AuthorID: userID, Emoji: emoji}
			ins := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "content_item_id"}, {Name: "author_id"}},
				DoNothing: true,
			}).Create(&like)
			if ins.Error != nil {
				if database.IsForeignKeyViolation(ins.Error) {
					return models.NewNotFoundError(kind.Label(), itemID)
				}
				return fmt.Errorf("insert like: %w", ins.Error)
			}
			result.State = models.LikeStateLiked
			result.ConflictIgnored = ins.RowsAffected == 0
		}

		return tx.Model(&models.Like{}).Where("content_item_id = ?", itemID).Count(&result.Count).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *likeRepository) Count(ctx context.Context, itemID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where("content_item_id = ?", itemID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return n, nil
}

// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"fmt"

	"charitydesk/internal/models"

	"gorm.io/gorm"
)

// ContentRepository defines persistence operations for news and stories.
type ContentRepository interface {
	Create(ctx context.Context, item *models.ContentItem) error
	GetByID(ctx context.Context, scope Scope, id uint, viewerID uint) (*models.ContentItem, error)
	List(ctx context.Context, filter ContentFilter, viewerID uint) ([]*models.ContentItem, int64, error)
	Update(ctx context.Context, kind models.ContentKind, id uint, title, body string, attachments []models.Attachment) error
	SetArchived(ctx context.Context, kind models.ContentKind, id uint, archived bool) (changed bool, err error)
	Delete(ctx context.Context, kind models.ContentKind, id uint) error
}

type contentRepository struct {
	db *gorm.DB
}

// NewContentRepository creates a new content repository
func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

func (r *contentRepository) Create(ctx context.Context, item *models.ContentItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("create %s: %w", item.Kind, err)
	}
	return nil
}

// withDetails selects the computed counts and the viewer's liked flag.
func withDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "content_items.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.content_item_id = content_items.id) AS comments_count, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.content_item_id = content_items.id) AS likes_count"

	if viewerID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.content_item_id = content_items.id AND likes.author_id = ?) AS liked", viewerID)
	}
	return db.Select(selectQuery + ", false AS liked")
}

func orderedAttachments(db *gorm.DB) *gorm.DB {
	return db.Order("display_order ASC, id ASC")
}

func (r *contentRepository) GetByID(ctx context.Context, scope Scope, id uint, viewerID uint) (*models.ContentItem, error) {
	clause, args, err := scope.where(id)
	if err != nil {
		return nil, fmt.Errorf("build scope: %w", err)
	}

	var item models.ContentItem
	err = withDetails(r.db.WithContext(ctx).Model(&models.ContentItem{}), viewerID).
		Scopes(models.PreloadAuthor).
		Preload("Attachments", orderedAttachments).
		Where(clause, args...).
		Take(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError(scope.Kind.Label(), id)
		}
		return nil, fmt.Errorf("get %s %d: %w", scope.Kind, id, err)
	}
	return &item, nil
}

func (r *contentRepository) List(ctx context.Context, filter ContentFilter, viewerID uint) ([]*models.ContentItem, int64, error) {
	clause, args, err := filter.where()
	if err != nil {
		return nil, 0, fmt.Errorf("build filter: %w", err)
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.ContentItem{}).Where(clause, args...).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", filter.Kind, err)
	}

	var items []*models.ContentItem
	err = withDetails(r.db.WithContext(ctx).Model(&models.ContentItem{}), viewerID).
		Scopes(models.PreloadAuthor).
		Preload("Attachments", orderedAttachments).
		Where(clause, args...).
		Order("content_items.created_at DESC, content_items.id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", filter.Kind, err)
	}
	return items, total, nil
}

// loadItem reads the item's kind and archive flag inside tx. Archived rows are returned too.
func loadItem(tx *gorm.DB, kind models.ContentKind, id uint) (*models.ContentItem, error) {
	var item models.ContentItem
	err := tx.Select("id", "kind", "archived").
		Where("id = ? AND kind = ?", id, string(kind)).
		Take(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError(kind.Label(), id)
		}
		return nil, fmt.Errorf("load %s %d: %w", kind, id, err)
	}
	return &item, nil
}

// requireActive fails NotFound unless the item exists and is not archived.
func requireActive(tx *gorm.DB, kind models.ContentKind, id uint) error {
	item, err := loadItem(tx, kind, id)
	if err != nil {
		return err
	}
	if item.Archived {
		return models.NewNotFoundError(kind.Label(), id)
	}
	return nil
}

func (r *contentRepository) Update(ctx context.Context, kind models.ContentKind, id uint, title, body string, attachments []models.Attachment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadItem(tx, kind, id); err != nil {
			return err
		}

		if err := tx.Model(&models.ContentItem{ID: id}).Updates(map[string]interface{}{
			"title": title,
			"body":  body,
		}).Error; err != nil {
			return fmt.Errorf("update %s %d: %w", kind, id, err)
		}

		if err := tx.Where("content_item_id = ?", id).Delete(&models.Attachment{}).Error; err != nil {
			return fmt.Errorf("clear attachments of %s %d: %w", kind, id, err)
		}
		if len(attachments) == 0 {
			return nil
		}
		for i := range attachments {
			attachments[i].ID = 0
			attachments[i].ContentItemID = id
		}
		if err := tx.Create(&attachments).Error; err != nil {
			return fmt.Errorf("replace attachments of %s %d: %w", kind, id, err)
		}
		return nil
	})
}

func (r *contentRepository) SetArchived(ctx context.Context, kind models.ContentKind, id uint, archived bool) (bool, error) {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := loadItem(tx, kind, id)
		if err != nil {
			return err
		}
		if item.Archived == archived {
			return nil
		}
		if err := tx.Model(&models.ContentItem{ID: id}).Update("archived", archived).Error; err != nil {
			return fmt.Errorf("set archived on %s %d: %w", kind, id, err)
		}
		changed = true
		return nil
	})
	return changed, err
}

// Delete removes the item with its likes, comments and attachments in one
// transaction. The foreign keys also cascade.
func (r *contentRepository) Delete(ctx context.Context, kind models.ContentKind, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadItem(tx, kind, id); err != nil {
			return err
		}
		for _, dep := range []interface{}{&models.Like{}, &models.Comment{}, &models.Attachment{}} {
			if err := tx.Where("content_item_id = ?", id).Delete(dep).Error; err != nil {
				return fmt.Errorf("delete dependents of %s %d: %w", kind, id, err)
			}
		}
		if err := tx.Delete(&models.ContentItem{}, id).Error; err != nil {
			return fmt.Errorf("delete %s %d: %w", kind, id, err)
		}
		return nil
	})
}

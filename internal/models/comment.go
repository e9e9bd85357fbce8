package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is an append-only remark on a content item.
type Comment struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	ContentItemID uint         `gorm:"not null;index" json:"content_item_id"`
	ContentItem   *ContentItem `gorm:"foreignKey:ContentItemID;constraint:OnDelete:CASCADE" json:"-"`
	// AuthorID is nil once the author account has been deleted.
	AuthorID  *uint     `gorm:"index" json:"author_id"`
	Author    *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL" json:"-"`
	Byline    *Byline   `gorm:"-" json:"author,omitempty"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// AfterFind exposes the preloaded author as a byline.
func (c *Comment) AfterFind(*gorm.DB) error {
	if c.Author != nil {
		c.Byline = BylineOf(c.Author)
	}
	return nil
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// ContentKind discriminates the two publishable entity kinds.
type ContentKind string

const (
	ContentKindNews  ContentKind = "news"
	ContentKindStory ContentKind = "story"
)

// Label returns a human-readable resource name for messages.
func (k ContentKind) Label() string {
	switch k {
	case ContentKindNews:
		return "News"
	case ContentKindStory:
		return "Story"
	default:
		return "Content"
	}
}

// ContentItem is a News post or a Story. Deletion is a hard delete that takes
// attachments, comments and likes with it; Archived is a separate visibility flag.
type ContentItem struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Kind        ContentKind  `gorm:"type:varchar(10);not null;index" json:"kind"`
	Title       string       `gorm:"type:varchar(255);not null" json:"title"`
	Body        string       `gorm:"type:text;not null" json:"body"`
	Archived    bool         `gorm:"not null;default:false;index" json:"archived"`
	AuthorID    *uint        `gorm:"index" json:"author_id"`
	Author      *User        `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL" json:"-"`
	Byline      *Byline      `gorm:"-" json:"author,omitempty"`
	Attachments []Attachment `gorm:"foreignKey:ContentItemID;constraint:OnDelete:CASCADE" json:"attachments"`
	// Computed at query time, never persisted.
	LikesCount    int64     `gorm:"->;-:migration" json:"likes_count"`
	CommentsCount int64     `gorm:"->;-:migration" json:"comments_count"`
	Liked         bool      `gorm:"->;-:migration" json:"liked"`
	Excerpt       string    `gorm:"-" json:"excerpt,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName pins the table shared by news and stories.
func (ContentItem) TableName() string {
	return "content_items"
}

// AfterFind exposes the preloaded author as a byline.
func (c *ContentItem) AfterFind(*gorm.DB) error {
	if c.Author != nil {
		c.Byline = BylineOf(c.Author)
	}
	return nil
}

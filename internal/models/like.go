package models

import "time"

// Like represents a user's like on a content item.
// The combination of ContentItemID and AuthorID must be unique.
type Like struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	ContentItemID uint         `gorm:"not null;uniqueIndex:idx_likes_item_author" json:"content_item_id"`
	AuthorID      uint         `gorm:"not null;uniqueIndex:idx_likes_item_author;index" json:"author_id"`
	Emoji         string       `gorm:"type:varchar(16)" json:"emoji,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	ContentItem   *ContentItem `gorm:"foreignKey:ContentItemID;constraint:OnDelete:CASCADE" json:"-"`
	Author        *User        `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
}

// LikeState is the outcome of a like toggle.
type LikeState string

const (
	LikeStateLiked   LikeState = "liked"
	LikeStateUnliked LikeState = "unliked"
)

// LikeResult reports the toggle outcome and the item's like count afterwards.
// ConflictIgnored is set when a concurrent toggle already inserted the row and
// this insert was discarded; the caller still sees Liked.
type LikeResult struct {
	State           LikeState `json:"state"`
	Count           int64     `json:"count"`
	ConflictIgnored bool      `json:"conflict_ignored,omitempty"`
}

package models

import "time"

// AttachmentKind is the media type of an attachment.
type AttachmentKind string

const (
	AttachmentKindImage AttachmentKind = "image"
	AttachmentKindVideo AttachmentKind = "video"
)

// Attachment is an image or video shown in a content item's carousel.
// Rendering order is (display_order, id).
type Attachment struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	ContentItemID uint           `gorm:"not null;index" json:"content_item_id"`
	Kind          AttachmentKind `gorm:"type:varchar(10);not null" json:"kind"`
	// URL is the image location, or the canonical embed URL for videos.
	URL          string    `gorm:"type:varchar(2048);not null" json:"url"`
	VideoID      string    `gorm:"type:varchar(11)" json:"video_id,omitempty"`
	DisplayOrder int       `gorm:"not null;default:0" json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

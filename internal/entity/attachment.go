package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// Attachment is an uploaded media file. It is created unattached by the
// upload endpoint and later claimed by a post or a comment; rows that stay
// orphaned are swept by the background cleanup job.
type Attachment struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null" json:"user_id"`
	PostID    *uuid.UUID `gorm:"type:uuid;index" json:"post_id,omitempty"`
	CommentID *uuid.UUID `gorm:"type:uuid;index" json:"comment_id,omitempty"`
	FileURL   string     `gorm:"type:text;not null" json:"file_url"`
	PublicID  string     `gorm:"size:255;not null" json:"-"`
	MediaType string     `gorm:"size:20;not null;default:image" json:"media_type"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Deletion actor tags for comments. The tag scopes later restore operations:
// a post-level restore only resurrects comments deleted by the post cascade,
// and an individual restore only follows descendants deleted for the same
// cause as the root.
const (
	CommentDeletedByUser      = "user"
	CommentDeletedByPost      = "post"
	CommentDeletedByPostOwner = "post_owner"
	CommentDeletedByAdmin     = "admin"
)

// Comment is a node in the per-post reply forest. ParentID == nil means a
// top-level comment. RepliesCount/HasReplies are denormalized and maintained
// on every create/soft-delete/restore; the invariant
// HasReplies == (RepliesCount > 0) must hold after every mutation.
type Comment struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	PostID       uuid.UUID   `gorm:"type:uuid;not null;index" json:"post_id"`
	Post         Post        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	UserID       uuid.UUID   `gorm:"type:uuid;not null" json:"user_id"`
	User         User        `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	ParentID     *uuid.UUID  `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Content      *string     `gorm:"type:text" json:"content"`
	Attachment   *Attachment `gorm:"foreignKey:CommentID" json:"attachment,omitempty"`
	Mentions     []User      `gorm:"many2many:comment_mentions;constraint:OnDelete:CASCADE" json:"mentions,omitempty"`
	RepliesCount int         `gorm:"not null;default:0" json:"replies_count"`
	HasReplies   bool        `gorm:"not null;default:false" json:"has_replies"`
	IsDeleted    bool        `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt    *time.Time  `json:"deleted_at,omitempty"`
	DeletedBy    *string     `gorm:"size:20" json:"deleted_by,omitempty"`
	CreatedAt    time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}

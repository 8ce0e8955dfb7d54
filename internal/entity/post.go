package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Deletion actor tags recorded when a post is soft deleted. Only comments
// track the wider set of cascade causes, posts are deleted by their owner
// or an admin.
const (
	PostDeletedByUser  = "user"
	PostDeletedByAdmin = "admin"
)

// Post is soft deleted by flipping IsDeleted, never via gorm's DeletedAt
// machinery: deleted posts stay queryable for the admin surface and for
// cascade bookkeeping.
type Post struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID    `gorm:"type:uuid;not null;index:idx_posts_user_created,priority:1" json:"user_id"`
	User        User         `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Content     *string      `gorm:"type:text" json:"content"`
	Attachments []Attachment `gorm:"foreignKey:PostID" json:"attachments,omitempty"`
	Mentions    []User       `gorm:"many2many:post_mentions;constraint:OnDelete:CASCADE" json:"mentions,omitempty"`
	IsDeleted   bool         `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt   *time.Time   `json:"deleted_at,omitempty"`
	DeletedBy   *string      `gorm:"size:20" json:"deleted_by,omitempty"`
	CreatedAt   time.Time    `gorm:"autoCreateTime;index:idx_posts_user_created,priority:2,sort:desc" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID, err = uuid.NewV7()
	}
	return
}

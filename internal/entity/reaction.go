package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reaction kinds. An empty kind in a request means the caller omitted it,
// which toggles/removes an existing reaction or adds the default like.
const (
	ReactionLike  = "like"
	ReactionLove  = "love"
	ReactionCare  = "care"
	ReactionHaha  = "haha"
	ReactionWow   = "wow"
	ReactionSad   = "sad"
	ReactionAngry = "angry"
)

const (
	ReactionRefPost    = "post"
	ReactionRefComment = "comment"
)

func ValidReactionKind(kind string) bool {
	switch kind {
	case ReactionLike, ReactionLove, ReactionCare, ReactionHaha, ReactionWow, ReactionSad, ReactionAngry:
		return true
	}
	return false
}

// Reaction is one user's reaction on a post or comment. The unique index
// enforces at most one record per (reference, user).
type Reaction struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reactions_unique,priority:3" json:"user_id"`
	User          User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ReferenceID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reactions_unique,priority:1;index:idx_reactions_lookup,priority:1" json:"reference_id"`
	ReferenceType string    `gorm:"size:20;not null;uniqueIndex:idx_reactions_unique,priority:2;index:idx_reactions_lookup,priority:2" json:"reference_type"`
	Kind          string    `gorm:"size:10;not null" json:"kind"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *Reaction) TableName() string {
	return "reactions"
}

func (r *Reaction) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID, err = uuid.NewV7()
	}
	return
}

package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
	FriendRequestRejected = "rejected"
)

type FriendRequest struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SenderID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_friend_requests_pair,priority:1" json:"sender_id"`
	Sender     User      `gorm:"constraint:OnDelete:CASCADE" json:"sender,omitempty"`
	ReceiverID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_friend_requests_pair,priority:2" json:"receiver_id"`
	Receiver   User      `gorm:"constraint:OnDelete:CASCADE" json:"receiver,omitempty"`
	Status     string    `gorm:"size:20;not null;default:pending" json:"status"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (f *FriendRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID, err = uuid.NewV7()
	}
	return
}

// Friendship is stored as two rows, one per direction, so listing a user's
// friends is a single indexed scan.
type Friendship struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_friendships_pair,priority:1" json:"user_id"`
	FriendID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_friendships_pair,priority:2" json:"friend_id"`
	Friend    User      `gorm:"constraint:OnDelete:CASCADE" json:"friend,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (f *Friendship) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID, err = uuid.NewV7()
	}
	return
}

type BlockedUser struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BlockerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_blocked_users_pair,priority:1" json:"blocker_id"`
	BlockedID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_blocked_users_pair,priority:2" json:"blocked_id"`
	Blocked   User      `gorm:"constraint:OnDelete:CASCADE" json:"blocked,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (b *BlockedUser) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID, err = uuid.NewV7()
	}
	return
}

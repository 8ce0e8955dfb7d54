package repository

import (
	"context"

	"sociafy/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FriendRepository interface {
	CreateRequest(ctx context.Context, request *entity.FriendRequest) error
	FindRequestByID(ctx context.Context, id uuid.UUID) (*entity.FriendRequest, error)
	FindPendingBetween(ctx context.Context, a, b uuid.UUID) (*entity.FriendRequest, error)
	UpdateRequestStatus(ctx context.Context, id uuid.UUID, status string) error
	DeleteRequest(ctx context.Context, id uuid.UUID) error
	ListIncomingPending(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.FriendRequest, error)
	CountIncomingPending(ctx context.Context, userID uuid.UUID) (int64, error)
	CreateFriendship(ctx context.Context, a, b uuid.UUID) error
	DeleteFriendship(ctx context.Context, a, b uuid.UUID) error
	AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error)
	ListFriends(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Friendship, error)
	CountFriends(ctx context.Context, userID uuid.UUID) (int64, error)
	Block(ctx context.Context, blockerID, blockedID uuid.UUID) error
	Unblock(ctx context.Context, blockerID, blockedID uuid.UUID) error
	IsBlockedEither(ctx context.Context, a, b uuid.UUID) (bool, error)
	ListBlocked(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.BlockedUser, error)
	SuggestUsers(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.User, error)
}

type friendRepository struct {
	db *gorm.DB
}

func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db}
}

func (r *friendRepository) CreateRequest(ctx context.Context, request *entity.FriendRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *friendRepository) FindRequestByID(ctx context.Context, id uuid.UUID) (*entity.FriendRequest, error) {
	var request entity.FriendRequest
	err := r.db.WithContext(ctx).
		Preload("Sender").Preload("Receiver").
		Where("id = ?", id).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *friendRepository) FindPendingBetween(ctx context.Context, a, b uuid.UUID) (*entity.FriendRequest, error) {
	var request entity.FriendRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", entity.FriendRequestPending).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *friendRepository) UpdateRequestStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).Model(&entity.FriendRequest{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *friendRepository) DeleteRequest(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.FriendRequest{}).Error
}

func (r *friendRepository) ListIncomingPending(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.FriendRequest, error) {
	var requests []*entity.FriendRequest
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("receiver_id = ? AND status = ?", userID, entity.FriendRequestPending).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&requests).Error
	return requests, err
}

func (r *friendRepository) CountIncomingPending(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.FriendRequest{}).
		Where("receiver_id = ? AND status = ?", userID, entity.FriendRequestPending).
		Count(&count).Error
	return count, err
}

// CreateFriendship writes both directions in one transaction so friend
// listings stay a single indexed scan per user.
func (r *friendRepository) CreateFriendship(ctx context.Context, a, b uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entity.Friendship{UserID: a, FriendID: b}).Error; err != nil {
			return err
		}
		return tx.Create(&entity.Friendship{UserID: b, FriendID: a}).Error
	})
}

func (r *friendRepository) DeleteFriendship(ctx context.Context, a, b uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", a, b, b, a).
		Delete(&entity.Friendship{}).Error
}

func (r *friendRepository) AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Friendship{}).
		Where("user_id = ? AND friend_id = ?", a, b).
		Count(&count).Error
	return count > 0, err
}

func (r *friendRepository) ListFriends(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Friendship, error) {
	var friendships []*entity.Friendship
	err := r.db.WithContext(ctx).
		Preload("Friend").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&friendships).Error
	return friendships, err
}

func (r *friendRepository) CountFriends(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Friendship{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// Block records the block and severs everything else between the pair:
// the friendship and any pending requests, in one transaction.
func (r *friendRepository) Block(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entity.BlockedUser{BlockerID: blockerID, BlockedID: blockedID}).Error; err != nil {
			return err
		}
		if err := tx.
			Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", blockerID, blockedID, blockedID, blockerID).
			Delete(&entity.Friendship{}).Error; err != nil {
			return err
		}
		return tx.
			Where("status = ?", entity.FriendRequestPending).
			Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", blockerID, blockedID, blockedID, blockerID).
			Delete(&entity.FriendRequest{}).Error
	})
}

func (r *friendRepository) Unblock(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&entity.BlockedUser{}).Error
}

func (r *friendRepository) IsBlockedEither(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.BlockedUser{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}

func (r *friendRepository) ListBlocked(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.BlockedUser, error) {
	var blocked []*entity.BlockedUser
	err := r.db.WithContext(ctx).
		Preload("Blocked").
		Where("blocker_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&blocked).Error
	return blocked, err
}

// SuggestUsers picks users the caller is not friends with and has no block
// relation with, newest accounts first.
func (r *friendRepository) SuggestUsers(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.User, error) {
	var users []*entity.User
	err := r.db.WithContext(ctx).
		Where("id <> ?", userID).
		Where("id NOT IN (?)", r.db.Model(&entity.Friendship{}).Select("friend_id").Where("user_id = ?", userID)).
		Where("id NOT IN (?)", r.db.Model(&entity.BlockedUser{}).Select("blocked_id").Where("blocker_id = ?", userID)).
		Where("id NOT IN (?)", r.db.Model(&entity.BlockedUser{}).Select("blocker_id").Where("blocked_id = ?", userID)).
		Order("created_at DESC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

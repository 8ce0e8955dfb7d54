package repository

import (
	"bytes"
	"context"
	"errors"
	"time"

	"sociafy/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatRepository interface {
	GetOrCreateConversation(ctx context.Context, a, b uuid.UUID) (*entity.Conversation, error)
	FindConversationByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error)
	ListConversations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Conversation, error)
	CountConversations(ctx context.Context, userID uuid.UUID) (int64, error)
	TouchConversation(ctx context.Context, id uuid.UUID) error
	CreateMessage(ctx context.Context, message *entity.Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*entity.Message, error)
	CountMessages(ctx context.Context, conversationID uuid.UUID) (int64, error)
	FindLastMessage(ctx context.Context, conversationID uuid.UUID) (*entity.Message, error)
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

// orderPair puts the smaller UUID first so the unique index on the
// conversation pair holds regardless of who messaged whom.
func orderPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) > 0 {
		return b, a
	}
	return a, b
}

func (r *chatRepository) GetOrCreateConversation(ctx context.Context, a, b uuid.UUID) (*entity.Conversation, error) {
	userA, userB := orderPair(a, b)

	var conversation entity.Conversation
	err := r.db.WithContext(ctx).
		Where("user_a_id = ? AND user_b_id = ?", userA, userB).
		First(&conversation).Error
	if err == nil {
		return &conversation, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	conversation = entity.Conversation{UserAID: userA, UserBID: userB}
	if err := r.db.WithContext(ctx).Create(&conversation).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *chatRepository) FindConversationByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error) {
	var conversation entity.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&conversation).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *chatRepository) ListConversations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Conversation, error) {
	var conversations []*entity.Conversation
	err := r.db.WithContext(ctx).
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("updated_at DESC").
		Limit(limit).Offset(offset).
		Find(&conversations).Error
	return conversations, err
}

func (r *chatRepository) CountConversations(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Conversation{}).
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Count(&count).Error
	return count, err
}

func (r *chatRepository) TouchConversation(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&entity.Conversation{}).
		Where("id = ?", id).
		Update("updated_at", time.Now()).Error
}

func (r *chatRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *chatRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*entity.Message, error) {
	var messages []*entity.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&messages).Error
	return messages, err
}

func (r *chatRepository) CountMessages(ctx context.Context, conversationID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&count).Error
	return count, err
}

func (r *chatRepository) FindLastMessage(ctx context.Context, conversationID uuid.UUID) (*entity.Message, error) {
	var message entity.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

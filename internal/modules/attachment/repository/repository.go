package repository

import (
	"context"
	"time"

	"sociafy/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttachmentRepository interface {
	Create(ctx context.Context, attachment *entity.Attachment) error
	FindUnattachedByIDs(ctx context.Context, ids []uint, userID uuid.UUID) ([]entity.Attachment, error)
	AttachToPost(ctx context.Context, ids []uint, postID uuid.UUID) error
	AttachToComment(ctx context.Context, id uint, commentID uuid.UUID) error
	FindByPostID(ctx context.Context, postID uuid.UUID) ([]entity.Attachment, error)
	FindByCommentIDs(ctx context.Context, commentIDs []uuid.UUID) ([]entity.Attachment, error)
	FindOrphans(ctx context.Context, olderThan time.Time) ([]entity.Attachment, error)
	DeleteByIDs(ctx context.Context, ids []uint) error
}

type attachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *entity.Attachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

// FindUnattachedByIDs returns only rows owned by userID that no post or
// comment has claimed yet. Callers compare the result length against the
// request to reject stolen or reused attachments.
func (r *attachmentRepository) FindUnattachedByIDs(ctx context.Context, ids []uint, userID uuid.UUID) ([]entity.Attachment, error) {
	var attachments []entity.Attachment
	err := r.db.WithContext(ctx).
		Where("id IN ? AND user_id = ? AND post_id IS NULL AND comment_id IS NULL", ids, userID).
		Find(&attachments).Error
	return attachments, err
}

func (r *attachmentRepository) AttachToPost(ctx context.Context, ids []uint, postID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&entity.Attachment{}).
		Where("id IN ?", ids).
		Update("post_id", postID).Error
}

func (r *attachmentRepository) AttachToComment(ctx context.Context, id uint, commentID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&entity.Attachment{}).
		Where("id = ?", id).
		Update("comment_id", commentID).Error
}

func (r *attachmentRepository) FindByPostID(ctx context.Context, postID uuid.UUID) ([]entity.Attachment, error) {
	var attachments []entity.Attachment
	err := r.db.WithContext(ctx).Where("post_id = ?", postID).Find(&attachments).Error
	return attachments, err
}

func (r *attachmentRepository) FindByCommentIDs(ctx context.Context, commentIDs []uuid.UUID) ([]entity.Attachment, error) {
	if len(commentIDs) == 0 {
		return nil, nil
	}
	var attachments []entity.Attachment
	err := r.db.WithContext(ctx).Where("comment_id IN ?", commentIDs).Find(&attachments).Error
	return attachments, err
}

func (r *attachmentRepository) FindOrphans(ctx context.Context, olderThan time.Time) ([]entity.Attachment, error) {
	var attachments []entity.Attachment
	err := r.db.WithContext(ctx).
		Where("post_id IS NULL AND comment_id IS NULL AND created_at < ?", olderThan).
		Find(&attachments).Error
	return attachments, err
}

func (r *attachmentRepository) DeleteByIDs(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Delete(&entity.Attachment{}, ids).Error
}

package repository

import (
	"context"
	"time"

	"sociafy/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostRepository interface {
	Create(ctx context.Context, post *entity.Post) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Post, error)
	FindActiveByID(ctx context.Context, id uuid.UUID) (*entity.Post, error)
	FindActiveOwner(ctx context.Context, postID uuid.UUID) (uuid.UUID, error)
	ResolveSubject(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Post, error)
	CountActiveByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	ListDeleted(ctx context.Context, limit, offset int) ([]*entity.Post, error)
	CountDeleted(ctx context.Context) (int64, error)
	MarkDeleted(ctx context.Context, id uuid.UUID, deletedBy string, at time.Time) error
	ClearDeleted(ctx context.Context, id uuid.UUID) error
	Save(ctx context.Context, post *entity.Post) error
	ReplaceMentions(ctx context.Context, post *entity.Post, users []*entity.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *entity.Post) error {
	return r.db.WithContext(ctx).Omit("Mentions", "Attachments").Create(post).Error
}

func (r *postRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Post, error) {
	var post entity.Post
	err := r.db.WithContext(ctx).
		Preload("User").Preload("Attachments").Preload("Mentions").
		Where("id = ?", id).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*entity.Post, error) {
	var post entity.Post
	err := r.db.WithContext(ctx).
		Preload("User").Preload("Attachments").Preload("Mentions").
		Where("id = ? AND is_deleted = false", id).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) FindActiveOwner(ctx context.Context, postID uuid.UUID) (uuid.UUID, error) {
	var post entity.Post
	err := r.db.WithContext(ctx).
		Select("user_id").
		Where("id = ? AND is_deleted = false", postID).
		First(&post).Error
	if err != nil {
		return uuid.Nil, err
	}
	return post.UserID, nil
}

// ResolveSubject satisfies the reaction module's subject lookup for posts.
func (r *postRepository) ResolveSubject(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	return r.FindActiveOwner(ctx, id)
}

func (r *postRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Post, error) {
	var posts []*entity.Post
	err := r.db.WithContext(ctx).
		Preload("User").Preload("Attachments").Preload("Mentions").
		Where("user_id = ? AND is_deleted = false", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) CountActiveByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Post{}).
		Where("user_id = ? AND is_deleted = false", userID).
		Count(&count).Error
	return count, err
}

func (r *postRepository) ListDeleted(ctx context.Context, limit, offset int) ([]*entity.Post, error) {
	var posts []*entity.Post
	err := r.db.WithContext(ctx).
		Preload("User").Preload("Attachments").
		Where("is_deleted = true").
		Order("deleted_at DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) CountDeleted(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Post{}).
		Where("is_deleted = true").
		Count(&count).Error
	return count, err
}

func (r *postRepository) MarkDeleted(ctx context.Context, id uuid.UUID, deletedBy string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&entity.Post{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_deleted": true,
			"deleted_at": at,
			"deleted_by": deletedBy,
		}).Error
}

func (r *postRepository) ClearDeleted(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&entity.Post{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_deleted": false,
			"deleted_at": nil,
			"deleted_by": nil,
		}).Error
}

func (r *postRepository) Save(ctx context.Context, post *entity.Post) error {
	return r.db.WithContext(ctx).Omit("Mentions", "Attachments", "User").Save(post).Error
}

func (r *postRepository) ReplaceMentions(ctx context.Context, post *entity.Post, users []*entity.User) error {
	return r.db.WithContext(ctx).Model(post).Association("Mentions").Replace(users)
}

// Delete removes the row and its attachment records. Comment rows are purged
// separately by the service before this runs.
func (r *postRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&entity.Attachment{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.Post{}).Error
	})
}

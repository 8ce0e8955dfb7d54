package repository

import (
	"context"
	"time"

	"sociafy/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChildState narrows FindChildIDs to a deletion state. The cascade walk asks
// for active children only, the restore walk for deleted children with a
// matching cause, the hard delete walk for everything.
type ChildState int

const (
	ChildAny ChildState = iota
	ChildActive
	ChildDeleted
)

type ChildFilter struct {
	State     ChildState
	DeletedBy *string
}

// visibleExpr keeps deleted leaf comments out of listings while deleted
// comments that still anchor replies stay as placeholders.
const visibleExpr = "(is_deleted = false OR has_replies = true)"

type CommentRepository interface {
	Create(ctx context.Context, comment *entity.Comment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Comment, error)
	FindActiveByID(ctx context.Context, id uuid.UUID) (*entity.Comment, error)
	ResolveSubject(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	FindVisibleTopLevel(ctx context.Context, postID uuid.UUID, limit, offset int) ([]*entity.Comment, error)
	CountVisibleTopLevel(ctx context.Context, postID uuid.UUID) (int64, error)
	CountVisibleByPost(ctx context.Context, postID uuid.UUID) (int64, error)
	FindVisibleReplies(ctx context.Context, parentID uuid.UUID, limit, offset int) ([]*entity.Comment, error)
	CountVisibleReplies(ctx context.Context, parentID uuid.UUID) (int64, error)
	FindChildIDs(ctx context.Context, parentIDs []uuid.UUID, filter ChildFilter) ([]uuid.UUID, error)
	FindIDsByPost(ctx context.Context, postID uuid.UUID) ([]uuid.UUID, error)
	MarkDeleted(ctx context.Context, ids []uuid.UUID, deletedBy string, at time.Time) error
	ClearDeleted(ctx context.Context, ids []uuid.UUID) error
	MarkPostCommentsDeleted(ctx context.Context, postID uuid.UUID, deletedBy string, at time.Time) (int64, error)
	RestorePostComments(ctx context.Context, postID uuid.UUID, deletedBy string) (int64, error)
	AdjustRepliesCount(ctx context.Context, id uuid.UUID, delta int) error
	Save(ctx context.Context, comment *entity.Comment) error
	ReplaceMentions(ctx context.Context, comment *entity.Comment, users []*entity.User) error
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) error
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts the comment and bumps the parent's reply counter in the
// same transaction so the denormalized count never drifts from the insert.
func (r *commentRepository) Create(ctx context.Context, comment *entity.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Mentions").Create(comment).Error; err != nil {
			return err
		}
		if comment.ParentID != nil {
			return adjustRepliesCount(tx, *comment.ParentID, 1)
		}
		return nil
	})
}

func (r *commentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Comment, error) {
	var comment entity.Comment
	err := r.db.WithContext(ctx).
		Preload("User").Preload("Attachment").Preload("Mentions").
		Where("id = ?", id).
		First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*entity.Comment, error) {
	var comment entity.Comment
	err := r.db.WithContext(ctx).
		Preload("User").Preload("Attachment").Preload("Mentions").
		Where("id = ? AND is_deleted = false", id).
		First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ResolveSubject returns the author of an active comment. Reactions use it to
// find out who to notify and whether the target still exists.
func (r *commentRepository) ResolveSubject(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var comment entity.Comment
	err := r.db.WithContext(ctx).
		Select("user_id").
		Where("id = ? AND is_deleted = false", id).
		First(&comment).Error
	if err != nil {
		return uuid.Nil, err
	}
	return comment.UserID, nil
}

func (r *commentRepository) FindVisibleTopLevel(ctx context.Context, postID uuid.UUID, limit, offset int) ([]*entity.Comment, error) {
	var comments []*entity.Comment
	err := r.db.WithContext(ctx).
		Preload("User").Preload("Attachment").Preload("Mentions").
		Where("post_id = ? AND parent_id IS NULL AND "+visibleExpr, postID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) CountVisibleTopLevel(ctx context.Context, postID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Comment{}).
		Where("post_id = ? AND parent_id IS NULL AND "+visibleExpr, postID).
		Count(&count).Error
	return count, err
}

func (r *commentRepository) CountVisibleByPost(ctx context.Context, postID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Comment{}).
		Where("post_id = ? AND "+visibleExpr, postID).
		Count(&count).Error
	return count, err
}

func (r *commentRepository) FindVisibleReplies(ctx context.Context, parentID uuid.UUID, limit, offset int) ([]*entity.Comment, error) {
	var comments []*entity.Comment
	err := r.db.WithContext(ctx).
		Preload("User").Preload("Attachment").Preload("Mentions").
		Where("parent_id = ? AND "+visibleExpr, parentID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) CountVisibleReplies(ctx context.Context, parentID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Comment{}).
		Where("parent_id = ? AND "+visibleExpr, parentID).
		Count(&count).Error
	return count, err
}

// FindChildIDs returns the direct children of any of parentIDs that match
// the filter. Services call it level by level to walk a subtree without
// recursive SQL.
func (r *commentRepository) FindChildIDs(ctx context.Context, parentIDs []uuid.UUID, filter ChildFilter) ([]uuid.UUID, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}

	query := r.db.WithContext(ctx).Model(&entity.Comment{}).Where("parent_id IN ?", parentIDs)
	switch filter.State {
	case ChildActive:
		query = query.Where("is_deleted = false")
	case ChildDeleted:
		query = query.Where("is_deleted = true")
		if filter.DeletedBy != nil {
			query = query.Where("deleted_by = ?", *filter.DeletedBy)
		}
	}

	var ids []uuid.UUID
	err := query.Pluck("id", &ids).Error
	return ids, err
}

func (r *commentRepository) FindIDsByPost(ctx context.Context, postID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&entity.Comment{}).
		Where("post_id = ?", postID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *commentRepository) MarkDeleted(ctx context.Context, ids []uuid.UUID, deletedBy string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entity.Comment{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"is_deleted": true,
			"deleted_at": at,
			"deleted_by": deletedBy,
		}).Error
}

func (r *commentRepository) ClearDeleted(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entity.Comment{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"is_deleted": false,
			"deleted_at": nil,
			"deleted_by": nil,
		}).Error
}

// MarkPostCommentsDeleted tags every still active comment of the post with
// the cascade cause. Comments deleted earlier for their own reasons keep
// their original tag so a later restore does not resurrect them.
func (r *commentRepository) MarkPostCommentsDeleted(ctx context.Context, postID uuid.UUID, deletedBy string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entity.Comment{}).
		Where("post_id = ? AND is_deleted = false", postID).
		Updates(map[string]any{
			"is_deleted": true,
			"deleted_at": at,
			"deleted_by": deletedBy,
		})
	return result.RowsAffected, result.Error
}

func (r *commentRepository) RestorePostComments(ctx context.Context, postID uuid.UUID, deletedBy string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entity.Comment{}).
		Where("post_id = ? AND is_deleted = true AND deleted_by = ?", postID, deletedBy).
		Updates(map[string]any{
			"is_deleted": false,
			"deleted_at": nil,
			"deleted_by": nil,
		})
	return result.RowsAffected, result.Error
}

func (r *commentRepository) AdjustRepliesCount(ctx context.Context, id uuid.UUID, delta int) error {
	return adjustRepliesCount(r.db.WithContext(ctx), id, delta)
}

// adjustRepliesCount updates both denormalized fields in one statement. Both
// right hand sides see the pre-update replies_count, so has_replies always
// matches the new value.
func adjustRepliesCount(tx *gorm.DB, id uuid.UUID, delta int) error {
	return tx.Model(&entity.Comment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"replies_count": gorm.Expr("GREATEST(replies_count + ?, 0)", delta),
			"has_replies":   gorm.Expr("replies_count + ? > 0", delta),
		}).Error
}

func (r *commentRepository) Save(ctx context.Context, comment *entity.Comment) error {
	return r.db.WithContext(ctx).Omit("Mentions", "Attachment", "User").Save(comment).Error
}

func (r *commentRepository) ReplaceMentions(ctx context.Context, comment *entity.Comment, users []*entity.User) error {
	return r.db.WithContext(ctx).Model(comment).Association("Mentions").Replace(users)
}

func (r *commentRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id IN ?", ids).Delete(&entity.Attachment{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&entity.Comment{}).Error
	})
}

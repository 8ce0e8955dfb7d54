package repository

import (
	"context"

	"sociafy/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReactionRepository interface {
	FindByUser(ctx context.Context, refType string, refID, userID uuid.UUID) (*entity.Reaction, error)
	Create(ctx context.Context, reaction *entity.Reaction) error
	UpdateKind(ctx context.Context, id uuid.UUID, kind string) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountsByKind(ctx context.Context, refType string, refID uuid.UUID) (map[string]int64, error)
	CountsByRefs(ctx context.Context, refType string, refIDs []uuid.UUID) (map[uuid.UUID]map[string]int64, error)
	ListByRef(ctx context.Context, refType string, refID uuid.UUID, limit, offset int) ([]*entity.Reaction, error)
	CountByRef(ctx context.Context, refType string, refID uuid.UUID) (int64, error)
	PurgeRefs(ctx context.Context, refType string, refIDs []uuid.UUID) error
}

type reactionRepository struct {
	db *gorm.DB
}

func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) FindByUser(ctx context.Context, refType string, refID, userID uuid.UUID) (*entity.Reaction, error) {
	var reaction entity.Reaction
	err := r.db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ? AND user_id = ?", refType, refID, userID).
		First(&reaction).Error
	if err != nil {
		return nil, err
	}
	return &reaction, nil
}

func (r *reactionRepository) Create(ctx context.Context, reaction *entity.Reaction) error {
	return r.db.WithContext(ctx).Create(reaction).Error
}

func (r *reactionRepository) UpdateKind(ctx context.Context, id uuid.UUID, kind string) error {
	return r.db.WithContext(ctx).Model(&entity.Reaction{}).
		Where("id = ?", id).
		Update("kind", kind).Error
}

func (r *reactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Reaction{}).Error
}

type kindCount struct {
	Kind  string
	Count int64
}

func (r *reactionRepository) CountsByKind(ctx context.Context, refType string, refID uuid.UUID) (map[string]int64, error) {
	var rows []kindCount
	err := r.db.WithContext(ctx).Model(&entity.Reaction{}).
		Select("kind, COUNT(*) AS count").
		Where("reference_type = ? AND reference_id = ?", refType, refID).
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Kind] = row.Count
	}
	return counts, nil
}

type refKindCount struct {
	ReferenceID uuid.UUID
	Kind        string
	Count       int64
}

// CountsByRefs groups reaction counts for a batch of targets in one query,
// used when rendering comment lists and feeds.
func (r *reactionRepository) CountsByRefs(ctx context.Context, refType string, refIDs []uuid.UUID) (map[uuid.UUID]map[string]int64, error) {
	if len(refIDs) == 0 {
		return map[uuid.UUID]map[string]int64{}, nil
	}

	var rows []refKindCount
	err := r.db.WithContext(ctx).Model(&entity.Reaction{}).
		Select("reference_id, kind, COUNT(*) AS count").
		Where("reference_type = ? AND reference_id IN ?", refType, refIDs).
		Group("reference_id, kind").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]map[string]int64)
	for _, row := range rows {
		if counts[row.ReferenceID] == nil {
			counts[row.ReferenceID] = make(map[string]int64)
		}
		counts[row.ReferenceID][row.Kind] = row.Count
	}
	return counts, nil
}

func (r *reactionRepository) ListByRef(ctx context.Context, refType string, refID uuid.UUID, limit, offset int) ([]*entity.Reaction, error) {
	var reactions []*entity.Reaction
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("reference_type = ? AND reference_id = ?", refType, refID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&reactions).Error
	return reactions, err
}

func (r *reactionRepository) CountByRef(ctx context.Context, refType string, refID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Reaction{}).
		Where("reference_type = ? AND reference_id = ?", refType, refID).
		Count(&count).Error
	return count, err
}

func (r *reactionRepository) PurgeRefs(ctx context.Context, refType string, refIDs []uuid.UUID) error {
	if len(refIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("reference_type = ? AND reference_id IN ?", refType, refIDs).
		Delete(&entity.Reaction{}).Error
}

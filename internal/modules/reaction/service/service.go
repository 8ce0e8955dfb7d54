package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"sociafy/internal/entity"
	"sociafy/internal/modules/reaction/dto"
	"sociafy/internal/modules/reaction/repository"
	"sociafy/pkg/apperror"
	pkgdto "sociafy/pkg/dto"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const summaryCacheTTL = 10 * time.Minute

// SubjectSource resolves the author of an active reaction target. One
// implementation per reference type (post, comment).
type SubjectSource interface {
	ResolveSubject(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// BlockChecker reports whether either user has blocked the other.
type BlockChecker interface {
	IsBlockedEither(ctx context.Context, a, b uuid.UUID) (bool, error)
}

// Notifier delivers fire and forget reaction notifications.
type Notifier interface {
	NotifyReaction(recipientID, actorID uuid.UUID, refType string, refID uuid.UUID, kind string)
}

type ReactionService interface {
	Apply(ctx context.Context, userID uuid.UUID, refType string, refID uuid.UUID, kind string) (*dto.ApplyReactionResponse, error)
	Summary(ctx context.Context, refType string, refID uuid.UUID) (pkgdto.ReactionsSummary, error)
	Summaries(ctx context.Context, refType string, ids []uuid.UUID) (map[uuid.UUID]pkgdto.ReactionsSummary, error)
	List(ctx context.Context, refType string, refID uuid.UUID, filter pkgdto.PageFilter) ([]dto.ReactionResponse, pkgdto.PaginationMeta, error)
	PurgeRefs(ctx context.Context, refType string, refIDs []uuid.UUID) error
}

type reactionService struct {
	repo     repository.ReactionRepository
	subjects map[string]SubjectSource
	blocks   BlockChecker
	notifier Notifier
	rdb      *redis.Client
}

func NewReactionService(
	repo repository.ReactionRepository,
	subjects map[string]SubjectSource,
	blocks BlockChecker,
	notifier Notifier,
	rdb *redis.Client,
) ReactionService {
	return &reactionService{
		repo:     repo,
		subjects: subjects,
		blocks:   blocks,
		notifier: notifier,
		rdb:      rdb,
	}
}

// Apply is the single entry point for reacting. What happens depends on the
// caller's current reaction and whether a kind was sent:
//
//	existing, no kind        -> remove (removed)
//	existing, same kind      -> remove (toggled-off)
//	existing, different kind -> change kind (updated)
//	none, kind given         -> create (added)
//	none, no kind            -> create a like (add-default-like)
func (s *reactionService) Apply(ctx context.Context, userID uuid.UUID, refType string, refID uuid.UUID, kind string) (*dto.ApplyReactionResponse, error) {
	if kind != "" && !entity.ValidReactionKind(kind) {
		return nil, apperror.BadRequest("unknown reaction kind")
	}

	authorID, err := s.resolveSubject(ctx, refType, refID)
	if err != nil {
		return nil, err
	}

	if authorID != userID {
		blocked, err := s.blocks.IsBlockedEither(ctx, userID, authorID)
		if err != nil {
			return nil, err
		}
		if blocked {
			return nil, apperror.Forbidden("you cannot react to this content")
		}
	}

	existing, err := s.repo.FindByUser(ctx, refType, refID, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var action string
	switch {
	case existing != nil && kind == "":
		if err := s.repo.Delete(ctx, existing.ID); err != nil {
			return nil, err
		}
		action = dto.ActionRemoved
		s.adjustCache(ctx, refType, refID, map[string]int64{existing.Kind: -1})

	case existing != nil && kind == existing.Kind:
		if err := s.repo.Delete(ctx, existing.ID); err != nil {
			return nil, err
		}
		action = dto.ActionToggledOff
		s.adjustCache(ctx, refType, refID, map[string]int64{existing.Kind: -1})

	case existing != nil:
		if err := s.repo.UpdateKind(ctx, existing.ID, kind); err != nil {
			return nil, err
		}
		action = dto.ActionUpdated
		s.adjustCache(ctx, refType, refID, map[string]int64{existing.Kind: -1, kind: 1})
		s.notify(userID, authorID, refType, refID, kind)

	default:
		created := kind
		action = dto.ActionAdded
		if created == "" {
			created = entity.ReactionLike
			action = dto.ActionAddDefaultLike
		}
		reaction := &entity.Reaction{
			UserID:        userID,
			ReferenceID:   refID,
			ReferenceType: refType,
			Kind:          created,
		}
		if err := s.repo.Create(ctx, reaction); err != nil {
			return nil, err
		}
		s.adjustCache(ctx, refType, refID, map[string]int64{created: 1})
		s.notify(userID, authorID, refType, refID, created)
	}

	summary, err := s.Summary(ctx, refType, refID)
	if err != nil {
		return nil, err
	}

	return &dto.ApplyReactionResponse{Action: action, Summary: summary}, nil
}

// Summary serves the display counts, from the redis hash when it is warm and
// rebuilt from the database otherwise.
func (s *reactionService) Summary(ctx context.Context, refType string, refID uuid.UUID) (pkgdto.ReactionsSummary, error) {
	if s.rdb != nil {
		fields, err := s.rdb.HGetAll(ctx, cacheKey(refType, refID)).Result()
		if err == nil && len(fields) > 0 {
			counts := make(map[string]int64, len(fields))
			for kind, raw := range fields {
				if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
					counts[kind] = n
				}
			}
			return buildSummary(counts), nil
		}
	}

	counts, err := s.repo.CountsByKind(ctx, refType, refID)
	if err != nil {
		return pkgdto.ReactionsSummary{}, err
	}
	s.warmCache(ctx, refType, refID, counts)
	return buildSummary(counts), nil
}

// Summaries bypasses the cache and answers a whole batch with one grouped
// query. List rendering goes through here.
func (s *reactionService) Summaries(ctx context.Context, refType string, ids []uuid.UUID) (map[uuid.UUID]pkgdto.ReactionsSummary, error) {
	counts, err := s.repo.CountsByRefs(ctx, refType, ids)
	if err != nil {
		return nil, err
	}

	summaries := make(map[uuid.UUID]pkgdto.ReactionsSummary, len(counts))
	for id, kinds := range counts {
		summaries[id] = buildSummary(kinds)
	}
	return summaries, nil
}

func (s *reactionService) List(ctx context.Context, refType string, refID uuid.UUID, filter pkgdto.PageFilter) ([]dto.ReactionResponse, pkgdto.PaginationMeta, error) {
	filter.Clamp(20, 40)

	if _, err := s.resolveSubject(ctx, refType, refID); err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}

	reactions, err := s.repo.ListByRef(ctx, refType, refID, filter.Limit, filter.Offset())
	if err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}
	total, err := s.repo.CountByRef(ctx, refType, refID)
	if err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}

	responses := make([]dto.ReactionResponse, 0, len(reactions))
	for _, reaction := range reactions {
		responses = append(responses, dto.ReactionResponse{
			User: pkgdto.AuthorResponse{
				ID:        reaction.User.ID,
				FullName:  reaction.User.FullName(),
				AvatarURL: reaction.User.AvatarURL,
			},
			Kind:      reaction.Kind,
			CreatedAt: reaction.CreatedAt,
		})
	}

	return responses, pkgdto.NewPaginationMeta(filter, total), nil
}

// PurgeRefs drops reaction rows and caches for hard deleted targets.
func (s *reactionService) PurgeRefs(ctx context.Context, refType string, refIDs []uuid.UUID) error {
	if err := s.repo.PurgeRefs(ctx, refType, refIDs); err != nil {
		return err
	}
	if s.rdb != nil {
		keys := make([]string, 0, len(refIDs))
		for _, id := range refIDs {
			keys = append(keys, cacheKey(refType, id))
		}
		if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
			log.Printf("failed to drop reaction caches: %v", err)
		}
	}
	return nil
}

func (s *reactionService) resolveSubject(ctx context.Context, refType string, refID uuid.UUID) (uuid.UUID, error) {
	source, ok := s.subjects[refType]
	if !ok {
		return uuid.Nil, apperror.BadRequest("unknown reaction target")
	}

	authorID, err := source.ResolveSubject(ctx, refID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, apperror.NotFound(refType + " not found")
		}
		return uuid.Nil, err
	}
	return authorID, nil
}

func (s *reactionService) notify(actorID, authorID uuid.UUID, refType string, refID uuid.UUID, kind string) {
	if actorID != authorID {
		s.notifier.NotifyReaction(authorID, actorID, refType, refID, kind)
	}
}

// adjustCache keeps a warm summary hash in sync without rebuilding it. A
// cold key is left alone, the next Summary call repopulates it from the
// database. Failures only cost a cache rebuild, they are logged and ignored.
func (s *reactionService) adjustCache(ctx context.Context, refType string, refID uuid.UUID, deltas map[string]int64) {
	if s.rdb == nil {
		return
	}

	key := cacheKey(refType, refID)
	exists, err := s.rdb.Exists(ctx, key).Result()
	if err != nil || exists == 0 {
		return
	}

	pipe := s.rdb.Pipeline()
	for kind, delta := range deltas {
		pipe.HIncrBy(ctx, key, kind, delta)
	}
	pipe.Expire(ctx, key, summaryCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("failed to adjust reaction cache %s: %v", key, err)
	}
}

func (s *reactionService) warmCache(ctx context.Context, refType string, refID uuid.UUID, counts map[string]int64) {
	if s.rdb == nil || len(counts) == 0 {
		return
	}

	key := cacheKey(refType, refID)
	fields := make(map[string]any, len(counts))
	for kind, count := range counts {
		fields[kind] = count
	}

	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, summaryCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("failed to warm reaction cache %s: %v", key, err)
	}
}

func cacheKey(refType string, refID uuid.UUID) string {
	return fmt.Sprintf("reactions:%s:%s", refType, refID)
}

func buildSummary(counts map[string]int64) pkgdto.ReactionsSummary {
	summary := pkgdto.ReactionsSummary{Kinds: []string{}}
	for kind, count := range counts {
		if count > 0 {
			summary.Total += count
			summary.Kinds = append(summary.Kinds, kind)
		}
	}
	sort.Strings(summary.Kinds)
	return summary
}

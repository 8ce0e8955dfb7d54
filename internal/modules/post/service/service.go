package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"sociafy/internal/entity"
	attachmentrepo "sociafy/internal/modules/attachment/repository"
	commentdto "sociafy/internal/modules/comment/dto"
	commentrepo "sociafy/internal/modules/comment/repository"
	"sociafy/internal/modules/post/dto"
	"sociafy/internal/modules/post/repository"
	userrepo "sociafy/internal/modules/user/repository"
	"sociafy/pkg/apperror"
	pkgdto "sociafy/pkg/dto"
	"sociafy/pkg/ratelimiter"
	"sociafy/pkg/storage"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CommentSource supplies the aggregated comment view for the post detail.
type CommentSource interface {
	PreviewForPost(ctx context.Context, postID uuid.UUID, limit int) ([]commentdto.CommentResponse, error)
	CountsForPost(ctx context.Context, postID uuid.UUID) (firstLevel, total int64, err error)
}

type ReactionSummarizer interface {
	Summary(ctx context.Context, refType string, refID uuid.UUID) (pkgdto.ReactionsSummary, error)
	Summaries(ctx context.Context, refType string, ids []uuid.UUID) (map[uuid.UUID]pkgdto.ReactionsSummary, error)
}

type ReactionPurger interface {
	PurgeRefs(ctx context.Context, refType string, ids []uuid.UUID) error
}

type Notifier interface {
	NotifyMention(recipientID, actorID uuid.UUID, refType string, refID uuid.UUID)
}

// Indexer mirrors posts into the search engine. Indexing failures must not
// fail the write path, callers log and move on.
type Indexer interface {
	IndexPost(ctx context.Context, post *entity.Post) error
	RemovePost(ctx context.Context, postID uuid.UUID) error
}

const commentPreviewLimit = 3

type PostService interface {
	CreatePost(ctx context.Context, userID uuid.UUID, req dto.CreatePostRequest) (*dto.PostResponse, error)
	GetPostDetail(ctx context.Context, id uuid.UUID) (*dto.PostDetailResponse, error)
	ListUserPosts(ctx context.Context, userID uuid.UUID, filter pkgdto.PageFilter) ([]dto.PostResponse, pkgdto.PaginationMeta, error)
	UpdatePost(ctx context.Context, userID uuid.UUID, role string, postID uuid.UUID, req dto.UpdatePostRequest) (*dto.PostResponse, error)
	SoftDeletePost(ctx context.Context, userID uuid.UUID, role string, postID uuid.UUID) (*dto.DeletePostResponse, error)
	RestorePost(ctx context.Context, userID uuid.UUID, role string, postID uuid.UUID) (*dto.RestorePostResponse, error)
	HardDeletePost(ctx context.Context, postID uuid.UUID) error
	ListDeletedPosts(ctx context.Context, filter pkgdto.PageFilter) ([]dto.PostResponse, pkgdto.PaginationMeta, error)
}

type postService struct {
	repo         repository.PostRepository
	comments     commentrepo.CommentRepository
	attachments  attachmentrepo.AttachmentRepository
	users        userrepo.UserRepository
	commentViews CommentSource
	reactions    ReactionSummarizer
	purger       ReactionPurger
	notifier     Notifier
	indexer      Indexer
	mediaStorage storage.MediaStorage
	rdb          *redis.Client
	cooldown     time.Duration
}

func NewPostService(
	repo repository.PostRepository,
	comments commentrepo.CommentRepository,
	attachments attachmentrepo.AttachmentRepository,
	users userrepo.UserRepository,
	commentViews CommentSource,
	reactions ReactionSummarizer,
	purger ReactionPurger,
	notifier Notifier,
	indexer Indexer,
	mediaStorage storage.MediaStorage,
	rdb *redis.Client,
) PostService {
	return &postService{
		repo:         repo,
		comments:     comments,
		attachments:  attachments,
		users:        users,
		commentViews: commentViews,
		reactions:    reactions,
		purger:       purger,
		notifier:     notifier,
		indexer:      indexer,
		mediaStorage: mediaStorage,
		rdb:          rdb,
		cooldown:     ratelimiter.GetDurationFromEnv("POST_CREATE_COOLDOWN", 10*time.Second),
	}
}

func (s *postService) CreatePost(ctx context.Context, userID uuid.UUID, req dto.CreatePostRequest) (*dto.PostResponse, error) {
	allowed, err := ratelimiter.CheckAndSetRateLimit(ctx, s.rdb, userID, "create_post", s.cooldown)
	if err != nil {
		return nil, err
	}
	if !allowed {
		ttl, _ := ratelimiter.GetRateLimitTTL(ctx, s.rdb, userID, "create_post")
		return nil, &ratelimiter.RateLimitError{Message: "you are posting too fast", RetryAfter: ttl}
	}

	content := trimContent(req.Content)
	if content == nil && len(req.AttachmentIDs) == 0 {
		return nil, apperror.BadRequest("post needs content or at least one attachment")
	}

	mentioned, err := s.resolveMentions(ctx, req.Mentions)
	if err != nil {
		return nil, err
	}

	if len(req.AttachmentIDs) > 0 {
		claimed, err := s.attachments.FindUnattachedByIDs(ctx, req.AttachmentIDs, userID)
		if err != nil {
			return nil, err
		}
		if len(claimed) != len(req.AttachmentIDs) {
			return nil, apperror.BadRequest("one or more attachments not found or already used")
		}
	}

	post := &entity.Post{
		UserID:  userID,
		Content: content,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		// Nothing was posted, give the cooldown slot back.
		if clearErr := ratelimiter.ClearRateLimit(ctx, s.rdb, userID, "create_post"); clearErr != nil {
			log.Printf("failed to clear post cooldown for %s: %v", userID, clearErr)
		}
		return nil, err
	}

	if len(req.AttachmentIDs) > 0 {
		if err := s.attachments.AttachToPost(ctx, req.AttachmentIDs, post.ID); err != nil {
			return nil, err
		}
	}
	if len(mentioned) > 0 {
		if err := s.repo.ReplaceMentions(ctx, post, mentioned); err != nil {
			return nil, err
		}
	}

	for _, user := range mentioned {
		if user.ID != userID {
			s.notifier.NotifyMention(user.ID, userID, entity.ReactionRefPost, post.ID)
		}
	}

	created, err := s.repo.FindByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	if err := s.indexer.IndexPost(ctx, created); err != nil {
		log.Printf("failed to index post %s: %v", created.ID, err)
	}

	resp := s.mapPost(created, pkgdto.ReactionsSummary{Kinds: []string{}}, 0)
	return &resp, nil
}

// GetPostDetail is the aggregated read: the post itself, its reaction
// summary, a preview of the newest top-level comments and both comment
// totals (visible first-level and visible all-depth).
func (s *postService) GetPostDetail(ctx context.Context, id uuid.UUID) (*dto.PostDetailResponse, error) {
	post, err := s.repo.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("post not found")
		}
		return nil, err
	}

	summary, err := s.reactions.Summary(ctx, entity.ReactionRefPost, post.ID)
	if err != nil {
		return nil, err
	}

	preview, err := s.commentViews.PreviewForPost(ctx, post.ID, commentPreviewLimit)
	if err != nil {
		return nil, err
	}

	firstLevel, total, err := s.commentViews.CountsForPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	return &dto.PostDetailResponse{
		PostResponse:            s.mapPost(post, summary, total),
		CommentPreview:          preview,
		TotalFirstLevelComments: firstLevel,
		TotalComments:           total,
	}, nil
}

func (s *postService) ListUserPosts(ctx context.Context, userID uuid.UUID, filter pkgdto.PageFilter) ([]dto.PostResponse, pkgdto.PaginationMeta, error) {
	filter.Clamp(10, 30)

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgdto.PaginationMeta{}, apperror.NotFound("user not found")
		}
		return nil, pkgdto.PaginationMeta{}, err
	}

	posts, err := s.repo.ListActiveByUser(ctx, userID, filter.Limit, filter.Offset())
	if err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}
	total, err := s.repo.CountActiveByUser(ctx, userID)
	if err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}

	responses, err := s.mapPosts(ctx, posts)
	if err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}
	return responses, pkgdto.NewPaginationMeta(filter, total), nil
}

func (s *postService) UpdatePost(ctx context.Context, userID uuid.UUID, role string, postID uuid.UUID, req dto.UpdatePostRequest) (*dto.PostResponse, error) {
	post, err := s.repo.FindActiveByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("post not found")
		}
		return nil, err
	}
	if post.UserID != userID && role != entity.RoleAdmin {
		return nil, apperror.Forbidden("you can only edit your own posts")
	}

	attachmentCount := len(post.Attachments)

	// A non-nil attachment list replaces the whole set and drops the old media.
	if req.AttachmentIDs != nil {
		if len(req.AttachmentIDs) > 0 {
			claimed, err := s.attachments.FindUnattachedByIDs(ctx, req.AttachmentIDs, userID)
			if err != nil {
				return nil, err
			}
			if len(claimed) != len(req.AttachmentIDs) {
				return nil, apperror.BadRequest("one or more attachments not found or already used")
			}
		}
		if len(post.Attachments) > 0 {
			oldIDs := make([]uint, 0, len(post.Attachments))
			for _, attachment := range post.Attachments {
				if err := s.mediaStorage.Destroy(ctx, attachment.PublicID); err != nil {
					log.Printf("failed to destroy media %s: %v", attachment.PublicID, err)
				}
				oldIDs = append(oldIDs, attachment.ID)
			}
			if err := s.attachments.DeleteByIDs(ctx, oldIDs); err != nil {
				return nil, err
			}
		}
		if len(req.AttachmentIDs) > 0 {
			if err := s.attachments.AttachToPost(ctx, req.AttachmentIDs, post.ID); err != nil {
				return nil, err
			}
		}
		attachmentCount = len(req.AttachmentIDs)
	}

	if req.Content != nil {
		post.Content = trimContent(req.Content)
	}
	if post.Content == nil && attachmentCount == 0 {
		return nil, apperror.BadRequest("post needs content or at least one attachment")
	}

	if err := s.repo.Save(ctx, post); err != nil {
		return nil, err
	}

	if req.Mentions != nil {
		mentioned, err := s.resolveMentions(ctx, req.Mentions)
		if err != nil {
			return nil, err
		}
		if err := s.repo.ReplaceMentions(ctx, post, mentioned); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if err := s.indexer.IndexPost(ctx, updated); err != nil {
		log.Printf("failed to reindex post %s: %v", updated.ID, err)
	}

	responses, err := s.mapPosts(ctx, []*entity.Post{updated})
	if err != nil {
		return nil, err
	}
	return &responses[0], nil
}

// SoftDeletePost hides the post and cascades over its still active comments,
// tagging them as deleted by the post so a restore can tell them apart from
// comments that were already gone for their own reasons.
func (s *postService) SoftDeletePost(ctx context.Context, userID uuid.UUID, role string, postID uuid.UUID) (*dto.DeletePostResponse, error) {
	post, err := s.repo.FindActiveByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("post not found")
		}
		return nil, err
	}

	deletedBy := entity.PostDeletedByUser
	switch {
	case post.UserID == userID:
	case role == entity.RoleAdmin:
		deletedBy = entity.PostDeletedByAdmin
	default:
		return nil, apperror.Forbidden("you cannot delete this post")
	}

	now := time.Now()
	if err := s.repo.MarkDeleted(ctx, postID, deletedBy, now); err != nil {
		return nil, err
	}

	cascaded, err := s.comments.MarkPostCommentsDeleted(ctx, postID, entity.CommentDeletedByPost, now)
	if err != nil {
		return nil, err
	}

	if err := s.indexer.RemovePost(ctx, postID); err != nil {
		log.Printf("failed to remove post %s from index: %v", postID, err)
	}

	return &dto.DeletePostResponse{DeletedComments: cascaded}, nil
}

// RestorePost brings back the post and only the comments its own delete took
// down. Comments deleted by users, the post owner or admins stay deleted.
func (s *postService) RestorePost(ctx context.Context, userID uuid.UUID, role string, postID uuid.UUID) (*dto.RestorePostResponse, error) {
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("post not found")
		}
		return nil, err
	}
	if !post.IsDeleted {
		return nil, apperror.Conflict("post is not deleted")
	}
	if role != entity.RoleAdmin && post.UserID != userID {
		return nil, apperror.Forbidden("you cannot restore this post")
	}

	if err := s.repo.ClearDeleted(ctx, postID); err != nil {
		return nil, err
	}

	restored, err := s.comments.RestorePostComments(ctx, postID, entity.CommentDeletedByPost)
	if err != nil {
		return nil, err
	}

	if err := s.indexer.IndexPost(ctx, post); err != nil {
		log.Printf("failed to reindex restored post %s: %v", postID, err)
	}

	return &dto.RestorePostResponse{RestoredComments: restored}, nil
}

// HardDeletePost purges everything: media of the post and its comments,
// reactions on both, comment rows and finally the post itself.
func (s *postService) HardDeletePost(ctx context.Context, postID uuid.UUID) error {
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("post not found")
		}
		return err
	}

	commentIDs, err := s.comments.FindIDsByPost(ctx, postID)
	if err != nil {
		return err
	}

	for _, attachment := range post.Attachments {
		if err := s.mediaStorage.Destroy(ctx, attachment.PublicID); err != nil {
			log.Printf("failed to destroy media %s: %v", attachment.PublicID, err)
		}
	}
	commentAttachments, err := s.attachments.FindByCommentIDs(ctx, commentIDs)
	if err != nil {
		return err
	}
	for _, attachment := range commentAttachments {
		if err := s.mediaStorage.Destroy(ctx, attachment.PublicID); err != nil {
			log.Printf("failed to destroy media %s: %v", attachment.PublicID, err)
		}
	}

	if err := s.purger.PurgeRefs(ctx, entity.ReactionRefComment, commentIDs); err != nil {
		return err
	}
	if err := s.purger.PurgeRefs(ctx, entity.ReactionRefPost, []uuid.UUID{postID}); err != nil {
		return err
	}

	if err := s.comments.DeleteByIDs(ctx, commentIDs); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, postID); err != nil {
		return err
	}

	if err := s.indexer.RemovePost(ctx, postID); err != nil {
		log.Printf("failed to remove post %s from index: %v", postID, err)
	}
	return nil
}

func (s *postService) ListDeletedPosts(ctx context.Context, filter pkgdto.PageFilter) ([]dto.PostResponse, pkgdto.PaginationMeta, error) {
	filter.Clamp(10, 30)

	posts, err := s.repo.ListDeleted(ctx, filter.Limit, filter.Offset())
	if err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}
	total, err := s.repo.CountDeleted(ctx)
	if err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}

	responses := make([]dto.PostResponse, 0, len(posts))
	for _, post := range posts {
		responses = append(responses, s.mapPost(post, pkgdto.ReactionsSummary{Kinds: []string{}}, 0))
	}
	return responses, pkgdto.NewPaginationMeta(filter, total), nil
}

func (s *postService) resolveMentions(ctx context.Context, ids []uuid.UUID) ([]*entity.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(users) != len(ids) {
		return nil, apperror.BadRequest("one or more mentioned users do not exist")
	}
	return users, nil
}

func (s *postService) mapPosts(ctx context.Context, posts []*entity.Post) ([]dto.PostResponse, error) {
	ids := make([]uuid.UUID, 0, len(posts))
	for _, post := range posts {
		ids = append(ids, post.ID)
	}

	summaries, err := s.reactions.Summaries(ctx, entity.ReactionRefPost, ids)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.PostResponse, 0, len(posts))
	for _, post := range posts {
		summary, ok := summaries[post.ID]
		if !ok {
			summary = pkgdto.ReactionsSummary{Kinds: []string{}}
		}
		count, err := s.comments.CountVisibleByPost(ctx, post.ID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, s.mapPost(post, summary, count))
	}
	return responses, nil
}

func (s *postService) mapPost(post *entity.Post, summary pkgdto.ReactionsSummary, commentsCount int64) dto.PostResponse {
	resp := dto.PostResponse{
		ID: post.ID,
		Author: pkgdto.AuthorResponse{
			ID:        post.User.ID,
			FullName:  post.User.FullName(),
			AvatarURL: post.User.AvatarURL,
		},
		Content:       post.Content,
		Attachments:   []pkgdto.AttachmentResponse{},
		Reactions:     summary,
		CommentsCount: commentsCount,
		IsDeleted:     post.IsDeleted,
		DeletedAt:     post.DeletedAt,
		DeletedBy:     post.DeletedBy,
		CreatedAt:     post.CreatedAt,
		UpdatedAt:     post.UpdatedAt,
	}
	for _, attachment := range post.Attachments {
		resp.Attachments = append(resp.Attachments, pkgdto.AttachmentResponse{
			ID:        attachment.ID,
			FileURL:   attachment.FileURL,
			MediaType: attachment.MediaType,
		})
	}
	for _, user := range post.Mentions {
		resp.Mentions = append(resp.Mentions, pkgdto.AuthorResponse{
			ID:        user.ID,
			FullName:  user.FullName(),
			AvatarURL: user.AvatarURL,
		})
	}
	return resp
}

func trimContent(content *string) *string {
	if content == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*content)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

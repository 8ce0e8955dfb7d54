package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"sociafy/internal/entity"
	attachmentrepo "sociafy/internal/modules/attachment/repository"
	"sociafy/internal/modules/comment/dto"
	"sociafy/internal/modules/comment/repository"
	userrepo "sociafy/internal/modules/user/repository"
	"sociafy/pkg/apperror"
	pkgdto "sociafy/pkg/dto"
	"sociafy/pkg/ratelimiter"
	"sociafy/pkg/storage"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// PostSource answers whether a post is still active and who owns it. The
// post repository implements it.
type PostSource interface {
	FindActiveOwner(ctx context.Context, postID uuid.UUID) (uuid.UUID, error)
}

// BlockChecker reports whether either user has blocked the other.
type BlockChecker interface {
	IsBlockedEither(ctx context.Context, a, b uuid.UUID) (bool, error)
}

// ReactionSummarizer provides display summaries for a batch of comments.
type ReactionSummarizer interface {
	Summaries(ctx context.Context, refType string, ids []uuid.UUID) (map[uuid.UUID]pkgdto.ReactionsSummary, error)
}

// ReactionPurger removes reaction rows when their target is hard deleted.
type ReactionPurger interface {
	PurgeRefs(ctx context.Context, refType string, ids []uuid.UUID) error
}

// Notifier delivers fire and forget notifications.
type Notifier interface {
	NotifyReply(recipientID, actorID, commentID uuid.UUID)
	NotifyMention(recipientID, actorID uuid.UUID, refType string, refID uuid.UUID)
}

type CommentService interface {
	CreateComment(ctx context.Context, userID, postID uuid.UUID, req dto.CreateCommentRequest) (*dto.CommentResponse, error)
	GetComment(ctx context.Context, id uuid.UUID) (*dto.CommentResponse, error)
	ListPostComments(ctx context.Context, postID uuid.UUID, filter pkgdto.PageFilter) ([]dto.CommentResponse, pkgdto.PaginationMeta, error)
	ListReplies(ctx context.Context, parentID uuid.UUID, filter pkgdto.PageFilter) ([]dto.CommentResponse, pkgdto.PaginationMeta, error)
	UpdateComment(ctx context.Context, userID uuid.UUID, role string, commentID uuid.UUID, req dto.UpdateCommentRequest) (*dto.CommentResponse, error)
	SoftDeleteComment(ctx context.Context, userID uuid.UUID, role string, commentID uuid.UUID) (*dto.DeleteCommentResponse, error)
	RestoreComment(ctx context.Context, userID uuid.UUID, role string, commentID uuid.UUID) (*dto.RestoreCommentResponse, error)
	HardDeleteComment(ctx context.Context, commentID uuid.UUID) error
	PreviewForPost(ctx context.Context, postID uuid.UUID, limit int) ([]dto.CommentResponse, error)
	CountsForPost(ctx context.Context, postID uuid.UUID) (firstLevel, total int64, err error)
}

type commentService struct {
	repo         repository.CommentRepository
	attachments  attachmentrepo.AttachmentRepository
	users        userrepo.UserRepository
	posts        PostSource
	blocks       BlockChecker
	reactions    ReactionSummarizer
	purger       ReactionPurger
	notifier     Notifier
	mediaStorage storage.MediaStorage
	rdb          *redis.Client
	cooldown     time.Duration
}

func NewCommentService(
	repo repository.CommentRepository,
	attachments attachmentrepo.AttachmentRepository,
	users userrepo.UserRepository,
	posts PostSource,
	blocks BlockChecker,
	reactions ReactionSummarizer,
	purger ReactionPurger,
	notifier Notifier,
	mediaStorage storage.MediaStorage,
	rdb *redis.Client,
) CommentService {
	return &commentService{
		repo:         repo,
		attachments:  attachments,
		users:        users,
		posts:        posts,
		blocks:       blocks,
		reactions:    reactions,
		purger:       purger,
		notifier:     notifier,
		mediaStorage: mediaStorage,
		rdb:          rdb,
		cooldown:     ratelimiter.GetDurationFromEnv("COMMENT_CREATE_COOLDOWN", 2*time.Second),
	}
}

func (s *commentService) CreateComment(ctx context.Context, userID, postID uuid.UUID, req dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	allowed, err := ratelimiter.CheckAndSetRateLimit(ctx, s.rdb, userID, "create_comment", s.cooldown)
	if err != nil {
		return nil, err
	}
	if !allowed {
		ttl, _ := ratelimiter.GetRateLimitTTL(ctx, s.rdb, userID, "create_comment")
		return nil, &ratelimiter.RateLimitError{Message: "you are commenting too fast", RetryAfter: ttl}
	}

	if !hasContent(req.Content) && req.AttachmentID == nil {
		return nil, apperror.BadRequest("comment needs content or an attachment")
	}

	ownerID, err := s.posts.FindActiveOwner(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("post not found")
		}
		return nil, err
	}

	if ownerID != userID {
		blocked, err := s.blocks.IsBlockedEither(ctx, userID, ownerID)
		if err != nil {
			return nil, err
		}
		if blocked {
			return nil, apperror.Forbidden("you cannot comment on this post")
		}
	}

	var parent *entity.Comment
	if req.ParentID != nil {
		parent, err = s.repo.FindActiveByID(ctx, *req.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.NotFound("parent comment not found")
			}
			return nil, err
		}
		if parent.PostID != postID {
			return nil, apperror.BadRequest("parent comment belongs to another post")
		}
	}

	mentioned, err := s.resolveMentions(ctx, req.Mentions)
	if err != nil {
		return nil, err
	}

	comment := &entity.Comment{
		PostID:   postID,
		UserID:   userID,
		ParentID: req.ParentID,
		Content:  trimContent(req.Content),
	}

	if req.AttachmentID != nil {
		claimed, err := s.attachments.FindUnattachedByIDs(ctx, []uint{*req.AttachmentID}, userID)
		if err != nil {
			return nil, err
		}
		if len(claimed) != 1 {
			return nil, apperror.BadRequest("attachment not found or already used")
		}
	}

	if err := s.repo.Create(ctx, comment); err != nil {
		// Nothing was written, give the cooldown slot back.
		if clearErr := ratelimiter.ClearRateLimit(ctx, s.rdb, userID, "create_comment"); clearErr != nil {
			log.Printf("failed to clear comment cooldown for %s: %v", userID, clearErr)
		}
		return nil, err
	}

	if req.AttachmentID != nil {
		if err := s.attachments.AttachToComment(ctx, *req.AttachmentID, comment.ID); err != nil {
			return nil, err
		}
	}

	if len(mentioned) > 0 {
		if err := s.repo.ReplaceMentions(ctx, comment, mentioned); err != nil {
			return nil, err
		}
	}

	if parent != nil && parent.UserID != userID {
		s.notifier.NotifyReply(parent.UserID, userID, comment.ID)
	}
	for _, user := range mentioned {
		if user.ID != userID {
			s.notifier.NotifyMention(user.ID, userID, entity.ReactionRefComment, comment.ID)
		}
	}

	created, err := s.repo.FindByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	resp := s.mapComment(created, pkgdto.ReactionsSummary{Kinds: []string{}})
	return &resp, nil
}

func (s *commentService) GetComment(ctx context.Context, id uuid.UUID) (*dto.CommentResponse, error) {
	comment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("comment not found")
		}
		return nil, err
	}
	if comment.IsDeleted && !comment.HasReplies {
		return nil, apperror.NotFound("comment not found")
	}

	responses, err := s.mapComments(ctx, []*entity.Comment{comment})
	if err != nil {
		return nil, err
	}
	return &responses[0], nil
}

func (s *commentService) ListPostComments(ctx context.Context, postID uuid.UUID, filter pkgdto.PageFilter) ([]dto.CommentResponse, pkgdto.PaginationMeta, error) {
	filter.Clamp(10, 30)

	if _, err := s.posts.FindActiveOwner(ctx, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgdto.PaginationMeta{}, apperror.NotFound("post not found")
		}
		return nil, pkgdto.PaginationMeta{}, err
	}

	comments, err := s.repo.FindVisibleTopLevel(ctx, postID, filter.Limit, filter.Offset())
	if err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}
	total, err := s.repo.CountVisibleTopLevel(ctx, postID)
	if err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}

	responses, err := s.mapComments(ctx, comments)
	if err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}
	return responses, pkgdto.NewPaginationMeta(filter, total), nil
}

func (s *commentService) ListReplies(ctx context.Context, parentID uuid.UUID, filter pkgdto.PageFilter) ([]dto.CommentResponse, pkgdto.PaginationMeta, error) {
	filter.Clamp(10, 30)

	parent, err := s.repo.FindByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgdto.PaginationMeta{}, apperror.NotFound("comment not found")
		}
		return nil, pkgdto.PaginationMeta{}, err
	}
	if parent.IsDeleted && !parent.HasReplies {
		return nil, pkgdto.PaginationMeta{}, apperror.NotFound("comment not found")
	}

	comments, err := s.repo.FindVisibleReplies(ctx, parentID, filter.Limit, filter.Offset())
	if err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}
	total, err := s.repo.CountVisibleReplies(ctx, parentID)
	if err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}

	responses, err := s.mapComments(ctx, comments)
	if err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}
	return responses, pkgdto.NewPaginationMeta(filter, total), nil
}

func (s *commentService) UpdateComment(ctx context.Context, userID uuid.UUID, role string, commentID uuid.UUID, req dto.UpdateCommentRequest) (*dto.CommentResponse, error) {
	comment, err := s.repo.FindActiveByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("comment not found")
		}
		return nil, err
	}
	if comment.UserID != userID && role != entity.RoleAdmin {
		return nil, apperror.Forbidden("you can only edit your own comments")
	}

	// Replacing the attachment drops the old media.
	if req.AttachmentID != nil {
		claimed, err := s.attachments.FindUnattachedByIDs(ctx, []uint{*req.AttachmentID}, userID)
		if err != nil {
			return nil, err
		}
		if len(claimed) != 1 {
			return nil, apperror.BadRequest("attachment not found or already used")
		}
		if comment.Attachment != nil {
			if err := s.mediaStorage.Destroy(ctx, comment.Attachment.PublicID); err != nil {
				log.Printf("failed to destroy media %s: %v", comment.Attachment.PublicID, err)
			}
			if err := s.attachments.DeleteByIDs(ctx, []uint{comment.Attachment.ID}); err != nil {
				return nil, err
			}
		}
		if err := s.attachments.AttachToComment(ctx, *req.AttachmentID, comment.ID); err != nil {
			return nil, err
		}
		comment.Attachment = &claimed[0]
	}

	if req.Content != nil {
		comment.Content = trimContent(req.Content)
	}
	if !hasContent(comment.Content) && comment.Attachment == nil {
		return nil, apperror.BadRequest("comment needs content or an attachment")
	}

	if err := s.repo.Save(ctx, comment); err != nil {
		return nil, err
	}

	if req.Mentions != nil {
		mentioned, err := s.resolveMentions(ctx, req.Mentions)
		if err != nil {
			return nil, err
		}
		if err := s.repo.ReplaceMentions(ctx, comment, mentioned); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.FindByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	responses, err := s.mapComments(ctx, []*entity.Comment{updated})
	if err != nil {
		return nil, err
	}
	return &responses[0], nil
}

// SoftDeleteComment marks the comment and every still active descendant with
// the actor's deletion tag. Descendants that were already deleted keep their
// original tag, a later restore of this subtree will not touch them.
func (s *commentService) SoftDeleteComment(ctx context.Context, userID uuid.UUID, role string, commentID uuid.UUID) (*dto.DeleteCommentResponse, error) {
	comment, err := s.repo.FindActiveByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("comment not found")
		}
		return nil, err
	}

	deletedBy, err := s.deletionTag(ctx, userID, role, comment)
	if err != nil {
		return nil, err
	}

	ids, err := s.collectSubtree(ctx, commentID, repository.ChildFilter{State: repository.ChildActive})
	if err != nil {
		return nil, err
	}

	if err := s.repo.MarkDeleted(ctx, ids, deletedBy, time.Now()); err != nil {
		return nil, err
	}

	if comment.ParentID != nil {
		if err := s.repo.AdjustRepliesCount(ctx, *comment.ParentID, -1); err != nil {
			return nil, err
		}
	}

	return &dto.DeleteCommentResponse{DeletedCount: len(ids)}, nil
}

// RestoreComment undoes a soft delete. Only descendants that were deleted by
// the same cascade (same deletion tag) come back, and the parent's reply
// counter is re-incremented to mirror the delete.
func (s *commentService) RestoreComment(ctx context.Context, userID uuid.UUID, role string, commentID uuid.UUID) (*dto.RestoreCommentResponse, error) {
	comment, err := s.repo.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("comment not found")
		}
		return nil, err
	}
	if !comment.IsDeleted {
		return nil, apperror.Conflict("comment is not deleted")
	}

	cause := entity.CommentDeletedByUser
	if comment.DeletedBy != nil {
		cause = *comment.DeletedBy
	}
	if cause == entity.CommentDeletedByPost {
		return nil, apperror.Conflict("comment was deleted with its post, restore the post instead")
	}

	if role != entity.RoleAdmin && !(comment.UserID == userID && cause == entity.CommentDeletedByUser) {
		return nil, apperror.Forbidden("you cannot restore this comment")
	}

	ids, err := s.collectSubtree(ctx, commentID, repository.ChildFilter{
		State:     repository.ChildDeleted,
		DeletedBy: &cause,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.ClearDeleted(ctx, ids); err != nil {
		return nil, err
	}

	if comment.ParentID != nil {
		if err := s.repo.AdjustRepliesCount(ctx, *comment.ParentID, 1); err != nil {
			return nil, err
		}
	}

	return &dto.RestoreCommentResponse{RestoredCount: len(ids)}, nil
}

// HardDeleteComment purges the whole subtree regardless of deletion state:
// media, reactions and rows. Admin surface only.
func (s *commentService) HardDeleteComment(ctx context.Context, commentID uuid.UUID) error {
	comment, err := s.repo.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("comment not found")
		}
		return err
	}

	ids, err := s.collectSubtree(ctx, commentID, repository.ChildFilter{State: repository.ChildAny})
	if err != nil {
		return err
	}

	attachments, err := s.attachments.FindByCommentIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, attachment := range attachments {
		if err := s.mediaStorage.Destroy(ctx, attachment.PublicID); err != nil {
			log.Printf("failed to destroy media %s: %v", attachment.PublicID, err)
		}
	}

	if err := s.purger.PurgeRefs(ctx, entity.ReactionRefComment, ids); err != nil {
		return err
	}

	// The parent was only decremented before if the root was still active.
	if !comment.IsDeleted && comment.ParentID != nil {
		if err := s.repo.AdjustRepliesCount(ctx, *comment.ParentID, -1); err != nil {
			return err
		}
	}

	return s.repo.DeleteByIDs(ctx, ids)
}

// PreviewForPost returns the newest visible top-level comments for the post
// detail view.
func (s *commentService) PreviewForPost(ctx context.Context, postID uuid.UUID, limit int) ([]dto.CommentResponse, error) {
	comments, err := s.repo.FindVisibleTopLevel(ctx, postID, limit, 0)
	if err != nil {
		return nil, err
	}
	return s.mapComments(ctx, comments)
}

func (s *commentService) CountsForPost(ctx context.Context, postID uuid.UUID) (int64, int64, error) {
	firstLevel, err := s.repo.CountVisibleTopLevel(ctx, postID)
	if err != nil {
		return 0, 0, err
	}
	total, err := s.repo.CountVisibleByPost(ctx, postID)
	if err != nil {
		return 0, 0, err
	}
	return firstLevel, total, nil
}

// deletionTag derives who the delete is attributed to. The tag later scopes
// restores: a post owner's moderation delete cannot be undone by the author.
func (s *commentService) deletionTag(ctx context.Context, userID uuid.UUID, role string, comment *entity.Comment) (string, error) {
	if role == entity.RoleAdmin {
		return entity.CommentDeletedByAdmin, nil
	}
	if comment.UserID == userID {
		return entity.CommentDeletedByUser, nil
	}

	owner, err := s.posts.FindActiveOwner(ctx, comment.PostID)
	if err == nil && owner == userID {
		return entity.CommentDeletedByPostOwner, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	return "", apperror.Forbidden("you cannot delete this comment")
}

// collectSubtree walks the reply tree level by level starting at rootID and
// returns the root plus every matching descendant.
func (s *commentService) collectSubtree(ctx context.Context, rootID uuid.UUID, filter repository.ChildFilter) ([]uuid.UUID, error) {
	ids := []uuid.UUID{rootID}
	frontier := []uuid.UUID{rootID}
	for len(frontier) > 0 {
		children, err := s.repo.FindChildIDs(ctx, frontier, filter)
		if err != nil {
			return nil, err
		}
		if len(children) == 0 {
			break
		}
		ids = append(ids, children...)
		frontier = children
	}
	return ids, nil
}

func (s *commentService) resolveMentions(ctx context.Context, ids []uuid.UUID) ([]*entity.User, error) {
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

func (s *commentService) mapComments(ctx context.Context, comments []*entity.Comment) ([]dto.CommentResponse, error) {
	activeIDs := make([]uuid.UUID, 0, len(comments))
	for _, comment := range comments {
		if !comment.IsDeleted {
			activeIDs = append(activeIDs, comment.ID)
		}
	}

	summaries := map[uuid.UUID]pkgdto.ReactionsSummary{}
	if len(activeIDs) > 0 {
		var err error
		summaries, err = s.reactions.Summaries(ctx, entity.ReactionRefComment, activeIDs)
		if err != nil {
			return nil, err
		}
	}

	responses := make([]dto.CommentResponse, 0, len(comments))
	for _, comment := range comments {
		summary, ok := summaries[comment.ID]
		if !ok {
			summary = pkgdto.ReactionsSummary{Kinds: []string{}}
		}
		responses = append(responses, s.mapComment(comment, summary))
	}
	return responses, nil
}

func (s *commentService) mapComment(comment *entity.Comment, summary pkgdto.ReactionsSummary) dto.CommentResponse {
	resp := dto.CommentResponse{
		ID:           comment.ID,
		PostID:       comment.PostID,
		ParentID:     comment.ParentID,
		RepliesCount: comment.RepliesCount,
		HasReplies:   comment.HasReplies,
		IsDeleted:    comment.IsDeleted,
		Reactions:    summary,
		CreatedAt:    comment.CreatedAt,
		UpdatedAt:    comment.UpdatedAt,
	}

	// Deleted nodes render as placeholders, everything identifying is gone.
	if comment.IsDeleted {
		resp.Reactions = pkgdto.ReactionsSummary{Kinds: []string{}}
		return resp
	}

	resp.Content = comment.Content
	resp.Author = &pkgdto.AuthorResponse{
		ID:        comment.User.ID,
		FullName:  comment.User.FullName(),
		AvatarURL: comment.User.AvatarURL,
	}
	if comment.Attachment != nil {
		resp.Attachment = &pkgdto.AttachmentResponse{
			ID:        comment.Attachment.ID,
			FileURL:   comment.Attachment.FileURL,
			MediaType: comment.Attachment.MediaType,
		}
	}
	for _, user := range comment.Mentions {
		resp.Mentions = append(resp.Mentions, pkgdto.AuthorResponse{
			ID:        user.ID,
			FullName:  user.FullName(),
			AvatarURL: user.AvatarURL,
		})
	}
	return resp
}

func hasContent(content *string) bool {
	return content != nil && strings.TrimSpace(*content) != ""
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

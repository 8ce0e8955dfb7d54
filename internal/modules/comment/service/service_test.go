package service

import (
	"context"
	"io"
	"sort"
	"testing"
	"time"

	"sociafy/internal/entity"
	"sociafy/internal/modules/comment/dto"
	"sociafy/internal/modules/comment/repository"
	"sociafy/pkg/apperror"
	pkgdto "sociafy/pkg/dto"
	"sociafy/pkg/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeCommentRepo keeps the reply forest in memory and mirrors the SQL
// semantics of the real repository, including the single-statement counter
// update where has_replies is derived from the pre-update replies_count.
type fakeCommentRepo struct {
	comments map[uuid.UUID]*entity.Comment
	users    map[uuid.UUID]*entity.User
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: map[uuid.UUID]*entity.Comment{}}
}

func (f *fakeCommentRepo) visible(c *entity.Comment) bool {
	return !c.IsDeleted || c.HasReplies
}

func (f *fakeCommentRepo) adjust(id uuid.UUID, delta int) {
	c, ok := f.comments[id]
	if !ok {
		return
	}
	next := c.RepliesCount + delta
	c.HasReplies = next > 0
	if next < 0 {
		next = 0
	}
	c.RepliesCount = next
}

func (f *fakeCommentRepo) Create(ctx context.Context, comment *entity.Comment) error {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	comment.CreatedAt = time.Now()
	f.comments[comment.ID] = comment
	if comment.ParentID != nil {
		f.adjust(*comment.ParentID, 1)
	}
	return nil
}

// hydrate mirrors the real repository's Preload("User").
func (f *fakeCommentRepo) hydrate(c *entity.Comment) *entity.Comment {
	if u, ok := f.users[c.UserID]; ok {
		c.User = *u
	}
	return c
}

func (f *fakeCommentRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Comment, error) {
	c, ok := f.comments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return f.hydrate(c), nil
}

func (f *fakeCommentRepo) FindActiveByID(ctx context.Context, id uuid.UUID) (*entity.Comment, error) {
	c, ok := f.comments[id]
	if !ok || c.IsDeleted {
		return nil, gorm.ErrRecordNotFound
	}
	return f.hydrate(c), nil
}

func (f *fakeCommentRepo) ResolveSubject(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	c, err := f.FindActiveByID(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	return c.UserID, nil
}

func (f *fakeCommentRepo) FindVisibleTopLevel(ctx context.Context, postID uuid.UUID, limit, offset int) ([]*entity.Comment, error) {
	var out []*entity.Comment
	for _, c := range f.comments {
		if c.PostID == postID && c.ParentID == nil && f.visible(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset), nil
}

func (f *fakeCommentRepo) CountVisibleTopLevel(ctx context.Context, postID uuid.UUID) (int64, error) {
	var count int64
	for _, c := range f.comments {
		if c.PostID == postID && c.ParentID == nil && f.visible(c) {
			count++
		}
	}
	return count, nil
}

func (f *fakeCommentRepo) CountVisibleByPost(ctx context.Context, postID uuid.UUID) (int64, error) {
	var count int64
	for _, c := range f.comments {
		if c.PostID == postID && f.visible(c) {
			count++
		}
	}
	return count, nil
}

func (f *fakeCommentRepo) FindVisibleReplies(ctx context.Context, parentID uuid.UUID, limit, offset int) ([]*entity.Comment, error) {
	var out []*entity.Comment
	for _, c := range f.comments {
		if c.ParentID != nil && *c.ParentID == parentID && f.visible(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset), nil
}

func (f *fakeCommentRepo) CountVisibleReplies(ctx context.Context, parentID uuid.UUID) (int64, error) {
	replies, _ := f.FindVisibleReplies(ctx, parentID, len(f.comments), 0)
	return int64(len(replies)), nil
}

func (f *fakeCommentRepo) FindChildIDs(ctx context.Context, parentIDs []uuid.UUID, filter repository.ChildFilter) ([]uuid.UUID, error) {
	parents := map[uuid.UUID]bool{}
	for _, id := range parentIDs {
		parents[id] = true
	}

	var ids []uuid.UUID
	for _, c := range f.comments {
		if c.ParentID == nil || !parents[*c.ParentID] {
			continue
		}
		switch filter.State {
		case repository.ChildActive:
			if c.IsDeleted {
				continue
			}
		case repository.ChildDeleted:
			if !c.IsDeleted {
				continue
			}
			if filter.DeletedBy != nil && (c.DeletedBy == nil || *c.DeletedBy != *filter.DeletedBy) {
				continue
			}
		}
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (f *fakeCommentRepo) FindIDsByPost(ctx context.Context, postID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, c := range f.comments {
		if c.PostID == postID {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

func (f *fakeCommentRepo) MarkDeleted(ctx context.Context, ids []uuid.UUID, deletedBy string, at time.Time) error {
	for _, id := range ids {
		if c, ok := f.comments[id]; ok {
			tag := deletedBy
			c.IsDeleted = true
			c.DeletedAt = &at
			c.DeletedBy = &tag
		}
	}
	return nil
}

func (f *fakeCommentRepo) ClearDeleted(ctx context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		if c, ok := f.comments[id]; ok {
			c.IsDeleted = false
			c.DeletedAt = nil
			c.DeletedBy = nil
		}
	}
	return nil
}

func (f *fakeCommentRepo) MarkPostCommentsDeleted(ctx context.Context, postID uuid.UUID, deletedBy string, at time.Time) (int64, error) {
	var affected int64
	for _, c := range f.comments {
		if c.PostID == postID && !c.IsDeleted {
			tag := deletedBy
			c.IsDeleted = true
			c.DeletedAt = &at
			c.DeletedBy = &tag
			affected++
		}
	}
	return affected, nil
}

func (f *fakeCommentRepo) RestorePostComments(ctx context.Context, postID uuid.UUID, deletedBy string) (int64, error) {
	var affected int64
	for _, c := range f.comments {
		if c.PostID == postID && c.IsDeleted && c.DeletedBy != nil && *c.DeletedBy == deletedBy {
			c.IsDeleted = false
			c.DeletedAt = nil
			c.DeletedBy = nil
			affected++
		}
	}
	return affected, nil
}

func (f *fakeCommentRepo) AdjustRepliesCount(ctx context.Context, id uuid.UUID, delta int) error {
	f.adjust(id, delta)
	return nil
}

func (f *fakeCommentRepo) Save(ctx context.Context, comment *entity.Comment) error {
	f.comments[comment.ID] = comment
	return nil
}

func (f *fakeCommentRepo) ReplaceMentions(ctx context.Context, comment *entity.Comment, users []*entity.User) error {
	comment.Mentions = nil
	for _, u := range users {
		comment.Mentions = append(comment.Mentions, *u)
	}
	return nil
}

func (f *fakeCommentRepo) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		delete(f.comments, id)
	}
	return nil
}

func paginate(comments []*entity.Comment, limit, offset int) []*entity.Comment {
	if offset >= len(comments) {
		return nil
	}
	comments = comments[offset:]
	if limit > 0 && limit < len(comments) {
		comments = comments[:limit]
	}
	return comments
}

type fakeAttachmentRepo struct {
	attachments map[uint]*entity.Attachment
}

func (f *fakeAttachmentRepo) Create(ctx context.Context, a *entity.Attachment) error {
	f.attachments[a.ID] = a
	return nil
}

func (f *fakeAttachmentRepo) FindUnattachedByIDs(ctx context.Context, ids []uint, userID uuid.UUID) ([]entity.Attachment, error) {
	var out []entity.Attachment
	for _, id := range ids {
		a, ok := f.attachments[id]
		if ok && a.UserID == userID && a.PostID == nil && a.CommentID == nil {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAttachmentRepo) AttachToPost(ctx context.Context, ids []uint, postID uuid.UUID) error {
	for _, id := range ids {
		if a, ok := f.attachments[id]; ok {
			a.PostID = &postID
		}
	}
	return nil
}

func (f *fakeAttachmentRepo) AttachToComment(ctx context.Context, id uint, commentID uuid.UUID) error {
	if a, ok := f.attachments[id]; ok {
		a.CommentID = &commentID
	}
	return nil
}

func (f *fakeAttachmentRepo) FindByPostID(ctx context.Context, postID uuid.UUID) ([]entity.Attachment, error) {
	return nil, nil
}

func (f *fakeAttachmentRepo) FindByCommentIDs(ctx context.Context, commentIDs []uuid.UUID) ([]entity.Attachment, error) {
	var out []entity.Attachment
	for _, a := range f.attachments {
		if a.CommentID == nil {
			continue
		}
		for _, id := range commentIDs {
			if *a.CommentID == id {
				out = append(out, *a)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeAttachmentRepo) FindOrphans(ctx context.Context, olderThan time.Time) ([]entity.Attachment, error) {
	return nil, nil
}

func (f *fakeAttachmentRepo) DeleteByIDs(ctx context.Context, ids []uint) error {
	for _, id := range ids {
		delete(f.attachments, id)
	}
	return nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*entity.User
}

func (f *fakeUserRepo) Create(ctx context.Context, u *entity.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.User, error) {
	var out []*entity.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) CountByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	users, _ := f.FindByIDs(ctx, ids)
	return int64(len(users)), nil
}

func (f *fakeUserRepo) Save(ctx context.Context, u *entity.User) error {
	f.users[u.ID] = u
	return nil
}

type fakePostSource struct {
	owners map[uuid.UUID]uuid.UUID
}

func (f *fakePostSource) FindActiveOwner(ctx context.Context, postID uuid.UUID) (uuid.UUID, error) {
	owner, ok := f.owners[postID]
	if !ok {
		return uuid.Nil, gorm.ErrRecordNotFound
	}
	return owner, nil
}

type fakeBlocks struct {
	blocked bool
}

func (f *fakeBlocks) IsBlockedEither(ctx context.Context, a, b uuid.UUID) (bool, error) {
	return f.blocked, nil
}

type fakeSummarizer struct{}

func (f *fakeSummarizer) Summaries(ctx context.Context, refType string, ids []uuid.UUID) (map[uuid.UUID]pkgdto.ReactionsSummary, error) {
	return map[uuid.UUID]pkgdto.ReactionsSummary{}, nil
}

type fakePurger struct {
	refType string
	ids     []uuid.UUID
}

func (f *fakePurger) PurgeRefs(ctx context.Context, refType string, ids []uuid.UUID) error {
	f.refType = refType
	f.ids = ids
	return nil
}

type fakeCommentNotifier struct {
	replies  []uuid.UUID
	mentions []uuid.UUID
}

func (f *fakeCommentNotifier) NotifyReply(recipientID, actorID, commentID uuid.UUID) {
	f.replies = append(f.replies, recipientID)
}

func (f *fakeCommentNotifier) NotifyMention(recipientID, actorID uuid.UUID, refType string, refID uuid.UUID) {
	f.mentions = append(f.mentions, recipientID)
}

type fakeStorage struct {
	destroyed []string
}

func (f *fakeStorage) Upload(ctx context.Context, r io.Reader, folder, fileName string) (*storage.UploadResult, error) {
	return &storage.UploadResult{}, nil
}

func (f *fakeStorage) Destroy(ctx context.Context, publicID string) error {
	f.destroyed = append(f.destroyed, publicID)
	return nil
}

type commentFixture struct {
	svc      CommentService
	repo     *fakeCommentRepo
	files    *fakeAttachmentRepo
	users    *fakeUserRepo
	posts    *fakePostSource
	blocks   *fakeBlocks
	purger   *fakePurger
	notifier *fakeCommentNotifier
	media    *fakeStorage

	postID  uuid.UUID
	ownerID uuid.UUID
	author  *entity.User
	other   *entity.User
}

func newCommentFixture(t *testing.T) *commentFixture {
	t.Helper()

	f := &commentFixture{
		repo:     newFakeCommentRepo(),
		files:    &fakeAttachmentRepo{attachments: map[uint]*entity.Attachment{}},
		users:    &fakeUserRepo{users: map[uuid.UUID]*entity.User{}},
		posts:    &fakePostSource{owners: map[uuid.UUID]uuid.UUID{}},
		blocks:   &fakeBlocks{},
		purger:   &fakePurger{},
		notifier: &fakeCommentNotifier{},
		media:    &fakeStorage{},
	}
	f.repo.users = f.users.users

	f.ownerID = uuid.New()
	f.postID = uuid.New()
	f.posts.owners[f.postID] = f.ownerID

	f.author = &entity.User{ID: uuid.New(), FirstName: "Ana", LastName: "Pratama"}
	f.other = &entity.User{ID: uuid.New(), FirstName: "Budi", LastName: "Santoso"}
	f.users.users[f.author.ID] = f.author
	f.users.users[f.other.ID] = f.other
	f.users.users[f.ownerID] = &entity.User{ID: f.ownerID, FirstName: "Owner", LastName: "User"}

	f.svc = NewCommentService(f.repo, f.files, f.users, f.posts, f.blocks, &fakeSummarizer{}, f.purger, f.notifier, f.media, nil)
	return f
}

func (f *commentFixture) seedComment(t *testing.T, user *entity.User, parentID *uuid.UUID) *entity.Comment {
	t.Helper()

	content := "hello"
	comment := &entity.Comment{
		PostID:   f.postID,
		UserID:   user.ID,
		User:     *user,
		ParentID: parentID,
		Content:  &content,
	}
	require.NoError(t, f.repo.Create(context.Background(), comment))
	return comment
}

func strPtr(s string) *string { return &s }

func TestCreateComment_TopLevel(t *testing.T) {
	f := newCommentFixture(t)

	resp, err := f.svc.CreateComment(context.Background(), f.author.ID, f.postID, dto.CreateCommentRequest{
		Content: strPtr("  first!  "),
	})
	require.NoError(t, err)

	assert.Equal(t, "first!", *resp.Content)
	assert.Nil(t, resp.ParentID)
	assert.Equal(t, 0, resp.RepliesCount)
	require.NotNil(t, resp.Author)
	assert.Equal(t, f.author.ID, resp.Author.ID)
}

func TestCreateComment_ReplyIncrementsParentCounter(t *testing.T) {
	f := newCommentFixture(t)
	parent := f.seedComment(t, f.author, nil)

	_, err := f.svc.CreateComment(context.Background(), f.other.ID, f.postID, dto.CreateCommentRequest{
		Content:  strPtr("a reply"),
		ParentID: &parent.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, parent.RepliesCount)
	assert.True(t, parent.HasReplies)
	assert.Equal(t, []uuid.UUID{f.author.ID}, f.notifier.replies)
}

func TestCreateComment_SelfReplySkipsNotification(t *testing.T) {
	f := newCommentFixture(t)
	parent := f.seedComment(t, f.author, nil)

	_, err := f.svc.CreateComment(context.Background(), f.author.ID, f.postID, dto.CreateCommentRequest{
		Content:  strPtr("replying to myself"),
		ParentID: &parent.ID,
	})
	require.NoError(t, err)
	assert.Empty(t, f.notifier.replies)
}

func TestCreateComment_RequiresContentOrAttachment(t *testing.T) {
	f := newCommentFixture(t)

	_, err := f.svc.CreateComment(context.Background(), f.author.ID, f.postID, dto.CreateCommentRequest{
		Content: strPtr("   "),
	})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
}

func TestCreateComment_PostNotFound(t *testing.T) {
	f := newCommentFixture(t)

	_, err := f.svc.CreateComment(context.Background(), f.author.ID, uuid.New(), dto.CreateCommentRequest{
		Content: strPtr("hello"),
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCreateComment_BlockedForbidden(t *testing.T) {
	f := newCommentFixture(t)
	f.blocks.blocked = true

	_, err := f.svc.CreateComment(context.Background(), f.author.ID, f.postID, dto.CreateCommentRequest{
		Content: strPtr("let me in"),
	})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestCreateComment_ParentFromAnotherPost(t *testing.T) {
	f := newCommentFixture(t)
	parent := f.seedComment(t, f.author, nil)

	otherPost := uuid.New()
	f.posts.owners[otherPost] = f.ownerID

	_, err := f.svc.CreateComment(context.Background(), f.other.ID, otherPost, dto.CreateCommentRequest{
		Content:  strPtr("wrong thread"),
		ParentID: &parent.ID,
	})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
}

func TestCreateComment_DeletedParentNotFound(t *testing.T) {
	f := newCommentFixture(t)
	parent := f.seedComment(t, f.author, nil)
	parent.IsDeleted = true

	_, err := f.svc.CreateComment(context.Background(), f.other.ID, f.postID, dto.CreateCommentRequest{
		Content:  strPtr("too late"),
		ParentID: &parent.ID,
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCreateComment_UnknownMentionRejected(t *testing.T) {
	f := newCommentFixture(t)

	_, err := f.svc.CreateComment(context.Background(), f.author.ID, f.postID, dto.CreateCommentRequest{
		Content:  strPtr("hey @ghost"),
		Mentions: []uuid.UUID{uuid.New()},
	})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
}

func TestUpdateComment_AdminCanModerate(t *testing.T) {
	f := newCommentFixture(t)
	comment := f.seedComment(t, f.author, nil)

	resp, err := f.svc.UpdateComment(context.Background(), f.other.ID, entity.RoleAdmin, comment.ID, dto.UpdateCommentRequest{
		Content: strPtr("cleaned up"),
	})
	require.NoError(t, err)
	assert.Equal(t, "cleaned up", *resp.Content)
}

func TestUpdateComment_StrangerForbidden(t *testing.T) {
	f := newCommentFixture(t)
	comment := f.seedComment(t, f.author, nil)

	_, err := f.svc.UpdateComment(context.Background(), f.other.ID, entity.RoleUser, comment.ID, dto.UpdateCommentRequest{
		Content: strPtr("not yours"),
	})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestUpdateComment_ReplacesAttachment(t *testing.T) {
	f := newCommentFixture(t)
	comment := f.seedComment(t, f.author, nil)

	old := &entity.Attachment{ID: 1, UserID: f.author.ID, CommentID: &comment.ID, PublicID: "old-media"}
	f.files.attachments[old.ID] = old
	comment.Attachment = old

	f.files.attachments[2] = &entity.Attachment{ID: 2, UserID: f.author.ID, PublicID: "new-media"}

	newID := uint(2)
	_, err := f.svc.UpdateComment(context.Background(), f.author.ID, entity.RoleUser, comment.ID, dto.UpdateCommentRequest{
		AttachmentID: &newID,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"old-media"}, f.media.destroyed)
	assert.NotContains(t, f.files.attachments, uint(1))
	require.NotNil(t, f.files.attachments[2].CommentID)
	assert.Equal(t, comment.ID, *f.files.attachments[2].CommentID)
}

func TestSoftDeleteComment_CascadesActiveSubtree(t *testing.T) {
	f := newCommentFixture(t)
	a := f.seedComment(t, f.author, nil)
	b := f.seedComment(t, f.other, &a.ID)
	c := f.seedComment(t, f.author, &b.ID)

	resp, err := f.svc.SoftDeleteComment(context.Background(), f.author.ID, entity.RoleUser, a.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, resp.DeletedCount)
	for _, node := range []*entity.Comment{a, b, c} {
		assert.True(t, node.IsDeleted)
		require.NotNil(t, node.DeletedBy)
		assert.Equal(t, entity.CommentDeletedByUser, *node.DeletedBy)
	}
}

func TestSoftDeleteComment_StopsAtAlreadyDeletedBranch(t *testing.T) {
	f := newCommentFixture(t)
	a := f.seedComment(t, f.author, nil)
	b := f.seedComment(t, f.other, &a.ID)
	c := f.seedComment(t, f.author, &b.ID)

	// An admin removed B earlier; B's subtree keeps that tag.
	admin := uuid.New()
	_, err := f.svc.SoftDeleteComment(context.Background(), admin, entity.RoleAdmin, b.ID)
	require.NoError(t, err)

	resp, err := f.svc.SoftDeleteComment(context.Background(), f.author.ID, entity.RoleUser, a.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, resp.DeletedCount)
	assert.Equal(t, entity.CommentDeletedByAdmin, *b.DeletedBy)
	assert.Equal(t, entity.CommentDeletedByAdmin, *c.DeletedBy)
	assert.Equal(t, entity.CommentDeletedByUser, *a.DeletedBy)
}

func TestSoftDeleteComment_DeletedRootNotFound(t *testing.T) {
	f := newCommentFixture(t)
	a := f.seedComment(t, f.author, nil)

	_, err := f.svc.SoftDeleteComment(context.Background(), f.author.ID, entity.RoleUser, a.ID)
	require.NoError(t, err)

	_, err = f.svc.SoftDeleteComment(context.Background(), f.author.ID, entity.RoleUser, a.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSoftDeleteComment_DecrementsParentCounter(t *testing.T) {
	f := newCommentFixture(t)
	parent := f.seedComment(t, f.author, nil)
	reply1 := f.seedComment(t, f.other, &parent.ID)
	reply2 := f.seedComment(t, f.other, &parent.ID)

	require.Equal(t, 2, parent.RepliesCount)

	_, err := f.svc.SoftDeleteComment(context.Background(), f.other.ID, entity.RoleUser, reply1.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, parent.RepliesCount)
	assert.True(t, parent.HasReplies)

	_, err = f.svc.SoftDeleteComment(context.Background(), f.other.ID, entity.RoleUser, reply2.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, parent.RepliesCount)
	assert.False(t, parent.HasReplies)
}

func TestSoftDeleteComment_PostOwnerTag(t *testing.T) {
	f := newCommentFixture(t)
	a := f.seedComment(t, f.author, nil)

	_, err := f.svc.SoftDeleteComment(context.Background(), f.ownerID, entity.RoleUser, a.ID)
	require.NoError(t, err)

	require.NotNil(t, a.DeletedBy)
	assert.Equal(t, entity.CommentDeletedByPostOwner, *a.DeletedBy)
}

func TestSoftDeleteComment_AdminOwnCommentTaggedAdmin(t *testing.T) {
	f := newCommentFixture(t)
	a := f.seedComment(t, f.author, nil)

	// The admin role wins over authorship when attributing the delete.
	_, err := f.svc.SoftDeleteComment(context.Background(), f.author.ID, entity.RoleAdmin, a.ID)
	require.NoError(t, err)

	require.NotNil(t, a.DeletedBy)
	assert.Equal(t, entity.CommentDeletedByAdmin, *a.DeletedBy)
}

func TestSoftDeleteComment_StrangerForbidden(t *testing.T) {
	f := newCommentFixture(t)
	a := f.seedComment(t, f.author, nil)

	_, err := f.svc.SoftDeleteComment(context.Background(), f.other.ID, entity.RoleUser, a.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.False(t, a.IsDeleted)
}

func TestRestoreComment_ReincrementsParentCounter(t *testing.T) {
	f := newCommentFixture(t)
	parent := f.seedComment(t, f.author, nil)
	reply := f.seedComment(t, f.other, &parent.ID)

	_, err := f.svc.SoftDeleteComment(context.Background(), f.other.ID, entity.RoleUser, reply.ID)
	require.NoError(t, err)
	require.Equal(t, 0, parent.RepliesCount)

	resp, err := f.svc.RestoreComment(context.Background(), f.other.ID, entity.RoleUser, reply.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, resp.RestoredCount)
	assert.False(t, reply.IsDeleted)
	assert.Equal(t, 1, parent.RepliesCount)
	assert.True(t, parent.HasReplies)
}

func TestRestoreComment_OnlyFollowsSameCause(t *testing.T) {
	f := newCommentFixture(t)
	a := f.seedComment(t, f.author, nil)
	b := f.seedComment(t, f.other, &a.ID)

	admin := uuid.New()
	_, err := f.svc.SoftDeleteComment(context.Background(), admin, entity.RoleAdmin, b.ID)
	require.NoError(t, err)

	_, err = f.svc.SoftDeleteComment(context.Background(), f.author.ID, entity.RoleUser, a.ID)
	require.NoError(t, err)

	resp, err := f.svc.RestoreComment(context.Background(), f.author.ID, entity.RoleUser, a.ID)
	require.NoError(t, err)

	// A comes back, the admin-deleted B stays gone.
	assert.Equal(t, 1, resp.RestoredCount)
	assert.False(t, a.IsDeleted)
	assert.True(t, b.IsDeleted)
}

func TestRestoreComment_NotDeletedConflict(t *testing.T) {
	f := newCommentFixture(t)
	a := f.seedComment(t, f.author, nil)

	_, err := f.svc.RestoreComment(context.Background(), f.author.ID, entity.RoleUser, a.ID)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestRestoreComment_PostCascadeConflict(t *testing.T) {
	f := newCommentFixture(t)
	a := f.seedComment(t, f.author, nil)

	now := time.Now()
	require.NoError(t, f.repo.MarkDeleted(context.Background(), []uuid.UUID{a.ID}, entity.CommentDeletedByPost, now))

	// Even an admin cannot restore it directly, only the post restore can.
	_, err := f.svc.RestoreComment(context.Background(), uuid.New(), entity.RoleAdmin, a.ID)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestRestoreComment_AuthorCannotUndoModeration(t *testing.T) {
	f := newCommentFixture(t)
	a := f.seedComment(t, f.author, nil)

	admin := uuid.New()
	_, err := f.svc.SoftDeleteComment(context.Background(), admin, entity.RoleAdmin, a.ID)
	require.NoError(t, err)

	_, err = f.svc.RestoreComment(context.Background(), f.author.ID, entity.RoleUser, a.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	resp, err := f.svc.RestoreComment(context.Background(), admin, entity.RoleAdmin, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.RestoredCount)
}

func TestGetComment_DeletedLeafHidden(t *testing.T) {
	f := newCommentFixture(t)
	a := f.seedComment(t, f.author, nil)

	_, err := f.svc.SoftDeleteComment(context.Background(), f.author.ID, entity.RoleUser, a.ID)
	require.NoError(t, err)

	_, err = f.svc.GetComment(context.Background(), a.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestGetComment_DeletedAnchorRendersPlaceholder(t *testing.T) {
	f := newCommentFixture(t)
	a := f.seedComment(t, f.author, nil)
	f.seedComment(t, f.other, &a.ID)

	// Delete only the root. It still anchors a visible reply.
	now := time.Now()
	require.NoError(t, f.repo.MarkDeleted(context.Background(), []uuid.UUID{a.ID}, entity.CommentDeletedByUser, now))

	resp, err := f.svc.GetComment(context.Background(), a.ID)
	require.NoError(t, err)

	assert.True(t, resp.IsDeleted)
	assert.Nil(t, resp.Content)
	assert.Nil(t, resp.Author)
	assert.Nil(t, resp.Attachment)
	assert.Empty(t, resp.Mentions)
	assert.Equal(t, 1, resp.RepliesCount)
}

func TestListPostComments_HidesDeletedLeaves(t *testing.T) {
	f := newCommentFixture(t)
	f.seedComment(t, f.author, nil)
	gone := f.seedComment(t, f.other, nil)

	_, err := f.svc.SoftDeleteComment(context.Background(), f.other.ID, entity.RoleUser, gone.ID)
	require.NoError(t, err)

	responses, meta, err := f.svc.ListPostComments(context.Background(), f.postID, pkgdto.PageFilter{})
	require.NoError(t, err)

	assert.Len(t, responses, 1)
	assert.Equal(t, int64(1), meta.TotalItems)
}

func TestHardDeleteComment_PurgesWholeSubtree(t *testing.T) {
	f := newCommentFixture(t)
	a := f.seedComment(t, f.author, nil)
	b := f.seedComment(t, f.other, &a.ID)
	c := f.seedComment(t, f.author, &b.ID)

	// B was already soft deleted; hard delete must still take it out.
	_, err := f.svc.SoftDeleteComment(context.Background(), f.other.ID, entity.RoleUser, b.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.HardDeleteComment(context.Background(), a.ID))

	assert.Empty(t, f.repo.comments)
	assert.Equal(t, entity.ReactionRefComment, f.purger.refType)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID, c.ID}, f.purger.ids)
}

func TestCountsForPost(t *testing.T) {
	f := newCommentFixture(t)
	a := f.seedComment(t, f.author, nil)
	f.seedComment(t, f.other, nil)
	f.seedComment(t, f.other, &a.ID)

	firstLevel, total, err := f.svc.CountsForPost(context.Background(), f.postID)
	require.NoError(t, err)

	assert.Equal(t, int64(2), firstLevel)
	assert.Equal(t, int64(3), total)
}

func TestCountsForPost_CountsDeletedAnchors(t *testing.T) {
	f := newCommentFixture(t)
	a := f.seedComment(t, f.author, nil)
	f.seedComment(t, f.other, &a.ID)

	// A deleted root that still anchors a live reply stays visible as a
	// placeholder, so it counts in both totals.
	a.IsDeleted = true
	a.DeletedBy = strPtr(entity.CommentDeletedByUser)

	firstLevel, total, err := f.svc.CountsForPost(context.Background(), f.postID)
	require.NoError(t, err)

	assert.Equal(t, int64(1), firstLevel)
	assert.Equal(t, int64(2), total)
}

func TestListReplies_NewestFirst(t *testing.T) {
	f := newCommentFixture(t)
	parent := f.seedComment(t, f.author, nil)

	older := f.seedComment(t, f.other, &parent.ID)
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := f.seedComment(t, f.other, &parent.ID)

	replies, _, err := f.svc.ListReplies(context.Background(), parent.ID, pkgdto.PageFilter{})
	require.NoError(t, err)

	require.Len(t, replies, 2)
	assert.Equal(t, newer.ID, replies[0].ID)
	assert.Equal(t, older.ID, replies[1].ID)
}

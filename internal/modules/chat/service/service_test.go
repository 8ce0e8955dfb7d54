package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"sociafy/internal/entity"
	"sociafy/internal/modules/chat/dto"
	"sociafy/pkg/apperror"
	pkgdto "sociafy/pkg/dto"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeChatRepo struct {
	conversations map[uuid.UUID]*entity.Conversation
	messages      []*entity.Message
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{conversations: map[uuid.UUID]*entity.Conversation{}}
}

func (f *fakeChatRepo) GetOrCreateConversation(ctx context.Context, a, b uuid.UUID) (*entity.Conversation, error) {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	for _, c := range f.conversations {
		if c.UserAID == a && c.UserBID == b {
			return c, nil
		}
	}
	conversation := &entity.Conversation{ID: uuid.New(), UserAID: a, UserBID: b}
	f.conversations[conversation.ID] = conversation
	return conversation, nil
}

func (f *fakeChatRepo) FindConversationByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error) {
	c, ok := f.conversations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (f *fakeChatRepo) ListConversations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Conversation, error) {
	var out []*entity.Conversation
	for _, c := range f.conversations {
		if c.UserAID == userID || c.UserBID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChatRepo) CountConversations(ctx context.Context, userID uuid.UUID) (int64, error) {
	conversations, _ := f.ListConversations(ctx, userID, 0, 0)
	return int64(len(conversations)), nil
}

func (f *fakeChatRepo) TouchConversation(ctx context.Context, id uuid.UUID) error {
	if c, ok := f.conversations[id]; ok {
		c.UpdatedAt = time.Now()
	}
	return nil
}

func (f *fakeChatRepo) CreateMessage(ctx context.Context, message *entity.Message) error {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	message.CreatedAt = time.Now()
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeChatRepo) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*entity.Message, error) {
	var out []*entity.Message
	for _, m := range f.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeChatRepo) CountMessages(ctx context.Context, conversationID uuid.UUID) (int64, error) {
	messages, _ := f.ListMessages(ctx, conversationID, 0, 0)
	return int64(len(messages)), nil
}

func (f *fakeChatRepo) FindLastMessage(ctx context.Context, conversationID uuid.UUID) (*entity.Message, error) {
	messages, _ := f.ListMessages(ctx, conversationID, 0, 0)
	if len(messages) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return messages[len(messages)-1], nil
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

type fakeBlocks struct {
	blocked bool
}

func (f *fakeBlocks) IsBlockedEither(ctx context.Context, a, b uuid.UUID) (bool, error) {
	return f.blocked, nil
}

type chatFixture struct {
	svc    ChatService
	repo   *fakeChatRepo
	blocks *fakeBlocks
	alice  *entity.User
	bob    *entity.User
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()

	f := &chatFixture{
		repo:   newFakeChatRepo(),
		blocks: &fakeBlocks{},
		alice:  &entity.User{ID: uuid.New(), FirstName: "Alya", LastName: "Rahma"},
		bob:    &entity.User{ID: uuid.New(), FirstName: "Bagus", LastName: "Putra"},
	}

	users := &fakeUserRepo{users: map[uuid.UUID]*entity.User{
		f.alice.ID: f.alice,
		f.bob.ID:   f.bob,
	}}

	f.svc = NewChatService(f.repo, users, f.blocks, nil)
	return f
}

func TestSendMessage_PersistsAndTrims(t *testing.T) {
	f := newChatFixture(t)

	resp, err := f.svc.SendMessage(context.Background(), f.alice.ID, dto.SendMessageRequest{
		RecipientID: f.bob.ID,
		Content:     "  hi bob  ",
	})
	require.NoError(t, err)

	assert.Equal(t, "hi bob", resp.Content)
	assert.Equal(t, f.alice.ID, resp.Sender.ID)
	require.Len(t, f.repo.messages, 1)
}

func TestSendMessage_ReusesConversation(t *testing.T) {
	f := newChatFixture(t)

	first, err := f.svc.SendMessage(context.Background(), f.alice.ID, dto.SendMessageRequest{
		RecipientID: f.bob.ID,
		Content:     "hello",
	})
	require.NoError(t, err)

	// The reply lands in the same conversation regardless of direction.
	second, err := f.svc.SendMessage(context.Background(), f.bob.ID, dto.SendMessageRequest{
		RecipientID: f.alice.ID,
		Content:     "hello back",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ConversationID, second.ConversationID)
	assert.Len(t, f.repo.conversations, 1)
}

func TestSendMessage_ToSelf(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.svc.SendMessage(context.Background(), f.alice.ID, dto.SendMessageRequest{
		RecipientID: f.alice.ID,
		Content:     "note to self",
	})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
}

func TestSendMessage_EmptyContent(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.svc.SendMessage(context.Background(), f.alice.ID, dto.SendMessageRequest{
		RecipientID: f.bob.ID,
		Content:     "   ",
	})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
}

func TestSendMessage_UnknownRecipient(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.svc.SendMessage(context.Background(), f.alice.ID, dto.SendMessageRequest{
		RecipientID: uuid.New(),
		Content:     "anyone there",
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSendMessage_BlockedForbidden(t *testing.T) {
	f := newChatFixture(t)
	f.blocks.blocked = true

	_, err := f.svc.SendMessage(context.Background(), f.alice.ID, dto.SendMessageRequest{
		RecipientID: f.bob.ID,
		Content:     "hello?",
	})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.Empty(t, f.repo.messages)
}

func TestListMessages_NonMemberForbidden(t *testing.T) {
	f := newChatFixture(t)

	resp, err := f.svc.SendMessage(context.Background(), f.alice.ID, dto.SendMessageRequest{
		RecipientID: f.bob.ID,
		Content:     "private",
	})
	require.NoError(t, err)

	_, _, err = f.svc.ListMessages(context.Background(), uuid.New(), resp.ConversationID, pkgdto.PageFilter{})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestListConversations_IncludesLastMessage(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.svc.SendMessage(context.Background(), f.alice.ID, dto.SendMessageRequest{
		RecipientID: f.bob.ID,
		Content:     "first",
	})
	require.NoError(t, err)
	_, err = f.svc.SendMessage(context.Background(), f.alice.ID, dto.SendMessageRequest{
		RecipientID: f.bob.ID,
		Content:     "latest",
	})
	require.NoError(t, err)

	conversations, meta, err := f.svc.ListConversations(context.Background(), f.bob.ID, pkgdto.PageFilter{})
	require.NoError(t, err)

	require.Len(t, conversations, 1)
	assert.Equal(t, f.alice.ID, conversations[0].Peer.ID)
	require.NotNil(t, conversations[0].LastMessage)
	assert.Equal(t, "latest", conversations[0].LastMessage.Content)
	assert.Equal(t, int64(1), meta.TotalItems)
}

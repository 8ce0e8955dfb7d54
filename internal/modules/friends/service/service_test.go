package service

import (
	"context"
	"testing"

	"sociafy/internal/entity"
	"sociafy/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeFriendRepo struct {
	requests    map[uuid.UUID]*entity.FriendRequest
	friendships map[[2]uuid.UUID]bool
	blocks      map[[2]uuid.UUID]bool
}

func newFakeFriendRepo() *fakeFriendRepo {
	return &fakeFriendRepo{
		requests:    map[uuid.UUID]*entity.FriendRequest{},
		friendships: map[[2]uuid.UUID]bool{},
		blocks:      map[[2]uuid.UUID]bool{},
	}
}

func (f *fakeFriendRepo) CreateRequest(ctx context.Context, request *entity.FriendRequest) error {
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	f.requests[request.ID] = request
	return nil
}

func (f *fakeFriendRepo) FindRequestByID(ctx context.Context, id uuid.UUID) (*entity.FriendRequest, error) {
	request, ok := f.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return request, nil
}

func (f *fakeFriendRepo) FindPendingBetween(ctx context.Context, a, b uuid.UUID) (*entity.FriendRequest, error) {
	for _, request := range f.requests {
		if request.Status != entity.FriendRequestPending {
			continue
		}
		if (request.SenderID == a && request.ReceiverID == b) || (request.SenderID == b && request.ReceiverID == a) {
			return request, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeFriendRepo) UpdateRequestStatus(ctx context.Context, id uuid.UUID, status string) error {
	request, ok := f.requests[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	request.Status = status
	return nil
}

func (f *fakeFriendRepo) DeleteRequest(ctx context.Context, id uuid.UUID) error {
	delete(f.requests, id)
	return nil
}

func (f *fakeFriendRepo) ListIncomingPending(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.FriendRequest, error) {
	var out []*entity.FriendRequest
	for _, request := range f.requests {
		if request.ReceiverID == userID && request.Status == entity.FriendRequestPending {
			out = append(out, request)
		}
	}
	return out, nil
}

func (f *fakeFriendRepo) CountIncomingPending(ctx context.Context, userID uuid.UUID) (int64, error) {
	requests, _ := f.ListIncomingPending(ctx, userID, 0, 0)
	return int64(len(requests)), nil
}

func (f *fakeFriendRepo) CreateFriendship(ctx context.Context, a, b uuid.UUID) error {
	f.friendships[[2]uuid.UUID{a, b}] = true
	f.friendships[[2]uuid.UUID{b, a}] = true
	return nil
}

func (f *fakeFriendRepo) DeleteFriendship(ctx context.Context, a, b uuid.UUID) error {
	delete(f.friendships, [2]uuid.UUID{a, b})
	delete(f.friendships, [2]uuid.UUID{b, a})
	return nil
}

func (f *fakeFriendRepo) AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error) {
	return f.friendships[[2]uuid.UUID{a, b}], nil
}

func (f *fakeFriendRepo) ListFriends(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Friendship, error) {
	return nil, nil
}

func (f *fakeFriendRepo) CountFriends(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	for pair := range f.friendships {
		if pair[0] == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeFriendRepo) Block(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	f.blocks[[2]uuid.UUID{blockerID, blockedID}] = true
	f.DeleteFriendship(ctx, blockerID, blockedID)
	for id, request := range f.requests {
		if request.Status != entity.FriendRequestPending {
			continue
		}
		if (request.SenderID == blockerID && request.ReceiverID == blockedID) ||
			(request.SenderID == blockedID && request.ReceiverID == blockerID) {
			delete(f.requests, id)
		}
	}
	return nil
}

func (f *fakeFriendRepo) Unblock(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	delete(f.blocks, [2]uuid.UUID{blockerID, blockedID})
	return nil
}

func (f *fakeFriendRepo) IsBlockedEither(ctx context.Context, a, b uuid.UUID) (bool, error) {
	return f.blocks[[2]uuid.UUID{a, b}] || f.blocks[[2]uuid.UUID{b, a}], nil
}

func (f *fakeFriendRepo) ListBlocked(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.BlockedUser, error) {
	return nil, nil
}

func (f *fakeFriendRepo) SuggestUsers(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.User, error) {
	return nil, nil
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

type fakeFriendNotifier struct {
	requests []uuid.UUID
	accepts  []uuid.UUID
}

func (f *fakeFriendNotifier) NotifyFriendRequest(recipientID, actorID uuid.UUID) {
	f.requests = append(f.requests, recipientID)
}

func (f *fakeFriendNotifier) NotifyFriendAccept(recipientID, actorID uuid.UUID) {
	f.accepts = append(f.accepts, recipientID)
}

type friendFixture struct {
	svc      FriendService
	repo     *fakeFriendRepo
	notifier *fakeFriendNotifier
	alice    uuid.UUID
	bob      uuid.UUID
}

func newFriendFixture(t *testing.T) *friendFixture {
	t.Helper()

	f := &friendFixture{
		repo:     newFakeFriendRepo(),
		notifier: &fakeFriendNotifier{},
		alice:    uuid.New(),
		bob:      uuid.New(),
	}

	users := &fakeUserRepo{users: map[uuid.UUID]*entity.User{
		f.alice: {ID: f.alice, FirstName: "Alya", LastName: "Rahma"},
		f.bob:   {ID: f.bob, FirstName: "Bagus", LastName: "Putra"},
	}}

	f.svc = NewFriendService(f.repo, users, f.notifier)
	return f
}

func TestSendRequest_CreatesPendingAndNotifies(t *testing.T) {
	f := newFriendFixture(t)

	resp, err := f.svc.SendRequest(context.Background(), f.alice, f.bob)
	require.NoError(t, err)

	assert.Equal(t, entity.FriendRequestPending, resp.Status)
	assert.Equal(t, []uuid.UUID{f.bob}, f.notifier.requests)
}

func TestSendRequest_ToSelf(t *testing.T) {
	f := newFriendFixture(t)

	_, err := f.svc.SendRequest(context.Background(), f.alice, f.alice)
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
}

func TestSendRequest_UnknownReceiver(t *testing.T) {
	f := newFriendFixture(t)

	_, err := f.svc.SendRequest(context.Background(), f.alice, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSendRequest_BlockedForbidden(t *testing.T) {
	f := newFriendFixture(t)
	require.NoError(t, f.repo.Block(context.Background(), f.bob, f.alice))

	_, err := f.svc.SendRequest(context.Background(), f.alice, f.bob)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestSendRequest_AlreadyFriendsConflict(t *testing.T) {
	f := newFriendFixture(t)
	require.NoError(t, f.repo.CreateFriendship(context.Background(), f.alice, f.bob))

	_, err := f.svc.SendRequest(context.Background(), f.alice, f.bob)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestSendRequest_PendingEitherDirectionConflict(t *testing.T) {
	f := newFriendFixture(t)

	_, err := f.svc.SendRequest(context.Background(), f.alice, f.bob)
	require.NoError(t, err)

	// The reverse direction collides with the same pending request.
	_, err = f.svc.SendRequest(context.Background(), f.bob, f.alice)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestAcceptRequest_CreatesFriendship(t *testing.T) {
	f := newFriendFixture(t)
	resp, err := f.svc.SendRequest(context.Background(), f.alice, f.bob)
	require.NoError(t, err)

	require.NoError(t, f.svc.AcceptRequest(context.Background(), f.bob, resp.ID))

	friends, err := f.repo.AreFriends(context.Background(), f.alice, f.bob)
	require.NoError(t, err)
	assert.True(t, friends)
	assert.Equal(t, entity.FriendRequestAccepted, f.repo.requests[resp.ID].Status)
	assert.Equal(t, []uuid.UUID{f.alice}, f.notifier.accepts)
}

func TestAcceptRequest_SenderCannotAccept(t *testing.T) {
	f := newFriendFixture(t)
	resp, err := f.svc.SendRequest(context.Background(), f.alice, f.bob)
	require.NoError(t, err)

	err = f.svc.AcceptRequest(context.Background(), f.alice, resp.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestAcceptRequest_AlreadyHandledConflict(t *testing.T) {
	f := newFriendFixture(t)
	resp, err := f.svc.SendRequest(context.Background(), f.alice, f.bob)
	require.NoError(t, err)

	require.NoError(t, f.svc.AcceptRequest(context.Background(), f.bob, resp.ID))

	err = f.svc.AcceptRequest(context.Background(), f.bob, resp.ID)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestRejectRequest(t *testing.T) {
	f := newFriendFixture(t)
	resp, err := f.svc.SendRequest(context.Background(), f.alice, f.bob)
	require.NoError(t, err)

	require.NoError(t, f.svc.RejectRequest(context.Background(), f.bob, resp.ID))

	assert.Equal(t, entity.FriendRequestRejected, f.repo.requests[resp.ID].Status)
	friends, _ := f.repo.AreFriends(context.Background(), f.alice, f.bob)
	assert.False(t, friends)
}

func TestCancelRequest_OnlySender(t *testing.T) {
	f := newFriendFixture(t)
	resp, err := f.svc.SendRequest(context.Background(), f.alice, f.bob)
	require.NoError(t, err)

	err = f.svc.CancelRequest(context.Background(), f.bob, resp.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	require.NoError(t, f.svc.CancelRequest(context.Background(), f.alice, resp.ID))
	assert.Empty(t, f.repo.requests)
}

func TestUnfriend(t *testing.T) {
	f := newFriendFixture(t)
	require.NoError(t, f.repo.CreateFriendship(context.Background(), f.alice, f.bob))

	require.NoError(t, f.svc.Unfriend(context.Background(), f.alice, f.bob))

	friends, _ := f.repo.AreFriends(context.Background(), f.bob, f.alice)
	assert.False(t, friends)
}

func TestUnfriend_NotFriends(t *testing.T) {
	f := newFriendFixture(t)

	err := f.svc.Unfriend(context.Background(), f.alice, f.bob)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestBlock_SelfRejected(t *testing.T) {
	f := newFriendFixture(t)

	err := f.svc.Block(context.Background(), f.alice, f.alice)
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
}

func TestBlock_SeversFriendshipAndPending(t *testing.T) {
	f := newFriendFixture(t)
	resp, err := f.svc.SendRequest(context.Background(), f.alice, f.bob)
	require.NoError(t, err)
	require.NotNil(t, resp)

	require.NoError(t, f.svc.Block(context.Background(), f.bob, f.alice))

	blocked, err := f.repo.IsBlockedEither(context.Background(), f.alice, f.bob)
	require.NoError(t, err)
	assert.True(t, blocked)
	assert.Empty(t, f.repo.requests)
}

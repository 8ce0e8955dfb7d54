package service

import (
	"context"
	"errors"

	"sociafy/internal/entity"
	"sociafy/internal/modules/friends/dto"
	"sociafy/internal/modules/friends/repository"
	userrepo "sociafy/internal/modules/user/repository"
	"sociafy/pkg/apperror"
	pkgdto "sociafy/pkg/dto"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const suggestionLimit = 10

// Notifier delivers fire and forget friend notifications.
type Notifier interface {
	NotifyFriendRequest(recipientID, actorID uuid.UUID)
	NotifyFriendAccept(recipientID, actorID uuid.UUID)
}

type FriendService interface {
	SendRequest(ctx context.Context, senderID, receiverID uuid.UUID) (*dto.FriendRequestResponse, error)
	AcceptRequest(ctx context.Context, userID, requestID uuid.UUID) error
	RejectRequest(ctx context.Context, userID, requestID uuid.UUID) error
	CancelRequest(ctx context.Context, userID, requestID uuid.UUID) error
	Unfriend(ctx context.Context, userID, friendID uuid.UUID) error
	ListFriends(ctx context.Context, userID uuid.UUID, filter pkgdto.PageFilter) ([]dto.FriendResponse, pkgdto.PaginationMeta, error)
	ListRequests(ctx context.Context, userID uuid.UUID, filter pkgdto.PageFilter) ([]dto.FriendRequestResponse, pkgdto.PaginationMeta, error)
	Block(ctx context.Context, userID, targetID uuid.UUID) error
	Unblock(ctx context.Context, userID, targetID uuid.UUID) error
	ListBlocked(ctx context.Context, userID uuid.UUID, filter pkgdto.PageFilter) ([]dto.BlockedUserResponse, error)
	Suggest(ctx context.Context, userID uuid.UUID) ([]pkgdto.AuthorResponse, error)
}

type friendService struct {
	repo     repository.FriendRepository
	users    userrepo.UserRepository
	notifier Notifier
}

func NewFriendService(repo repository.FriendRepository, users userrepo.UserRepository, notifier Notifier) FriendService {
	return &friendService{repo: repo, users: users, notifier: notifier}
}

func (s *friendService) SendRequest(ctx context.Context, senderID, receiverID uuid.UUID) (*dto.FriendRequestResponse, error) {
	if senderID == receiverID {
		return nil, apperror.BadRequest("you cannot send a friend request to yourself")
	}

	if _, err := s.users.FindByID(ctx, receiverID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, err
	}

	blocked, err := s.repo.IsBlockedEither(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, apperror.Forbidden("you cannot send a friend request to this user")
	}

	friends, err := s.repo.AreFriends(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if friends {
		return nil, apperror.Conflict("you are already friends")
	}

	if _, err := s.repo.FindPendingBetween(ctx, senderID, receiverID); err == nil {
		return nil, apperror.Conflict("a pending friend request already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	request := &entity.FriendRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     entity.FriendRequestPending,
	}
	if err := s.repo.CreateRequest(ctx, request); err != nil {
		return nil, err
	}

	s.notifier.NotifyFriendRequest(receiverID, senderID)

	created, err := s.repo.FindRequestByID(ctx, request.ID)
	if err != nil {
		return nil, err
	}
	resp := mapRequest(created)
	return &resp, nil
}

func (s *friendService) AcceptRequest(ctx context.Context, userID, requestID uuid.UUID) error {
	request, err := s.findPendingRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request.ReceiverID != userID {
		return apperror.Forbidden("only the receiver can accept a friend request")
	}

	if err := s.repo.UpdateRequestStatus(ctx, requestID, entity.FriendRequestAccepted); err != nil {
		return err
	}
	if err := s.repo.CreateFriendship(ctx, request.SenderID, request.ReceiverID); err != nil {
		return err
	}

	s.notifier.NotifyFriendAccept(request.SenderID, userID)
	return nil
}

func (s *friendService) RejectRequest(ctx context.Context, userID, requestID uuid.UUID) error {
	request, err := s.findPendingRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request.ReceiverID != userID {
		return apperror.Forbidden("only the receiver can reject a friend request")
	}
	return s.repo.UpdateRequestStatus(ctx, requestID, entity.FriendRequestRejected)
}

func (s *friendService) CancelRequest(ctx context.Context, userID, requestID uuid.UUID) error {
	request, err := s.findPendingRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request.SenderID != userID {
		return apperror.Forbidden("only the sender can cancel a friend request")
	}
	return s.repo.DeleteRequest(ctx, requestID)
}

func (s *friendService) Unfriend(ctx context.Context, userID, friendID uuid.UUID) error {
	friends, err := s.repo.AreFriends(ctx, userID, friendID)
	if err != nil {
		return err
	}
	if !friends {
		return apperror.NotFound("you are not friends with this user")
	}
	return s.repo.DeleteFriendship(ctx, userID, friendID)
}

func (s *friendService) ListFriends(ctx context.Context, userID uuid.UUID, filter pkgdto.PageFilter) ([]dto.FriendResponse, pkgdto.PaginationMeta, error) {
	filter.Clamp(20, 50)

	friendships, err := s.repo.ListFriends(ctx, userID, filter.Limit, filter.Offset())
	if err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}
	total, err := s.repo.CountFriends(ctx, userID)
	if err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}

	responses := make([]dto.FriendResponse, 0, len(friendships))
	for _, friendship := range friendships {
		responses = append(responses, dto.FriendResponse{
			User:  mapAuthor(&friendship.Friend),
			Since: friendship.CreatedAt,
		})
	}
	return responses, pkgdto.NewPaginationMeta(filter, total), nil
}

func (s *friendService) ListRequests(ctx context.Context, userID uuid.UUID, filter pkgdto.PageFilter) ([]dto.FriendRequestResponse, pkgdto.PaginationMeta, error) {
	filter.Clamp(20, 50)

	requests, err := s.repo.ListIncomingPending(ctx, userID, filter.Limit, filter.Offset())
	if err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}
	total, err := s.repo.CountIncomingPending(ctx, userID)
	if err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}

	responses := make([]dto.FriendRequestResponse, 0, len(requests))
	for _, request := range requests {
		responses = append(responses, mapRequest(request))
	}
	return responses, pkgdto.NewPaginationMeta(filter, total), nil
}

func (s *friendService) Block(ctx context.Context, userID, targetID uuid.UUID) error {
	if userID == targetID {
		return apperror.BadRequest("you cannot block yourself")
	}

	if _, err := s.users.FindByID(ctx, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("user not found")
		}
		return err
	}

	return s.repo.Block(ctx, userID, targetID)
}

func (s *friendService) Unblock(ctx context.Context, userID, targetID uuid.UUID) error {
	return s.repo.Unblock(ctx, userID, targetID)
}

func (s *friendService) ListBlocked(ctx context.Context, userID uuid.UUID, filter pkgdto.PageFilter) ([]dto.BlockedUserResponse, error) {
	filter.Clamp(20, 50)

	blocked, err := s.repo.ListBlocked(ctx, userID, filter.Limit, filter.Offset())
	if err != nil {
		return nil, err
	}

	responses := make([]dto.BlockedUserResponse, 0, len(blocked))
	for _, entry := range blocked {
		responses = append(responses, dto.BlockedUserResponse{
			User:      mapAuthor(&entry.Blocked),
			BlockedAt: entry.CreatedAt,
		})
	}
	return responses, nil
}

func (s *friendService) Suggest(ctx context.Context, userID uuid.UUID) ([]pkgdto.AuthorResponse, error) {
	users, err := s.repo.SuggestUsers(ctx, userID, suggestionLimit)
	if err != nil {
		return nil, err
	}

	responses := make([]pkgdto.AuthorResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, mapAuthor(user))
	}
	return responses, nil
}

func (s *friendService) findPendingRequest(ctx context.Context, requestID uuid.UUID) (*entity.FriendRequest, error) {
	request, err := s.repo.FindRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("friend request not found")
		}
		return nil, err
	}
	if request.Status != entity.FriendRequestPending {
		return nil, apperror.Conflict("friend request is no longer pending")
	}
	return request, nil
}

func mapRequest(request *entity.FriendRequest) dto.FriendRequestResponse {
	return dto.FriendRequestResponse{
		ID:        request.ID,
		Sender:    mapAuthor(&request.Sender),
		Status:    request.Status,
		CreatedAt: request.CreatedAt,
	}
}

func mapAuthor(user *entity.User) pkgdto.AuthorResponse {
	return pkgdto.AuthorResponse{
		ID:        user.ID,
		FullName:  user.FullName(),
		AvatarURL: user.AvatarURL,
	}
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"sociafy/internal/entity"
	"sociafy/internal/modules/chat/dto"
	"sociafy/internal/modules/chat/repository"
	userrepo "sociafy/internal/modules/user/repository"
	"sociafy/pkg/apperror"
	pkgdto "sociafy/pkg/dto"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ChannelFor is the redis pub/sub channel carrying a user's incoming chat
// messages for live delivery.
func ChannelFor(userID uuid.UUID) string {
	return "chat:" + userID.String()
}

// BlockChecker reports whether either user has blocked the other.
type BlockChecker interface {
	IsBlockedEither(ctx context.Context, a, b uuid.UUID) (bool, error)
}

type ChatService interface {
	SendMessage(ctx context.Context, senderID uuid.UUID, req dto.SendMessageRequest) (*dto.MessageResponse, error)
	ListMessages(ctx context.Context, userID, conversationID uuid.UUID, filter pkgdto.PageFilter) ([]dto.MessageResponse, pkgdto.PaginationMeta, error)
	ListConversations(ctx context.Context, userID uuid.UUID, filter pkgdto.PageFilter) ([]dto.ConversationResponse, pkgdto.PaginationMeta, error)
}

type chatService struct {
	repo   repository.ChatRepository
	users  userrepo.UserRepository
	blocks BlockChecker
	rdb    *redis.Client
}

func NewChatService(repo repository.ChatRepository, users userrepo.UserRepository, blocks BlockChecker, rdb *redis.Client) ChatService {
	return &chatService{repo: repo, users: users, blocks: blocks, rdb: rdb}
}

// SendMessage persists first and publishes after, a crashed publish only
// costs the live push, the recipient still sees the message on next fetch.
func (s *chatService) SendMessage(ctx context.Context, senderID uuid.UUID, req dto.SendMessageRequest) (*dto.MessageResponse, error) {
	if senderID == req.RecipientID {
		return nil, apperror.BadRequest("you cannot message yourself")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperror.BadRequest("message content is required")
	}

	recipient, err := s.users.FindByID(ctx, req.RecipientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, err
	}

	blocked, err := s.blocks.IsBlockedEither(ctx, senderID, req.RecipientID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, apperror.Forbidden("you cannot message this user")
	}

	conversation, err := s.repo.GetOrCreateConversation(ctx, senderID, req.RecipientID)
	if err != nil {
		return nil, err
	}

	message := &entity.Message{
		ConversationID: conversation.ID,
		SenderID:       senderID,
		Content:        content,
	}
	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}
	if err := s.repo.TouchConversation(ctx, conversation.ID); err != nil {
		return nil, err
	}

	sender, err := s.users.FindByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	resp := mapMessage(message, sender)

	if s.rdb != nil {
		payload, err := json.Marshal(resp)
		if err == nil {
			if err := s.rdb.Publish(ctx, ChannelFor(recipient.ID), payload).Err(); err != nil {
				log.Printf("failed to publish chat message for %s: %v", recipient.ID, err)
			}
		}
	}

	return &resp, nil
}

func (s *chatService) ListMessages(ctx context.Context, userID, conversationID uuid.UUID, filter pkgdto.PageFilter) ([]dto.MessageResponse, pkgdto.PaginationMeta, error) {
	filter.Clamp(20, 50)

	conversation, err := s.repo.FindConversationByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgdto.PaginationMeta{}, apperror.NotFound("conversation not found")
		}
		return nil, pkgdto.PaginationMeta{}, err
	}
	if conversation.UserAID != userID && conversation.UserBID != userID {
		return nil, pkgdto.PaginationMeta{}, apperror.Forbidden("you are not part of this conversation")
	}

	messages, err := s.repo.ListMessages(ctx, conversationID, filter.Limit, filter.Offset())
	if err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}
	total, err := s.repo.CountMessages(ctx, conversationID)
	if err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}

	responses := make([]dto.MessageResponse, 0, len(messages))
	for _, message := range messages {
		responses = append(responses, mapMessage(message, &message.Sender))
	}
	return responses, pkgdto.NewPaginationMeta(filter, total), nil
}

func (s *chatService) ListConversations(ctx context.Context, userID uuid.UUID, filter pkgdto.PageFilter) ([]dto.ConversationResponse, pkgdto.PaginationMeta, error) {
	filter.Clamp(20, 50)

	conversations, err := s.repo.ListConversations(ctx, userID, filter.Limit, filter.Offset())
	if err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}
	total, err := s.repo.CountConversations(ctx, userID)
	if err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}

	peerIDs := make([]uuid.UUID, 0, len(conversations))
	for _, conversation := range conversations {
		peerIDs = append(peerIDs, peerOf(conversation, userID))
	}

	peers := map[uuid.UUID]*entity.User{}
	if len(peerIDs) > 0 {
		users, err := s.users.FindByIDs(ctx, peerIDs)
		if err != nil {
			return nil, pkgdto.PaginationMeta{}, err
		}
		for _, user := range users {
			peers[user.ID] = user
		}
	}

	responses := make([]dto.ConversationResponse, 0, len(conversations))
	for _, conversation := range conversations {
		peer, ok := peers[peerOf(conversation, userID)]
		if !ok {
			continue
		}

		resp := dto.ConversationResponse{
			ID: conversation.ID,
			Peer: pkgdto.AuthorResponse{
				ID:        peer.ID,
				FullName:  peer.FullName(),
				AvatarURL: peer.AvatarURL,
			},
			UpdatedAt: conversation.UpdatedAt,
		}

		last, err := s.repo.FindLastMessage(ctx, conversation.ID)
		if err == nil {
			lastResp := mapMessage(last, &last.Sender)
			resp.LastMessage = &lastResp
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgdto.PaginationMeta{}, err
		}

		responses = append(responses, resp)
	}
	return responses, pkgdto.NewPaginationMeta(filter, total), nil
}

func peerOf(conversation *entity.Conversation, userID uuid.UUID) uuid.UUID {
	if conversation.UserAID == userID {
		return conversation.UserBID
	}
	return conversation.UserAID
}

func mapMessage(message *entity.Message, sender *entity.User) dto.MessageResponse {
	return dto.MessageResponse{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		Sender: pkgdto.AuthorResponse{
			ID:        sender.ID,
			FullName:  sender.FullName(),
			AvatarURL: sender.AvatarURL,
		},
		Content:   message.Content,
		CreatedAt: message.CreatedAt,
	}
}

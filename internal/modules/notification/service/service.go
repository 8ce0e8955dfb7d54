package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"sociafy/internal/entity"
	"sociafy/internal/modules/notification/repository"
	userrepo "sociafy/internal/modules/user/repository"
	"sociafy/pkg/apperror"
	pkgdto "sociafy/pkg/dto"
	"sociafy/pkg/mailer"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const pushTimeout = 5 * time.Second

// ChannelFor is the redis pub/sub channel carrying a user's live
// notifications. The WebSocket delivery subscribes to it.
func ChannelFor(userID uuid.UUID) string {
	return "user_notifications:" + userID.String()
}

type NotificationService interface {
	NotifyReply(recipientID, actorID, commentID uuid.UUID)
	NotifyMention(recipientID, actorID uuid.UUID, refType string, refID uuid.UUID)
	NotifyReaction(recipientID, actorID uuid.UUID, refType string, refID uuid.UUID, kind string)
	NotifyFriendRequest(recipientID, actorID uuid.UUID)
	NotifyFriendAccept(recipientID, actorID uuid.UUID)
	List(ctx context.Context, userID uuid.UUID, filter pkgdto.PageFilter) ([]*entity.Notification, pkgdto.PaginationMeta, error)
	MarkAsRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationService struct {
	repo  repository.NotificationRepository
	users userrepo.UserRepository
	mail  *mailer.Mailer
	rdb   *redis.Client
}

func NewNotificationService(repo repository.NotificationRepository, users userrepo.UserRepository, mail *mailer.Mailer, rdb *redis.Client) NotificationService {
	return &notificationService{repo: repo, users: users, mail: mail, rdb: rdb}
}

func (s *notificationService) NotifyReply(recipientID, actorID, commentID uuid.UUID) {
	go s.push(recipientID, actorID, entity.NotificationReply, entity.ReactionRefComment, commentID,
		func(actorName string) string { return fmt.Sprintf("%s replied to your comment", actorName) }, false)
}

func (s *notificationService) NotifyMention(recipientID, actorID uuid.UUID, refType string, refID uuid.UUID) {
	go s.push(recipientID, actorID, entity.NotificationMention, refType, refID,
		func(actorName string) string { return fmt.Sprintf("%s mentioned you in a %s", actorName, refType) }, true)
}

func (s *notificationService) NotifyReaction(recipientID, actorID uuid.UUID, refType string, refID uuid.UUID, kind string) {
	go s.push(recipientID, actorID, entity.NotificationReaction, refType, refID,
		func(actorName string) string { return fmt.Sprintf("%s reacted %s to your %s", actorName, kind, refType) }, false)
}

func (s *notificationService) NotifyFriendRequest(recipientID, actorID uuid.UUID) {
	go s.push(recipientID, actorID, entity.NotificationFriendRequest, "user", actorID,
		func(actorName string) string { return fmt.Sprintf("%s sent you a friend request", actorName) }, true)
}

func (s *notificationService) NotifyFriendAccept(recipientID, actorID uuid.UUID) {
	go s.push(recipientID, actorID, entity.NotificationFriendAccept, "user", actorID,
		func(actorName string) string { return fmt.Sprintf("%s accepted your friend request", actorName) }, false)
}

// push persists the notification, publishes it for live delivery and sends
// an email for the notification types that warrant one. It runs detached
// from the request, failures are logged only.
func (s *notificationService) push(recipientID, actorID uuid.UUID, kind, entityType string, entityID uuid.UUID, message func(actorName string) string, email bool) {
	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()

	actor, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		log.Printf("notification dropped, actor %s lookup failed: %v", actorID, err)
		return
	}

	notification := &entity.Notification{
		UserID:     recipientID,
		ActorID:    actorID,
		EntityID:   entityID,
		EntityType: entityType,
		Type:       kind,
		Message:    message(actor.FullName()),
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		log.Printf("failed to store notification for %s: %v", recipientID, err)
		return
	}

	if s.rdb != nil {
		payload, err := json.Marshal(notification)
		if err == nil {
			if err := s.rdb.Publish(ctx, ChannelFor(recipientID), payload).Err(); err != nil {
				log.Printf("failed to publish notification for %s: %v", recipientID, err)
			}
		}
	}

	if email {
		recipient, err := s.users.FindByID(ctx, recipientID)
		if err != nil {
			return
		}
		switch kind {
		case entity.NotificationMention:
			s.mail.SendMentionEmail(recipient.Email, actor.FullName(), entityType)
		case entity.NotificationFriendRequest:
			s.mail.SendFriendRequestEmail(recipient.Email, actor.FullName())
		}
	}
}

func (s *notificationService) List(ctx context.Context, userID uuid.UUID, filter pkgdto.PageFilter) ([]*entity.Notification, pkgdto.PaginationMeta, error) {
	filter.Clamp(20, 50)

	notifications, err := s.repo.List(ctx, userID, filter.Limit, filter.Offset())
	if err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}
	total, err := s.repo.Count(ctx, userID)
	if err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}
	return notifications, pkgdto.NewPaginationMeta(filter, total), nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	affected, err := s.repo.MarkAsRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperror.NotFound("notification not found")
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

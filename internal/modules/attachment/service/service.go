package service

import (
	"context"
	"io"
	"log"
	"time"

	"sociafy/internal/entity"
	"sociafy/internal/modules/attachment/repository"
	"sociafy/pkg/dto"
	"sociafy/pkg/ratelimiter"
	"sociafy/pkg/storage"

	"github.com/google/uuid"
)

type AttachmentService interface {
	Upload(ctx context.Context, userID uuid.UUID, file io.Reader, fileName string) (*dto.AttachmentResponse, error)
	CleanupOrphans(ctx context.Context) error
}

type attachmentService struct {
	repo         repository.AttachmentRepository
	mediaStorage storage.MediaStorage
	orphanTTL    time.Duration
}

func NewAttachmentService(repo repository.AttachmentRepository, mediaStorage storage.MediaStorage) AttachmentService {
	return &attachmentService{
		repo:         repo,
		mediaStorage: mediaStorage,
		orphanTTL:    ratelimiter.GetDurationFromEnv("ATTACHMENT_ORPHAN_TTL", 24*time.Hour),
	}
}

func (s *attachmentService) Upload(ctx context.Context, userID uuid.UUID, file io.Reader, fileName string) (*dto.AttachmentResponse, error) {
	result, err := s.mediaStorage.Upload(ctx, file, "attachments", fileName)
	if err != nil {
		return nil, err
	}

	attachment := &entity.Attachment{
		UserID:    userID,
		FileURL:   result.URL,
		PublicID:  result.PublicID,
		MediaType: result.MediaType,
	}

	if err := s.repo.Create(ctx, attachment); err != nil {
		// The media is already in the CDN, try not to leak it.
		if destroyErr := s.mediaStorage.Destroy(ctx, result.PublicID); destroyErr != nil {
			log.Printf("failed to destroy media %s after db error: %v", result.PublicID, destroyErr)
		}
		return nil, err
	}

	return &dto.AttachmentResponse{
		ID:        attachment.ID,
		FileURL:   attachment.FileURL,
		MediaType: attachment.MediaType,
	}, nil
}

// CleanupOrphans removes uploads that were never claimed by a post or a
// comment. It is meant to run periodically from the server loop.
func (s *attachmentService) CleanupOrphans(ctx context.Context) error {
	orphans, err := s.repo.FindOrphans(ctx, time.Now().Add(-s.orphanTTL))
	if err != nil {
		return err
	}
	if len(orphans) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(orphans))
	for _, orphan := range orphans {
		if err := s.mediaStorage.Destroy(ctx, orphan.PublicID); err != nil {
			log.Printf("failed to destroy orphan media %s: %v", orphan.PublicID, err)
			continue
		}
		ids = append(ids, orphan.ID)
	}

	if err := s.repo.DeleteByIDs(ctx, ids); err != nil {
		return err
	}

	log.Printf("cleaned up %d orphan attachments", len(ids))
	return nil
}

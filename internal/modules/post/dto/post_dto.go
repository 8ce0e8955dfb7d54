package dto

import (
	"time"

	commentdto "sociafy/internal/modules/comment/dto"
	pkgdto "sociafy/pkg/dto"

	"github.com/google/uuid"
)

type CreatePostRequest struct {
	Content       *string     `json:"content" binding:"omitempty,max=5000"`
	AttachmentIDs []uint      `json:"attachment_ids" binding:"omitempty,max=10,unique"`
	Mentions      []uuid.UUID `json:"mentions" binding:"omitempty,max=20,unique"`
}

type UpdatePostRequest struct {
	Content       *string     `json:"content" binding:"omitempty,max=5000"`
	AttachmentIDs []uint      `json:"attachment_ids" binding:"omitempty,max=10,unique"`
	Mentions      []uuid.UUID `json:"mentions" binding:"omitempty,max=20,unique"`
}

type PostResponse struct {
	ID            uuid.UUID                  `json:"id"`
	Author        pkgdto.AuthorResponse      `json:"author"`
	Content       *string                    `json:"content"`
	Attachments   []pkgdto.AttachmentResponse `json:"attachments"`
	Mentions      []pkgdto.AuthorResponse    `json:"mentions,omitempty"`
	Reactions     pkgdto.ReactionsSummary    `json:"reactions"`
	CommentsCount int64                      `json:"comments_count"`
	IsDeleted     bool                       `json:"is_deleted,omitempty"`
	DeletedAt     *time.Time                 `json:"deleted_at,omitempty"`
	DeletedBy     *string                    `json:"deleted_by,omitempty"`
	CreatedAt     time.Time                  `json:"created_at"`
	UpdatedAt     time.Time                  `json:"updated_at"`
}

// PostDetailResponse adds the aggregated comment view: a short preview of
// the newest top-level comments plus both comment totals.
type PostDetailResponse struct {
	PostResponse
	CommentPreview          []commentdto.CommentResponse `json:"comment_preview"`
	TotalFirstLevelComments int64                        `json:"total_first_level_comments"`
	TotalComments           int64                        `json:"total_comments"`
}

type DeletePostResponse struct {
	DeletedComments int64 `json:"deleted_comments"`
}

type RestorePostResponse struct {
	RestoredComments int64 `json:"restored_comments"`
}

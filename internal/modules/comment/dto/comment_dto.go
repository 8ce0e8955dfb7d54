package dto

import (
	"time"

	pkgdto "sociafy/pkg/dto"

	"github.com/google/uuid"
)

type CreateCommentRequest struct {
	Content      *string     `json:"content" binding:"omitempty,max=2000"`
	ParentID     *uuid.UUID  `json:"parent_id"`
	AttachmentID *uint       `json:"attachment_id"`
	Mentions     []uuid.UUID `json:"mentions" binding:"omitempty,max=20,unique"`
}

type UpdateCommentRequest struct {
	Content      *string     `json:"content" binding:"omitempty,max=2000"`
	AttachmentID *uint       `json:"attachment_id"`
	Mentions     []uuid.UUID `json:"mentions" binding:"omitempty,max=20,unique"`
}

// CommentResponse renders one node of the reply forest. A soft deleted node
// that still has replies is shown as a placeholder: content, attachment,
// mentions and reactions are stripped, the counters stay.
type CommentResponse struct {
	ID           uuid.UUID                  `json:"id"`
	PostID       uuid.UUID                  `json:"post_id"`
	ParentID     *uuid.UUID                 `json:"parent_id,omitempty"`
	Author       *pkgdto.AuthorResponse     `json:"author,omitempty"`
	Content      *string                    `json:"content"`
	Attachment   *pkgdto.AttachmentResponse `json:"attachment,omitempty"`
	Mentions     []pkgdto.AuthorResponse    `json:"mentions,omitempty"`
	RepliesCount int                        `json:"replies_count"`
	HasReplies   bool                       `json:"has_replies"`
	IsDeleted    bool                       `json:"is_deleted"`
	Reactions    pkgdto.ReactionsSummary    `json:"reactions"`
	CreatedAt    time.Time                  `json:"created_at"`
	UpdatedAt    time.Time                  `json:"updated_at"`
}

// DeleteCommentResponse reports how many comments the cascade touched,
// the root included.
type DeleteCommentResponse struct {
	DeletedCount int `json:"deleted_count"`
}

type RestoreCommentResponse struct {
	RestoredCount int `json:"restored_count"`
}

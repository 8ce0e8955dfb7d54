package dto

import (
	"time"

	pkgdto "sociafy/pkg/dto"

	"github.com/google/uuid"
)

type SendMessageRequest struct {
	RecipientID uuid.UUID `json:"recipient_id" binding:"required"`
	Content     string    `json:"content" binding:"required,max=2000"`
}

type MessageResponse struct {
	ID             uuid.UUID             `json:"id"`
	ConversationID uuid.UUID             `json:"conversation_id"`
	Sender         pkgdto.AuthorResponse `json:"sender"`
	Content        string                `json:"content"`
	CreatedAt      time.Time             `json:"created_at"`
}

type ConversationResponse struct {
	ID          uuid.UUID             `json:"id"`
	Peer        pkgdto.AuthorResponse `json:"peer"`
	LastMessage *MessageResponse      `json:"last_message,omitempty"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

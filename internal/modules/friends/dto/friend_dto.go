package dto

import (
	"time"

	pkgdto "sociafy/pkg/dto"

	"github.com/google/uuid"
)

type SendFriendRequestRequest struct {
	ReceiverID uuid.UUID `json:"receiver_id" binding:"required"`
}

type FriendRequestResponse struct {
	ID        uuid.UUID             `json:"id"`
	Sender    pkgdto.AuthorResponse `json:"sender"`
	Status    string                `json:"status"`
	CreatedAt time.Time             `json:"created_at"`
}

type FriendResponse struct {
	User  pkgdto.AuthorResponse `json:"user"`
	Since time.Time             `json:"since"`
}

type BlockedUserResponse struct {
	User      pkgdto.AuthorResponse `json:"user"`
	BlockedAt time.Time             `json:"blocked_at"`
}

package dto

import (
	"time"

	pkgdto "sociafy/pkg/dto"
)

type ApplyReactionRequest struct {
	Kind string `json:"kind" binding:"omitempty,oneof=like love care haha wow sad angry"`
}

// Actions reported by Apply. Clients use them to patch their local state
// without refetching the whole target.
const (
	ActionAdded          = "added"
	ActionAddDefaultLike = "add-default-like"
	ActionUpdated        = "updated"
	ActionRemoved        = "removed"
	ActionToggledOff     = "toggled-off"
)

type ApplyReactionResponse struct {
	Action  string                  `json:"action"`
	Summary pkgdto.ReactionsSummary `json:"summary"`
}

type ReactionResponse struct {
	User      pkgdto.AuthorResponse `json:"user"`
	Kind      string                `json:"kind"`
	CreatedAt time.Time             `json:"created_at"`
}

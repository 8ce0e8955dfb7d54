package dto

import "github.com/google/uuid"

type AuthorResponse struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	AvatarURL *string   `json:"avatar_url"`
}

// PageFilter carries pagination query parameters. Clamp applies the
// per-endpoint defaults and caps before the values are used.
type PageFilter struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

func (f *PageFilter) Clamp(defaultLimit, maxLimit int) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
}

func (f PageFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	HasNext    bool  `json:"has_next"`
}

func NewPaginationMeta(filter PageFilter, total int64) PaginationMeta {
	return PaginationMeta{
		Page:       filter.Page,
		PageSize:   filter.Limit,
		TotalItems: total,
		HasNext:    total > int64(filter.Page*filter.Limit),
	}
}

// ReactionsSummary is the compact display form: total count plus the set of
// kinds that occurred, not a per-kind histogram.
type ReactionsSummary struct {
	Total int64    `json:"total"`
	Kinds []string `json:"kinds"`
}

type AttachmentResponse struct {
	ID        uint   `json:"id"`
	FileURL   string `json:"file_url"`
	MediaType string `json:"media_type"`
}

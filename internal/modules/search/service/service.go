package service

import (
	"context"
	"encoding/json"
	"html"
	"log"
	"strings"

	"sociafy/internal/entity"
	pkgdto "sociafy/pkg/dto"

	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

const postsIndex = "posts"

type SearchService interface {
	IndexPost(ctx context.Context, post *entity.Post) error
	RemovePost(ctx context.Context, postID uuid.UUID) error
	SearchPosts(ctx context.Context, query string, filter pkgdto.PageFilter) ([]PostDocument, pkgdto.PaginationMeta, error)
}

// PostDocument is the indexed shape of a post. Only active posts live in the
// index, soft deletes remove the document.
type PostDocument struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	AvatarURL  string `json:"avatar_url"`
	CreatedAt  int64  `json:"created_at"`
}

type searchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewSearchService(client meilisearch.ServiceManager) SearchService {
	s := &searchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	return s
}

func (s *searchService) initIndexes() {
	if s.client == nil {
		log.Println("search disabled: no meilisearch client")
		return
	}

	sortableAttrs := []string{"created_at"}
	if _, err := s.client.Index(postsIndex).UpdateSortableAttributes(&sortableAttrs); err != nil {
		log.Printf("failed to update posts sortable attributes: %v", err)
	}
}

// cleanContentForIndex strips markup so only the readable text is searchable.
func (s *searchService) cleanContentForIndex(content string) string {
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</div>", " ")

	sanitized := s.sanitizer.Sanitize(content)
	cleanText := html.UnescapeString(sanitized)

	return strings.Join(strings.Fields(cleanText), " ")
}

func (s *searchService) IndexPost(ctx context.Context, post *entity.Post) error {
	if s.client == nil {
		return nil
	}

	content := ""
	if post.Content != nil {
		content = s.cleanContentForIndex(*post.Content)
	}

	doc := PostDocument{
		ID:         post.ID.String(),
		Content:    content,
		AuthorID:   post.UserID.String(),
		AuthorName: post.User.FullName(),
		AvatarURL:  getStringOrEmpty(post.User.AvatarURL),
		CreatedAt:  post.CreatedAt.Unix(),
	}

	_, err := s.client.Index(postsIndex).AddDocuments([]PostDocument{doc}, strPtr("id"))
	return err
}

func (s *searchService) RemovePost(ctx context.Context, postID uuid.UUID) error {
	if s.client == nil {
		return nil
	}
	_, err := s.client.Index(postsIndex).DeleteDocument(postID.String())
	return err
}

func (s *searchService) SearchPosts(ctx context.Context, query string, filter pkgdto.PageFilter) ([]PostDocument, pkgdto.PaginationMeta, error) {
	filter.Clamp(10, 30)

	if s.client == nil {
		return []PostDocument{}, pkgdto.NewPaginationMeta(filter, 0), nil
	}

	resp, err := s.client.Index(postsIndex).Search(query, &meilisearch.SearchRequest{
		Limit:  int64(filter.Limit),
		Offset: int64(filter.Offset()),
	})
	if err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}

	// Round-trip through JSON to decode the untyped hits.
	raw, err := json.Marshal(resp.Hits)
	if err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}
	var docs []PostDocument
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}

	return docs, pkgdto.NewPaginationMeta(filter, resp.EstimatedTotalHits), nil
}

func getStringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func strPtr(s string) *string {
	return &s
}

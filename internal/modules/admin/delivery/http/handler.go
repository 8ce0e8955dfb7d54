package handler

import (
	"net/http"

	comment "sociafy/internal/modules/comment/service"
	post "sociafy/internal/modules/post/service"
	pkgdto "sociafy/pkg/dto"
	"sociafy/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler exposes the moderation surface: inspecting soft deleted
// posts and permanently purging posts or comment subtrees. Routes are gated
// by the admin middleware.
type AdminHandler struct {
	posts    post.PostService
	comments comment.CommentService
}

func NewAdminHandler(posts post.PostService, comments comment.CommentService) *AdminHandler {
	return &AdminHandler{posts: posts, comments: comments}
}

func (h *AdminHandler) ListDeletedPosts(c *gin.Context) {
	var filter pkgdto.PageFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid pagination parameters"})
		return
	}

	posts, meta, err := h.posts.ListDeletedPosts(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OKWithMeta(c, "Deleted posts retrieved successfully", posts, meta)
}

func (h *AdminHandler) HardDeletePost(c *gin.Context) {
	id, err := uuid.Parse(c.Param("post_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid post id"})
		return
	}

	if err := h.posts.HardDeletePost(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Post permanently deleted", nil)
}

func (h *AdminHandler) HardDeleteComment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("comment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid comment id"})
		return
	}

	if err := h.comments.HardDeleteComment(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Comment permanently deleted", nil)
}

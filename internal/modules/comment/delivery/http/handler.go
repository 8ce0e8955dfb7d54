package handler

import (
	"net/http"

	"sociafy/internal/modules/comment/dto"
	comment "sociafy/internal/modules/comment/service"
	pkgdto "sociafy/pkg/dto"
	"sociafy/pkg/response"
	"sociafy/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CommentHandler struct {
	service comment.CommentService
}

func NewCommentHandler(service comment.CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

func (h *CommentHandler) Create(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	postID, err := uuid.Parse(c.Param("post_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid post id"})
		return
	}

	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": validator.FormatValidationError(err)})
		return
	}

	resp, err := h.service.CreateComment(c.Request.Context(), userID, postID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Comment created successfully", resp)
}

func (h *CommentHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("comment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid comment id"})
		return
	}

	resp, err := h.service.GetComment(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Comment retrieved successfully", resp)
}

func (h *CommentHandler) ListForPost(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("post_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid post id"})
		return
	}

	var filter pkgdto.PageFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid pagination parameters"})
		return
	}

	comments, meta, err := h.service.ListPostComments(c.Request.Context(), postID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OKWithMeta(c, "Comments retrieved successfully", comments, meta)
}

func (h *CommentHandler) ListReplies(c *gin.Context) {
	parentID, err := uuid.Parse(c.Param("comment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid comment id"})
		return
	}

	var filter pkgdto.PageFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid pagination parameters"})
		return
	}

	replies, meta, err := h.service.ListReplies(c.Request.Context(), parentID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OKWithMeta(c, "Replies retrieved successfully", replies, meta)
}

func (h *CommentHandler) Update(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("comment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid comment id"})
		return
	}

	var req dto.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": validator.FormatValidationError(err)})
		return
	}

	resp, err := h.service.UpdateComment(c.Request.Context(), userID, response.GetUserRole(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Comment updated successfully", resp)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("comment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid comment id"})
		return
	}

	resp, err := h.service.SoftDeleteComment(c.Request.Context(), userID, response.GetUserRole(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Comment deleted successfully", resp)
}

func (h *CommentHandler) Restore(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("comment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid comment id"})
		return
	}

	resp, err := h.service.RestoreComment(c.Request.Context(), userID, response.GetUserRole(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Comment restored successfully", resp)
}

package handler

import (
	"net/http"

	"sociafy/internal/modules/post/dto"
	post "sociafy/internal/modules/post/service"
	pkgdto "sociafy/pkg/dto"
	"sociafy/pkg/response"
	"sociafy/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PostHandler struct {
	service post.PostService
}

func NewPostHandler(service post.PostService) *PostHandler {
	return &PostHandler{service: service}
}

func (h *PostHandler) Create(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": validator.FormatValidationError(err)})
		return
	}

	resp, err := h.service.CreatePost(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Post created successfully", resp)
}

func (h *PostHandler) GetDetail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("post_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid post id"})
		return
	}

	resp, err := h.service.GetPostDetail(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Post retrieved successfully", resp)
}

func (h *PostHandler) ListByUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid user id"})
		return
	}

	var filter pkgdto.PageFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid pagination parameters"})
		return
	}

	posts, meta, err := h.service.ListUserPosts(c.Request.Context(), userID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OKWithMeta(c, "Posts retrieved successfully", posts, meta)
}

func (h *PostHandler) Update(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("post_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid post id"})
		return
	}

	var req dto.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": validator.FormatValidationError(err)})
		return
	}

	resp, err := h.service.UpdatePost(c.Request.Context(), userID, response.GetUserRole(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Post updated successfully", resp)
}

func (h *PostHandler) Delete(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("post_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid post id"})
		return
	}

	resp, err := h.service.SoftDeletePost(c.Request.Context(), userID, response.GetUserRole(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Post deleted successfully", resp)
}

func (h *PostHandler) Restore(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("post_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid post id"})
		return
	}

	resp, err := h.service.RestorePost(c.Request.Context(), userID, response.GetUserRole(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Post restored successfully", resp)
}

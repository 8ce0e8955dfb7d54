package handler

import (
	"net/http"

	"sociafy/internal/entity"
	"sociafy/internal/modules/reaction/dto"
	reaction "sociafy/internal/modules/reaction/service"
	pkgdto "sociafy/pkg/dto"
	"sociafy/pkg/response"
	"sociafy/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReactionHandler struct {
	service reaction.ReactionService
}

func NewReactionHandler(service reaction.ReactionService) *ReactionHandler {
	return &ReactionHandler{service: service}
}

func (h *ReactionHandler) ApplyToPost(c *gin.Context) {
	h.apply(c, entity.ReactionRefPost, "post_id")
}

func (h *ReactionHandler) ApplyToComment(c *gin.Context) {
	h.apply(c, entity.ReactionRefComment, "comment_id")
}

func (h *ReactionHandler) ListForPost(c *gin.Context) {
	h.list(c, entity.ReactionRefPost, "post_id")
}

func (h *ReactionHandler) ListForComment(c *gin.Context) {
	h.list(c, entity.ReactionRefComment, "comment_id")
}

func (h *ReactionHandler) apply(c *gin.Context, refType, param string) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	refID, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid " + refType + " id"})
		return
	}

	// An empty body is valid, it means toggle or default like.
	var req dto.ApplyReactionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": validator.FormatValidationError(err)})
			return
		}
	}

	resp, err := h.service.Apply(c.Request.Context(), userID, refType, refID, req.Kind)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Reaction applied successfully", resp)
}

func (h *ReactionHandler) list(c *gin.Context, refType, param string) {
	refID, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid " + refType + " id"})
		return
	}

	var filter pkgdto.PageFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid pagination parameters"})
		return
	}

	reactions, meta, err := h.service.List(c.Request.Context(), refType, refID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OKWithMeta(c, "Reactions retrieved successfully", reactions, meta)
}

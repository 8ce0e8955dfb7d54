package handler

import (
	"net/http"

	"sociafy/internal/modules/friends/dto"
	friends "sociafy/internal/modules/friends/service"
	pkgdto "sociafy/pkg/dto"
	"sociafy/pkg/response"
	"sociafy/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type FriendHandler struct {
	service friends.FriendService
}

func NewFriendHandler(service friends.FriendService) *FriendHandler {
	return &FriendHandler{service: service}
}

func (h *FriendHandler) SendRequest(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.SendFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": validator.FormatValidationError(err)})
		return
	}

	resp, err := h.service.SendRequest(c.Request.Context(), userID, req.ReceiverID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Friend request sent successfully", resp)
}

func (h *FriendHandler) AcceptRequest(c *gin.Context) {
	h.resolveRequest(c, "accepted", func(userID, requestID uuid.UUID) error {
		return h.service.AcceptRequest(c.Request.Context(), userID, requestID)
	})
}

func (h *FriendHandler) RejectRequest(c *gin.Context) {
	h.resolveRequest(c, "rejected", func(userID, requestID uuid.UUID) error {
		return h.service.RejectRequest(c.Request.Context(), userID, requestID)
	})
}

func (h *FriendHandler) CancelRequest(c *gin.Context) {
	h.resolveRequest(c, "cancelled", func(userID, requestID uuid.UUID) error {
		return h.service.CancelRequest(c.Request.Context(), userID, requestID)
	})
}

func (h *FriendHandler) resolveRequest(c *gin.Context, verb string, resolve func(userID, requestID uuid.UUID) error) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	requestID, err := uuid.Parse(c.Param("request_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request id"})
		return
	}

	if err := resolve(userID, requestID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Friend request "+verb+" successfully", nil)
}

func (h *FriendHandler) Unfriend(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	friendID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid user id"})
		return
	}

	if err := h.service.Unfriend(c.Request.Context(), userID, friendID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Friend removed successfully", nil)
}

func (h *FriendHandler) ListFriends(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var filter pkgdto.PageFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid pagination parameters"})
		return
	}

	friendList, meta, err := h.service.ListFriends(c.Request.Context(), userID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OKWithMeta(c, "Friends retrieved successfully", friendList, meta)
}

func (h *FriendHandler) ListRequests(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var filter pkgdto.PageFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid pagination parameters"})
		return
	}

	requests, meta, err := h.service.ListRequests(c.Request.Context(), userID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OKWithMeta(c, "Friend requests retrieved successfully", requests, meta)
}

func (h *FriendHandler) Block(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	targetID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid user id"})
		return
	}

	if err := h.service.Block(c.Request.Context(), userID, targetID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "User blocked successfully", nil)
}

func (h *FriendHandler) Unblock(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	targetID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid user id"})
		return
	}

	if err := h.service.Unblock(c.Request.Context(), userID, targetID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "User unblocked successfully", nil)
}

func (h *FriendHandler) ListBlocked(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var filter pkgdto.PageFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid pagination parameters"})
		return
	}

	blocked, err := h.service.ListBlocked(c.Request.Context(), userID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Blocked users retrieved successfully", blocked)
}

func (h *FriendHandler) Suggest(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	suggestions, err := h.service.Suggest(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Friend suggestions retrieved successfully", suggestions)
}

package handler

import (
	"log"
	"net/http"

	"sociafy/internal/modules/chat/dto"
	chat "sociafy/internal/modules/chat/service"
	pkgdto "sociafy/pkg/dto"
	"sociafy/pkg/response"
	"sociafy/pkg/validator"
	"sociafy/pkg/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type ChatHandler struct {
	service chat.ChatService
	rdb     *redis.Client
}

func NewChatHandler(service chat.ChatService, rdb *redis.Client) *ChatHandler {
	return &ChatHandler{service: service, rdb: rdb}
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": validator.FormatValidationError(err)})
		return
	}

	resp, err := h.service.SendMessage(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Message sent successfully", resp)
}

func (h *ChatHandler) ListConversations(c *gin.Context) {
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

	conversations, meta, err := h.service.ListConversations(c.Request.Context(), userID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OKWithMeta(c, "Conversations retrieved successfully", conversations, meta)
}

func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	conversationID, err := uuid.Parse(c.Param("conversation_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid conversation id"})
		return
	}

	var filter pkgdto.PageFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid pagination parameters"})
		return
	}

	messages, meta, err := h.service.ListMessages(c.Request.Context(), userID, conversationID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OKWithMeta(c, "Messages retrieved successfully", messages, meta)
}

// HandleWebSocket streams incoming chat messages to the connected user.
func (h *ChatHandler) HandleWebSocket(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.rdb == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "live chat is not available"})
		return
	}

	conn, err := ws.Upgrade(c)
	if err != nil {
		log.Printf("websocket upgrade failed for %s: %v", userID, err)
		return
	}

	ws.ServePubSub(conn, h.rdb, chat.ChannelFor(userID))
}

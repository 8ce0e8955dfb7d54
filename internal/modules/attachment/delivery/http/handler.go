package handler

import (
	"net/http"

	attachment "sociafy/internal/modules/attachment/service"
	"sociafy/pkg/response"

	"github.com/gin-gonic/gin"
)

type AttachmentHandler struct {
	service attachment.AttachmentService
}

func NewAttachmentHandler(service attachment.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{service: service}
}

// Upload accepts a multipart file and stores it unattached. The returned id
// is passed back when creating a post or a comment.
func (h *AttachmentHandler) Upload(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	result, err := h.service.Upload(c.Request.Context(), userID, file, fileHeader.Filename)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "File uploaded successfully", result)
}

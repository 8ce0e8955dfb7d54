package response

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"sociafy/internal/entity"
	"sociafy/pkg/apperror"
	"sociafy/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Envelope is the JSON shape every endpoint responds with.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Meta    any    `json:"meta,omitempty"`
}

func OK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func OKWithMeta(c *gin.Context, message string, data, meta any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data, Meta: meta})
}

func Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// Error maps the error to a status code via apperror and writes a failure
// envelope. Internal errors are logged, clients only see the generic message.
func Error(c *gin.Context, err error) {
	var rateErr *ratelimiter.RateLimitError
	if errors.As(err, &rateErr) {
		if rateErr.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(rateErr.RetryAfter.Seconds())))
		}
		c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "error": rateErr.Message})
		return
	}

	code := apperror.MapErrorToStatus(err)
	msg := err.Error()

	if code == http.StatusInternalServerError {
		log.Printf("[internal error] %v", err)
		msg = apperror.ErrInternal.Error()
	}

	c.JSON(code, gin.H{"success": false, "error": msg})
}

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	userID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	return userID, nil
}

// GetUserRole retrieves the authenticated user's role from the context.
func GetUserRole(c *gin.Context) string {
	role, exists := c.Get("user_role")
	if !exists {
		return entity.RoleUser
	}
	return role.(string)
}

package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/IMRiesen/avitolike/pkg/apperror"
	"github.com/IMRiesen/avitolike/pkg/ratelimiter"
	"github.com/IMRiesen/avitolike/pkg/validator"
	"github.com/gin-gonic/gin"
	playground "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	ContextUserID = "user_id"
	ContextRoles  = "roles"
)

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr, exists := c.Get(ContextUserID)
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	s, ok := userIDStr.(string)
	if !ok {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	userID, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	return userID, nil
}

// OptionalUserID returns nil for anonymous callers.
func OptionalUserID(c *gin.Context) *uuid.UUID {
	id, err := GetUserID(c)
	if err != nil {
		return nil
	}
	return &id
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	var rateErr *ratelimiter.RateLimitError
	if errors.As(err, &rateErr) {
		c.Header("Retry-After", fmt.Sprintf("%.0f", rateErr.RetryAfter.Seconds()))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": rateErr.Message})
		return
	}

	code := apperror.MapErrorToStatus(err)

	if code >= http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).WithError(err).Error("request failed")
		msg := apperror.ErrInternal.Error()
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Message != "" {
			msg = appErr.Message
		}
		c.JSON(code, gin.H{"error": msg})
		return
	}

	c.JSON(code, gin.H{"error": err.Error()})
}

// BindError reports a request binding failure as 400 with readable field messages.
func BindError(c *gin.Context, err error) {
	var ve playground.ValidationErrors
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(ve)})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
}

// InvalidParam reports an unparsable path or query parameter.
func InvalidParam(c *gin.Context, name string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
}

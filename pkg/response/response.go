package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tunehive.app/backend/pkg/apperror"
)

// GetUserID retrieves the authenticated user ID from the context.
func GetUserID(c *gin.Context) (primitive.ObjectID, error) {
	userIDStr, exists := c.Get("user_id")
	if !exists {
		return primitive.NilObjectID, apperror.ErrUnauthorized
	}

	userID, err := primitive.ObjectIDFromHex(userIDStr.(string))
	if err != nil {
		return primitive.NilObjectID, apperror.ErrUnauthorized
	}

	return userID, nil
}

// GetUsername retrieves the authenticated username from the context. The
// username is a claim snapshot, good enough for denormalized sender names.
func GetUsername(c *gin.Context) string {
	username, _ := c.Get("username")
	s, _ := username.(string)
	return s
}

// Error writes a standardized error response.
func Error(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	if code == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("internal error")
	}

	c.JSON(code, gin.H{"error": err.Error()})
}

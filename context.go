package rentall

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oamouyal-jpg/rentall/domain"
)

const (
	// UserKey is the gin context key for the authenticated user (*domain.User). Set by RequireAuth
	UserKey = "User"
	// RequestIDKey is the gin context key for the request ID (uuid.UUID). The same ID is attached to every log line for the request
	RequestIDKey = "RequestID"
)

// ContextWithUser stores the authenticated user on the request context
func ContextWithUser(c *gin.Context, user *domain.User) {
	c.Set(UserKey, user)
}

// UserFromContext returns the authenticated user from the context if it exists
func UserFromContext(c *gin.Context) (*domain.User, bool) {
	value, ok := c.Get(UserKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*domain.User)
	return user, ok
}

// ContextWithRequestID stores the request ID on the request context
func ContextWithRequestID(c *gin.Context, requestId uuid.UUID) {
	c.Set(RequestIDKey, requestId)
}

// RequestIDFromContext returns the request ID from the context if it exists
func RequestIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(RequestIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}

package rentall

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/oamouyal-jpg/rentall/auth"
)

// RequireAuth verifies the Bearer token on the request and loads the
// authenticated user into the context. Requests without a valid token for an
// existing user are rejected with 401.
func (server *Server) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			detail(c, http.StatusUnauthorized, "Not authenticated")
			return
		}
		userID, err := server.Tokens.Verify(token)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				detail(c, http.StatusUnauthorized, "Token expired")
				return
			}
			detail(c, http.StatusUnauthorized, "Invalid token")
			return
		}
		user, err := server.Repo.GetUser(userID)
		if err != nil {
			detail(c, http.StatusUnauthorized, "User not found")
			return
		}
		ContextWithUser(c, user)
		c.Next()
	}
}

// RequestLogger tags each request with an ID and logs it on completion.
func (server *Server) RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestId, err := uuid.NewV7()
		if err == nil {
			ContextWithRequestID(c, requestId)
		}
		c.Next()
		server.Logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", requestId.String()),
		)
	}
}

// RateLimit throttles clients per IP using a token bucket. Setting the
// configured rate to zero or below disables limiting entirely.
func (server *Server) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if server.Config.RateLimitRPS <= 0 {
			c.Next()
			return
		}
		if !server.allowVisitor(c.ClientIP()) {
			detail(c, http.StatusTooManyRequests, "Too many requests")
			return
		}
		c.Next()
	}
}

// allowVisitor checks the rate limiter for the given IP, creating one on
// first sight. Idle visitors are pruned once the map grows past a thousand
// entries so long-running servers don't accumulate dead IPs.
func (server *Server) allowVisitor(ip string) bool {
	server.visitorsMu.Lock()
	defer server.visitorsMu.Unlock()
	if len(server.visitors) > 1000 {
		for key, seen := range server.visitors {
			if time.Since(seen.lastSeen) > 10*time.Minute {
				delete(server.visitors, key)
			}
		}
	}
	v, ok := server.visitors[ip]
	if !ok {
		v = &visitor{
			limiter: rate.NewLimiter(rate.Limit(server.Config.RateLimitRPS), server.Config.RateLimitBurst),
		}
		server.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter.Allow()
}

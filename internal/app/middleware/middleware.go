package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/anoopems/chaikada/internal/app/domain/auth"
)

const userIDKey = "user_id"

// CORSMiddleware handles CORS headers
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// SecurityMiddleware adds security headers
func SecurityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Writer.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// OptionalAuth attaches the authenticated user id to the request context
// when a valid bearer token is present. Requests without a token proceed
// anonymously.
func OptionalAuth(authService auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			if claims, err := authService.ValidateToken(token); err == nil {
				if userID, err := uuid.Parse(claims.UserID); err == nil {
					c.Set(userIDKey, userID)
				}
			}
		}
		c.Next()
	}
}

// UserIDFromContext returns the authenticated user id set by OptionalAuth.
func UserIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// RateLimit applies a fixed-window per-client limit. Counters live in an
// expiring in-memory cache keyed by client IP.
func RateLimit(limit int64, window time.Duration) gin.HandlerFunc {
	buckets := gocache.New(window, 2*window)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if err := buckets.Add(ip, int64(1), gocache.DefaultExpiration); err != nil {
			n, incErr := buckets.IncrementInt64(ip, 1)
			if incErr == nil && n > limit {
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
				return
			}
		}
		c.Next()
	}
}

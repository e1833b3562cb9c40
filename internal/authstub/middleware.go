package authstub

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	bearerPrefix = "Bearer "
	userKey      = "user"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
)

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
}

// requireUser validates the bearer token and loads the active user
func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			s.logger.Debug().Err(err).Msg("Rejected request without usable bearer token")
			unauthorized(c)
			return
		}

		claims, err := s.tokens.validate(token)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to validate token")
			unauthorized(c)
			return
		}

		var user User
		if err := s.db.Where("id = ?", claims.UserID).First(&user).Error; err != nil {
			s.logger.Warn().Err(err).Int64("user_id", claims.UserID).Msg("Token user not found")
			unauthorized(c)
			return
		}

		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "Inactive user"})
			return
		}

		c.Set(userKey, &user)
		c.Next()
	}
}

func currentUser(c *gin.Context) (*User, bool) {
	v, exists := c.Get(userKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*User)
	return user, ok
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

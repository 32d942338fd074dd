package http

import (
	"strings"

	"github.com/gin-gonic/gin"

	"pinquiz/internal/domain"
)

const userIDKey = "user_id"

// requireAuth resolves the bearer token to a user id and stores it on the context.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			writeError(c, domain.ErrUnauthorized)
			c.Abort()
			return
		}
		userID, err := s.tokens.Parse(parts[1])
		if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUser(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}

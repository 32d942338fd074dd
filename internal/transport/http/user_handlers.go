package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pinquiz/internal/domain"
)

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username and password are required")
		return
	}
	user, err := s.users.Signup(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, domain.ErrUsernameTaken) {
		c.JSON(http.StatusConflict, gin.H{"created": false, "error": err.Error()})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"created": true, "user_id": user.ID})
}

func (s *Server) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username and password are required")
		return
	}
	user, err := s.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": user.ID, "token": token})
}

func (s *Server) userInfo(c *gin.Context) {
	info, err := s.users.Info(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

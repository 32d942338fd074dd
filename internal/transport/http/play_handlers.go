package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pinquiz/internal/domain"
)

func (s *Server) playQuiz(c *gin.Context) {
	view, err := s.quizzes.GetForPlay(c.Request.Context(), c.Param("pin"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) submitAnswers(c *gin.Context) {
	var sub domain.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		badRequest(c, "invalid submission payload")
		return
	}
	result, err := s.play.Play(c.Request.Context(), currentUser(c), c.Param("pin"), sub)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) leaderboard(c *gin.Context) {
	pin := c.Param("pin")
	entries, err := s.play.Leaderboard(c.Request.Context(), pin)
	if err != nil {
		writeError(c, err)
		return
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"pin": pin, "leaderboard": entries})
}

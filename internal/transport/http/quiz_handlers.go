package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pinquiz/internal/domain"
)

type replaceQuestionsRequest struct {
	Name      string            `json:"name"`
	Questions []domain.Question `json:"choice_questions"`
}

func (s *Server) createQuiz(c *gin.Context) {
	quiz, err := s.quizzes.Create(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"pin": quiz.Pin, "name": quiz.Name})
}

func (s *Server) listOwnQuizzes(c *gin.Context) {
	quizzes, err := s.quizzes.ListOwned(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if quizzes == nil {
		quizzes = []domain.QuizSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"quizzes": quizzes})
}

func (s *Server) replaceQuestions(c *gin.Context) {
	var req replaceQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid quiz payload")
		return
	}
	err := s.quizzes.ReplaceQuestions(c.Request.Context(), c.Param("pin"), currentUser(c), req.Name, req.Questions)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posted": true})
}

func (s *Server) publishQuiz(c *gin.Context) {
	if err := s.quizzes.Publish(c.Request.Context(), c.Param("pin"), currentUser(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"published": true})
}

func (s *Server) deleteQuiz(c *gin.Context) {
	if err := s.quizzes.Delete(c.Request.Context(), c.Param("pin"), currentUser(c)); err != nil {
		writeErrorWith(c, err, gin.H{"deleted": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (s *Server) editQuiz(c *gin.Context) {
	view, err := s.quizzes.GetForEdit(c.Request.Context(), c.Param("pin"), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) quizExists(c *gin.Context) {
	pin := c.Param("pin")
	exists, err := s.quizzes.Exists(c.Request.Context(), pin)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists, "pin": pin})
}

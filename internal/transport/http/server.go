package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"pinquiz/internal/app"
	"pinquiz/internal/auth"
	"pinquiz/internal/platform/logger"
)

// Server exposes the quiz use cases over REST and a websocket play channel.
type Server struct {
	users    *app.UserService
	quizzes  *app.QuizLifecycle
	play     *app.PlayService
	tokens   *auth.TokenIssuer
	log      *logger.Logger
	upgrader websocket.Upgrader
}

func NewServer(users *app.UserService, quizzes *app.QuizLifecycle, play *app.PlayService, tokens *auth.TokenIssuer, log *logger.Logger) *Server {
	return &Server{
		users:   users,
		quizzes: quizzes,
		play:    play,
		tokens:  tokens,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	user := router.Group("/user")
	{
		user.POST("/signup", s.signup)
		user.POST("/login", s.login)
	}

	authed := router.Group("/", s.requireAuth())
	{
		authed.GET("/home/userinfo", s.userInfo)

		authed.POST("/quizzes", s.createQuiz)
		authed.GET("/quizzes/mine", s.listOwnQuizzes)
		authed.PUT("/quizzes/:pin/questions", s.replaceQuestions)
		authed.POST("/quizzes/:pin/publish", s.publishQuiz)
		authed.DELETE("/quizzes/:pin", s.deleteQuiz)
		authed.GET("/quizzes/:pin/edit", s.editQuiz)

		authed.POST("/play/:pin/answers", s.submitAnswers)
	}

	router.GET("/quizzes/:pin/exists", s.quizExists)
	router.GET("/quizzes/:pin/leaderboard", s.leaderboard)
	router.GET("/play/:pin", s.playQuiz)
	router.GET("/ws/play", s.ServeWS)
	return router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			s.log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "status", status, "elapsed", time.Since(start), "errors", c.Errors.String())
			return
		}
		s.log.Debug("request", "method", c.Request.Method, "path", c.FullPath(), "status", status, "elapsed", time.Since(start))
	}
}

package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/quiz-service/internal/metrics"
	"github.com/SAP-F-2025/quiz-service/internal/middleware"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	authHandler     *AuthHandler
	courseHandler   *CourseHandler
	questionHandler *QuestionHandler
	quizHandler     *QuizHandler
	attemptHandler  *AttemptHandler

	authenticator middleware.Authenticator
	rateLimiter   *middleware.RateLimiter
	metrics       *metrics.Metrics
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	m *metrics.Metrics,
	rateLimiter *middleware.RateLimiter,
) *HandlerManager {
	return &HandlerManager{
		authHandler:     NewAuthHandler(serviceManager.Auth(), logger),
		courseHandler:   NewCourseHandler(serviceManager.Course(), logger),
		questionHandler: NewQuestionHandler(serviceManager.Question(), logger),
		quizHandler:     NewQuizHandler(serviceManager.Quiz(), serviceManager.QuestionPaper(), logger),
		attemptHandler:  NewAttemptHandler(serviceManager.Attempt(), serviceManager.Grading(), serviceManager.Export(), logger),
		authenticator:   serviceManager.Auth(),
		rateLimiter:     rateLimiter,
		metrics:         m,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	if hm.metrics != nil {
		router.Use(hm.metrics.Middleware())
		router.GET("/metrics", hm.metrics.Handler())
	}

	router.GET("/health", HealthCheck)

	limited := func(c *gin.Context) { c.Next() }
	if hm.rateLimiter != nil {
		limited = hm.rateLimiter.Middleware()
	}
	requireAuth := middleware.RequireAuth(hm.authenticator)
	moderator := middleware.RequireModerator()

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", limited, hm.authHandler.Register)
			auth.POST("/login", limited, hm.authHandler.Login)
			auth.POST("/logout", requireAuth, hm.authHandler.Logout)
			auth.GET("/profile/:username", requireAuth, hm.authHandler.GetProfile)
			auth.PUT("/profile", requireAuth, hm.authHandler.UpdateProfile)
		}

		protected := v1.Group("", requireAuth)

		questions := protected.Group("/questions", moderator)
		{
			questions.POST("", hm.questionHandler.CreateQuestion)
			questions.GET("", hm.questionHandler.ListQuestions)
			questions.GET("/:id", hm.questionHandler.GetQuestion)
			questions.PUT("/:id", hm.questionHandler.UpdateQuestion)
			questions.DELETE("/:id", hm.questionHandler.DeleteQuestion)
		}

		quizzes := protected.Group("/quizzes", moderator)
		{
			quizzes.POST("", hm.quizHandler.CreateQuiz)
			quizzes.GET("", hm.quizHandler.ListQuizzes)
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
			quizzes.PUT("/:id", hm.quizHandler.UpdateQuiz)
			quizzes.DELETE("/:id", hm.quizHandler.DeleteQuiz)
		}

		papers := protected.Group("/questionpapers", moderator)
		{
			papers.POST("", hm.quizHandler.CreateQuestionPaper)
			papers.GET("", hm.quizHandler.ListQuestionPapers)
			papers.GET("/:id", hm.quizHandler.GetQuestionPaper)
			papers.PUT("/:id", hm.quizHandler.UpdateQuestionPaper)
			papers.DELETE("/:id", hm.quizHandler.DeleteQuestionPaper)
		}

		courses := protected.Group("/courses")
		{
			courses.GET("", hm.courseHandler.ListCourses)
			courses.POST("", moderator, hm.courseHandler.CreateCourse)
			courses.GET("/:id", hm.courseHandler.GetCourse)
			courses.POST("/:id/students", moderator, hm.courseHandler.EnrollStudent)
		}

		answerPapers := protected.Group("/answerpapers")
		{
			answerPapers.POST("", hm.attemptHandler.CreateAnswerPaper)
			answerPapers.GET("", moderator, hm.attemptHandler.ListAnswerPapers)
			answerPapers.GET("/export", moderator, hm.attemptHandler.ExportAnswerPapers)
			answerPapers.GET("/:id", hm.attemptHandler.GetAnswerPaper)
			answerPapers.POST("/:id/questions/:question_id/uploads", limited, hm.attemptHandler.UploadAssignment)
		}

		protected.GET("/uploads/:id", hm.attemptHandler.DownloadAssignment)
		protected.GET("/start_quiz/:course_id/:quiz_id", hm.attemptHandler.StartQuiz)
		protected.GET("/quit/:answerpaper_id", hm.attemptHandler.Quit)

		validate := protected.Group("/validate", limited)
		{
			validate.POST("/:answerpaper_id/:question_id", hm.attemptHandler.ValidateAnswer)
			validate.GET("/:uid", hm.attemptHandler.PollResult)
		}
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "quiz-service",
	})
}

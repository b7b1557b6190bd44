package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/quizgate/quizgate/internal/config"
	"github.com/quizgate/quizgate/internal/handler"
	"github.com/quizgate/quizgate/internal/middleware"
	"github.com/quizgate/quizgate/internal/model"
	"github.com/quizgate/quizgate/internal/response"
	"github.com/quizgate/quizgate/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth        *handler.AuthHandler
	Participant *handler.ParticipantHandler
	Attempt     *handler.AttemptHandler
	Trainer     *handler.TrainerHandler
	WS          *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/register", handlers.Auth.Register)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireSession(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireSession(authService), handlers.Auth.Me)
	}

	// ─── 2. Participant Group (JWT + Session + Role) ───────────────────
	participantAPI := router.Group("/api/v1/participant")
	participantAPI.Use(
		middleware.RequireSession(authService),
		middleware.CheckPersistedSession(authService),
		middleware.RequireRole(model.RoleParticipant),
	)
	{
		participantAPI.GET("/quizzes", handlers.Participant.ListQuizzes)
		participantAPI.POST("/quizzes/:quiz_id/select", handlers.Participant.SelectQuiz)
		participantAPI.GET("/quiz-context", handlers.Participant.GetQuizContext)
		participantAPI.DELETE("/quiz-context", handlers.Participant.ClearQuizContext)

		participantAPI.POST("/attempts", handlers.Attempt.Begin)
		participantAPI.GET("/attempts/:attempt_id", handlers.Attempt.View)
		participantAPI.PUT("/attempts/:attempt_id/answers", handlers.Attempt.SetAnswer)
		participantAPI.POST("/attempts/:attempt_id/submit", handlers.Attempt.Submit)
		participantAPI.DELETE("/attempts/:attempt_id", handlers.Attempt.Abandon)
	}

	// ─── 3. Trainer Group (JWT + Session + Role) ───────────────────────
	trainerAPI := router.Group("/api/v1/trainer")
	trainerAPI.Use(
		middleware.RequireSession(authService),
		middleware.CheckPersistedSession(authService),
		middleware.RequireRole(model.RoleTrainer),
	)
	{
		trainerAPI.GET("/quizzes", handlers.Trainer.ListQuizzes)
		trainerAPI.POST("/quizzes", handlers.Trainer.CreateQuiz)
		trainerAPI.POST("/quizzes/:quiz_id/start", handlers.Trainer.StartQuiz)
		trainerAPI.POST("/quizzes/:quiz_id/end", handlers.Trainer.EndQuiz)
		trainerAPI.GET("/quizzes/:quiz_id/analysis", handlers.Trainer.Analysis)
	}

	// ─── 4. WebSocket Group (WS Auth + Role) ───────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.RequireWSAuth(authService),
		middleware.CheckPersistedSession(authService),
		middleware.RequireRole(model.RoleParticipant),
	)
	{
		ws.GET("/attempts/:attempt_id/stream", handlers.WS.AttemptStream)
	}

	return router
}

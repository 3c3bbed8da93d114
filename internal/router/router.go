package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/itemforge/itemforge-backend/internal/config"
	"github.com/itemforge/itemforge-backend/internal/handler"
	"github.com/itemforge/itemforge-backend/internal/middleware"
	"github.com/itemforge/itemforge-backend/internal/response"
	"github.com/itemforge/itemforge-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Material *handler.MaterialHandler
	Task     *handler.TaskHandler
	Question *handler.QuestionHandler
	Review   *handler.ReviewHandler
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

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

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
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Authenticated API ──────────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireJWT(authService))
	{
		// Materials and knowledge points
		api.POST("/materials", handlers.Material.CreateMaterial)
		api.GET("/materials", handlers.Material.ListMaterials)
		api.GET("/materials/:id", handlers.Material.GetMaterial)
		api.DELETE("/materials/:id", handlers.Material.DeleteMaterial)
		api.POST("/materials/:id/knowledge-points", handlers.Material.AddKnowledgePoint)
		api.GET("/materials/:id/knowledge-points", handlers.Material.ListKnowledgePoints)
		api.DELETE("/knowledge-points/:id", handlers.Material.DeleteKnowledgePoint)

		// Generation tasks
		api.POST("/tasks", handlers.Task.CreateTask)
		api.GET("/tasks", handlers.Task.ListTasks)
		api.GET("/tasks/:id", handlers.Task.GetTask)
		api.POST("/tasks/:id/submit", handlers.Task.SubmitForReview)
		api.POST("/tasks/:id/regenerate", handlers.Task.Regenerate)
		api.GET("/tasks/:id/questions", handlers.Question.ListTaskQuestions)

		// Questions
		api.POST("/questions", handlers.Question.CreateQuestion)
		api.GET("/questions/:id", handlers.Question.GetQuestion)

		// Review pipeline
		api.POST("/questions/:id/ai-review", handlers.Review.AIReview)
		api.POST("/questions/:id/review", handlers.Review.ManualReview)
		api.POST("/questions/:id/approve", handlers.Review.Approve)
		api.POST("/questions/:id/reject", handlers.Review.Reject)

		// Batch operations
		api.POST("/questions/batch/ai-review", handlers.Review.BatchAIReview)
		api.POST("/questions/batch/review", handlers.Review.BatchManualReview)
		api.POST("/questions/batch/approve", handlers.Review.BatchApprove)
		api.POST("/questions/batch/delete", handlers.Review.BatchDelete)

		// Published bank
		api.GET("/bank", handlers.Question.ListBank)
	}

	return router
}

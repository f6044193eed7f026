package http

import (
	"task_manager/internal/config"
	"task_manager/internal/http/handlers"
	"task_manager/internal/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, cfg *config.Config) {
	h := handlers.NewHandler(db)
	healthHandler := handlers.NewHealthHandler(db, cfg.Version)

	r.Use(middleware.RequestID())
	r.Use(middleware.Metrics())

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	authRL := middleware.RedisRateLimit(cfg.AuthRateLimit, cfg.AuthRateWindow)
	apiRL := middleware.RedisRateLimit(cfg.APIRateLimit, cfg.APIRateWindow)

	// Auth (public, tighter rate limit)
	r.POST("/signup", authRL, h.Signup)
	r.POST("/login", authRL, h.Login)

	// Labels (shared across users, auth required, no ownership)
	labels := r.Group("/labels")
	labels.Use(apiRL, middleware.JWT())
	{
		labels.POST("", h.CreateLabel)
		labels.GET("", h.GetLabels)
		labels.PUT("/:id", h.UpdateLabel)
		labels.DELETE("/:id", h.DeleteLabel)
	}

	// Tasks (owner-scoped)
	tasks := r.Group("/tasks")
	tasks.Use(apiRL, middleware.JWT())
	{
		tasks.POST("", h.CreateTask)
		tasks.GET("", h.ListTasks)
		tasks.PUT("/:id", h.UpdateTask)
		tasks.DELETE("/:id", h.DeleteTask)
	}
}

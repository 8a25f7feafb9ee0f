package http

import (
	"os"
	"strconv"
	"time"

	"taskflow/internal/config"
	"taskflow/internal/http/handlers"
	"taskflow/internal/http/middleware"
	"taskflow/internal/repository"
	"taskflow/internal/service"
	"taskflow/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterRoutes wires the API surface. The hub is constructed by the
// caller (process start) and shared between the websocket accept path
// and the task service, which publishes into it.
func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, hub *ws.Hub, version string, cfg *config.Config) {
	activity := service.NewActivityService(db)
	tasks := service.NewTaskService(
		repository.NewTaskRepository(db),
		repository.NewUserRepository(db),
		hub,
		activity,
	)
	if cfg != nil {
		tasks.SetPageLimits(cfg.DefaultPageSize, cfg.MaxPageSize)
	}

	h := handlers.NewHandler(db, tasks, activity)
	healthHandler := handlers.NewHealthHandler(db, version)

	// read limits from env, with safe defaults
	apiRateLimit := 100
	if v := os.Getenv("API_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateLimit = n
		}
	}
	apiRateWindow := time.Minute
	if v := os.Getenv("API_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateWindow = time.Duration(n) * time.Second
		}
	}

	authRateLimit := 10
	if v := os.Getenv("AUTH_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			authRateLimit = n
		}
	}
	authRateWindow := time.Minute
	if v := os.Getenv("AUTH_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			authRateWindow = time.Duration(n) * time.Second
		}
	}

	writeRateLimit := 60
	if v := os.Getenv("WRITE_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			writeRateLimit = n
		}
	}

	// Without Redis the in-process limiter still bounds abusive clients.
	ipLimit := middleware.RedisRateLimit
	if os.Getenv("REDIS_ADDR") == "" {
		ipLimit = middleware.SimpleRateLimit
	}

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	api := r.Group("/api")
	api.Use(ipLimit(apiRateLimit, apiRateWindow))

	// Keep a health endpoint under /api for frontend probes
	api.GET("/health", healthHandler.Health)

	// Auth
	authRL := ipLimit(authRateLimit, authRateWindow)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authRL, h.Register)
		auth.POST("/login", authRL, h.Login)
		auth.GET("/me", middleware.JWT(), h.Me)
		auth.GET("/users", middleware.JWT(), h.ListUsers)
	}

	// Per-user limiter on mutations only; reads stay on the IP limiter.
	writeRL := middleware.UserRateLimit(writeRateLimit, time.Minute)

	// Tasks
	taskRoutes := api.Group("/tasks")
	taskRoutes.Use(middleware.JWT())
	{
		taskRoutes.GET("", h.ListTasks)
		taskRoutes.POST("", writeRL, h.CreateTask)
		taskRoutes.GET("/stats", h.GetStats)
		taskRoutes.GET("/:id", h.GetTask)
		taskRoutes.PUT("/:id", writeRL, h.UpdateTask)
		taskRoutes.DELETE("/:id", writeRL, h.DeleteTask)
		taskRoutes.GET("/:id/activity", h.GetTaskActivity)
	}

	// WebSocket push channel
	r.GET("/ws", ws.HandleWS(hub))
}

// Package api assembles the HTTP router.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avelez9/habitflow/internal/api/auth"
	"github.com/avelez9/habitflow/internal/api/habits"
	"github.com/avelez9/habitflow/internal/api/middleware"
	"github.com/avelez9/habitflow/internal/api/rewards"
	"github.com/avelez9/habitflow/internal/api/tasks"
	"github.com/avelez9/habitflow/internal/config"
	"github.com/avelez9/habitflow/pkg/logger"
)

// Handlers groups the per-area handlers the router mounts.
type Handlers struct {
	Auth    *auth.Handler
	Habits  *habits.Handler
	Tasks   *tasks.Handler
	Rewards *rewards.Handler
}

// HealthChecker reports database liveness.
type HealthChecker interface {
	Health() error
}

// NewRouter builds the gin engine with all routes mounted.
func NewRouter(cfg *config.Config, h Handlers, tokens middleware.TokenParser, db HealthChecker, log *logger.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logging(log))

	r.GET("/health", func(c *gin.Context) {
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api")

	api.POST("/users/register", h.Auth.Register)
	api.POST("/users/login", h.Auth.Login)

	authed := api.Group("")
	authed.Use(middleware.Auth(tokens))
	{
		authed.GET("/users/me", h.Auth.Me)
		authed.PUT("/users/me", h.Auth.UpdateProfile)
		authed.PUT("/users/password", h.Auth.ChangePassword)

		authed.POST("/habits", h.Habits.Create)
		authed.GET("/habits", h.Habits.List)
		authed.GET("/habits/progress", h.Habits.Progress)
		authed.GET("/habits/:id", h.Habits.Get)
		authed.PUT("/habits/:id", h.Habits.Update)
		authed.DELETE("/habits/:id", h.Habits.Delete)
		authed.POST("/habits/:id/toggle", h.Habits.Toggle)

		authed.POST("/tasks", h.Tasks.Create)
		authed.GET("/tasks", h.Tasks.List)
		authed.GET("/tasks/:id", h.Tasks.Get)
		authed.PUT("/tasks/:id", h.Tasks.Update)
		authed.POST("/tasks/:id/complete", h.Tasks.Complete)
		authed.DELETE("/tasks/:id", h.Tasks.Delete)

		authed.GET("/badges", h.Rewards.ListBadges)
		authed.GET("/badges/catalog", h.Rewards.Catalog)
		authed.GET("/streak", h.Rewards.Streak)
	}

	return r
}

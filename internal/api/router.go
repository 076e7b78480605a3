// Package api exposes the quiz engine over HTTP.
package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterConfig configures middleware.
type RouterConfig struct {
	// CORSOrigins lists allowed origins; "*" allows any.
	CORSOrigins []string

	// AccessLog enables gin's request logger.
	AccessLog bool
}

// NewRouter wires every route to h.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.AccessLog {
		r.Use(gin.Logger())
	}
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	r.GET("/healthz", h.Health)

	api := r.Group("/api")
	{
		api.GET("/subjects", h.ListSubjects)
		api.GET("/quiz", h.GetQuiz)
		api.POST("/quiz", h.ScoreQuiz)
	}

	sessions := api.Group("/sessions")
	{
		sessions.POST("", h.StartSession)
		sessions.GET("/:id", h.GetSession)
		sessions.DELETE("/:id", h.AbandonSession)
		sessions.PUT("/:id/answers/:index", h.RecordAnswer)
		sessions.POST("/:id/submit", h.SubmitSession)
	}

	users := api.Group("/users/:id")
	{
		users.GET("/stats", h.GetStats)
		users.GET("/performance", h.GetPerformance)
		users.GET("/tiers", h.GetTiers)
		users.GET("/sessions", h.ListSessions)
		users.GET("/export", h.ExportUser)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "Content-Length", "Accept", "Origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

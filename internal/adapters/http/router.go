package http

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/driftline/voicerelay/internal/app"
	"github.com/driftline/voicerelay/internal/config"
)

func SetupRouter(cfg *config.Config, engine *app.Engine) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	h := &Handlers{Engine: engine}

	api := r.Group("/api")
	api.POST("/join_room", h.JoinRoom)
	api.POST("/signal", h.Signal)
	api.POST("/leave_room", h.LeaveRoom)
	api.GET("/poll", h.Poll)
	api.GET("/health", h.Health)
	api.GET("/rooms", h.Rooms)

	r.Static("/static", cfg.StaticPath+"/static")
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})
	// Client-side routes fall back to the SPA entry; unknown API paths
	// stay 404.
	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(404, gin.H{"error": "not found"})
			return
		}
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}

package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/codepals/collab/internal/adapters/ws"
	"github.com/codepals/collab/internal/ai"
	"github.com/codepals/collab/internal/config"
	"github.com/codepals/collab/internal/core"
)

func genClientToken() string {
	return uuid.NewString()
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	wsCtl *ws.Controller,
	dir *core.Directory,
	aiClient *ai.Client,
) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("CodePalsSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("token", c.GetString("client_token")).Msg("ws endpoint hit")
		wsCtl.Handle(ctx, c)
	})

	api.GET("/sessions", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sessions": dir.List()})
	})

	aiCtl := NewAIController(aiClient)
	api.POST("/ai/chat", aiCtl.Chat)
	api.POST("/ai/review", aiCtl.Review)

	return r
}

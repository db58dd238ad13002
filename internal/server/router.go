// Package server assembles the HTTP surface: middleware, auth and review
// routes, the live feed and the operational endpoints.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"reviewme/internal/auth"
	"reviewme/internal/feed"
	"reviewme/internal/httpx"
	"reviewme/internal/reviews"
	"reviewme/internal/storage"
	"reviewme/pkg/utils"
)

type Deps struct {
	Config *utils.Config
	Stores *storage.Stores
	Hub    *feed.Hub
	// Events receives review changes. Defaults to Hub.
	Events feed.Publisher
}

func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	var events feed.Publisher = feed.Discard{}
	switch {
	case d.Events != nil:
		events = d.Events
	case d.Hub != nil:
		events = d.Hub
	}

	router := gin.New()
	router.Use(httpx.RequestLogger(), httpx.Recovery(), httpx.ErrorHandler())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.NoRoute(httpx.NotFound)

	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ready", readyHandler(d.Stores, d.Hub))

	tokens := auth.TokenService{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.JWTIssuer,
		Duration: cfg.Auth.JWTDuration,
	}
	authSvc := auth.NewService(d.Stores.Users, auth.NewHasher(cfg.Auth.BcryptCost), tokens)
	cookies := auth.CookieConfig{
		Secure: !cfg.IsLocal(),
		MaxAge: tokens.Duration,
	}
	auth.NewHandler(authSvc, cookies).RegisterRoutes(router.Group("/api/auth/v1"))

	reviewGroup := router.Group("/api/review")
	reviews.NewHandler(reviews.NewService(d.Stores.Reviews, events)).
		RegisterRoutes(reviewGroup, auth.AuthMiddleware(tokens))
	if d.Hub != nil {
		reviewGroup.GET("/feed", feed.WSHandler(d.Hub, feed.NewUpgrader(cfg.CORSAllowedOrigins)))
	}

	return router
}

func readyHandler(stores *storage.Stores, hub *feed.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var stats feed.Stats
		if hub != nil {
			stats = hub.Stats()
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := stores.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("store", stores.Backend).Msg("readiness check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"store":       stores.Backend,
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"store":       stores.Backend,
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	}
}

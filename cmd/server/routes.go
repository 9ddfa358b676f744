package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chat-ledger.backend/internal/config"
	"chat-ledger.backend/internal/infrastructure/metrics"
	"chat-ledger.backend/internal/interfaces/http/handlers"
	"chat-ledger.backend/internal/interfaces/http/middleware"
)

type routeDeps struct {
	authHandler         *handlers.AuthHandler
	conversationHandler *handlers.ConversationHandler
	chatHandler         *handlers.ChatHandler
	mintHandler         *handlers.MintHandler
	pinHandler          *handlers.PinHandler
	healthHandler       *handlers.HealthHandler
	walletAuth          gin.HandlerFunc
	nonceLimiter        gin.HandlerFunc
}

func newRouter(cfg *config.Config, d routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	applyCORSMiddleware(r, cfg.Server.AllowedOrigins)
	registerHealthRoute(r, d.healthHandler)
	registerMetricsRoute(r)
	registerAPIV1Routes(r, d)
	return r
}

func applyCORSMiddleware(r *gin.Engine, allowedOrigins []string) {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[strings.TrimRight(origin, "/")] = true
	}

	r.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			// credentials only for origins named explicitly
			if allowed[origin] {
				c.Header("Access-Control-Allow-Credentials", "true")
			}
		}
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+middleware.RequestIDHeader)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Expose-Headers", middleware.RequestIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}

func registerHealthRoute(r *gin.Engine, h *handlers.HealthHandler) {
	r.GET("/health", h.Health)
}

func registerMetricsRoute(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		// Auth routes
		auth := v1.Group("/auth")
		{
			auth.GET("/nonce/:address", d.nonceLimiter, d.authHandler.GetNonce)
			auth.POST("/verify", d.authHandler.Verify)
			auth.GET("/me", d.walletAuth, d.authHandler.GetMe)
		}

		// Conversation routes (protected)
		conversations := v1.Group("/conversations")
		conversations.Use(d.walletAuth)
		{
			conversations.POST("", d.conversationHandler.CreateConversation)
			conversations.GET("", d.conversationHandler.ListConversations)
			conversations.GET("/:id", d.conversationHandler.GetConversation)
			conversations.POST("/:id/messages", d.conversationHandler.AddMessage)
			conversations.GET("/:id/history", d.conversationHandler.GetHistory)
			conversations.GET("/:id/mints", d.conversationHandler.ListConversationMints)
		}

		v1.POST("/chat", d.walletAuth, d.chatHandler.Chat)

		// Mint routes (protected)
		mint := v1.Group("/mint")
		mint.Use(d.walletAuth)
		{
			mint.POST("", d.mintHandler.CreateMint)
			mint.GET("", d.mintHandler.ListMints)
			mint.GET("/:id", d.mintHandler.GetMint)
			mint.PATCH("/:id/listing", d.mintHandler.UpdateListing)
		}

		// Pin administration (protected)
		pins := v1.Group("/pins")
		pins.Use(d.walletAuth)
		{
			pins.GET("", d.pinHandler.ListPins)
			pins.DELETE("/:cid", d.pinHandler.Unpin)
		}
	}
}

// Package server exposes the resolution and proxy pipeline over HTTP.
package server

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/doctorbhh/ragam/config"
	"github.com/doctorbhh/ragam/internal/proxy"
	"github.com/doctorbhh/ragam/internal/resolver"
)

// Server handles HTTP requests for track resolution and stream relaying.
type Server struct {
	cfg      *config.Config
	router   *gin.Engine
	resolver *resolver.Resolver
	proxy    *proxy.Proxy
}

// New creates a new HTTP server instance wired from cfg.
func New(cfg *config.Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	server := &Server{
		cfg:      cfg,
		router:   router,
		resolver: resolver.FromConfig(cfg),
		proxy:    proxy.New(time.Duration(cfg.Providers.TimeoutSeconds) * time.Second),
	}

	server.setupRoutes(router)
	return server
}

// setupRoutes configures middleware and the HTTP routes.
func (s *Server) setupRoutes(router *gin.Engine) {
	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Range")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Request-ID + access log middleware
	router.Use(func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		slog.Info("request",
			"id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	})

	// Health check endpoint
	router.GET("/health", s.healthCheck)

	// Streaming proxy lives at the root so rewritten manifest URLs
	// resolve against the same path.
	router.GET("/proxy", s.proxyStream)

	// API endpoints
	api := router.Group("/api/v1")
	{
		api.GET("/search", s.search)
		api.GET("/resolve", s.resolve)
	}
}

// Start starts the HTTP server.
func (s *Server) Start(port string) error {
	return s.router.Run(":" + port)
}

// Package router assembles the gin engine and owns the HTTP server
// lifecycle.
package router

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"dev.helix.deliberation/internal/config"
	"dev.helix.deliberation/internal/handlers"
	"dev.helix.deliberation/internal/ws"
)

// Router wraps the gin engine with start/shutdown lifecycle management.
type Router struct {
	engine *gin.Engine
	server *http.Server
	cfg    *config.Config
	log    *logrus.Logger

	mu      sync.Mutex
	running bool
}

// New builds the engine with all routes registered.
func New(cfg *config.Config, debates *handlers.DebateHandler, hub *ws.Hub, log *logrus.Logger) *Router {
	if log == nil {
		log = logrus.New()
	}
	gin.SetMode(cfg.Server.Mode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(log))

	// The REST API is pinned to a single origin while the WebSocket channel
	// accepts any; this mirrors the current deployment.
	api := engine.Group("/api", apiCORS(cfg.Server.APIOrigin))
	api.POST("/start_debate", debates.StartDebate)
	api.OPTIONS("/start_debate", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	engine.GET("/ws", hub.HandleWS)
	engine.GET("/health", debates.Health)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Router{engine: engine, cfg: cfg, log: log}
}

// Engine returns the underlying gin engine, mainly for tests.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Start runs the HTTP server and blocks until shutdown.
func (r *Router) Start(addr string) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("router is already running")
	}
	r.server = &http.Server{
		Addr:         addr,
		Handler:      r.engine,
		ReadTimeout:  r.cfg.Server.ReadTimeout,
		WriteTimeout: r.cfg.Server.WriteTimeout,
	}
	r.running = true
	r.mu.Unlock()

	r.log.WithField("addr", addr).Info("Starting HTTP server")

	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (r *Router) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running || r.server == nil {
		return nil
	}
	r.running = false
	return r.server.Shutdown(ctx)
}

// apiCORS restricts the REST API to the configured origin.
func apiCORS(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		}).Debug("Request handled")
	}
}

package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agrosense/agrosense/pkg/alerts"
	"github.com/agrosense/agrosense/pkg/config"
	"github.com/agrosense/agrosense/pkg/ingest"
	"github.com/agrosense/agrosense/pkg/ontology"
	"github.com/agrosense/agrosense/pkg/router"
)

// Deps are the wired services the HTTP layer fronts.
type Deps struct {
	DB        *sql.DB
	Router    *router.Service
	Pipeline  *ingest.Pipeline
	Alerts    *alerts.Service
	Evaluator *alerts.Evaluator
	Registry  *ontology.Registry
}

// Server is the HTTP front.
type Server struct {
	engine *gin.Engine
	http   *http.Server
	deps   Deps
}

// NewServer builds the engine and registers all routes.
func NewServer(cfg *config.Config, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	s := &Server{
		engine: engine,
		deps:   deps,
		http: &http.Server{
			Addr:              ":" + cfg.HTTPPort,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/api/v1")
	{
		v1.POST("/query", s.handleQuery)
		v1.POST("/query/stream", s.handleQueryStream)
		v1.POST("/ingest", s.handleIngest)

		v1.POST("/alerts", s.handleAlertCreate)
		v1.GET("/alerts", s.handleAlertList)
		v1.DELETE("/alerts/:id", s.handleAlertDelete)
		v1.PATCH("/alerts/:id/active", s.handleAlertActive)
		v1.POST("/alerts/monitor", s.handleAlertMonitor)
		v1.GET("/alerts/actions", s.handleAlertActions)

		v1.GET("/sessions", s.handleSessionList)
		v1.GET("/sessions/:id", s.handleSessionGet)

		v1.GET("/sensors", s.handleSensors)
	}
}

// Handler exposes the engine for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	slog.Info("HTTP server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// requestLogger logs one line per request in the structured format the rest
// of the service uses.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client", c.ClientIP())
	}
}

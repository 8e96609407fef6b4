package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"TalmudBacktest/internal/backtest"
	"TalmudBacktest/internal/config"
	"TalmudBacktest/internal/monitoring"
)

// Server is the HTTP front end of the backtest runner.
type Server struct {
	config     *config.Config
	router     *gin.Engine
	httpServer *http.Server
	runner     *backtest.Runner
	metrics    *monitoring.Metrics
}

// NewServer creates the API server. metrics may be nil.
func NewServer(cfg *config.Config, runner *backtest.Runner, metrics *monitoring.Metrics) *Server {
	if gin.Mode() == gin.DebugMode && cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:  cfg,
		router:  gin.New(),
		runner:  runner,
		metrics: metrics,
	}
	s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestLogger())
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware())
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	s.router.GET("/healthz", s.health)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/assets", s.assets)
		v1.GET("/range", s.dateRange)
		v1.GET("/runs", s.listRuns)

		bt := v1.Group("/backtest")
		{
			bt.POST("", s.runBacktest)
			bt.GET("/:id", s.getBacktest)
			bt.GET("/:id/chart", s.getChart)
		}
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens until the server is shut down.
func (s *Server) Start() error {
	log.WithField("addr", s.httpServer.Addr).Info("http api listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).String(),
		}).Debug("http request")
	}
}

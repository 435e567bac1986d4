// Package server exposes the mock creative backend over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/raphaelgruber/creative-go/internal/metrics"
	"github.com/raphaelgruber/creative-go/internal/service"
)

// Options configures the HTTP surface.
type Options struct {
	// CORSOrigins lists allowed browser origins. Empty allows any origin.
	CORSOrigins []string
}

// Server wires the turn service to a gin router.
type Server struct {
	router   *gin.Engine
	turns    *service.TurnService
	metrics  *metrics.Collector
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// New creates the server and registers its routes.
func New(turns *service.TurnService, collector *metrics.Collector, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}

	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		router:  gin.New(),
		turns:   turns,
		metrics: collector,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for local dev
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	s.router.Use(gin.Recovery())
	s.router.Use(LoggingMiddleware(logger, collector))
	s.router.Use(cors.New(corsConfig(opts.CORSOrigins)))
	s.routes()

	return s
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length", "Location"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func (s *Server) routes() {
	s.router.GET("/health", s.health)

	api := s.router.Group("/api/v1")
	{
		api.POST("/turns", s.createTurn)
		api.GET("/turns/:id", s.getTurn)
		api.GET("/turns/:id/stream", s.streamTurn)
		api.GET("/sessions/:id", s.getSession)
		api.GET("/sessions/:id/turns", s.listTurns)
		api.GET("/artifacts/:session/:turn/:file", s.artifact)
		api.GET("/stats", s.stats)
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("creative backend listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
	log    zerolog.Logger
}

// New builds the router with the middleware chain and all API routes.
func New(cfg *config.Config, deps api.Dependencies) *Server {
	gin.SetMode(cfg.Environment.GinMode())

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSOrigins),
	)

	if deps.BaseURL == "" {
		deps.BaseURL = cfg.PublicBaseURL
	}
	api.RegisterRoutes(router, deps)

	if cfg.StorageBackend == config.StorageLocal {
		router.Static("/media", cfg.MediaRoot)
	}

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		log: logger.Component("server"),
	}
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until Shutdown is called. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("starting HTTP server")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
	}
	return s.http.Shutdown(ctx)
}

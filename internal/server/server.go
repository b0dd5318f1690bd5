package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/imagetext/apiserver/config"
	"github.com/imagetext/apiserver/internal/db"
	"github.com/imagetext/apiserver/internal/gateway"
	"github.com/imagetext/apiserver/internal/handlers"
	"github.com/imagetext/apiserver/internal/logger"
	"github.com/imagetext/apiserver/internal/mq"
	"github.com/imagetext/apiserver/internal/services"
	"github.com/imagetext/apiserver/internal/storage"
	"github.com/imagetext/apiserver/internal/store"
	"github.com/jmoiron/sqlx"
)

const requestTimeout = 90 * time.Second

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sqlx.DB
	storage    *storage.Storage
	mqBackend  mq.Backend
}

// Option customizes server construction.
type Option func(*options)

type options struct {
	generator gateway.Generator
}

// WithGenerator replaces the Gemini client, mainly for tests.
func WithGenerator(gen gateway.Generator) Option {
	return func(o *options) {
		o.generator = gen
	}
}

// New wires stores, services and routes. Storage and messaging are optional
// and only connected when a backend is configured.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Server, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	s := &Server{db: dbConn}
	fail := func(err error) (*Server, error) {
		s.close()
		return nil, err
	}

	if o.generator == nil {
		gen, err := gateway.NewGenAIGenerator(ctx, cfg.Gateway.APIKey)
		if err != nil {
			return fail(fmt.Errorf("gemini client: %w", err))
		}
		o.generator = gen
	}

	s.storage, err = storage.New(ctx, cfg.Storage)
	if err != nil {
		return fail(fmt.Errorf("storage: %w", err))
	}

	s.mqBackend, err = mq.NewBackend(ctx, cfg.MQ)
	if err != nil {
		return fail(fmt.Errorf("mq: %w", err))
	}

	userRepo := store.NewUserRepository(dbConn)
	imageRepo := store.NewImageRepository(dbConn)
	statsRepo := store.NewStatsRepository(dbConn)

	var publisher services.ActivityPublisher
	if s.mqBackend != nil {
		publisher = mq.NewActivityFeed(s.mqBackend, cfg.MQ.ActivityChannel)
	}
	var archiver services.ExportArchiver
	if s.storage != nil {
		archiver = s.storage
	}

	userService := services.NewUserService(userRepo)
	imageService := services.NewImageService(imageRepo, publisher)
	statsService := services.NewStatsService(statsRepo, userRepo, imageRepo, archiver)
	contentService := services.NewContentService(
		gateway.NewClient(o.generator, cfg.Gateway),
		imageService,
		cfg.Gateway.MaxImageBytes,
	)

	authMiddleware := handlers.RequireAuth(cfg.Auth.JWTSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RealIP,
		handlers.LoggingMiddleware(logger.Log),
		middleware.Recoverer,
		middleware.Timeout(requestTimeout),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	})
	router.Route("/images", func(r chi.Router) {
		handlers.ImageRouter(r, imageService, authMiddleware)
	})
	router.Route("/content", func(r chi.Router) {
		handlers.ContentRouter(r, contentService, cfg.Gateway.MaxImageBytes, authMiddleware)
	})
	router.Route("/stats", func(r chi.Router) {
		handlers.StatsRouter(r, statsService, authMiddleware)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	s.router = router
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: requestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	logger.Log.Infow("server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and releases every backend.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.close()
	return err
}

func (s *Server) close() {
	if s.mqBackend != nil {
		if err := s.mqBackend.Close(); err != nil {
			logger.Log.Warnw("failed to close mq backend", "error", err)
		}
	}
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			logger.Log.Warnw("failed to close storage", "error", err)
		}
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}

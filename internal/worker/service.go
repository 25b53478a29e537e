// Package worker provides the HTTP service for skinshelf.
package worker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/thebtf/skinshelf/internal/config"
	"github.com/thebtf/skinshelf/internal/identity"
	"github.com/thebtf/skinshelf/internal/lookup"
	"github.com/thebtf/skinshelf/internal/worker/session"
	"github.com/thebtf/skinshelf/internal/worker/sse"

	_ "github.com/thebtf/skinshelf/internal/worker/docs" // swagger docs
)

// Pinger reports store liveness.
type Pinger interface {
	Ping() error
}

// Options are the collaborators of a Service.
type Options struct {
	Config   *config.Config
	Store    Pinger
	Identity *identity.Provider
	Sessions *session.Manager
	Events   *sse.Broadcaster
	// Detail answers POST /detail-lookup. Nil disables the endpoint.
	Detail  lookup.DetailService
	Metrics *Metrics
	Version string
}

// Service is the skinshelf HTTP worker.
type Service struct {
	startTime      time.Time
	config         *config.Config
	store          Pinger
	identity       *identity.Provider
	sessionManager *session.Manager
	sseBroadcaster *sse.Broadcaster
	detail         lookup.DetailService
	metrics        *Metrics
	router         chi.Router
	server         *http.Server
	version        string
	ready          atomic.Bool
}

// NewService builds the service and its routes.
func NewService(opts Options) *Service {
	if opts.Config == nil {
		opts.Config = config.Get()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	if opts.Events == nil {
		opts.Events = sse.NewBroadcaster()
	}

	svc := &Service{
		version:        opts.Version,
		config:         opts.Config,
		store:          opts.Store,
		identity:       opts.Identity,
		sessionManager: opts.Sessions,
		sseBroadcaster: opts.Events,
		detail:         opts.Detail,
		metrics:        opts.Metrics,
		router:         chi.NewRouter(),
		startTime:      time.Now(),
	}
	svc.setupRoutes()
	return svc
}

func (s *Service) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)

	r.MethodNotAllowed(methodNotAllowed)
	r.NotFound(notFound)

	r.Get("/", serveIndex)
	r.Get("/assets/*", serveAssets)
	r.Get("/health", s.handleHealth)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Post("/detail-lookup", s.handleDetailLookup)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ready", s.handleReady)
		r.Post("/session", s.handleOpenSession)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)

			r.Post("/reload", s.handleReload)
			r.Get("/products", s.handleListProducts)
			r.Post("/products", s.handleAddProduct)
			r.Delete("/products/{name}", s.handleDeleteProduct)
			r.Post("/details", s.handleFetchDetails)
			r.Get("/history", s.handleHistory)
			r.Get("/events", s.handleEvents)
		})
	})
}

// Handler returns the HTTP handler.
func (s *Service) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves until Shutdown.
func (s *Service) Start() error {
	addr := net.JoinHostPort(s.config.WorkerHost, strconv.Itoa(s.config.WorkerPort))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown.
func (s *Service) Serve(ln net.Listener) error {
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Event streams never go idle on their own.
	s.server.RegisterOnShutdown(s.sseBroadcaster.CloseAll)
	s.ready.Store(true)
	log.Info().Str("addr", ln.Addr().String()).Str("version", s.version).Msg("Worker listening")

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Service) Shutdown(ctx context.Context) error {
	s.ready.Store(false)
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

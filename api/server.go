package api

import (
	"context"
	"errors"
	"net/http"

	"incidents-api/api/handlers"
	"incidents-api/config"
	"incidents-api/core/metrics"
	"incidents-api/core/store"
	"incidents-api/core/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type ServerDeps struct {
	Store   *store.Store
	Metrics *metrics.Collector
}

type Server struct {
	cfg        *config.AppConfig
	logger     *utils.Logger
	store      *store.Store
	metrics    *metrics.Collector
	router     chi.Router
	httpServer *http.Server
}

func NewServer(cfg *config.AppConfig, deps ServerDeps, logger *utils.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		logger:  logger,
		store:   deps.Store,
		metrics: deps.Metrics,
	}
	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.recoverMiddleware)
	r.Use(s.loggingMiddleware)
	if s.metricsEnabled() {
		r.Use(s.metricsMiddleware)
	}
	r.Use(s.bodyLimitMiddleware)

	h := s.newRouteHandlers()
	r.Get("/healthz", s.healthz)
	if s.metricsEnabled() {
		r.Method(http.MethodGet, s.cfg.Metrics.Path, s.metrics.Handler())
	}
	s.registerResourceRoutes(r, h)
	if s.cfg.API.LegacyRoutes {
		s.registerLegacyRoutes(r, h)
	}
	return r
}

func (s *Server) metricsEnabled() bool {
	return s.metrics != nil && s.cfg.Metrics.Enabled && s.cfg.Metrics.Path != ""
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Errorf("healthz: %v", err)
		handlers.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Start blocks until the server stops. A clean Shutdown returns nil.
func (s *Server) Start() error {
	var err error
	if s.cfg.TLSEnabled {
		s.logger.Printf("listening on https://%s", s.cfg.ListenAddr)
		err = s.httpServer.ListenAndServeTLS(s.cfg.TLSCert, s.cfg.TLSKey)
	} else {
		s.logger.Printf("listening on http://%s", s.cfg.ListenAddr)
		err = s.httpServer.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/anthon-sd/ab-test-toolkit/internal/analytics"
	"github.com/anthon-sd/ab-test-toolkit/internal/config"
)

// Deps are the collaborators a Server reports to. Zero values are replaced
// with no-op implementations.
type Deps struct {
	Logger   *zap.Logger
	Observer analytics.Observer
	Gatherer prometheus.Gatherer
}

type Server struct {
	cfg       config.Config
	log       *zap.Logger
	observer  analytics.Observer
	gatherer  prometheus.Gatherer
	router    *http.ServeMux
	startTime time.Time
}

func New(cfg config.Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Observer == nil {
		deps.Observer = analytics.Nop
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.NewRegistry()
	}

	srv := &Server{
		cfg:       cfg,
		log:       deps.Logger.Named("server"),
		observer:  deps.Observer,
		gatherer:  deps.Gatherer,
		router:    http.NewServeMux(),
		startTime: time.Now(),
	}

	srv.setupRoutes()
	return srv
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	s.router.HandleFunc("/api/sample-size", s.handleSampleSize)
	s.router.HandleFunc("/api/runtime", s.handleRuntime)
	s.router.HandleFunc("/api/significance", s.handleSignificance)
	s.router.HandleFunc("/api/volatility", s.handleVolatility)
}

// Start serves until ctx is cancelled, then drains open requests.
func (s *Server) Start(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.Int("port", s.cfg.Server.Port))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.log.Info("shutting down")
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// Handler returns the routes wrapped in request middleware.
func (s *Server) Handler() http.Handler {
	return s.requestID(s.logRequests(s.cors(s.router)))
}

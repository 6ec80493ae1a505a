package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rzzdr/option-scenario-engine/internal/pricing"
	"github.com/rzzdr/option-scenario-engine/internal/scenario"
	"github.com/rzzdr/option-scenario-engine/internal/volatility"
	"github.com/rzzdr/option-scenario-engine/pkg/metrics"
	"github.com/rzzdr/option-scenario-engine/pkg/models"
	"github.com/rzzdr/option-scenario-engine/pkg/utils/backpressure"
	"github.com/rzzdr/option-scenario-engine/pkg/utils/logger"
)

// Config holds the configuration for the API server
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// RateLimit is the per-client request rate on /api/v1; zero disables limiting
	RateLimit float64
	RateBurst int
}

// MarketService resolves market state, rates and forward vols for a ticker
type MarketService interface {
	Snapshot(ctx context.Context, ticker string, years float64) (models.MarketState, error)
	Rate(ctx context.Context, years float64) (float64, error)
	ForwardVols(ctx context.Context, ticker string) (call, put volatility.ForwardCurve, err error)
}

// Server represents the API server
type Server struct {
	config     Config
	router     *mux.Router
	httpServer *http.Server
	market     MarketService
	builder    *scenario.Builder
	bootstrap  *volatility.Bootstrap
	bumps      pricing.Bumps
	recorder   *metrics.Recorder
	gatherer   prometheus.Gatherer
	limiter    *backpressure.KeyedLimiter
	started    time.Time
	log        *logger.Logger
}

// NewServer creates a new API server
func NewServer(
	config Config,
	market MarketService,
	builder *scenario.Builder,
	bootstrap *volatility.Bootstrap,
	bumps pricing.Bumps,
	recorder *metrics.Recorder,
	gatherer prometheus.Gatherer,
) *Server {
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = 10 * time.Second
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 30 * time.Second
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	server := &Server{
		config:    config,
		router:    mux.NewRouter(),
		market:    market,
		builder:   builder,
		bootstrap: bootstrap,
		bumps:     bumps,
		recorder:  recorder,
		gatherer:  gatherer,
		started:   time.Now(),
		log:       logger.GetLogger("api.server"),
	}
	if config.RateLimit > 0 {
		server.limiter = backpressure.NewKeyedLimiter(config.RateLimit, config.RateBurst, 0)
	}

	server.setupRoutes()
	return server
}

// Handler returns the routed handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Stop is called
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.log.Infow("Starting API server", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the API server gracefully
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		s.log.Info("Stopping API server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

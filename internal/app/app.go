// Package app wires the engine components shared by every entry point
package app

import (
	"errors"
	"io/fs"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rzzdr/option-scenario-engine/config"
	"github.com/rzzdr/option-scenario-engine/internal/market"
	"github.com/rzzdr/option-scenario-engine/internal/pricing"
	"github.com/rzzdr/option-scenario-engine/internal/rates"
	"github.com/rzzdr/option-scenario-engine/internal/scenario"
	"github.com/rzzdr/option-scenario-engine/internal/store"
	"github.com/rzzdr/option-scenario-engine/internal/volatility"
	"github.com/rzzdr/option-scenario-engine/pkg/metrics"
	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
	"github.com/rzzdr/option-scenario-engine/pkg/utils/logger"
)

// Components holds the engine parts built from one configuration
type Components struct {
	Config    *config.Config
	Registry  *prometheus.Registry
	Recorder  *metrics.Recorder
	Store     *store.InMemoryMarketDataStore
	Market    *market.Service
	Builder   *scenario.Builder
	Bootstrap *volatility.Bootstrap
	Bumps     pricing.Bumps
}

// New builds the components and loads market data.
// Market files that do not exist are skipped with a warning, a missing rate curve file is an error.
func New(cfg *config.Config) (*Components, error) {
	log := logger.GetLogger("app")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewRecorder(registry)

	bumps, err := cfg.Pricing.Bumps()
	if err != nil {
		return nil, err
	}
	builder, err := scenario.NewBuilder(cfg.Pricing.Builder(), recorder)
	if err != nil {
		return nil, apperrors.Wrap(err, "scenario builder")
	}
	bootstrap, err := volatility.NewBootstrap(cfg.Volatility.Bootstrap(), recorder)
	if err != nil {
		return nil, apperrors.Wrap(err, "forward vol bootstrap")
	}

	data := store.NewInMemoryMarketDataStore(cfg.Volatility.ATMBand)

	curveFile := ""
	switch cfg.RateCurve.Source {
	case config.RateCurveFile:
		curveFile = cfg.RateCurve.File
	default:
		curve, err := rates.NewCurveFromMap(cfg.RateCurve.Points)
		if err != nil {
			return nil, apperrors.Wrap(err, "rate_curve.points")
		}
		data.SetRateCurve(curve.Points())
	}

	quotesFile := existing(log, cfg.Market.QuotesFile)
	chainFile := existing(log, cfg.Market.ChainFile)
	if err := data.LoadFiles(quotesFile, chainFile, curveFile); err != nil {
		return nil, err
	}

	return &Components{
		Config:    cfg,
		Registry:  registry,
		Recorder:  recorder,
		Store:     data,
		Market:    market.NewService(data, data, data, bootstrap),
		Builder:   builder,
		Bootstrap: bootstrap,
		Bumps:     bumps,
	}, nil
}

func existing(log *logger.Logger, path string) string {
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		log.Warnw("Market data file not found, skipping", "path", path)
		return ""
	}
	return path
}

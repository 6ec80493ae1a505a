package market

import (
	"context"
	"io"
	"strings"

	"github.com/rzzdr/option-scenario-engine/internal/rates"
	"github.com/rzzdr/option-scenario-engine/internal/scenario"
	"github.com/rzzdr/option-scenario-engine/internal/volatility"
	"github.com/rzzdr/option-scenario-engine/pkg/models"
	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
	"github.com/rzzdr/option-scenario-engine/pkg/utils/logger"
)

// MarketDataSource supplies the underlying's spot and dividend yield
type MarketDataSource interface {
	LastPrice(ctx context.Context, ticker string) (float64, error)
	// DividendYield is zero when the source has no data for the ticker
	DividendYield(ctx context.Context, ticker string) (float64, error)
}

// RateCurveSource supplies the public rate curve
type RateCurveSource interface {
	RateCurve(ctx context.Context) ([]models.RateCurvePoint, error)
}

// OptionChainSource supplies the representative call and put implied vol of each expiration
type OptionChainSource interface {
	ImpliedVolsByExpiration(ctx context.Context, ticker string) (call, put []models.ExpirationVol, err error)
}

// Renderer draws scenario surfaces and term structures
type Renderer interface {
	RenderSurface(w io.Writer, surface scenario.Surface) error
	RenderTermStructure(w io.Writer, ts volatility.TermStructure) error
}

// Service assembles market state from its collaborators. Nothing is cached.
type Service struct {
	data      MarketDataSource
	rates     RateCurveSource
	chains    OptionChainSource
	bootstrap *volatility.Bootstrap
	log       *logger.Logger
}

// NewService creates a new market Service
func NewService(data MarketDataSource, rates RateCurveSource, chains OptionChainSource, bootstrap *volatility.Bootstrap) *Service {
	return &Service{
		data:      data,
		rates:     rates,
		chains:    chains,
		bootstrap: bootstrap,
		log:       logger.GetLogger("market.service"),
	}
}

// Curve fetches the rate curve and prepares it for interpolation
func (s *Service) Curve(ctx context.Context) (*rates.Curve, error) {
	points, err := s.rates.RateCurve(ctx)
	if err != nil {
		return nil, collaboratorError(err, "rate curve")
	}
	return rates.NewCurve(points)
}

// Rate interpolates the risk-free rate for a time to expiry in years
func (s *Service) Rate(ctx context.Context, years float64) (float64, error) {
	if years <= 0 {
		return 0, apperrors.InvalidInputf("time to expiry must be positive, got %g", years)
	}
	curve, err := s.Curve(ctx)
	if err != nil {
		return 0, err
	}
	return curve.Rate(years), nil
}

// Snapshot collects spot, carry and the interpolated rate for one ticker and expiry
func (s *Service) Snapshot(ctx context.Context, ticker string, years float64) (models.MarketState, error) {
	ticker = normalizeTicker(ticker)
	if ticker == "" {
		return models.MarketState{}, apperrors.InvalidInputf("ticker is required")
	}

	spot, err := s.data.LastPrice(ctx, ticker)
	if err != nil {
		return models.MarketState{}, collaboratorError(err, "last price for "+ticker)
	}
	yield, err := s.data.DividendYield(ctx, ticker)
	if err != nil {
		return models.MarketState{}, collaboratorError(err, "dividend yield for "+ticker)
	}
	rate, err := s.Rate(ctx, years)
	if err != nil {
		return models.MarketState{}, err
	}

	state := models.MarketState{
		Ticker:       ticker,
		Spot:         spot,
		RiskFreeRate: rate,
		CarryRate:    yield,
		TimeToExpiry: years,
	}
	if err := state.Validate(); err != nil {
		return models.MarketState{}, apperrors.Wrapf(err, "market state for %s", ticker)
	}

	s.log.Debugw("Market snapshot", "ticker", ticker, "spot", spot, "rate", rate, "carry", yield, "years", years)
	return state, nil
}

// ForwardVols bootstraps the call and put forward curves of a ticker's chain
func (s *Service) ForwardVols(ctx context.Context, ticker string) (call, put volatility.ForwardCurve, err error) {
	ticker = normalizeTicker(ticker)
	callSeries, putSeries, err := s.chains.ImpliedVolsByExpiration(ctx, ticker)
	if err != nil {
		return nil, nil, collaboratorError(err, "option chain for "+ticker)
	}
	return s.bootstrap.ForwardPair(callSeries, putSeries)
}

// TermStructures returns the spot and forward ATM vol series of both sides within [start, end] days
func (s *Service) TermStructures(ctx context.Context, ticker string, start, end int) (call, put volatility.TermStructure, err error) {
	ticker = normalizeTicker(ticker)
	callSeries, putSeries, err := s.chains.ImpliedVolsByExpiration(ctx, ticker)
	if err != nil {
		return call, put, collaboratorError(err, "option chain for "+ticker)
	}
	callForward, putForward, err := s.bootstrap.ForwardPair(callSeries, putSeries)
	if err != nil {
		return call, put, err
	}

	cutoff := s.bootstrap.Config().CutoffDays
	call = volatility.NewTermStructure(ticker, models.OptionTypeCall, volatility.ApplyCutoff(callSeries, cutoff), callForward, start, end)
	put = volatility.NewTermStructure(ticker, models.OptionTypePut, volatility.ApplyCutoff(putSeries, cutoff), putForward, start, end)
	return call, put, nil
}

// collaboratorError keeps typed errors and marks everything else as unavailable
func collaboratorError(err error, what string) error {
	if apperrors.TypeOf(err) != apperrors.ErrorTypeUnknown {
		return apperrors.Wrap(err, what)
	}
	return apperrors.Unavailable(err, what)
}

func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

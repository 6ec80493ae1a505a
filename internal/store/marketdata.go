package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rzzdr/option-scenario-engine/internal/volatility"
	"github.com/rzzdr/option-scenario-engine/pkg/models"
	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
	"github.com/rzzdr/option-scenario-engine/pkg/utils/logger"
)

// InMemoryMarketDataStore holds quotes, option chains and a rate curve in memory.
// It serves as the market data, chain and rate curve source of the market service.
type InMemoryMarketDataStore struct {
	quotes  map[string]models.UnderlyingQuote
	chains  map[string][]models.OptionQuote
	curve   []models.RateCurvePoint
	atmBand float64
	mu      sync.RWMutex
	log     *logger.Logger
}

// NewInMemoryMarketDataStore creates an empty store that averages vols within atmBand of spot
func NewInMemoryMarketDataStore(atmBand float64) *InMemoryMarketDataStore {
	if atmBand <= 0 {
		atmBand = volatility.DefaultATMBand
	}
	return &InMemoryMarketDataStore{
		quotes:  make(map[string]models.UnderlyingQuote),
		chains:  make(map[string][]models.OptionQuote),
		atmBand: atmBand,
		log:     logger.GetLogger("store.marketdata"),
	}
}

// PutQuote stores or replaces the quote of an underlying
func (s *InMemoryMarketDataStore) PutQuote(quote models.UnderlyingQuote) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quote.Ticker = key(quote.Ticker)
	s.quotes[quote.Ticker] = quote
}

// PutChain replaces the option chain of an underlying
func (s *InMemoryMarketDataStore) PutChain(ticker string, chain []models.OptionQuote) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]models.OptionQuote, len(chain))
	copy(rows, chain)
	s.chains[key(ticker)] = rows
}

// SetRateCurve replaces the rate curve
func (s *InMemoryMarketDataStore) SetRateCurve(points []models.RateCurvePoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.curve = make([]models.RateCurvePoint, len(points))
	copy(s.curve, points)
}

// Tickers lists the underlyings with a quote
func (s *InMemoryMarketDataStore) Tickers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tickers := make([]string, 0, len(s.quotes))
	for t := range s.quotes {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}

// LastPrice returns the last traded price of an underlying
func (s *InMemoryMarketDataStore) LastPrice(ctx context.Context, ticker string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	quote, ok := s.quotes[key(ticker)]
	if !ok {
		return 0, apperrors.NotFoundf("no quote for %s", ticker)
	}
	return quote.LastPrice, nil
}

// DividendYield returns the dividend yield of an underlying, zero when unknown
func (s *InMemoryMarketDataStore) DividendYield(ctx context.Context, ticker string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	quote, ok := s.quotes[key(ticker)]
	if !ok || quote.DividendYield < 0 {
		s.log.Debugw("No dividend yield, using zero", "ticker", ticker)
		return 0, nil
	}
	return quote.DividendYield, nil
}

// RateCurve returns the stored rate curve
func (s *InMemoryMarketDataStore) RateCurve(ctx context.Context) ([]models.RateCurvePoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.curve) == 0 {
		return nil, apperrors.NotFoundf("no rate curve loaded")
	}
	points := make([]models.RateCurvePoint, len(s.curve))
	copy(points, s.curve)
	return points, nil
}

// Chain returns the option chain of an underlying
func (s *InMemoryMarketDataStore) Chain(ctx context.Context, ticker string) ([]models.OptionQuote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	chain, ok := s.chains[key(ticker)]
	if !ok {
		return nil, apperrors.NotFoundf("no option chain for %s", ticker)
	}
	rows := make([]models.OptionQuote, len(chain))
	copy(rows, chain)
	return rows, nil
}

// ImpliedVolsByExpiration reduces the chain to one volume-weighted ATM vol per expiration and side
func (s *InMemoryMarketDataStore) ImpliedVolsByExpiration(ctx context.Context, ticker string) (call, put []models.ExpirationVol, err error) {
	spot, err := s.LastPrice(ctx, ticker)
	if err != nil {
		return nil, nil, err
	}
	chain, err := s.Chain(ctx, ticker)
	if err != nil {
		return nil, nil, err
	}

	call = volatility.ATMSeries(chain, models.OptionTypeCall, spot, s.atmBand)
	put = volatility.ATMSeries(chain, models.OptionTypePut, spot, s.atmBand)
	return call, put, nil
}

func key(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

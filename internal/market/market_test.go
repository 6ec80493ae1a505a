package market

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzzdr/option-scenario-engine/internal/volatility"
	"github.com/rzzdr/option-scenario-engine/pkg/metrics"
	"github.com/rzzdr/option-scenario-engine/pkg/models"
	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
)

type fakeData struct {
	spot  map[string]float64
	yield map[string]float64
	err   error
}

func (f fakeData) LastPrice(_ context.Context, ticker string) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	spot, ok := f.spot[ticker]
	if !ok {
		return 0, apperrors.NotFoundf("no quote for %s", ticker)
	}
	return spot, nil
}

func (f fakeData) DividendYield(_ context.Context, ticker string) (float64, error) {
	return f.yield[ticker], nil
}

type fakeRates struct {
	points []models.RateCurvePoint
	err    error
}

func (f fakeRates) RateCurve(context.Context) ([]models.RateCurvePoint, error) {
	return f.points, f.err
}

type fakeChains struct {
	call, put []models.ExpirationVol
}

func (f fakeChains) ImpliedVolsByExpiration(context.Context, string) ([]models.ExpirationVol, []models.ExpirationVol, error) {
	return f.call, f.put, nil
}

func newTestService(t *testing.T, data MarketDataSource, rates RateCurveSource) *Service {
	t.Helper()
	bootstrap, err := volatility.NewBootstrap(volatility.DefaultConfig(), metrics.NewRecorder(prometheus.NewRegistry()))
	require.NoError(t, err)

	chains := fakeChains{
		call: []models.ExpirationVol{{Day: 1, ImpliedVol: 0.5}, {Day: 10, ImpliedVol: 0.20}, {Day: 45, ImpliedVol: 0.25}},
		put:  []models.ExpirationVol{{Day: 10, ImpliedVol: 0.22}, {Day: 45, ImpliedVol: 0.24}},
	}
	return NewService(data, rates, chains, bootstrap)
}

func defaultCurve() fakeRates {
	return fakeRates{points: []models.RateCurvePoint{{TenorDays: 30, Rate: 0.05}, {TenorDays: 10950, Rate: 0.045}}}
}

func TestService_Snapshot(t *testing.T) {
	data := fakeData{spot: map[string]float64{"SPY": 600}, yield: map[string]float64{"SPY": 0.013}}
	s := newTestService(t, data, defaultCurve())

	state, err := s.Snapshot(context.Background(), " spy ", 0.01)
	require.NoError(t, err)
	assert.Equal(t, models.MarketState{Ticker: "SPY", Spot: 600, RiskFreeRate: 0.05, CarryRate: 0.013, TimeToExpiry: 0.01}, state)

	t.Run("unknown ticker keeps not found", func(t *testing.T) {
		_, err := s.Snapshot(context.Background(), "TLT", 0.5)
		assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))
	})

	t.Run("empty ticker", func(t *testing.T) {
		_, err := s.Snapshot(context.Background(), "  ", 0.5)
		assert.True(t, apperrors.IsInvalidInput(err))
	})

	t.Run("expired", func(t *testing.T) {
		_, err := s.Snapshot(context.Background(), "SPY", 0)
		assert.True(t, apperrors.IsInvalidInput(err))
	})
}

func TestService_CollaboratorFailures(t *testing.T) {
	boom := errors.New("connection reset")

	s := newTestService(t, fakeData{err: boom}, defaultCurve())
	_, err := s.Snapshot(context.Background(), "SPY", 0.5)
	assert.Equal(t, apperrors.ErrorTypeUnavailable, apperrors.TypeOf(err))
	assert.ErrorIs(t, err, boom)

	s = newTestService(t, fakeData{spot: map[string]float64{"SPY": 600}}, fakeRates{err: boom})
	_, err = s.Rate(context.Background(), 1)
	assert.Equal(t, apperrors.ErrorTypeUnavailable, apperrors.TypeOf(err))
}

func TestService_Rate(t *testing.T) {
	s := newTestService(t, fakeData{}, defaultCurve())

	r, err := s.Rate(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 0.045, r)
}

func TestService_ForwardVols(t *testing.T) {
	s := newTestService(t, fakeData{}, defaultCurve())

	call, put, err := s.ForwardVols(context.Background(), "SPY")
	require.NoError(t, err)

	// the 1-day expiration falls inside the cutoff
	assert.Equal(t, []int{10}, call.Days())
	assert.Equal(t, []int{10}, put.Days())
	assert.Zero(t, call.DataQualityIssues())
}

func TestService_TermStructures(t *testing.T) {
	data := fakeData{spot: map[string]float64{"SPY": 600}}
	s := newTestService(t, data, defaultCurve())

	call, put, err := s.TermStructures(context.Background(), "spy", 0, 30)
	require.NoError(t, err)

	assert.Equal(t, "Call IV Term Structure for ATM Options on SPY", call.Title)
	assert.Equal(t, "Put IV Term Structure for ATM Options on SPY", put.Title)
	require.Len(t, call.Spot, 1)
	assert.Equal(t, 10, call.Spot[0].Day)
	require.Len(t, call.Forward, 1)
	assert.Equal(t, 10, call.Forward[0].Day)
}

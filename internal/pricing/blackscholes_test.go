package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzzdr/option-scenario-engine/pkg/models"
	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
)

const tolerance = 1e-4

// classic textbook inputs; carry equal to the rate means no dividend
func textbookParams() models.OptionParameters {
	return models.OptionParameters{
		Strike:       100,
		Spot:         100,
		RiskFreeRate: 0.05,
		TimeToExpiry: 1,
		ImpliedVol:   0.2,
		CarryRate:    0.05,
	}
}

func TestBlackScholes_KnownValues(t *testing.T) {
	bs, err := NewBlackScholes(textbookParams())
	require.NoError(t, err)

	assert.InDelta(t, 0.35, bs.D1(), 1e-12)
	assert.InDelta(t, 0.15, bs.D2(), 1e-12)
	assert.InDelta(t, 10.4506, bs.CallPrice(), tolerance)
	assert.InDelta(t, 5.5735, bs.PutPrice(), tolerance)

	delta, err := bs.Delta(models.OptionTypeCall)
	require.NoError(t, err)
	assert.InDelta(t, 0.6368, delta, tolerance)

	putDelta, err := bs.Delta(models.OptionTypePut)
	require.NoError(t, err)
	assert.InDelta(t, delta-1, putDelta, 1e-12)

	assert.InDelta(t, 0.018762, bs.Gamma(), 1e-6)
	assert.InDelta(t, 0.375240, bs.Vega(), 1e-5)
}

func TestBlackScholes_PutCallParity(t *testing.T) {
	cases := []models.OptionParameters{
		textbookParams(),
		{Strike: 650, Spot: 600, RiskFreeRate: 0.04, TimeToExpiry: 0.5, ImpliedVol: 0.25, CarryRate: 0.017},
		{Strike: 80, Spot: 120, RiskFreeRate: 0, TimeToExpiry: 2, ImpliedVol: 0.6, CarryRate: 0},
		{Strike: 100, Spot: 90, RiskFreeRate: 0.05, TimeToExpiry: 0.01, ImpliedVol: 0.3, CarryRate: 0.02},
	}

	for _, p := range cases {
		bs, err := NewBlackScholes(p)
		require.NoError(t, err)

		lhs := bs.CallPrice() - bs.PutPrice()
		rhs := p.Spot*math.Exp((p.CarryRate-p.RiskFreeRate)*p.TimeToExpiry) - p.Strike*math.Exp(-p.RiskFreeRate*p.TimeToExpiry)
		assert.InDelta(t, rhs, lhs, 1e-9, "params %+v", p)
	}
}

func TestBlackScholes_Greeks(t *testing.T) {
	p := models.OptionParameters{Strike: 650, Spot: 600, RiskFreeRate: 0.04, TimeToExpiry: 0.5, ImpliedVol: 0.25, CarryRate: 0.017}
	bs, err := NewBlackScholes(p)
	require.NoError(t, err)

	call, err := bs.Greeks(models.OptionTypeCall)
	require.NoError(t, err)
	put, err := bs.Greeks(models.OptionTypePut)
	require.NoError(t, err)

	t.Run("shared greeks match", func(t *testing.T) {
		assert.Equal(t, call.Gamma, put.Gamma)
		assert.Equal(t, call.Vega, put.Vega)
		assert.Equal(t, call.Vanna, put.Vanna)
		assert.Equal(t, call.Volga, put.Volga)
	})

	t.Run("delta parity", func(t *testing.T) {
		carryDiscount := math.Exp((p.CarryRate - p.RiskFreeRate) * p.TimeToExpiry)
		assert.InDelta(t, carryDiscount, call.Delta-put.Delta, 1e-12)
	})

	t.Run("rho parity", func(t *testing.T) {
		expected := p.TimeToExpiry * p.Strike * math.Exp(-p.RiskFreeRate*p.TimeToExpiry) / 100
		assert.InDelta(t, expected, call.Rho-put.Rho, 1e-12)
	})

	t.Run("signs", func(t *testing.T) {
		assert.Greater(t, call.Delta, 0.0)
		assert.Less(t, put.Delta, 0.0)
		assert.Greater(t, call.Gamma, 0.0)
		assert.Greater(t, call.Vega, 0.0)
		assert.Less(t, call.Theta, 0.0)
		assert.Greater(t, call.Rho, 0.0)
		assert.Less(t, put.Rho, 0.0)
	})

	t.Run("vega matches a finite difference", func(t *testing.T) {
		const h = 1e-5
		up, down := p, p
		up.ImpliedVol += h
		down.ImpliedVol -= h
		bsUp, err := NewBlackScholes(up)
		require.NoError(t, err)
		bsDown, err := NewBlackScholes(down)
		require.NoError(t, err)

		fd := (bsUp.CallPrice() - bsDown.CallPrice()) / (2 * h) / 100
		assert.InDelta(t, fd, call.Vega, 1e-6)
	})

	t.Run("volga from vega", func(t *testing.T) {
		expected := call.Vega * (bs.D1() * bs.D2() / p.ImpliedVol) / 100
		assert.InDelta(t, expected, call.Volga, 1e-15)
	})

	t.Run("rho with zero carry uses the closed form", func(t *testing.T) {
		zero := p
		zero.CarryRate = 0
		bsZero, err := NewBlackScholes(zero)
		require.NoError(t, err)

		rho, err := bsZero.Rho(models.OptionTypeCall)
		require.NoError(t, err)
		expected := zero.TimeToExpiry * zero.Strike * math.Exp(-zero.RiskFreeRate*zero.TimeToExpiry) * normalCDF(bsZero.D2()) / 100
		assert.InDelta(t, expected, rho, 1e-15)
	})
}

func TestBlackScholes_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *models.OptionParameters)
	}{
		{"zero vol", func(p *models.OptionParameters) { p.ImpliedVol = 0 }},
		{"zero time", func(p *models.OptionParameters) { p.TimeToExpiry = 0 }},
		{"zero spot", func(p *models.OptionParameters) { p.Spot = 0 }},
		{"zero strike", func(p *models.OptionParameters) { p.Strike = 0 }},
		{"negative rate", func(p *models.OptionParameters) { p.RiskFreeRate = -0.01 }},
		{"negative carry", func(p *models.OptionParameters) { p.CarryRate = -0.01 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := textbookParams()
			tt.mutate(&p)
			_, err := NewBlackScholes(p)
			require.Error(t, err)
			assert.True(t, apperrors.IsInvalidInput(err))
		})
	}

	t.Run("unknown option type", func(t *testing.T) {
		bs, err := NewBlackScholes(textbookParams())
		require.NoError(t, err)

		_, err = bs.Price(models.OptionType(0))
		assert.True(t, apperrors.IsInvalidInput(err))
		_, err = bs.Greeks(models.OptionType(7))
		assert.True(t, apperrors.IsInvalidInput(err))
	})
}

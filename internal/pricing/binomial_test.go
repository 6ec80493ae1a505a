package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzzdr/option-scenario-engine/pkg/models"
	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
)

func european(steps int) models.LatticeConfig {
	return models.LatticeConfig{Steps: steps, Style: models.ExerciseStyleEuropean}
}

func american(steps int) models.LatticeConfig {
	return models.LatticeConfig{Steps: steps, Style: models.ExerciseStyleAmerican}
}

// The tree treats the carry rate as a yield, so a tree with zero carry
// matches the closed form with carry equal to the rate.
func treeAndClosedForm() (models.OptionParameters, models.OptionParameters) {
	tree := textbookParams()
	tree.CarryRate = 0
	return tree, textbookParams()
}

func TestBinomial_ConvergesToClosedForm(t *testing.T) {
	treeParams, bsParams := treeAndClosedForm()

	tree, err := NewBinomial(treeParams, european(5000))
	require.NoError(t, err)
	bs, err := NewBlackScholes(bsParams)
	require.NoError(t, err)

	assert.InDelta(t, bs.CallPrice(), tree.CallPrice(), 1e-3)
	assert.InDelta(t, bs.PutPrice(), tree.PutPrice(), 1e-3)
}

func TestBinomial_EuropeanPutCallParity(t *testing.T) {
	p := models.OptionParameters{Strike: 650, Spot: 600, RiskFreeRate: 0.04, TimeToExpiry: 0.5, ImpliedVol: 0.25, CarryRate: 0.017}
	tree, err := NewBinomial(p, european(300))
	require.NoError(t, err)

	lhs := tree.CallPrice() - tree.PutPrice()
	rhs := p.Spot*math.Exp(-p.CarryRate*p.TimeToExpiry) - p.Strike*math.Exp(-p.RiskFreeRate*p.TimeToExpiry)
	assert.InDelta(t, rhs, lhs, 1e-9)
}

func TestBinomial_EarlyExercise(t *testing.T) {
	p := models.OptionParameters{Strike: 100, Spot: 90, RiskFreeRate: 0.05, TimeToExpiry: 1, ImpliedVol: 0.3}

	eu, err := NewBinomial(p, european(300))
	require.NoError(t, err)
	am, err := NewBinomial(p, american(300))
	require.NoError(t, err)

	t.Run("american put carries a premium", func(t *testing.T) {
		assert.Greater(t, am.PutPrice(), eu.PutPrice())
	})

	t.Run("american call without carry is never exercised early", func(t *testing.T) {
		assert.InDelta(t, eu.CallPrice(), am.CallPrice(), 1e-9)
	})

	t.Run("american is never cheaper", func(t *testing.T) {
		for _, spot := range []float64{60, 80, 100, 120, 140} {
			q := p
			q.Spot = spot
			e, err := NewBinomial(q, european(100))
			require.NoError(t, err)
			a, err := NewBinomial(q, american(100))
			require.NoError(t, err)

			assert.GreaterOrEqual(t, a.PutPrice()+1e-12, e.PutPrice())
			assert.GreaterOrEqual(t, a.CallPrice()+1e-12, e.CallPrice())
		}
	})
}

func TestBinomial_RepeatedPricingIsStable(t *testing.T) {
	tree, err := NewBinomial(textbookParams(), american(50))
	require.NoError(t, err)

	first := tree.PutPrice()
	_ = tree.CallPrice()
	assert.Equal(t, first, tree.PutPrice())
}

func TestBinomial_Greeks(t *testing.T) {
	treeParams, bsParams := treeAndClosedForm()

	tree, err := NewBinomial(treeParams, european(1000))
	require.NoError(t, err)
	bs, err := NewBlackScholes(bsParams)
	require.NoError(t, err)

	for _, optionType := range []models.OptionType{models.OptionTypeCall, models.OptionTypePut} {
		t.Run(optionType.String(), func(t *testing.T) {
			lattice, err := tree.Greeks(optionType, DefaultBumps())
			require.NoError(t, err)
			closed, err := bs.Greeks(optionType)
			require.NoError(t, err)

			assert.InDelta(t, closed.Delta, lattice.Delta, 5e-3)
			assert.InDelta(t, closed.Gamma, lattice.Gamma, 5e-4)
			assert.InDelta(t, closed.Vega, lattice.Vega, 5e-3)
			assert.InDelta(t, closed.Theta, lattice.Theta, 2e-3)
			assert.InDelta(t, closed.Rho, lattice.Rho, 5e-3)

			assert.Zero(t, lattice.Vanna)
			assert.Zero(t, lattice.Charm)
			assert.Zero(t, lattice.Volga)
		})
	}
}

func TestBinomial_SingleStep(t *testing.T) {
	p := textbookParams()
	p.CarryRate = 0
	tree, err := NewBinomial(p, european(1))
	require.NoError(t, err)

	delta, err := tree.Delta(models.OptionTypeCall)
	require.NoError(t, err)
	// one step: delta is the hedge ratio between the two terminal payoffs
	u := math.Exp(p.ImpliedVol)
	expected := (p.Spot*u - p.Strike) / (p.Spot * (u - 1/u))
	assert.InDelta(t, expected, delta, 1e-12)

	_, err = tree.Gamma(models.OptionTypeCall)
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidInput(err))
}

func TestBinomial_BumpValidation(t *testing.T) {
	p := textbookParams()
	p.RiskFreeRate = 0.005
	tree, err := NewBinomial(p, american(50))
	require.NoError(t, err)

	t.Run("non-positive bumps", func(t *testing.T) {
		_, err := tree.Vega(models.OptionTypeCall, 0)
		assert.True(t, apperrors.IsInvalidInput(err))
		_, err = tree.Rho(models.OptionTypeCall, -0.01)
		assert.True(t, apperrors.IsInvalidInput(err))
		_, err = tree.Theta(models.OptionTypeCall, 0)
		assert.True(t, apperrors.IsInvalidInput(err))
	})

	t.Run("time bump beyond expiry", func(t *testing.T) {
		_, err := tree.Theta(models.OptionTypeCall, 2)
		assert.True(t, apperrors.IsInvalidInput(err))
	})

	t.Run("vol bump through zero", func(t *testing.T) {
		_, err := tree.Vega(models.OptionTypeCall, 0.5)
		assert.True(t, apperrors.IsInvalidInput(err))
	})

	t.Run("rate bump below zero is priced", func(t *testing.T) {
		rho, err := tree.Rho(models.OptionTypePut, DefaultRateBump)
		require.NoError(t, err)
		assert.Less(t, rho, 0.0)
	})
}

func TestBinomial_InvalidConfig(t *testing.T) {
	_, err := NewBinomial(textbookParams(), models.LatticeConfig{Steps: 0, Style: models.ExerciseStyleAmerican})
	assert.True(t, apperrors.IsInvalidInput(err))

	_, err = NewBinomial(textbookParams(), models.LatticeConfig{Steps: 10})
	assert.True(t, apperrors.IsInvalidInput(err))

	p := textbookParams()
	p.RiskFreeRate = -0.01
	_, err = NewBinomial(p, american(10))
	assert.True(t, apperrors.IsInvalidInput(err))

	tree, err := NewBinomial(textbookParams(), american(10))
	require.NoError(t, err)
	_, err = tree.Price(models.OptionType(3))
	assert.True(t, apperrors.IsInvalidInput(err))
}

func TestBinomial_CarryIsADividendYield(t *testing.T) {
	// tree yield q prices like the closed form with cost of carry b = r - q
	treeParams := textbookParams()
	treeParams.CarryRate = 0.03
	bsParams := treeParams
	bsParams.CarryRate = treeParams.RiskFreeRate - treeParams.CarryRate

	tree, err := NewBinomial(treeParams, european(5000))
	require.NoError(t, err)
	bs, err := NewBlackScholes(bsParams)
	require.NoError(t, err)
	assert.InDelta(t, bs.CallPrice(), tree.CallPrice(), 1e-3)
	assert.InDelta(t, bs.PutPrice(), tree.PutPrice(), 1e-3)

	sameCarry, err := NewBlackScholes(treeParams)
	require.NoError(t, err)
	assert.Greater(t, math.Abs(sameCarry.CallPrice()-tree.CallPrice()), 0.1)
}

func TestBinomial_GammaIsTheSameForCallAndPut(t *testing.T) {
	treeParams, bsParams := treeAndClosedForm()
	tree, err := NewBinomial(treeParams, european(400))
	require.NoError(t, err)
	bs, err := NewBlackScholes(bsParams)
	require.NoError(t, err)

	callGamma, err := tree.Gamma(models.OptionTypeCall)
	require.NoError(t, err)
	putGamma, err := tree.Gamma(models.OptionTypePut)
	require.NoError(t, err)

	assert.InDelta(t, callGamma, putGamma, 1e-9)
	assert.InDelta(t, bs.Gamma(), callGamma, 5e-4)
}

func TestBinomial_StepLimit(t *testing.T) {
	tests := []struct {
		name   string
		config models.LatticeConfig
	}{
		{"above default limit", european(models.DefaultMaxLatticeSteps + 1)},
		{"above configured limit", models.LatticeConfig{Steps: 51, Style: models.ExerciseStyleEuropean, MaxSteps: 50}},
		{"overflowing depth", european(1 << 62)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBinomial(textbookParams(), tt.config)
			require.Error(t, err)
			assert.True(t, apperrors.IsInvalidInput(err))
		})
	}

	_, err := NewBinomial(textbookParams(), models.LatticeConfig{Steps: 50, Style: models.ExerciseStyleEuropean, MaxSteps: 50})
	assert.NoError(t, err)
}

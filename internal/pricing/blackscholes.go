package pricing

import (
	"math"

	"github.com/rzzdr/option-scenario-engine/pkg/models"
	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
)

// Model names used in requests and metrics
const (
	ModelBlackScholes = "black_scholes"
	ModelBinomial     = "binomial"
)

// Pricer prices one option under a fixed set of parameters
type Pricer interface {
	Price(optionType models.OptionType) (float64, error)
}

// BlackScholes is the Black-Scholes-Merton closed form with a continuous carry rate.
// A value is immutable once built and safe for concurrent use.
type BlackScholes struct {
	params models.OptionParameters

	d1, d2        float64
	sqrtT         float64
	carryDiscount float64 // e^{(b-r)t}
	discount      float64 // e^{-rt}
}

// NewBlackScholes validates params and precomputes d1 and d2
func NewBlackScholes(params models.OptionParameters) (*BlackScholes, error) {
	if err := params.Validate(); err != nil {
		return nil, apperrors.Wrap(err, "black-scholes")
	}

	S, K := params.Spot, params.Strike
	r, b := params.RiskFreeRate, params.CarryRate
	t, sigma := params.TimeToExpiry, params.ImpliedVol

	sqrtT := math.Sqrt(t)
	d1 := (math.Log(S/K) + (b+0.5*sigma*sigma)*t) / (sigma * sqrtT)

	return &BlackScholes{
		params:        params,
		d1:            d1,
		d2:            d1 - sigma*sqrtT,
		sqrtT:         sqrtT,
		carryDiscount: math.Exp((b - r) * t),
		discount:      math.Exp(-r * t),
	}, nil
}

// Params returns the parameters the model was built with
func (bs *BlackScholes) Params() models.OptionParameters {
	return bs.params
}

// D1 returns the d1 term of the closed form
func (bs *BlackScholes) D1() float64 {
	return bs.d1
}

// D2 returns the d2 term of the closed form
func (bs *BlackScholes) D2() float64 {
	return bs.d2
}

// CallPrice calculates the price of a call option
func (bs *BlackScholes) CallPrice() float64 {
	return bs.params.Spot*bs.carryDiscount*normalCDF(bs.d1) - bs.params.Strike*bs.discount*normalCDF(bs.d2)
}

// PutPrice calculates the price of a put option
func (bs *BlackScholes) PutPrice() float64 {
	return bs.params.Strike*bs.discount*normalCDF(-bs.d2) - bs.params.Spot*bs.carryDiscount*normalCDF(-bs.d1)
}

// Price returns the call or put price
func (bs *BlackScholes) Price(optionType models.OptionType) (float64, error) {
	switch optionType {
	case models.OptionTypeCall:
		return bs.CallPrice(), nil
	case models.OptionTypePut:
		return bs.PutPrice(), nil
	default:
		return 0, invalidOptionType(optionType)
	}
}

// Delta is the first derivative of price with respect to spot
func (bs *BlackScholes) Delta(optionType models.OptionType) (float64, error) {
	switch optionType {
	case models.OptionTypeCall:
		return bs.carryDiscount * normalCDF(bs.d1), nil
	case models.OptionTypePut:
		return -bs.carryDiscount * normalCDF(-bs.d1), nil
	default:
		return 0, invalidOptionType(optionType)
	}
}

// Gamma is the same for calls and puts
func (bs *BlackScholes) Gamma() float64 {
	return bs.carryDiscount * normalPDF(bs.d1) / (bs.params.Spot * bs.params.ImpliedVol * bs.sqrtT)
}

// Vega per one percentage point change in volatility
func (bs *BlackScholes) Vega() float64 {
	return bs.params.Spot * bs.carryDiscount * normalPDF(bs.d1) * bs.sqrtT / 100
}

// Rho per one percentage point change in the risk-free rate.
// The carry-adjusted form is used for every carry rate, including zero.
func (bs *BlackScholes) Rho(optionType models.OptionType) (float64, error) {
	kt := bs.params.TimeToExpiry * bs.params.Strike * bs.discount
	switch optionType {
	case models.OptionTypeCall:
		return kt * normalCDF(bs.d2) / 100, nil
	case models.OptionTypePut:
		return -kt * normalCDF(-bs.d2) / 100, nil
	default:
		return 0, invalidOptionType(optionType)
	}
}

// Theta per calendar day
func (bs *BlackScholes) Theta(optionType models.OptionType) (float64, error) {
	S, K := bs.params.Spot, bs.params.Strike
	r, b := bs.params.RiskFreeRate, bs.params.CarryRate

	term1 := -(S * bs.carryDiscount * normalPDF(bs.d1) * bs.params.ImpliedVol) / (2 * bs.sqrtT)
	switch optionType {
	case models.OptionTypeCall:
		term2 := (b-r)*S*bs.carryDiscount*normalCDF(bs.d1) - r*K*bs.discount*normalCDF(bs.d2)
		return (term1 + term2) / 365, nil
	case models.OptionTypePut:
		term2 := (b-r)*S*bs.carryDiscount*normalCDF(-bs.d1) + r*K*bs.discount*normalCDF(-bs.d2)
		return (term1 + term2) / 365, nil
	default:
		return 0, invalidOptionType(optionType)
	}
}

// Vanna is the sensitivity of delta to volatility
func (bs *BlackScholes) Vanna() float64 {
	return -bs.carryDiscount * normalPDF(bs.d1) * (bs.d2 / bs.params.ImpliedVol)
}

// Charm is the decay of delta per trading day
func (bs *BlackScholes) Charm(optionType models.OptionType) (float64, error) {
	t, b := bs.params.TimeToExpiry, bs.params.CarryRate
	carry := b - bs.params.RiskFreeRate

	term1 := normalPDF(bs.d1) * (b/(bs.params.ImpliedVol*bs.sqrtT) - bs.d2/(2*t))
	switch optionType {
	case models.OptionTypeCall:
		return -bs.carryDiscount * (term1 + carry*normalCDF(bs.d1)) / 252, nil
	case models.OptionTypePut:
		return -bs.carryDiscount * (term1 - carry*normalCDF(-bs.d1)) / 252, nil
	default:
		return 0, invalidOptionType(optionType)
	}
}

// Volga is the sensitivity of vega to volatility, per one percentage point
func (bs *BlackScholes) Volga() float64 {
	return bs.Vega() * (bs.d1 * bs.d2 / bs.params.ImpliedVol) / 100
}

// Greeks calculates every sensitivity for one option type
func (bs *BlackScholes) Greeks(optionType models.OptionType) (models.Greeks, error) {
	delta, err := bs.Delta(optionType)
	if err != nil {
		return models.Greeks{}, err
	}
	// optionType is known to be valid past this point
	rho, _ := bs.Rho(optionType)
	theta, _ := bs.Theta(optionType)
	charm, _ := bs.Charm(optionType)

	return models.Greeks{
		Delta: delta,
		Gamma: bs.Gamma(),
		Vega:  bs.Vega(),
		Theta: theta,
		Rho:   rho,
		Vanna: bs.Vanna(),
		Charm: charm,
		Volga: bs.Volga(),
	}, nil
}

func invalidOptionType(optionType models.OptionType) error {
	return apperrors.InvalidInputf("option type must be Call or Put, got %d", int(optionType))
}

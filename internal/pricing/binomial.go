package pricing

import (
	"math"

	"github.com/rzzdr/option-scenario-engine/pkg/models"
	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
	"github.com/rzzdr/option-scenario-engine/pkg/utils/pools"
)

const (
	// DefaultSteps is the default depth of the tree
	DefaultSteps = models.DefaultLatticeSteps
	// DefaultVolBump is the volatility shift used for vega
	DefaultVolBump = 0.01
	// DefaultRateBump is the rate shift used for rho
	DefaultRateBump = 0.01
	// DefaultTimeBump is one calendar day, used for theta
	DefaultTimeBump = 1.0 / 365
)

// scenario grids build thousands of trees of the same depth
var latticeBuffers = pools.NewFloat64SlicePool()

// Bumps are the finite-difference shifts used by the lattice Greeks
type Bumps struct {
	Vol  float64 `json:"vol"`
	Rate float64 `json:"rate"`
	Time float64 `json:"time"`
}

// DefaultBumps returns one vol point, one rate point and one day
func DefaultBumps() Bumps {
	return Bumps{
		Vol:  DefaultVolBump,
		Rate: DefaultRateBump,
		Time: DefaultTimeBump,
	}
}

// Binomial is a Cox-Ross-Rubinstein tree. Every pricing call borrows a value
// buffer from a shared pool and records the step-1 and step-2 nodes on the
// instance, so one instance must not be shared across goroutines.
type Binomial struct {
	params models.OptionParameters
	config models.LatticeConfig

	dt       float64
	u, d     float64
	p        float64
	discount float64 // e^{-r dt}

	step1 [2]float64
	step2 [3]float64
}

// NewBinomial validates params and config and prepares the tree coefficients
func NewBinomial(params models.OptionParameters, config models.LatticeConfig) (*Binomial, error) {
	if err := params.Validate(); err != nil {
		return nil, apperrors.Wrap(err, "binomial")
	}
	return newBinomial(params, config)
}

// newBinomial skips the rate sign check so that rho can price a sibling
// at r - Δr below zero.
func newBinomial(params models.OptionParameters, config models.LatticeConfig) (*Binomial, error) {
	if err := config.ValidateSteps(); err != nil {
		return nil, err
	}
	if !config.Style.Valid() {
		return nil, apperrors.InvalidInputf("exercise style must be American or European, got %d", int(config.Style))
	}
	if params.Strike <= 0 || params.Spot <= 0 || params.TimeToExpiry <= 0 || params.ImpliedVol <= 0 || params.CarryRate < 0 {
		return nil, apperrors.Wrap(params.Validate(), "binomial")
	}

	dt := params.TimeToExpiry / float64(config.Steps)
	u := math.Exp(params.ImpliedVol * math.Sqrt(dt))
	d := 1 / u

	return &Binomial{
		params:   params,
		config:   config,
		dt:       dt,
		u:        u,
		d:        d,
		p:        (math.Exp((params.RiskFreeRate-params.CarryRate)*dt) - d) / (u - d),
		discount: math.Exp(-params.RiskFreeRate * dt),
	}, nil
}

// Params returns the parameters the tree was built with
func (b *Binomial) Params() models.OptionParameters {
	return b.params
}

// Config returns the lattice configuration
func (b *Binomial) Config() models.LatticeConfig {
	return b.config
}

// CallPrice prices a call by backward induction
func (b *Binomial) CallPrice() float64 {
	return b.run(models.OptionTypeCall)
}

// PutPrice prices a put by backward induction
func (b *Binomial) PutPrice() float64 {
	return b.run(models.OptionTypePut)
}

// Price returns the call or put price
func (b *Binomial) Price(optionType models.OptionType) (float64, error) {
	if !optionType.Valid() {
		return 0, invalidOptionType(optionType)
	}
	return b.run(optionType), nil
}

func payoff(optionType models.OptionType, spot, strike float64) float64 {
	if optionType == models.OptionTypeCall {
		return math.Max(spot-strike, 0)
	}
	return math.Max(strike-spot, 0)
}

// run fills the value buffer for optionType and captures the step-1 and
// step-2 node values used by delta and gamma.
func (b *Binomial) run(optionType models.OptionType) float64 {
	n := b.config.Steps
	S, K := b.params.Spot, b.params.Strike
	american := b.config.Style == models.ExerciseStyleAmerican
	C := latticeBuffers.Get(n + 1)
	defer latticeBuffers.Put(C)

	for j := 0; j <= n; j++ {
		C[j] = payoff(optionType, S*math.Pow(b.u, float64(j))*math.Pow(b.d, float64(n-j)), K)
	}
	b.capture(n, C)

	for i := n - 1; i >= 0; i-- {
		for j := 0; j <= i; j++ {
			cont := b.discount * (b.p*C[j+1] + (1-b.p)*C[j])
			if american {
				node := S * math.Pow(b.u, float64(j)) * math.Pow(b.d, float64(i-j))
				cont = math.Max(cont, payoff(optionType, node, K))
			}
			C[j] = cont
		}
		b.capture(i, C)
	}

	return C[0]
}

func (b *Binomial) capture(level int, values []float64) {
	switch level {
	case 1:
		copy(b.step1[:], values[:2])
	case 2:
		copy(b.step2[:], values[:3])
	}
}

// Delta from the two nodes one step into the tree
func (b *Binomial) Delta(optionType models.OptionType) (float64, error) {
	if _, err := b.Price(optionType); err != nil {
		return 0, err
	}
	return (b.step1[1] - b.step1[0]) / (b.params.Spot * (b.u - b.d)), nil
}

// Gamma from the three nodes two steps into the tree; needs at least two steps
func (b *Binomial) Gamma(optionType models.OptionType) (float64, error) {
	if b.config.Steps < 2 {
		return 0, apperrors.InvalidInputf("gamma needs at least 2 lattice steps, got %d", b.config.Steps)
	}
	if _, err := b.Price(optionType); err != nil {
		return 0, err
	}

	S := b.params.Spot
	up, down := S*b.u*b.u, S*b.d*b.d
	deltaUp := (b.step2[2] - b.step2[1]) / (up - S)
	deltaDown := (b.step2[1] - b.step2[0]) / (S - down)
	return (deltaUp - deltaDown) / ((up - down) / 2), nil
}

// Vega per one percentage point, central difference over σ ± volBump
func (b *Binomial) Vega(optionType models.OptionType, volBump float64) (float64, error) {
	if volBump <= 0 {
		return 0, apperrors.InvalidInputf("vol bump must be positive, got %g", volBump)
	}
	up, down := b.params, b.params
	up.ImpliedVol += volBump
	down.ImpliedVol -= volBump

	return b.centralDifference(optionType, up, down, volBump, NewBinomial)
}

// Rho per one percentage point, central difference over r ± rateBump.
// The lower sibling may carry a negative rate.
func (b *Binomial) Rho(optionType models.OptionType, rateBump float64) (float64, error) {
	if rateBump <= 0 {
		return 0, apperrors.InvalidInputf("rate bump must be positive, got %g", rateBump)
	}
	up, down := b.params, b.params
	up.RiskFreeRate += rateBump
	down.RiskFreeRate -= rateBump

	return b.centralDifference(optionType, up, down, rateBump, newBinomial)
}

func (b *Binomial) centralDifference(
	optionType models.OptionType,
	up, down models.OptionParameters,
	bump float64,
	build func(models.OptionParameters, models.LatticeConfig) (*Binomial, error),
) (float64, error) {
	if !optionType.Valid() {
		return 0, invalidOptionType(optionType)
	}

	upTree, err := build(up, b.config)
	if err != nil {
		return 0, apperrors.Wrap(err, "upper bump")
	}
	downTree, err := build(down, b.config)
	if err != nil {
		return 0, apperrors.Wrap(err, "lower bump")
	}

	return (upTree.run(optionType) - downTree.run(optionType)) / (bump * 200), nil
}

// Theta per calendar day, forward difference to t - timeBump
func (b *Binomial) Theta(optionType models.OptionType, timeBump float64) (float64, error) {
	if timeBump <= 0 {
		return 0, apperrors.InvalidInputf("time bump must be positive, got %g", timeBump)
	}
	if b.params.TimeToExpiry <= timeBump {
		return 0, apperrors.InvalidInputf("time to expiry %g must exceed time bump %g", b.params.TimeToExpiry, timeBump)
	}
	now, err := b.Price(optionType)
	if err != nil {
		return 0, err
	}

	future := b.params
	future.TimeToExpiry -= timeBump
	futureTree, err := newBinomial(future, b.config)
	if err != nil {
		return 0, apperrors.Wrap(err, "time bump")
	}

	return (futureTree.run(optionType) - now) / timeBump / 365, nil
}

// Greeks calculates delta, gamma, vega, theta and rho. The second-order
// cross Greeks have no lattice form and are left at zero.
func (b *Binomial) Greeks(optionType models.OptionType, bumps Bumps) (models.Greeks, error) {
	var (
		g   models.Greeks
		err error
	)
	if g.Delta, err = b.Delta(optionType); err != nil {
		return models.Greeks{}, err
	}
	if g.Gamma, err = b.Gamma(optionType); err != nil {
		return models.Greeks{}, err
	}
	if g.Vega, err = b.Vega(optionType, bumps.Vol); err != nil {
		return models.Greeks{}, err
	}
	if g.Theta, err = b.Theta(optionType, bumps.Time); err != nil {
		return models.Greeks{}, err
	}
	if g.Rho, err = b.Rho(optionType, bumps.Rate); err != nil {
		return models.Greeks{}, err
	}
	return g, nil
}

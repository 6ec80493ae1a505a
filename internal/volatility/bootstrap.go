package volatility

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"github.com/rzzdr/option-scenario-engine/pkg/metrics"
	"github.com/rzzdr/option-scenario-engine/pkg/models"
	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
	"github.com/rzzdr/option-scenario-engine/pkg/utils/logger"
)

const (
	// DefaultCutoffDays drops expirations closer than this many days
	DefaultCutoffDays = 3
	// DefaultForwardPeriod is the forward horizon in days
	DefaultForwardPeriod = 15
)

// Config holds the bootstrap parameters
type Config struct {
	CutoffDays    int `json:"cutoffDays" mapstructure:"cutoff_days"`
	ForwardPeriod int `json:"forwardPeriod" mapstructure:"forward_period"`
}

// DefaultConfig returns a 3 day cutoff and a 15 day forward period
func DefaultConfig() Config {
	return Config{
		CutoffDays:    DefaultCutoffDays,
		ForwardPeriod: DefaultForwardPeriod,
	}
}

// Validate checks the bootstrap parameters
func (c Config) Validate() error {
	if c.ForwardPeriod < 1 {
		return apperrors.InvalidInputf("forward period must be at least 1 day, got %d", c.ForwardPeriod)
	}
	if c.CutoffDays < 0 {
		return apperrors.InvalidInputf("cutoff days must not be negative, got %d", c.CutoffDays)
	}
	return nil
}

// ForwardCurve maps an expiration day to the forward vol starting there.
// NaN entries mark an inverted or degenerate input curve.
type ForwardCurve map[int]float64

// DataQualityIssues counts the NaN forward vols
func (c ForwardCurve) DataQualityIssues() int {
	n := 0
	for _, v := range c {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Days returns the expiration days in ascending order
func (c ForwardCurve) Days() []int {
	days := make([]int, 0, len(c))
	for d := range c {
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}

// Points returns the curve ordered by day
func (c ForwardCurve) Points() []models.ForwardVolPoint {
	days := c.Days()
	points := make([]models.ForwardVolPoint, len(days))
	for i, d := range days {
		points[i] = models.ForwardVolPoint{Day: d, ImpliedVol: c[d]}
	}
	return points
}

// Bootstrap derives forward implied vols from a spot implied-vol term structure
type Bootstrap struct {
	config   Config
	recorder *metrics.Recorder
	log      *logger.Logger
}

// NewBootstrap creates a bootstrap; recorder may be nil
func NewBootstrap(config Config, recorder *metrics.Recorder) (*Bootstrap, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Bootstrap{
		config:   config,
		recorder: recorder,
		log:      logger.GetLogger("volatility.bootstrap"),
	}, nil
}

// Config returns the bootstrap parameters
func (b *Bootstrap) Config() Config {
	return b.config
}

// TargetDays returns the forward grid for the observed days: the forward
// period itself, then every expiration but the last shifted by the period.
func (b *Bootstrap) TargetDays(days []int) []int {
	if len(days) == 0 {
		return nil
	}
	p := b.config.ForwardPeriod
	targets := make([]int, 0, len(days))
	targets = append(targets, p)
	for _, d := range days[:len(days)-1] {
		targets = append(targets, d+p)
	}
	return targets
}

// Interpolate maps the observed vols onto the forward grid, linear in log-vol
// and flat beyond the observed range.
func (b *Bootstrap) Interpolate(days []int, vols []float64) ([]models.ForwardVolPoint, error) {
	if len(days) != len(vols) {
		return nil, apperrors.InvalidInputf("got %d days but %d vols", len(days), len(vols))
	}
	if len(days) < 2 {
		return nil, apperrors.InvalidInputf("need at least 2 expirations, got %d", len(days))
	}

	xs := make([]float64, len(days))
	for i, d := range days {
		if i > 0 && d <= days[i-1] {
			return nil, apperrors.InvalidInputf("expiration days must be strictly increasing, got %d after %d", d, days[i-1])
		}
		xs[i] = float64(d)
	}
	if floats.HasNaN(vols) {
		return nil, apperrors.InvalidInputf("implied vols must not contain NaN")
	}
	for _, v := range vols {
		if v <= 0 || math.IsInf(v, 0) {
			return nil, apperrors.InvalidInputf("implied vols must be positive and finite, got %g", v)
		}
	}

	logVols := make([]float64, len(vols))
	for i, v := range vols {
		logVols[i] = math.Log(v)
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, logVols); err != nil {
		return nil, apperrors.WithType(err, apperrors.ErrorTypeInvalidInput)
	}

	targets := b.TargetDays(days)
	points := make([]models.ForwardVolPoint, len(targets))
	for i, day := range targets {
		points[i] = models.ForwardVolPoint{
			Day:        day,
			ImpliedVol: math.Exp(pl.Predict(float64(day))),
		}
	}
	return points, nil
}

// ForwardVol is the vol of the variance accrued between t1 and t2.
// It returns NaN when t1 == t2 or when the total variance decreases.
func ForwardVol(t1, vol1, t2, vol2 float64) float64 {
	if t2 == t1 {
		return math.NaN()
	}
	v := (vol2*vol2*t2 - vol1*vol1*t1) / (t2 - t1)
	if v < 0 {
		return math.NaN()
	}
	return math.Sqrt(v)
}

// Forward bootstraps the forward curve of one side of the chain.
// Expirations inside the cutoff and observations without a usable vol are dropped first.
func (b *Bootstrap) Forward(series []models.ExpirationVol) (ForwardCurve, error) {
	return b.forward("all", series)
}

// ForwardPair bootstraps the call and put sides independently
func (b *Bootstrap) ForwardPair(call, put []models.ExpirationVol) (ForwardCurve, ForwardCurve, error) {
	callCurve, err := b.forward(models.OptionTypeCall.String(), call)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "call side")
	}
	putCurve, err := b.forward(models.OptionTypePut.String(), put)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "put side")
	}
	return callCurve, putCurve, nil
}

func (b *Bootstrap) forward(side string, series []models.ExpirationVol) (ForwardCurve, error) {
	kept := ApplyCutoff(series, b.config.CutoffDays)

	days := make([]int, 0, len(kept))
	vols := make([]float64, 0, len(kept))
	for _, ev := range kept {
		if math.IsNaN(ev.ImpliedVol) || ev.ImpliedVol <= 0 {
			b.log.Warnw("Dropping expiration without a usable implied vol", "side", side, "day", ev.Day)
			continue
		}
		days = append(days, ev.Day)
		vols = append(vols, ev.ImpliedVol)
	}

	points, err := b.Interpolate(days, vols)
	if err != nil {
		return nil, err
	}

	curve := make(ForwardCurve, len(days)-1)
	for i := 0; i < len(days)-1; i++ {
		t1, t2 := points[i], points[i+1]
		curve[days[i]] = ForwardVol(float64(t1.Day), t1.ImpliedVol, float64(t2.Day), t2.ImpliedVol)
	}

	if issues := curve.DataQualityIssues(); issues > 0 {
		b.log.Warnw("Forward vol curve is inverted", "side", side, "nan_points", issues, "points", len(curve))
		b.recorder.RecordForwardVolIssues(side, issues)
	}
	return curve, nil
}

package rates

import (
	"sort"

	"gonum.org/v1/gonum/interp"

	"github.com/rzzdr/option-scenario-engine/pkg/models"
	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
)

// DaysPerYear converts a time to expiry in years to a tenor in days
const DaysPerYear = 365

// Curve is a piecewise-linear term structure of risk-free rates keyed by tenor in days.
// Rates outside the known tenors are held flat at the nearest end.
type Curve struct {
	points []models.RateCurvePoint
	linear interp.PiecewiseLinear
}

// NewCurve builds a curve from unordered points. Tenors must be distinct.
func NewCurve(points []models.RateCurvePoint) (*Curve, error) {
	if len(points) == 0 {
		return nil, apperrors.InvalidInputf("rate curve needs at least one point")
	}

	sorted := make([]models.RateCurvePoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TenorDays < sorted[j].TenorDays })

	xs := make([]float64, len(sorted))
	ys := make([]float64, len(sorted))
	for i, p := range sorted {
		if p.TenorDays < 0 {
			return nil, apperrors.InvalidInputf("rate curve tenor must not be negative, got %d", p.TenorDays)
		}
		if i > 0 && p.TenorDays == sorted[i-1].TenorDays {
			return nil, apperrors.InvalidInputf("duplicate rate curve tenor %d", p.TenorDays)
		}
		xs[i] = float64(p.TenorDays)
		ys[i] = p.Rate
	}

	c := &Curve{points: sorted}
	if len(sorted) > 1 {
		if err := c.linear.Fit(xs, ys); err != nil {
			return nil, apperrors.WithType(err, apperrors.ErrorTypeInvalidInput)
		}
	}
	return c, nil
}

// NewCurveFromMap builds a curve from a tenor-days to rate map
func NewCurveFromMap(rates map[int]float64) (*Curve, error) {
	points := make([]models.RateCurvePoint, 0, len(rates))
	for tenor, rate := range rates {
		points = append(points, models.RateCurvePoint{TenorDays: tenor, Rate: rate})
	}
	return NewCurve(points)
}

// Rate returns the interpolated rate for a time to expiry in years
func (c *Curve) Rate(years float64) float64 {
	if len(c.points) == 1 {
		return c.points[0].Rate
	}
	return c.linear.Predict(years * DaysPerYear)
}

// Points returns the knots of the curve in tenor order
func (c *Curve) Points() []models.RateCurvePoint {
	out := make([]models.RateCurvePoint, len(c.points))
	copy(out, c.points)
	return out
}

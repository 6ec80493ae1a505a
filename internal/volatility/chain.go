package volatility

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/rzzdr/option-scenario-engine/pkg/models"
)

const (
	// DefaultATMBand is the half-width of the at-the-money strike window, as a fraction of spot
	DefaultATMBand = 0.05
	// MinSurfaceVol drops quotes whose implied vol is at or below 1%
	MinSurfaceVol = 0.01
)

// WeightedATMVol is the volume-weighted implied vol of the quotes whose strike lies
// strictly inside spot·(1±band). It returns NaN when the window carries no volume
// or no quote in it has an implied vol.
func WeightedATMVol(quotes []models.OptionQuote, spot, band float64) float64 {
	low, high := spot-spot*band, spot+spot*band

	var ivs, weights, volumes []float64
	for _, q := range quotes {
		if q.Strike <= low || q.Strike >= high {
			continue
		}
		volumes = append(volumes, q.Volume)
		if math.IsNaN(q.ImpliedVol) {
			continue
		}
		ivs = append(ivs, q.ImpliedVol)
		weights = append(weights, q.Volume)
	}

	total := floats.Sum(volumes)
	if total == 0 || len(ivs) == 0 {
		return math.NaN()
	}
	return floats.Dot(ivs, weights) / total
}

// ATMSeries groups a chain by expiration and returns the weighted ATM vol of
// each expiration for one option type, ordered by day.
func ATMSeries(quotes []models.OptionQuote, optionType models.OptionType, spot, band float64) []models.ExpirationVol {
	byDay := make(map[int][]models.OptionQuote)
	for _, q := range quotes {
		if q.Type != optionType {
			continue
		}
		byDay[q.ExpirationDay] = append(byDay[q.ExpirationDay], q)
	}

	days := make([]int, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Ints(days)

	series := make([]models.ExpirationVol, len(days))
	for i, d := range days {
		series[i] = models.ExpirationVol{Day: d, ImpliedVol: WeightedATMVol(byDay[d], spot, band)}
	}
	return series
}

// ApplyCutoff drops expirations closer than cutoff days. A non-positive cutoff keeps everything.
func ApplyCutoff(series []models.ExpirationVol, cutoff int) []models.ExpirationVol {
	kept := make([]models.ExpirationVol, 0, len(series))
	for _, ev := range series {
		if cutoff > 0 && ev.Day < cutoff {
			continue
		}
		kept = append(kept, ev)
	}
	return kept
}

// FilterDays keeps the points with start <= day <= end
func FilterDays(points []models.ForwardVolPoint, start, end int) []models.ForwardVolPoint {
	kept := make([]models.ForwardVolPoint, 0, len(points))
	for _, p := range points {
		if p.Day >= start && p.Day <= end {
			kept = append(kept, p)
		}
	}
	return kept
}

// SurfacePoints selects the chain quotes inside a day and strike window for a
// vol surface, dropping implied vols at or below MinSurfaceVol.
func SurfacePoints(quotes []models.OptionQuote, minDay, maxDay int, minStrike, maxStrike float64) []models.OptionQuote {
	kept := make([]models.OptionQuote, 0, len(quotes))
	for _, q := range quotes {
		if q.ExpirationDay < minDay || q.ExpirationDay > maxDay {
			continue
		}
		if q.Strike < minStrike || q.Strike > maxStrike {
			continue
		}
		if !(q.ImpliedVol > MinSurfaceVol) {
			continue
		}
		kept = append(kept, q)
	}
	return kept
}

// TermStructure is the spot and forward implied-vol series of one option type
type TermStructure struct {
	Title      string                   `json:"title"`
	OptionType models.OptionType        `json:"optionType"`
	Spot       []models.ForwardVolPoint `json:"spot"`
	Forward    []models.ForwardVolPoint `json:"forward"`
}

// NewTermStructure builds the display payload for one side, keeping days in [start, end]
func NewTermStructure(ticker string, optionType models.OptionType, spot []models.ExpirationVol, forward ForwardCurve, start, end int) TermStructure {
	spotPoints := make([]models.ForwardVolPoint, len(spot))
	for i, ev := range spot {
		spotPoints[i] = models.ForwardVolPoint{Day: ev.Day, ImpliedVol: ev.ImpliedVol}
	}

	return TermStructure{
		Title:      fmt.Sprintf("%s IV Term Structure for ATM Options on %s", optionType, ticker),
		OptionType: optionType,
		Spot:       FilterDays(spotPoints, start, end),
		Forward:    FilterDays(forward.Points(), start, end),
	}
}

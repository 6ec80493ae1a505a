package scenario

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/rzzdr/option-scenario-engine/pkg/models"
	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
)

// Palette names the colour ramp a renderer should use for a grid
type Palette string

const (
	PaletteRedGreen  Palette = "red-green"
	PaletteRedYellow Palette = "red-yellow"
	PaletteBlueGreen Palette = "blue-green"
)

// Summary describes the value range of a grid for colour scaling
type Summary struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	StdDev  float64 `json:"stdDev"`
	Center  float64 `json:"center"`
	Palette Palette `json:"palette"`
}

// Summarize computes the range of a grid. The colour centre is zero when the
// grid has both losses and gains and the mean otherwise.
func Summarize(grid models.ScenarioGrid) (Summary, error) {
	data := stats.Float64Data(grid.Flatten())

	low, err := data.Min()
	if err != nil {
		return Summary{}, apperrors.Wrap(err, "grid min")
	}
	high, err := data.Max()
	if err != nil {
		return Summary{}, apperrors.Wrap(err, "grid max")
	}
	mean, err := data.Mean()
	if err != nil {
		return Summary{}, apperrors.Wrap(err, "grid mean")
	}
	median, err := data.Median()
	if err != nil {
		return Summary{}, apperrors.Wrap(err, "grid median")
	}
	stdDev, err := data.StandardDeviation()
	if err != nil {
		return Summary{}, apperrors.Wrap(err, "grid standard deviation")
	}

	s := Summary{Min: low, Max: high, Mean: mean, Median: median, StdDev: stdDev}
	switch {
	case low < 0 && high > 0:
		s.Center, s.Palette = 0, PaletteRedGreen
	case high <= 0:
		s.Center, s.Palette = mean, PaletteRedYellow
	default:
		s.Center, s.Palette = mean, PaletteBlueGreen
	}
	return s, nil
}

// Surface is everything a renderer needs to draw a scenario heatmap
type Surface struct {
	Title      string                  `json:"title"`
	XLabel     string                  `json:"xLabel"`
	YLabel     string                  `json:"yLabel"`
	Grid       models.ScenarioGrid     `json:"grid"`
	SpotLabels [models.GridSize]string `json:"spotLabels"`
	VolLabels  [models.GridSize]string `json:"volLabels"`
	Summary    Summary                 `json:"summary"`
}

// NewSurface attaches labels, title and summary to a strategy grid
func NewSurface(market models.MarketState, strategy Strategy, grid models.ScenarioGrid, spotStep, ivStep float64) (Surface, error) {
	if len(strategy.Legs) == 0 {
		return Surface{}, apperrors.Validationf("strategy %q has no legs", strategy.Name)
	}

	spots, err := SpotOffsets(market.Spot, spotStep)
	if err != nil {
		return Surface{}, err
	}

	perLeg := make([][models.GridSize]string, len(strategy.Legs))
	for i, leg := range strategy.Legs {
		vols, err := VolOffsets(leg.ImpliedVol, ivStep)
		if err != nil {
			return Surface{}, err
		}
		perLeg[i] = VolLabels(vols)
	}

	summary, err := Summarize(grid)
	if err != nil {
		return Surface{}, err
	}

	title, yLabel := Titles(market.Ticker, strategy)
	return Surface{
		Title:      title,
		XLabel:     "Spot Price",
		YLabel:     yLabel,
		Grid:       grid,
		SpotLabels: SpotLabels(spots),
		VolLabels:  JoinVolLabels(perLeg),
		Summary:    summary,
	}, nil
}

// Titles returns the heatmap title and vol axis label for a strategy
func Titles(ticker string, strategy Strategy) (title, yLabel string) {
	switch strategy.Kind {
	case KindSingle:
		return fmt.Sprintf("PnL for %s %s %s Option", strategy.Direction, ticker, strategy.Legs[0].Type),
			"Implied Volatility"
	case KindStraddle:
		return fmt.Sprintf("PnL of %s Straddle for %s", strategy.Direction, ticker),
			"Implied Volatility (call / put)"
	case KindButterfly:
		return fmt.Sprintf("PnL of %s for %s", strategy.Name, ticker),
			"Implied Volatility (low / atm / high)"
	case KindIronButterfly:
		return fmt.Sprintf("PnL of %s for %s", strategy.Name, ticker),
			"Implied Volatility (low / atm (p) / atm (c) / high)"
	default:
		return fmt.Sprintf("PnL of %s for %s", strategy.Name, ticker),
			"Implied Volatility"
	}
}

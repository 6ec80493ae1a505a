package scenario

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/rzzdr/option-scenario-engine/internal/pricing"
	"github.com/rzzdr/option-scenario-engine/pkg/metrics"
	"github.com/rzzdr/option-scenario-engine/pkg/models"
	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
	"github.com/rzzdr/option-scenario-engine/pkg/utils/logger"
)

const (
	// DefaultModelRatio weights the closed form and the tree equally
	DefaultModelRatio = 0.5
	// DefaultSpotStep moves spot 5% per grid column
	DefaultSpotStep = 0.05
	// DefaultIVStep moves implied vol 5% (relative) per grid row
	DefaultIVStep = 0.05
	// DefaultWorkers bounds the number of cells priced at once
	DefaultWorkers = 4
)

// Config controls how scenario cells are priced
type Config struct {
	// ModelRatio is the closed-form weight in [0, 1]; the tree gets the rest.
	// American exercise always prices with the tree alone.
	ModelRatio float64
	Lattice    models.LatticeConfig
	SpotStep   float64
	IVStep     float64
	Workers    int
}

// DefaultConfig returns the settings of the interactive dashboards
func DefaultConfig() Config {
	return Config{
		ModelRatio: DefaultModelRatio,
		Lattice:    models.DefaultLatticeConfig(),
		SpotStep:   DefaultSpotStep,
		IVStep:     DefaultIVStep,
		Workers:    DefaultWorkers,
	}
}

// Validate checks the builder settings
func (c Config) Validate() error {
	if c.ModelRatio < 0 || c.ModelRatio > 1 {
		return apperrors.InvalidInputf("model ratio must be within [0, 1], got %g", c.ModelRatio)
	}
	if err := c.Lattice.ValidateSteps(); err != nil {
		return err
	}
	if !c.Lattice.Style.Valid() {
		return apperrors.InvalidInputf("exercise style must be American or European, got %d", int(c.Lattice.Style))
	}
	if c.SpotStep < 0 || c.IVStep < 0 {
		return apperrors.InvalidInputf("offset steps must not be negative, got spot %g and iv %g", c.SpotStep, c.IVStep)
	}
	return nil
}

// blend is the closed-form weight actually applied to a cell
func (c Config) blend() float64 {
	if c.Lattice.Style == models.ExerciseStyleAmerican {
		return 0
	}
	return c.ModelRatio
}

// Builder prices strategies over a 9x9 grid of spot and implied-vol offsets
type Builder struct {
	config   Config
	recorder *metrics.Recorder
	log      *logger.Logger
}

// NewBuilder creates a builder; recorder may be nil
func NewBuilder(config Config, recorder *metrics.Recorder) (*Builder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Builder{
		config:   config,
		recorder: recorder,
		log:      logger.GetLogger("scenario.builder"),
	}, nil
}

// Config returns the builder settings
func (b *Builder) Config() Config {
	return b.config
}

// LegGrid prices one leg, ignoring its multiplier. Rows are vol offsets and
// columns spot offsets, both ascending. Cells are rounded to cents and signed
// by the leg direction.
func (b *Builder) LegGrid(ctx context.Context, market models.MarketState, leg Leg) (models.ScenarioGrid, error) {
	var grid models.ScenarioGrid

	if err := leg.Validate(); err != nil {
		return grid, err
	}
	if err := market.Validate(); err != nil {
		return grid, apperrors.Wrap(err, "market state")
	}

	spots, err := SpotOffsets(market.Spot, b.config.SpotStep)
	if err != nil {
		return grid, err
	}
	vols, err := VolOffsets(leg.ImpliedVol, b.config.IVStep)
	if err != nil {
		return grid, err
	}

	sign := leg.Direction.Sign()
	price := func(row, col int) error {
		pnl, err := b.cell(market, leg, spots[col], vols[row])
		if err != nil {
			return apperrors.Wrapf(err, "cell (vol %.4f, spot %.2f)", vols[row], spots[col])
		}
		grid[row][col] = roundCents(sign * pnl)
		return nil
	}

	if b.config.Workers <= 1 {
		for row := range grid {
			for col := range grid[row] {
				if err := ctx.Err(); err != nil {
					return models.ScenarioGrid{}, err
				}
				if err := price(row, col); err != nil {
					return models.ScenarioGrid{}, err
				}
			}
		}
		return grid, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.config.Workers)
	for row := range grid {
		for col := range grid[row] {
			row, col := row, col
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return price(row, col)
			})
		}
	}
	if err := g.Wait(); err != nil {
		return models.ScenarioGrid{}, err
	}
	return grid, nil
}

// cell is the long PnL of one contract at a shifted spot and vol
func (b *Builder) cell(market models.MarketState, leg Leg, spot, vol float64) (float64, error) {
	state := market
	state.Spot = spot
	params := state.Params(leg.Strike, vol)
	ratio := b.config.blend()

	var pnl float64
	if ratio > 0 {
		start := time.Now()
		bs, err := pricing.NewBlackScholes(params)
		if err != nil {
			return 0, err
		}
		price, err := bs.Price(leg.Type)
		if err != nil {
			return 0, err
		}
		b.recorder.RecordPricing(pricing.ModelBlackScholes, leg.Type.String(), time.Since(start))
		pnl += ratio * (price - leg.EntryPrice)
	}
	if ratio < 1 {
		start := time.Now()
		tree, err := pricing.NewBinomial(params, b.config.Lattice)
		if err != nil {
			return 0, err
		}
		price, err := tree.Price(leg.Type)
		if err != nil {
			return 0, err
		}
		b.recorder.RecordPricing(pricing.ModelBinomial, leg.Type.String(), time.Since(start))
		pnl += (1 - ratio) * (price - leg.EntryPrice)
	}
	return pnl, nil
}

// StrategyGrid sums every leg grid scaled by its multiplier.
// A failure in any leg fails the whole strategy.
func (b *Builder) StrategyGrid(ctx context.Context, market models.MarketState, strategy Strategy) (models.ScenarioGrid, error) {
	start := time.Now()
	grid, err := b.strategyGrid(ctx, market, strategy)
	b.recorder.RecordScenarioGrid(strategy.Kind.String(), time.Since(start), err)
	if err != nil {
		b.log.Errorw("Failed to build scenario grid", "strategy", strategy.Name, "ticker", market.Ticker, "error", err)
		return models.ScenarioGrid{}, err
	}

	b.log.Debugw("Built scenario grid",
		"strategy", strategy.Name,
		"ticker", market.Ticker,
		"legs", len(strategy.Legs),
		"duration", time.Since(start))
	return grid, nil
}

func (b *Builder) strategyGrid(ctx context.Context, market models.MarketState, strategy Strategy) (models.ScenarioGrid, error) {
	var total models.ScenarioGrid
	if err := strategy.Validate(); err != nil {
		return total, err
	}

	for i, leg := range strategy.Legs {
		grid, err := b.LegGrid(ctx, market, leg)
		if err != nil {
			return models.ScenarioGrid{}, apperrors.Wrapf(err, "leg %d (%s %s %g)", i, leg.Direction, leg.Type, leg.Strike)
		}
		total = total.Add(grid.Scale(float64(leg.Multiplier)))
	}

	for row := range total {
		for col := range total[row] {
			total[row][col] = roundCents(total[row][col])
		}
	}
	return total, nil
}

// Surface builds the grid of a strategy together with its axis labels and title
func (b *Builder) Surface(ctx context.Context, market models.MarketState, strategy Strategy) (Surface, error) {
	grid, err := b.StrategyGrid(ctx, market, strategy)
	if err != nil {
		return Surface{}, err
	}
	return NewSurface(market, strategy, grid, b.config.SpotStep, b.config.IVStep)
}

// roundCents rounds half away from zero, so a short grid is the exact negation of the long one
func roundCents(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rzzdr/option-scenario-engine/internal/pricing"
	"github.com/rzzdr/option-scenario-engine/internal/rates"
	"github.com/rzzdr/option-scenario-engine/pkg/models"
	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
)

// marketFlags resolves market state either from flags or from loaded market data
type marketFlags struct {
	ticker string
	days   int
	spot   float64
	rate   float64
	carry  float64
}

func (f *marketFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.ticker, "ticker", "", "Underlying ticker")
	cmd.Flags().IntVar(&f.days, "days", 30, "Days to expiration")
	cmd.Flags().Float64Var(&f.spot, "spot", 0, "Spot price; skips the quote lookup when set")
	cmd.Flags().Float64Var(&f.rate, "rate", 0, "Risk-free rate; read from the curve when not set")
	cmd.Flags().Float64Var(&f.carry, "carry", 0, "Dividend yield used with --spot")
}

func (f *marketFlags) resolve(ctx context.Context, cmd *cobra.Command, s *session) (models.MarketState, error) {
	if f.days <= 0 {
		return models.MarketState{}, apperrors.InvalidInputf("--days must be positive, got %d", f.days)
	}
	years := float64(f.days) / rates.DaysPerYear

	if f.spot <= 0 {
		return s.Market.Snapshot(ctx, f.ticker, years)
	}

	rate := f.rate
	if !cmd.Flags().Changed("rate") {
		var err error
		if rate, err = s.Market.Rate(ctx, years); err != nil {
			return models.MarketState{}, err
		}
	}
	state := models.MarketState{
		Ticker:       f.ticker,
		Spot:         f.spot,
		RiskFreeRate: rate,
		CarryRate:    f.carry,
		TimeToExpiry: years,
	}
	return state, state.Validate()
}

type optionFlags struct {
	market     marketFlags
	optionType string
	strike     float64
	iv         float64
	model      string
	style      string
	steps      int
}

func (f *optionFlags) register(cmd *cobra.Command) {
	f.market.register(cmd)
	cmd.Flags().StringVar(&f.optionType, "type", "call", "Option type: call or put")
	cmd.Flags().Float64Var(&f.strike, "strike", 0, "Strike price")
	cmd.Flags().Float64Var(&f.iv, "iv", 0, "Implied volatility as a fraction")
	cmd.Flags().StringVar(&f.model, "model", pricing.ModelBlackScholes, "Pricing model: black_scholes or binomial")
	cmd.Flags().StringVar(&f.style, "style", "", "Exercise style for the binomial model; defaults to the configured style")
	cmd.Flags().IntVar(&f.steps, "steps", 0, "Lattice steps for the binomial model; defaults to the configured steps")
	_ = cmd.MarkFlagRequired("strike")
	_ = cmd.MarkFlagRequired("iv")
}

func (f *optionFlags) params(cmd *cobra.Command, s *session) (models.OptionType, models.OptionParameters, error) {
	optionType, err := models.ParseOptionType(f.optionType)
	if err != nil {
		return 0, models.OptionParameters{}, err
	}
	state, err := f.market.resolve(cmd.Context(), cmd, s)
	if err != nil {
		return 0, models.OptionParameters{}, err
	}
	return optionType, state.Params(f.strike, f.iv), nil
}

func (f *optionFlags) lattice(s *session) (models.LatticeConfig, error) {
	lattice := s.Builder.Config().Lattice
	if f.style != "" {
		style, err := models.ParseExerciseStyle(f.style)
		if err != nil {
			return models.LatticeConfig{}, err
		}
		lattice.Style = style
	}
	if f.steps > 0 {
		lattice.Steps = f.steps
	}
	return lattice, nil
}

func (f *optionFlags) label(optionType models.OptionType) string {
	return fmt.Sprintf("%s %s %g (%s)", f.market.ticker, optionType, f.strike, f.model)
}

func newPriceCmd(s *session) *cobra.Command {
	var f optionFlags
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a single option",
		RunE: func(cmd *cobra.Command, args []string) error {
			optionType, params, err := f.params(cmd, s)
			if err != nil {
				return err
			}

			var pricer pricing.Pricer
			switch f.model {
			case pricing.ModelBlackScholes:
				pricer, err = pricing.NewBlackScholes(params)
			case pricing.ModelBinomial:
				lattice, lerr := f.lattice(s)
				if lerr != nil {
					return lerr
				}
				pricer, err = pricing.NewBinomial(params, lattice)
			default:
				return apperrors.InvalidInputf("unknown model %q", f.model)
			}
			if err != nil {
				return err
			}

			price, err := pricer.Price(optionType)
			if err != nil {
				return err
			}
			return s.renderer.RenderPrice(cmd.OutOrStdout(), f.label(optionType), price)
		},
	}
	f.register(cmd)
	return cmd
}

func newGreeksCmd(s *session) *cobra.Command {
	var f optionFlags
	cmd := &cobra.Command{
		Use:   "greeks",
		Short: "Compute the Greeks of a single option",
		RunE: func(cmd *cobra.Command, args []string) error {
			optionType, params, err := f.params(cmd, s)
			if err != nil {
				return err
			}

			var greeks models.Greeks
			switch f.model {
			case pricing.ModelBlackScholes:
				bs, err := pricing.NewBlackScholes(params)
				if err != nil {
					return err
				}
				greeks, err = bs.Greeks(optionType)
				if err != nil {
					return err
				}
			case pricing.ModelBinomial:
				lattice, err := f.lattice(s)
				if err != nil {
					return err
				}
				tree, err := pricing.NewBinomial(params, lattice)
				if err != nil {
					return err
				}
				greeks, err = tree.Greeks(optionType, s.Bumps)
				if err != nil {
					return err
				}
			default:
				return apperrors.InvalidInputf("unknown model %q", f.model)
			}
			return s.renderer.RenderGreeks(cmd.OutOrStdout(), "Greeks of "+f.label(optionType), greeks)
		},
	}
	f.register(cmd)
	return cmd
}

func newRateCmd(s *session) *cobra.Command {
	var years float64
	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Interpolate the risk-free rate for a time to expiry",
		RunE: func(cmd *cobra.Command, args []string) error {
			rate, err := s.Market.Rate(cmd.Context(), years)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "rate at %g years: %.4f%%\n", years, rate*100)
			return err
		},
	}
	cmd.Flags().Float64Var(&years, "years", 1, "Time to expiry in years")
	return cmd
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/rzzdr/option-scenario-engine/internal/scenario"
	"github.com/rzzdr/option-scenario-engine/pkg/models"
	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
)

// legFlags holds one strike, entry price and implied vol per leg, in the order the strategy lists them
type legFlags struct {
	market    marketFlags
	direction string
	strikes   []float64
	prices    []float64
	ivs       []float64
}

func (f *legFlags) register(cmd *cobra.Command) {
	f.market.register(cmd)
	cmd.Flags().StringVar(&f.direction, "direction", "long", "Position direction: long or short")
	cmd.Flags().Float64SliceVar(&f.strikes, "strikes", nil, "Strike of each leg")
	cmd.Flags().Float64SliceVar(&f.prices, "prices", nil, "Entry price of each leg")
	cmd.Flags().Float64SliceVar(&f.ivs, "ivs", nil, "Implied volatility of each leg as a fraction")
}

func (f *legFlags) quotes(n int) ([]scenario.Quote, error) {
	return legQuotes(n, f.strikes, f.prices, f.ivs)
}

func legQuotes(n int, strikes, prices, ivs []float64) ([]scenario.Quote, error) {
	if len(strikes) != n || len(prices) != n || len(ivs) != n {
		return nil, apperrors.InvalidInputf("expected %d strikes, prices and ivs, got %d, %d and %d", n, len(strikes), len(prices), len(ivs))
	}
	quotes := make([]scenario.Quote, n)
	for i := range quotes {
		quotes[i] = scenario.Quote{Strike: strikes[i], EntryPrice: prices[i], ImpliedVol: ivs[i]}
	}
	return quotes, nil
}

func (f *legFlags) run(cmd *cobra.Command, s *session, build func(models.Direction) (scenario.Strategy, error)) error {
	direction, err := models.ParseDirection(f.direction)
	if err != nil {
		return err
	}
	strategy, err := build(direction)
	if err != nil {
		return err
	}
	state, err := f.market.resolve(cmd.Context(), cmd, s)
	if err != nil {
		return err
	}

	surface, err := s.Builder.Surface(cmd.Context(), state, strategy)
	if err != nil {
		return err
	}
	if err := s.renderer.RenderSurface(cmd.OutOrStdout(), surface); err != nil {
		return err
	}

	greeks, err := scenario.StrategyGreeks(state, strategy)
	if err != nil {
		return err
	}
	return s.renderer.RenderGreeks(cmd.OutOrStdout(), "Greeks of "+strategy.Name, greeks)
}

func newScenarioCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Build the PnL grid of a strategy over spot and implied vol moves",
	}
	cmd.AddCommand(
		newSingleCmd(s),
		newStraddleCmd(s),
		newButterflyCmd(s),
		newIronButterflyCmd(s),
	)
	return cmd
}

func newSingleCmd(s *session) *cobra.Command {
	var f legFlags
	var optionType string
	cmd := &cobra.Command{
		Use:   "single",
		Short: "One call or put",
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(cmd, s, func(direction models.Direction) (scenario.Strategy, error) {
				t, err := models.ParseOptionType(optionType)
				if err != nil {
					return scenario.Strategy{}, err
				}
				q, err := f.quotes(1)
				if err != nil {
					return scenario.Strategy{}, err
				}
				return scenario.Single(t, direction, q[0])
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&optionType, "type", "call", "Option type: call or put")
	return cmd
}

func newStraddleCmd(s *session) *cobra.Command {
	var f legFlags
	var callQuantity, putQuantity int
	cmd := &cobra.Command{
		Use:   "straddle",
		Short: "A call and a put at the same strike, legs given as call then put",
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(cmd, s, func(direction models.Direction) (scenario.Strategy, error) {
				q, err := f.quotes(2)
				if err != nil {
					return scenario.Strategy{}, err
				}
				return scenario.Straddle(direction, q[0], q[1], callQuantity, putQuantity)
			})
		},
	}
	f.register(cmd)
	cmd.Flags().IntVar(&callQuantity, "call-quantity", 1, "Contracts on the call leg")
	cmd.Flags().IntVar(&putQuantity, "put-quantity", 1, "Contracts on the put leg")
	return cmd
}

func newButterflyCmd(s *session) *cobra.Command {
	var f legFlags
	var optionType string
	cmd := &cobra.Command{
		Use:   "butterfly",
		Short: "A vertical butterfly, legs given as low, atm, high",
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(cmd, s, func(direction models.Direction) (scenario.Strategy, error) {
				t, err := models.ParseOptionType(optionType)
				if err != nil {
					return scenario.Strategy{}, err
				}
				q, err := f.quotes(3)
				if err != nil {
					return scenario.Strategy{}, err
				}
				return scenario.VerticalButterfly(direction, t, q[0], q[1], q[2])
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&optionType, "type", "call", "Option type of every leg: call or put")
	return cmd
}

func newIronButterflyCmd(s *session) *cobra.Command {
	var f legFlags
	var reverse bool
	cmd := &cobra.Command{
		Use:   "iron-butterfly",
		Short: "An iron butterfly, legs given as low put, atm put, atm call, high call",
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(cmd, s, func(models.Direction) (scenario.Strategy, error) {
				q, err := f.quotes(4)
				if err != nil {
					return scenario.Strategy{}, err
				}
				return scenario.IronButterfly(reverse, q[0], q[1], q[2], q[3])
			})
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&reverse, "reverse", false, "Buy the body and sell the wings")
	return cmd
}

package scenario

import (
	"github.com/rzzdr/option-scenario-engine/internal/pricing"
	"github.com/rzzdr/option-scenario-engine/pkg/models"
	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
)

// StrategyGreeks sums the closed-form Greeks of every leg, signed by direction
// and scaled by multiplier, at the current market state.
func StrategyGreeks(market models.MarketState, strategy Strategy) (models.Greeks, error) {
	var total models.Greeks
	if err := strategy.Validate(); err != nil {
		return total, err
	}

	for i, leg := range strategy.Legs {
		bs, err := pricing.NewBlackScholes(market.Params(leg.Strike, leg.ImpliedVol))
		if err != nil {
			return models.Greeks{}, apperrors.Wrapf(err, "leg %d", i)
		}
		g, err := bs.Greeks(leg.Type)
		if err != nil {
			return models.Greeks{}, apperrors.Wrapf(err, "leg %d", i)
		}
		total = total.Add(g.Scale(leg.Direction.Sign() * float64(leg.Multiplier)))
	}
	return total, nil
}

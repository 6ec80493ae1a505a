package models

// UnderlyingQuote is the market state of an underlying needed to price its options
type UnderlyingQuote struct {
	Ticker        string  `json:"ticker" csv:"ticker"`
	LastPrice     float64 `json:"lastPrice" csv:"last_price"`
	DividendYield float64 `json:"dividendYield" csv:"dividend_yield"`
}

// OptionQuote is one row of an option chain
type OptionQuote struct {
	ExpirationDay int        `json:"expirationDay" csv:"expiration_day"`
	Type          OptionType `json:"type" csv:"type"`
	Strike        float64    `json:"strike" csv:"strike"`
	Volume        float64    `json:"volume" csv:"volume"`
	ImpliedVol    float64    `json:"impliedVol" csv:"implied_vol"`
}

// ExpirationVol is the representative implied vol of one expiration, in days from today
type ExpirationVol struct {
	Day        int     `json:"day"`
	ImpliedVol float64 `json:"impliedVol"`
}

// ForwardVolPoint is an implied vol observed or interpolated at a day on the forward grid
type ForwardVolPoint struct {
	Day        int     `json:"day"`
	ImpliedVol float64 `json:"impliedVol"`
}

// RateCurvePoint is an annualised rate at a tenor measured in days
type RateCurvePoint struct {
	TenorDays int     `json:"tenorDays" csv:"tenor_days"`
	Rate      float64 `json:"rate" csv:"rate"`
}

// DefaultTreasuryTenors are the constant-maturity tenors, in days, of the public rate curve
var DefaultTreasuryTenors = []int{30, 90, 180, 365, 730, 1095, 1825, 2555, 3650, 7300, 10950}

// MarketState is the market snapshot a scenario is evaluated against
type MarketState struct {
	Ticker       string  `json:"ticker"`
	Spot         float64 `json:"spot"`
	RiskFreeRate float64 `json:"riskFreeRate"`
	CarryRate    float64 `json:"carryRate"`
	TimeToExpiry float64 `json:"timeToExpiry"`
}

// Params combines the market state with one leg's strike and implied vol
func (m MarketState) Params(strike, impliedVol float64) OptionParameters {
	return OptionParameters{
		Strike:       strike,
		Spot:         m.Spot,
		RiskFreeRate: m.RiskFreeRate,
		TimeToExpiry: m.TimeToExpiry,
		ImpliedVol:   impliedVol,
		CarryRate:    m.CarryRate,
	}
}

// Validate checks the market inputs shared by every leg
func (m MarketState) Validate() error {
	return m.Params(1, 1).Validate()
}

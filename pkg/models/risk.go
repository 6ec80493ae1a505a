package models

// Greeks are the sensitivities of an option or strategy price.
// Vega, Volga and Rho are per one percentage point, Theta per calendar day,
// Charm per trading day.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
	Theta float64 `json:"theta"`
	Rho   float64 `json:"rho"`
	Vanna float64 `json:"vanna"`
	Charm float64 `json:"charm"`
	Volga float64 `json:"volga"`
}

// Add returns the element-wise sum of g and o
func (g Greeks) Add(o Greeks) Greeks {
	return Greeks{
		Delta: g.Delta + o.Delta,
		Gamma: g.Gamma + o.Gamma,
		Vega:  g.Vega + o.Vega,
		Theta: g.Theta + o.Theta,
		Rho:   g.Rho + o.Rho,
		Vanna: g.Vanna + o.Vanna,
		Charm: g.Charm + o.Charm,
		Volga: g.Volga + o.Volga,
	}
}

// Scale multiplies every sensitivity by factor
func (g Greeks) Scale(factor float64) Greeks {
	return Greeks{
		Delta: g.Delta * factor,
		Gamma: g.Gamma * factor,
		Vega:  g.Vega * factor,
		Theta: g.Theta * factor,
		Rho:   g.Rho * factor,
		Vanna: g.Vanna * factor,
		Charm: g.Charm * factor,
		Volga: g.Volga * factor,
	}
}

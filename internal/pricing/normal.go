package pricing

import "gonum.org/v1/gonum/stat/distuv"

// normalCDF returns the cumulative distribution function of the standard normal distribution
func normalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// normalPDF returns the probability density function of the standard normal distribution
func normalPDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}

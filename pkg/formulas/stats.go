package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Returns converts a price or value series to periodic percentage returns.
// Returns[i] = (series[i+1] - series[i]) / series[i]; zero entries are skipped
// to avoid division by zero.
func Returns(series []float64) []float64 {
	if len(series) < 2 {
		return []float64{}
	}

	returns := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		if series[i-1] != 0 {
			returns = append(returns, (series[i]-series[i-1])/series[i-1])
		}
	}

	return returns
}

// AnnualizedVolatility calculates annualized volatility from daily returns,
// assuming 252 trading days per year.
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) == 0 {
		return 0
	}
	return StdDev(dailyReturns) * math.Sqrt(252)
}

package formulas

import (
	"math"
)

// SharpeRatio calculates the annualized Sharpe ratio of a periodic return
// series.
//
//	Sharpe = (mean return - periodic risk-free rate) / stddev of returns
//	annualized by sqrt(periodsPerYear)
//
// riskFreeRate is annual, as a decimal (0.02 for 2%). Returns nil when the
// series is too short or has zero variance.
func SharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) *float64 {
	if len(returns) < 2 || periodsPerYear <= 0 {
		return nil
	}

	stdDev := StdDev(returns)
	if stdDev == 0 {
		return nil
	}

	periodicRiskFree := riskFreeRate / float64(periodsPerYear)
	sharpe := (Mean(returns) - periodicRiskFree) / stdDev

	annualized := sharpe * math.Sqrt(float64(periodsPerYear))
	return &annualized
}

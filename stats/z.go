package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ZVal returns the two-tailed Z-value associated with a specific confidence interval.
// The interval is a number from 0 to 100 percent.
func ZVal(confidenceInterval float64) float64 {
	dist := distuv.Normal{
		Mu:    0,
		Sigma: 1,
	}
	area := (1 + (confidenceInterval / 100)) / 2
	zValue := dist.Quantile(area)
	return zValue
}

// ZScore returns the two-sample z statistic for the difference of the
// means of a and b. It is zero when either side lacks the data for a
// standard error.
func ZScore(a, b *Statistic) float64 {
	sea := a.StandardError()
	seb := b.StandardError()
	denom := math.Sqrt(sea*sea + seb*seb)
	if denom == 0 {
		return 0.0
	}
	return (a.Mean() - b.Mean()) / denom
}

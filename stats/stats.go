package stats

import "math"

const (
	Epsilon = 1e-6
)

func FuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Statistic accumulates a running mean and variance with Welford's
// algorithm, along with the extremes. The zero value is ready to use.
type Statistic struct {
	n    int
	mean float64
	m2   float64

	last float64
	min  float64
	max  float64
}

func (s *Statistic) Push(val float64) {
	s.last = val
	s.n++
	if s.n == 1 {
		s.mean = val
		s.min = val
		s.max = val
		return
	}
	delta := val - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (val - s.mean)
	if val < s.min {
		s.min = val
	}
	if val > s.max {
		s.max = val
	}
}

func (s *Statistic) Mean() float64 {
	if s.n == 0 {
		return 0.0
	}
	return s.mean
}

// Variance returns the sample variance.
func (s *Statistic) Variance() float64 {
	if s.n <= 1 {
		return 0.0
	}
	return s.m2 / float64(s.n-1)
}

func (s *Statistic) Stdev() float64 {
	return math.Sqrt(s.Variance())
}

// StandardError returns the standard error of the mean.
func (s *Statistic) StandardError() float64 {
	if s.n == 0 {
		return 0.0
	}
	return math.Sqrt(s.Variance() / float64(s.n))
}

func (s *Statistic) Last() float64 {
	return s.last
}

func (s *Statistic) Min() float64 {
	if s.n == 0 {
		return 0.0
	}
	return s.min
}

func (s *Statistic) Max() float64 {
	if s.n == 0 {
		return 0.0
	}
	return s.max
}

func (s *Statistic) Iterations() int {
	return s.n
}

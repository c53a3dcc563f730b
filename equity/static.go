package equity

import (
	"github.com/setpieces/tetryon/game"
	"github.com/setpieces/tetryon/move"
)

// StaticCalculator scores a placement as the dot product of its feature
// vector with a fixed weight set. It is stateless after construction and
// safe for concurrent use.
type StaticCalculator struct {
	weights Weights
}

// NewStaticCalculator validates the weights up front; a missing or
// non-finite weight is a construction error, never a silent zero at search
// time.
func NewStaticCalculator(w Weights) (*StaticCalculator, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &StaticCalculator{weights: w.Clone()}, nil
}

// Weights returns the calculator's weight set. Callers must not mutate it.
func (sc *StaticCalculator) Weights() Weights { return sc.weights }

func (sc *StaticCalculator) Equity(play *move.Move, pl *game.Placement) float64 {
	return Extract(pl).Dot(sc.weights)
}

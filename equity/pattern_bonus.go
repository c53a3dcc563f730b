package equity

import (
	"github.com/setpieces/tetryon/game"
	"github.com/setpieces/tetryon/move"
	"github.com/setpieces/tetryon/patterns"
)

// PatternBonusCalculator rewards placements that move the board toward a
// known setup template. The bonus is the best template's attack value
// scaled by its feasibility confidence, and only boards showing actual
// overlap with a template earn anything, so idle boards stay neutral.
type PatternBonusCalculator struct {
	lib    *patterns.Library
	tuning patterns.EstimatorTuning
}

// NewPatternBonusCalculator shares the given library; templates added to it
// later are picked up automatically.
func NewPatternBonusCalculator(lib *patterns.Library, tuning patterns.EstimatorTuning) *PatternBonusCalculator {
	return &PatternBonusCalculator{lib: lib, tuning: tuning}
}

func (pb *PatternBonusCalculator) Equity(play *move.Move, pl *game.Placement) float64 {
	pos := pl.Position
	b := pos.Board()
	best := 0.0
	for _, t := range pb.lib.All() {
		if t.Width != b.Width() {
			continue
		}
		if t.OverlapCells(b) <= 0 {
			continue
		}
		f := patterns.CheckFeasibility(pos, t, pb.tuning)
		if !f.Possible {
			continue
		}
		if v := t.AttackValue * f.Confidence; v > best {
			best = v
		}
	}
	return best
}

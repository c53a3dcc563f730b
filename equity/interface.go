package equity

import (
	"github.com/setpieces/tetryon/game"
	"github.com/setpieces/tetryon/move"
)

// EquityCalculator is a calculator of equity.
type EquityCalculator interface {
	// Equity values one placement outcome. Calculators see the move and
	// the full placement result (successor position, landing row, lines
	// cleared) and return an additive contribution; a position's value is
	// the sum across the configured calculators.
	Equity(play *move.Move, pl *game.Placement) float64
}

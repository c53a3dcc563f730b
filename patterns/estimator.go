package patterns

import (
	"fmt"

	"github.com/setpieces/tetryon/game"
	"github.com/setpieces/tetryon/piece"
)

// EstimatorTuning shapes how raw template success rates turn into
// confidence numbers.
type EstimatorTuning struct {
	// EarlyPieceBonus is indexed by where the template's required piece
	// sits: 0 for in-hand (current or held), 1 for next in queue, and so
	// on. Positions past the end earn nothing.
	EarlyPieceBonus []float64
	// CellRatioWeight scales the bonus for having spare pieces beyond the
	// bare minimum needed to fill the pattern.
	CellRatioWeight float64
	// MinConfidence floors every "possible" verdict.
	MinConfidence float64
}

// DefaultTuning returns the stock estimator shape.
func DefaultTuning() EstimatorTuning {
	return EstimatorTuning{
		EarlyPieceBonus: []float64{0.25, 0.2, 0.15, 0.1, 0.05},
		CellRatioWeight: 0.3,
		MinConfidence:   0.01,
	}
}

// Feasibility is the estimator's verdict on one template.
type Feasibility struct {
	Possible   bool
	Confidence float64
	Reason     string
}

// CheckFeasibility decides cheaply whether a template is still reachable
// from the position, without any search. Impossible verdicts carry
// confidence exactly 0 and a reason; possible ones carry a confidence in
// [MinConfidence, 1].
func CheckFeasibility(pos game.Position, t *Template, tuning EstimatorTuning) Feasibility {
	b := pos.Board()
	if b.Width() != t.Width {
		return Feasibility{Reason: fmt.Sprintf("template drawn for width %d, board is %d", t.Width, b.Width())}
	}
	holdSatisfied := t.HoldPiece == piece.None || pos.Hold() == t.HoldPiece
	if t.Matches(b) && holdSatisfied {
		return Feasibility{Possible: true, Confidence: 1.0, Reason: "already satisfied"}
	}
	if n := t.Violations(b); n > 0 {
		return Feasibility{Reason: fmt.Sprintf("%d filled cells sit where the pattern needs empty space", n)}
	}
	if b.HasCoveredHole() {
		return Feasibility{Reason: "board has an irreversible covered hole"}
	}
	pieceIdx := -1
	if t.HoldPiece != piece.None {
		pieceIdx = requiredPieceIndex(pos, t.HoldPiece)
		if pieceIdx < 0 {
			return Feasibility{Reason: fmt.Sprintf("required piece %v is not in hand or queue", t.HoldPiece)}
		}
	}
	missing := t.MissingCells(b)
	avail := 4 * pos.PiecesAvailable()
	if avail < missing {
		return Feasibility{Reason: fmt.Sprintf("%d cells still needed but only %d piece cells remain", missing, avail)}
	}

	conf := t.SuccessRate
	if pieceIdx >= 0 && pieceIdx < len(tuning.EarlyPieceBonus) {
		conf += tuning.EarlyPieceBonus[pieceIdx]
	}
	ratio := 2.0
	if missing > 0 {
		ratio = float64(avail) / float64(missing)
		if ratio > 2 {
			ratio = 2
		}
	}
	conf += tuning.CellRatioWeight * (ratio - 1)
	if conf > 1 {
		conf = 1
	}
	if conf < tuning.MinConfidence {
		conf = tuning.MinConfidence
	}
	return Feasibility{Possible: true, Confidence: conf}
}

// requiredPieceIndex locates the required piece: 0 when it is in hand
// (current or held), i+1 when it is queue entry i, -1 when absent.
func requiredPieceIndex(pos game.Position, want piece.Piece) int {
	if pos.Current() == want || pos.Hold() == want {
		return 0
	}
	for i, p := range pos.Queue() {
		if p == want {
			return i + 1
		}
	}
	return -1
}

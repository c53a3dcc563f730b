// Package movegen contains all the move-generating functions. It enumerates
// every distinct hard-drop placement of a piece under the standard rotation
// system, with the input action sequence that reaches each one.
package movegen

import (
	"sort"

	"github.com/setpieces/tetryon/board"
	"github.com/setpieces/tetryon/game"
	"github.com/setpieces/tetryon/move"
	"github.com/setpieces/tetryon/piece"
)

// SortBy encodes the generator's sorting behavior.
type SortBy int

const (
	// SortByEstimated orders plays by their cheap ordering estimate, deeper
	// landings first. The searches re-rank by real equity afterwards.
	SortByEstimated SortBy = iota
	// SortByNone leaves plays in generation order.
	SortByNone
)

// Generator enumerates placements. It is cheap to construct and may be
// reused across calls; it is not safe for concurrent use.
type Generator struct {
	sortingParameter SortBy
	plays            []*move.Move
}

// NewGenerator creates a Generator that sorts by the ordering estimate.
func NewGenerator() *Generator {
	return &Generator{sortingParameter: SortByEstimated}
}

// SetSortingParameter tells the play generator to sort the plays by a
// given interpretation of their value, or not at all.
func (g *Generator) SetSortingParameter(s SortBy) { g.sortingParameter = s }

// Plays returns the plays from the last generation call. The slice is
// reused on the next call.
func (g *Generator) Plays() []*move.Move { return g.plays }

// rotationActions maps a distinct-rotation index onto the input actions
// that reach it. Index 3 needs a half turn plus one clockwise turn since
// there is no counter-clockwise input.
var rotationActions = [piece.NumRotations][]move.Action{
	{},
	{move.RotateCW},
	{move.Rotate180},
	{move.Rotate180, move.RotateCW},
}

// GenAll generates every distinct placement for the position's current
// piece and, when withHold is set and the position still allows holding,
// for the hold swap as well. Hold moves carry a leading hold action.
// Plays come back sorted per the sorting parameter.
func (g *Generator) GenAll(pos game.Position, withHold bool) []*move.Move {
	g.plays = g.plays[:0]
	if pos.Current() == piece.None {
		return g.plays
	}
	g.genForPiece(pos.Board(), pos.Current(), pos.SpawnX(pos.Current()), false)
	if withHold && pos.CanHold() {
		if held, err := pos.WithHold(); err == nil && held.Current() != pos.Current() {
			g.genForPiece(pos.Board(), held.Current(), pos.SpawnX(held.Current()), true)
		}
	}
	if g.sortingParameter == SortByEstimated {
		sort.SliceStable(g.plays, func(i, j int) bool {
			return g.plays[i].EstimatedValue() > g.plays[j].EstimatedValue()
		})
	}
	return g.plays
}

// GenPlacements generates placements for one piece on a bare board with no
// hold handling, for callers that manage their own piece flow.
func (g *Generator) GenPlacements(b board.Board, pc piece.Piece) []*move.Move {
	g.plays = g.plays[:0]
	g.genForPiece(b, pc, (b.Width()-piece.ShapeOf(pc, piece.Spawn).Box())/2, false)
	if g.sortingParameter == SortByEstimated {
		sort.SliceStable(g.plays, func(i, j int) bool {
			return g.plays[i].EstimatedValue() > g.plays[j].EstimatedValue()
		})
	}
	return g.plays
}

func (g *Generator) genForPiece(b board.Board, pc piece.Piece, spawnX int, viaHold bool) {
	if pc == piece.None {
		return
	}
	states := spawnStates(b, pc, spawnX)
	for r := 0; r < piece.DistinctRotations(pc); r++ {
		st := states[r]
		if !st.ok {
			continue
		}
		shape := piece.ShapeOf(pc, st.rot)
		// walk left from the post-rotation column while the pose stays
		// clear, then right; a blocked column blocks everything past it
		for x := st.x; b.CanPlace(shape, x, st.y); x-- {
			g.recordDrop(b, shape, st, x, r, viaHold)
		}
		for x := st.x + 1; b.CanPlace(shape, x, st.y); x++ {
			g.recordDrop(b, shape, st, x, r, viaHold)
		}
	}
}

func (g *Generator) recordDrop(b board.Board, shape *piece.Shape, st rotState, x, rotIdx int, viaHold bool) {
	y, ok := b.DropRow(shape, x, st.y)
	if !ok {
		return
	}
	rotActs := rotationActions[rotIdx]
	n := len(rotActs) + 1
	steps := x - st.x
	if steps < 0 {
		steps = -steps
	}
	n += steps
	if viaHold {
		n++
	}
	actions := make([]move.Action, 0, n)
	if viaHold {
		actions = append(actions, move.Hold)
	}
	actions = append(actions, rotActs...)
	dir := move.MoveRight
	if x < st.x {
		dir = move.MoveLeft
	}
	for i := 0; i < steps; i++ {
		actions = append(actions, dir)
	}
	actions = append(actions, move.HardDrop)

	m := move.New(shape.Piece(), shape.Rotation(), x, y, actions)
	// deeper resting rows make better default ordering
	m.SetEstimatedValue(float64(y))
	g.plays = append(g.plays, m)
}

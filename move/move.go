// Package move defines a placement decision: which piece, in which rotation
// state, resting where, and the input actions that get it there. Moves are
// created by the generator and scored by equity calculators and searches.
package move

import (
	"fmt"
	"strings"

	"github.com/setpieces/tetryon/piece"
)

// Action is one atomic input in a move's action sequence.
type Action uint8

const (
	MoveLeft Action = iota
	MoveRight
	RotateCW
	Rotate180
	HardDrop
	Hold
)

func (a Action) String() string {
	switch a {
	case MoveLeft:
		return "left"
	case MoveRight:
		return "right"
	case RotateCW:
		return "cw"
	case Rotate180:
		return "180"
	case HardDrop:
		return "drop"
	case Hold:
		return "hold"
	}
	return fmt.Sprintf("Action(%d)", uint8(a))
}

// ParseAction inverts Action.String.
func ParseAction(s string) (Action, error) {
	switch s {
	case "left":
		return MoveLeft, nil
	case "right":
		return MoveRight, nil
	case "cw":
		return RotateCW, nil
	case "180":
		return Rotate180, nil
	case "drop":
		return HardDrop, nil
	case "hold":
		return Hold, nil
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// Move is a single placement. The x and y fields locate the shape's
// bounding box on the board; x may be negative when the shape's empty left
// columns hang past the wall. The equity and estimated-value fields are
// scratch space for calculators and search ordering, in the same spirit as
// a game-move valuation: they are not part of move identity.
type Move struct {
	piece    piece.Piece
	rotation piece.Rotation
	x        int8
	y        int8
	actions  []Action

	equity    float64
	estimated float64
}

// New creates a move. The action slice is retained, not copied.
func New(p piece.Piece, r piece.Rotation, x, y int, actions []Action) *Move {
	return &Move{piece: p, rotation: r, x: int8(x), y: int8(y), actions: actions}
}

func (m *Move) Piece() piece.Piece       { return m.piece }
func (m *Move) Rotation() piece.Rotation { return m.rotation }
func (m *Move) X() int                   { return int(m.x) }
func (m *Move) Y() int                   { return int(m.y) }
func (m *Move) Actions() []Action        { return m.actions }
func (m *Move) Shape() *piece.Shape      { return piece.ShapeOf(m.piece, m.rotation) }

// UsesHold reports whether the move starts by swapping in the held piece.
func (m *Move) UsesHold() bool {
	return len(m.actions) > 0 && m.actions[0] == Hold
}

// Equity returns the move's assigned value.
func (m *Move) Equity() float64 { return m.equity }

// SetEquity assigns the move's value. Only one goroutine may own a move.
func (m *Move) SetEquity(e float64) { m.equity = e }

// EstimatedValue returns the cheap ordering estimate used before real
// evaluation.
func (m *Move) EstimatedValue() float64 { return m.estimated }

// SetEstimatedValue assigns the ordering estimate.
func (m *Move) SetEstimatedValue(v float64) { m.estimated = v }

// AddEstimatedValue accumulates onto the ordering estimate.
func (m *Move) AddEstimatedValue(v float64) { m.estimated += v }

// SamePlacement reports whether two moves land the same piece in the same
// rotation state at the same spot, regardless of action path or valuation.
func (m *Move) SamePlacement(o *Move) bool {
	return m.piece == o.piece && m.rotation == o.rotation && m.x == o.x && m.y == o.y
}

// ShortDescription renders like "T/R x4 y18 (hold)", compact enough for
// search logs.
func (m *Move) ShortDescription() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%v/%v x%d y%d", m.piece, m.rotation, m.x, m.y)
	if m.UsesHold() {
		sb.WriteString(" (hold)")
	}
	return sb.String()
}

func (m *Move) String() string {
	acts := make([]string, len(m.actions))
	for i, a := range m.actions {
		acts[i] = a.String()
	}
	return fmt.Sprintf("<move %s actions:[%s] eq:%.3f>", m.ShortDescription(),
		strings.Join(acts, " "), m.equity)
}

// ActionStrings renders the action sequence for wire formats and the shell.
func (m *Move) ActionStrings() []string {
	out := make([]string, len(m.actions))
	for i, a := range m.actions {
		out[i] = a.String()
	}
	return out
}

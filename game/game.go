// Package game holds the position type shared by move generation and the
// searches: the board plus the piece context (current piece, preview queue,
// hold slot). Positions are values; applying a move yields a successor
// without touching the original, so search trees can share parents freely.
package game

import (
	"fmt"

	"github.com/setpieces/tetryon/board"
	"github.com/setpieces/tetryon/move"
	"github.com/setpieces/tetryon/piece"
)

// SpawnRow is the box row where every piece enters the field.
const SpawnRow = 0

// Position is a full decision state. The queue holds upcoming pieces in
// order; hold is piece.None when the slot is empty; canHold is false after
// the hold was used for the placement in progress.
type Position struct {
	board   board.Board
	current piece.Piece
	queue   []piece.Piece
	hold    piece.Piece
	canHold bool
}

// NewPosition assembles a position. The queue slice is retained and must
// not be mutated by the caller afterwards.
func NewPosition(b board.Board, current piece.Piece, queue []piece.Piece, hold piece.Piece, canHold bool) (Position, error) {
	if b.Width() == 0 {
		return Position{}, fmt.Errorf("position needs a constructed board")
	}
	if current == piece.None {
		return Position{}, fmt.Errorf("position needs a current piece")
	}
	return Position{board: b, current: current, queue: queue, hold: hold, canHold: canHold}, nil
}

func (p Position) Board() board.Board   { return p.board }
func (p Position) Current() piece.Piece { return p.current }
func (p Position) Hold() piece.Piece    { return p.hold }
func (p Position) CanHold() bool        { return p.canHold }

// Queue returns the upcoming pieces. Callers must not mutate the slice.
func (p Position) Queue() []piece.Piece { return p.queue }

// QueueLen returns how many pieces remain after the current one.
func (p Position) QueueLen() int { return len(p.queue) }

// PiecesAvailable counts the current piece plus the queue, the total the
// searches may still place.
func (p Position) PiecesAvailable() int {
	n := len(p.queue)
	if p.current != piece.None {
		n++
	}
	return n
}

// SpawnX returns the bounding-box column where a piece of p's type enters,
// centered the standard way: box column (width-box)/2.
func (p Position) SpawnX(pc piece.Piece) int {
	return (p.board.Width() - piece.ShapeOf(pc, piece.Spawn).Box()) / 2
}

// WithHold returns the position after a hold: the current piece swaps with
// the held one, or with the queue head when the slot is empty. It fails if
// the hold was already used this placement or there is nothing to swap in.
func (p Position) WithHold() (Position, error) {
	if !p.canHold {
		return Position{}, fmt.Errorf("hold already used this placement")
	}
	np := p
	np.canHold = false
	if p.hold != piece.None {
		np.current, np.hold = p.hold, p.current
		return np, nil
	}
	if len(p.queue) == 0 {
		return Position{}, fmt.Errorf("cannot hold with an empty queue and empty hold slot")
	}
	np.hold = p.current
	np.current = p.queue[0]
	np.queue = p.queue[1:]
	return np, nil
}

// advance moves the queue head into the current slot after a placement and
// re-arms the hold. current becomes piece.None when the queue runs dry.
func (p Position) advance() Position {
	np := p
	np.canHold = true
	if len(p.queue) > 0 {
		np.current = p.queue[0]
		np.queue = p.queue[1:]
	} else {
		np.current = piece.None
	}
	return np
}

// Placement is the outcome of applying one move.
type Placement struct {
	// Position is the successor state, after line clears and queue advance.
	Position Position
	// LandingRow is the board row of the placed shape's lowest filled cell,
	// before any rows cleared.
	LandingRow int
	// LinesCleared counts the rows removed by this placement.
	LinesCleared int
}

// LandingHeight returns how many rows above the floor the piece's lowest
// cell came to rest; 0 means it sits on the floor.
func (pl Placement) LandingHeight() int {
	return pl.Position.Board().Height() - 1 - pl.LandingRow
}

// ApplyMove plays a generated move on the position: optional hold swap,
// place the shape, clear full rows, advance the queue. The move must play
// the piece the (possibly swapped) position has current.
func (p Position) ApplyMove(m *move.Move) (Placement, error) {
	pos := p
	if m.UsesHold() {
		var err error
		pos, err = pos.WithHold()
		if err != nil {
			return Placement{}, err
		}
	}
	if pos.current != m.Piece() {
		return Placement{}, fmt.Errorf("move places %v but current piece is %v", m.Piece(), pos.current)
	}
	shape := m.Shape()
	nb, err := pos.board.Place(shape, m.X(), m.Y())
	if err != nil {
		return Placement{}, err
	}
	_, maxRow := shape.RowSpan()
	landing := m.Y() + maxRow
	nb, cleared := nb.ClearFullRows()
	next := pos.advance()
	next.board = nb
	return Placement{Position: next, LandingRow: landing, LinesCleared: cleared}, nil
}

func (p Position) String() string {
	hold := "-"
	if p.hold != piece.None {
		hold = p.hold.String()
	}
	return fmt.Sprintf("<pos cur:%v queue:%s hold:%s canHold:%v h:%d>",
		p.current, piece.QueueString(p.queue), hold, p.canHold, p.board.MaxHeight())
}

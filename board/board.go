// Package board implements the playfield as one machine word per row. Bit c
// of a row is column c, row 0 is the top of the field. A Board is a value;
// mutating operations return a fresh Board and never touch the receiver's
// storage, so search code can fan out successor states without defensive
// copies.
package board

import (
	"fmt"
	"math/bits"

	"github.com/setpieces/tetryon/piece"
)

const (
	MinWidth  = 4
	MaxWidth  = 32
	MinHeight = 4
	MaxHeight = 64

	// StandardWidth and StandardHeight describe the usual guideline field:
	// ten columns, twenty visible rows plus HiddenRows spawn rows on top.
	StandardWidth  = 10
	StandardHeight = 22
	HiddenRows     = 2
)

// Board is a bit-packed playfield. The zero value is unusable; construct
// with New, FromRows or Parse.
type Board struct {
	rows  []uint64
	width int
}

// New returns an empty board of the given dimensions.
func New(width, height int) (Board, error) {
	if width < MinWidth || width > MaxWidth {
		return Board{}, fmt.Errorf("board width %d outside [%d, %d]", width, MinWidth, MaxWidth)
	}
	if height < MinHeight || height > MaxHeight {
		return Board{}, fmt.Errorf("board height %d outside [%d, %d]", height, MinHeight, MaxHeight)
	}
	return Board{rows: make([]uint64, height), width: width}, nil
}

// NewStandard returns an empty guideline-sized board.
func NewStandard() Board {
	b, _ := New(StandardWidth, StandardHeight)
	return b
}

// FromRows builds a board from raw row masks, top row first. Bits at or
// beyond width must be zero.
func FromRows(width int, rows []uint64) (Board, error) {
	b, err := New(width, len(rows))
	if err != nil {
		return Board{}, err
	}
	for y, r := range rows {
		if r&^b.FullMask() != 0 {
			return Board{}, fmt.Errorf("row %d has bits beyond column %d", y, width-1)
		}
		b.rows[y] = r
	}
	return b, nil
}

// Parse builds a board from a row-per-line drawing, top row first. 'X' and
// '#' mark filled cells, '.' and ' ' empty ones. All lines must share one
// width. Handy in tests and for the shell's load command.
func Parse(lines []string) (Board, error) {
	if len(lines) == 0 {
		return Board{}, fmt.Errorf("no rows to parse")
	}
	b, err := New(len(lines[0]), len(lines))
	if err != nil {
		return Board{}, err
	}
	for y, line := range lines {
		if len(line) != b.width {
			return Board{}, fmt.Errorf("row %d is %d wide, want %d", y, len(line), b.width)
		}
		for x := 0; x < len(line); x++ {
			switch line[x] {
			case 'X', '#':
				b.rows[y] |= 1 << uint(x)
			case '.', ' ':
			default:
				return Board{}, fmt.Errorf("row %d: unknown cell %q", y, string(line[x]))
			}
		}
	}
	return b, nil
}

// Width returns the number of columns.
func (b Board) Width() int { return b.width }

// Height returns the number of rows, hidden spawn rows included.
func (b Board) Height() int { return len(b.rows) }

// FullMask returns the mask with every in-range column bit set.
func (b Board) FullMask() uint64 { return (1 << uint(b.width)) - 1 }

// Row returns the bitmask for row y. Out-of-range rows read as fully
// occupied, matching IsOccupied.
func (b Board) Row(y int) uint64 {
	if y < 0 || y >= len(b.rows) {
		return b.FullMask()
	}
	return b.rows[y]
}

// IsOccupied reports whether the cell at column x, row y is filled.
// Anything out of range counts as occupied, so walls and floor need no
// special casing in collision code.
func (b Board) IsOccupied(x, y int) bool {
	if x < 0 || x >= b.width || y < 0 || y >= len(b.rows) {
		return true
	}
	return b.rows[y]&(1<<uint(x)) != 0
}

// IsRowFull reports whether every cell of an in-range row is filled.
func (b Board) IsRowFull(y int) bool {
	if y < 0 || y >= len(b.rows) {
		return false
	}
	return b.rows[y] == b.FullMask()
}

// IsRowEmpty reports whether an in-range row has no filled cells.
func (b Board) IsRowEmpty(y int) bool {
	if y < 0 || y >= len(b.rows) {
		return false
	}
	return b.rows[y] == 0
}

func (b Board) clone() Board {
	rows := make([]uint64, len(b.rows))
	copy(rows, b.rows)
	return Board{rows: rows, width: b.width}
}

// SetCell returns a board with the cell at (x, y) filled. Mutating out of
// range is an error, unlike reads.
func (b Board) SetCell(x, y int) (Board, error) {
	if x < 0 || x >= b.width || y < 0 || y >= len(b.rows) {
		return Board{}, fmt.Errorf("cell (%d, %d) out of range on %dx%d board", x, y, b.width, len(b.rows))
	}
	nb := b.clone()
	nb.rows[y] |= 1 << uint(x)
	return nb, nil
}

// ClearCell returns a board with the cell at (x, y) emptied.
func (b Board) ClearCell(x, y int) (Board, error) {
	if x < 0 || x >= b.width || y < 0 || y >= len(b.rows) {
		return Board{}, fmt.Errorf("cell (%d, %d) out of range on %dx%d board", x, y, b.width, len(b.rows))
	}
	nb := b.clone()
	nb.rows[y] &^= 1 << uint(x)
	return nb, nil
}

// shiftedRow places a shape row mask at column offset x. ok is false when a
// filled bit would land outside the walls.
func (b Board) shiftedRow(m uint16, x int) (uint64, bool) {
	if m == 0 {
		return 0, true
	}
	if x <= -64 || x >= 64 {
		return 0, false
	}
	var sm uint64
	if x >= 0 {
		sm = uint64(m) << uint(x)
	} else {
		if uint64(m)&((1<<uint(-x))-1) != 0 {
			return 0, false
		}
		sm = uint64(m) >> uint(-x)
	}
	if sm&^b.FullMask() != 0 {
		return 0, false
	}
	return sm, true
}

// CanPlace reports whether the shape fits with its bounding box at column x,
// row y: every filled cell in range and empty. x and y may be negative as
// long as the filled cells stay inside.
func (b Board) CanPlace(s *piece.Shape, x, y int) bool {
	for r := 0; r < s.Box(); r++ {
		m := s.Row(r)
		if m == 0 {
			continue
		}
		sm, ok := b.shiftedRow(m, x)
		if !ok {
			return false
		}
		ay := y + r
		if ay < 0 || ay >= len(b.rows) {
			return false
		}
		if b.rows[ay]&sm != 0 {
			return false
		}
	}
	return true
}

// Place returns a board with the shape's cells filled at (x, y). It fails
// if the shape does not fit there.
func (b Board) Place(s *piece.Shape, x, y int) (Board, error) {
	if !b.CanPlace(s, x, y) {
		return Board{}, fmt.Errorf("cannot place %v/%v at (%d, %d)", s.Piece(), s.Rotation(), x, y)
	}
	nb := b.clone()
	for r := 0; r < s.Box(); r++ {
		m := s.Row(r)
		if m == 0 {
			continue
		}
		sm, _ := b.shiftedRow(m, x)
		nb.rows[y+r] |= sm
	}
	return nb, nil
}

// DropRow simulates a hard drop of the shape at column offset x starting
// from box row fromY: it descends one row at a time and returns the last
// collision-free row. ok is false when even the starting row collides.
func (b Board) DropRow(s *piece.Shape, x, fromY int) (y int, ok bool) {
	if !b.CanPlace(s, x, fromY) {
		return 0, false
	}
	y = fromY
	for b.CanPlace(s, x, y+1) {
		y++
	}
	return y, true
}

// ClearFullRows removes every completely filled row and drops the rows
// above it, keeping the surviving rows' order. It returns the new board and
// the number of rows removed. A board with no full rows comes back equal.
func (b Board) ClearFullRows() (Board, int) {
	full := b.FullMask()
	cleared := 0
	for _, r := range b.rows {
		if r == full {
			cleared++
		}
	}
	if cleared == 0 {
		return b, 0
	}
	rows := make([]uint64, len(b.rows))
	w := len(b.rows) - 1
	for y := len(b.rows) - 1; y >= 0; y-- {
		if b.rows[y] == full {
			continue
		}
		rows[w] = b.rows[y]
		w--
	}
	return Board{rows: rows, width: b.width}, cleared
}

// ClearRows removes the given rows whether or not they are full. The
// surviving rows keep their relative order, packed to the bottom, and the
// vacated top rows read as empty. Out-of-range and repeated row indexes
// are errors.
func (b Board) ClearRows(clear []int) (Board, error) {
	drop := make(map[int]bool, len(clear))
	for _, y := range clear {
		if y < 0 || y >= len(b.rows) {
			return Board{}, fmt.Errorf("row %d out of range on %d-row board", y, len(b.rows))
		}
		if drop[y] {
			return Board{}, fmt.Errorf("row %d listed twice", y)
		}
		drop[y] = true
	}
	if len(drop) == 0 {
		return b.clone(), nil
	}
	rows := make([]uint64, len(b.rows))
	w := len(b.rows) - 1
	for y := len(b.rows) - 1; y >= 0; y-- {
		if drop[y] {
			continue
		}
		rows[w] = b.rows[y]
		w--
	}
	return Board{rows: rows, width: b.width}, nil
}

// ResolveRotation turns a piece at bounding-box position (x, y) from one
// rotation state to an adjacent one, testing the target shape at each
// wall-kick offset in table order. It returns the kicked position of the
// first offset that fits; ok is false when every offset collides, which is
// a failed rotation, not an error.
func (b Board) ResolveRotation(pc piece.Piece, from, to piece.Rotation, x, y int) (nx, ny int, ok bool) {
	shape := piece.ShapeOf(pc, to)
	for _, k := range piece.Kicks(pc, from, to) {
		nx, ny = x+int(k.DX), y+int(k.DY)
		if b.CanPlace(shape, nx, ny) {
			return nx, ny, true
		}
	}
	return 0, 0, false
}

// ColumnHeights returns, per column, the stack height measured from the
// floor: an empty column is 0, a column whose topmost filled cell is row y
// has height Height()-y.
func (b Board) ColumnHeights() []int {
	heights := make([]int, b.width)
	var seen uint64
	full := b.FullMask()
	for y := 0; y < len(b.rows) && seen != full; y++ {
		fresh := b.rows[y] &^ seen
		for m := fresh; m != 0; m &= m - 1 {
			heights[bits.TrailingZeros64(m)] = len(b.rows) - y
		}
		seen |= b.rows[y]
	}
	return heights
}

// MaxHeight returns the tallest column's height, 0 for an empty board.
func (b Board) MaxHeight() int {
	for y := 0; y < len(b.rows); y++ {
		if b.rows[y] != 0 {
			return len(b.rows) - y
		}
	}
	return 0
}

// CountCells returns the total number of filled cells.
func (b Board) CountCells() int {
	n := 0
	for _, r := range b.rows {
		n += bits.OnesCount64(r)
	}
	return n
}

// HasCoveredHole reports whether any empty cell sits directly below a
// filled cell in the same column anywhere on the board.
func (b Board) HasCoveredHole() bool {
	var covered uint64
	for y := 0; y < len(b.rows); y++ {
		if covered&^b.rows[y] != 0 {
			return true
		}
		covered |= b.rows[y]
	}
	return false
}

// Equal reports whether two boards have identical dimensions and cells.
func (b Board) Equal(o Board) bool {
	if b.width != o.width || len(b.rows) != len(o.rows) {
		return false
	}
	for y := range b.rows {
		if b.rows[y] != o.rows[y] {
			return false
		}
	}
	return true
}

package piece

import "fmt"

// Rotation is a rotation state in the standard system: 0 is spawn, 1 is one
// clockwise turn, 2 is a half turn, 3 is one counter-clockwise turn.
type Rotation uint8

const (
	Spawn Rotation = iota
	Right
	Half
	Left
)

// NumRotations is the full rotation cycle length. Every piece carries four
// rotation states even when some of them land identically.
const NumRotations = 4

func (r Rotation) String() string {
	switch r {
	case Spawn:
		return "0"
	case Right:
		return "R"
	case Half:
		return "2"
	case Left:
		return "L"
	}
	return fmt.Sprintf("Rotation(%d)", uint8(r))
}

// CW returns the state one clockwise turn later.
func (r Rotation) CW() Rotation { return (r + 1) & 3 }

// CCW returns the state one counter-clockwise turn later.
func (r Rotation) CCW() Rotation { return (r + 3) & 3 }

// Cell is a filled cell inside a shape's bounding box, row 0 at the top.
type Cell struct {
	Row, Col int8
}

// Shape is one piece in one rotation state, expressed inside its bounding
// box. Row masks use bit c for column c so a shape row can be ANDed against
// a board row after a shift. Shapes are built once at init and shared.
type Shape struct {
	piece    Piece
	rotation Rotation
	box      int8
	rows     [4]uint16
	cells    []Cell
	minRow   int8
	maxRow   int8
	minCol   int8
	maxCol   int8
}

// Piece returns the piece type this shape belongs to.
func (s *Shape) Piece() Piece { return s.piece }

// Rotation returns the rotation state this shape represents.
func (s *Shape) Rotation() Rotation { return s.rotation }

// Box returns the bounding box dimension (3 for everything but I, 4 for I).
func (s *Shape) Box() int { return int(s.box) }

// Row returns the bitmask of filled cells in box row r.
func (s *Shape) Row(r int) uint16 { return s.rows[r] }

// Cells returns the four filled cells in row-major order. Callers must not
// mutate the returned slice.
func (s *Shape) Cells() []Cell { return s.cells }

// ColSpan returns the first and last box columns containing a filled cell.
func (s *Shape) ColSpan() (min, max int) { return int(s.minCol), int(s.maxCol) }

// RowSpan returns the first and last box rows containing a filled cell.
func (s *Shape) RowSpan() (min, max int) { return int(s.minRow), int(s.maxRow) }

// Height returns the number of box rows the filled cells span.
func (s *Shape) Height() int { return int(s.maxRow-s.minRow) + 1 }

// Width returns the number of box columns the filled cells span.
func (s *Shape) Width() int { return int(s.maxCol-s.minCol) + 1 }

// shapeSpecs draws every rotation state as it sits inside its bounding box,
// following the standard rotation system's conventions. The spawn state is
// flat-side-down for S and Z and points up for T, J and L; the vertical I
// uses box column 2 after a clockwise turn and column 1 after a
// counter-clockwise turn. Kick tables assume exactly these placements, so
// do not "simplify" rows here.
var shapeSpecs = map[Piece][NumRotations][]string{
	I: {
		{`....`, `XXXX`, `....`, `....`},
		{`..X.`, `..X.`, `..X.`, `..X.`},
		{`....`, `....`, `XXXX`, `....`},
		{`.X..`, `.X..`, `.X..`, `.X..`},
	},
	J: {
		{`X..`, `XXX`, `...`},
		{`.XX`, `.X.`, `.X.`},
		{`...`, `XXX`, `..X`},
		{`.X.`, `.X.`, `XX.`},
	},
	L: {
		{`..X`, `XXX`, `...`},
		{`.X.`, `.X.`, `.XX`},
		{`...`, `XXX`, `X..`},
		{`XX.`, `.X.`, `.X.`},
	},
	O: {
		{`.XX`, `.XX`, `...`},
		{`.XX`, `.XX`, `...`},
		{`.XX`, `.XX`, `...`},
		{`.XX`, `.XX`, `...`},
	},
	S: {
		{`.XX`, `XX.`, `...`},
		{`.X.`, `.XX`, `..X`},
		{`...`, `.XX`, `XX.`},
		{`X..`, `XX.`, `.X.`},
	},
	T: {
		{`.X.`, `XXX`, `...`},
		{`.X.`, `.XX`, `.X.`},
		{`...`, `XXX`, `.X.`},
		{`.X.`, `XX.`, `.X.`},
	},
	Z: {
		{`XX.`, `.XX`, `...`},
		{`..X`, `.XX`, `.X.`},
		{`...`, `XX.`, `.XX`},
		{`.X.`, `XX.`, `X..`},
	},
}

// distinctRotations counts rotation states that produce distinct landings.
// O lands the same way in all four states, I, S and Z repeat after two.
// Move generation only needs to enumerate this many states per piece.
var distinctRotations = [NumPieces + 1]uint8{None: 1, I: 2, J: 4, L: 4, O: 1, S: 2, T: 4, Z: 2}

// DistinctRotations returns how many rotation states of p land distinctly.
func DistinctRotations(p Piece) int {
	if p > Z {
		return 1
	}
	return int(distinctRotations[p])
}

var shapes [NumPieces + 1][NumRotations]Shape

func init() {
	for p, specs := range shapeSpecs {
		for r := Rotation(0); r < NumRotations; r++ {
			shapes[p][r] = parseShape(p, r, specs[r])
		}
	}
}

func parseShape(p Piece, r Rotation, grid []string) Shape {
	s := Shape{
		piece:    p,
		rotation: r,
		box:      int8(len(grid)),
		minRow:   int8(len(grid)),
		minCol:   int8(len(grid)),
	}
	for row, line := range grid {
		if len(line) != len(grid) {
			panic(fmt.Sprintf("shape spec for %v/%v is not square", p, r))
		}
		for col := 0; col < len(line); col++ {
			if line[col] != 'X' {
				continue
			}
			s.rows[row] |= 1 << col
			s.cells = append(s.cells, Cell{Row: int8(row), Col: int8(col)})
			if int8(row) < s.minRow {
				s.minRow = int8(row)
			}
			if int8(row) > s.maxRow {
				s.maxRow = int8(row)
			}
			if int8(col) < s.minCol {
				s.minCol = int8(col)
			}
			if int8(col) > s.maxCol {
				s.maxCol = int8(col)
			}
		}
	}
	if len(s.cells) != 4 {
		panic(fmt.Sprintf("shape spec for %v/%v has %d cells", p, r, len(s.cells)))
	}
	return s
}

// ShapeOf returns the shared shape for a piece in a rotation state. It
// panics on None since there is nothing to draw.
func ShapeOf(p Piece, r Rotation) *Shape {
	if p == None || p > Z {
		panic(fmt.Sprintf("no shape for %v", p))
	}
	return &shapes[p][r&3]
}

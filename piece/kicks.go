package piece

// Offset is a wall-kick translation. DX is positive rightward. DY is
// positive DOWNWARD, matching board row order, so entries here carry the
// opposite vertical sign from guideline tables written with y pointing up.
type Offset struct {
	DX, DY int8
}

// The standard system defines one kick table for J, L, S, T and Z and a
// separate one for I; O never kicks. Each directed rotation pair tests five
// offsets in order and the first collision-free one wins. Indexing is by
// the source rotation state.

var kicksJLSTZCW = [NumRotations][5]Offset{
	Spawn: {{0, 0}, {-1, 0}, {-1, -1}, {0, 2}, {-1, 2}},
	Right: {{0, 0}, {1, 0}, {1, 1}, {0, -2}, {1, -2}},
	Half:  {{0, 0}, {1, 0}, {1, -1}, {0, 2}, {1, 2}},
	Left:  {{0, 0}, {-1, 0}, {-1, 1}, {0, -2}, {-1, -2}},
}

var kicksJLSTZCCW = [NumRotations][5]Offset{
	Spawn: {{0, 0}, {1, 0}, {1, -1}, {0, 2}, {1, 2}},
	Right: {{0, 0}, {1, 0}, {1, 1}, {0, -2}, {1, -2}},
	Half:  {{0, 0}, {-1, 0}, {-1, -1}, {0, 2}, {-1, 2}},
	Left:  {{0, 0}, {-1, 0}, {-1, 1}, {0, -2}, {-1, -2}},
}

var kicksICW = [NumRotations][5]Offset{
	Spawn: {{0, 0}, {-2, 0}, {1, 0}, {-2, 1}, {1, -2}},
	Right: {{0, 0}, {-1, 0}, {2, 0}, {-1, -2}, {2, 1}},
	Half:  {{0, 0}, {2, 0}, {-1, 0}, {2, -1}, {-1, 2}},
	Left:  {{0, 0}, {1, 0}, {-2, 0}, {1, 2}, {-2, -1}},
}

var kicksICCW = [NumRotations][5]Offset{
	Spawn: {{0, 0}, {-1, 0}, {2, 0}, {-1, -2}, {2, 1}},
	Right: {{0, 0}, {2, 0}, {-1, 0}, {2, -1}, {-1, 2}},
	Half:  {{0, 0}, {1, 0}, {-2, 0}, {1, 2}, {-2, -1}},
	Left:  {{0, 0}, {-2, 0}, {1, 0}, {-2, 1}, {1, -2}},
}

var kicksNone = [1]Offset{{0, 0}}

// Kicks returns the ordered offset list to test when rotating p from one
// state to an adjacent one. Half-turn pairs are not kicked directly; a half
// turn is performed as two chained clockwise turns, each resolved through
// this table. O pieces get the single zero offset.
func Kicks(p Piece, from, to Rotation) []Offset {
	if p == O || p == None {
		return kicksNone[:]
	}
	cw := to == from.CW()
	if !cw && to != from.CCW() {
		return kicksNone[:]
	}
	if p == I {
		if cw {
			return kicksICW[from&3][:]
		}
		return kicksICCW[from&3][:]
	}
	if cw {
		return kicksJLSTZCW[from&3][:]
	}
	return kicksJLSTZCCW[from&3][:]
}

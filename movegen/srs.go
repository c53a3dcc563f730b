package movegen

import (
	"github.com/setpieces/tetryon/board"
	"github.com/setpieces/tetryon/piece"
)

// rotState is a piece's pose after resolving rotations from spawn: the
// rotation state, the bounding-box position it ended up at after kicks, and
// whether the pose is reachable at all.
type rotState struct {
	rot piece.Rotation
	x   int
	y   int
	ok  bool
}

// rotateCW resolves one clockwise turn from a pose through the wall-kick
// tables, keeping the first collision-free offset.
func rotateCW(b board.Board, pc piece.Piece, from rotState) rotState {
	to := from.rot.CW()
	nx, ny, ok := b.ResolveRotation(pc, from.rot, to, from.x, from.y)
	if !ok {
		return rotState{rot: to, ok: false}
	}
	return rotState{rot: to, x: nx, y: ny, ok: true}
}

// spawnStates resolves all four rotation states reachable from the spawn
// pose. With no counter-clockwise input, state 1 is one clockwise turn,
// state 2 a half turn performed as two chained clockwise turns, and state 3
// a half turn followed by one more clockwise turn. Each link in the chain
// must itself be collision-free, so a blocked intermediate state blocks
// everything past it.
func spawnStates(b board.Board, pc piece.Piece, spawnX int) [piece.NumRotations]rotState {
	var states [piece.NumRotations]rotState
	states[piece.Spawn] = rotState{
		rot: piece.Spawn,
		x:   spawnX,
		y:   0,
		ok:  b.CanPlace(piece.ShapeOf(pc, piece.Spawn), spawnX, 0),
	}
	for r := 1; r < piece.NumRotations; r++ {
		prev := states[r-1]
		if !prev.ok {
			states[r] = rotState{rot: piece.Rotation(r), ok: false}
			continue
		}
		states[r] = rotateCW(b, pc, prev)
	}
	return states
}

package movegen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/setpieces/tetryon/board"
	"github.com/setpieces/tetryon/game"
	"github.com/setpieces/tetryon/move"
	"github.com/setpieces/tetryon/piece"
)

func newPosition(t *testing.T, cur piece.Piece, queue []piece.Piece, hold piece.Piece, canHold bool) game.Position {
	t.Helper()
	pos, err := game.NewPosition(board.NewStandard(), cur, queue, hold, canHold)
	if err != nil {
		t.Fatal(err)
	}
	return pos
}

func TestGenAllCountsOnEmptyBoard(t *testing.T) {
	// the well-known distinct placement counts for a ten-wide field
	counts := map[piece.Piece]int{
		piece.I: 17,
		piece.J: 34,
		piece.L: 34,
		piece.O: 9,
		piece.S: 17,
		piece.T: 34,
		piece.Z: 17,
	}
	gen := NewGenerator()
	for pc, want := range counts {
		pos := newPosition(t, pc, nil, piece.None, false)
		plays := gen.GenAll(pos, false)
		assert.Equal(t, want, len(plays), "placements for %v", pc)
		for _, m := range plays {
			assert.Equal(t, pc, m.Piece())
			assert.False(t, m.UsesHold())
		}
	}
}

func TestNoDuplicatePlacements(t *testing.T) {
	gen := NewGenerator()
	for _, pc := range piece.All {
		pos := newPosition(t, pc, nil, piece.None, false)
		plays := gen.GenAll(pos, false)
		for i := 0; i < len(plays); i++ {
			for j := i + 1; j < len(plays); j++ {
				assert.False(t, plays[i].SamePlacement(plays[j]),
					"%v duplicates %v", plays[i], plays[j])
			}
		}
	}
}

func TestActionSequences(t *testing.T) {
	gen := NewGenerator()
	pos := newPosition(t, piece.T, nil, piece.None, false)
	plays := gen.GenAll(pos, false)
	for _, m := range plays {
		acts := m.Actions()
		assert.NotEmpty(t, acts)
		assert.Equal(t, move.HardDrop, acts[len(acts)-1])
		// count sideways steps and compare against the offset from the
		// spawn-resolved column, which is 3 on an empty standard board
		lefts, rights := 0, 0
		for _, a := range acts {
			switch a {
			case move.MoveLeft:
				lefts++
			case move.MoveRight:
				rights++
			}
		}
		if m.X() < 3 {
			assert.Equal(t, 3-m.X(), lefts, "move %v", m)
			assert.Zero(t, rights)
		} else {
			assert.Equal(t, m.X()-3, rights, "move %v", m)
			assert.Zero(t, lefts)
		}
		switch m.Rotation() {
		case piece.Spawn:
			assert.NotContains(t, acts, move.RotateCW)
			assert.NotContains(t, acts, move.Rotate180)
		case piece.Right:
			assert.Equal(t, move.RotateCW, acts[0])
		case piece.Half:
			assert.Equal(t, move.Rotate180, acts[0])
		case piece.Left:
			assert.Equal(t, []move.Action{move.Rotate180, move.RotateCW}, acts[0:2])
		}
	}
}

func TestRestingRowsOnEmptyBoard(t *testing.T) {
	gen := NewGenerator()
	pos := newPosition(t, piece.O, nil, piece.None, false)
	for _, m := range gen.GenAll(pos, false) {
		// O fills box rows 0-1, so at rest the box sits at row 20
		assert.Equal(t, 20, m.Y())
	}
}

func TestHoldGeneration(t *testing.T) {
	gen := NewGenerator()
	pos := newPosition(t, piece.O, nil, piece.I, true)
	plays := gen.GenAll(pos, true)
	oMoves, iMoves := 0, 0
	for _, m := range plays {
		switch m.Piece() {
		case piece.O:
			oMoves++
			assert.False(t, m.UsesHold())
		case piece.I:
			iMoves++
			assert.True(t, m.UsesHold())
			assert.Equal(t, move.Hold, m.Actions()[0])
		}
	}
	assert.Equal(t, 9, oMoves)
	assert.Equal(t, 17, iMoves)

	// holding disabled: only the current piece generates
	posNoHold := newPosition(t, piece.O, nil, piece.I, false)
	assert.Equal(t, 9, len(gen.GenAll(posNoHold, true)))

	// held piece same as current: the swap is pointless and skipped
	posSame := newPosition(t, piece.O, nil, piece.O, true)
	assert.Equal(t, 9, len(gen.GenAll(posSame, true)))
}

func TestHoldPullsFromQueue(t *testing.T) {
	gen := NewGenerator()
	pos := newPosition(t, piece.O, []piece.Piece{piece.T}, piece.None, true)
	plays := gen.GenAll(pos, true)
	// 9 for the O plus 34 for the T pulled in by the hold
	assert.Equal(t, 43, len(plays))
}

func TestWalledColumnsUnreachable(t *testing.T) {
	// a full-height wall in column 2 cuts off columns 0 and 1
	rows := make([]uint64, board.StandardHeight)
	for y := range rows {
		rows[y] = 1 << 2
	}
	b, err := board.FromRows(10, rows)
	assert.NoError(t, err)
	pos, err := game.NewPosition(b, piece.I, nil, piece.None, false)
	assert.NoError(t, err)

	gen := NewGenerator()
	plays := gen.GenAll(pos, false)
	// 4 horizontal placements right of the wall and 7 vertical ones
	assert.Equal(t, 11, len(plays))
	for _, m := range plays {
		minC, _ := m.Shape().ColSpan()
		assert.Greater(t, m.X()+minC, 2, "move %v reaches past the wall", m)
	}
}

func TestSortingParameter(t *testing.T) {
	gen := NewGenerator()
	pos := newPosition(t, piece.T, nil, piece.None, false)
	plays := gen.GenAll(pos, false)
	for i := 1; i < len(plays); i++ {
		assert.GreaterOrEqual(t, plays[i-1].EstimatedValue(), plays[i].EstimatedValue())
	}
	gen.SetSortingParameter(SortByNone)
	plays = gen.GenAll(pos, false)
	assert.Equal(t, 34, len(plays))
}

// replayActions walks a move's primitive actions from the spawn pose and
// returns where the piece ends up.
func replayActions(t *testing.T, pos game.Position, m *move.Move) (piece.Rotation, int, int) {
	t.Helper()
	b := pos.Board()
	pc := pos.Current()
	rot := piece.Spawn
	x, y := pos.SpawnX(pc), 0
	for _, a := range m.Actions() {
		switch a {
		case move.Hold:
			held, err := pos.WithHold()
			if err != nil {
				t.Fatal(err)
			}
			pc = held.Current()
			rot, x, y = piece.Spawn, pos.SpawnX(pc), 0
		case move.RotateCW:
			nx, ny, ok := b.ResolveRotation(pc, rot, rot.CW(), x, y)
			if !ok {
				t.Fatalf("cw rotation blocked replaying %v", m)
			}
			rot, x, y = rot.CW(), nx, ny
		case move.Rotate180:
			// a half turn is two chained clockwise turns, each legal
			for i := 0; i < 2; i++ {
				nx, ny, ok := b.ResolveRotation(pc, rot, rot.CW(), x, y)
				if !ok {
					t.Fatalf("half turn blocked replaying %v", m)
				}
				rot, x, y = rot.CW(), nx, ny
			}
		case move.MoveLeft:
			x--
		case move.MoveRight:
			x++
		case move.HardDrop:
			dy, ok := b.DropRow(piece.ShapeOf(pc, rot), x, y)
			if !ok {
				t.Fatalf("drop blocked replaying %v", m)
			}
			y = dy
		default:
			t.Fatalf("unknown action %v in %v", a, m)
		}
		if a != move.HardDrop && !b.CanPlace(piece.ShapeOf(pc, rot), x, y) {
			t.Fatalf("action %v leaves %v colliding", a, m)
		}
	}
	return rot, x, y
}

func TestActionReplayReachesPlacement(t *testing.T) {
	gen := NewGenerator()
	for _, hold := range []piece.Piece{piece.None, piece.L} {
		pos := newPosition(t, piece.J, []piece.Piece{piece.S}, hold, true)
		for _, m := range gen.GenAll(pos, true) {
			rot, x, y := replayActions(t, pos, m)
			assert.Equal(t, m.Rotation(), rot, "rotation replaying %v", m)
			assert.Equal(t, m.X(), x, "column replaying %v", m)
			assert.Equal(t, m.Y(), y, "row replaying %v", m)
		}
	}
}

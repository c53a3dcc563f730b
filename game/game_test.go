package game

import (
	"testing"

	"github.com/matryer/is"

	"github.com/setpieces/tetryon/board"
	"github.com/setpieces/tetryon/move"
	"github.com/setpieces/tetryon/piece"
)

func position(t *testing.T, cur piece.Piece, queue string, hold piece.Piece, canHold bool) Position {
	t.Helper()
	q, err := piece.ParseQueue(queue)
	if err != nil {
		t.Fatal(err)
	}
	pos, err := NewPosition(board.NewStandard(), cur, q, hold, canHold)
	if err != nil {
		t.Fatal(err)
	}
	return pos
}

func TestNewPositionValidation(t *testing.T) {
	is := is.New(t)
	_, err := NewPosition(board.Board{}, piece.T, nil, piece.None, true)
	is.True(err != nil)
	_, err = NewPosition(board.NewStandard(), piece.None, nil, piece.None, true)
	is.True(err != nil)
}

func TestWithHoldSwapsExistingPiece(t *testing.T) {
	is := is.New(t)
	pos := position(t, piece.T, "IZ", piece.L, true)
	held, err := pos.WithHold()
	is.NoErr(err)
	is.Equal(held.Current(), piece.L)
	is.Equal(held.Hold(), piece.T)
	is.True(!held.CanHold())
	// the queue is untouched by a swap with a full slot
	is.Equal(piece.QueueString(held.Queue()), "IZ")
	// the original position still allows holding
	is.True(pos.CanHold())

	_, err = held.WithHold()
	is.True(err != nil)
}

func TestWithHoldPullsFromQueueWhenEmpty(t *testing.T) {
	is := is.New(t)
	pos := position(t, piece.T, "IZ", piece.None, true)
	held, err := pos.WithHold()
	is.NoErr(err)
	is.Equal(held.Current(), piece.I)
	is.Equal(held.Hold(), piece.T)
	is.Equal(piece.QueueString(held.Queue()), "Z")

	empty := position(t, piece.T, "", piece.None, true)
	_, err = empty.WithHold()
	is.True(err != nil)
}

func TestApplyMoveAdvancesQueueAndRearmsHold(t *testing.T) {
	is := is.New(t)
	pos := position(t, piece.O, "TI", piece.None, false)
	m := move.New(piece.O, piece.Spawn, 2, 20, []move.Action{move.HardDrop})
	pl, err := pos.ApplyMove(m)
	is.NoErr(err)
	is.Equal(pl.Position.Current(), piece.T)
	is.Equal(piece.QueueString(pl.Position.Queue()), "I")
	is.True(pl.Position.CanHold())
	is.Equal(pl.LinesCleared, 0)
	// O cells land on rows 20 and 21; the lowest is the floor row
	is.Equal(pl.LandingRow, 21)
	is.Equal(pl.LandingHeight(), 0)
	is.Equal(pl.Position.Board().CountCells(), 4)
	// source position board untouched
	is.Equal(pos.Board().CountCells(), 0)
}

func TestApplyMoveRejectsWrongPiece(t *testing.T) {
	is := is.New(t)
	pos := position(t, piece.O, "T", piece.None, true)
	m := move.New(piece.T, piece.Spawn, 2, 19, []move.Action{move.HardDrop})
	_, err := pos.ApplyMove(m)
	is.True(err != nil)
}

func TestApplyMoveWithHoldPrefix(t *testing.T) {
	is := is.New(t)
	pos := position(t, piece.O, "TI", piece.S, true)
	m := move.New(piece.S, piece.Spawn, 0, 19, []move.Action{move.Hold, move.HardDrop})
	pl, err := pos.ApplyMove(m)
	is.NoErr(err)
	// the O went to hold, the S was placed, T is up next
	is.Equal(pl.Position.Hold(), piece.O)
	is.Equal(pl.Position.Current(), piece.T)
	is.True(pl.Position.CanHold())
}

func TestApplyMoveClearsLines(t *testing.T) {
	is := is.New(t)
	rows := make([]uint64, 8)
	// bottom row missing only columns 4 and 5
	rows[7] = 0b11_1100_1111
	b, err := board.FromRows(10, rows)
	is.NoErr(err)
	pos, err := NewPosition(b, piece.O, []piece.Piece{piece.T}, piece.None, true)
	is.NoErr(err)
	// O at box x 3 fills columns 4-5 on rows 6 and 7
	m := move.New(piece.O, piece.Spawn, 3, 6, []move.Action{move.HardDrop})
	pl, err := pos.ApplyMove(m)
	is.NoErr(err)
	is.Equal(pl.LinesCleared, 1)
	is.Equal(pl.LandingRow, 7)
	// only the two cells from row 6 survive, dropped to the bottom row
	is.Equal(pl.Position.Board().CountCells(), 2)
	is.True(pl.Position.Board().IsOccupied(4, 7))
	is.True(pl.Position.Board().IsOccupied(5, 7))
}

func TestSpawnX(t *testing.T) {
	is := is.New(t)
	pos := position(t, piece.T, "", piece.None, true)
	is.Equal(pos.SpawnX(piece.T), 3)
	is.Equal(pos.SpawnX(piece.I), 3)
	is.Equal(pos.SpawnX(piece.O), 3)
}

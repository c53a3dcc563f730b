package patterns

import (
	"math"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/setpieces/tetryon/board"
	"github.com/setpieces/tetryon/game"
	"github.com/setpieces/tetryon/piece"
)

func approx(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func standardPos(t *testing.T, b board.Board, cur piece.Piece, queue string, hold piece.Piece) game.Position {
	t.Helper()
	q, err := piece.ParseQueue(queue)
	if err != nil {
		t.Fatal(err)
	}
	pos, err := game.NewPosition(b, cur, q, hold, true)
	if err != nil {
		t.Fatal(err)
	}
	return pos
}

// wellBoard returns a standard board matching the tetris-well template.
func wellBoard(t *testing.T) board.Board {
	t.Helper()
	rows := make([]uint64, board.StandardHeight)
	for y := board.StandardHeight - 4; y < board.StandardHeight; y++ {
		rows[y] = 0x1ff // columns 0-8
	}
	b, err := board.FromRows(10, rows)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestAlreadySatisfiedIsCertain(t *testing.T) {
	is := is.New(t)
	lib := NewLibrary()
	tw, err := lib.Get("tetris-well")
	is.NoErr(err)

	pos := standardPos(t, wellBoard(t), piece.T, "SZ", piece.I)
	f := CheckFeasibility(pos, tw, DefaultTuning())
	is.True(f.Possible)
	approx(t, f.Confidence, 1.0)
	is.Equal(f.Reason, "already satisfied")
}

func TestRequiredPieceAbsentIsExactlyZero(t *testing.T) {
	is := is.New(t)
	lib := NewLibrary()
	bed, err := lib.Get("tsd-bed")
	is.NoErr(err)

	pos := standardPos(t, board.NewStandard(), piece.O, "SZJJLO", piece.None)
	f := CheckFeasibility(pos, bed, DefaultTuning())
	is.True(!f.Possible)
	is.True(f.Confidence == 0.0)
	is.True(strings.Contains(f.Reason, "T"))
}

func TestCoveredHoleIsImpossible(t *testing.T) {
	is := is.New(t)
	lib := NewLibrary()
	bed, err := lib.Get("tsd-bed")
	is.NoErr(err)

	b, err := board.NewStandard().SetCell(0, 15)
	is.NoErr(err)
	pos := standardPos(t, b, piece.T, "OOOO", piece.None)
	f := CheckFeasibility(pos, bed, DefaultTuning())
	is.True(!f.Possible)
	is.True(f.Confidence == 0.0)
	is.True(strings.Contains(f.Reason, "hole"))
}

func TestRequiredEmptyCellFilled(t *testing.T) {
	is := is.New(t)
	lib := NewLibrary()
	bed, err := lib.Get("tsd-bed")
	is.NoErr(err)

	// the notch column of the bottom row must stay empty
	b, err := board.NewStandard().SetCell(4, 21)
	is.NoErr(err)
	pos := standardPos(t, b, piece.T, "OOOO", piece.None)
	f := CheckFeasibility(pos, bed, DefaultTuning())
	is.True(!f.Possible)
	is.True(strings.Contains(f.Reason, "empty"))
}

func TestInsufficientPieceCells(t *testing.T) {
	is := is.New(t)
	lib := NewLibrary()
	pc, err := lib.Get("pc-base")
	is.NoErr(err)

	// 24 cells required, two pieces bring only 8
	pos := standardPos(t, board.NewStandard(), piece.T, "I", piece.None)
	f := CheckFeasibility(pos, pc, DefaultTuning())
	is.True(!f.Possible)
	is.True(f.Confidence == 0.0)
}

func TestConfidenceScaling(t *testing.T) {
	is := is.New(t)
	lib := NewLibrary()
	pc, err := lib.Get("pc-base")
	is.NoErr(err)

	// exactly enough cells: ratio 1, no spare bonus
	pos := standardPos(t, board.NewStandard(), piece.O, "OOOOO", piece.None)
	f := CheckFeasibility(pos, pc, DefaultTuning())
	is.True(f.Possible)
	approx(t, f.Confidence, 0.55)

	// twice the needed cells: the full spare bonus
	pos = standardPos(t, board.NewStandard(), piece.O, "OOOOOOOOOOO", piece.None)
	f = CheckFeasibility(pos, pc, DefaultTuning())
	is.True(f.Possible)
	approx(t, f.Confidence, 0.85)

	// required piece in hand adds the first-tier bonus
	bed, err := lib.Get("tsd-bed")
	is.NoErr(err)
	pos = standardPos(t, board.NewStandard(), piece.T, "OOOO", piece.None)
	f = CheckFeasibility(pos, bed, DefaultTuning())
	is.True(f.Possible)
	approx(t, f.Confidence, 0.65+0.25+0.3*0.25)
	is.True(f.Confidence >= 0 && f.Confidence <= 1)
}

func TestWidthMismatch(t *testing.T) {
	is := is.New(t)
	lib := NewLibrary()
	pc, err := lib.Get("pc-base")
	is.NoErr(err)
	narrow, err := board.New(8, 20)
	is.NoErr(err)
	pos := standardPos(t, narrow, piece.T, "", piece.None)
	f := CheckFeasibility(pos, pc, DefaultTuning())
	is.True(!f.Possible)
	is.True(f.Confidence == 0.0)
}

package zobrist

import (
	"testing"

	"github.com/matryer/is"

	"github.com/setpieces/tetryon/board"
	"github.com/setpieces/tetryon/piece"
)

func TestHashDistinguishesStates(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize(10, 22, 16)

	b := board.NewStandard()
	h1 := z.Hash(b, piece.T, piece.None, false, 0)
	// same inputs, same hash
	is.Equal(z.Hash(b, piece.T, piece.None, false, 0), h1)

	b2, err := b.SetCell(4, 21)
	is.NoErr(err)
	is.True(z.Hash(b2, piece.T, piece.None, false, 0) != h1)
	is.True(z.Hash(b, piece.I, piece.None, false, 0) != h1)
	is.True(z.Hash(b, piece.T, piece.I, false, 0) != h1)
	is.True(z.Hash(b, piece.T, piece.None, true, 0) != h1)
	is.True(z.Hash(b, piece.T, piece.None, false, 3) != h1)
}

func TestHashOrderIndependence(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize(10, 22, 16)

	b := board.NewStandard()
	ab, err := b.SetCell(1, 20)
	is.NoErr(err)
	ab, err = ab.SetCell(8, 19)
	is.NoErr(err)

	ba, err := b.SetCell(8, 19)
	is.NoErr(err)
	ba, err = ba.SetCell(1, 20)
	is.NoErr(err)

	is.Equal(z.Hash(ab, piece.Z, piece.None, false, 2), z.Hash(ba, piece.Z, piece.None, false, 2))
}

func TestDepthClamped(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize(10, 22, 4)
	b := board.NewStandard()
	// beyond-table depths collapse onto the last entry instead of panicking
	is.Equal(z.Hash(b, piece.T, piece.None, false, 9), z.Hash(b, piece.T, piece.None, false, 123))
}

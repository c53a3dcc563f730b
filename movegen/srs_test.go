package movegen

import (
	"testing"

	"github.com/matryer/is"

	"github.com/setpieces/tetryon/board"
	"github.com/setpieces/tetryon/piece"
)

func TestSpawnStatesOnEmptyBoard(t *testing.T) {
	is := is.New(t)
	b := board.NewStandard()
	states := spawnStates(b, piece.T, 3)
	// nothing collides, so every state resolves with the zero kick
	for r, st := range states {
		is.True(st.ok)
		is.Equal(st.rot, piece.Rotation(r))
		is.Equal(st.x, 3)
		is.Equal(st.y, 0)
	}
}

func TestRotateCWFirstFitKick(t *testing.T) {
	is := is.New(t)
	b := board.NewStandard()
	var err error
	// blocks chosen so the first four offsets of the 0->R table all
	// collide and the fifth is the first fit
	b, err = b.SetCell(4, 2)
	is.NoErr(err)
	b, err = b.SetCell(3, 0)
	is.NoErr(err)

	states := spawnStates(b, piece.T, 3)
	is.True(states[piece.Spawn].ok)
	st := states[piece.Right]
	is.True(st.ok)
	is.Equal(st.x, 2)
	is.Equal(st.y, 2)
}

func TestBlockedSpawnBlocksAllRotations(t *testing.T) {
	is := is.New(t)
	b := board.NewStandard()
	var err error
	// a cell inside the spawn footprint makes the piece unspawnable
	b, err = b.SetCell(4, 1)
	is.NoErr(err)
	states := spawnStates(b, piece.T, 3)
	for _, st := range states {
		is.True(!st.ok)
	}
}

func TestRotateCWNoFit(t *testing.T) {
	is := is.New(t)
	// a 4-wide well only two rows deep: the vertical I cannot appear
	b, err := board.Parse([]string{
		"....",
		"....",
		"XXXX",
		"XXXX",
	})
	is.NoErr(err)
	st := rotateCW(b, piece.I, rotState{rot: piece.Spawn, x: 0, y: 0, ok: true})
	is.True(!st.ok)
	is.Equal(st.rot, piece.Right)
}

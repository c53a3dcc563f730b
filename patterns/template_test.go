package patterns

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"

	"github.com/setpieces/tetryon/board"
	"github.com/setpieces/tetryon/piece"
)

func TestBuiltinsValidate(t *testing.T) {
	is := is.New(t)
	lib := NewLibrary()
	is.Equal(lib.Names(), []string{"dt-cannon-base", "pc-base", "tetris-well", "tsd-bed"})
	for _, tpl := range lib.All() {
		is.NoErr(tpl.Validate())
		is.Equal(tpl.Width, 10)
	}
	tw, err := lib.Get("tetris-well")
	is.NoErr(err)
	is.Equal(tw.HoldPiece, piece.I)
	is.Equal(tw.RequiredCells(), 36)

	_, err = lib.Get("nonesuch")
	is.True(err != nil)
}

func TestFromRowsMaskParsing(t *testing.T) {
	is := is.New(t)
	tpl, err := FromRows("corner", []string{
		"XX??",
		"XXX.",
	}, 2, 5, piece.None, 0.5, 2)
	is.NoErr(err)
	is.Equal(tpl.Occupied, []uint64{0b0011, 0b0111})
	is.Equal(tpl.Empty, []uint64{0, 0b1000})
	is.Equal(tpl.RequiredCells(), 5)

	_, err = FromRows("ragged", []string{"XX", "XXX"}, 0, 0, piece.None, 0.5, 1)
	is.True(err != nil)
	_, err = FromRows("strange", []string{"XZ"}, 0, 0, piece.None, 0.5, 1)
	is.True(err != nil)
	_, err = FromRows("badrate", []string{"XX"}, 1, 2, piece.None, 1.5, 1)
	is.True(err != nil)
}

func TestMatchesAndCounts(t *testing.T) {
	is := is.New(t)
	tpl, err := FromRows("corner", []string{
		"XX??",
		"XXX.",
	}, 2, 5, piece.None, 0.5, 2)
	is.NoErr(err)

	full := mustBoard(t,
		"....",
		"....",
		"XX..",
		"XXX.",
	)
	is.True(tpl.Matches(full))
	is.Equal(tpl.MissingCells(full), 0)
	is.Equal(tpl.Violations(full), 0)
	is.Equal(tpl.OverlapCells(full), 5)

	partial := mustBoard(t,
		"....",
		"....",
		"X...",
		"XX..",
	)
	is.True(!tpl.Matches(partial))
	is.Equal(tpl.MissingCells(partial), 2)
	is.Equal(tpl.OverlapCells(partial), 3)

	violated := mustBoard(t,
		"....",
		"....",
		"XX..",
		"XXXX",
	)
	is.True(!tpl.Matches(violated))
	is.Equal(tpl.Violations(violated), 1)
}

func TestLoadFile(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "setups.yaml")
	doc := `
- name: left-slab
  rows:
    - "XXXX??????"
    - "XXXX??????"
  minHeight: 2
  maxHeight: 6
  holdPiece: T
  successRate: 0.4
  attackValue: 3
`
	is.NoErr(os.WriteFile(path, []byte(doc), 0644))

	lib := NewLibrary()
	is.NoErr(lib.LoadFile(path))
	tpl, err := lib.Get("left-slab")
	is.NoErr(err)
	is.Equal(tpl.HoldPiece, piece.T)
	is.Equal(tpl.Width, 10)
	is.Equal(tpl.MinHeight, 2)

	bad := filepath.Join(dir, "bad.yaml")
	is.NoErr(os.WriteFile(bad, []byte(`- name: oops
  rows: ["X?", "X"]
`), 0644))
	is.True(lib.LoadFile(bad) != nil)
}

func mustBoard(t *testing.T, lines ...string) board.Board {
	t.Helper()
	b, err := board.Parse(lines)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

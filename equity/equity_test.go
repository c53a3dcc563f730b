package equity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"

	"github.com/setpieces/tetryon/board"
	"github.com/setpieces/tetryon/game"
	"github.com/setpieces/tetryon/patterns"
	"github.com/setpieces/tetryon/piece"
)

func TestStaticCalculatorEmptyBoard(t *testing.T) {
	is := is.New(t)
	sc, err := NewStaticCalculator(mustPreset(t, "expert"))
	is.NoErr(err)
	b := board.NewStandard()
	pos, err := game.NewPosition(b, piece.T, nil, piece.None, true)
	is.NoErr(err)
	pl := &game.Placement{Position: pos, LandingRow: board.StandardHeight - 1}
	// only the transition baselines contribute on an empty board:
	// 44 row transitions and 10 column transitions
	is.True(approx(sc.Equity(nil, pl), 44*-3.2+10*-9.3))
}

func TestStaticCalculatorRejectsBadWeights(t *testing.T) {
	is := is.New(t)
	w := mustPreset(t, "medium")
	delete(w, FeatWellDepth)
	_, err := NewStaticCalculator(w)
	is.True(err != nil)
}

func TestExpertPrefersFlatStacking(t *testing.T) {
	is := is.New(t)
	sc, err := NewStaticCalculator(mustPreset(t, "expert"))
	is.NoErr(err)

	flat := mustBoard(t,
		"....",
		"....",
		"....",
		"....",
		"....",
		"XXX.",
	)
	holey := mustBoard(t,
		"....",
		"....",
		"....",
		"....",
		"X...",
		".XX.",
	)
	is.Equal(ExtractBoard(holey).Holes, 1.0)

	eq := func(b board.Board) float64 {
		pos, err := game.NewPosition(b, piece.T, nil, piece.None, true)
		is.NoErr(err)
		return sc.Equity(nil, &game.Placement{Position: pos, LandingRow: 5})
	}
	is.True(eq(flat) > eq(holey))
}

func TestPresets(t *testing.T) {
	is := is.New(t)
	names := PresetNames()
	is.Equal(names, []string{"easy", "expert", "hard", "medium"})
	for _, n := range names {
		w, err := Preset(n)
		is.NoErr(err)
		is.NoErr(w.Validate())
	}
	_, err := Preset("grandmaster")
	is.True(err != nil)

	// presets hand out copies
	w := mustPreset(t, "hard")
	w[FeatHoles] = 0
	again := mustPreset(t, "hard")
	is.True(again[FeatHoles] != 0)
}

func TestLoadPresetsFile(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	good := filepath.Join(dir, "weights.yaml")
	is.NoErr(os.WriteFile(good, []byte(`
loadtest-sample:
  landingHeight: -1.0
  linesCleared: 2.0
  rowTransitions: -1.0
  colTransitions: -1.0
  holes: -3.0
  wellDepth: -1.0
  blocksAboveHoles: -0.5
  bumpiness: -0.5
  maxHeight: -1.0
  rowFillRatio: 1.5
`), 0o644))
	is.NoErr(LoadPresetsFile(good))
	w, err := Preset("loadtest-sample")
	is.NoErr(err)
	is.Equal(w[FeatHoles], -3.0)

	bad := filepath.Join(dir, "bad.yaml")
	is.NoErr(os.WriteFile(bad, []byte("loadtest-broken:\n  holes: -3.0\n"), 0o644))
	is.True(LoadPresetsFile(bad) != nil)
	_, err = Preset("loadtest-broken")
	is.True(err != nil)
}

func TestPatternBonus(t *testing.T) {
	is := is.New(t)
	lib := patterns.NewLibrary()
	flatTuning := patterns.EstimatorTuning{CellRatioWeight: 0, MinConfidence: 0.01}
	pb := NewPatternBonusCalculator(lib, flatTuning)

	empty := board.NewStandard()
	pos, err := game.NewPosition(empty, piece.I, nil, piece.None, true)
	is.NoErr(err)
	// no overlap with any template yet, so no bonus
	is.Equal(pb.Equity(nil, &game.Placement{Position: pos}), 0.0)

	// nine-wide stack four rows deep is a finished tetris well
	rows := make([]uint64, board.StandardHeight)
	for y := board.StandardHeight - 4; y < board.StandardHeight; y++ {
		rows[y] = 0x1ff
	}
	well, err := board.FromRows(board.StandardWidth, rows)
	is.NoErr(err)

	// with the I in hand the well is live: confidence is the raw success
	// rate under a flat tuning
	pos, err = game.NewPosition(well, piece.I, nil, piece.None, true)
	is.NoErr(err)
	wellT, err := lib.Get("tetris-well")
	is.NoErr(err)
	got := pb.Equity(nil, &game.Placement{Position: pos})
	is.True(approx(got, wellT.AttackValue*wellT.SuccessRate))

	// holding the I satisfies the template outright
	pos, err = game.NewPosition(well, piece.O, nil, piece.I, true)
	is.NoErr(err)
	is.True(approx(pb.Equity(nil, &game.Placement{Position: pos}), wellT.AttackValue))

	// without the I anywhere, overlap alone earns nothing
	pos, err = game.NewPosition(well, piece.O, []piece.Piece{piece.S, piece.Z}, piece.None, true)
	is.NoErr(err)
	is.Equal(pb.Equity(nil, &game.Placement{Position: pos}), 0.0)
}

func mustPreset(t *testing.T, name string) Weights {
	t.Helper()
	w, err := Preset(name)
	if err != nil {
		t.Fatalf("preset %s: %v", name, err)
	}
	return w
}

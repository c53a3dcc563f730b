package beam

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/setpieces/tetryon/board"
	"github.com/setpieces/tetryon/equity"
	"github.com/setpieces/tetryon/game"
	"github.com/setpieces/tetryon/move"
	"github.com/setpieces/tetryon/movegen"
	"github.com/setpieces/tetryon/piece"
)

func testCalc(t *testing.T) equity.EquityCalculator {
	t.Helper()
	w, err := equity.Preset("expert")
	if err != nil {
		t.Fatal(err)
	}
	sc, err := equity.NewStaticCalculator(w)
	if err != nil {
		t.Fatal(err)
	}
	return sc
}

func newSolver(t *testing.T, settings Settings) *Solver {
	t.Helper()
	s := &Solver{}
	err := s.Init(movegen.NewGenerator(), []equity.EquityCalculator{testCalc(t)}, settings)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// wellPosition has the bottom two rows filled except the last column, with
// an I in hand to clear them.
func wellPosition(t *testing.T) game.Position {
	t.Helper()
	rows := make([]uint64, board.StandardHeight)
	rows[board.StandardHeight-1] = 0x1ff
	rows[board.StandardHeight-2] = 0x1ff
	b, err := board.FromRows(board.StandardWidth, rows)
	if err != nil {
		t.Fatal(err)
	}
	pos, err := game.NewPosition(b, piece.I, []piece.Piece{piece.O, piece.T}, piece.None, true)
	if err != nil {
		t.Fatal(err)
	}
	return pos
}

func TestInitValidates(t *testing.T) {
	is := is.New(t)
	s := &Solver{}
	is.True(s.Init(nil, []equity.EquityCalculator{testCalc(t)}, DefaultSettings()) != nil)
	is.True(s.Init(movegen.NewGenerator(), nil, DefaultSettings()) != nil)

	_, err := s.Solve(context.Background(), wellPosition(t))
	is.True(err != nil) // never initialized

	s = newSolver(t, DefaultSettings())
	_, err = s.Solve(context.Background(), game.Position{})
	is.True(err != nil)
}

func TestBeamBeatsOrMatchesGreedy(t *testing.T) {
	is := is.New(t)
	pos := wellPosition(t)
	calc := testCalc(t)

	greedy := math.Inf(-1)
	gen := movegen.NewGenerator()
	for _, mv := range gen.GenAll(pos, true) {
		pl, err := pos.ApplyMove(mv)
		is.NoErr(err)
		if eq := calc.Equity(mv, &pl); eq > greedy {
			greedy = eq
		}
	}

	s := newSolver(t, Settings{BeamWidth: 8, MaxDepth: 3})
	res, err := s.Solve(context.Background(), pos)
	is.NoErr(err)
	is.True(res.BestScore >= greedy-1e-9)
	is.True(len(res.BestPath) > 0)
	is.True(res.NodesExplored > 0)
	is.True(res.EvaluationCount > 0)
	is.Equal(res.ReachedDepth, 3)
}

func TestDegenerateParamsStillYieldAMove(t *testing.T) {
	is := is.New(t)
	s := newSolver(t, Settings{BeamWidth: 0, MaxDepth: 0})
	res, err := s.Solve(context.Background(), wellPosition(t))
	is.NoErr(err)
	is.Equal(res.ReachedDepth, 1)
	is.Equal(len(res.BestPath), 1)
	is.True(res.NodesExplored > 0)
	is.True(!res.TimedOut)
}

func TestNoLegalMovesIsNotAnError(t *testing.T) {
	is := is.New(t)
	b, err := board.FromRows(4, []uint64{0b0111, 0b1111, 0b1111, 0b1111})
	is.NoErr(err)
	pos, err := game.NewPosition(b, piece.O, nil, piece.None, true)
	is.NoErr(err)

	s := newSolver(t, DefaultSettings())
	res, err := s.Solve(context.Background(), pos)
	is.NoErr(err)
	is.Equal(len(res.BestPath), 0)
	is.Equal(res.BestScore, 0.0)
	is.Equal(res.NodesExplored, uint64(0))
	is.Equal(res.ReachedDepth, 1)
	is.True(!res.TimedOut)
}

// faultyCalc panics every other call, standing in for a calculator with a
// bug on one of its feature paths.
type faultyCalc struct {
	inner equity.EquityCalculator
	calls int
}

func (f *faultyCalc) Equity(m *move.Move, pl *game.Placement) float64 {
	f.calls++
	if f.calls%2 == 0 {
		panic("calculator bug")
	}
	return f.inner.Equity(m, pl)
}

func TestPanickingCalculatorIsContained(t *testing.T) {
	is := is.New(t)
	s := &Solver{}
	err := s.Init(movegen.NewGenerator(),
		[]equity.EquityCalculator{&faultyCalc{inner: testCalc(t)}},
		Settings{BeamWidth: 8, MaxDepth: 2})
	is.NoErr(err)

	res, err := s.Solve(context.Background(), wellPosition(t))
	is.NoErr(err)
	is.True(len(res.BestPath) > 0)
	is.True(res.SkippedCandidates > 0)
	// every applied placement is either scored or skipped
	is.Equal(res.EvaluationCount+res.SkippedCandidates, res.NodesExplored)
}

func TestTimeLimitKeepsFirstLevel(t *testing.T) {
	is := is.New(t)
	s := newSolver(t, Settings{BeamWidth: 8, MaxDepth: 4, TimeLimit: time.Nanosecond})
	res, err := s.Solve(context.Background(), wellPosition(t))
	is.NoErr(err)
	is.True(res.TimedOut)
	is.Equal(res.ReachedDepth, 1)
	is.Equal(len(res.BestPath), 1)
}

func TestCanceledContextKeepsFirstLevel(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newSolver(t, Settings{BeamWidth: 8, MaxDepth: 4})
	res, err := s.Solve(ctx, wellPosition(t))
	is.NoErr(err)
	is.True(res.TimedOut)
	is.Equal(res.ReachedDepth, 1)
	is.Equal(len(res.BestPath), 1)
}

func TestRetainPlainKeepsTopScores(t *testing.T) {
	is := is.New(t)
	s := &Solver{}
	children := []*node{
		{score: 10}, {score: 9}, {score: 8}, {score: 7},
	}
	kept := s.retain(children, 2, 0)
	is.Equal(len(kept), 2)
	is.Equal(kept[0].score, 10.0)
	is.Equal(kept[1].score, 9.0)
}

func TestRetainDiversityPrefersDistantProfiles(t *testing.T) {
	is := is.New(t)
	s := &Solver{settings: Settings{EnableDiversity: true}}
	children := []*node{
		{score: 10, heights: []int{0, 0, 0, 0}},
		{score: 9, heights: []int{0, 0, 0, 1}},
		{score: 8, heights: []int{0, 0, 0, 2}},
		{score: 7, heights: []int{4, 4, 4, 4}},
		{score: 6, heights: []int{0, 0, 1, 1}},
		{score: 5, heights: []int{9, 9, 9, 9}},
	}
	kept := s.retain(children, 4, 0.5)
	is.Equal(len(kept), 4)
	// two by score, then the two farthest column profiles, not the next
	// two scores
	is.Equal(kept[0].score, 10.0)
	is.Equal(kept[1].score, 9.0)
	is.Equal(kept[2].heights, []int{9, 9, 9, 9})
	is.Equal(kept[3].heights, []int{4, 4, 4, 4})
}

func TestProfileDistance(t *testing.T) {
	is := is.New(t)
	is.Equal(profileDistance([]int{0, 0, 0}, []int{0, 0, 0}), 0)
	is.Equal(profileDistance([]int{1, 2, 3}, []int{3, 2, 1}), 4)
}

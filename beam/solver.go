// Package beam implements the lookahead search: a level-by-level beam over
// placement sequences. Each level extends every retained line through all
// legal placements of the next piece, scores the results with the equity
// calculators, and cuts back to the beam width. An optional share of the
// beam is reserved for lines whose column profiles sit farthest from the
// ones already kept, so the beam does not collapse into near-duplicates of
// a single stacking idea.
package beam

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/setpieces/tetryon/equity"
	"github.com/setpieces/tetryon/game"
	"github.com/setpieces/tetryon/move"
	"github.com/setpieces/tetryon/movegen"
	"github.com/setpieces/tetryon/piece"
)

// checkEvery is how many expansions pass between wall-clock polls. The
// search can overrun its budget by at most this much work.
const checkEvery = 64

// Settings shapes one search.
type Settings struct {
	// BeamWidth caps how many lines survive each level. Values below 1
	// degrade to 1.
	BeamWidth int
	// MaxDepth is the requested lookahead in placements. Zero still
	// searches one level.
	MaxDepth int
	// TimeLimit bounds the wall clock; zero means unbounded. The first
	// level always completes so there is always a move to return.
	TimeLimit time.Duration
	// EnableDiversity reserves part of the beam for dissimilar lines.
	EnableDiversity bool
	// DiversityRatio is the reserved fraction of the beam, clamped to
	// [0, 1].
	DiversityRatio float64
}

// DefaultSettings returns the stock search shape.
func DefaultSettings() Settings {
	return Settings{
		BeamWidth:       16,
		MaxDepth:        4,
		TimeLimit:       80 * time.Millisecond,
		EnableDiversity: true,
		DiversityRatio:  0.25,
	}
}

// Result carries everything a caller branches on. Running out of moves,
// time, or depth is reported here, never as an error.
type Result struct {
	// BestPath is the best placement sequence found; empty when the
	// position has no legal move at all. The first entry is the move to
	// play.
	BestPath []*move.Move
	// BestScore is the cumulative equity along BestPath.
	BestScore       float64
	NodesExplored   uint64
	EvaluationCount uint64
	// SkippedCandidates counts placements dropped because a calculator
	// failed on them. The search continues past each one.
	SkippedCandidates uint64
	SearchTime        time.Duration
	// TimedOut is set when the clock or the context cut the search short;
	// the result still holds the best line from the completed levels.
	TimedOut bool
	// ReachedDepth is the number of fully expanded levels, at least 1.
	ReachedDepth int
}

// node is one retained line: the position after its placements, the
// cumulative score, and the placements themselves.
type node struct {
	pos     game.Position
	score   float64
	path    []*move.Move
	heights []int
}

// profile returns the line's column heights, computed once per node.
func (n *node) profile() []int {
	if n.heights == nil {
		n.heights = n.pos.Board().ColumnHeights()
	}
	return n.heights
}

func (n *node) minDistance(kept []*node) int {
	min := math.MaxInt
	for _, k := range kept {
		if d := profileDistance(n.profile(), k.profile()); d < min {
			min = d
		}
	}
	return min
}

// profileDistance is the L1 distance between two column-height profiles.
func profileDistance(a, b []int) int {
	d := 0
	for i := range a {
		x := a[i] - b[i]
		if x < 0 {
			x = -x
		}
		d += x
	}
	return d
}

// Solver runs beam searches. Init it once and reuse it; it is not safe for
// concurrent use since it shares its move generator across calls.
type Solver struct {
	gen      *movegen.Generator
	calcs    []equity.EquityCalculator
	settings Settings

	nodes   atomic.Uint64
	evals   atomic.Uint64
	skipped atomic.Uint64

	logStream io.Writer
}

// Init initializes the solver.
func (s *Solver) Init(gen *movegen.Generator, calcs []equity.EquityCalculator, settings Settings) error {
	if gen == nil {
		return errors.New("beam solver needs a move generator")
	}
	if len(calcs) == 0 {
		return errors.New("beam solver needs at least one equity calculator")
	}
	s.gen = gen
	s.calcs = calcs
	s.settings = settings
	return nil
}

func (s *Solver) Settings() Settings            { return s.settings }
func (s *Solver) SetSettings(settings Settings) { s.settings = settings }

func (s *Solver) SetLogStream(l io.Writer) { s.logStream = l }

// Solve searches from the position and returns the best line found.
// Degenerate settings and exhausted queues produce a minimal result, not an
// error; errors mean the input itself was unusable.
func (s *Solver) Solve(ctx context.Context, pos game.Position) (*Result, error) {
	if s.gen == nil {
		return nil, errors.New("solver not initialized")
	}
	if pos.Board().Width() == 0 {
		return nil, errors.New("position has no board")
	}
	if pos.Current() == piece.None {
		return nil, errors.New("position has no piece to place")
	}
	width := s.settings.BeamWidth
	if width < 1 {
		width = 1
	}
	plies := s.settings.MaxDepth
	if plies < 1 {
		plies = 1
	}
	ratio := s.settings.DiversityRatio
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	log.Debug().Int("beamWidth", width).Int("plies", plies).
		Dur("timeLimit", s.settings.TimeLimit).
		Bool("diversity", s.settings.EnableDiversity).
		Msg("beam-solve-config")

	s.nodes.Store(0)
	s.evals.Store(0)
	s.skipped.Store(0)
	tstart := time.Now()
	var deadline time.Time
	if s.settings.TimeLimit > 0 {
		deadline = tstart.Add(s.settings.TimeLimit)
	}
	res := &Result{}

	g := &errgroup.Group{}
	done := make(chan bool)

	g.Go(func() error {
		ticker := time.NewTicker(1 * time.Second)
		var lastNodes uint64
		for {
			select {
			case <-done:
				return nil
			case <-ticker.C:
				nodes := s.nodes.Load()
				log.Debug().Uint64("nps", nodes-lastNodes).Msg("nodes-per-second")
				lastNodes = nodes
			}
		}
	})

	g.Go(func() error {
		s.search(ctx, pos, width, plies, ratio, deadline, res)
		done <- true
		return nil
	})

	err := g.Wait()
	res.NodesExplored = s.nodes.Load()
	res.EvaluationCount = s.evals.Load()
	res.SkippedCandidates = s.skipped.Load()
	res.SearchTime = time.Since(tstart)
	if res.ReachedDepth < 1 {
		res.ReachedDepth = 1
	}
	log.Debug().
		Uint64("nodes", res.NodesExplored).
		Int("reachedDepth", res.ReachedDepth).
		Float64("bestScore", res.BestScore).
		Float64("time-elapsed-sec", res.SearchTime.Seconds()).
		Msg("solve-returning")
	return res, err
}

func (s *Solver) search(ctx context.Context, pos game.Position, width, plies int, ratio float64, deadline time.Time, res *Result) {
	beam := []*node{{pos: pos}}
	var best *node
	sinceCheck := 0

	for depth := 0; depth < plies && len(beam) > 0; depth++ {
		// the first level always finishes so a legal move is always
		// returned; deeper levels poll the clock between batches
		if depth > 0 && overBudget(ctx, deadline) {
			res.TimedOut = true
			break
		}
		if s.logStream != nil {
			fmt.Fprintf(s.logStream, "- level: %d\n  beam: %d\n", depth+1, len(beam))
		}
		var children []*node
		timedOut := false
	expand:
		for _, n := range beam {
			// hold branches only at the root; deeper levels follow the
			// queue as dealt
			plays := s.gen.GenAll(n.pos, depth == 0)
			for _, mv := range plays {
				if depth > 0 {
					if sinceCheck++; sinceCheck >= checkEvery {
						sinceCheck = 0
						if overBudget(ctx, deadline) {
							timedOut = true
							break expand
						}
					}
				}
				pl, err := n.pos.ApplyMove(mv)
				if err != nil {
					continue
				}
				s.nodes.Add(1)
				stepEq, ok := s.evaluate(mv, &pl)
				if !ok {
					continue
				}
				s.evals.Add(1)
				mv.SetEquity(stepEq)
				path := make([]*move.Move, len(n.path)+1)
				copy(path, n.path)
				path[len(n.path)] = mv
				children = append(children, &node{pos: pl.Position, score: n.score + stepEq, path: path})
			}
		}
		if timedOut {
			// drop the partial level; the completed ones already fed best
			res.TimedOut = true
			break
		}
		if len(children) == 0 {
			break
		}
		res.ReachedDepth = depth + 1
		sort.SliceStable(children, func(i, j int) bool {
			return children[i].score > children[j].score
		})
		if best == nil || children[0].score > best.score {
			best = children[0]
		}
		beam = s.retain(children, width, ratio)
	}
	if best != nil {
		res.BestPath = best.path
		res.BestScore = best.score
	}
}

// evaluate scores one candidate placement. A calculator that panics does
// not take the search down with it: the failure is logged and counted, and
// the candidate is reported as unusable so the level moves on.
func (s *Solver) evaluate(mv *move.Move, pl *game.Placement) (eq float64, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.skipped.Add(1)
			log.Error().Interface("panic", r).
				Str("move", mv.ShortDescription()).
				Msg("candidate-evaluation-failed")
			eq, ok = 0, false
		}
	}()
	eq = lo.SumBy(s.calcs, func(c equity.EquityCalculator) float64 {
		return c.Equity(mv, pl)
	})
	return eq, true
}

// retain cuts a level's candidates, already sorted best first, down to the
// beam. Plain mode keeps the top slice. With diversity on, the reserved
// slots go to remaining candidates whose column profiles are farthest from
// everything kept so far, picked greedily.
func (s *Solver) retain(children []*node, width int, ratio float64) []*node {
	if len(children) <= width {
		return children
	}
	divSlots := 0
	if s.settings.EnableDiversity {
		divSlots = int(float64(width) * ratio)
	}
	if divSlots == 0 {
		return children[:width]
	}
	scoreSlots := width - divSlots
	if scoreSlots < 1 {
		scoreSlots = 1
	}
	kept := make([]*node, scoreSlots, width)
	copy(kept, children[:scoreSlots])
	rest := append([]*node{}, children[scoreSlots:]...)
	for len(kept) < width && len(rest) > 0 {
		bestIdx, bestDist := 0, -1
		for i, c := range rest {
			if d := c.minDistance(kept); d > bestDist {
				bestIdx, bestDist = i, d
			}
		}
		kept = append(kept, rest[bestIdx])
		rest = append(rest[:bestIdx], rest[bestIdx+1:]...)
	}
	return kept
}

func overBudget(ctx context.Context, deadline time.Time) bool {
	if ctx.Err() != nil {
		return true
	}
	return !deadline.IsZero() && time.Now().After(deadline)
}

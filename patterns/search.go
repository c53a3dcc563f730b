package patterns

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/setpieces/tetryon/game"
	"github.com/setpieces/tetryon/move"
	"github.com/setpieces/tetryon/movegen"
	"github.com/setpieces/tetryon/piece"
	"github.com/setpieces/tetryon/zobrist"
)

// Outcome classifies how a solve ended. Timeouts are results, not errors;
// the caller decides what a truncated search is worth.
type Outcome uint8

const (
	OutcomeSolved Outcome = iota
	OutcomeUnsolvable
	OutcomeTimeout
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSolved:
		return "solved"
	case OutcomeUnsolvable:
		return "unsolvable"
	case OutcomeTimeout:
		return "timeout"
	}
	return fmt.Sprintf("Outcome(%d)", uint8(o))
}

// Result is the outcome of one bounded solve.
type Result struct {
	Outcome       Outcome
	Moves         []*move.Move
	NodesExplored uint64
	Elapsed       time.Duration
}

// SearchConfig bounds a solve. Zero values pick the defaults.
type SearchConfig struct {
	// MaxDepth caps pieces placed; 0 allows every available piece.
	MaxDepth int
	// MaxMovesPerPiece caps candidates kept per expansion after ordering.
	MaxMovesPerPiece int
	// TimeLimit bounds wall time; 0 means unbounded.
	TimeLimit time.Duration
	// CheckInterval is how many nodes pass between clock polls.
	CheckInterval int
}

const (
	defaultMaxMovesPerPiece = 8
	defaultCheckInterval    = 256
)

func (c SearchConfig) defaulted() SearchConfig {
	if c.MaxMovesPerPiece <= 0 {
		c.MaxMovesPerPiece = defaultMaxMovesPerPiece
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = defaultCheckInterval
	}
	return c
}

// Solver runs depth-first solves against one template at a time. Create
// once, Init once, then Solve per position; it is not safe for concurrent
// use.
type Solver struct {
	gen *movegen.Generator
	cfg SearchConfig

	zd         *zobrist.Zobrist
	visited    map[uint64]struct{}
	maxVisited int

	nodes       atomic.Uint64
	ctx         context.Context
	deadline    time.Time
	hasDeadline bool
	timedOut    bool

	template *Template
	maxDepth int
	path     []*move.Move
	solution []*move.Move
}

// Init prepares the solver. The generator is borrowed for the solver's
// lifetime.
func (s *Solver) Init(gen *movegen.Generator, cfg SearchConfig) error {
	if gen == nil {
		return fmt.Errorf("solver needs a move generator")
	}
	s.gen = gen
	s.cfg = cfg.defaulted()
	// scale the transposition set to the machine, within sane bounds
	entries := int(memory.TotalMemory() / 1024)
	if entries > 1<<22 {
		entries = 1 << 22
	}
	if entries < 1<<16 {
		entries = 1 << 16
	}
	s.maxVisited = entries
	return nil
}

// searchState is one node of the solve: the position plus whether the
// line's single allowed hold was spent, and the move that got here.
type searchState struct {
	pos      game.Position
	usedHold bool
	prev     *move.Move
}

// Solve searches for a move sequence completing the template from pos. It
// returns an error only for misuse; unsolvable and timed-out searches are
// ordinary results.
func (s *Solver) Solve(ctx context.Context, pos game.Position, t *Template) (*Result, error) {
	if s.gen == nil {
		return nil, fmt.Errorf("solver not initialized")
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if pos.Board().Width() != t.Width {
		return nil, fmt.Errorf("template %s is drawn for width %d, board is %d",
			t.Name, t.Width, pos.Board().Width())
	}
	started := time.Now()
	s.ctx = ctx
	s.template = t
	s.nodes.Store(0)
	s.timedOut = false
	s.path = s.path[:0]
	s.solution = nil
	s.visited = make(map[uint64]struct{}, 1024)
	s.maxDepth = s.cfg.MaxDepth
	if s.maxDepth <= 0 || s.maxDepth > pos.PiecesAvailable() {
		s.maxDepth = pos.PiecesAvailable()
	}
	s.hasDeadline = s.cfg.TimeLimit > 0
	if s.hasDeadline {
		s.deadline = started.Add(s.cfg.TimeLimit)
	}
	s.zd = &zobrist.Zobrist{}
	s.zd.Initialize(pos.Board().Width(), pos.Board().Height(), s.maxDepth)

	solved := s.dfs(searchState{pos: pos}, 0)

	res := &Result{
		NodesExplored: s.nodes.Load(),
		Elapsed:       time.Since(started),
	}
	switch {
	case solved:
		res.Outcome = OutcomeSolved
		res.Moves = s.solution
	case s.timedOut:
		res.Outcome = OutcomeTimeout
	default:
		res.Outcome = OutcomeUnsolvable
	}
	log.Debug().
		Str("template", t.Name).
		Str("outcome", res.Outcome.String()).
		Uint64("nodes", res.NodesExplored).
		Int("moves", len(res.Moves)).
		Dur("elapsed", res.Elapsed).
		Msg("pattern-solve-done")
	return res, nil
}

func (s *Solver) dfs(st searchState, depth int) bool {
	n := s.nodes.Add(1)
	if n%uint64(s.cfg.CheckInterval) == 0 {
		if s.ctx.Err() != nil || (s.hasDeadline && time.Now().After(s.deadline)) {
			s.timedOut = true
		}
	}
	if s.timedOut {
		return false
	}
	if s.completed(st) {
		s.solution = append([]*move.Move(nil), s.path...)
		return true
	}
	if depth >= s.maxDepth || st.pos.Current() == piece.None {
		return false
	}
	for _, c := range s.candidates(st, depth) {
		s.path = append(s.path, c.mv)
		if c.finishes {
			s.solution = append([]*move.Move(nil), s.path...)
			return true
		}
		if s.dfs(c.st, depth+1) {
			return true
		}
		s.path = s.path[:len(s.path)-1]
		if s.timedOut {
			return false
		}
	}
	return false
}

func (s *Solver) completed(st searchState) bool {
	if s.template.HoldPiece != piece.None && st.pos.Hold() != s.template.HoldPiece {
		return false
	}
	return s.template.Matches(st.pos.Board())
}

type candidate struct {
	mv *move.Move
	st searchState
	// finishes marks a placement that satisfies the template before line
	// clears run; completing a required row must count even though the
	// row vanishes right after.
	finishes bool
}

// candidates expands a node: generate placements, apply each, prune the
// hopeless ones, order the survivors by pattern progress, and cap the
// branching factor.
func (s *Solver) candidates(st searchState, depth int) []candidate {
	t := s.template
	// the single allowed hold exists only to bank the template's required
	// piece while it is in hand
	allowHold := t.HoldPiece != piece.None &&
		!st.usedHold &&
		st.pos.Hold() != t.HoldPiece &&
		st.pos.Current() == t.HoldPiece
	plays := s.gen.GenAll(st.pos, allowHold)

	out := make([]candidate, 0, len(plays))
	b := st.pos.Board()
	boardH := float64(b.Height())
	for _, mv := range plays {
		// restacking the exact same placement on top of itself only
		// builds towers; skip the branch
		if st.prev != nil && mv.Piece() == st.prev.Piece() &&
			mv.Rotation() == st.prev.Rotation() && mv.X() == st.prev.X() {
			continue
		}
		pl, err := st.pos.ApplyMove(mv)
		if err != nil {
			continue
		}
		next := searchState{
			pos:      pl.Position,
			usedHold: st.usedHold || mv.UsesHold(),
			prev:     mv,
		}
		// matching happens on the board as placed, before clears run
		placed, err := b.Place(mv.Shape(), mv.X(), mv.Y())
		if err == nil && t.Matches(placed) &&
			(t.HoldPiece == piece.None || next.pos.Hold() == t.HoldPiece) {
			mv.SetEstimatedValue(1e6)
			out = append(out, candidate{mv: mv, st: next, finishes: true})
			continue
		}
		nb := pl.Position.Board()
		if t.Violations(nb) > 0 {
			continue
		}
		if nb.HasCoveredHole() {
			continue
		}
		maxH := nb.MaxHeight()
		if maxH > t.MaxHeight {
			continue
		}
		remaining := next.pos.PiecesAvailable()
		if budget := s.maxDepth - depth - 1; remaining > budget {
			remaining = budget
		}
		// each remaining piece raises the stack at most four rows and
		// fills at most four cells
		if maxH+4*remaining < t.MinHeight {
			continue
		}
		if t.MissingCells(nb) > 4*remaining {
			continue
		}
		key := s.zd.Hash(nb, next.pos.Current(), next.pos.Hold(), next.usedHold, depth+1)
		if _, seen := s.visited[key]; seen {
			continue
		}
		if len(s.visited) < s.maxVisited {
			s.visited[key] = struct{}{}
		}

		gained := t.OverlapCells(nb) - t.OverlapCells(b)
		outside := 4 - gained
		if pl.LinesCleared > 0 {
			// a clear reshuffles the overlap accounting; score it flat
			gained, outside = 0, 0
		}
		mv.SetEstimatedValue(3*float64(gained) - 2*float64(outside) + float64(pl.LandingRow)/boardH)
		out = append(out, candidate{mv: mv, st: next})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].mv.EstimatedValue() > out[j].mv.EstimatedValue()
	})
	if len(out) > s.cfg.MaxMovesPerPiece {
		out = out[:s.cfg.MaxMovesPerPiece]
	}
	return out
}

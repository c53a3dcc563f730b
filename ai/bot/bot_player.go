// Package bot assembles the playing engine behind one type: move
// generation, the equity calculators for the configured difficulty, the
// beam search, and the pattern library. A BotTurnPlayer turns positions
// into decisions and answers pattern feasibility questions.
package bot

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/setpieces/tetryon/beam"
	"github.com/setpieces/tetryon/config"
	"github.com/setpieces/tetryon/equity"
	"github.com/setpieces/tetryon/game"
	"github.com/setpieces/tetryon/move"
	"github.com/setpieces/tetryon/movegen"
	"github.com/setpieces/tetryon/patterns"
)

// Data files looked up under data-path when present.
const (
	WeightsFilename   = "weights.yaml"
	TemplatesFilename = "templates.yaml"
)

// patternAware reports whether a difficulty plays toward setup templates.
// The lower tiers stack on the static features alone.
func patternAware(preset string) bool {
	switch preset {
	case "hard", "expert":
		return true
	}
	return false
}

type BotTurnPlayer struct {
	cfg *config.Config

	calculators []equity.EquityCalculator
	gen         *movegen.Generator

	solver  *beam.Solver
	library *patterns.Library
	psolver *patterns.Solver
	tuning  patterns.EstimatorTuning
	preset  string
}

// NewBotTurnPlayer builds a player from the config: it loads any weight and
// template files under data-path, picks the default preset's calculators,
// and wires the searches.
func NewBotTurnPlayer(cfg *config.Config) (*BotTurnPlayer, error) {
	p := &BotTurnPlayer{
		cfg:    cfg,
		gen:    movegen.NewGenerator(),
		tuning: patterns.DefaultTuning(),
	}
	return addBotFields(p, cfg)
}

func addBotFields(p *BotTurnPlayer, cfg *config.Config) (*BotTurnPlayer, error) {
	dataPath := cfg.GetString("data-path")
	if fpath := filepath.Join(dataPath, WeightsFilename); fileExists(fpath) {
		if err := equity.LoadPresetsFile(fpath); err != nil {
			return nil, err
		}
	}
	p.library = patterns.NewLibrary()
	if fpath := filepath.Join(dataPath, TemplatesFilename); fileExists(fpath) {
		if err := p.library.LoadFile(fpath); err != nil {
			return nil, err
		}
	}

	calcs, err := p.calculatorsFor(cfg.GetString("default-preset"))
	if err != nil {
		return nil, err
	}
	p.preset = cfg.GetString("default-preset")
	p.calculators = calcs

	p.solver = &beam.Solver{}
	if err := p.solver.Init(movegen.NewGenerator(), calcs, beamSettings(cfg)); err != nil {
		return nil, err
	}
	p.psolver = &patterns.Solver{}
	err = p.psolver.Init(movegen.NewGenerator(), patterns.SearchConfig{
		TimeLimit: time.Duration(cfg.GetInt("pattern-time-limit-ms")) * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// calculatorsFor builds the calculator stack a difficulty uses: every tier
// scores the static features, the pattern-aware tiers add the template
// progress bonus.
func (p *BotTurnPlayer) calculatorsFor(preset string) ([]equity.EquityCalculator, error) {
	w, err := equity.Preset(preset)
	if err != nil {
		return nil, err
	}
	c1, err := equity.NewStaticCalculator(w)
	if err != nil {
		return nil, err
	}
	calcs := []equity.EquityCalculator{c1}
	if patternAware(preset) {
		calcs = append(calcs, equity.NewPatternBonusCalculator(p.library, p.tuning))
	}
	return calcs, nil
}

func beamSettings(cfg *config.Config) beam.Settings {
	return beam.Settings{
		BeamWidth:       cfg.GetInt("beam-width"),
		MaxDepth:        cfg.GetInt("beam-depth"),
		TimeLimit:       time.Duration(cfg.GetInt("move-time-limit-ms")) * time.Millisecond,
		EnableDiversity: cfg.GetBool("enable-diversity"),
		DiversityRatio:  cfg.GetFloat64("diversity-ratio"),
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// BestMove runs the beam search and returns the move to play along with the
// full decision. A position with no legal move returns a nil move and the
// minimal result, not an error.
func (p *BotTurnPlayer) BestMove(ctx context.Context, pos game.Position) (*move.Move, *beam.Result, error) {
	res, err := p.solver.Solve(ctx, pos)
	if err != nil {
		return nil, nil, err
	}
	if len(res.BestPath) == 0 {
		return nil, res, nil
	}
	best := res.BestPath[0]
	log.Debug().Str("move", best.ShortDescription()).
		Float64("score", res.BestScore).
		Int("depth", res.ReachedDepth).
		Msg("best-move")
	return best, res, nil
}

// GenerateMoves enumerates the position's plays with their one-ply equity
// assigned, best first, truncated to numPlays.
func (p *BotTurnPlayer) GenerateMoves(pos game.Position, numPlays int) []*move.Move {
	plays := p.gen.GenAll(pos, true)
	p.AssignEquity(plays, pos)
	return p.TopPlays(plays, numPlays)
}

// AssignEquity scores each play by applying it and summing the calculators.
func (p *BotTurnPlayer) AssignEquity(plays []*move.Move, pos game.Position) {
	for _, m := range plays {
		pl, err := pos.ApplyMove(m)
		if err != nil {
			m.SetEquity(math.Inf(-1))
			continue
		}
		m.SetEquity(lo.SumBy(p.calculators, func(c equity.EquityCalculator) float64 {
			return c.Equity(m, &pl)
		}))
	}
}

func (p *BotTurnPlayer) TopPlays(plays []*move.Move, ct int) []*move.Move {
	sort.Slice(plays, func(i, j int) bool {
		return plays[i].Equity() > plays[j].Equity()
	})
	if ct > len(plays) {
		ct = len(plays)
	}
	return plays[:ct]
}

// PatternCheck is the answer to "can this setup still happen here".
type PatternCheck struct {
	Name         string
	IsPossible   bool
	Confidence   float64
	MoveSequence []*move.Move
	Reason       string
}

// CheckPattern gates the named template through the cheap estimator and
// confirms surviving verdicts with the bounded search. A search timeout
// leaves the estimate standing; solved and unsolvable outcomes override it.
func (p *BotTurnPlayer) CheckPattern(ctx context.Context, pos game.Position, name string) (*PatternCheck, error) {
	t, err := p.library.Get(name)
	if err != nil {
		return nil, err
	}
	feas := patterns.CheckFeasibility(pos, t, p.tuning)
	out := &PatternCheck{
		Name:       name,
		IsPossible: feas.Possible,
		Confidence: feas.Confidence,
		Reason:     feas.Reason,
	}
	if !feas.Possible {
		return out, nil
	}
	res, err := p.psolver.Solve(ctx, pos, t)
	if err != nil {
		return nil, err
	}
	switch res.Outcome {
	case patterns.OutcomeSolved:
		out.Confidence = 1.0
		out.MoveSequence = res.Moves
		out.Reason = "solved"
	case patterns.OutcomeUnsolvable:
		out.IsPossible = false
		out.Confidence = 0
		out.Reason = "search exhausted every line without a solution"
	case patterns.OutcomeTimeout:
		out.Reason = "search timed out; confidence is the estimate"
	}
	return out, nil
}

// SetPreset switches difficulty: new weights and, per the tier, the pattern
// bonus. The beam search keeps its shape settings.
func (p *BotTurnPlayer) SetPreset(name string) error {
	calcs, err := p.calculatorsFor(name)
	if err != nil {
		return err
	}
	if err := p.solver.Init(movegen.NewGenerator(), calcs, p.solver.Settings()); err != nil {
		return err
	}
	p.preset = name
	p.calculators = calcs
	return nil
}

func (p *BotTurnPlayer) Preset() string { return p.preset }

func (p *BotTurnPlayer) SetEquityCalculators(calcs []equity.EquityCalculator) error {
	if err := p.solver.Init(movegen.NewGenerator(), calcs, p.solver.Settings()); err != nil {
		return err
	}
	p.calculators = calcs
	return nil
}

// SetSearchSettings reshapes the beam without touching the calculators.
func (p *BotTurnPlayer) SetSearchSettings(settings beam.Settings) {
	p.solver.SetSettings(settings)
}

func (p *BotTurnPlayer) SearchSettings() beam.Settings { return p.solver.Settings() }

func (p *BotTurnPlayer) Library() *patterns.Library { return p.library }

func (p *BotTurnPlayer) Tuning() patterns.EstimatorTuning { return p.tuning }

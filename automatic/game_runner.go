// Package automatic contains the logic for unattended bot games, played
// start to top-out for data collection and difficulty comparison.
package automatic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/setpieces/tetryon/ai/bot"
	"github.com/setpieces/tetryon/board"
	"github.com/setpieces/tetryon/config"
	"github.com/setpieces/tetryon/game"
	"github.com/setpieces/tetryon/piece"
)

// previewLen is how many queue pieces the bot sees, matching a player
// with a standard next-piece preview.
const previewLen = 5

// lineScores pays guideline scoring per clear size.
var lineScores = [5]int{0, 100, 300, 500, 800}

// ScoreForClear returns the guideline score awarded for clearing the
// given number of lines at once.
func ScoreForClear(lines int) int {
	if lines < 0 || lines >= len(lineScores) {
		return 0
	}
	return lineScores[lines]
}

// GameRunner is the master struct here for the automatic game logic.
type GameRunner struct {
	cfg     *config.Config
	player  *bot.BotTurnPlayer
	preset  string
	logchan chan string

	bag    *piece.Bag
	pos    game.Position
	gameID string
	seed   uint64
	turn   int
	score  int
	lines  int
	over   bool
}

// NewGameRunner just instantiates and initializes a game runner.
func NewGameRunner(logchan chan string, cfg *config.Config) (*GameRunner, error) {
	r := &GameRunner{logchan: logchan, cfg: cfg}
	if err := r.Init(cfg.GetString("default-preset")); err != nil {
		return nil, err
	}
	return r, nil
}

// Init initializes the runner to play at the given difficulty.
func (r *GameRunner) Init(preset string) error {
	p, err := bot.NewBotTurnPlayer(r.cfg)
	if err != nil {
		return err
	}
	if preset != "" && preset != p.Preset() {
		if err := p.SetPreset(preset); err != nil {
			return err
		}
	}
	r.player = p
	r.preset = p.Preset()
	return nil
}

// SetPreset switches difficulty between games.
func (r *GameRunner) SetPreset(preset string) error {
	if preset == r.preset {
		return nil
	}
	if err := r.player.SetPreset(preset); err != nil {
		return err
	}
	r.preset = preset
	return nil
}

// StartGame deals a fresh board and queue from a seeded bag.
func (r *GameRunner) StartGame(seed uint64) error {
	b, err := board.New(r.cfg.GetInt("board-width"), r.cfg.GetInt("board-height"))
	if err != nil {
		return err
	}
	r.bag = piece.NewSeededBag(seed)
	current := r.bag.Draw()
	queue := make([]piece.Piece, previewLen)
	for i := range queue {
		queue[i] = r.bag.Draw()
	}
	pos, err := game.NewPosition(b, current, queue, piece.None, true)
	if err != nil {
		return err
	}
	r.pos = pos
	r.seed = seed
	r.gameID = fmt.Sprintf("%s-%016x", r.preset, seed)
	r.turn = 0
	r.score = 0
	r.lines = 0
	r.over = false
	return nil
}

func (r *GameRunner) Playing() bool           { return !r.over }
func (r *GameRunner) Position() game.Position { return r.pos }
func (r *GameRunner) GameID() string          { return r.gameID }
func (r *GameRunner) Turn() int               { return r.turn }
func (r *GameRunner) Score() int              { return r.score }
func (r *GameRunner) Lines() int              { return r.lines }

// PlayBestTurn searches for the best move and plays it, refilling the
// queue from the bag. A position with no legal landing ends the game.
func (r *GameRunner) PlayBestTurn(ctx context.Context) error {
	if r.over {
		return errors.New("the game is over")
	}
	mv, _, err := r.player.BestMove(ctx, r.pos)
	if err != nil {
		return err
	}
	if mv == nil {
		r.over = true
		return nil
	}
	pl, err := r.pos.ApplyMove(mv)
	if err != nil {
		return err
	}
	r.turn++
	r.lines += pl.LinesCleared
	gained := ScoreForClear(pl.LinesCleared)
	r.score += gained

	next := pl.Position
	queue := append(append([]piece.Piece{}, next.Queue()...), r.bag.Draw())
	current := next.Current()
	if current == piece.None {
		current, queue = queue[0], queue[1:]
	}
	r.pos, err = game.NewPosition(next.Board(), current, queue, next.Hold(), next.CanHold())
	if err != nil {
		return err
	}

	if r.logchan != nil {
		r.logchan <- fmt.Sprintf("%v,%v,%v,%v,%v,%v,%v,%v,%.3f,%v\n",
			r.preset,
			r.gameID,
			r.turn,
			mv.Piece(),
			mv.ShortDescription(),
			pl.LinesCleared,
			gained,
			r.score,
			mv.Equity(),
			r.pos.Board().MaxHeight())
	}
	return nil
}

// GameResult is one finished game.
type GameResult struct {
	GameID   string
	Preset   string
	Seed     uint64
	Turns    int
	Score    int
	Lines    int
	TopOut   bool
	Duration time.Duration
}

// PlayFullGame plays a seeded game until top-out or the turn cap; a cap
// of zero means unlimited.
func (r *GameRunner) PlayFullGame(ctx context.Context, seed uint64, maxTurns int) (GameResult, error) {
	if err := r.StartGame(seed); err != nil {
		return GameResult{}, err
	}
	start := time.Now()
	for r.Playing() {
		if maxTurns > 0 && r.turn >= maxTurns {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if err := r.PlayBestTurn(ctx); err != nil {
			return GameResult{}, err
		}
	}
	res := GameResult{
		GameID:   r.gameID,
		Preset:   r.preset,
		Seed:     seed,
		Turns:    r.turn,
		Score:    r.score,
		Lines:    r.lines,
		TopOut:   r.over,
		Duration: time.Since(start),
	}
	log.Debug().Str("gameID", res.GameID).Int("turns", res.Turns).
		Int("score", res.Score).Int("lines", res.Lines).
		Bool("topOut", res.TopOut).Msg("game-over")
	return res, nil
}

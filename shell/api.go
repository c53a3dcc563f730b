package shell

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/setpieces/tetryon/ai/bot"
	"github.com/setpieces/tetryon/automatic"
	"github.com/setpieces/tetryon/board"
	"github.com/setpieces/tetryon/equity"
	"github.com/setpieces/tetryon/game"
	"github.com/setpieces/tetryon/move"
	"github.com/setpieces/tetryon/patterns"
	"github.com/setpieces/tetryon/piece"
)

type Response struct {
	message string
}

type CmdOptions map[string]string

func (c CmdOptions) String(key string) string {
	return c[key]
}

func (c CmdOptions) Has(key string) bool {
	_, ok := c[key]
	return ok
}

func (c CmdOptions) Int(key string) (int, error) {
	v, ok := c[key]
	if !ok {
		return 0, errors.New(key + " not found in options")
	}
	return strconv.Atoi(v)
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v, ok := c[key]
	if !ok {
		return defaultI, nil
	}
	return strconv.Atoi(v)
}

func (c CmdOptions) Bool(key string) bool {
	return strings.ToLower(c[key]) == "true"
}

func msg(message string) *Response {
	return &Response{message: message}
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	if sc.solving() {
		return nil, errTetryonSolving
	}
	if err := sc.ensurePlayer(); err != nil {
		return nil, err
	}
	w := sc.config.GetInt("board-width")
	h := sc.config.GetInt("board-height")
	if len(cmd.args) == 1 {
		return nil, errors.New("usage: new [width height] [-seed n]")
	}
	if len(cmd.args) >= 2 {
		var err error
		w, err = strconv.Atoi(cmd.args[0])
		if err != nil {
			return nil, err
		}
		h, err = strconv.Atoi(cmd.args[1])
		if err != nil {
			return nil, err
		}
	}
	var seed uint64
	if v := cmd.options.String("seed"); v != "" {
		var err error
		seed, err = strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, err
		}
	} else {
		seeds, err := automatic.GenerateSeeds(1)
		if err != nil {
			return nil, err
		}
		seed = seeds[0]
	}
	b, err := board.New(w, h)
	if err != nil {
		return nil, err
	}
	bag := piece.NewSeededBag(seed)
	current := bag.Draw()
	queue := make([]piece.Piece, previewLen)
	for i := range queue {
		queue[i] = bag.Draw()
	}
	pos, err := game.NewPosition(b, current, queue, piece.None, true)
	if err != nil {
		return nil, err
	}
	sc.bag = bag
	sc.pos = pos
	sc.turnNum = 0
	sc.score = 0
	sc.lines = 0
	sc.invalidatePlays()
	log.Debug().Uint64("seed", seed).Int("width", w).Int("height", h).
		Msg("started new game")
	return msg(sc.gameDisplay()), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	if err := sc.requireGame(); err != nil {
		return nil, err
	}
	return msg(sc.gameDisplay()), nil
}

func (sc *ShellController) setQueue(cmd *shellcmd) (*Response, error) {
	if err := sc.requireGame(); err != nil {
		return nil, err
	}
	if cmd.args == nil {
		return msg("queue " + piece.QueueString(sc.pos.Queue())), nil
	}
	if sc.solving() {
		return nil, errTetryonSolving
	}
	q, err := piece.ParseQueue(strings.Join(cmd.args, ""))
	if err != nil {
		return nil, err
	}
	if len(q) == 0 {
		return nil, errors.New("queue needs at least one piece letter")
	}
	pos, err := game.NewPosition(sc.pos.Board(), sc.pos.Current(), q,
		sc.pos.Hold(), sc.pos.CanHold())
	if err != nil {
		return nil, err
	}
	sc.pos = pos
	sc.invalidatePlays()
	return msg("queue set to " + piece.QueueString(q)), nil
}

func (sc *ShellController) setPiece(cmd *shellcmd) (*Response, error) {
	if err := sc.requireGame(); err != nil {
		return nil, err
	}
	if cmd.args == nil {
		return msg(fmt.Sprintf("current piece is %v", sc.pos.Current())), nil
	}
	if sc.solving() {
		return nil, errTetryonSolving
	}
	if len(cmd.args[0]) != 1 {
		return nil, errors.New("usage: piece <letter>")
	}
	p, err := piece.FromLetter(cmd.args[0][0])
	if err != nil {
		return nil, err
	}
	if p == piece.None {
		return nil, errors.New("usage: piece <letter>")
	}
	pos, err := game.NewPosition(sc.pos.Board(), p, sc.pos.Queue(),
		sc.pos.Hold(), sc.pos.CanHold())
	if err != nil {
		return nil, err
	}
	sc.pos = pos
	sc.invalidatePlays()
	return msg(fmt.Sprintf("current piece set to %v", p)), nil
}

func (sc *ShellController) setHold(cmd *shellcmd) (*Response, error) {
	if err := sc.requireGame(); err != nil {
		return nil, err
	}
	if cmd.args == nil {
		hold := "-"
		if sc.pos.Hold() != piece.None {
			hold = sc.pos.Hold().String()
		}
		return msg("hold slot has " + hold), nil
	}
	if sc.solving() {
		return nil, errTetryonSolving
	}
	if len(cmd.args[0]) != 1 {
		return nil, errors.New("usage: hold <letter>, or `hold -` to empty the slot")
	}
	p, err := piece.FromLetter(cmd.args[0][0])
	if err != nil {
		return nil, err
	}
	pos, err := game.NewPosition(sc.pos.Board(), sc.pos.Current(),
		sc.pos.Queue(), p, sc.pos.CanHold())
	if err != nil {
		return nil, err
	}
	sc.pos = pos
	sc.invalidatePlays()
	if p == piece.None {
		return msg("hold slot emptied"), nil
	}
	return msg(fmt.Sprintf("hold slot set to %v", p)), nil
}

func (sc *ShellController) generate(cmd *shellcmd) (*Response, error) {
	if err := sc.requireGame(); err != nil {
		return nil, err
	}
	if sc.solving() {
		return nil, errTetryonSolving
	}
	numPlays := 15
	if cmd.args != nil {
		n, err := strconv.Atoi(cmd.args[0])
		if err != nil {
			return nil, err
		}
		numPlays = n
	}
	return sc.genMovesAndDisplay(numPlays)
}

func (sc *ShellController) genMovesAndDisplay(numPlays int) (*Response, error) {
	sc.curGenPlays = sc.player.GenerateMoves(sc.pos, numPlays)
	if len(sc.curGenPlays) == 0 {
		return nil, errors.New("no legal placements from this position")
	}
	var sb strings.Builder
	sb.WriteString(moveTableHeader())
	for i, p := range sc.curGenPlays {
		sb.WriteString(moveTableRow(i, p))
		sb.WriteString("\n")
	}
	return msg(sb.String()), nil
}

func (sc *ShellController) best(cmd *shellcmd) (*Response, error) {
	if err := sc.requireGame(); err != nil {
		return nil, err
	}
	if sc.solving() {
		return nil, errTetryonSolving
	}
	var err error
	settings := sc.player.SearchSettings()
	settings.MaxDepth, err = cmd.options.IntDefault("depth", settings.MaxDepth)
	if err != nil {
		return nil, err
	}
	settings.BeamWidth, err = cmd.options.IntDefault("width", settings.BeamWidth)
	if err != nil {
		return nil, err
	}
	ms, err := cmd.options.IntDefault("time", int(settings.TimeLimit/time.Millisecond))
	if err != nil {
		return nil, err
	}
	settings.TimeLimit = time.Duration(ms) * time.Millisecond
	if cmd.options.Has("diversity") {
		settings.EnableDiversity = cmd.options.Bool("diversity")
	}
	sc.player.SetSearchSettings(settings)

	mv, res, err := sc.player.BestMove(context.Background(), sc.pos)
	if err != nil {
		return nil, err
	}
	if mv == nil {
		return msg("no legal moves; the stack is topped out"), nil
	}
	sc.curBestMove = mv

	var sb strings.Builder
	fmt.Fprintf(&sb, "best %s  (line equity %.2f)\n", mv.ShortDescription(), res.BestScore)
	for i, pm := range res.BestPath {
		fmt.Fprintf(&sb, "  ply %d: %s\n", i+1, pm.ShortDescription())
	}
	p := message.NewPrinter(language.English)
	p.Fprintf(&sb, "%d nodes, %d evaluations in %v, depth %d",
		res.NodesExplored, res.EvaluationCount,
		res.SearchTime.Round(time.Millisecond), res.ReachedDepth)
	if res.TimedOut {
		sb.WriteString(" (timed out)")
	}
	sb.WriteString("\n")
	return msg(sb.String()), nil
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	if err := sc.requireGame(); err != nil {
		return nil, err
	}
	if sc.solving() {
		return nil, errTetryonSolving
	}
	if cmd.args == nil {
		return nil, errors.New("usage: play <#id|best>")
	}
	var m *move.Move
	arg := cmd.args[0]
	switch {
	case arg == "best":
		if sc.curBestMove == nil {
			return nil, errors.New("no best move known; run `best` first")
		}
		m = sc.curBestMove
	case strings.HasPrefix(arg, "#"):
		playID, err := strconv.Atoi(arg[1:])
		if err != nil {
			return nil, err
		}
		idx := playID - 1
		if idx < 0 || idx > len(sc.curGenPlays)-1 {
			return nil, errors.New("play outside range")
		}
		m = sc.curGenPlays[idx]
	default:
		return nil, errors.New("usage: play <#id|best>")
	}
	return sc.commitMove(m)
}

func (sc *ShellController) commitMove(m *move.Move) (*Response, error) {
	pl, err := sc.pos.ApplyMove(m)
	if err != nil {
		return nil, err
	}
	gained := automatic.ScoreForClear(pl.LinesCleared)
	sc.turnNum++
	sc.lines += pl.LinesCleared
	sc.score += gained

	next := pl.Position
	queue := append([]piece.Piece{}, next.Queue()...)
	if sc.bag != nil {
		queue = append(queue, sc.bag.Draw())
	}
	current := next.Current()
	if current == piece.None && len(queue) > 0 {
		current, queue = queue[0], queue[1:]
	}
	sc.pos, err = game.NewPosition(next.Board(), current, queue, next.Hold(), next.CanHold())
	if err != nil {
		return nil, err
	}
	sc.invalidatePlays()

	var sb strings.Builder
	fmt.Fprintf(&sb, "played %s", m.ShortDescription())
	if pl.LinesCleared > 0 {
		fmt.Fprintf(&sb, ", cleared %d for %d points", pl.LinesCleared, gained)
	}
	sb.WriteString("\n")
	sb.WriteString(sc.gameDisplay())
	return msg(sb.String()), nil
}

func (sc *ShellController) pattern(cmd *shellcmd) (*Response, error) {
	if err := sc.requireGame(); err != nil {
		return nil, err
	}
	if sc.solving() {
		return nil, errTetryonSolving
	}
	if cmd.args == nil {
		return nil, errors.New("usage: pattern <name>")
	}
	check, err := sc.player.CheckPattern(context.Background(), sc.pos, cmd.args[0])
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: possible %v, confidence %.2f\n",
		check.Name, check.IsPossible, check.Confidence)
	if check.Reason != "" {
		fmt.Fprintf(&sb, "  %s\n", check.Reason)
	}
	for i, pm := range check.MoveSequence {
		fmt.Fprintf(&sb, "  %d: %s\n", i+1, pm.ShortDescription())
	}
	return msg(sb.String()), nil
}

func (sc *ShellController) patternList(cmd *shellcmd) (*Response, error) {
	if err := sc.ensurePlayer(); err != nil {
		return nil, err
	}
	lib := sc.player.Library()
	var sb strings.Builder
	for _, name := range lib.Names() {
		t, err := lib.Get(name)
		if err != nil {
			return nil, err
		}
		hold := "-"
		if t.HoldPiece != piece.None {
			hold = t.HoldPiece.String()
		}
		fmt.Fprintf(&sb, "%-16s hold %-2s heights %d-%d  success %.2f  attack %.1f\n",
			t.Name, hold, t.MinHeight, t.MaxHeight, t.SuccessRate, t.AttackValue)
	}
	return msg(sb.String()), nil
}

func (sc *ShellController) feasible(cmd *shellcmd) (*Response, error) {
	if err := sc.requireGame(); err != nil {
		return nil, err
	}
	if cmd.args == nil {
		return nil, errors.New("usage: feasible <name>")
	}
	t, err := sc.player.Library().Get(cmd.args[0])
	if err != nil {
		return nil, err
	}
	f := patterns.CheckFeasibility(sc.pos, t, sc.player.Tuning())
	out := fmt.Sprintf("%s: possible %v, confidence %.2f", t.Name, f.Possible, f.Confidence)
	if f.Reason != "" {
		out += ", " + f.Reason
	}
	return msg(out), nil
}

func (sc *ShellController) autoplay(cmd *shellcmd) (*Response, error) {
	return nil, sc.handleAutoplay(cmd.args, cmd.options)
}

func (sc *ShellController) handleAutoplay(args []string, options CmdOptions) error {
	if len(args) == 1 && args[0] == "stop" {
		if sc.autoplayCancel == nil {
			return errors.New("no autoplay batch to stop")
		}
		sc.autoplayCancel()
		sc.showMessage("stopping autoplay...")
		return nil
	}
	if sc.solving() {
		return errTetryonSolving
	}
	var err error
	opts := automatic.Options{Preset: sc.config.GetString("default-preset")}
	if len(args) > 0 {
		opts.Preset = args[0]
	}
	if len(args) > 1 {
		opts.ComparePreset = args[1]
	}
	if len(args) > 2 {
		return errors.New("autoplay takes at most two difficulty presets")
	}
	opts.NumGames, err = options.IntDefault("games", 50)
	if err != nil {
		return err
	}
	opts.Threads, err = options.IntDefault("threads", runtime.NumCPU())
	if err != nil {
		return err
	}
	opts.MaxTurns, err = options.IntDefault("maxturns", 200)
	if err != nil {
		return err
	}
	opts.LogFilename = options.String("file")
	opts.StorePath = options.String("store")
	if sf := options.String("seedfile"); sf != "" {
		opts.Seeds, err = automatic.LoadSeeds(sf)
		if err != nil {
			return err
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	sc.autoplayCancel = cancel
	go func() {
		defer func() { sc.autoplayCancel = nil }()
		summary, err := automatic.RunBatch(ctx, sc.config, opts)
		if err != nil {
			sc.showError(err)
			return
		}
		sc.showMessage(summary.String())
		if hist, herr := summary.ScoreHistogram(opts.Preset, 10); herr == nil {
			sc.showMessage(hist)
		}
	}()
	sc.showMessage(fmt.Sprintf(
		"started autoplay batch of %d games; `autoplay stop` interrupts it",
		opts.NumGames))
	return nil
}

func (sc *ShellController) preset(cmd *shellcmd) (*Response, error) {
	if err := sc.ensurePlayer(); err != nil {
		return nil, err
	}
	if cmd.args == nil {
		return msg(fmt.Sprintf("difficulty preset is %v (choices: %v)",
			sc.player.Preset(), strings.Join(equity.PresetNames(), ", "))), nil
	}
	if sc.solving() {
		return nil, errTetryonSolving
	}
	if err := sc.player.SetPreset(cmd.args[0]); err != nil {
		return nil, err
	}
	return msg("difficulty preset set to " + cmd.args[0]), nil
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return msg(sc.config.SanitizedSettings()), nil
	}
	key := cmd.args[0]
	if len(cmd.args) == 1 {
		return msg(fmt.Sprintf("%s: %s", key, sc.config.GetString(key))), nil
	}
	if sc.solving() {
		return nil, errTetryonSolving
	}
	value := cmd.args[1]
	sc.config.Set(key, value)
	// Settings are captured at player construction, so rebuild the
	// player, keeping its preset.
	if sc.player != nil {
		preset := sc.player.Preset()
		p, err := bot.NewBotTurnPlayer(sc.config)
		if err != nil {
			return nil, err
		}
		if preset != p.Preset() {
			if err := p.SetPreset(preset); err != nil {
				return nil, err
			}
		}
		sc.player = p
		sc.invalidatePlays()
	}
	return msg("set " + key + " to " + value), nil
}

func (sc *ShellController) seeds(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) < 2 {
		return nil, errors.New("usage: seeds <count> <file>")
	}
	n, err := strconv.Atoi(cmd.args[0])
	if err != nil {
		return nil, err
	}
	seeds, err := automatic.GenerateSeeds(n)
	if err != nil {
		return nil, err
	}
	if err := automatic.SaveSeeds(seeds, cmd.args[1]); err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("wrote %d seeds to %s", len(seeds), cmd.args[1])), nil
}

func (sc *ShellController) analyze(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return nil, errors.New("usage: analyze <game-log.csv>")
	}
	analysis, err := automatic.AnalyzeLogFile(cmd.args[0])
	if err != nil {
		return nil, err
	}
	return msg(analysis), nil
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return usage("standard")
	}
	return usageTopic(cmd.args[0])
}

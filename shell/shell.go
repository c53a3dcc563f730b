// Package shell implements the interactive tetryon console. It wraps a
// readline loop around the bot, the pattern library, and the autoplay
// batch runner.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/setpieces/tetryon/ai/bot"
	"github.com/setpieces/tetryon/automatic"
	"github.com/setpieces/tetryon/config"
	"github.com/setpieces/tetryon/game"
	"github.com/setpieces/tetryon/move"
	"github.com/setpieces/tetryon/piece"
)

// previewLen is how many queue pieces an interactive game keeps dealt
// ahead of the current piece.
const previewLen = 5

var (
	errNoData            = errors.New("no data in line")
	errWrongOptionSyntax = errors.New("options need a value, like -seed 38")
	errNoGame            = errors.New("please start a game first with the `new` command")
	errTetryonSolving    = errors.New("the bot is busy; please wait for it to finish, or stop it")
	errQuitting          = errors.New("sending quit signal")
)

type ShellController struct {
	l          *readline.Instance
	config     *config.Config
	execPath   string
	gitVersion string

	player *bot.BotTurnPlayer

	bag     *piece.Bag
	pos     game.Position
	turnNum int
	score   int
	lines   int

	curGenPlays []*move.Move
	curBestMove *move.Move

	autoplayCancel context.CancelFunc
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func NewShellController(cfg *config.Config, execPath string, gitVersion string) *ShellController {
	sc := &ShellController{config: cfg, execPath: execPath, gitVersion: gitVersion}
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mtetryon>\033[0m ",
		HistoryFile:     "/tmp/readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
		AutoComplete:        NewShellCompleter(sc),
	})

	if err != nil {
		panic(err)
	}
	sc.l = l
	return sc
}

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := CmdOptions{}
	lastWasOption := false
	lastOption := ""
	for _, field := range fields[1:] {
		if lastWasOption {
			options[lastOption] = field
			lastWasOption = false
			continue
		}
		// a lone dash is a value (it clears the hold slot), not an option
		if strings.HasPrefix(field, "-") && field != "-" {
			lastWasOption = true
			lastOption = field[1:]
			continue
		}
		args = append(args, field)
	}
	if lastWasOption {
		return nil, errWrongOptionSyntax
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

func (sc *ShellController) showMessage(msg string) {
	showMessage(msg, sc.l.Stderr())
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// solving reports whether a background batch is occupying the bot.
// Commands that mutate the position or the player refuse to run while
// it returns true.
func (sc *ShellController) solving() bool {
	return sc.autoplayCancel != nil || automatic.IsPlaying.Value() > 0
}

func (sc *ShellController) ensurePlayer() error {
	if sc.player != nil {
		return nil
	}
	p, err := bot.NewBotTurnPlayer(sc.config)
	if err != nil {
		return err
	}
	sc.player = p
	return nil
}

func (sc *ShellController) requireGame() error {
	if sc.pos.Board().Width() == 0 {
		return errNoGame
	}
	return nil
}

func (sc *ShellController) invalidatePlays() {
	sc.curGenPlays = nil
	sc.curBestMove = nil
}

func (sc *ShellController) gameDisplay() string {
	var sb strings.Builder
	sb.WriteString(sc.pos.Board().ToDisplayText())
	hold := "-"
	if sc.pos.Hold() != piece.None {
		hold = sc.pos.Hold().String()
	}
	fmt.Fprintf(&sb, "current %v  queue %v  hold %v\n",
		sc.pos.Current(), piece.QueueString(sc.pos.Queue()), hold)
	fmt.Fprintf(&sb, "turn %d  score %d  lines %d\n", sc.turnNum, sc.score, sc.lines)
	return sb.String()
}

func moveTableHeader() string {
	return "     Move                 Actions                          Equity\n"
}

func moveTableRow(idx int, m *move.Move) string {
	return fmt.Sprintf("%3d: %-21s%-33s%6.2f", idx+1,
		m.ShortDescription(), strings.Join(m.ActionStrings(), " "), m.Equity())
}

func (sc *ShellController) executeLine(line string, sig chan os.Signal) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	switch cmd.cmd {
	case "new":
		return sc.newGame(cmd)
	case "show", "s":
		return sc.show(cmd)
	case "queue":
		return sc.setQueue(cmd)
	case "piece":
		return sc.setPiece(cmd)
	case "hold":
		return sc.setHold(cmd)
	case "gen":
		return sc.generate(cmd)
	case "best":
		return sc.best(cmd)
	case "play":
		return sc.play(cmd)
	case "pattern":
		return sc.pattern(cmd)
	case "patterns":
		return sc.patternList(cmd)
	case "feasible":
		return sc.feasible(cmd)
	case "autoplay":
		return sc.autoplay(cmd)
	case "preset":
		return sc.preset(cmd)
	case "set":
		return sc.set(cmd)
	case "seeds":
		return sc.seeds(cmd)
	case "analyze":
		return sc.analyze(cmd)
	case "version":
		return msg("tetryon " + sc.gitVersion), nil
	case "help":
		return sc.help(cmd)
	case "exit", "bye":
		sig <- syscall.SIGINT
		return nil, errQuitting
	default:
		log.Debug().Msgf("you said: %v", strconv.Quote(line))
		return nil, nil
	}
}

func (sc *ShellController) standardModeSwitch(line string, sig chan os.Signal) error {
	resp, err := sc.executeLine(line, sig)
	if err != nil {
		return err
	}
	if resp != nil {
		sc.showMessage(resp.message)
	}
	return nil
}

func (sc *ShellController) Loop(sig chan os.Signal) {

	defer sc.l.Close()

	for {

		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		err = sc.standardModeSwitch(line, sig)
		if err == errQuitting {
			break
		} else if err != nil {
			sc.showError(err)
		}

	}
	log.Debug().Msgf("Exiting readline loop...")
}

// Execute runs a single command line and returns, for one-shot
// invocations from the command line.
func (sc *ShellController) Execute(sig chan os.Signal, line string) {
	defer sc.l.Close()
	err := sc.standardModeSwitch(line, sig)
	if err != nil && err != errQuitting {
		sc.showError(err)
	}
}

func (sc *ShellController) Cleanup() {
	if sc.autoplayCancel != nil {
		sc.autoplayCancel()
	}
}

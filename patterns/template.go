// Package patterns answers "can this opening setup still be built from
// here": it keeps a library of known setup templates and decides, per
// position, whether a template is reachable, first with a cheap feasibility
// estimate and then with a bounded depth-first solve.
package patterns

import (
	"fmt"
	"math/bits"
	"os"
	"sort"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/setpieces/tetryon/board"
	"github.com/setpieces/tetryon/piece"
)

// Template describes a target setup as two masks anchored to the board
// floor: cells that must be filled and cells that must stay empty. Rows
// index from the top of the template region, the last row lying on the
// board's bottom row. Cells in neither mask are unconstrained.
type Template struct {
	Name string
	// Occupied and Empty are parallel per-row masks, bit c = column c.
	Occupied []uint64
	Empty    []uint64
	// Width is the board width the masks were drawn for.
	Width int
	// MinHeight is the stack height the finished setup reaches; MaxHeight
	// is the tallest stack tolerated while building toward it.
	MinHeight int
	MaxHeight int
	// HoldPiece, when not None, must sit in the hold slot for the setup to
	// count as complete.
	HoldPiece piece.Piece
	// SuccessRate is the prior probability that the setup comes together
	// from a neutral board, used as the confidence baseline.
	SuccessRate float64
	// AttackValue is the payoff the setup promises, in attack lines.
	AttackValue float64
}

// Validate checks the template's internal consistency. It is called for
// every template entering a library.
func (t *Template) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("template needs a name")
	}
	if t.Width < board.MinWidth || t.Width > board.MaxWidth {
		return fmt.Errorf("template %s: width %d outside [%d, %d]", t.Name, t.Width, board.MinWidth, board.MaxWidth)
	}
	if len(t.Occupied) == 0 || len(t.Occupied) != len(t.Empty) {
		return fmt.Errorf("template %s: occupied and empty masks must align row for row", t.Name)
	}
	full := (uint64(1) << uint(t.Width)) - 1
	for i := range t.Occupied {
		if t.Occupied[i]&^full != 0 || t.Empty[i]&^full != 0 {
			return fmt.Errorf("template %s: row %d has bits beyond column %d", t.Name, i, t.Width-1)
		}
		if t.Occupied[i]&t.Empty[i] != 0 {
			return fmt.Errorf("template %s: row %d requires a cell both filled and empty", t.Name, i)
		}
	}
	if t.MinHeight < 1 || t.MaxHeight < t.MinHeight {
		return fmt.Errorf("template %s: height bounds %d..%d are inverted or empty", t.Name, t.MinHeight, t.MaxHeight)
	}
	if t.SuccessRate < 0 || t.SuccessRate > 1 {
		return fmt.Errorf("template %s: success rate %v outside [0, 1]", t.Name, t.SuccessRate)
	}
	if t.AttackValue < 0 {
		return fmt.Errorf("template %s: negative attack value", t.Name)
	}
	return nil
}

// RequiredCells counts the cells the template demands filled.
func (t *Template) RequiredCells() int {
	n := 0
	for _, m := range t.Occupied {
		n += bits.OnesCount64(m)
	}
	return n
}

// rowOnBoard maps template row i onto its board row for a given height.
func (t *Template) rowOnBoard(b board.Board, i int) int {
	return b.Height() - len(t.Occupied) + i
}

// Matches reports whether the board satisfies both masks.
func (t *Template) Matches(b board.Board) bool {
	if b.Width() != t.Width || b.Height() < len(t.Occupied) {
		return false
	}
	for i := range t.Occupied {
		row := b.Row(t.rowOnBoard(b, i))
		if row&t.Occupied[i] != t.Occupied[i] {
			return false
		}
		if row&t.Empty[i] != 0 {
			return false
		}
	}
	return true
}

// MissingCells counts required cells the board has not filled yet.
func (t *Template) MissingCells(b board.Board) int {
	n := 0
	for i := range t.Occupied {
		n += bits.OnesCount64(t.Occupied[i] &^ b.Row(t.rowOnBoard(b, i)))
	}
	return n
}

// Violations counts filled cells sitting where the template demands empty.
func (t *Template) Violations(b board.Board) int {
	n := 0
	for i := range t.Empty {
		n += bits.OnesCount64(t.Empty[i] & b.Row(t.rowOnBoard(b, i)))
	}
	return n
}

// OverlapCells counts required cells the board already has.
func (t *Template) OverlapCells(b board.Board) int {
	return t.RequiredCells() - t.MissingCells(b)
}

// occupiedOnBoardRow returns the occupied mask applying to a board row, or
// zero when the row is above the template region.
func (t *Template) occupiedOnBoardRow(b board.Board, y int) uint64 {
	i := y - (b.Height() - len(t.Occupied))
	if i < 0 || i >= len(t.Occupied) {
		return 0
	}
	return t.Occupied[i]
}

// templateSpec is the YAML form: rows drawn with 'X' (must fill),
// '.' (must stay empty) and '?' (unconstrained), top row first.
type templateSpec struct {
	Name        string   `yaml:"name"`
	Rows        []string `yaml:"rows"`
	MinHeight   int      `yaml:"minHeight"`
	MaxHeight   int      `yaml:"maxHeight"`
	HoldPiece   string   `yaml:"holdPiece"`
	SuccessRate float64  `yaml:"successRate"`
	AttackValue float64  `yaml:"attackValue"`
}

// FromRows builds a template from drawn rows, top row first.
func FromRows(name string, rows []string, minHeight, maxHeight int, hold piece.Piece, successRate, attackValue float64) (*Template, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("template %s: no rows", name)
	}
	t := &Template{
		Name:        name,
		Width:       len(rows[0]),
		MinHeight:   minHeight,
		MaxHeight:   maxHeight,
		HoldPiece:   hold,
		SuccessRate: successRate,
		AttackValue: attackValue,
	}
	if t.MinHeight == 0 {
		t.MinHeight = len(rows)
	}
	if t.MaxHeight == 0 {
		t.MaxHeight = t.MinHeight + 4
	}
	for i, r := range rows {
		if len(r) != t.Width {
			return nil, fmt.Errorf("template %s: row %d is %d wide, want %d", name, i, len(r), t.Width)
		}
		var occ, emp uint64
		for x := 0; x < len(r); x++ {
			switch r[x] {
			case 'X', '#':
				occ |= 1 << uint(x)
			case '.':
				emp |= 1 << uint(x)
			case '?':
			default:
				return nil, fmt.Errorf("template %s: row %d has unknown cell %q", name, i, string(r[x]))
			}
		}
		t.Occupied = append(t.Occupied, occ)
		t.Empty = append(t.Empty, emp)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Library is a named collection of validated templates.
type Library struct {
	templates map[string]*Template
}

// NewLibrary returns a library preloaded with the built-in setups.
func NewLibrary() *Library {
	lib := &Library{templates: map[string]*Template{}}
	for _, t := range builtinTemplates() {
		lib.templates[t.Name] = t
	}
	return lib
}

// Add validates and inserts a template, replacing any same-named one.
func (l *Library) Add(t *Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	l.templates[t.Name] = t
	return nil
}

// Get looks a template up by name.
func (l *Library) Get(name string) (*Template, error) {
	t, ok := l.templates[name]
	if !ok {
		return nil, fmt.Errorf("unknown template %q (have %v)", name, l.Names())
	}
	return t, nil
}

// Names lists the library's template names, sorted.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.templates))
	for n := range l.templates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns the templates in name order.
func (l *Library) All() []*Template {
	out := make([]*Template, 0, len(l.templates))
	for _, n := range l.Names() {
		out = append(out, l.templates[n])
	}
	return out
}

// LoadFile merges templates from a YAML file into the library. The file is
// a list of template specs; every spec must validate or nothing merges.
func (l *Library) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var specs []templateSpec
	if err := yaml.Unmarshal(raw, &specs); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	loaded := make([]*Template, 0, len(specs))
	for _, spec := range specs {
		hold := piece.None
		if spec.HoldPiece != "" {
			hold, err = piece.FromLetter(spec.HoldPiece[0])
			if err != nil {
				return fmt.Errorf("template %s in %s: %w", spec.Name, path, err)
			}
		}
		t, err := FromRows(spec.Name, spec.Rows, spec.MinHeight, spec.MaxHeight, hold, spec.SuccessRate, spec.AttackValue)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		loaded = append(loaded, t)
	}
	for _, t := range loaded {
		l.templates[t.Name] = t
		log.Debug().Str("template", t.Name).Msg("loaded-pattern-template")
	}
	return nil
}

func mustFromRows(name string, rows []string, minH, maxH int, hold piece.Piece, sr, av float64) *Template {
	t, err := FromRows(name, rows, minH, maxH, hold, sr, av)
	if err != nil {
		panic(err)
	}
	return t
}

// builtinTemplates returns the standard-width setups shipped with the
// engine.
func builtinTemplates() []*Template {
	return []*Template{
		// left-side six-wide slab with the right third kept clear, the
		// usual first stage of a perfect-clear attempt
		mustFromRows("pc-base", []string{
			"XXXXXX....",
			"XXXXXX....",
			"XXXXXX....",
			"XXXXXX....",
		}, 4, 8, piece.None, 0.55, 10),
		// a double-slot bed: full bottom row except the notch column,
		// walls around a three-wide pocket above it, T held for the spin
		mustFromRows("tsd-bed", []string{
			"XXX...XXXX",
			"XXXX.XXXXX",
		}, 2, 6, piece.T, 0.65, 4),
		// staircase corner for a cannon build on the left, notch kept
		// open at column 4
		mustFromRows("dt-cannon-base", []string{
			"XX????????",
			"XXX???????",
			"XXXX.?????",
		}, 3, 7, piece.T, 0.45, 6),
		// nine columns flat with the last kept open for the payoff bar
		mustFromRows("tetris-well", []string{
			"XXXXXXXXX.",
			"XXXXXXXXX.",
			"XXXXXXXXX.",
			"XXXXXXXXX.",
		}, 4, 9, piece.I, 0.7, 4),
	}
}

// Package equity turns placement outcomes into scores. The static
// calculator weighs classic stacking features extracted from the board with
// bit arithmetic; the pattern bonus calculator adds value for progress
// toward known setup templates.
package equity

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"

	"github.com/setpieces/tetryon/board"
	"github.com/setpieces/tetryon/game"
)

// Feature keys. Every weight set must bind all of them.
const (
	FeatLandingHeight    = "landingHeight"
	FeatLinesCleared     = "linesCleared"
	FeatRowTransitions   = "rowTransitions"
	FeatColTransitions   = "colTransitions"
	FeatHoles            = "holes"
	FeatWellDepth        = "wellDepth"
	FeatBlocksAboveHoles = "blocksAboveHoles"
	FeatBumpiness        = "bumpiness"
	FeatMaxHeight        = "maxHeight"
	FeatRowFillRatio     = "rowFillRatio"
)

// RequiredFeatures lists every feature key a weight set must provide.
var RequiredFeatures = []string{
	FeatLandingHeight,
	FeatLinesCleared,
	FeatRowTransitions,
	FeatColTransitions,
	FeatHoles,
	FeatWellDepth,
	FeatBlocksAboveHoles,
	FeatBumpiness,
	FeatMaxHeight,
	FeatRowFillRatio,
}

// FeatureSet holds one extracted feature vector. Values are float64 so
// they can be dotted with weights directly.
type FeatureSet struct {
	LandingHeight    float64
	LinesCleared     float64
	RowTransitions   float64
	ColTransitions   float64
	Holes            float64
	WellDepth        float64
	BlocksAboveHoles float64
	Bumpiness        float64
	MaxHeight        float64
	RowFillRatio     float64
}

// Map renders the vector keyed by feature name, for explain output and
// logging.
func (fs FeatureSet) Map() map[string]float64 {
	return map[string]float64{
		FeatLandingHeight:    fs.LandingHeight,
		FeatLinesCleared:     fs.LinesCleared,
		FeatRowTransitions:   fs.RowTransitions,
		FeatColTransitions:   fs.ColTransitions,
		FeatHoles:            fs.Holes,
		FeatWellDepth:        fs.WellDepth,
		FeatBlocksAboveHoles: fs.BlocksAboveHoles,
		FeatBumpiness:        fs.Bumpiness,
		FeatMaxHeight:        fs.MaxHeight,
		FeatRowFillRatio:     fs.RowFillRatio,
	}
}

// Dot returns the weighted sum of the vector under w. Validate w first;
// missing keys read as zero here.
func (fs FeatureSet) Dot(w Weights) float64 {
	return fs.LandingHeight*w[FeatLandingHeight] +
		fs.LinesCleared*w[FeatLinesCleared] +
		fs.RowTransitions*w[FeatRowTransitions] +
		fs.ColTransitions*w[FeatColTransitions] +
		fs.Holes*w[FeatHoles] +
		fs.WellDepth*w[FeatWellDepth] +
		fs.BlocksAboveHoles*w[FeatBlocksAboveHoles] +
		fs.Bumpiness*w[FeatBumpiness] +
		fs.MaxHeight*w[FeatMaxHeight] +
		fs.RowFillRatio*w[FeatRowFillRatio]
}

// Extract computes the feature vector for a placement: board-shape features
// on the successor board plus the landing height and cleared-line count of
// the placement itself.
func Extract(pl *game.Placement) FeatureSet {
	b := pl.Position.Board()
	fs := ExtractBoard(b)
	fs.LandingHeight = float64(pl.LandingHeight())
	fs.LinesCleared = float64(pl.LinesCleared)
	return fs
}

// ExtractBoard computes the board-shape features alone, leaving the
// placement-specific entries zero.
func ExtractBoard(b board.Board) FeatureSet {
	w, h := b.Width(), b.Height()
	full := b.FullMask()
	rightWall := uint64(1) << uint(w-1)

	var fs FeatureSet
	var covered uint64
	holesPerRow := make([]uint64, h)

	rowT, colT, holes, wells := 0, 0, 0, 0
	cells := 0
	prev := uint64(0) // virtual empty row above the top
	for y := 0; y < h; y++ {
		row := b.Row(y)
		cells += bits.OnesCount64(row)

		// transitions along the row, with both walls filled
		aug := (row << 1) | 1
		cmp := row | (1 << uint(w))
		rowT += bits.OnesCount64(aug ^ cmp)

		// transitions down each column
		colT += bits.OnesCount64(prev ^ row)
		prev = row

		// holes: empty cells with anything above them
		holesPerRow[y] = covered &^ row
		holes += bits.OnesCount64(holesPerRow[y])

		// open wells: empty, both neighbors filled, nothing above
		leftFilled := (row << 1) | 1
		rightFilled := (row >> 1) | rightWall
		wells += bits.OnesCount64(leftFilled & rightFilled &^ row &^ covered & full)

		covered |= row
	}
	// the floor is filled
	colT += bits.OnesCount64(prev ^ full)

	// filled cells stacked on top of holes, counted bottom-up
	blocksAbove := 0
	var holesBelow uint64
	for y := h - 1; y >= 0; y-- {
		blocksAbove += bits.OnesCount64(b.Row(y) & holesBelow)
		holesBelow |= holesPerRow[y]
	}

	heights := b.ColumnHeights()
	bump := 0
	for i := 1; i < len(heights); i++ {
		d := heights[i] - heights[i-1]
		if d < 0 {
			d = -d
		}
		bump += d
	}
	maxH := 0
	for _, ch := range heights {
		if ch > maxH {
			maxH = ch
		}
	}

	fs.RowTransitions = float64(rowT)
	fs.ColTransitions = float64(colT)
	fs.Holes = float64(holes)
	fs.WellDepth = float64(wells)
	fs.BlocksAboveHoles = float64(blocksAbove)
	fs.Bumpiness = float64(bump)
	fs.MaxHeight = float64(maxH)
	if maxH > 0 {
		fs.RowFillRatio = float64(cells) / float64(w*maxH)
	}
	return fs
}

// Weights binds feature keys to their multipliers.
type Weights map[string]float64

// Validate fails unless every required feature key is present and finite.
// The error names all missing keys at once.
func (w Weights) Validate() error {
	var missing []string
	for _, k := range RequiredFeatures {
		if _, ok := w[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("weights missing required features: %s", strings.Join(missing, ", "))
	}
	for k, v := range w {
		if v != v || v > 1e18 || v < -1e18 {
			return fmt.Errorf("weight %q is not a finite number", k)
		}
	}
	return nil
}

// Clone returns an independent copy of the weight map.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

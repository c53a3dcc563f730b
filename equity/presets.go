package equity

import (
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Built-in difficulty presets. The expert set follows the classic
// six-feature linear controller weights, extended with the extra shape
// features this evaluator tracks; the lower tiers soften the penalties so
// the engine plays more forgiving boards.
var presets = map[string]Weights{
	"easy": {
		FeatLandingHeight:    -2.0,
		FeatLinesCleared:     3.0,
		FeatRowTransitions:   -1.0,
		FeatColTransitions:   -1.0,
		FeatHoles:            -4.0,
		FeatWellDepth:        -1.0,
		FeatBlocksAboveHoles: -0.5,
		FeatBumpiness:        -0.5,
		FeatMaxHeight:        -1.0,
		FeatRowFillRatio:     2.0,
	},
	"medium": {
		FeatLandingHeight:    -2.7,
		FeatLinesCleared:     3.2,
		FeatRowTransitions:   -1.4,
		FeatColTransitions:   -1.6,
		FeatHoles:            -5.5,
		FeatWellDepth:        -1.2,
		FeatBlocksAboveHoles: -0.8,
		FeatBumpiness:        -0.7,
		FeatMaxHeight:        -1.2,
		FeatRowFillRatio:     2.5,
	},
	"hard": {
		FeatLandingHeight:    -3.2,
		FeatLinesCleared:     3.5,
		FeatRowTransitions:   -1.8,
		FeatColTransitions:   -2.2,
		FeatHoles:            -7.0,
		FeatWellDepth:        -1.6,
		FeatBlocksAboveHoles: -1.1,
		FeatBumpiness:        -0.9,
		FeatMaxHeight:        -1.5,
		FeatRowFillRatio:     3.0,
	},
	"expert": {
		FeatLandingHeight:    -4.5,
		FeatLinesCleared:     3.4,
		FeatRowTransitions:   -3.2,
		FeatColTransitions:   -9.3,
		FeatHoles:            -7.9,
		FeatWellDepth:        -3.4,
		FeatBlocksAboveHoles: -1.4,
		FeatBumpiness:        -1.1,
		FeatMaxHeight:        -1.8,
		FeatRowFillRatio:     3.2,
	},
}

// DefaultPreset is used when no preset is named anywhere.
const DefaultPreset = "medium"

// PresetNames lists the available preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Preset returns a copy of the named weight set.
func Preset(name string) (Weights, error) {
	w, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (have %v)", name, PresetNames())
	}
	return w.Clone(), nil
}

// LoadPresetsFile merges preset definitions from a YAML file of the shape
//
//	presetname:
//	  featureKey: weight
//
// into the built-in table, overriding same-named presets. Every loaded set
// must validate; a bad file changes nothing.
func LoadPresetsFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	loaded := map[string]Weights{}
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	for name, w := range loaded {
		if err := w.Validate(); err != nil {
			return fmt.Errorf("preset %q in %s: %w", name, path, err)
		}
	}
	for name, w := range loaded {
		presets[name] = w
		log.Debug().Str("preset", name).Msg("loaded-weight-preset")
	}
	return nil
}

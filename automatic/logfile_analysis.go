package automatic

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/setpieces/tetryon/stats"
)

// AnalyzeLogFile analyzes the given turn CSV file and spits out a bunch
// of statistics about the final score of every game, by difficulty.
func AnalyzeLogFile(filepath string) (string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	r := csv.NewReader(file)

	// Record looks like:
	// preset,gameID,turn,piece,play,cleared,score,totalscore,equity,maxheight

	type gameAgg struct {
		preset string
		turns  int
		score  int
		lines  int
	}
	games := map[string]*gameAgg{}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if record[0] == "preset" {
			// this is the header line
			continue
		}
		turn, err := strconv.Atoi(record[2])
		if err != nil {
			return "", err
		}
		cleared, err := strconv.Atoi(record[5])
		if err != nil {
			return "", err
		}
		total, err := strconv.Atoi(record[7])
		if err != nil {
			return "", err
		}
		agg := games[record[1]]
		if agg == nil {
			agg = &gameAgg{preset: record[0]}
			games[record[1]] = agg
		}
		if turn > agg.turns {
			agg.turns = turn
			agg.score = total
		}
		agg.lines += cleared
	}

	scoreBy := map[string]*stats.Statistic{}
	turnsBy := map[string]*stats.Statistic{}
	linesBy := map[string]*stats.Statistic{}
	for _, agg := range games {
		if scoreBy[agg.preset] == nil {
			scoreBy[agg.preset] = &stats.Statistic{}
			turnsBy[agg.preset] = &stats.Statistic{}
			linesBy[agg.preset] = &stats.Statistic{}
		}
		scoreBy[agg.preset].Push(float64(agg.score))
		turnsBy[agg.preset].Push(float64(agg.turns))
		linesBy[agg.preset].Push(float64(agg.lines))
	}

	presets := make([]string, 0, len(scoreBy))
	for name := range scoreBy {
		presets = append(presets, name)
	}
	sort.Strings(presets)

	// build stats string
	out := fmt.Sprintf("Games played: %d\n", len(games))
	for _, name := range presets {
		out += fmt.Sprintf("%v games: %d\n", name, scoreBy[name].Iterations())
		out += fmt.Sprintf("%v Mean Score: %.6f  Stdev: %.6f\n",
			name, scoreBy[name].Mean(), scoreBy[name].Stdev())
		out += fmt.Sprintf("%v Mean Turns: %.2f  Mean Lines: %.2f\n",
			name, turnsBy[name].Mean(), linesBy[name].Mean())
	}
	if len(presets) == 2 {
		z := stats.ZScore(scoreBy[presets[0]], scoreBy[presets[1]])
		out += fmt.Sprintf("Score z-statistic (%v vs %v): %.4f\n", presets[0], presets[1], z)
		if math.Abs(z) > stats.ZVal(95) {
			out += "The difference is significant at the 95% level.\n"
		} else {
			out += "The difference is not significant at the 95% level.\n"
		}
	}

	return out, nil
}

package automatic

// Data collection for automatic games. Computer vs gravity, over and over.

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/setpieces/tetryon/config"
	"github.com/setpieces/tetryon/stats"
)

var (
	GameCounter *expvar.Int
	IsPlaying   *expvar.Int
)

func init() {
	GameCounter = expvar.NewInt("gameCounter")
	IsPlaying = expvar.NewInt("isPlaying")
}

// Job asks a worker for one game at a difficulty.
type Job struct {
	Seed   uint64
	Preset string
}

// Options shapes a batch run.
type Options struct {
	NumGames int
	Threads  int
	Preset   string
	// ComparePreset, when set, replays every seed at this difficulty too,
	// so the comparison shares its piece sequences.
	ComparePreset string
	MaxTurns      int
	LogFilename   string
	StorePath     string
	// Seeds pins the bag sequences; generated randomly when empty.
	Seeds []uint64
}

// BatchSummary aggregates a finished run.
type BatchSummary struct {
	Results  []GameResult
	ByPreset map[string]*stats.Statistic
}

func (s *BatchSummary) String() string {
	var sb strings.Builder
	presets := make([]string, 0, len(s.ByPreset))
	for name := range s.ByPreset {
		presets = append(presets, name)
	}
	sort.Strings(presets)
	fmt.Fprintf(&sb, "Games played: %d\n", len(s.Results))
	for _, name := range presets {
		st := s.ByPreset[name]
		fmt.Fprintf(&sb, "%v: games %d  mean score %.2f  stdev %.2f  min %.0f  max %.0f\n",
			name, st.Iterations(), st.Mean(), st.Stdev(), st.Min(), st.Max())
	}
	if len(presets) == 2 {
		z := stats.ZScore(s.ByPreset[presets[0]], s.ByPreset[presets[1]])
		verdict := "not significant at the 95% level"
		if math.Abs(z) > stats.ZVal(95) {
			verdict = "significant at the 95% level"
		}
		fmt.Fprintf(&sb, "score z-statistic (%v vs %v): %.3f, %s\n",
			presets[0], presets[1], z, verdict)
	}
	return sb.String()
}

// ScoreHistogram renders a text histogram of final scores at a difficulty.
func (s *BatchSummary) ScoreHistogram(preset string, bins int) (string, error) {
	scores := []float64{}
	for _, res := range s.Results {
		if res.Preset == preset {
			scores = append(scores, float64(res.Score))
		}
	}
	if len(scores) == 0 {
		return "", fmt.Errorf("no games recorded for preset %v", preset)
	}
	allEqual := true
	for _, v := range scores[1:] {
		if v != scores[0] {
			allEqual = false
			break
		}
	}
	if allEqual {
		return fmt.Sprintf("%d games, every score %.0f\n", len(scores), scores[0]), nil
	}
	hist := histogram.Hist(bins, scores)
	var sb strings.Builder
	if err := histogram.Fprint(&sb, hist, histogram.Linear(40)); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// RunBatch plays NumGames per difficulty across Threads workers and
// blocks until every game finishes.
func RunBatch(ctx context.Context, cfg *config.Config, opts Options) (*BatchSummary, error) {
	if IsPlaying.Value() > 0 {
		return nil, errors.New("games are already being played, please wait till complete")
	}
	if opts.NumGames <= 0 {
		return nil, errors.New("need at least one game")
	}
	threads := opts.Threads
	if threads <= 0 {
		threads = 1
	}
	preset := opts.Preset
	if preset == "" {
		preset = cfg.GetString("default-preset")
	}

	seeds := opts.Seeds
	if len(seeds) == 0 {
		var err error
		seeds, err = GenerateSeeds(opts.NumGames)
		if err != nil {
			return nil, err
		}
	}
	if len(seeds) < opts.NumGames {
		return nil, fmt.Errorf("have %d seeds for %d games", len(seeds), opts.NumGames)
	}
	seeds = seeds[:opts.NumGames]

	jobList := make([]Job, 0, 2*len(seeds))
	for _, seed := range seeds {
		jobList = append(jobList, Job{Seed: seed, Preset: preset})
		if opts.ComparePreset != "" {
			jobList = append(jobList, Job{Seed: seed, Preset: opts.ComparePreset})
		}
	}

	var store *GameStore
	if opts.StorePath != "" {
		var err error
		store, err = NewGameStore(opts.StorePath)
		if err != nil {
			return nil, err
		}
		defer store.Close()
	}

	logChan := make(chan string, 100)
	var logDone chan struct{}
	if opts.LogFilename != "" {
		logfile, err := os.Create(opts.LogFilename)
		if err != nil {
			return nil, err
		}
		logDone = make(chan struct{})
		go func() {
			defer close(logDone)
			logfile.WriteString("preset,gameID,turn,piece,play,cleared,score,totalscore,equity,maxheight\n")
			for msg := range logChan {
				logfile.WriteString(msg)
			}
			logfile.Close()
		}()
	} else {
		logChan = nil
	}

	log.Debug().Msgf("Starting %v games, %v threads", len(jobList), threads)
	GameCounter.Set(0)

	jobs := make(chan Job, 100)
	results := make(chan GameResult, 100)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < threads; i++ {
		g.Go(func() error {
			r, err := NewGameRunner(logChan, cfg)
			if err != nil {
				return err
			}
			IsPlaying.Add(1)
			defer IsPlaying.Add(-1)
			for job := range jobs {
				if gctx.Err() != nil {
					continue
				}
				if err := r.SetPreset(job.Preset); err != nil {
					return err
				}
				res, err := r.PlayFullGame(gctx, job.Seed, opts.MaxTurns)
				if err != nil {
					return err
				}
				results <- res
				GameCounter.Add(1)
			}
			return nil
		})
	}

	go func() {
	feed:
		for _, job := range jobList {
			select {
			case jobs <- job:
			case <-gctx.Done():
				log.Info().Msg("Got stop signal, exiting soon...")
				break feed
			}
		}
		close(jobs)
	}()

	summary := &BatchSummary{ByPreset: map[string]*stats.Statistic{}}
	var storeErr error
	collectDone := make(chan struct{})
	go func() {
		defer close(collectDone)
		for res := range results {
			summary.Results = append(summary.Results, res)
			st := summary.ByPreset[res.Preset]
			if st == nil {
				st = &stats.Statistic{}
				summary.ByPreset[res.Preset] = st
			}
			st.Push(float64(res.Score))
			if store != nil {
				if err := store.AddGame(res); err != nil && storeErr == nil {
					storeErr = err
				}
			}
		}
	}()

	err := g.Wait()
	close(results)
	<-collectDone
	if logChan != nil {
		close(logChan)
		<-logDone
	}
	if err != nil {
		return nil, err
	}
	if storeErr != nil {
		return nil, storeErr
	}
	sort.Slice(summary.Results, func(i, j int) bool {
		return summary.Results[i].GameID < summary.Results[j].GameID
	})
	log.Info().Msg("All games finished.")
	return summary, nil
}

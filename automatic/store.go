package automatic

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

const gamesSchema = `
CREATE TABLE IF NOT EXISTS games (
	id TEXT PRIMARY KEY,
	preset TEXT NOT NULL,
	seed INTEGER NOT NULL,
	turns INTEGER NOT NULL,
	score INTEGER NOT NULL,
	lines INTEGER NOT NULL,
	topout INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	played_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS games_preset ON games(preset);
`

// GameStore persists finished games to a sqlite file for later analysis.
type GameStore struct {
	db *sql.DB
}

func NewGameStore(path string) (*GameStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(gamesSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &GameStore{db: db}, nil
}

func (s *GameStore) Close() error {
	return s.db.Close()
}

// AddGame records a finished game, replacing any previous run of the
// same seed at the same difficulty.
func (s *GameStore) AddGame(res GameResult) error {
	topout := 0
	if res.TopOut {
		topout = 1
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO games
		 (id, preset, seed, turns, score, lines, topout, duration_ms, played_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.GameID, res.Preset, int64(res.Seed), res.Turns, res.Score, res.Lines,
		topout, res.Duration.Milliseconds(), time.Now().UTC().Format(time.RFC3339))
	return err
}

// PresetScores returns every stored final score at a difficulty.
func (s *GameStore) PresetScores(preset string) ([]float64, error) {
	rows, err := s.db.Query(`SELECT score FROM games WHERE preset = ? ORDER BY id`, preset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var scores []float64
	for rows.Next() {
		var score int
		if err := rows.Scan(&score); err != nil {
			return nil, err
		}
		scores = append(scores, float64(score))
	}
	return scores, rows.Err()
}

// TopGames returns the best n stored games by score.
func (s *GameStore) TopGames(n int) ([]GameResult, error) {
	rows, err := s.db.Query(
		`SELECT id, preset, seed, turns, score, lines, topout, duration_ms
		 FROM games ORDER BY score DESC, id LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []GameResult
	for rows.Next() {
		var res GameResult
		var seed int64
		var topout int
		var durMs int64
		if err := rows.Scan(&res.GameID, &res.Preset, &seed, &res.Turns,
			&res.Score, &res.Lines, &topout, &durMs); err != nil {
			return nil, err
		}
		res.Seed = uint64(seed)
		res.TopOut = topout != 0
		res.Duration = time.Duration(durMs) * time.Millisecond
		out = append(out, res)
	}
	return out, rows.Err()
}

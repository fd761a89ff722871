// Package storage provides SQLite-based persistence for round history.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/tui-scratch/internal/betting"
	"github.com/vovakirdan/tui-scratch/internal/core"
	"github.com/vovakirdan/tui-scratch/internal/games/scratch"
)

// Fixed-width UTC timestamps sort lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages the SQLite database connection for round history.
// It implements betting.Recorder.
type Store struct {
	db *sql.DB
}

var _ betting.Recorder = (*Store)(nil)

// Stats summarizes the recorded history.
type Stats struct {
	Rounds   int
	Wins     int
	Losses   int
	AutoRuns int
}

// WinRate returns the share of decided rounds that were wins.
func (s Stats) WinRate() float64 {
	decided := s.Wins + s.Losses
	if decided == 0 {
		return 0
	}
	return float64(s.Wins) / float64(decided)
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS rounds (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL DEFAULT '',
			mode TEXT NOT NULL,
			source TEXT NOT NULL,
			bet REAL NOT NULL DEFAULT 0,
			mines INTEGER NOT NULL DEFAULT 1,
			result TEXT NOT NULL DEFAULT '',
			winning_key TEXT NOT NULL DEFAULT '',
			revealed INTEGER NOT NULL DEFAULT 0,
			reason TEXT NOT NULL,
			entries TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_rounds_created ON rounds(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_rounds_run_id ON rounds(run_id);

		CREATE TABLE IF NOT EXISTS auto_runs (
			id TEXT PRIMARY KEY,
			requested_bets INTEGER NOT NULL DEFAULT 0,
			rounds_played INTEGER NOT NULL DEFAULT 0,
			stop_reason TEXT NOT NULL DEFAULT '',
			completed INTEGER NOT NULL DEFAULT 0,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_auto_runs_ended ON auto_runs(ended_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRound records a settled round. Saving the same round ID twice replaces it.
func (s *Store) SaveRound(r betting.RoundRecord) error {
	entries, err := json.Marshal(r.Entries)
	if err != nil {
		return fmt.Errorf("storage: cannot encode entries: %w", err)
	}
	if r.Entries == nil {
		entries = []byte("[]")
	}

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO rounds
		 (id, run_id, mode, source, bet, mines, result, winning_key, revealed, reason, entries, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.RunID, string(r.Mode), r.Source, r.Bet, r.Mines, string(r.Result),
		string(r.WinningKey), r.Revealed, string(r.Reason), string(entries), formatTime(r.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save round: %w", err)
	}
	return nil
}

// SaveAutoRun records a finished auto run.
func (s *Store) SaveAutoRun(r betting.AutoRunRecord) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO auto_runs
		 (id, requested_bets, rounds_played, stop_reason, completed, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.RequestedBets, r.RoundsPlayed, r.StopReason, r.Completed,
		formatTime(r.StartedAt), formatTime(r.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save auto run: %w", err)
	}
	return nil
}

const roundColumns = `id, run_id, mode, source, bet, mines, result, winning_key, revealed, reason, entries, created_at`

// RecentRounds retrieves the latest N rounds, newest first.
func (s *Store) RecentRounds(limit int) ([]betting.RoundRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT `+roundColumns+`
		 FROM rounds
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query rounds: %w", err)
	}
	return scanRounds(rows)
}

// RoundsForRun retrieves the rounds of an auto run in play order.
func (s *Store) RoundsForRun(runID string) ([]betting.RoundRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+roundColumns+`
		 FROM rounds
		 WHERE run_id = ?
		 ORDER BY created_at ASC, rowid ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query rounds: %w", err)
	}
	return scanRounds(rows)
}

func scanRounds(rows *sql.Rows) ([]betting.RoundRecord, error) {
	defer rows.Close()

	var out []betting.RoundRecord
	for rows.Next() {
		var (
			r                                         betting.RoundRecord
			mode, result, winningKey, reason, entries string
			createdAt                                 any
		)
		if err := rows.Scan(&r.ID, &r.RunID, &mode, &r.Source, &r.Bet, &r.Mines, &result,
			&winningKey, &r.Revealed, &reason, &entries, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.Mode = core.ParseMode(mode)
		r.Result = core.ParseBetResult(result)
		r.WinningKey = core.ContentKey(winningKey)
		r.Reason = betting.SettleReason(reason)
		r.CreatedAt = parseTime(createdAt)

		var placed []scratch.Entry
		if err := json.Unmarshal([]byte(entries), &placed); err != nil {
			return nil, fmt.Errorf("storage: cannot decode entries of round %s: %w", r.ID, err)
		}
		r.Entries = placed
		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return out, nil
}

// RecentAutoRuns retrieves the latest N auto runs, newest first.
func (s *Store) RecentAutoRuns(limit int) ([]betting.AutoRunRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(
		`SELECT id, requested_bets, rounds_played, stop_reason, completed, started_at, ended_at
		 FROM auto_runs
		 ORDER BY ended_at DESC, rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query auto runs: %w", err)
	}
	defer rows.Close()

	var out []betting.AutoRunRecord
	for rows.Next() {
		var r betting.AutoRunRecord
		var startedAt, endedAt any
		if err := rows.Scan(&r.ID, &r.RequestedBets, &r.RoundsPlayed, &r.StopReason, &r.Completed,
			&startedAt, &endedAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.StartedAt = parseTime(startedAt)
		r.EndedAt = parseTime(endedAt)
		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return out, nil
}

// Stats counts recorded rounds by result.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	err := s.db.QueryRow(
		`SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN result = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN result = ? THEN 1 ELSE 0 END), 0)
		 FROM rounds`,
		string(core.ResultWin), string(core.ResultLost),
	).Scan(&st.Rounds, &st.Wins, &st.Losses)
	if err != nil {
		return st, fmt.Errorf("storage: cannot count rounds: %w", err)
	}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM auto_runs").Scan(&st.AutoRuns); err != nil {
		return st, fmt.Errorf("storage: cannot count auto runs: %w", err)
	}
	return st, nil
}

// ClearHistory deletes every recorded round and auto run.
func (s *Store) ClearHistory() error {
	if _, err := s.db.Exec("DELETE FROM rounds; DELETE FROM auto_runs;"); err != nil {
		return fmt.Errorf("storage: cannot clear history: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

// parseTime handles both time.Time and string columns.
func parseTime(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		if parsed, err := time.Parse(timeLayout, v); err == nil {
			return parsed
		}
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

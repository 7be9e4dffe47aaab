package runlog

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339

	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusFailed   = "failed"
)

// Store is an audit trail of runs and on-chain claims. The server stays the
// source of truth for task state.
type Store struct {
	db *sql.DB
}

type RunStats struct {
	TasksCompleted int
	ClaimsDone     int
	ClaimsFailed   int
}

type Run struct {
	ID        string
	Status    string
	StartedAt time.Time
	Stats     RunStats
	Error     string
}

type Claim struct {
	TxHash    string
	RunID     string
	Address   string
	TaskID    int
	ClaimedAt time.Time
	Reported  bool
}

func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) init() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
        id TEXT PRIMARY KEY,
        address TEXT NOT NULL,
        run_date TEXT NOT NULL,
        started_at TEXT NOT NULL,
        finished_at TEXT,
        status TEXT NOT NULL DEFAULT 'running',
        tasks_completed INTEGER NOT NULL DEFAULT 0,
        claims_done INTEGER NOT NULL DEFAULT 0,
        claims_failed INTEGER NOT NULL DEFAULT 0,
        error TEXT
    )`,
		`CREATE TABLE IF NOT EXISTS claims (
        tx_hash TEXT PRIMARY KEY,
        run_id TEXT NOT NULL,
        address TEXT NOT NULL,
        task_id INTEGER NOT NULL,
        claimed_at TEXT NOT NULL,
        reported INTEGER NOT NULL DEFAULT 0
    )`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// StartRun opens a run for address and returns its id.
func (s *Store) StartRun(address string, now time.Time) (string, error) {
	id := uuid.NewString()
	now = now.UTC()
	_, err := s.db.Exec(`INSERT INTO runs(id, address, run_date, started_at, status) VALUES(?, ?, ?, ?, ?)`,
		id, normalizeAddress(address), now.Format(dateLayout), now.Format(timeLayout), StatusRunning)
	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}
	return id, nil
}

func (s *Store) FinishRun(runID string, stats RunStats, runErr error, now time.Time) error {
	status := StatusFinished
	var errText sql.NullString
	if runErr != nil {
		status = StatusFailed
		errText = sql.NullString{String: runErr.Error(), Valid: true}
	}
	res, err := s.db.Exec(`UPDATE runs SET finished_at = ?, status = ?, tasks_completed = ?, claims_done = ?, claims_failed = ?, error = ? WHERE id = ?`,
		now.UTC().Format(timeLayout), status, stats.TasksCompleted, stats.ClaimsDone, stats.ClaimsFailed, errText, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// RecordClaim stores a mined claim transaction before it is reported to the API.
func (s *Store) RecordClaim(runID, address string, taskID int, txHash string, now time.Time) error {
	_, err := s.db.Exec(`INSERT INTO claims(tx_hash, run_id, address, task_id, claimed_at, reported)
    VALUES(?, ?, ?, ?, ?, 0)
    ON CONFLICT(tx_hash) DO NOTHING`,
		strings.ToLower(txHash), runID, normalizeAddress(address), taskID, now.UTC().Format(timeLayout))
	return err
}

func (s *Store) MarkClaimReported(txHash string) error {
	_, err := s.db.Exec(`UPDATE claims SET reported = 1 WHERE tx_hash = ?`, strings.ToLower(txHash))
	return err
}

// UnreportedClaims lists mined claims whose tx hash never reached the API.
func (s *Store) UnreportedClaims(address string) ([]Claim, error) {
	rows, err := s.db.Query(`SELECT tx_hash, run_id, address, task_id, claimed_at, reported FROM claims
    WHERE address = ? AND reported = 0 ORDER BY claimed_at`, normalizeAddress(address))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []Claim
	for rows.Next() {
		var c Claim
		var claimedAt string
		var reported int
		if err := rows.Scan(&c.TxHash, &c.RunID, &c.Address, &c.TaskID, &claimedAt, &reported); err != nil {
			return nil, err
		}
		c.ClaimedAt, _ = time.Parse(timeLayout, claimedAt)
		c.Reported = reported == 1
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// LastRun returns the most recent run for address, or nil when there is none.
func (s *Store) LastRun(address string) (*Run, error) {
	var run Run
	var startedAt string
	var errText sql.NullString
	err := s.db.QueryRow(`SELECT id, status, started_at, tasks_completed, claims_done, claims_failed, error FROM runs
    WHERE address = ? ORDER BY started_at DESC, rowid DESC LIMIT 1`, normalizeAddress(address)).
		Scan(&run.ID, &run.Status, &startedAt, &run.Stats.TasksCompleted, &run.Stats.ClaimsDone, &run.Stats.ClaimsFailed, &errText)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	run.StartedAt, _ = time.Parse(timeLayout, startedAt)
	run.Error = errText.String
	return &run, nil
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

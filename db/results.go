// Package db stores training runs and their per-round progress in SQLite.
package db

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/aliciaolivaresgil/sslearn/wrapper"
)

var database *sql.DB

// InitDB initializes the SQLite database
func InitDB(path string) error {
	var err error
	database, err = sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS runs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        algorithm VARCHAR(30) NOT NULL,
        dataset VARCHAR(200),
        seed INTEGER,
        max_iterations INTEGER,
        rounds INTEGER DEFAULT 0,
        accuracy REAL,
        status TEXT DEFAULT 'running',
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    CREATE TABLE IF NOT EXISTS round_log (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id INTEGER NOT NULL,
        round INTEGER NOT NULL,
        newly_labeled INTEGER,
        labeled_size INTEGER,
        unlabeled_size INTEGER,
        logged_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        UNIQUE(run_id, round)
    );
    `

	_, err = database.Exec(query)
	return err
}

// Close releases the database handle.
func Close() error {
	if database == nil {
		return nil
	}
	err := database.Close()
	database = nil
	return err
}

// TrainingRun is one orchestration recorded in the store.
type TrainingRun struct {
	ID            int64     `json:"id"`
	Algorithm     string    `json:"algorithm"`
	Dataset       string    `json:"dataset"`
	Seed          int64     `json:"seed"`
	MaxIterations int       `json:"max_iterations"`
	Rounds        int       `json:"rounds"`
	Accuracy      float64   `json:"accuracy"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateRun registers a new run and returns its id.
func CreateRun(algorithm, dataset string, seed int64, maxIterations int) (int64, error) {
	if database == nil {
		return 0, errors.New("database not initialized")
	}
	res, err := database.Exec(`
        INSERT INTO runs (algorithm, dataset, seed, max_iterations)
        VALUES (?, ?, ?, ?)`,
		algorithm, dataset, seed, maxIterations)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// SaveRound appends one round of progress to a run.
func SaveRound(runID int64, stats wrapper.RoundStats) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	_, err := database.Exec(`
        INSERT OR REPLACE INTO round_log (run_id, round, newly_labeled, labeled_size, unlabeled_size)
        VALUES (?, ?, ?, ?, ?)`,
		runID, stats.Round, stats.NewlyLabeled, stats.LabeledSize, stats.UnlabeledSize)
	return err
}

// FinishRun records the run outcome.
func FinishRun(runID int64, rounds int, accuracy float64, status string) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	_, err := database.Exec(`
        UPDATE runs SET rounds = ?, accuracy = ?, status = ? WHERE id = ?`,
		rounds, accuracy, status, runID)
	return err
}

// QueryRuns returns the most recent runs, newest first.
func QueryRuns(limit int) ([]TrainingRun, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	rows, err := database.Query(`
        SELECT id, algorithm, dataset, seed, max_iterations, rounds, accuracy, status, created_at
        FROM runs
        ORDER BY created_at DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]TrainingRun, 0)
	for rows.Next() {
		var run TrainingRun
		var accuracy sql.NullFloat64
		err := rows.Scan(&run.ID, &run.Algorithm, &run.Dataset, &run.Seed,
			&run.MaxIterations, &run.Rounds, &accuracy, &run.Status, &run.CreatedAt)
		if err != nil {
			return nil, err
		}
		if accuracy.Valid {
			run.Accuracy = accuracy.Float64
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// QueryRounds returns a run's round log in round order.
func QueryRounds(runID int64) ([]wrapper.RoundStats, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	rows, err := database.Query(`
        SELECT round, newly_labeled, labeled_size, unlabeled_size
        FROM round_log
        WHERE run_id = ?
        ORDER BY round`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]wrapper.RoundStats, 0)
	for rows.Next() {
		var s wrapper.RoundStats
		if err := rows.Scan(&s.Round, &s.NewlyLabeled, &s.LabeledSize, &s.UnlabeledSize); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

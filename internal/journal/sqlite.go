package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/speedwagon-io/plantdash/internal/lib/logger/sl"
	"github.com/speedwagon-io/plantdash/internal/model"
)

// tsLayout keeps stored timestamps lexically ordered.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Journal interface {
	Store(ctx context.Context, outcome *model.Outcome) error
	Recent(ctx context.Context, limit int) ([]*model.Outcome, error)
	FailureCount(ctx context.Context, since time.Time) (int64, error)
	Cleanup(ctx context.Context, maxAge time.Duration) error
	Close() error
}

// SQLiteJournal keeps refresh outcomes for later inspection.
type SQLiteJournal struct {
	log *slog.Logger
	db  *sql.DB
}

func NewSQLiteJournal(log *slog.Logger, dbPath string) (*SQLiteJournal, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	j := newJournal(log, db)
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return j, nil
}

func newJournal(log *slog.Logger, db *sql.DB) *SQLiteJournal {
	return &SQLiteJournal{
		log: log,
		db:  db,
	}
}

func (j *SQLiteJournal) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS refresh_outcome (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			unit TEXT NOT NULL,
			target TEXT NOT NULL,
			entity_id TEXT,
			status TEXT NOT NULL,
			error_kind TEXT,
			error TEXT,
			duration_ns INTEGER NOT NULL,
			ts TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_refresh_outcome_ts ON refresh_outcome(ts);
		CREATE INDEX IF NOT EXISTS idx_refresh_outcome_status ON refresh_outcome(status);
	`
	_, err := j.db.Exec(query)
	return err
}

// Observe stores outcome; a failed write is logged and dropped.
func (j *SQLiteJournal) Observe(ctx context.Context, outcome *model.Outcome) {
	if err := j.Store(ctx, outcome); err != nil {
		j.log.Warn("failed to journal outcome",
			slog.String("id", outcome.ID),
			sl.Err(err),
		)
	}
}

func (j *SQLiteJournal) Store(ctx context.Context, outcome *model.Outcome) error {
	query := `
		INSERT INTO refresh_outcome (id, run_id, unit, target, entity_id, status, error_kind, error, duration_ns, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := j.db.ExecContext(ctx, query,
		outcome.ID,
		outcome.RunID,
		string(outcome.Unit),
		outcome.Target,
		outcome.EntityID,
		string(outcome.Status),
		outcome.ErrorKind,
		outcome.Error,
		int64(outcome.Duration),
		outcome.Timestamp.UTC().Format(tsLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to store outcome: %w", err)
	}

	return nil
}

// Recent returns up to limit outcomes, newest first.
func (j *SQLiteJournal) Recent(ctx context.Context, limit int) ([]*model.Outcome, error) {
	query := `
		SELECT id, run_id, unit, target, entity_id, status, error_kind, error, duration_ns, ts
		FROM refresh_outcome
		ORDER BY ts DESC
		LIMIT ?
	`

	rows, err := j.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []*model.Outcome
	for rows.Next() {
		var (
			o                           model.Outcome
			unit, status, tsStr         string
			entityID, errorKind, errStr sql.NullString
			durationNS                  int64
		)

		if err := rows.Scan(&o.ID, &o.RunID, &unit, &o.Target, &entityID, &status, &errorKind, &errStr, &durationNS, &tsStr); err != nil {
			j.log.Error("failed to scan row", sl.Err(err))
			continue
		}

		ts, err := time.Parse(tsLayout, tsStr)
		if err != nil {
			j.log.Error("failed to parse timestamp", sl.Err(err))
			continue
		}

		o.Unit = model.Unit(unit)
		o.Status = model.Status(status)
		o.EntityID = entityID.String
		o.ErrorKind = errorKind.String
		o.Error = errStr.String
		o.Duration = time.Duration(durationNS)
		o.Timestamp = ts

		outcomes = append(outcomes, &o)
	}

	return outcomes, rows.Err()
}

func (j *SQLiteJournal) FailureCount(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := j.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM refresh_outcome WHERE status = ? AND ts >= ?",
		string(model.StatusFailed),
		since.UTC().Format(tsLayout),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count failures: %w", err)
	}
	return count, nil
}

func (j *SQLiteJournal) Cleanup(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().UTC().Add(-maxAge).Format(tsLayout)

	result, err := j.db.ExecContext(ctx, "DELETE FROM refresh_outcome WHERE ts < ?", cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup old outcomes: %w", err)
	}

	deleted, _ := result.RowsAffected()
	if deleted > 0 {
		j.log.Info("cleaned up old journal entries", slog.Int64("deleted", deleted))
	}

	return nil
}

func (j *SQLiteJournal) Count(ctx context.Context) (int64, error) {
	var count int64
	err := j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM refresh_outcome").Scan(&count)
	return count, err
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

package export

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"mercator-hq/revprune/pkg/revision"
)

// journalSchema holds one row per run and one row per verdict.
const journalSchema = `
CREATE TABLE IF NOT EXISTS prune_runs (
	run_id TEXT PRIMARY KEY,
	generated_at INTEGER NOT NULL,
	policy TEXT NOT NULL,
	removed INTEGER NOT NULL,
	total_rows INTEGER NOT NULL,
	parents INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS prune_decisions (
	run_id TEXT NOT NULL,
	parent_id INTEGER NOT NULL,
	record_id INTEGER NOT NULL,
	action TEXT NOT NULL,
	reason TEXT NOT NULL,
	PRIMARY KEY (run_id, record_id)
);

CREATE INDEX IF NOT EXISTS idx_prune_decisions_action ON prune_decisions(run_id, action);
`

// JournalConfig contains configuration for the decision journal.
type JournalConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLiteJournal appends run verdicts to a SQLite file. The journal is an
// output only; nothing reads it back to make decisions.
type SQLiteJournal struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteJournal opens (or creates) the journal database.
func NewSQLiteJournal(cfg JournalConfig) (*SQLiteJournal, error) {
	if cfg.Path == "" {
		return nil, revision.NewStorageError("sqlite", "open", fmt.Errorf("db path cannot be empty"))
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, revision.NewStorageError("sqlite", "open", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(journalSchema); err != nil {
		db.Close()
		return nil, revision.NewStorageError("sqlite", "init_schema", err)
	}

	j := &SQLiteJournal{
		db:     db,
		path:   cfg.Path,
		logger: slog.Default().With("component", "revision.export.journal"),
	}
	j.logger.Debug("decision journal opened", "path", cfg.Path)

	return j, nil
}

// Export implements Exporter. The writer is unused; verdicts go to the
// database in a single transaction.
func (j *SQLiteJournal) Export(ctx context.Context, report *Report, _ io.Writer) error {
	return j.Write(ctx, report)
}

// Write records the report's run and verdicts.
func (j *SQLiteJournal) Write(ctx context.Context, report *Report) error {
	summary := report.Summary()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return revision.NewStorageError("sqlite", "begin", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO prune_runs (run_id, generated_at, policy, removed, total_rows, parents) VALUES (?, ?, ?, ?, ?, ?)`,
		report.RunID, report.GeneratedAt.Unix(), report.Policy, summary.Removed, summary.Total, summary.Parents,
	); err != nil {
		return revision.NewStorageError("sqlite", "insert_run", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO prune_decisions (run_id, parent_id, record_id, action, reason) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return revision.NewStorageError("sqlite", "prepare", err)
	}
	defer stmt.Close()

	count := 0
	if report.Result != nil {
		for _, h := range report.Result.Histories {
			for _, v := range h.Verdicts {
				if _, err := stmt.ExecContext(ctx, report.RunID, v.ParentID, v.RecordID, string(v.Action), string(v.Reason)); err != nil {
					return revision.NewStorageError("sqlite", "insert_decision", err)
				}
				count++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return revision.NewStorageError("sqlite", "commit", err)
	}

	j.logger.Info("decisions journaled", "run_id", report.RunID, "verdicts", count, "removed", summary.Removed)
	return nil
}

// RemovedIDs returns the IDs a past run marked for removal, ascending.
func (j *SQLiteJournal) RemovedIDs(ctx context.Context, runID string) ([]int64, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT record_id FROM prune_decisions WHERE run_id = ? AND action = 'remove' ORDER BY record_id`, runID)
	if err != nil {
		return nil, revision.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, revision.NewStorageError("sqlite", "scan", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, revision.NewStorageError("sqlite", "iterate", err)
	}
	return ids, nil
}

// Close closes the database connection.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

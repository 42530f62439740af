package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mercator-hq/revprune/pkg/revision"
)

// DefaultRevisionQuery selects revision rows from a WordPress posts table in
// the column order expected by DefaultColumns.
const DefaultRevisionQuery = `SELECT ID, post_name, post_date_gmt FROM wp_posts WHERE post_type = 'revision'`

// SQLiteSourceConfig contains configuration for reading rows from a local
// SQLite export.
type SQLiteSourceConfig struct {
	// Path is the database file path. The file is opened read-only.
	Path string

	// Query returns one row per revision.
	// Default: DefaultRevisionQuery
	Query string

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLiteSource reads revision rows from a SQLite database file.
type SQLiteSource struct {
	db     *sql.DB
	config *SQLiteSourceConfig
	logger *slog.Logger
}

// NewSQLiteSource opens the database read-only and checks it is reachable.
func NewSQLiteSource(config *SQLiteSourceConfig) (*SQLiteSource, error) {
	if config == nil || config.Path == "" {
		return nil, revision.NewStorageError("sqlite", "open", fmt.Errorf("database path is required"))
	}
	if config.Query == "" {
		config.Query = DefaultRevisionQuery
	}
	if config.BusyTimeout == 0 {
		config.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=%d",
		config.Path, config.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, revision.NewStorageError("sqlite", "open", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, revision.NewStorageError("sqlite", "open", err)
	}

	s := &SQLiteSource{
		db:     db,
		config: config,
		logger: slog.Default().With("component", "revision.ingest.sqlite"),
	}
	s.logger.Debug("SQLite source opened", "path", config.Path)

	return s, nil
}

// Rows implements Source. NULL cells become empty strings.
func (s *SQLiteSource) Rows(ctx context.Context) ([][]string, error) {
	rows, err := s.db.QueryContext(ctx, s.config.Query)
	if err != nil {
		return nil, revision.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, revision.NewStorageError("sqlite", "columns", err)
	}

	var out [][]string
	for rows.Next() {
		cells := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, revision.NewStorageError("sqlite", "scan", err)
		}

		row := make([]string, len(cols))
		for i, c := range cells {
			row[i] = c.String
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, revision.NewStorageError("sqlite", "iterate", err)
	}

	s.logger.Debug("read revision rows", "rows", len(out))
	return out, nil
}

// Close closes the database connection.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"

	"mercator-hq/revprune/pkg/revision"
)

// Source yields raw rows for the Grouper.
type Source interface {
	Rows(ctx context.Context) ([][]string, error)
}

// ReadCSV reads every row from r. Empty lines are skipped and rows may have
// varying field counts.
func ReadCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return rows, revision.NewStorageError("csv", "read", err)
		}
		rows = append(rows, row)
	}
}

// CSVSource reads CSV rows from a file, falling back to Stdin when Path is
// empty or unreadable.
type CSVSource struct {
	Path  string
	Stdin io.Reader
}

// Rows implements Source.
func (s *CSVSource) Rows(ctx context.Context) ([][]string, error) {
	logger := slog.Default().With("component", "revision.ingest")

	if s.Path != "" {
		f, err := os.Open(s.Path)
		if err == nil {
			defer f.Close()
			logger.Debug("reading revisions from file", "path", s.Path)
			return ReadCSV(f)
		}
		logger.Warn("input file unreadable, reading standard input", "path", s.Path, "error", err)
	}

	if s.Stdin == nil {
		return nil, nil
	}
	return ReadCSV(s.Stdin)
}

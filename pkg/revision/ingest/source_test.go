package ingest

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	input := "ID,post_name,post_date_gmt\n\n1,\"2-revision-v1\",2024-01-01\n3,4\n"

	rows, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"ID", "post_name", "post_date_gmt"},
		{"1", "2-revision-v1", "2024-01-01"},
		{"3", "4"},
	}, rows)
}

func TestCSVSource_Rows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "revisions.csv")
	require.NoError(t, os.WriteFile(path, []byte("1,2-revision-v1,2024-01-01\n"), 0o600))

	stdin := strings.NewReader("9,9-revision-v1,2024-01-01\n")

	t.Run("reads file", func(t *testing.T) {
		rows, err := (&CSVSource{Path: path, Stdin: stdin}).Rows(context.Background())
		require.NoError(t, err)
		require.Len(t, rows, 1)
		require.Equal(t, "1", rows[0][0])
	})

	t.Run("falls back to stdin when file is missing", func(t *testing.T) {
		rows, err := (&CSVSource{Path: filepath.Join(dir, "missing.csv"), Stdin: stdin}).Rows(context.Background())
		require.NoError(t, err)
		require.Len(t, rows, 1)
		require.Equal(t, "9", rows[0][0])
	})

	t.Run("no input", func(t *testing.T) {
		rows, err := (&CSVSource{}).Rows(context.Background())
		require.NoError(t, err)
		require.Empty(t, rows)
	})
}

func TestSQLiteSource_Rows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE wp_posts (ID INTEGER PRIMARY KEY, post_name TEXT, post_date_gmt TEXT, post_type TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO wp_posts VALUES
		(42, 'hello', '2024-03-01 00:00:00', 'post'),
		(42001, '42-revision-v1', '2024-03-09 23:00:00', 'revision'),
		(42002, '42-revision-v1', '2024-03-10 08:00:00', 'revision'),
		(42003, '42-revision-v1', NULL, 'revision')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	src, err := NewSQLiteSource(&SQLiteSourceConfig{Path: path})
	require.NoError(t, err)
	defer src.Close()

	rows, err := src.Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	res := NewGrouper(nil).Group(rows)
	require.Len(t, res.Histories, 1)
	require.Equal(t, 2, res.Histories[0].Len())
	require.Len(t, res.Rejected, 1)
	require.Equal(t, "timestamp", res.Rejected[0].Field)
}

func TestNewSQLiteSource_Errors(t *testing.T) {
	_, err := NewSQLiteSource(nil)
	require.Error(t, err)

	_, err = NewSQLiteSource(&SQLiteSourceConfig{Path: filepath.Join(t.TempDir(), "missing.db")})
	require.Error(t, err)
}

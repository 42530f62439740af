package ingest

import (
	"cmp"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"mercator-hq/revprune/pkg/revision"
)

// Columns holds the zero-based positions of the fields the Grouper reads.
type Columns struct {
	ID   int
	Name int
	Date int
}

// DefaultColumns matches `--fields=ID,post_name,post_date_gmt`.
var DefaultColumns = Columns{ID: 0, Name: 1, Date: 2}

// DefaultNamePattern matches revision and autosave slugs. The first
// submatch is the parent identifier.
var DefaultNamePattern = regexp.MustCompile(`^(\d+)-(?:revision|autosave)-v1$`)

// DefaultTimestampLayouts are tried in order when parsing the date column.
var DefaultTimestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// HeaderCell is the first cell of a header row.
const HeaderCell = "ID"

// Config controls how rows are turned into records.
type Config struct {
	// Columns locates the ID, name and date fields.
	Columns Columns

	// NamePattern selects revision rows; its first submatch is the parent ID.
	// Rows that do not match are ignored.
	NamePattern *regexp.Regexp

	// TimestampLayouts are tried in order.
	TimestampLayouts []string

	// Location applies to timestamps without a zone.
	// Default: UTC
	Location *time.Location
}

// DefaultConfig returns the configuration for `wp revisions list` CSV output.
func DefaultConfig() *Config {
	return &Config{
		Columns:          DefaultColumns,
		NamePattern:      DefaultNamePattern,
		TimestampLayouts: DefaultTimestampLayouts,
		Location:         time.UTC,
	}
}

// GroupResult is the outcome of grouping one batch of rows.
type GroupResult struct {
	// Histories are ordered by ascending parent ID; each is newest-first.
	Histories []revision.History

	// Rejected lists rows that looked like revisions but failed to parse.
	Rejected []*revision.MalformedRecordError

	// Ignored counts rows that are not revisions.
	Ignored int

	// TotalRows counts input rows, header excluded.
	TotalRows int
}

// Records returns the number of records across all histories.
func (r *GroupResult) Records() int {
	n := 0
	for _, h := range r.Histories {
		n += h.Len()
	}
	return n
}

// Grouper turns flat rows into per-parent histories.
type Grouper struct {
	config *Config
	logger *slog.Logger
}

// NewGrouper creates a grouper. A nil config uses DefaultConfig.
func NewGrouper(config *Config) *Grouper {
	if config == nil {
		config = DefaultConfig()
	}
	if config.NamePattern == nil {
		config.NamePattern = DefaultNamePattern
	}
	if len(config.TimestampLayouts) == 0 {
		config.TimestampLayouts = DefaultTimestampLayouts
	}
	if config.Location == nil {
		config.Location = time.UTC
	}

	return &Grouper{
		config: config,
		logger: slog.Default().With("component", "revision.ingest"),
	}
}

// Group parses rows and groups them by parent. A leading header row is
// dropped. Malformed rows are reported in Rejected and skipped.
func (g *Grouper) Group(rows [][]string) *GroupResult {
	res := &GroupResult{}

	first := 0
	if len(rows) > 0 && len(rows[0]) > 0 && strings.TrimSpace(rows[0][0]) == HeaderCell {
		first = 1
	}
	res.TotalRows = len(rows) - first

	groups := make(map[int64][]revision.Record)
	for i := first; i < len(rows); i++ {
		rec, ok, err := g.parseRow(i+1, rows[i])
		if err != nil {
			g.logger.Warn("skipping malformed row", "line", err.Line, "field", err.Field, "error", err.Cause)
			res.Rejected = append(res.Rejected, err)
			continue
		}
		if !ok {
			res.Ignored++
			continue
		}
		groups[rec.ParentID] = append(groups[rec.ParentID], rec)
	}

	parents := make([]int64, 0, len(groups))
	for p := range groups {
		parents = append(parents, p)
	}
	slices.Sort(parents)

	res.Histories = make([]revision.History, 0, len(parents))
	for _, p := range parents {
		entries := groups[p]
		slices.SortStableFunc(entries, newestFirst)
		// Sorted above, so the ordering invariant holds.
		res.Histories = append(res.Histories, revision.History{ParentID: p, Entries: entries})
	}

	g.logger.Debug("grouped revisions",
		"rows", res.TotalRows,
		"histories", len(res.Histories),
		"ignored", res.Ignored,
		"rejected", len(res.Rejected),
	)

	return res
}

// newestFirst orders by descending timestamp, then descending ID.
func newestFirst(a, b revision.Record) int {
	if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

// parseRow returns ok=false for rows that are not revisions.
func (g *Grouper) parseRow(line int, row []string) (revision.Record, bool, *revision.MalformedRecordError) {
	cols := g.config.Columns

	name, ok := cell(row, cols.Name)
	if !ok {
		return revision.Record{}, false, revision.NewMalformedRecordError(line, "name", "",
			fmt.Errorf("row has %d fields, name expected at %d", len(row), cols.Name))
	}

	m := g.config.NamePattern.FindStringSubmatch(name)
	if m == nil || len(m) < 2 {
		return revision.Record{}, false, nil
	}

	parent, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return revision.Record{}, false, revision.NewMalformedRecordError(line, "name", name, err)
	}

	rawID, _ := cell(row, cols.ID)
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return revision.Record{}, false, revision.NewMalformedRecordError(line, "id", rawID, err)
	}

	rawDate, _ := cell(row, cols.Date)
	ts, err := g.parseTimestamp(rawDate)
	if err != nil {
		return revision.Record{}, false, revision.NewMalformedRecordError(line, "timestamp", rawDate, err)
	}

	return revision.Record{
		ID:        id,
		ParentID:  parent,
		Timestamp: ts,
		Fields:    slices.Clone(row),
	}, true, nil
}

func (g *Grouper) parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range g.config.TimestampLayouts {
		if t, err := time.ParseInLocation(layout, s, g.config.Location); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("no layout matches %q", s)
}

func cell(row []string, i int) (string, bool) {
	if i < 0 || i >= len(row) {
		return "", false
	}
	return strings.TrimSpace(row[i]), true
}

package export

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mercator-hq/revprune/pkg/revision"
	"mercator-hq/revprune/pkg/revision/retention"
)

func record(id, parent int64, ts string) revision.Record {
	t, err := time.Parse("2006-01-02 15:04:05", ts)
	if err != nil {
		panic(err)
	}
	return revision.Record{
		ID:        id,
		ParentID:  parent,
		Timestamp: t,
		Fields:    []string{strconv.FormatInt(id, 10), strconv.FormatInt(parent, 10) + "-revision-v1", ts},
	}
}

// sampleReport evaluates parent 42 with keep-daily=1 and parent 7 below
// keep-less-than-n-rev.
func sampleReport(t *testing.T) *Report {
	t.Helper()

	histories := []revision.History{
		{ParentID: 7, Entries: []revision.Record{
			record(7001, 7, "2024-01-01 10:00:00"),
		}},
		{ParentID: 42, Entries: []revision.Record{
			record(42003, 42, "2024-03-10 09:00:00"),
			record(42002, 42, "2024-03-10 08:00:00"),
			record(42001, 42, "2024-03-09 23:00:00"),
		}},
	}

	policy := retention.Policy{KeepLessThanNRev: retention.Count(1)}
	policy.SetQuota(retention.Day, retention.Count(1))

	engine, err := retention.NewEngine(policy)
	require.NoError(t, err)

	result, err := engine.Evaluate(histories)
	require.NoError(t, err)

	return NewReport(policy, 5, histories, result)
}

func TestReport_Summary(t *testing.T) {
	report := sampleReport(t)

	require.NotEmpty(t, report.RunID)
	require.Equal(t, "keep-less-than-n-rev=1 keep-daily=1", report.Policy)
	require.Equal(t, Summary{Removed: 1, Total: 5, Parents: 2}, report.Summary())
	require.Equal(t, "Prune 1 revisions out of 5 among 2 parent posts", report.Summary().String())

	empty := &Report{}
	require.Equal(t, Summary{}, empty.Summary())
}

func TestWriteRemoved(t *testing.T) {
	d := revision.NewDecision()
	d.Add(300)
	d.Add(20)
	d.Add(1000)

	var buf bytes.Buffer
	require.NoError(t, WriteRemoved(&buf, d))
	require.Equal(t, "20\n300\n1000\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteRemoved(&buf, revision.NewDecision()))
	require.Empty(t, buf.String())
}

func TestWriteAnnotated(t *testing.T) {
	report := sampleReport(t)

	var buf bytes.Buffer
	require.NoError(t, WriteAnnotated(&buf, report.Histories, report.Result.Decision))

	want := strings.Join([]string{
		"7001\t7-revision-v1\t2024-01-01 10:00:00",
		"42003\t42-revision-v1\t2024-03-10 09:00:00",
		"42002\t42-revision-v1\t2024-03-10 08:00:00\t[remove]",
		"42001\t42-revision-v1\t2024-03-09 23:00:00",
	}, "\n") + "\n"
	require.Equal(t, want, buf.String())
}

func TestJSONExporter_Export(t *testing.T) {
	report := sampleReport(t)

	var buf bytes.Buffer
	require.NoError(t, NewJSONExporter(false, true).Export(context.Background(), report, &buf))

	var doc struct {
		RunID     string  `json:"run_id"`
		Summary   Summary `json:"summary"`
		Removed   []int64 `json:"removed"`
		Histories []struct {
			ParentID int64  `json:"parent_id"`
			Outcome  string `json:"outcome"`
			Verdicts []struct {
				RecordID int64  `json:"record_id"`
				Action   string `json:"action"`
				Reason   string `json:"reason"`
			} `json:"verdicts"`
		} `json:"histories"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	require.Equal(t, report.RunID, doc.RunID)
	require.Equal(t, []int64{42002}, doc.Removed)
	require.Equal(t, 1, doc.Summary.Removed)
	require.Len(t, doc.Histories, 2)
	require.Equal(t, "skipped-min-rev", doc.Histories[0].Outcome)
	require.Equal(t, "evaluated", doc.Histories[1].Outcome)
	require.Equal(t, "remove", doc.Histories[1].Verdicts[1].Action)
	require.Equal(t, "saturated", doc.Histories[1].Verdicts[1].Reason)
	require.Equal(t, "day:new-bucket", doc.Histories[1].Verdicts[2].Reason)
}

func TestJSONExporter_NoVerdicts(t *testing.T) {
	report := &Report{RunID: "run-1", TotalRows: 0}

	var buf bytes.Buffer
	require.NoError(t, NewJSONExporter(true, false).Export(context.Background(), report, &buf))

	out := buf.String()
	require.Contains(t, out, `"removed": []`)
	require.NotContains(t, out, "histories")
}

func TestCSVExporter_Export(t *testing.T) {
	report := sampleReport(t)

	var buf bytes.Buffer
	require.NoError(t, NewCSVExporter(true).Export(context.Background(), report, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	require.Equal(t, "id,parent_id,timestamp,action,reason", lines[0])
	require.Equal(t, "7001,7,2024-01-01T10:00:00Z,keep,min-rev", lines[1])
	require.Equal(t, "42002,42,2024-03-10T08:00:00Z,remove,saturated", lines[3])

	buf.Reset()
	require.NoError(t, NewCSVExporter(false).Export(context.Background(), report, &buf))
	require.Len(t, strings.Split(strings.TrimSpace(buf.String()), "\n"), 4)
}

func TestSQLiteJournal_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	journal, err := NewSQLiteJournal(JournalConfig{Path: path})
	require.NoError(t, err)
	defer journal.Close()

	ctx := context.Background()
	first := sampleReport(t)
	require.NoError(t, journal.Write(ctx, first))

	second := sampleReport(t)
	require.NotEqual(t, first.RunID, second.RunID)
	require.NoError(t, journal.Export(ctx, second, nil))

	ids, err := journal.RemovedIDs(ctx, first.RunID)
	require.NoError(t, err)
	require.Equal(t, []int64{42002}, ids)

	// Writing the same run twice violates the run primary key.
	require.Error(t, journal.Write(ctx, first))

	ids, err = journal.RemovedIDs(ctx, "unknown")
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestNewSQLiteJournal_EmptyPath(t *testing.T) {
	_, err := NewSQLiteJournal(JournalConfig{})
	require.Error(t, err)
}

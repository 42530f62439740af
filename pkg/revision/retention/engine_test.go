package retention

import (
	"errors"
	"testing"
	"time"

	"mercator-hq/revprune/pkg/revision"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// history builds a newest-first history; ids are assigned from len(stamps)
// down to 1 so the newest entry carries the highest id.
func history(parent int64, stamps ...string) revision.History {
	entries := make([]revision.Record, len(stamps))
	for i, s := range stamps {
		entries[i] = revision.Record{
			ID:        parent*1000 + int64(len(stamps)-i),
			ParentID:  parent,
			Timestamp: ts(s),
		}
	}
	h, err := revision.NewHistory(parent, entries)
	if err != nil {
		panic(err)
	}
	return h
}

func tiers(quotas map[Granularity]int) []Tier {
	var out []Tier
	for _, g := range Granularities {
		if q, ok := quotas[g]; ok {
			out = append(out, Tier{Granularity: g, Quota: Count(q)})
		}
	}
	return out
}

func removedIDs(t *testing.T, policy Policy, histories ...revision.History) []int64 {
	t.Helper()
	engine, err := NewEngine(policy)
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	decision, err := engine.Decide(histories)
	if err != nil {
		t.Fatalf("Decide() failed: %v", err)
	}
	return decision.IDs()
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestEngine_Decide covers skip rules, date bounds, keep-last and tier
// fall-through on small hand-checked histories.
func TestEngine_Decide(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		history revision.History
		want    []int64
	}{
		{
			name:   "daily quota keeps one per day",
			policy: Policy{Tiers: tiers(map[Granularity]int{Day: 1})},
			history: history(42,
				"2024-03-10T09:00:00Z",
				"2024-03-10T08:00:00Z",
				"2024-03-09T23:00:00Z",
			),
			want: []int64{42002},
		},
		{
			name:   "same day keeps only the newest",
			policy: Policy{Tiers: tiers(map[Granularity]int{Day: 1})},
			history: history(1,
				"2024-03-10T12:00:00Z",
				"2024-03-10T11:00:00Z",
				"2024-03-10T10:00:00Z",
			),
			want: []int64{1001, 1002},
		},
		{
			name:    "bucket boundary keeps both days",
			policy:  Policy{Tiers: tiers(map[Granularity]int{Day: 1})},
			history: history(1, "2024-01-02T00:00:00Z", "2024-01-01T00:00:00Z"),
			want:    nil,
		},
		{
			name: "keep-before equal to timestamp is kept",
			policy: Policy{
				KeepBefore: At(ts("2024-03-10T08:00:00Z")),
				Tiers:      tiers(map[Granularity]int{Day: 1}),
			},
			history: history(1,
				"2024-03-10T10:00:00Z",
				"2024-03-10T09:00:00Z",
				"2024-03-10T08:00:00Z",
			),
			want: []int64{1002},
		},
		{
			name: "keep-after equal to timestamp is kept",
			policy: Policy{
				KeepAfter: At(ts("2024-03-10T09:00:00Z")),
				Tiers:     tiers(map[Granularity]int{Day: 1}),
			},
			history: history(1,
				"2024-03-10T10:00:00Z",
				"2024-03-10T09:00:00Z",
				"2024-03-10T08:00:00Z",
				"2024-03-10T07:00:00Z",
			),
			// 10:00 and 09:00 are kept by the bound without opening the day
			// bucket, so 08:00 is the first of the day.
			want: []int64{1001},
		},
		{
			name: "keep-less-than-n-rev skips short history",
			policy: Policy{
				KeepLessThanNRev: Count(3),
				Tiers:            tiers(map[Granularity]int{Day: 1}),
			},
			history: history(1,
				"2024-03-10T12:00:00Z",
				"2024-03-10T11:00:00Z",
				"2024-03-10T10:00:00Z",
			),
			want: nil,
		},
		{
			name: "keep-last skips history no longer than N",
			policy: Policy{
				KeepLast: Count(3),
				Tiers:    tiers(map[Granularity]int{Day: 1}),
			},
			history: history(1,
				"2024-03-10T12:00:00Z",
				"2024-03-10T11:00:00Z",
				"2024-03-10T10:00:00Z",
			),
			want: nil,
		},
		{
			name: "keep-last does not open tier buckets",
			policy: Policy{
				KeepLast: Count(2),
				Tiers:    tiers(map[Granularity]int{Day: 1}),
			},
			history: history(1,
				"2024-03-10T12:00:00Z",
				"2024-03-10T11:00:00Z",
				"2024-03-10T10:00:00Z",
				"2024-03-10T09:00:00Z",
				"2024-03-10T08:00:00Z",
			),
			want: []int64{1001, 1002},
		},
		{
			name:   "keep-last without tiers removes the rest",
			policy: Policy{KeepLast: Count(1)},
			history: history(1,
				"2024-03-10T12:00:00Z",
				"2024-03-09T11:00:00Z",
				"2024-03-08T10:00:00Z",
			),
			want: []int64{1001, 1002},
		},
		{
			name:   "empty policy removes everything",
			policy: Policy{},
			history: history(1,
				"2024-03-10T12:00:00Z",
				"2024-03-09T11:00:00Z",
			),
			want: []int64{1001, 1002},
		},
		{
			name:   "hourly quota of two",
			policy: Policy{Tiers: tiers(map[Granularity]int{Hour: 2})},
			history: history(1,
				"2024-03-10T12:50:00Z",
				"2024-03-10T12:30:00Z",
				"2024-03-10T12:10:00Z",
				"2024-03-10T11:59:00Z",
			),
			want: []int64{1002},
		},
		{
			name:   "saturated day falls through to new week",
			policy: Policy{Tiers: tiers(map[Granularity]int{Day: 1, Week: 1})},
			history: history(1,
				"2024-01-08T10:00:00Z", // Monday, W02: day new bucket
				"2024-01-08T09:00:00Z", // day full, week W02 new bucket
				"2024-01-07T12:00:00Z", // Sunday, W01: day new bucket
				"2024-01-07T11:00:00Z", // day full, week W01 new bucket
				"2024-01-07T10:00:00Z", // day full, week full
			),
			want: []int64{1001},
		},
		{
			name:   "zero quota tier claims nothing",
			policy: Policy{Tiers: tiers(map[Granularity]int{Day: 0, Month: 1})},
			history: history(1,
				"2024-03-10T12:00:00Z",
				"2024-03-09T12:00:00Z",
				"2024-02-28T12:00:00Z",
			),
			want: []int64{1002},
		},
		{
			name:    "zero hourly quota defers to daily tier",
			policy:  Policy{Tiers: tiers(map[Granularity]int{Hour: 0, Day: 1})},
			history: history(1, "2024-03-10T12:00:00Z", "2024-03-09T12:00:00Z"),
			want:    nil,
		},
		{
			name:   "zero hourly quota with full day removes",
			policy: Policy{Tiers: tiers(map[Granularity]int{Hour: 0, Day: 1})},
			history: history(1,
				"2024-03-10T12:00:00Z",
				"2024-03-10T11:00:00Z",
			),
			want: []int64{1001},
		},
		{
			name:   "yearly quota",
			policy: Policy{Tiers: tiers(map[Granularity]int{Year: 1})},
			history: history(1,
				"2024-06-01T00:00:00Z",
				"2024-01-01T00:00:00Z",
				"2023-12-31T23:59:59Z",
			),
			want: []int64{1002},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := removedIDs(t, tt.policy, tt.history)
			if !equalIDs(got, tt.want) {
				t.Errorf("removed = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestEngine_Evaluate_Verdicts tests reasons attached to each record.
func TestEngine_Evaluate_Verdicts(t *testing.T) {
	policy := Policy{
		KeepLast: Count(1),
		Tiers:    tiers(map[Granularity]int{Hour: 1, Day: 1}),
	}
	engine, err := NewEngine(policy)
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}

	h := history(7,
		"2024-03-10T12:30:00Z", // keep-last
		"2024-03-10T12:20:00Z", // hour new bucket
		"2024-03-10T12:10:00Z", // hour full, day new bucket
		"2024-03-10T12:00:00Z", // hour full, day full
		"2024-03-10T11:00:00Z", // hour new bucket
	)

	res, err := engine.Evaluate([]revision.History{h})
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}

	want := []struct {
		action Action
		reason Reason
	}{
		{ActionKeep, ReasonKeepLast},
		{ActionKeep, "hour:new-bucket"},
		{ActionKeep, "day:new-bucket"},
		{ActionRemove, ReasonSaturated},
		{ActionKeep, "hour:new-bucket"},
	}

	if len(res.Histories) != 1 {
		t.Fatalf("expected 1 history result, got %d", len(res.Histories))
	}
	hr := res.Histories[0]
	if hr.Outcome != OutcomeEvaluated {
		t.Errorf("Outcome = %s, want %s", hr.Outcome, OutcomeEvaluated)
	}
	if hr.Removed != 1 {
		t.Errorf("Removed = %d, want 1", hr.Removed)
	}

	for i, w := range want {
		v := hr.Verdicts[i]
		if v.Action != w.action || v.Reason != w.reason {
			t.Errorf("verdict[%d] = %s/%s, want %s/%s", i, v.Action, v.Reason, w.action, w.reason)
		}
		byID, ok := res.VerdictFor(h.Entries[i].ID)
		if !ok || byID != v {
			t.Errorf("VerdictFor(%d) = %+v, %v", h.Entries[i].ID, byID, ok)
		}
	}

	if res.Evaluated() != 5 {
		t.Errorf("Evaluated() = %d, want 5", res.Evaluated())
	}
}

// TestEngine_Evaluate_SkipOutcomes tests the history-level outcomes.
func TestEngine_Evaluate_SkipOutcomes(t *testing.T) {
	policy := Policy{
		KeepLessThanNRev: Count(1),
		KeepLast:         Count(2),
		Tiers:            tiers(map[Granularity]int{Day: 1}),
	}
	engine, err := NewEngine(policy)
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}

	res, err := engine.Evaluate([]revision.History{
		history(1, "2024-03-10T12:00:00Z"),
		history(2, "2024-03-10T12:00:00Z", "2024-03-10T11:00:00Z"),
		history(3, "2024-03-10T12:00:00Z", "2024-03-10T11:00:00Z", "2024-03-10T10:00:00Z", "2024-03-10T09:00:00Z"),
	})
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}

	wantOutcomes := []Outcome{OutcomeSkippedMinRev, OutcomeSkippedKeepLast, OutcomeEvaluated}
	for i, want := range wantOutcomes {
		if res.Histories[i].Outcome != want {
			t.Errorf("history %d outcome = %s, want %s", i, res.Histories[i].Outcome, want)
		}
	}

	if v, _ := res.VerdictFor(1001); v.Reason != ReasonMinRev {
		t.Errorf("reason = %s, want %s", v.Reason, ReasonMinRev)
	}
	if v, _ := res.VerdictFor(2001); v.Reason != ReasonHistoryKeepLast {
		t.Errorf("reason = %s, want %s", v.Reason, ReasonHistoryKeepLast)
	}

	// History 3: two by keep-last, 10:00 opens the day, 09:00 is removed.
	if got := res.Decision.IDs(); !equalIDs(got, []int64{3001}) {
		t.Errorf("removed = %v, want [3001]", got)
	}
}

// TestEngine_Decide_MultipleHistories tests that buckets never leak
// between histories.
func TestEngine_Decide_MultipleHistories(t *testing.T) {
	policy := Policy{Tiers: tiers(map[Granularity]int{Day: 1})}

	got := removedIDs(t, policy,
		history(1, "2024-03-10T12:00:00Z", "2024-03-10T11:00:00Z"),
		history(2, "2024-03-10T12:00:00Z", "2024-03-10T11:00:00Z"),
		history(3, "2024-03-10T10:00:00Z"),
	)

	if !equalIDs(got, []int64{1001, 2001}) {
		t.Errorf("removed = %v, want [1001 2001]", got)
	}
}

// TestNewEngine_InvalidPolicy tests that invalid policies are rejected
// before any history is looked at.
func TestNewEngine_InvalidPolicy(t *testing.T) {
	tests := []struct {
		name       string
		policy     Policy
		violations int
	}{
		{
			name:       "negative keep-last",
			policy:     Policy{KeepLast: Count(-1)},
			violations: 1,
		},
		{
			name:       "negative keep-less-than-n-rev",
			policy:     Policy{KeepLessThanNRev: Count(-3)},
			violations: 1,
		},
		{
			name:       "negative tier quota",
			policy:     Policy{Tiers: tiers(map[Granularity]int{Week: -2})},
			violations: 1,
		},
		{
			name: "keep-before after keep-after",
			policy: Policy{
				KeepBefore: At(ts("2024-05-01T00:00:00Z")),
				KeepAfter:  At(ts("2024-04-01T00:00:00Z")),
			},
			violations: 1,
		},
		{
			name: "tiers out of order",
			policy: Policy{Tiers: []Tier{
				{Granularity: Month, Quota: Count(1)},
				{Granularity: Day, Quota: Count(1)},
			}},
			violations: 1,
		},
		{
			name: "duplicate tier",
			policy: Policy{Tiers: []Tier{
				{Granularity: Day, Quota: Count(1)},
				{Granularity: Day, Quota: Count(2)},
			}},
			violations: 1,
		},
		{
			name:       "unknown granularity",
			policy:     Policy{Tiers: []Tier{{Granularity: Granularity(9), Quota: Count(1)}}},
			violations: 1,
		},
		{
			name: "all violations collected",
			policy: Policy{
				KeepLast:   Count(-1),
				KeepBefore: At(ts("2024-05-01T00:00:00Z")),
				KeepAfter:  At(ts("2024-04-01T00:00:00Z")),
				Tiers:      tiers(map[Granularity]int{Hour: -1}),
			},
			violations: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := NewEngine(tt.policy)
			if engine != nil {
				t.Error("NewEngine() returned an engine for an invalid policy")
			}
			if !errors.Is(err, revision.ErrInvalidPolicy) {
				t.Fatalf("error = %v, want ErrInvalidPolicy", err)
			}
			var perr *revision.InvalidPolicyError
			if !errors.As(err, &perr) {
				t.Fatalf("error is not *InvalidPolicyError: %T", err)
			}
			if len(perr.Violations) != tt.violations {
				t.Errorf("violations = %v, want %d", perr.Violations, tt.violations)
			}
		})
	}
}

// TestEngine_Decide_UnorderedHistory tests fail-fast on a history that
// was not built through NewHistory.
func TestEngine_Decide_UnorderedHistory(t *testing.T) {
	engine, err := NewEngine(Policy{Tiers: tiers(map[Granularity]int{Day: 1})})
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}

	good := history(1, "2024-03-10T12:00:00Z", "2024-03-10T11:00:00Z")
	bad := revision.History{
		ParentID: 2,
		Entries: []revision.Record{
			{ID: 1, ParentID: 2, Timestamp: ts("2024-03-09T12:00:00Z")},
			{ID: 2, ParentID: 2, Timestamp: ts("2024-03-10T12:00:00Z")},
		},
	}

	decision, err := engine.Decide([]revision.History{good, bad})
	if !errors.Is(err, revision.ErrUnorderedHistory) {
		t.Fatalf("error = %v, want ErrUnorderedHistory", err)
	}
	if decision != nil {
		t.Errorf("expected no partial decision, got %v", decision.IDs())
	}
}

// TestNewEngine_PolicyIsCopied tests that later edits to the caller's
// policy do not change the engine.
func TestNewEngine_PolicyIsCopied(t *testing.T) {
	quota := 1
	policy := Policy{Tiers: []Tier{{Granularity: Day, Quota: &quota}}}
	engine, err := NewEngine(policy)
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}

	quota = 5
	policy.Tiers[0].Granularity = Year

	got, err := engine.Decide([]revision.History{
		history(1, "2024-03-10T12:00:00Z", "2024-03-10T11:00:00Z"),
	})
	if err != nil {
		t.Fatalf("Decide() failed: %v", err)
	}
	if !equalIDs(got.IDs(), []int64{1001}) {
		t.Errorf("removed = %v, want [1001]", got.IDs())
	}
}

type recorderStub struct {
	calls    int
	removed  int
	duration time.Duration
}

func (r *recorderStub) RecordEvaluation(result *Result, duration time.Duration) {
	r.calls++
	r.removed += result.Decision.Len()
	r.duration += duration
}

// TestEngine_WithRecorder tests that each evaluation is reported.
func TestEngine_WithRecorder(t *testing.T) {
	rec := &recorderStub{}
	engine, err := NewEngine(Policy{Tiers: tiers(map[Granularity]int{Day: 1})}, WithRecorder(rec))
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}

	h := history(1, "2024-03-10T12:00:00Z", "2024-03-10T11:00:00Z")
	for i := 0; i < 3; i++ {
		if _, err := engine.Decide([]revision.History{h}); err != nil {
			t.Fatalf("Decide() failed: %v", err)
		}
	}

	if rec.calls != 3 {
		t.Errorf("calls = %d, want 3", rec.calls)
	}
	if rec.removed != 3 {
		t.Errorf("removed = %d, want 3", rec.removed)
	}
}

package retention

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"mercator-hq/revprune/pkg/revision"
)

// Action is the verdict for one record.
type Action string

const (
	// ActionKeep preserves the record.
	ActionKeep Action = "keep"
	// ActionRemove marks the record for removal.
	ActionRemove Action = "remove"
)

// Reason names the rule that produced a verdict.
type Reason string

const (
	ReasonMinRev          Reason = "min-rev"
	ReasonHistoryKeepLast Reason = "history-keep-last"
	ReasonKeepBefore      Reason = "keep-before"
	ReasonKeepAfter       Reason = "keep-after"
	ReasonKeepLast        Reason = "keep-last"
	ReasonSaturated       Reason = "saturated"
	ReasonNoTier          Reason = "no-tier"
)

// tierReason builds "<tier>:<outcome>" reasons such as "day:new-bucket".
func tierReason(g Granularity, outcome string) Reason {
	return Reason(g.String() + ":" + outcome)
}

// Outcome describes how a whole history was handled.
type Outcome string

const (
	// OutcomeSkippedMinRev means keep-less-than-n-rev preserved the history.
	OutcomeSkippedMinRev Outcome = "skipped-min-rev"
	// OutcomeSkippedKeepLast means keep-last covered the whole history.
	OutcomeSkippedKeepLast Outcome = "skipped-keep-last"
	// OutcomeEvaluated means entries were classified one by one.
	OutcomeEvaluated Outcome = "evaluated"
)

// Verdict is the decision for a single record.
type Verdict struct {
	RecordID int64  `json:"record_id"`
	ParentID int64  `json:"parent_id"`
	Action   Action `json:"action"`
	Reason   Reason `json:"reason"`
}

// HistoryResult holds the verdicts of one history, in entry order.
type HistoryResult struct {
	ParentID int64     `json:"parent_id"`
	Outcome  Outcome   `json:"outcome"`
	Entries  int       `json:"entries"`
	Removed  int       `json:"removed"`
	Verdicts []Verdict `json:"verdicts"`
}

// Result is the full output of an evaluation.
type Result struct {
	// Decision is the set of record IDs to remove.
	Decision revision.Decision

	// Histories holds one result per input history, in input order.
	Histories []HistoryResult

	byRecord map[int64]Verdict
}

// VerdictFor returns the verdict of a record.
func (r *Result) VerdictFor(recordID int64) (Verdict, bool) {
	v, ok := r.byRecord[recordID]
	return v, ok
}

// Evaluated returns the total number of records seen.
func (r *Result) Evaluated() int {
	n := 0
	for _, h := range r.Histories {
		n += h.Entries
	}
	return n
}

// Recorder receives a summary of every evaluation.
// pkg/telemetry/metrics.Collector implements it.
type Recorder interface {
	RecordEvaluation(result *Result, duration time.Duration)
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers evaluates histories on up to n goroutines. Values below 2
// keep evaluation sequential. The result does not depend on n.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithRecorder reports each evaluation to r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithLogger replaces the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Engine applies a validated Policy to record histories.
// An Engine holds no per-run state and is safe for concurrent use.
type Engine struct {
	policy   Policy
	tiers    []Tier
	workers  int
	recorder Recorder
	logger   *slog.Logger
}

// NewEngine validates the policy and returns an Engine for it.
// An invalid policy yields a *revision.InvalidPolicyError.
func NewEngine(policy Policy, opts ...Option) (*Engine, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	policy = policy.clone()
	e := &Engine{
		policy: policy,
		tiers:  policy.ActiveTiers(),
		logger: slog.Default().With("component", "revision.retention"),
	}
	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Policy returns a copy of the engine's policy.
func (e *Engine) Policy() Policy {
	return e.policy.clone()
}

// Decide returns the set of record IDs the policy marks for removal.
func (e *Engine) Decide(histories []revision.History) (revision.Decision, error) {
	res, err := e.Evaluate(histories)
	if err != nil {
		return nil, err
	}
	return res.Decision, nil
}

// Evaluate classifies every record of every history.
//
// All histories are checked for newest-first ordering before any of them is
// classified; the first violation is returned as *revision.UnorderedHistoryError
// and no partial result is produced.
func (e *Engine) Evaluate(histories []revision.History) (*Result, error) {
	start := time.Now()

	for _, h := range histories {
		if err := h.Validate(); err != nil {
			return nil, err
		}
	}

	results := make([]HistoryResult, len(histories))
	if e.workers > 1 && len(histories) > 1 {
		g := new(errgroup.Group)
		g.SetLimit(e.workers)
		for i := range histories {
			i := i
			g.Go(func() error {
				results[i] = e.evaluateHistory(histories[i])
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range histories {
			results[i] = e.evaluateHistory(histories[i])
		}
	}

	res := &Result{
		Decision:  revision.NewDecision(),
		Histories: results,
		byRecord:  make(map[int64]Verdict),
	}
	for _, h := range results {
		for _, v := range h.Verdicts {
			res.byRecord[v.RecordID] = v
			if v.Action == ActionRemove {
				res.Decision.Add(v.RecordID)
			}
		}
	}

	elapsed := time.Since(start)
	if e.recorder != nil {
		e.recorder.RecordEvaluation(res, elapsed)
	}

	e.logger.Debug("retention evaluation completed",
		"histories", len(histories),
		"evaluated", res.Evaluated(),
		"removed", res.Decision.Len(),
		"policy", e.policy.String(),
		"duration_ms", elapsed.Milliseconds(),
	)

	return res, nil
}

// evaluateHistory runs the skip rules and the per-entry pass on one history.
func (e *Engine) evaluateHistory(h revision.History) HistoryResult {
	out := HistoryResult{
		ParentID: h.ParentID,
		Entries:  len(h.Entries),
		Verdicts: make([]Verdict, 0, len(h.Entries)),
	}

	n := len(h.Entries)
	switch {
	case e.policy.KeepLessThanNRev != nil && n <= *e.policy.KeepLessThanNRev:
		e.logger.Debug("[min-rev] preserves all revisions", "parent_id", h.ParentID, "entries", n)
		return keepAll(out, h, OutcomeSkippedMinRev, ReasonMinRev)
	case e.policy.KeepLast != nil && n <= *e.policy.KeepLast:
		e.logger.Debug("[keep-last] preserves all revisions", "parent_id", h.ParentID, "entries", n)
		return keepAll(out, h, OutcomeSkippedKeepLast, ReasonHistoryKeepLast)
	}

	out.Outcome = OutcomeEvaluated
	pass := newHistoryPass(&e.policy, e.tiers)
	trace := e.logger.Enabled(context.Background(), slog.LevelDebug)

	for _, r := range h.Entries {
		action, reason := pass.classify(r)
		if action == ActionRemove {
			out.Removed++
		}
		if trace {
			e.logger.Debug("["+string(reason)+"] "+string(action), "parent_id", h.ParentID, "record_id", r.ID)
		}
		out.Verdicts = append(out.Verdicts, Verdict{
			RecordID: r.ID,
			ParentID: h.ParentID,
			Action:   action,
			Reason:   reason,
		})
	}

	return out
}

func keepAll(out HistoryResult, h revision.History, outcome Outcome, reason Reason) HistoryResult {
	out.Outcome = outcome
	for _, r := range h.Entries {
		out.Verdicts = append(out.Verdicts, Verdict{
			RecordID: r.ID,
			ParentID: h.ParentID,
			Action:   ActionKeep,
			Reason:   reason,
		})
	}
	return out
}

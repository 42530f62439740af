// Package retention decides which revisions of a history to keep and which
// to remove under a grandfather-father-son (GFS) retention policy.
//
// # Retention Policy
//
// A Policy combines:
//
//   - keep-last: always keep the N most recent entries of each history
//   - keep-less-than-n-rev: leave histories with at most N entries untouched
//   - keep-before / keep-after: always keep entries outside a date window
//   - hourly/daily/weekly/monthly/yearly quotas (tiers)
//
// # Basic Usage
//
//	policy := retention.Policy{KeepLast: retention.Count(5)}
//	policy.SetQuota(retention.Day, retention.Count(1))
//	policy.SetQuota(retention.Month, retention.Count(2))
//
//	engine, err := retention.NewEngine(policy)
//	if err != nil {
//	    // *revision.InvalidPolicyError
//	}
//
//	decision, err := engine.Decide(histories)
//	for _, id := range decision.IDs() {
//	    fmt.Println(id)
//	}
//
// # Classification
//
// Entries are visited newest-first. Date bounds and keep-last are applied
// before the tiers and never touch tier bookkeeping. Each remaining entry is
// offered to the active tiers from finest to coarsest:
//
//   - an entry that opens a new bucket at a tier is kept by that tier
//   - an entry that fits in the current bucket's quota is kept
//   - a saturated tier passes the entry on to the next coarser tier
//
// An entry rejected by every tier is removed. Finer tiers claim entries
// first, and the first entry of a new week is still kept when its day bucket
// is already full.
//
// Bucket keys are computed in UTC; weeks follow ISO 8601.
//
// # Scheduling
//
// Scheduler re-runs an evaluation Job on a cron expression. It is used by
// `revprune watch`; each run starts from a fresh read of the input.
package retention

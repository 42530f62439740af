package retention

import (
	"time"

	"mercator-hq/revprune/pkg/revision"
)

// tierOutcome is the result of offering an entry to one tier.
type tierOutcome int

const (
	// outcomeSaturated means the tier has no room left in the entry's bucket;
	// the next coarser tier is consulted.
	outcomeSaturated tierOutcome = iota
	// outcomeNewBucket means the entry opened a new bucket and is kept.
	outcomeNewBucket
	// outcomeQuotaRoom means the current bucket still had room and the entry is kept.
	outcomeQuotaRoom
)

// BucketState tracks the most recent bucket seen by one tier during a single
// history pass, and how many entries that bucket has admitted.
type BucketState struct {
	Key   string
	Count int
	seen  bool
}

// admit offers an entry whose bucket key is key to a tier with the given
// quota. A zero quota admits nothing and leaves the state untouched.
func (s *BucketState) admit(key string, quota int) tierOutcome {
	// A zero-quota tier stays active but never claims an entry, so the entry
	// falls through to the coarser tiers instead of being removed here.
	if quota <= 0 {
		return outcomeSaturated
	}
	if !s.seen || s.Key != key {
		s.Key = key
		s.Count = 1
		s.seen = true
		return outcomeNewBucket
	}
	if s.Count < quota {
		s.Count++
		return outcomeQuotaRoom
	}
	return outcomeSaturated
}

// historyPass holds the bookkeeping of one history. It is created per
// history and discarded afterwards.
type historyPass struct {
	policy     *Policy
	tiers      []Tier
	states     []BucketState
	keptByLast int
}

func newHistoryPass(policy *Policy, tiers []Tier) *historyPass {
	return &historyPass{
		policy: policy,
		tiers:  tiers,
		states: make([]BucketState, len(tiers)),
	}
}

// classify decides one entry. Entries must be fed newest-first.
func (hp *historyPass) classify(r revision.Record) (Action, Reason) {
	p := hp.policy

	if p.KeepBefore != nil && !r.Timestamp.After(*p.KeepBefore) {
		return ActionKeep, ReasonKeepBefore
	}
	if p.KeepAfter != nil && !r.Timestamp.Before(*p.KeepAfter) {
		return ActionKeep, ReasonKeepAfter
	}
	if p.KeepLast != nil && hp.keptByLast < *p.KeepLast {
		hp.keptByLast++
		return ActionKeep, ReasonKeepLast
	}

	return hp.classifyTiers(r.Timestamp)
}

// classifyTiers walks the active tiers finest to coarsest. The first tier
// that admits the entry keeps it; if every tier is saturated it is removed.
func (hp *historyPass) classifyTiers(ts time.Time) (Action, Reason) {
	if len(hp.tiers) == 0 {
		return ActionRemove, ReasonNoTier
	}

	for i, tier := range hp.tiers {
		switch hp.states[i].admit(tier.Granularity.BucketKey(ts), *tier.Quota) {
		case outcomeNewBucket:
			return ActionKeep, tierReason(tier.Granularity, "new-bucket")
		case outcomeQuotaRoom:
			return ActionKeep, tierReason(tier.Granularity, "quota-room")
		}
	}

	return ActionRemove, ReasonSaturated
}

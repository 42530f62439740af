package retention

import (
	"fmt"
	"strings"
	"time"

	"mercator-hq/revprune/pkg/revision"
)

// Tier is one GFS level: a granularity and how many entries each of its
// buckets may hold. A nil Quota means the tier is not configured.
type Tier struct {
	Granularity Granularity
	Quota       *int
}

// Active reports whether the tier takes part in classification.
func (t Tier) Active() bool {
	return t.Quota != nil
}

// Policy is the retention configuration applied to every history.
// Nil fields are unset.
type Policy struct {
	// KeepLast always preserves the N most recent entries of a history and
	// skips histories with at most N entries.
	KeepLast *int

	// KeepLessThanNRev skips histories with at most N entries.
	KeepLessThanNRev *int

	// KeepBefore preserves entries at or before this instant.
	KeepBefore *time.Time

	// KeepAfter preserves entries at or after this instant.
	KeepAfter *time.Time

	// Tiers are the GFS quotas, ordered from finest to coarsest.
	Tiers []Tier
}

// Count returns a pointer to n, for building policies inline.
func Count(n int) *int {
	return &n
}

// At returns a pointer to t, for building policies inline.
func At(t time.Time) *time.Time {
	return &t
}

// SetQuota configures the tier at granularity g, inserting it at its
// finest-to-coarsest position when missing. A nil quota deactivates it.
func (p *Policy) SetQuota(g Granularity, quota *int) {
	for i := range p.Tiers {
		if p.Tiers[i].Granularity == g {
			p.Tiers[i].Quota = quota
			return
		}
	}

	tier := Tier{Granularity: g, Quota: quota}
	for i := range p.Tiers {
		if p.Tiers[i].Granularity > g {
			p.Tiers = append(p.Tiers[:i], append([]Tier{tier}, p.Tiers[i:]...)...)
			return
		}
	}
	p.Tiers = append(p.Tiers, tier)
}

// clone deep-copies the policy so callers cannot mutate it afterwards.
func (p Policy) clone() Policy {
	c := Policy{Tiers: make([]Tier, len(p.Tiers))}
	if p.KeepLast != nil {
		c.KeepLast = Count(*p.KeepLast)
	}
	if p.KeepLessThanNRev != nil {
		c.KeepLessThanNRev = Count(*p.KeepLessThanNRev)
	}
	if p.KeepBefore != nil {
		c.KeepBefore = At(*p.KeepBefore)
	}
	if p.KeepAfter != nil {
		c.KeepAfter = At(*p.KeepAfter)
	}
	for i, t := range p.Tiers {
		c.Tiers[i] = Tier{Granularity: t.Granularity}
		if t.Quota != nil {
			c.Tiers[i].Quota = Count(*t.Quota)
		}
	}
	return c
}

// ActiveTiers returns the configured tiers in evaluation order.
func (p *Policy) ActiveTiers() []Tier {
	var tiers []Tier
	for _, t := range p.Tiers {
		if t.Active() {
			tiers = append(tiers, t)
		}
	}
	return tiers
}

// Validate checks counts, date bounds and tier ordering. Every violation is
// collected into a single *revision.InvalidPolicyError.
func (p *Policy) Validate() error {
	var violations []revision.PolicyViolation

	checkCount := func(field string, n *int) {
		if n != nil && *n < 0 {
			violations = append(violations, revision.PolicyViolation{
				Field:   field,
				Message: fmt.Sprintf("must not be negative (got %d)", *n),
			})
		}
	}

	checkCount("keep-last", p.KeepLast)
	checkCount("keep-less-than-n-rev", p.KeepLessThanNRev)

	if p.KeepBefore != nil && p.KeepAfter != nil && p.KeepBefore.After(*p.KeepAfter) {
		violations = append(violations, revision.PolicyViolation{
			Field: "keep-before",
			Message: fmt.Sprintf("%s is after keep-after %s",
				p.KeepBefore.Format(time.RFC3339), p.KeepAfter.Format(time.RFC3339)),
		})
	}

	seen := make(map[Granularity]bool, len(p.Tiers))
	prev := Granularity(-1)
	for _, t := range p.Tiers {
		if !t.Granularity.Valid() {
			violations = append(violations, revision.PolicyViolation{
				Field:   "tiers",
				Message: fmt.Sprintf("unknown granularity %d", int(t.Granularity)),
			})
			continue
		}
		if seen[t.Granularity] {
			violations = append(violations, revision.PolicyViolation{
				Field:   t.Granularity.Option(),
				Message: "configured more than once",
			})
			continue
		}
		if t.Granularity < prev {
			violations = append(violations, revision.PolicyViolation{
				Field:   t.Granularity.Option(),
				Message: fmt.Sprintf("tier %s listed after coarser tier %s", t.Granularity, prev),
			})
		}
		seen[t.Granularity] = true
		prev = t.Granularity
		checkCount(t.Granularity.Option(), t.Quota)
	}

	if len(violations) > 0 {
		return revision.NewInvalidPolicyError(violations...)
	}
	return nil
}

// String renders the configured options in command-line form.
func (p *Policy) String() string {
	var parts []string
	if p.KeepLast != nil {
		parts = append(parts, fmt.Sprintf("keep-last=%d", *p.KeepLast))
	}
	if p.KeepLessThanNRev != nil {
		parts = append(parts, fmt.Sprintf("keep-less-than-n-rev=%d", *p.KeepLessThanNRev))
	}
	if p.KeepBefore != nil {
		parts = append(parts, "keep-before="+p.KeepBefore.Format(time.RFC3339))
	}
	if p.KeepAfter != nil {
		parts = append(parts, "keep-after="+p.KeepAfter.Format(time.RFC3339))
	}
	for _, t := range p.ActiveTiers() {
		parts = append(parts, fmt.Sprintf("%s=%d", t.Granularity.Option(), *t.Quota))
	}
	if len(parts) == 0 {
		return "(empty)"
	}
	return strings.Join(parts, " ")
}

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDate parses a keep-before/keep-after bound. Values without a zone
// are interpreted as UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q (expected yyyy-mm-dd, yyyy-mm-dd hh:mm:ss or RFC3339)", s)
}

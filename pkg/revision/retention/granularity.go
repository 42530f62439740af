package retention

import (
	"fmt"
	"strings"
	"time"
)

// Granularity is the calendar unit of a retention tier.
// Values are ordered from finest to coarsest.
type Granularity int

const (
	// Hour buckets entries by UTC calendar hour.
	Hour Granularity = iota
	// Day buckets entries by UTC calendar day.
	Day
	// Week buckets entries by ISO 8601 week.
	Week
	// Month buckets entries by UTC calendar month.
	Month
	// Year buckets entries by UTC calendar year.
	Year
)

// Granularities lists every granularity from finest to coarsest.
var Granularities = []Granularity{Hour, Day, Week, Month, Year}

// String returns the tier name ("hour", "day", ...).
func (g Granularity) String() string {
	switch g {
	case Hour:
		return "hour"
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	case Year:
		return "year"
	default:
		return fmt.Sprintf("granularity(%d)", int(g))
	}
}

// Option returns the command-line option that sets this tier's quota
// ("keep-hourly", "keep-daily", ...).
func (g Granularity) Option() string {
	switch g {
	case Hour:
		return "keep-hourly"
	case Day:
		return "keep-daily"
	case Week:
		return "keep-weekly"
	case Month:
		return "keep-monthly"
	case Year:
		return "keep-yearly"
	default:
		return g.String()
	}
}

// Valid reports whether g is a known granularity.
func (g Granularity) Valid() bool {
	return g >= Hour && g <= Year
}

// BucketKey returns the bucket identifier of t at this granularity.
// Keys are computed in UTC so a bucket never depends on the local zone.
func (g Granularity) BucketKey(t time.Time) string {
	t = t.UTC()
	switch g {
	case Hour:
		return t.Format("2006-01-02-15")
	case Day:
		return t.Format("2006-01-02")
	case Week:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case Month:
		return t.Format("2006-01")
	case Year:
		return t.Format("2006")
	default:
		return ""
	}
}

// ParseGranularity parses a tier name. Both the short form ("day") and the
// adverb form ("daily") are accepted.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hour", "hourly":
		return Hour, nil
	case "day", "daily":
		return Day, nil
	case "week", "weekly":
		return Week, nil
	case "month", "monthly":
		return Month, nil
	case "year", "yearly":
		return Year, nil
	default:
		return 0, fmt.Errorf("unknown granularity %q", s)
	}
}

package revision

import (
	"slices"
	"time"
)

// Record is a single timestamped revision belonging to a parent entity.
// Records are values and must not be mutated once grouped into a History.
type Record struct {
	// Identity
	ID       int64 `json:"id"`        // Unique record identifier
	ParentID int64 `json:"parent_id"` // Owning entity

	// Timestamp is when the revision was created (second resolution or better).
	Timestamp time.Time `json:"timestamp"`

	// Fields holds the raw input columns the record was parsed from, in order.
	Fields []string `json:"fields,omitempty"`
}

// History is the complete newest-first sequence of records of one parent.
type History struct {
	ParentID int64    `json:"parent_id"`
	Entries  []Record `json:"entries"`
}

// NewHistory builds a History after checking that entries are ordered
// newest-first (non-increasing timestamps). It returns an
// *UnorderedHistoryError pointing at the first out-of-order entry otherwise.
func NewHistory(parentID int64, entries []Record) (History, error) {
	h := History{ParentID: parentID, Entries: entries}
	if err := h.Validate(); err != nil {
		return History{}, err
	}
	return h, nil
}

// Validate checks the newest-first ordering invariant.
func (h History) Validate() error {
	for i := 1; i < len(h.Entries); i++ {
		if h.Entries[i].Timestamp.After(h.Entries[i-1].Timestamp) {
			return NewUnorderedHistoryError(h.ParentID, i)
		}
	}
	return nil
}

// Len returns the number of entries in the history.
func (h History) Len() int {
	return len(h.Entries)
}

// Decision is the set of record IDs selected for removal.
type Decision map[int64]struct{}

// NewDecision creates an empty decision.
func NewDecision() Decision {
	return make(Decision)
}

// Add marks a record for removal.
func (d Decision) Add(id int64) {
	d[id] = struct{}{}
}

// Has reports whether the record is marked for removal.
func (d Decision) Has(id int64) bool {
	_, ok := d[id]
	return ok
}

// Len returns the number of records marked for removal.
func (d Decision) Len() int {
	return len(d)
}

// Merge adds every ID of other into d.
func (d Decision) Merge(other Decision) {
	for id := range other {
		d[id] = struct{}{}
	}
}

// IDs returns the removed record IDs in ascending order.
func (d Decision) IDs() []int64 {
	ids := make([]int64, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Package revision defines the record, history and decision types shared by
// the revprune pipeline.
//
// # Data Model
//
// A Record is one timestamped revision of a parent entity. A History groups
// every record of one parent, ordered newest-first:
//
//	history, err := revision.NewHistory(42, []revision.Record{
//	    {ID: 3, ParentID: 42, Timestamp: t3},
//	    {ID: 2, ParentID: 42, Timestamp: t2},
//	})
//	if err != nil {
//	    // *revision.UnorderedHistoryError
//	}
//
// The newest-first ordering is validated at construction time. The retention
// engine trusts it and never re-sorts a history.
//
// A Decision is the set of record IDs selected for removal. Every record not
// in the set is kept.
//
// # Errors
//
// The package exposes typed errors for malformed input rows, invalid policies
// and unordered histories. Each one matches its sentinel through errors.Is:
//
//	if errors.Is(err, revision.ErrInvalidPolicy) {
//	    ...
//	}
package revision

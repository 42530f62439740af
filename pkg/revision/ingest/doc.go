// Package ingest turns raw revision rows into newest-first histories.
//
// Rows come from a Source: CSVSource reads the output of
// `wp revisions list --format=csv --fields=ID,post_name,post_date_gmt`
// from a file or standard input, SQLiteSource queries a local database
// export. The Grouper then:
//
//   - drops a leading header row (first cell "ID")
//   - ignores rows whose name is not a revision or autosave slug
//   - reports unparseable rows as *revision.MalformedRecordError and
//     continues with the rest of the batch
//   - groups records by parent and sorts each group newest-first, breaking
//     timestamp ties by descending ID
//
// Example:
//
//	rows, err := (&ingest.CSVSource{Path: "revisions.csv", Stdin: os.Stdin}).Rows(ctx)
//	if err != nil {
//	    return err
//	}
//	grouped := ingest.NewGrouper(nil).Group(rows)
//	decision, err := engine.Decide(grouped.Histories)
package ingest

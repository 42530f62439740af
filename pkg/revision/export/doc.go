// Package export renders retention decisions.
//
// The plain listings mirror the `prune` command output:
//
//   - WriteRemoved prints removed IDs, one per line, ascending
//   - WriteAnnotated prints every record's raw fields tab-separated and
//     suffixes removed records with "[remove]"
//   - Summary.String prints "Prune N revisions out of M among P parent posts"
//
// Structured exporters implement Exporter:
//
//   - JSONExporter: run ID, summary, removed IDs and optional verdicts
//   - CSVExporter: one row per record with action and reason
//   - SQLiteJournal: appends each run to a SQLite file (prune_runs and
//     prune_decisions tables)
package export

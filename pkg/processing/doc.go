// Package processing wires the revprune pipeline together.
//
// A Processor reads rows from the configured source (CSV file, standard
// input or a SQLite export), groups them into histories, evaluates the
// retention policy, renders the report and appends it to the optional
// journal:
//
//	p := processing.NewProcessor(cfg, processing.WithCollector(collector))
//	report, err := p.Process(ctx)
//
// Nothing is deleted; the report only names what the policy would prune.
package processing

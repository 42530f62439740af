package main

import (
	"github.com/spf13/pflag"

	"mercator-hq/revprune/pkg/config"
	"mercator-hq/revprune/pkg/revision/retention"
)

// policyFlags holds the keep-* options shared by prune and watch.
var policyFlags struct {
	keepLast         int
	keepLessThanNRev int
	keepBefore       string
	keepAfter        string
	quotas           [5]int // indexed by retention.Granularity
}

// inputFlags and outputFlags override the input and output sections.
var inputFlags struct {
	file       string
	source     string
	sqlitePath string
	query      string
	timezone   string
}

var outputFlags struct {
	list     string
	format   string
	file     string
	journal  string
	verdicts bool
	compact  bool
	workers  int
}

// quotaFlag names the flag of each granularity.
var quotaFlag = map[retention.Granularity]string{
	retention.Hour:  "keep-hourly",
	retention.Day:   "keep-daily",
	retention.Week:  "keep-weekly",
	retention.Month: "keep-monthly",
	retention.Year:  "keep-yearly",
}

func addPolicyFlags(fs *pflag.FlagSet) {
	fs.IntVar(&policyFlags.keepLast, "keep-last", 0, "always keep the N most recent revisions of each post")
	fs.IntVar(&policyFlags.keepLessThanNRev, "keep-less-than-n-rev", 0, "leave posts with at most N revisions untouched")
	fs.StringVar(&policyFlags.keepBefore, "keep-before", "", "keep revisions at or before this date")
	fs.StringVar(&policyFlags.keepAfter, "keep-after", "", "keep revisions at or after this date")
	for _, g := range retention.Granularities {
		fs.IntVar(&policyFlags.quotas[g], quotaFlag[g], 0, "revisions to keep per "+g.String())
	}
}

func addInputFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&inputFlags.file, "file", "f", "", "CSV file to read (standard input when empty or unreadable)")
	fs.StringVar(&inputFlags.source, "source", "", "input source: csv, sqlite")
	fs.StringVar(&inputFlags.sqlitePath, "sqlite-path", "", "SQLite export to read with --source=sqlite")
	fs.StringVar(&inputFlags.query, "sqlite-query", "", "query returning ID, post_name and post_date_gmt")
	fs.StringVar(&inputFlags.timezone, "timezone", "", "timezone of timestamps without an offset")
}

func addOutputFlags(fs *pflag.FlagSet) {
	fs.StringVar(&outputFlags.list, "list", "", "list records before the summary: all, removed")
	fs.Lookup("list").NoOptDefVal = "all"
	fs.StringVar(&outputFlags.format, "format", "", "report format: text, json, csv")
	fs.StringVarP(&outputFlags.file, "output", "o", "", "write the report to a file")
	fs.StringVar(&outputFlags.journal, "journal", "", "append verdicts to a SQLite journal")
	fs.BoolVar(&outputFlags.verdicts, "verdicts", false, "include per-record verdicts in JSON reports")
	fs.BoolVar(&outputFlags.compact, "compact", false, "do not indent JSON reports")
	fs.IntVar(&outputFlags.workers, "workers", 0, "goroutines evaluating histories")
}

// resolveConfig copies the process-wide configuration, applies every flag
// set on the command line and validates the result.
func resolveConfig(fs *pflag.FlagSet) (*config.Config, error) {
	base := config.GetConfig()
	if base == nil {
		base = config.Default()
	}
	cfg := *base

	applyPolicyFlags(fs, &cfg.Policy)

	if fs.Changed("file") {
		cfg.Input.File = inputFlags.file
	}
	if fs.Changed("source") {
		cfg.Input.Source = inputFlags.source
	}
	if fs.Changed("sqlite-path") {
		cfg.Input.SQLite.Path = inputFlags.sqlitePath
		if !fs.Changed("source") {
			cfg.Input.Source = "sqlite"
		}
	}
	if fs.Changed("sqlite-query") {
		cfg.Input.SQLite.Query = inputFlags.query
	}
	if fs.Changed("timezone") {
		cfg.Input.Timezone = inputFlags.timezone
	}

	if fs.Changed("list") {
		cfg.Output.List = outputFlags.list
	}
	if fs.Changed("format") {
		cfg.Output.Format = outputFlags.format
	}
	if fs.Changed("output") {
		cfg.Output.File = outputFlags.file
	}
	if fs.Changed("journal") {
		cfg.Output.Journal = outputFlags.journal
	}
	if fs.Changed("verdicts") {
		cfg.Output.Verdicts = outputFlags.verdicts
	}
	if fs.Changed("compact") {
		cfg.Output.CompactJSON = outputFlags.compact
	}
	if fs.Changed("workers") {
		cfg.Engine.Workers = outputFlags.workers
	}

	applyWatchFlags(fs, &cfg.Watch)

	if err := config.Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPolicyFlags replaces a policy option only when its flag was given,
// so a flag can override a config file value with 0.
func applyPolicyFlags(fs *pflag.FlagSet, p *config.PolicyConfig) {
	if fs.Changed("keep-last") {
		p.KeepLast = retention.Count(policyFlags.keepLast)
	}
	if fs.Changed("keep-less-than-n-rev") {
		p.KeepLessThanNRev = retention.Count(policyFlags.keepLessThanNRev)
	}
	if fs.Changed("keep-before") {
		p.KeepBefore = policyFlags.keepBefore
	}
	if fs.Changed("keep-after") {
		p.KeepAfter = policyFlags.keepAfter
	}

	for _, g := range retention.Granularities {
		if !fs.Changed(quotaFlag[g]) {
			continue
		}
		q := retention.Count(policyFlags.quotas[g])
		switch g {
		case retention.Hour:
			p.KeepHourly = q
		case retention.Day:
			p.KeepDaily = q
		case retention.Week:
			p.KeepWeekly = q
		case retention.Month:
			p.KeepMonthly = q
		case retention.Year:
			p.KeepYearly = q
		}
	}
}

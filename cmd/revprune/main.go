// revprune decides which stored revisions of a post a retention policy
// would prune.
//
// It reads `wp revisions list` CSV output (or a SQLite export), groups the
// revisions by parent post and applies skip rules, date bounds, keep-last
// and hourly/daily/weekly/monthly/yearly quotas. Nothing is deleted: the
// result is a list of IDs to feed into the command that does.
//
// Usage:
//
//	# Keep one revision per day and the 3 newest per post
//	wp revisions list --format=csv --fields=ID,post_name,post_date_gmt | \
//	    revprune prune --keep-last=3 --keep-daily=1
//
//	# Only print the IDs to remove
//	revprune prune --file revisions.csv --keep-monthly=1 --list=removed
//
//	# Re-evaluate nightly and whenever the export changes
//	revprune watch --config revprune.yaml --schedule "0 3 * * *" --files
package main

func main() {
	Execute()
}

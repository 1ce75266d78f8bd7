// Package retention prunes history records by age and by count.
//
// Age-based pruning deletes records older than history.retention.days;
// count-based pruning keeps only the newest history.retention.max_records.
// Both run in one Prune call, either on demand (kae history prune) or on
// the cron schedule in history.retention.prune_schedule.
package retention

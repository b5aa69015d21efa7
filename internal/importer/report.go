// Package importer runs rule batches: compile every row in parallel,
// collect per-row failures into a report, and upsert the rest through
// the store. A row that fails to compile is data for the report, never
// a reason to stop the batch.
package importer

import (
	"math"
	"time"
)

// Failure is one row the compiler rejected, with enough of the raw row
// to find it in the source sheet.
type Failure struct {
	ID       int64  `json:"id"`
	Category string `json:"category"`
	Field1   string `json:"field1,omitempty"`
	Field2   string `json:"field2,omitempty"`
	Reason   string `json:"reason"`
}

// Report summarizes one batch. RuleVersion is set only when the batch
// was applied and bumped the store version.
type Report struct {
	BatchID     string    `json:"batch_id"`
	Total       int       `json:"total"`
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	SuccessRate float64   `json:"success_rate"`
	DryRun      bool      `json:"dry_run"`
	RuleVersion int64     `json:"rule_version,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
	Failures    []Failure `json:"failures,omitempty"`
}

// NewReport builds the summary for a batch of total rows with the given
// failures. SuccessRate is a percentage rounded to two decimals; an
// empty batch counts as fully successful.
func NewReport(batchID string, total int, failures []Failure, dur time.Duration, dryRun bool) Report {
	succeeded := total - len(failures)
	rate := 100.0
	if total > 0 {
		rate = math.Round(float64(succeeded)/float64(total)*10000) / 100
	}
	return Report{
		BatchID:     batchID,
		Total:       total,
		Succeeded:   succeeded,
		Failed:      len(failures),
		SuccessRate: rate,
		DryRun:      dryRun,
		DurationMS:  dur.Milliseconds(),
		Failures:    failures,
	}
}

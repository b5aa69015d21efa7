package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"bazi-backend/internal/compiler"
	"bazi-backend/internal/condition"
	"bazi-backend/internal/logging"
	"bazi-backend/internal/rules"
)

// Store is the slice of the rule store the importer writes through.
type Store interface {
	rules.Source
	UpsertRules(ctx context.Context, recs []rules.Record) (int64, error)
	BumpRuleVersion(ctx context.Context) (int64, error)
}

type Importer struct {
	store     Store
	registry  *rules.Registry // nil when no live registry needs reloading
	workers   int
	chunkSize int
	priority  int
}

func New(store Store, reg *rules.Registry, workers, chunkSize, priority int) *Importer {
	if workers <= 0 {
		workers = 8
	}
	if chunkSize <= 0 {
		chunkSize = 200
	}
	if priority <= 0 {
		priority = rules.DefaultPriority
	}
	return &Importer{
		store:     store,
		registry:  reg,
		workers:   workers,
		chunkSize: chunkSize,
		priority:  priority,
	}
}

// Run compiles every row and, unless dryRun, upserts the compiled ones,
// bumps the rule version once and reloads the registry. Compile
// failures land in the report and the batch continues; the returned
// error covers store trouble only. Rows keep their input order all the
// way to the store.
func (im *Importer) Run(ctx context.Context, rows []compiler.Row, dryRun bool) (Report, error) {
	start := time.Now()
	batchID := uuid.New().String()

	results := make([]compiler.Result, len(rows))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(im.workers)
	for i, row := range rows {
		g.Go(func() error {
			results[i] = compiler.Compile(row)
			return nil
		})
	}
	_ = g.Wait()

	recs := make([]rules.Record, 0, len(rows))
	var failures []Failure
	for i, row := range rows {
		res := results[i]
		if !res.OK {
			failures = append(failures, Failure{
				ID:       row.ID,
				Category: row.Category,
				Field1:   row.Field1,
				Field2:   row.Field2,
				Reason:   res.Reason,
			})
			continue
		}
		recs = append(recs, im.record(row, res.Tree))
	}

	report := NewReport(batchID, len(rows), failures, time.Since(start), dryRun)
	if dryRun || len(recs) == 0 {
		report.DurationMS = time.Since(start).Milliseconds()
		return report, nil
	}

	for lo := 0; lo < len(recs); lo += im.chunkSize {
		hi := min(lo+im.chunkSize, len(recs))
		if _, err := im.store.UpsertRules(ctx, recs[lo:hi]); err != nil {
			return report, fmt.Errorf("upsert rules %d..%d: %w", lo, hi, err)
		}
	}

	version, err := im.store.BumpRuleVersion(ctx)
	if err != nil {
		return report, fmt.Errorf("bump rule version: %w", err)
	}
	report.RuleVersion = version

	if im.registry != nil {
		if err := rules.LoadAll(ctx, im.store, im.registry); err != nil {
			return report, fmt.Errorf("reload registry: %w", err)
		}
	}

	report.DurationMS = time.Since(start).Milliseconds()
	logging.WithContext(ctx).Info("rule batch imported",
		"batch", batchID,
		"total", report.Total,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"version", version)
	return report, nil
}

// record shapes one compiled row for the store. The code comes from the
// resolved category tag so sheet names and tags land on the same key;
// the raw row is kept as JSON in the description for audit.
func (im *Importer) record(row compiler.Row, tree condition.Node) rules.Record {
	category, _ := compiler.ResolveCategory(row.Category)
	raw, _ := json.Marshal(row)
	return rules.Record{
		ID:          row.ID,
		Code:        rules.Code(category, row.ID),
		Name:        ruleName(row),
		Type:        rules.TypeFormula,
		Category:    category,
		Priority:    im.priority,
		Conditions:  tree,
		Content:     row.Content,
		Description: string(raw),
		Source:      row.Category,
		Enabled:     true,
	}
}

// ruleName is the normalized condition text, the handle admins know a
// rule by. The raw spelling stays available in the description.
func ruleName(row compiler.Row) string {
	f1 := compiler.Normalize(row.Field1)
	f2 := compiler.Normalize(row.Field2)
	switch {
	case f1 != "" && f2 != "":
		return f1 + "，" + f2
	case f1 != "":
		return f1
	default:
		return f2
	}
}

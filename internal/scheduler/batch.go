package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"suumo-checker/internal/cleanup"
	"suumo-checker/internal/models"
	"suumo-checker/internal/report"
)

// BatchChecker runs the pipeline over a list of targets
type BatchChecker interface {
	CheckAll(ctx context.Context, targets []models.Target) []*models.CheckResult
}

// BatchOptions configures a batch run
type BatchOptions struct {
	TargetsPath     string
	OutputPath      string
	TimestampFormat string
	Location        *time.Location
	MaxRuns         int  // 0 keeps every run column
	PruneDryRun     bool // log pruning without dropping columns
}

// BatchSummary describes one finished run
type BatchSummary struct {
	Label   string
	Targets int
	Checked int
	Counts  map[models.CheckStatus]int
	Changes []report.Change
}

// Batch loads targets, checks them and appends the run to the report.
// Only one run executes at a time.
type Batch struct {
	checker BatchChecker
	opts    BatchOptions
	now     func() time.Time
	mu      sync.Mutex
}

// NewBatch creates a batch runner
func NewBatch(checker BatchChecker, opts BatchOptions) *Batch {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.TimestampFormat == "" {
		opts.TimestampFormat = "01-02 15:04"
	}
	return &Batch{checker: checker, opts: opts, now: time.Now}
}

// Run executes one batch. It returns an error if another run is in progress
// or the targets/report files cannot be used; per-listing failures are
// recorded in the report instead.
func (b *Batch) Run(ctx context.Context) (*BatchSummary, error) {
	if !b.mu.TryLock() {
		return nil, fmt.Errorf("batch already running")
	}
	defer b.mu.Unlock()

	targets, err := report.LoadTargets(b.opts.TargetsPath)
	if err != nil {
		return nil, err
	}

	sheet, err := report.LoadSheet(b.opts.OutputPath)
	if err != nil {
		return nil, err
	}
	sheet.Sync(targets)

	label := b.now().In(b.opts.Location).Format(b.opts.TimestampFormat)
	results := b.checker.CheckAll(ctx, targets)
	sheet.AppendRun(label, results)
	changes := sheet.Changes()
	pruneCfg := cleanup.DefaultCleanupConfig()
	pruneCfg.MaxRuns = b.opts.MaxRuns
	pruneCfg.DryRun = b.opts.PruneDryRun
	cleanup.PruneRuns(sheet, pruneCfg)

	if err := sheet.Save(b.opts.OutputPath); err != nil {
		return nil, err
	}

	summary := &BatchSummary{
		Label:   label,
		Targets: len(targets),
		Checked: len(results),
		Counts:  make(map[models.CheckStatus]int),
		Changes: changes,
	}
	for _, r := range results {
		summary.Counts[r.Status]++
	}

	log.Printf("[Batch] run %s: %d/%d checked, %d status changes",
		label, summary.Checked, summary.Targets, len(summary.Changes))
	for _, c := range summary.Changes {
		log.Printf("[Batch] changed: %s %s %q -> %q", c.Target.Name, c.Target.Room, c.Previous, c.Current)
	}
	return summary, nil
}

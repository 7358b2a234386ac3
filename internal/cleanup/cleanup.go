package cleanup

import (
	"log"
	"time"

	"suumo-checker/internal/report"
)

// CleanupConfig holds configuration for run history pruning
type CleanupConfig struct {
	MaxRuns int  // run columns to keep, newest first; 0 keeps everything
	DryRun  bool // only log what would be removed
}

// DefaultCleanupConfig returns default configuration
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		MaxRuns: 0,
		DryRun:  false,
	}
}

// CleanupResult holds the result of a pruning pass
type CleanupResult struct {
	TargetCount  int       `json:"target_count"`  // run columns eligible for removal
	DeletedCount int       `json:"deleted_count"` // run columns actually removed
	DryRun       bool      `json:"dry_run"`
	ExecutedAt   time.Time `json:"executed_at"`
	DeletedRuns  []string  `json:"deleted_runs"`
}

// PruneRuns drops the oldest run columns from sheet so at most MaxRuns remain.
// Row histories are trimmed in step with the run list.
func PruneRuns(sheet *report.Sheet, config CleanupConfig) *CleanupResult {
	result := &CleanupResult{
		DryRun:     config.DryRun,
		ExecutedAt: time.Now(),
	}
	if config.MaxRuns <= 0 || len(sheet.Runs) <= config.MaxRuns {
		return result
	}

	drop := len(sheet.Runs) - config.MaxRuns
	result.TargetCount = drop
	result.DeletedRuns = append([]string(nil), sheet.Runs[:drop]...)

	if config.DryRun {
		log.Printf("[Cleanup] [DRY-RUN] would drop %d run(s): %v", drop, result.DeletedRuns)
		return result
	}

	sheet.Runs = append([]string(nil), sheet.Runs[drop:]...)
	for i := range sheet.Rows {
		h := sheet.Rows[i].History
		if len(h) > drop {
			sheet.Rows[i].History = append([]string(nil), h[drop:]...)
		} else {
			sheet.Rows[i].History = nil
		}
	}
	result.DeletedCount = drop

	log.Printf("[Cleanup] dropped %d run(s), keeping %d", drop, len(sheet.Runs))
	return result
}

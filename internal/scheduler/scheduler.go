package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"suumo-checker/internal/config"
)

// Scheduler runs batches on a cron schedule
type Scheduler struct {
	cron      *cron.Cron
	batch     *Batch
	config    *config.Config
	ctx       context.Context
	cancel    context.CancelFunc
	entry     cron.EntryID
	mu        sync.Mutex
	isRunning bool
}

// NewScheduler creates a new scheduler in the configured time zone
func NewScheduler(batch *Batch, cfg *config.Config) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(cfg.Location())),
		batch:  batch,
		config: cfg,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Spec returns the cron expression in use: scheduler.cron if set, otherwise
// the daily run time.
func (s *Scheduler) Spec() string {
	if s.config.Scheduler.Cron != "" {
		return s.config.Scheduler.Cron
	}
	return parseDailyRunTime(s.config.Scheduler.DailyRunTime)
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.config.Scheduler.Enabled {
		log.Println("[Scheduler] disabled in configuration")
		return nil
	}
	if s.isRunning {
		return nil
	}

	// a previous Stop cancelled the run context
	if s.ctx.Err() != nil {
		s.ctx, s.cancel = context.WithCancel(context.Background())
	}
	if s.entry != 0 {
		s.cron.Remove(s.entry)
		s.entry = 0
	}

	spec := s.Spec()
	ctx := s.ctx
	entry, err := s.cron.AddFunc(spec, func() { s.runScheduled(ctx) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	s.entry = entry

	s.cron.Start()
	s.isRunning = true
	log.Printf("[Scheduler] started (cron: %s, tz: %s)", spec, s.config.Timezone)
	return nil
}

// Stop stops the scheduler and cancels a run in progress
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel()
	if s.isRunning {
		<-s.cron.Stop().Done()
		s.isRunning = false
		log.Println("[Scheduler] stopped")
	}
}

// RunNow executes a batch immediately (manual trigger)
func (s *Scheduler) RunNow(ctx context.Context) (*BatchSummary, error) {
	log.Println("[Scheduler] manual trigger")
	return s.batch.Run(ctx)
}

func (s *Scheduler) runScheduled(ctx context.Context) {
	log.Println("[Scheduler] starting scheduled run")
	if _, err := s.batch.Run(ctx); err != nil {
		log.Printf("[Scheduler] scheduled run failed: %v", err)
	}
}

// parseDailyRunTime converts HH:MM to a cron spec: "09:00" -> "0 9 * * *".
// Unparseable input falls back to 09:00.
func parseDailyRunTime(timeStr string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 && hour >= 0 && hour < 24 && minute >= 0 && minute < 60 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	log.Printf("[Scheduler] failed to parse time %q, using 09:00", timeStr)
	return "0 9 * * *"
}

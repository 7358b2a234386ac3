package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"suumo-checker/internal/checker"
	"suumo-checker/internal/config"
	"suumo-checker/internal/fetcher"
	"suumo-checker/internal/logging"
	"suumo-checker/internal/scheduler"
	"suumo-checker/internal/stations"
)

func main() {
	configPath := flag.String("config", getEnv("CONFIG_PATH", "config/checker.yaml"), "path to YAML config")
	once := flag.Bool("once", false, "run one batch and exit")
	singleURL := flag.String("url", "", "check a single listing URL and print the result as JSON")
	targets := flag.String("targets", "", "override report.targets_path")
	output := flag.String("out", "", "override report.output_path")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *targets != "" {
		cfg.Report.TargetsPath = *targets
	}
	if *output != "" {
		cfg.Report.OutputPath = *output
	}
	logging.Setup(cfg.Logging)

	resolver, err := stations.Load(cfg.Stations.File)
	if err != nil {
		log.Fatalf("Failed to load station table: %v", err)
	}
	f, _, err := fetcher.FromConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to create fetcher: %v", err)
	}
	pipeline := checker.New(f, resolver, checker.Options{
		PortalURL:   cfg.Portal.BaseURL,
		Prefecture:  cfg.Portal.Prefecture,
		CompanyName: cfg.Portal.CompanyName,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *singleURL != "" {
		result := pipeline.Check(ctx, *singleURL)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(result); err != nil {
			log.Fatalf("Failed to encode result: %v", err)
		}
		if result.Status.IsFailure() {
			os.Exit(1)
		}
		return
	}

	batch := scheduler.NewBatch(pipeline, scheduler.BatchOptions{
		TargetsPath:     cfg.Report.TargetsPath,
		OutputPath:      cfg.Report.OutputPath,
		TimestampFormat: cfg.Report.TimestampFormat,
		Location:        cfg.Location(),
		MaxRuns:         cfg.Report.MaxRuns,
		PruneDryRun:     cfg.Report.PruneDryRun,
	})

	if *once || !cfg.Scheduler.Enabled {
		summary, err := batch.Run(ctx)
		if err != nil {
			log.Fatalf("Batch failed: %v", err)
		}
		printSummary(summary)
		return
	}

	sched := scheduler.NewScheduler(batch, cfg)
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	log.Printf("Waiting for scheduled runs (%s); Ctrl-C to stop", sched.Spec())
	<-ctx.Done()
	sched.Stop()
}

func printSummary(s *scheduler.BatchSummary) {
	fmt.Printf("run %s: %d/%d checked\n", s.Label, s.Checked, s.Targets)
	for status, n := range s.Counts {
		fmt.Printf("  %-20s %d\n", status, n)
	}
	for _, c := range s.Changes {
		fmt.Printf("  changed: %s %s %q -> %q\n", c.Target.Name, c.Target.Room, c.Previous, c.Current)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"suumo-checker/internal/config"
	"suumo-checker/internal/fetcher"
	"suumo-checker/internal/logging"
	"suumo-checker/internal/models"
	"suumo-checker/internal/scraper"
	"suumo-checker/internal/search"
	"suumo-checker/internal/stations"
)

// Probe checks that the portal is reachable and its markup still parses,
// before pointing a batch at it.

type StepResult struct {
	Step      string    `json:"step"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Details   any       `json:"details,omitempty"`
}

type ProbeResults struct {
	URL            string       `json:"url"`
	Steps          []StepResult `json:"steps"`
	OverallSuccess bool         `json:"overall_success"`
	ExecutedAt     time.Time    `json:"executed_at"`
}

func main() {
	configPath := flag.String("config", getEnv("CONFIG_PATH", "config/checker.yaml"), "path to YAML config")
	listingURL := flag.String("url", os.Getenv("PROBE_URL"), "listing detail URL to probe")
	repeat := flag.Int("repeat", 3, "consecutive fetches required for the stability step")
	outPath := flag.String("out", "", "also write results JSON to this file")
	flag.Parse()

	if *listingURL == "" {
		log.Fatal("-url (or PROBE_URL) is required")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logging.Setup(cfg.Logging)

	f, portal, err := fetcher.FromConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to create fetcher: %v", err)
	}
	resolver, err := stations.Load(cfg.Stations.File)
	if err != nil {
		log.Fatalf("Failed to load station table: %v", err)
	}

	ctx := context.Background()
	results := &ProbeResults{URL: *listingURL, ExecutedAt: time.Now()}

	body, stability := probeStability(ctx, f, *listingURL, *repeat)
	results.Steps = append(results.Steps, stability)

	if body != nil {
		extract, conditions := probeExtraction(body)
		results.Steps = append(results.Steps, extract)

		if conditions != nil {
			builder := search.NewQueryBuilder(resolver, cfg.Portal.BaseURL, cfg.Portal.Prefecture)
			q, err := builder.BuildFromConditions(conditions)
			step := StepResult{Step: "query", Timestamp: time.Now()}
			if err != nil {
				step.Message = err.Error()
			} else {
				step.Success = true
				step.Message = q.String()
			}
			results.Steps = append(results.Steps, step)
		}
	}

	results.Steps = append(results.Steps, StepResult{
		Step:      "circuit_breaker",
		Success:   !portal.Breaker.GetStatus().Open,
		Message:   fmt.Sprintf("%+v pacer=%+v", portal.Breaker.GetStatus(), portal.Limiter.GetStats()),
		Timestamp: time.Now(),
	})

	results.OverallSuccess = true
	for _, s := range results.Steps {
		if !s.Success {
			results.OverallSuccess = false
		}
	}

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode results: %v", err)
	}
	fmt.Println(string(data))
	if *outPath != "" {
		if err := os.WriteFile(*outPath, data, 0o644); err != nil {
			log.Fatalf("Failed to write %s: %v", *outPath, err)
		}
	}
	if !results.OverallSuccess {
		os.Exit(1)
	}
}

// probeStability fetches url repeat times in a row; every fetch must succeed.
func probeStability(ctx context.Context, f fetcher.Fetcher, url string, repeat int) ([]byte, StepResult) {
	step := StepResult{Step: "fetch_stability", Timestamp: time.Now()}
	var body []byte
	sizes := make([]int, 0, repeat)

	for i := 0; i < repeat; i++ {
		page, err := f.Fetch(ctx, url)
		if err != nil {
			step.Message = fmt.Sprintf("fetch %d/%d failed: %v", i+1, repeat, err)
			step.Details = map[string]any{"sizes": sizes}
			return body, step
		}
		body = page.Body
		sizes = append(sizes, len(page.Body))
	}

	step.Success = true
	step.Message = fmt.Sprintf("%d consecutive fetches succeeded", repeat)
	step.Details = map[string]any{"sizes": sizes}
	return body, step
}

func probeExtraction(body []byte) (StepResult, *models.ListingConditions) {
	step := StepResult{Step: "extract", Timestamp: time.Now()}
	c, err := scraper.ParseConditions(bytes.NewReader(body))
	if err != nil {
		step.Message = err.Error()
		return step, nil
	}

	var missing []string
	if len(c.Stations) == 0 {
		missing = append(missing, "stations")
	}
	if c.Price == nil {
		missing = append(missing, "price")
	}
	if c.Area == nil {
		missing = append(missing, "area")
	}
	if _, ok := scraper.ExtractPropertyID(c.Title); !ok {
		missing = append(missing, "property_id")
	}

	step.Success = len(missing) == 0
	step.Details = c
	if step.Success {
		step.Message = "all key fields parsed"
	} else {
		step.Message = fmt.Sprintf("missing: %v", missing)
	}
	return step, c
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"suumo-checker/internal/checker"
	"suumo-checker/internal/config"
	"suumo-checker/internal/fetcher"
	"suumo-checker/internal/handlers"
	"suumo-checker/internal/logging"
	"suumo-checker/internal/ratelimit"
	"suumo-checker/internal/scheduler"
	"suumo-checker/internal/stations"
)

func main() {
	configPath := getEnv("CONFIG_PATH", "config/checker.yaml")
	appConfig, err := config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	}
	logging.Setup(appConfig.Logging)
	log.Printf("Loaded configuration from %s (fetcher: %s)", configPath, appConfig.Fetcher.Mode)

	resolver, err := stations.Load(appConfig.Stations.File)
	if err != nil {
		log.Fatalf("Failed to load station table: %v", err)
	}

	f, portal, err := fetcher.FromConfig(appConfig)
	if err != nil {
		log.Fatalf("Failed to create fetcher: %v", err)
	}

	pipeline := checker.New(f, resolver, checker.Options{
		PortalURL:   appConfig.Portal.BaseURL,
		Prefecture:  appConfig.Portal.Prefecture,
		CompanyName: appConfig.Portal.CompanyName,
	})

	rateLimiter := ratelimit.NewRateLimiter(
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.RequestsPerDay,
		appConfig.RateLimit.Enabled,
	)
	log.Printf("Rate limiter initialized: %d req/min, %d req/hour, %d req/day (enabled: %v)",
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.RequestsPerDay,
		appConfig.RateLimit.Enabled,
	)

	batch := scheduler.NewBatch(pipeline, scheduler.BatchOptions{
		TargetsPath:     appConfig.Report.TargetsPath,
		OutputPath:      appConfig.Report.OutputPath,
		TimestampFormat: appConfig.Report.TimestampFormat,
		Location:        appConfig.Location(),
		MaxRuns:         appConfig.Report.MaxRuns,
		PruneDryRun:     appConfig.Report.PruneDryRun,
	})
	appScheduler := scheduler.NewScheduler(batch, appConfig)
	if err := appScheduler.Start(); err != nil {
		log.Printf("Warning: Failed to start scheduler: %v", err)
	}
	defer appScheduler.Stop()

	checkHandler := handlers.NewCheckHandler(pipeline, pipeline.Builder(), appConfig.Server.MaxBatchSize)
	adminHandler := handlers.NewAdminHandler(appScheduler, appConfig.Report.OutputPath, rateLimiter, portal)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     appConfig.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	r.GET("/health", healthCheck)

	// Check routes fetch from the portal and are rate limited
	r.POST("/api/check", handlers.RateLimit(rateLimiter), checkHandler.Check)
	r.POST("/api/check/batch", handlers.RateLimit(rateLimiter), checkHandler.CheckBatch)

	r.POST("/api/query", checkHandler.BuildQuery)
	r.GET("/api/buckets", checkHandler.Buckets)
	r.GET("/api/ratelimit/stats", adminHandler.GetRateLimitStats)

	admin := r.Group("/api/admin")
	{
		admin.GET("/report", adminHandler.GetReport)
		admin.GET("/changes", adminHandler.GetChanges)
		admin.POST("/run", adminHandler.TriggerRun)
	}

	log.Printf("Server starting on port %s", appConfig.Server.Port)
	if err := r.Run(":" + appConfig.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now(),
	})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

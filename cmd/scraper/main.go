package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/Eli-the-creator/api/internal/browser"
	"github.com/Eli-the-creator/api/internal/config"
	"github.com/Eli-the-creator/api/internal/dedup"
	"github.com/Eli-the-creator/api/internal/models"
	"github.com/Eli-the-creator/api/internal/platform"
	"github.com/Eli-the-creator/api/internal/platform/glassdoor"
	"github.com/Eli-the-creator/api/internal/platform/indeed"
	"github.com/Eli-the-creator/api/internal/platform/linkedin"
	"github.com/Eli-the-creator/api/internal/proxy"
	"github.com/Eli-the-creator/api/internal/scrape"
	"github.com/Eli-the-creator/api/internal/stats"
	"github.com/Eli-the-creator/api/internal/store"
)

// One-shot scrape run: same pipeline as the server, without the HTTP
// surface. Useful from cron or for manual debugging.
func main() {
	platformName := flag.String("platform", "linkedin", "platform to scrape (linkedin, indeed, glassdoor)")
	keywords := flag.String("keywords", "", "search keywords (required)")
	country := flag.String("country", "us", "target country code")
	jobType := flag.String("job-type", "", "remote | hybrid | onsite")
	seniority := flag.String("seniority", "", "entry | mid | senior")
	quantity := flag.Int("quantity", 20, "max listings to collect")
	flag.Parse()

	if *keywords == "" {
		log.Fatal("❌ -keywords is required")
	}

	cfg := config.Load()
	log.Printf("🔧 Config loaded. Scraping %s for %q", *platformName, *keywords)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	repo, err := store.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer repo.Close()

	recorder := stats.NewRecorder(cfg.RedisAddr)
	defer recorder.Close()

	launcher, err := browser.NewPlaywrightLauncher()
	if err != nil {
		log.Fatalf("❌ Failed to init Playwright: %v", err)
	}
	defer launcher.Stop()

	pool := browser.NewPool(launcher, cfg.Browser, cfg.CookiesPath)
	defer pool.CloseAll()

	dom := platform.NewDOM(cfg.Browser.SelectorMs, cfg.Browser.NavigationMs)
	registry := platform.NewRegistry(
		linkedin.New(dom, cfg.Browser.MaxFormSteps),
		indeed.New(dom, cfg.Browser.MaxFormSteps),
		glassdoor.New(dom, cfg.Browser.MaxFormSteps),
	)

	pipeline := scrape.NewPipeline(pool, registry, repo, dedup.NewSeenCache(cfg.CachePath), recorder, proxy.NewSelector(cfg.Proxy), dom)

	criteria := models.SearchCriteria{
		Keywords:  *keywords,
		Country:   *country,
		JobType:   *jobType,
		Seniority: *seniority,
		Quantity:  *quantity,
	}
	result, err := pipeline.Run(ctx, *platformName, criteria)
	if err != nil {
		log.Fatalf("❌ Scrape failed: %v", err)
	}

	log.Printf("📦 %s: %d total, %d new, %d duplicates in %s",
		result.Platform, result.Total, result.NewJobs, result.Duplicates, result.Elapsed.Round(time.Second))
	for _, title := range result.SampleTitles {
		log.Printf("  • %s", title)
	}

	saveResult(result)
	log.Println("🏁 Execution finished.")
}

func saveResult(result *models.ScrapeResult) {
	logDir := "logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Printf("⚠️ Failed to create logs directory: %v", err)
		return
	}

	filename := fmt.Sprintf("scrape-%s-%s.json", result.Platform, time.Now().Format("2006-01-02"))
	filePath := filepath.Join(logDir, filename)

	data, err := json.MarshalIndent(result, "", " ")
	if err != nil {
		log.Printf("⚠️ Failed to marshal result to JSON: %v", err)
		return
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		log.Printf("⚠️ Failed to write logs file: %v", err)
		return
	}

	log.Printf("📁 Results saved to %s", filePath)
}

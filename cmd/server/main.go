package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Eli-the-creator/api/internal/apply"
	"github.com/Eli-the-creator/api/internal/browser"
	"github.com/Eli-the-creator/api/internal/config"
	"github.com/Eli-the-creator/api/internal/dedup"
	"github.com/Eli-the-creator/api/internal/models"
	"github.com/Eli-the-creator/api/internal/notify"
	"github.com/Eli-the-creator/api/internal/platform"
	"github.com/Eli-the-creator/api/internal/platform/glassdoor"
	"github.com/Eli-the-creator/api/internal/platform/indeed"
	"github.com/Eli-the-creator/api/internal/platform/linkedin"
	"github.com/Eli-the-creator/api/internal/proxy"
	"github.com/Eli-the-creator/api/internal/scrape"
	"github.com/Eli-the-creator/api/internal/screenshot"
	"github.com/Eli-the-creator/api/internal/stats"
	"github.com/Eli-the-creator/api/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

type server struct {
	cfg          *config.Config
	pool         *browser.Pool
	repo         *store.Repository
	recorder     *stats.Recorder
	pipeline     *scrape.Pipeline
	orchestrator *apply.Orchestrator
	registry     *platform.Registry
}

func main() {
	cfg := config.Load()
	log.Printf("🔧 Config loaded. Platforms with credentials: %d", len(cfg.Credentials))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	repo, err := store.ConnectDB(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer repo.Close()
	log.Println("🗄️ Database connected.")

	recorder := stats.NewRecorder(cfg.RedisAddr)
	defer recorder.Close()

	var notifier notify.Notifier = notify.Noop{}
	if cfg.TelegramToken != "" {
		bot, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("⚠️ Failed to init Telegram notifier: %v. Continuing without it.", err)
		} else {
			notifier = bot
			log.Println("🤖 Telegram notifier initialized.")
		}
	}

	launcher, err := browser.NewPlaywrightLauncher()
	if err != nil {
		log.Fatalf("❌ Failed to init Playwright: %v", err)
	}
	defer launcher.Stop()

	pool := browser.NewPool(launcher, cfg.Browser, cfg.CookiesPath)
	pool.StartSweeper(cfg.Browser.SweepInterval(), cfg.Browser.IdleTimeout())
	defer func() {
		pool.StopSweeper()
		pool.CloseAll()
	}()

	dom := platform.NewDOM(cfg.Browser.SelectorMs, cfg.Browser.NavigationMs)
	registry := platform.NewRegistry(
		linkedin.New(dom, cfg.Browser.MaxFormSteps),
		indeed.New(dom, cfg.Browser.MaxFormSteps),
		glassdoor.New(dom, cfg.Browser.MaxFormSteps),
	)

	seen := dedup.NewSeenCache(cfg.CachePath)
	proxies := proxy.NewSelector(cfg.Proxy)
	shots := screenshot.NewCapturer(cfg.Browser.ScreenshotsPath)

	payload := models.ApplicationPayload{
		CoverLetter: cfg.CoverLetter,
		Phone:       cfg.Phone,
		ResumePath:  cfg.ResumePath,
	}

	s := &server{
		cfg:          cfg,
		pool:         pool,
		repo:         repo,
		recorder:     recorder,
		registry:     registry,
		pipeline:     scrape.NewPipeline(pool, registry, repo, seen, recorder, proxies, dom),
		orchestrator: apply.NewOrchestrator(pool, registry, repo, recorder, notifier, shots, cfg.Credentials, payload, dom),
	}

	scheduler := startSchedules(cfg, s.pipeline)
	if scheduler != nil {
		defer scheduler.Stop()
	}

	r := gin.Default()

	r.GET("/health", s.handleHealth)
	r.POST("/scrape", s.handleScrape)
	r.POST("/apply", s.handleApply)
	r.POST("/apply/batch", s.handleApplyBatch)
	r.POST("/apply/filter", s.handleApplyFilter)
	r.GET("/platforms/:name/test", s.handleTestPlatform)
	r.GET("/jobs", s.handleListJobs)
	r.GET("/stats", s.handleStats)
	r.POST("/browser/restart", s.handleBrowserRestart)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{Addr: ":" + port, Handler: r}
	go func() {
		log.Printf("🚀 Server listening on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Server shutdown: %v", err)
	}
	log.Println("🏁 Bye.")
}

func scheduleCriteria(sched config.ScheduleConfig) models.SearchCriteria {
	return models.SearchCriteria{
		Keywords:  sched.Keywords,
		Country:   sched.Country,
		JobType:   sched.JobType,
		Seniority: sched.Seniority,
		Quantity:  sched.Quantity,
	}
}

// startSchedules registers configured recurring scrapes. Returns nil when
// nothing is scheduled.
func startSchedules(cfg *config.Config, pipeline *scrape.Pipeline) *cron.Cron {
	if len(cfg.Schedules) == 0 {
		return nil
	}

	c := cron.New()
	for _, sched := range cfg.Schedules {
		sched := sched
		_, err := c.AddFunc(sched.Cron, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
			defer cancel()

			result, err := pipeline.Run(ctx, sched.Platform, scheduleCriteria(sched))
			if err != nil {
				log.Printf("❌ Scheduled scrape %s failed: %v", sched.Platform, err)
				return
			}
			log.Printf("⏰ Scheduled scrape %s: %d new / %d total", sched.Platform, result.NewJobs, result.Total)
		})
		if err != nil {
			log.Printf("⚠️ Invalid cron expression %q for %s: %v", sched.Cron, sched.Platform, err)
		}
	}
	c.Start()
	log.Printf("⏰ Scheduler started with %d entries", len(cfg.Schedules))
	return c
}

func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "platforms": s.registry.Names()})
}

type scrapeRequest struct {
	Platform  string `json:"platform" binding:"required"`
	Keywords  string `json:"keywords" binding:"required"`
	Country   string `json:"country"`
	JobType   string `json:"job_type"`
	Seniority string `json:"seniority"`
	Quantity  int    `json:"quantity"`
}

func (r scrapeRequest) criteria() models.SearchCriteria {
	return models.SearchCriteria{
		Keywords:  r.Keywords,
		Country:   r.Country,
		JobType:   r.JobType,
		Seniority: r.Seniority,
		Quantity:  r.Quantity,
	}
}

func (s *server) handleScrape(c *gin.Context) {
	var req scrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.pipeline.Run(c.Request.Context(), req.Platform, req.criteria())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

type applyRequest struct {
	JobID    string `json:"job_id"`
	URL      string `json:"url"`
	Platform string `json:"platform"`
}

func (s *server) handleApply(c *gin.Context) {
	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.JobID == "" && req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "either job_id or url is required"})
		return
	}

	job := models.JobPosting{ID: req.JobID, URL: req.URL, Platform: req.Platform}
	result, err := s.orchestrator.ApplyToOne(c.Request.Context(), job)
	if err != nil {
		// The result still describes the failed attempt.
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

type applyBatchRequest struct {
	Jobs []applyRequest `json:"jobs" binding:"required"`
}

func (s *server) handleApplyBatch(c *gin.Context) {
	var req applyBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobs := make([]models.JobPosting, 0, len(req.Jobs))
	for _, j := range req.Jobs {
		jobs = append(jobs, models.JobPosting{ID: j.JobID, URL: j.URL, Platform: j.Platform})
	}
	c.JSON(http.StatusOK, s.orchestrator.ApplyToMany(c.Request.Context(), jobs))
}

func (s *server) handleApplyFilter(c *gin.Context) {
	var filter models.JobFilter
	if err := c.ShouldBindJSON(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	batch, err := s.orchestrator.ApplyByFilter(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, batch)
}

func (s *server) handleTestPlatform(c *gin.Context) {
	probe, err := s.orchestrator.TestPlatform(c.Request.Context(), c.Param("name"))
	if err != nil && probe == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, probe)
}

func (s *server) handleListJobs(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	filter := models.JobFilter{
		Platform: c.Query("platform"),
		Status:   models.JobStatus(c.Query("status")),
		Page:     page,
		Limit:    limit,
	}

	jobs, err := s.repo.QueryJobsByFilter(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(jobs), "jobs": jobs})
}

func (s *server) handleStats(c *gin.Context) {
	snapshot, err := s.recorder.Snapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"counters": snapshot})
}

func (s *server) handleBrowserRestart(c *gin.Context) {
	s.pool.CloseAll()
	log.Println("🔄 Browser pool restarted by request")
	c.JSON(http.StatusOK, gin.H{"status": "restarted"})
}

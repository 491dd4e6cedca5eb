package scrape

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Eli-the-creator/api/internal/browser"
	"github.com/Eli-the-creator/api/internal/dedup"
	"github.com/Eli-the-creator/api/internal/filter"
	"github.com/Eli-the-creator/api/internal/models"
	"github.com/Eli-the-creator/api/internal/platform"
	"github.com/Eli-the-creator/api/internal/proxy"
	"github.com/Eli-the-creator/api/internal/retry"
	"github.com/Eli-the-creator/api/internal/stats"
	"github.com/Eli-the-creator/api/internal/store"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/playwright-community/playwright-go"
)

// Navigator performs the page-level moves the pipeline needs. Split out so
// the pipeline can run against mocked adapters without a live browser.
type Navigator interface {
	Goto(page playwright.Page, url string) error
	// Paginate triggers lazy-loaded content with bounded scroll rounds,
	// pausing a randomized delay between rounds.
	Paginate(page playwright.Page, rounds int)
}

type playwrightNavigator struct {
	dom platform.DOM
}

func (n playwrightNavigator) Goto(page playwright.Page, url string) error {
	return n.dom.Goto(page, url)
}

func (n playwrightNavigator) Paginate(page playwright.Page, rounds int) {
	for i := 0; i < rounds; i++ {
		browser.SmoothScroll(page)
		browser.MouseJiggle(page)
		browser.RandomDelay(1000, 2500)
	}
}

// Pipeline orchestrates one platform adapter to list, extract, deduplicate
// and persist job postings.
type Pipeline struct {
	pool     *browser.Pool
	registry *platform.Registry
	store    store.Store
	seen     *dedup.SeenCache
	stats    *stats.Recorder
	proxies  *proxy.Selector
	nav      Navigator

	// Retries is the per-platform budget for one full scrape attempt. DOM
	// queries inside an attempt are never retried individually.
	Retries       int
	RetryMinDelay time.Duration
	RetryMaxDelay time.Duration
}

func NewPipeline(pool *browser.Pool, registry *platform.Registry, st store.Store, seen *dedup.SeenCache, recorder *stats.Recorder, proxies *proxy.Selector, dom platform.DOM) *Pipeline {
	return &Pipeline{
		pool:          pool,
		registry:      registry,
		store:         st,
		seen:          seen,
		stats:         recorder,
		proxies:       proxies,
		nav:           playwrightNavigator{dom: dom},
		Retries:       2,
		RetryMinDelay: 2 * time.Second,
		RetryMaxDelay: 5 * time.Second,
	}
}

// WithNavigator swaps the page driver; tests use a no-op.
func (p *Pipeline) WithNavigator(nav Navigator) *Pipeline {
	p.nav = nav
	return p
}

// Run executes one scrape invocation for a platform.
func (p *Pipeline) Run(ctx context.Context, platformName string, criteria models.SearchCriteria) (*models.ScrapeResult, error) {
	adapter, err := p.registry.Get(platformName)
	if err != nil {
		return nil, err
	}

	endpoint, hasProxy := p.proxies.Next()
	if hasProxy {
		log.Printf("🌐 [%s] scraping through proxy %s", platformName, proxy.Redact(endpoint))
	}

	started := time.Now()
	var result *models.ScrapeResult

	attempt := 0
	err = retry.Do(func() error {
		// The first attempt gets a disposable session to keep scraping
		// uncorrelated with application sessions; retries reuse the
		// still-open process with a fresh page.
		reuse := attempt > 0
		attempt++

		scrapeErr := func() error {
			lease, err := p.pool.Acquire(adapter.Name(), browser.AcquireOptions{
				ReuseExisting: reuse,
				Proxy:         endpoint,
			})
			if err != nil {
				return err
			}
			defer p.pool.Release(lease)

			jobs, err := p.scrapeOnce(lease.Page, adapter, criteria)
			if err != nil {
				return err
			}

			result = p.persist(ctx, adapter.Name(), jobs)
			return nil
		}()
		return scrapeErr
	}, retry.Options{
		Retries:  p.Retries,
		MinDelay: p.RetryMinDelay,
		MaxDelay: p.RetryMaxDelay,
		OnRetry: func(attempt int, err error) {
			log.Printf("🔄 [%s] scrape retry %d: %v", platformName, attempt, err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", platformName, err)
	}

	p.stats.IncrementStats(ctx, adapter.Name(), "scrape_runs")

	result.Elapsed = time.Since(started)
	log.Printf("🏁 [%s] scrape finished: %d total, %d new, %d duplicates in %s",
		platformName, result.Total, result.NewJobs, result.Duplicates, result.Elapsed.Round(time.Millisecond))
	return result, nil
}

// scrapeOnce runs steps 2-4 of one attempt: navigate, dismiss overlays,
// paginate, extract.
func (p *Pipeline) scrapeOnce(page playwright.Page, adapter platform.Adapter, criteria models.SearchCriteria) ([]models.JobPosting, error) {
	searchURL := adapter.SearchURL(criteria)
	log.Printf("  🔍 [%s] visiting %s", adapter.Name(), searchURL)

	if err := p.nav.Goto(page, searchURL); err != nil {
		return nil, fmt.Errorf("failed to load search page: %w", err)
	}

	adapter.DismissModals(page)

	//scroll rounds scale with the requested quantity, capped
	rounds := criteria.Quantity/5 + 1
	if rounds > 8 {
		rounds = 8
	}
	p.nav.Paginate(page, rounds)

	jobs, err := adapter.ScrapeListings(page, criteria)
	if err != nil {
		return nil, err
	}

	//best matches survive the quantity cut and lead the summary titles
	filter.RankByScore(jobs, criteria)

	if criteria.Quantity > 0 && len(jobs) > criteria.Quantity {
		jobs = jobs[:criteria.Quantity]
	}
	return jobs, nil
}

// persist deduplicates against the store and inserts what is new. A write
// failure skips that one record, never the batch.
func (p *Pipeline) persist(ctx context.Context, platformName string, jobs []models.JobPosting) *models.ScrapeResult {
	result := &models.ScrapeResult{Platform: platformName, Total: len(jobs)}

	seenThisRun := mapset.NewSet[string]()
	var insertedURLs []string

	for i := range jobs {
		job := jobs[i]

		//the same listing can surface twice within one run
		if !seenThisRun.Add(job.URL) {
			result.Duplicates++
			continue
		}

		if p.seen != nil && p.seen.IsSeen(platformName, job.URL) {
			result.Duplicates++
			continue
		}

		existing, err := p.store.FindJobByPlatformAndURL(ctx, platformName, job.URL)
		if err != nil {
			log.Printf("⚠️ [%s] dedup lookup failed for %s: %v", platformName, job.URL, err)
			continue
		}
		if existing != nil {
			result.Duplicates++
			if p.seen != nil {
				p.seen.Add(platformName, []string{job.URL})
			}
			continue
		}

		if _, err := p.store.InsertJob(ctx, &job); err != nil {
			log.Printf("⚠️ [%s] failed to persist %q: %v", platformName, job.Title, err)
			continue
		}

		result.NewJobs++
		insertedURLs = append(insertedURLs, job.URL)
		if len(result.SampleTitles) < 3 {
			result.SampleTitles = append(result.SampleTitles, job.Title)
		}
	}

	if p.seen != nil && len(insertedURLs) > 0 {
		p.seen.Add(platformName, insertedURLs)
	}
	return result
}

package apply

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Eli-the-creator/api/internal/autoerr"
	"github.com/Eli-the-creator/api/internal/browser"
	"github.com/Eli-the-creator/api/internal/config"
	"github.com/Eli-the-creator/api/internal/models"
	"github.com/Eli-the-creator/api/internal/notify"
	"github.com/Eli-the-creator/api/internal/platform"
	"github.com/Eli-the-creator/api/internal/screenshot"
	"github.com/Eli-the-creator/api/internal/stats"
	"github.com/Eli-the-creator/api/internal/store"
	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
)

// Orchestrator drives the per-job application state machine:
// queued -> in_progress -> {applied, failed}.
type Orchestrator struct {
	pool     *browser.Pool
	registry *platform.Registry
	store    store.Store
	stats    *stats.Recorder
	notifier notify.Notifier
	creds    map[string]config.Credentials
	payload  models.ApplicationPayload

	// navigate, pace and capture are swappable so tests can run against
	// mocked adapters without real waits or file output.
	navigate func(page playwright.Page, url string) error
	pace     func()
	capture  func(page playwright.Page, platform, outcome, jobID string) string
}

func NewOrchestrator(
	pool *browser.Pool,
	registry *platform.Registry,
	st store.Store,
	recorder *stats.Recorder,
	notifier notify.Notifier,
	shots *screenshot.Capturer,
	creds map[string]config.Credentials,
	payload models.ApplicationPayload,
	dom platform.DOM,
) *Orchestrator {
	return &Orchestrator{
		pool:     pool,
		registry: registry,
		store:    st,
		stats:    recorder,
		notifier: notifier,
		creds:    creds,
		payload:  payload,
		navigate: func(page playwright.Page, url string) error {
			if err := dom.Goto(page, url); err != nil {
				return err
			}
			//let the job page settle before poking at it
			browser.RandomDelay(1500, 3000)
			return nil
		},
		pace:    func() { browser.RandomDelay(3000, 8000) },
		capture: shots.Capture,
	}
}

// WithNavigate overrides page navigation; tests use a no-op.
func (o *Orchestrator) WithNavigate(fn func(page playwright.Page, url string) error) *Orchestrator {
	o.navigate = fn
	return o
}

// WithPacing overrides the inter-job delay; tests use a no-op.
func (o *Orchestrator) WithPacing(fn func()) *Orchestrator {
	o.pace = fn
	return o
}

// WithCapture overrides screenshot capture; tests use a recorder.
func (o *Orchestrator) WithCapture(fn func(page playwright.Page, platform, outcome, jobID string) string) *Orchestrator {
	o.capture = fn
	return o
}

// ApplyToOne runs one application attempt for one job. The returned result
// is always populated; the error carries the typed failure when Status is
// failed.
func (o *Orchestrator) ApplyToOne(ctx context.Context, job models.JobPosting) (*models.ApplicationResult, error) {
	started := time.Now()
	result := &models.ApplicationResult{JobID: job.ID, Platform: job.Platform}

	adapter, err := o.resolveAdapter(&job)
	if err != nil {
		// Unresolvable platform is fatal and never retried.
		result.Status = models.JobStatusFailed
		result.Error = err.Error()
		result.Elapsed = time.Since(started)
		o.recordAttempt(ctx, job, result, started)
		return result, autoerr.Application(job.ID, err)
	}
	result.Platform = adapter.Name()

	// Mark in_progress before any browser activity so a crash mid-flight is
	// observable in the store.
	if err := o.store.UpdateJobStatus(ctx, job.ID, models.JobStatusInProgress, ""); err != nil {
		log.Printf("⚠️ Failed to mark job %s in_progress: %v", job.ID, err)
	}

	applyErr := o.runBrowserFlow(ctx, adapter, job, result)

	if applyErr != nil {
		result.Status = models.JobStatusFailed
		result.Error = applyErr.Error()
	} else {
		result.Status = models.JobStatusApplied
	}
	result.Elapsed = time.Since(started)

	o.recordAttempt(ctx, job, result, started)

	if applyErr != nil {
		return result, autoerr.Application(job.ID, applyErr)
	}
	return result, nil
}

// resolveAdapter validates the job target, detecting the platform from the
// URL host when it is not explicitly set.
func (o *Orchestrator) resolveAdapter(job *models.JobPosting) (platform.Adapter, error) {
	if job.URL == "" {
		return nil, fmt.Errorf("job has no target url")
	}
	name := job.Platform
	if name == "" {
		detected, err := platform.Detect(job.URL)
		if err != nil {
			return nil, err
		}
		name = detected
		job.Platform = detected
	}
	return o.registry.Get(name)
}

// runBrowserFlow performs the session, login, navigation and form-loop
// steps. The lease is released on every exit path.
func (o *Orchestrator) runBrowserFlow(ctx context.Context, adapter platform.Adapter, job models.JobPosting, result *models.ApplicationResult) (flowErr error) {
	// Application sessions deliberately reuse the platform's long-lived
	// process and cookies to look like one continuous authenticated user.
	lease, err := o.pool.Acquire(adapter.Name(), browser.AcquireOptions{ReuseExisting: true})
	if err != nil {
		return err
	}
	defer func() {
		// Audit evidence for both outcomes, captured before teardown. The
		// outcome comes from the flow error so a failed login or navigation
		// names the file correctly, not just a failed form loop.
		outcome := "applied"
		if flowErr != nil {
			outcome = "failed"
		}
		result.ScreenshotPath = o.capture(lease.Page, adapter.Name(), outcome, job.ID)
		o.pool.Release(lease)
	}()

	if adapter.RequiresLogin() {
		loggedIn, err := adapter.CheckLogin(lease.Page)
		if err != nil {
			return err
		}
		if !loggedIn {
			if err := adapter.Login(lease.Page, o.creds[adapter.Name()]); err != nil {
				return err
			}
		}
	}

	if err := o.navigate(lease.Page, job.URL); err != nil {
		return fmt.Errorf("failed to open job page: %w", err)
	}

	return adapter.ApplyToJob(lease.Page, job, o.payload)
}

// recordAttempt finalizes the attempt: job status, append-only attempt row,
// stats counter and notification. Store failures are logged, never reversed
// into the browser action.
func (o *Orchestrator) recordAttempt(ctx context.Context, job models.JobPosting, result *models.ApplicationResult, started time.Time) {
	// An unresolvable job never got a platform; keep the attempt row and
	// stats key well-formed anyway.
	if result.Platform == "" {
		result.Platform = "unknown"
	}
	outcome := string(result.Status)

	if job.ID != "" {
		if err := o.store.UpdateJobStatus(ctx, job.ID, result.Status, result.Error); err != nil {
			log.Printf("⚠️ Failed to update job %s status: %v", job.ID, err)
		}
	}

	attempt := &models.ApplicationAttempt{
		ID:             uuid.NewString(),
		JobID:          job.ID,
		Platform:       result.Platform,
		Status:         result.Status,
		ScreenshotPath: result.ScreenshotPath,
		ErrorMessage:   result.Error,
		StartedAt:      started,
		FinishedAt:     time.Now(),
	}
	if err := o.store.InsertApplicationRecord(ctx, attempt); err != nil {
		log.Printf("⚠️ Failed to record application attempt for job %s: %v", job.ID, err)
	}

	o.stats.IncrementStats(ctx, result.Platform, outcome)

	if result.Status == models.JobStatusApplied {
		o.notifier.NotifyOutcome(fmt.Sprintf("Applied to %q at %s (%s)", job.Title, job.Company, result.Platform))
	} else {
		o.notifier.NotifyError("application failed", result.Error, fmt.Sprintf("job %s on %s", job.ID, result.Platform))
	}
}

// ApplyToMany processes jobs strictly sequentially and accumulates per-job
// outcomes; one failure never aborts the batch.
func (o *Orchestrator) ApplyToMany(ctx context.Context, jobs []models.JobPosting) *models.BatchResult {
	batch := &models.BatchResult{Total: len(jobs)}

	for _, job := range jobs {
		result, err := o.ApplyToOne(ctx, job)
		if err != nil {
			var appErr *autoerr.ApplicationError
			if !errors.As(err, &appErr) {
				log.Printf("⚠️ Unclassified failure for job %s: %v", job.ID, err)
			}
			batch.Failed++
		} else {
			batch.Applied++
		}
		batch.Results = append(batch.Results, *result)

		//human pacing between submissions
		o.pace()
	}
	return batch
}

// ApplyByFilter selects stored jobs and applies to each.
func (o *Orchestrator) ApplyByFilter(ctx context.Context, filter models.JobFilter) (*models.BatchResult, error) {
	jobs, err := o.store.QueryJobsByFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	log.Printf("📋 Filter matched %d jobs", len(jobs))
	return o.ApplyToMany(ctx, jobs), nil
}

// TestPlatform probes one platform: login check plus screenshot, no
// submission.
func (o *Orchestrator) TestPlatform(ctx context.Context, platformName string) (*models.ProbeResult, error) {
	adapter, err := o.registry.Get(platformName)
	if err != nil {
		return nil, err
	}

	probe := &models.ProbeResult{Platform: adapter.Name()}

	lease, err := o.pool.Acquire(adapter.Name(), browser.AcquireOptions{ReuseExisting: true})
	if err != nil {
		probe.Error = err.Error()
		return probe, err
	}
	defer o.pool.Release(lease)

	loggedIn, err := adapter.CheckLogin(lease.Page)
	if err != nil {
		probe.Error = err.Error()
	}
	probe.LoggedIn = loggedIn
	probe.ScreenshotPath = o.capture(lease.Page, adapter.Name(), "probe", "none")
	return probe, nil
}

package apply

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Eli-the-creator/api/internal/autoerr"
	"github.com/Eli-the-creator/api/internal/browser"
	"github.com/Eli-the-creator/api/internal/config"
	"github.com/Eli-the-creator/api/internal/models"
	"github.com/Eli-the-creator/api/internal/notify"
	"github.com/Eli-the-creator/api/internal/platform"
	"github.com/Eli-the-creator/api/internal/screenshot"
	"github.com/Eli-the-creator/api/internal/stats"
	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------- fakes ----------------

type fakeEngine struct{}

func (fakeEngine) NewContext(browser.ContextOptions) (browser.Context, error) {
	return fakeContext{}, nil
}
func (fakeEngine) Close() error    { return nil }
func (fakeEngine) Connected() bool { return true }

type fakeContext struct{}

func (fakeContext) NewPage() (playwright.Page, error) { return nil, nil }
func (fakeContext) Close() error                      { return nil }

type fakeLauncher struct{}

func (fakeLauncher) Launch(browser.LaunchOptions, func()) (browser.Engine, error) {
	return fakeEngine{}, nil
}

// mockAdapter scripts the login and apply behavior per test.
type mockAdapter struct {
	name          string
	requiresLogin bool
	loggedIn      bool
	loginErr      error
	applyErr      error

	loginCalls int
	applyCalls int
}

func (m *mockAdapter) Name() string        { return m.name }
func (m *mockAdapter) RequiresLogin() bool { return m.requiresLogin }
func (m *mockAdapter) CheckLogin(playwright.Page) (bool, error) {
	return m.loggedIn, nil
}
func (m *mockAdapter) Login(playwright.Page, config.Credentials) error {
	m.loginCalls++
	if m.loginErr != nil {
		return m.loginErr
	}
	m.loggedIn = true
	return nil
}
func (m *mockAdapter) SearchURL(models.SearchCriteria) string { return "" }
func (m *mockAdapter) DismissModals(playwright.Page)          {}
func (m *mockAdapter) ScrapeListings(playwright.Page, models.SearchCriteria) ([]models.JobPosting, error) {
	return nil, nil
}
func (m *mockAdapter) ApplyToJob(playwright.Page, models.JobPosting, models.ApplicationPayload) error {
	m.applyCalls++
	return m.applyErr
}

// recordingStore captures status transitions and attempt records.
type recordingStore struct {
	mu       sync.Mutex
	statuses map[string][]models.JobStatus
	attempts []models.ApplicationAttempt
	filtered []models.JobPosting
}

func newRecordingStore() *recordingStore {
	return &recordingStore{statuses: make(map[string][]models.JobStatus)}
}

func (s *recordingStore) FindJobByPlatformAndURL(context.Context, string, string) (*models.JobPosting, error) {
	return nil, nil
}

func (s *recordingStore) InsertJob(_ context.Context, job *models.JobPosting) (*models.JobPosting, error) {
	return job, nil
}

func (s *recordingStore) UpdateJobStatus(_ context.Context, jobID string, status models.JobStatus, details string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[jobID] = append(s.statuses[jobID], status)
	return nil
}

func (s *recordingStore) InsertApplicationRecord(_ context.Context, attempt *models.ApplicationAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, *attempt)
	return nil
}

func (s *recordingStore) QueryJobsByFilter(context.Context, models.JobFilter) ([]models.JobPosting, error) {
	return s.filtered, nil
}

// ---------------- helpers ----------------

func newTestOrchestrator(t *testing.T, adapter platform.Adapter, st *recordingStore) *Orchestrator {
	t.Helper()
	pool := browser.NewPool(fakeLauncher{}, config.BrowserConfig{LaunchRetries: 2}, "")
	registry := platform.NewRegistry(adapter)
	dom := platform.NewDOM(100, 100)
	shots := screenshot.NewCapturer(t.TempDir())

	return NewOrchestrator(pool, registry, st, stats.NewRecorder(""), notify.Noop{}, shots,
		map[string]config.Credentials{"linkedin": {Email: "user@example.com", Password: "hunter2"}},
		models.ApplicationPayload{CoverLetter: "hello"}, dom).
		WithNavigate(func(playwright.Page, string) error { return nil }).
		WithPacing(func() {})
}

func testJob(id, platformName string) models.JobPosting {
	return models.JobPosting{
		ID:       id,
		Platform: platformName,
		URL:      fmt.Sprintf("https://www.%s.com/jobs/view/%s", platformName, id),
		Title:    "Backend Engineer",
		Company:  "Acme",
	}
}

// ---------------- tests ----------------

func TestApplyToOne_Applied(t *testing.T) {
	st := newRecordingStore()
	adapter := &mockAdapter{name: "linkedin", requiresLogin: true, loggedIn: true}
	o := newTestOrchestrator(t, adapter, st)

	result, err := o.ApplyToOne(context.Background(), testJob("42", "linkedin"))

	require.NoError(t, err)
	assert.Equal(t, models.JobStatusApplied, result.Status)
	assert.Equal(t, 1, adapter.applyCalls)
	assert.Equal(t, 0, adapter.loginCalls, "already authenticated, no login expected")

	//queued -> in_progress -> applied, visible in the store
	assert.Equal(t, []models.JobStatus{models.JobStatusInProgress, models.JobStatusApplied}, st.statuses["42"])

	require.Len(t, st.attempts, 1)
	assert.Equal(t, models.JobStatusApplied, st.attempts[0].Status)
	assert.Equal(t, "42", st.attempts[0].JobID)
}

func TestApplyToOne_LogsInWhenNeeded(t *testing.T) {
	st := newRecordingStore()
	adapter := &mockAdapter{name: "linkedin", requiresLogin: true, loggedIn: false}
	o := newTestOrchestrator(t, adapter, st)

	result, err := o.ApplyToOne(context.Background(), testJob("7", "linkedin"))

	require.NoError(t, err)
	assert.Equal(t, models.JobStatusApplied, result.Status)
	assert.Equal(t, 1, adapter.loginCalls)
}

func TestScreenshotOutcomeNaming(t *testing.T) {
	st := newRecordingStore()
	adapter := &mockAdapter{name: "linkedin", requiresLogin: true, loggedIn: true}
	var outcomes []string
	o := newTestOrchestrator(t, adapter, st).
		WithCapture(func(_ playwright.Page, platform, outcome, jobID string) string {
			outcomes = append(outcomes, outcome)
			return platform + "_" + outcome + "_" + jobID + ".png"
		})

	result, err := o.ApplyToOne(context.Background(), testJob("42", "linkedin"))
	require.NoError(t, err)
	assert.Equal(t, "linkedin_applied_42.png", result.ScreenshotPath)

	//a login failure must name the audit file failed, not applied
	adapter.loggedIn = false
	adapter.loginErr = autoerr.Platform("linkedin", "login", autoerr.ErrLoginFailed)
	result, err = o.ApplyToOne(context.Background(), testJob("43", "linkedin"))
	require.Error(t, err)
	assert.Equal(t, "linkedin_failed_43.png", result.ScreenshotPath)

	assert.Equal(t, []string{"applied", "failed"}, outcomes)
}

func TestNavigationFailureScreenshotNamedFailed(t *testing.T) {
	st := newRecordingStore()
	adapter := &mockAdapter{name: "linkedin"}
	var captured string
	o := newTestOrchestrator(t, adapter, st).
		WithNavigate(func(playwright.Page, string) error { return errors.New("net::ERR_TIMED_OUT") }).
		WithCapture(func(_ playwright.Page, _, outcome, _ string) string {
			captured = outcome
			return ""
		})

	result, err := o.ApplyToOne(context.Background(), testJob("44", "linkedin"))

	require.Error(t, err)
	assert.Equal(t, models.JobStatusFailed, result.Status)
	assert.Equal(t, "failed", captured)
	assert.Equal(t, 0, adapter.applyCalls)
}

func TestApplyToOne_LoginFailureIsFatal(t *testing.T) {
	st := newRecordingStore()
	adapter := &mockAdapter{
		name:          "linkedin",
		requiresLogin: true,
		loginErr:      autoerr.Platform("linkedin", "login", autoerr.ErrLoginFailed),
	}
	o := newTestOrchestrator(t, adapter, st)

	result, err := o.ApplyToOne(context.Background(), testJob("7", "linkedin"))

	assert.ErrorIs(t, err, autoerr.ErrLoginFailed)
	assert.Equal(t, models.JobStatusFailed, result.Status)
	assert.Equal(t, 1, adapter.loginCalls, "login is never silently retried")
	assert.Equal(t, 0, adapter.applyCalls)
}

func TestApplyToOne_DetectsPlatformFromURL(t *testing.T) {
	st := newRecordingStore()
	adapter := &mockAdapter{name: "linkedin"}
	o := newTestOrchestrator(t, adapter, st)

	job := testJob("9", "linkedin")
	job.Platform = ""

	result, err := o.ApplyToOne(context.Background(), job)

	require.NoError(t, err)
	assert.Equal(t, "linkedin", result.Platform)
}

func TestApplyToOne_UnresolvablePlatformFailsWithoutBrowser(t *testing.T) {
	st := newRecordingStore()
	adapter := &mockAdapter{name: "linkedin"}
	o := newTestOrchestrator(t, adapter, st)

	job := models.JobPosting{ID: "13", URL: "https://jobs.unknown-board.io/p/13"}

	result, err := o.ApplyToOne(context.Background(), job)

	var appErr *autoerr.ApplicationError
	assert.ErrorAs(t, err, &appErr)
	assert.ErrorIs(t, err, autoerr.ErrUnknownPlatform)
	assert.Equal(t, models.JobStatusFailed, result.Status)
	assert.Equal(t, 0, adapter.applyCalls)
	//never marked in_progress: no browser work was started
	assert.NotContains(t, st.statuses["13"], models.JobStatusInProgress)

	//the attempt row still gets a usable platform value
	require.Len(t, st.attempts, 1)
	assert.Equal(t, "unknown", st.attempts[0].Platform)
	assert.Equal(t, "unknown", result.Platform)
}

func TestApplyToOne_FormFailureRecordsAttempt(t *testing.T) {
	st := newRecordingStore()
	adapter := &mockAdapter{
		name:     "linkedin",
		applyErr: autoerr.Platform("linkedin", "apply", autoerr.ErrUnrecognizedFormStep),
	}
	o := newTestOrchestrator(t, adapter, st)

	result, err := o.ApplyToOne(context.Background(), testJob("21", "linkedin"))

	assert.ErrorIs(t, err, autoerr.ErrUnrecognizedFormStep)
	assert.Equal(t, models.JobStatusFailed, result.Status)

	require.Len(t, st.attempts, 1)
	assert.Equal(t, models.JobStatusFailed, st.attempts[0].Status)
	assert.NotEmpty(t, st.attempts[0].ErrorMessage)
	assert.Equal(t, []models.JobStatus{models.JobStatusInProgress, models.JobStatusFailed}, st.statuses["21"])
}

func TestApplyToMany_AccumulatesWithoutAborting(t *testing.T) {
	st := newRecordingStore()
	adapter := &mockAdapter{name: "linkedin"}
	o := newTestOrchestrator(t, adapter, st)

	jobs := []models.JobPosting{
		testJob("1", "linkedin"),
		{ID: "2", URL: ""}, //no target url: fails fast
		testJob("3", "linkedin"),
	}

	batch := o.ApplyToMany(context.Background(), jobs)

	assert.Equal(t, 3, batch.Total)
	assert.Equal(t, 2, batch.Applied)
	assert.Equal(t, 1, batch.Failed)
	require.Len(t, batch.Results, 3)
	assert.Equal(t, models.JobStatusFailed, batch.Results[1].Status)
	assert.Equal(t, models.JobStatusApplied, batch.Results[2].Status)
}

func TestApplyByFilter(t *testing.T) {
	st := newRecordingStore()
	st.filtered = []models.JobPosting{testJob("5", "linkedin")}
	adapter := &mockAdapter{name: "linkedin"}
	o := newTestOrchestrator(t, adapter, st)

	batch, err := o.ApplyByFilter(context.Background(), models.JobFilter{Platform: "linkedin"})

	require.NoError(t, err)
	assert.Equal(t, 1, batch.Total)
	assert.Equal(t, 1, batch.Applied)
}

func TestTestPlatform(t *testing.T) {
	st := newRecordingStore()
	adapter := &mockAdapter{name: "linkedin", requiresLogin: true, loggedIn: true}
	o := newTestOrchestrator(t, adapter, st)

	probe, err := o.TestPlatform(context.Background(), "linkedin")

	require.NoError(t, err)
	assert.True(t, probe.LoggedIn)
	assert.Equal(t, 0, adapter.applyCalls, "probe must never submit")
}

func TestApplyToOne_AttemptsAreAppendOnly(t *testing.T) {
	st := newRecordingStore()
	adapter := &mockAdapter{name: "linkedin", applyErr: errors.New("transient")}
	o := newTestOrchestrator(t, adapter, st)

	job := testJob("8", "linkedin")
	_, _ = o.ApplyToOne(context.Background(), job)

	adapter.applyErr = nil
	_, err := o.ApplyToOne(context.Background(), job)
	require.NoError(t, err)

	//a retried invocation creates a new record, it never mutates the old one
	require.Len(t, st.attempts, 2)
	assert.NotEqual(t, st.attempts[0].ID, st.attempts[1].ID)
	assert.Equal(t, models.JobStatusFailed, st.attempts[0].Status)
	assert.Equal(t, models.JobStatusApplied, st.attempts[1].Status)
}

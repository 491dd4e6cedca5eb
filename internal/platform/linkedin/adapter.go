package linkedin

import (
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/Eli-the-creator/api/internal/autoerr"
	"github.com/Eli-the-creator/api/internal/browser"
	"github.com/Eli-the-creator/api/internal/config"
	"github.com/Eli-the-creator/api/internal/models"
	"github.com/Eli-the-creator/api/internal/platform"
	"github.com/playwright-community/playwright-go"
)

const (
	feedURL  = "https://www.linkedin.com/feed/"
	loginURL = "https://www.linkedin.com/login"
	baseURL  = "https://www.linkedin.com"
)

// geoTargets maps supported country codes to LinkedIn location strings.
// Anything else falls back to the platform default.
var geoTargets = map[string]string{
	"us": "United States",
	"uk": "United Kingdom",
	"ca": "Canada",
	"de": "Germany",
	"fr": "France",
	"nl": "Netherlands",
	"es": "Spain",
	"pl": "Poland",
}

// seniorityParams maps seniority levels to the f_E experience filter.
var seniorityParams = map[string]string{
	"entry":  "1,2",
	"mid":    "3,4",
	"senior": "5,6",
}

var formSelectors = platform.FormSelectors{
	Container:     "div.jobs-easy-apply-modal",
	Controls:      "div.jobs-easy-apply-modal footer button",
	TextInputs:    `div.jobs-easy-apply-modal input[type="text"], div.jobs-easy-apply-modal textarea`,
	Selects:       "div.jobs-easy-apply-modal select",
	Checkboxes:    `div.jobs-easy-apply-modal input[type="checkbox"][required]`,
	RadioGroups:   "div.jobs-easy-apply-modal fieldset",
	SuccessMarker: "div.artdeco-modal h2#post-apply-modal, .jobs-post-apply__modal",
	FailureMarker: ".artdeco-inline-feedback--error",
}

type Adapter struct {
	dom          platform.DOM
	maxFormSteps int
}

func New(dom platform.DOM, maxFormSteps int) *Adapter {
	return &Adapter{dom: dom, maxFormSteps: maxFormSteps}
}

func (a *Adapter) Name() string { return "linkedin" }

func (a *Adapter) RequiresLogin() bool { return true }

// CheckLogin navigates to the feed and looks for the authenticated nav bar.
func (a *Adapter) CheckLogin(page playwright.Page) (bool, error) {
	if err := a.dom.Goto(page, feedURL); err != nil {
		return false, autoerr.Platform(a.Name(), "check login", err)
	}
	browser.RandomDelay(1000, 2000)
	return a.dom.Exists(page, "#global-nav"), nil
}

// Login submits credentials once. A failed login is typed and never retried.
func (a *Adapter) Login(page playwright.Page, creds config.Credentials) error {
	if creds.Email == "" || creds.Password == "" {
		return autoerr.Platform(a.Name(), "login", fmt.Errorf("missing credentials: %w", autoerr.ErrLoginFailed))
	}

	if err := a.dom.Goto(page, loginURL); err != nil {
		return autoerr.Platform(a.Name(), "login", err)
	}

	if err := a.dom.Fill(page, "#username", creds.Email); err != nil {
		return autoerr.Platform(a.Name(), "login", err)
	}
	browser.RandomDelay(400, 900)
	if err := a.dom.Fill(page, "#password", creds.Password); err != nil {
		return autoerr.Platform(a.Name(), "login", err)
	}
	browser.RandomDelay(400, 900)
	if err := a.dom.Click(page, `button[type="submit"]`); err != nil {
		return autoerr.Platform(a.Name(), "login", err)
	}

	if err := a.dom.WaitFor(page, "#global-nav"); err != nil {
		return autoerr.Platform(a.Name(), "login", autoerr.ErrLoginFailed)
	}
	log.Println("✅ [linkedin] login confirmed")
	return nil
}

// SearchURL is pure: criteria in, search URL out.
func (a *Adapter) SearchURL(criteria models.SearchCriteria) string {
	params := url.Values{}
	params.Set("keywords", criteria.Keywords)

	location, ok := geoTargets[strings.ToLower(criteria.Country)]
	if !ok {
		location = "United States"
	}
	params.Set("location", location)

	if strings.EqualFold(criteria.JobType, "remote") {
		params.Set("f_WT", "2")
	}

	if levels, ok := seniorityParams[strings.ToLower(criteria.Seniority)]; ok {
		params.Set("f_E", levels)
	}

	//Easy Apply only: everything else cannot be driven by the form loop
	params.Set("f_AL", "true")

	return baseURL + "/jobs/search/?" + params.Encode()
}

func (a *Adapter) DismissModals(page playwright.Page) {
	//sign-in wall and messaging overlay
	a.dom.ClickIfVisible(page, "button.modal__dismiss")
	a.dom.ClickIfVisible(page, `button[data-tracking-control-name="public_jobs_contextual-sign-in-modal_modal_dismiss"]`)
	a.dom.ClickIfVisible(page, "button.msg-overlay-bubble-header__control--new-convo-btn")
}

// ScrapeListings enumerates job cards on an already-navigated search page,
// clicking each card to load the detail pane.
func (a *Adapter) ScrapeListings(page playwright.Page, criteria models.SearchCriteria) ([]models.JobPosting, error) {
	if err := a.dom.WaitFor(page, "li.scaffold-layout__list-item, .job-card-container"); err != nil {
		return nil, autoerr.Platform(a.Name(), "scrape", fmt.Errorf("job list never appeared: %w", err))
	}

	cards, err := page.Locator("li.scaffold-layout__list-item, li.jobs-search-results__list-item").All()
	if err != nil {
		return nil, autoerr.Platform(a.Name(), "scrape", err)
	}
	log.Printf("    📄 [linkedin] found %d potential job cards", len(cards))

	limit := criteria.Quantity
	if limit <= 0 || limit > len(cards) {
		limit = len(cards)
	}

	var jobs []models.JobPosting
	for i := 0; i < limit; i++ {
		job, err := a.extractCard(page, cards[i])
		if err != nil {
			//one bad card must not abort the batch
			log.Printf("      ⚠️ [linkedin] card %d skipped: %v", i+1, err)
			continue
		}
		jobs = append(jobs, *job)
		browser.RandomDelay(800, 2000)
	}
	return jobs, nil
}

func (a *Adapter) extractCard(page playwright.Page, card playwright.Locator) (*models.JobPosting, error) {
	linkEl := card.Locator("a.job-card-container__link").First()
	href, err := linkEl.GetAttribute("href")
	if err != nil || href == "" {
		return nil, fmt.Errorf("card has no link")
	}

	fullURL := href
	if !strings.HasPrefix(href, "http") {
		fullURL = baseURL + href
	}
	// LinkedIn URLs carry dynamic tracking params (?refId=..., ?trackingId=...)
	// that make the same job look unique. Strip them for deduplication.
	fullURL = strings.Split(fullURL, "?")[0]

	//click to load the detail pane
	if err := linkEl.Click(); err != nil {
		return nil, fmt.Errorf("could not open detail pane: %w", err)
	}
	if err := a.dom.WaitFor(page, ".job-details-jobs-unified-top-card__job-title, .jobs-details__main-content h1"); err != nil {
		return nil, fmt.Errorf("detail pane never loaded: %w", err)
	}

	title := a.dom.Text(page, ".job-details-jobs-unified-top-card__job-title, .jobs-details__main-content h1")
	company := a.dom.Text(page, ".job-details-jobs-unified-top-card__company-name, .job-details-jobs-unified-top-card__subtitle")

	location := "Unknown"
	primary := a.dom.Text(page, ".job-details-jobs-unified-top-card__primary-description-container")
	if primary != "" {
		parts := strings.Split(primary, "·")
		location = strings.TrimSpace(parts[0])
	}

	//expand the truncated description when the toggle is present
	a.dom.ClickIfVisible(page, `button[data-testid="expandable-text-button"]`)
	description := a.dom.Text(page, `[data-testid="expandable-text-box"], #job-details, .jobs-description__content`)

	salary := a.dom.Text(page, ".job-details-jobs-unified-top-card__job-insight--highlight")

	externalID, _ := card.GetAttribute("data-occludable-job-id")
	if externalID == "" {
		externalID = externalIDFromURL(fullURL)
	}

	if title == "" {
		return nil, fmt.Errorf("empty title")
	}

	return &models.JobPosting{
		Platform:    a.Name(),
		ExternalID:  externalID,
		URL:         fullURL,
		Title:       title,
		Company:     company,
		Location:    location,
		Description: description,
		SalaryText:  salary,
		Status:      models.JobStatusNew,
		Raw:         map[string]string{"card_href": href, "primary_description": primary},
	}, nil
}

// externalIDFromURL pulls the numeric job id out of /jobs/view/<id> links.
func externalIDFromURL(jobURL string) string {
	parts := strings.Split(strings.TrimRight(jobURL, "/"), "/")
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// ApplyToJob drives the Easy Apply modal through the multi-step loop.
func (a *Adapter) ApplyToJob(page playwright.Page, job models.JobPosting, payload models.ApplicationPayload) error {
	if err := a.dom.WaitFor(page, "button.jobs-apply-button"); err != nil {
		return autoerr.Platform(a.Name(), "apply", fmt.Errorf("apply button not found: %w", err))
	}

	buttonText := a.dom.Text(page, "button.jobs-apply-button")
	if !strings.Contains(strings.ToLower(buttonText), "easy apply") {
		return autoerr.Platform(a.Name(), "apply", fmt.Errorf("job is not Easy Apply, external application required"))
	}

	if err := a.dom.Click(page, "button.jobs-apply-button"); err != nil {
		return autoerr.Platform(a.Name(), "apply", err)
	}
	if err := a.dom.WaitFor(page, formSelectors.Container); err != nil {
		return autoerr.Platform(a.Name(), "apply", fmt.Errorf("apply modal never opened: %w", err))
	}

	driver := platform.NewPageStepDriver(page, a.dom, formSelectors)
	if err := platform.RunFormLoop(driver, payload, a.maxFormSteps); err != nil {
		return autoerr.Platform(a.Name(), "apply", err)
	}

	log.Printf("✅ [linkedin] application submitted for %q", job.Title)
	return nil
}

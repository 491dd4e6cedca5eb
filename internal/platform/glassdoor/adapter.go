package glassdoor

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

const baseURL = "https://www.glassdoor.com"

// locationIDs maps country codes to Glassdoor location ids; unsupported
// codes fall back to the keyword-only search.
var locationIDs = map[string]string{
	"us": "1",
	"uk": "2",
	"ca": "3",
	"de": "96",
	"fr": "86",
	"nl": "178",
}

var seniorityParams = map[string]string{
	"entry":  "entrylevel",
	"mid":    "midseniorlevel",
	"senior": "director",
}

var formSelectors = platform.FormSelectors{
	Container:     ".jobsOverlayModal, .easyApply-module",
	Controls:      ".jobsOverlayModal button, .easyApply-module button",
	TextInputs:    `.jobsOverlayModal input[type="text"], .jobsOverlayModal textarea`,
	Selects:       ".jobsOverlayModal select",
	Checkboxes:    `.jobsOverlayModal input[type="checkbox"][required]`,
	RadioGroups:   ".jobsOverlayModal fieldset",
	SuccessMarker: ".submitted-header, .applied-congrats",
	FailureMarker: ".error-banner, .css-errorMessage",
}

type Adapter struct {
	dom          platform.DOM
	maxFormSteps int
}

func New(dom platform.DOM, maxFormSteps int) *Adapter {
	return &Adapter{dom: dom, maxFormSteps: maxFormSteps}
}

func (a *Adapter) Name() string { return "glassdoor" }

func (a *Adapter) RequiresLogin() bool { return true }

func (a *Adapter) CheckLogin(page playwright.Page) (bool, error) {
	if err := a.dom.Goto(page, baseURL+"/member/home/index.htm"); err != nil {
		return false, autoerr.Platform(a.Name(), "check login", err)
	}
	browser.RandomDelay(1000, 2000)
	//unauthenticated visitors get bounced to the sign-in wall
	return !a.dom.Exists(page, `#InlineLoginModule, [data-test="sign-in-form"]`), nil
}

func (a *Adapter) Login(page playwright.Page, creds config.Credentials) error {
	if creds.Email == "" || creds.Password == "" {
		return autoerr.Platform(a.Name(), "login", fmt.Errorf("missing credentials: %w", autoerr.ErrLoginFailed))
	}

	if err := a.dom.Goto(page, baseURL+"/profile/login_input.htm"); err != nil {
		return autoerr.Platform(a.Name(), "login", err)
	}

	if err := a.dom.Fill(page, "#inlineUserEmail", creds.Email); err != nil {
		return autoerr.Platform(a.Name(), "login", err)
	}
	browser.RandomDelay(400, 900)
	if err := a.dom.Click(page, `button[data-test="email-form-button"]`); err != nil {
		return autoerr.Platform(a.Name(), "login", err)
	}

	if err := a.dom.WaitFor(page, "#inlineUserPassword"); err != nil {
		return autoerr.Platform(a.Name(), "login", autoerr.ErrLoginFailed)
	}
	if err := a.dom.Fill(page, "#inlineUserPassword", creds.Password); err != nil {
		return autoerr.Platform(a.Name(), "login", err)
	}
	if err := a.dom.Click(page, `button[type="submit"]`); err != nil {
		return autoerr.Platform(a.Name(), "login", err)
	}

	if err := a.dom.WaitFor(page, `[data-test="utility-nav"]`); err != nil {
		return autoerr.Platform(a.Name(), "login", autoerr.ErrLoginFailed)
	}
	log.Println("✅ [glassdoor] login confirmed")
	return nil
}

func (a *Adapter) SearchURL(criteria models.SearchCriteria) string {
	params := url.Values{}
	params.Set("sc.keyword", criteria.Keywords)

	if locID, ok := locationIDs[strings.ToLower(criteria.Country)]; ok {
		params.Set("locT", "N")
		params.Set("locId", locID)
	}

	if strings.EqualFold(criteria.JobType, "remote") {
		params.Set("remoteWorkType", "1")
	}

	if level, ok := seniorityParams[strings.ToLower(criteria.Seniority)]; ok {
		params.Set("seniorityType", level)
	}

	return baseURL + "/Job/jobs.htm?" + params.Encode()
}

func (a *Adapter) DismissModals(page playwright.Page) {
	//cookie consent plus the hard sign-up overlay that appears on scroll
	a.dom.ClickIfVisible(page, "#onetrust-accept-btn-handler")
	a.dom.ClickIfVisible(page, `button[alt="Close"], .modal_closeIcon`)
	a.dom.ClickIfVisible(page, `[data-test="job-alert-modal-close"]`)
}

func (a *Adapter) ScrapeListings(page playwright.Page, criteria models.SearchCriteria) ([]models.JobPosting, error) {
	if err := a.dom.WaitFor(page, `[data-test="jobs-list"], ul.JobsList_jobsList__lqjTr`); err != nil {
		return nil, autoerr.Platform(a.Name(), "scrape", fmt.Errorf("job list never appeared: %w", err))
	}

	cards, err := page.Locator(`li[data-test="jobListing"]`).All()
	if err != nil {
		return nil, autoerr.Platform(a.Name(), "scrape", err)
	}
	log.Printf("    📄 [glassdoor] found %d job cards", len(cards))

	limit := criteria.Quantity
	if limit <= 0 || limit > len(cards) {
		limit = len(cards)
	}

	var jobs []models.JobPosting
	for i := 0; i < limit; i++ {
		job, err := a.extractCard(page, cards[i])
		if err != nil {
			log.Printf("      ⚠️ [glassdoor] card %d skipped: %v", i+1, err)
			continue
		}
		jobs = append(jobs, *job)
		browser.RandomDelay(800, 2000)
	}
	return jobs, nil
}

func (a *Adapter) extractCard(page playwright.Page, card playwright.Locator) (*models.JobPosting, error) {
	link := card.Locator(`a[data-test="job-title"]`).First()
	href, err := link.GetAttribute("href")
	if err != nil || href == "" {
		return nil, fmt.Errorf("card has no link")
	}

	fullURL := href
	if !strings.HasPrefix(href, "http") {
		fullURL = baseURL + href
	}
	fullURL = strings.Split(fullURL, "?")[0]

	externalID, _ := card.GetAttribute("data-jobid")

	if err := link.Click(); err != nil {
		return nil, fmt.Errorf("could not open detail pane: %w", err)
	}
	if err := a.dom.WaitFor(page, `[data-test="jobDetails"], .JobDetails_jobDetailsContainer__y9P3L`); err != nil {
		return nil, fmt.Errorf("detail pane never loaded: %w", err)
	}
	if externalID == "" {
		//some card layouts only carry the id on the detail pane
		externalID = a.dom.Attr(page, `[data-test="jobDetails"]`, "data-jobid")
	}

	//dismiss the sign-up overlay that Glassdoor drops after the first click
	a.dom.ClickIfVisible(page, `button[alt="Close"], .modal_closeIcon`)

	title := a.dom.Text(page, `[data-test="job-title"], h1[id^="jd-job-title"]`)
	company := a.dom.Text(page, `[data-test="employer-name"], h4[id^="jd-employer"]`)
	location := a.dom.Text(page, `[data-test="location"], [data-test="emp-location"]`)
	salary := a.dom.Text(page, `[data-test="detailSalary"], #jd-salary`)

	//expand the full description when truncated
	a.dom.ClickIfVisible(page, `button[data-test="show-more-cta"]`)
	description := a.dom.Text(page, `[data-test="jobDescriptionContent"], .JobDetails_jobDescription__uW_fK`)

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
		Raw:         map[string]string{"card_href": href},
	}, nil
}

// ApplyToJob drives Glassdoor's Easy Apply overlay through the multi-step
// loop.
func (a *Adapter) ApplyToJob(page playwright.Page, job models.JobPosting, payload models.ApplicationPayload) error {
	if err := a.dom.WaitFor(page, `button[data-test="easyApply"], button[data-test="applyButton"]`); err != nil {
		return autoerr.Platform(a.Name(), "apply", fmt.Errorf("apply button not found: %w", err))
	}

	buttonText := a.dom.Text(page, `button[data-test="easyApply"], button[data-test="applyButton"]`)
	if !strings.Contains(strings.ToLower(buttonText), "easy apply") {
		return autoerr.Platform(a.Name(), "apply", fmt.Errorf("job redirects to an external application"))
	}

	if err := a.dom.Click(page, `button[data-test="easyApply"], button[data-test="applyButton"]`); err != nil {
		return autoerr.Platform(a.Name(), "apply", err)
	}
	if err := a.dom.WaitFor(page, formSelectors.Container); err != nil {
		return autoerr.Platform(a.Name(), "apply", fmt.Errorf("apply overlay never opened: %w", err))
	}

	driver := platform.NewPageStepDriver(page, a.dom, formSelectors)
	if err := platform.RunFormLoop(driver, payload, a.maxFormSteps); err != nil {
		return autoerr.Platform(a.Name(), "apply", err)
	}

	log.Printf("✅ [glassdoor] application submitted for %q", job.Title)
	return nil
}

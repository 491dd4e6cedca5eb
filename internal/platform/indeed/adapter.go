package indeed

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
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// countryDomains maps country codes to Indeed's regional hosts. Unsupported
// codes fall back to the .com default.
var countryDomains = map[string]string{
	"us": "www.indeed.com",
	"uk": "uk.indeed.com",
	"ca": "ca.indeed.com",
	"de": "de.indeed.com",
	"fr": "fr.indeed.com",
	"nl": "nl.indeed.com",
	"es": "es.indeed.com",
	"pl": "pl.indeed.com",
}

var seniorityParams = map[string]string{
	"entry":  "entry_level",
	"mid":    "mid_level",
	"senior": "senior_level",
}

var formSelectors = platform.FormSelectors{
	Container:     ".ia-BasePage, #ia-container",
	Controls:      ".ia-BasePage button, #ia-container button",
	TextInputs:    `.ia-BasePage input[type="text"], .ia-BasePage input[type="tel"], .ia-BasePage textarea`,
	Selects:       ".ia-BasePage select",
	Checkboxes:    `.ia-BasePage input[type="checkbox"][required]`,
	RadioGroups:   ".ia-BasePage fieldset",
	SuccessMarker: ".ia-PostApply, h1.ia-SuccessPage-heading",
	FailureMarker: ".ia-InlineError, .css-mllman",
}

var titleCaser = cases.Title(language.English)

type Adapter struct {
	dom          platform.DOM
	maxFormSteps int
}

func New(dom platform.DOM, maxFormSteps int) *Adapter {
	return &Adapter{dom: dom, maxFormSteps: maxFormSteps}
}

func (a *Adapter) Name() string { return "indeed" }

// Indeed exposes search and Easily Apply without an account wall.
func (a *Adapter) RequiresLogin() bool { return false }

func (a *Adapter) CheckLogin(page playwright.Page) (bool, error) {
	if err := a.dom.Goto(page, "https://www.indeed.com/"); err != nil {
		return false, autoerr.Platform(a.Name(), "check login", err)
	}
	return a.dom.Exists(page, `[data-gnav-element-name="AccountMenu"]`), nil
}

func (a *Adapter) Login(page playwright.Page, creds config.Credentials) error {
	if creds.Email == "" || creds.Password == "" {
		return autoerr.Platform(a.Name(), "login", fmt.Errorf("missing credentials: %w", autoerr.ErrLoginFailed))
	}

	if err := a.dom.Goto(page, "https://secure.indeed.com/auth"); err != nil {
		return autoerr.Platform(a.Name(), "login", err)
	}

	if err := a.dom.Fill(page, `input[type="email"]`, creds.Email); err != nil {
		return autoerr.Platform(a.Name(), "login", err)
	}
	browser.RandomDelay(400, 900)
	if err := a.dom.Click(page, `button[type="submit"]`); err != nil {
		return autoerr.Platform(a.Name(), "login", err)
	}

	//password screen comes second
	if err := a.dom.WaitFor(page, `input[type="password"]`); err != nil {
		return autoerr.Platform(a.Name(), "login", autoerr.ErrLoginFailed)
	}
	if err := a.dom.Fill(page, `input[type="password"]`, creds.Password); err != nil {
		return autoerr.Platform(a.Name(), "login", err)
	}
	if err := a.dom.Click(page, `button[type="submit"]`); err != nil {
		return autoerr.Platform(a.Name(), "login", err)
	}

	if err := a.dom.WaitFor(page, `[data-gnav-element-name="AccountMenu"]`); err != nil {
		return autoerr.Platform(a.Name(), "login", autoerr.ErrLoginFailed)
	}
	log.Println("✅ [indeed] login confirmed")
	return nil
}

func (a *Adapter) SearchURL(criteria models.SearchCriteria) string {
	host, ok := countryDomains[strings.ToLower(criteria.Country)]
	if !ok {
		host = countryDomains["us"]
	}

	params := url.Values{}
	params.Set("q", criteria.Keywords)

	if strings.EqualFold(criteria.JobType, "remote") {
		params.Set("l", "Remote")
	} else if criteria.JobType != "" {
		params.Set("l", titleCaser.String(criteria.JobType))
	}

	if level, ok := seniorityParams[strings.ToLower(criteria.Seniority)]; ok {
		params.Set("explvl", level)
	}

	return "https://" + host + "/jobs?" + params.Encode()
}

func (a *Adapter) DismissModals(page playwright.Page) {
	//cookie banner and the occasional signup popover
	a.dom.ClickIfVisible(page, "#onetrust-accept-btn-handler")
	a.dom.ClickIfVisible(page, `button[aria-label="close"]`)
	a.dom.ClickIfVisible(page, ".popover-x-button-close")
}

func (a *Adapter) ScrapeListings(page playwright.Page, criteria models.SearchCriteria) ([]models.JobPosting, error) {
	if err := a.dom.WaitFor(page, "#mosaic-provider-jobcards, .jobsearch-ResultsList"); err != nil {
		return nil, autoerr.Platform(a.Name(), "scrape", fmt.Errorf("job list never appeared: %w", err))
	}

	cards, err := page.Locator("div.job_seen_beacon").All()
	if err != nil {
		return nil, autoerr.Platform(a.Name(), "scrape", err)
	}
	log.Printf("    📄 [indeed] found %d job cards", len(cards))

	limit := criteria.Quantity
	if limit <= 0 || limit > len(cards) {
		limit = len(cards)
	}

	var jobs []models.JobPosting
	for i := 0; i < limit; i++ {
		job, err := a.extractCard(page, cards[i])
		if err != nil {
			log.Printf("      ⚠️ [indeed] card %d skipped: %v", i+1, err)
			continue
		}
		jobs = append(jobs, *job)
		browser.RandomDelay(800, 2000)
	}
	return jobs, nil
}

func (a *Adapter) extractCard(page playwright.Page, card playwright.Locator) (*models.JobPosting, error) {
	titleLink := card.Locator("h2.jobTitle a").First()
	href, err := titleLink.GetAttribute("href")
	if err != nil || href == "" {
		return nil, fmt.Errorf("card has no link")
	}

	jobKey, _ := titleLink.GetAttribute("data-jk")
	fullURL := href
	if !strings.HasPrefix(href, "http") {
		fullURL = "https://www.indeed.com" + href
	}
	if jobKey != "" {
		//canonical detail URL for dedup, free of tracking params
		fullURL = "https://www.indeed.com/viewjob?jk=" + jobKey
	}

	//click loads the right-hand detail pane
	if err := titleLink.Click(); err != nil {
		return nil, fmt.Errorf("could not open detail pane: %w", err)
	}
	if err := a.dom.WaitFor(page, ".jobsearch-JobComponent, #jobDescriptionText"); err != nil {
		return nil, fmt.Errorf("detail pane never loaded: %w", err)
	}

	title := a.dom.Text(page, `h2[data-testid="jobsearch-JobInfoHeader-title"], .jobsearch-JobInfoHeader-title`)
	company := a.dom.Text(page, `[data-testid="inlineHeader-companyName"], [data-company-name="true"]`)
	location := a.dom.Text(page, `[data-testid="inlineHeader-companyLocation"], .jobsearch-JobInfoHeader-subtitle div:last-child`)
	salary := a.dom.Text(page, `#salaryInfoAndJobType, [data-testid="attribute_snippet_testid"]`)
	description := a.dom.Text(page, "#jobDescriptionText")

	if title == "" {
		return nil, fmt.Errorf("empty title")
	}

	return &models.JobPosting{
		Platform:    a.Name(),
		ExternalID:  jobKey,
		URL:         fullURL,
		Title:       title,
		Company:     company,
		Location:    location,
		Description: description,
		SalaryText:  salary,
		Status:      models.JobStatusNew,
		Raw:         map[string]string{"job_key": jobKey, "card_href": href},
	}, nil
}

// ApplyToJob drives the Indeed Apply flow (the embedded ia- application
// wizard) through the multi-step loop.
func (a *Adapter) ApplyToJob(page playwright.Page, job models.JobPosting, payload models.ApplicationPayload) error {
	if err := a.dom.WaitFor(page, "#indeedApplyButton, .jobsearch-IndeedApplyButton-newDesign"); err != nil {
		return autoerr.Platform(a.Name(), "apply", fmt.Errorf("apply button not found: %w", err))
	}

	if err := a.dom.Click(page, "#indeedApplyButton, .jobsearch-IndeedApplyButton-newDesign"); err != nil {
		return autoerr.Platform(a.Name(), "apply", err)
	}
	if err := a.dom.WaitFor(page, formSelectors.Container); err != nil {
		return autoerr.Platform(a.Name(), "apply", fmt.Errorf("application wizard never opened: %w", err))
	}

	driver := platform.NewPageStepDriver(page, a.dom, formSelectors)
	if err := platform.RunFormLoop(driver, payload, a.maxFormSteps); err != nil {
		return autoerr.Platform(a.Name(), "apply", err)
	}

	log.Printf("✅ [indeed] application submitted for %q", job.Title)
	return nil
}

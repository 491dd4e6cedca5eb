// Package platform defines the per-site capability contract shared by every
// job-board adapter. Variants differ only in URL construction, element
// location and field extraction; orchestration logic lives above them.
package platform

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Eli-the-creator/api/internal/autoerr"
	"github.com/Eli-the-creator/api/internal/config"
	"github.com/Eli-the-creator/api/internal/models"
	"github.com/playwright-community/playwright-go"
)

// Adapter is the capability set every platform implements.
type Adapter interface {
	Name() string
	RequiresLogin() bool

	// CheckLogin reports whether the page's context carries an authenticated
	// session.
	CheckLogin(page playwright.Page) (bool, error)

	// Login submits credentials once. Login failures are typed and never
	// silently retried - credentials rarely self-correct.
	Login(page playwright.Page, creds config.Credentials) error

	// SearchURL is pure: criteria in, platform search URL out. Unsupported
	// country/seniority values fall back to platform defaults.
	SearchURL(criteria models.SearchCriteria) string

	// DismissModals closes cookie banners, sign-in prompts and similar
	// overlays. Best effort.
	DismissModals(page playwright.Page)

	// ScrapeListings enumerates search results on an already-navigated page
	// and extracts job postings, skipping broken cards.
	ScrapeListings(page playwright.Page, criteria models.SearchCriteria) ([]models.JobPosting, error)

	// ApplyToJob runs the multi-step submission loop on an already-navigated
	// job page.
	ApplyToJob(page playwright.Page, job models.JobPosting, payload models.ApplicationPayload) error
}

// Registry holds the configured adapters keyed by platform name.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

func (r *Registry) Get(name string) (Adapter, error) {
	a, ok := r.adapters[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", autoerr.ErrUnknownPlatform, name)
	}
	return a, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}

// Detect resolves a platform name from a job URL's host.
func Detect(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: unparsable url %q", autoerr.ErrUnknownPlatform, rawURL)
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case strings.Contains(host, "linkedin."):
		return "linkedin", nil
	case strings.Contains(host, "indeed."):
		return "indeed", nil
	case strings.Contains(host, "glassdoor."):
		return "glassdoor", nil
	}
	return "", fmt.Errorf("%w: host %q", autoerr.ErrUnknownPlatform, host)
}

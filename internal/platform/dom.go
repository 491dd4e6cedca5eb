package platform

import (
	"strings"

	"github.com/playwright-community/playwright-go"
)

// DOM bundles the click/fill/wait/exists primitives shared by all adapters.
// Each adapter composes one of these instead of re-implementing waits.
type DOM struct {
	// SelectorTimeoutMs bounds every element-appearance wait so a missing
	// element becomes a typed timeout instead of an unbounded block.
	SelectorTimeoutMs float64
	NavigationMs      float64
}

func NewDOM(selectorTimeoutMs, navigationMs float64) DOM {
	return DOM{SelectorTimeoutMs: selectorTimeoutMs, NavigationMs: navigationMs}
}

// Goto navigates and waits for DOM content.
func (d DOM) Goto(page playwright.Page, url string) error {
	_, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(d.NavigationMs),
	})
	return err
}

// WaitFor blocks until the selector appears or the timeout elapses.
func (d DOM) WaitFor(page playwright.Page, selector string) error {
	_, err := page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(d.SelectorTimeoutMs),
	})
	return err
}

// Exists reports whether the selector is currently visible. Never waits.
func (d DOM) Exists(page playwright.Page, selector string) bool {
	visible, err := page.Locator(selector).First().IsVisible()
	return err == nil && visible
}

// Click clicks the first match.
func (d DOM) Click(page playwright.Page, selector string) error {
	return page.Locator(selector).First().Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(d.SelectorTimeoutMs),
	})
}

// ClickIfVisible clicks the first match when present; no-op otherwise.
func (d DOM) ClickIfVisible(page playwright.Page, selector string) bool {
	if !d.Exists(page, selector) {
		return false
	}
	err := page.Locator(selector).First().Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(d.SelectorTimeoutMs),
	})
	return err == nil
}

// Fill types a value into the first match.
func (d DOM) Fill(page playwright.Page, selector, value string) error {
	return page.Locator(selector).First().Fill(value, playwright.LocatorFillOptions{
		Timeout: playwright.Float(d.SelectorTimeoutMs),
	})
}

// Text extracts trimmed inner text from the first match, empty when absent.
func (d DOM) Text(page playwright.Page, selector string) string {
	loc := page.Locator(selector).First()
	if count, _ := loc.Count(); count == 0 {
		return ""
	}
	text, err := loc.InnerText()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// Attr reads an attribute from the first match, empty when absent.
func (d DOM) Attr(page playwright.Page, selector, attr string) string {
	loc := page.Locator(selector).First()
	if count, _ := loc.Count(); count == 0 {
		return ""
	}
	val, err := loc.GetAttribute(attr)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(val)
}

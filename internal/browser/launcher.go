package browser

import (
	"fmt"
	"net/url"

	"github.com/playwright-community/playwright-go"
)

// LaunchOptions configures one browser process launch.
type LaunchOptions struct {
	Headless  bool
	Proxy     string
	ExtraArgs []string
}

// ContextOptions configures one isolated browsing context.
type ContextOptions struct {
	UserAgent string
	Cookies   []playwright.OptionalCookie
}

// Engine is one owned browser process. The pool only ever talks to engines
// through this interface so tests can swap in a fake.
type Engine interface {
	NewContext(opts ContextOptions) (Context, error)
	Close() error
	Connected() bool
}

// Context is an isolated cookie/storage scope within an engine.
type Context interface {
	NewPage() (playwright.Page, error)
	Close() error
}

// Launcher creates engines. onDisconnect fires when the underlying process
// drops its connection.
type Launcher interface {
	Launch(opts LaunchOptions, onDisconnect func()) (Engine, error)
}

// PlaywrightLauncher drives real Chromium processes through playwright.
type PlaywrightLauncher struct {
	pw *playwright.Playwright
}

func NewPlaywrightLauncher() (*PlaywrightLauncher, error) {
	if err := playwright.Install(&playwright.RunOptions{Verbose: false}); err != nil {
		return nil, fmt.Errorf("could not install playwright: %w", err)
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}
	return &PlaywrightLauncher{pw: pw}, nil
}

func (l *PlaywrightLauncher) Launch(opts LaunchOptions, onDisconnect func()) (Engine, error) {
	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args: append([]string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		}, opts.ExtraArgs...),
	}

	if opts.Proxy != "" {
		launchOpts.Proxy = parseProxy(opts.Proxy)
	}

	b, err := l.pw.Chromium.Launch(launchOpts)
	if err != nil {
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}

	if onDisconnect != nil {
		b.OnDisconnected(func(playwright.Browser) {
			onDisconnect()
		})
	}

	return &playwrightEngine{browser: b}, nil
}

func (l *PlaywrightLauncher) Stop() error {
	return l.pw.Stop()
}

// parseProxy splits credentials out of a proxy connection string so they can
// be passed to the engine separately.
func parseProxy(endpoint string) *playwright.Proxy {
	u, err := url.Parse(endpoint)
	if err != nil || u.User == nil {
		return &playwright.Proxy{Server: endpoint}
	}
	password, _ := u.User.Password()
	username := u.User.Username()
	server := u.Scheme + "://" + u.Host
	return &playwright.Proxy{
		Server:   server,
		Username: playwright.String(username),
		Password: playwright.String(password),
	}
}

type playwrightEngine struct {
	browser playwright.Browser
}

func (e *playwrightEngine) NewContext(opts ContextOptions) (Context, error) {
	ctxOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: 1366, Height: 768},
	}
	if opts.UserAgent != "" {
		ctxOpts.UserAgent = playwright.String(opts.UserAgent)
	}

	ctx, err := e.browser.NewContext(ctxOpts)
	if err != nil {
		return nil, fmt.Errorf("could not create context: %w", err)
	}

	// Cookie restore is best effort. A stale export must not abort acquisition.
	if len(opts.Cookies) > 0 {
		_ = ctx.AddCookies(opts.Cookies)
	}

	return &playwrightContext{ctx: ctx}, nil
}

func (e *playwrightEngine) Close() error {
	return e.browser.Close()
}

func (e *playwrightEngine) Connected() bool {
	return e.browser.IsConnected()
}

type playwrightContext struct {
	ctx playwright.BrowserContext
}

func (c *playwrightContext) NewPage() (playwright.Page, error) {
	return c.ctx.NewPage()
}

func (c *playwrightContext) Close() error {
	return c.ctx.Close()
}

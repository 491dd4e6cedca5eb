package browser

import (
	"log"
	"sync"
	"time"

	"github.com/Eli-the-creator/api/internal/autoerr"
	"github.com/Eli-the-creator/api/internal/config"
	"github.com/Eli-the-creator/api/internal/retry"
	"github.com/playwright-community/playwright-go"
)

// Pool owns one browser process per platform key and hands out isolated
// context/page leases. The map is the only shared mutable state crossing
// operation boundaries; every mutation happens under mu.
type Pool struct {
	mu       sync.Mutex
	launcher Launcher
	cfg      config.BrowserConfig
	// cookiesDir holds per-platform exported cookie files; empty disables
	// cookie restore.
	cookiesDir string
	sessions   map[string]*session

	sweepStop chan struct{}
	sweepOnce sync.Once
}

type session struct {
	platform string
	engine   Engine
	lastUsed time.Time
}

// AcquireOptions selects how a lease is produced.
type AcquireOptions struct {
	// ReuseExisting hands out a fresh context on the platform's live process
	// when one exists. When false, any existing process for the key is
	// evicted first so the caller gets a disposable session.
	ReuseExisting bool
	Proxy         string
	ExtraArgs     []string
}

// Lease is one acquired context+page. Always return it through Release.
type Lease struct {
	Platform string
	Engine   Engine
	Context  Context
	Page     playwright.Page
}

func NewPool(launcher Launcher, cfg config.BrowserConfig, cookiesDir string) *Pool {
	return &Pool{
		launcher:   launcher,
		cfg:        cfg,
		cookiesDir: cookiesDir,
		sessions:   make(map[string]*session),
		sweepStop:  make(chan struct{}),
	}
}

// Acquire returns a lease for the platform, launching a process if needed.
func (p *Pool) Acquire(platform string, opts AcquireOptions) (*Lease, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sess := p.sessions[platform]

	// A disconnected process is never handed out again.
	if sess != nil && !sess.engine.Connected() {
		log.Printf("⚠️ [%s] browser process disconnected, evicting", platform)
		p.evictLocked(platform)
		sess = nil
	}

	if sess != nil && !opts.ReuseExisting {
		log.Printf("♻️ [%s] fresh session requested, closing existing process", platform)
		p.evictLocked(platform)
		sess = nil
	}

	if sess == nil {
		engine, err := p.launchLocked(platform, opts)
		if err != nil {
			return nil, autoerr.Browser("launch", err)
		}
		sess = &session{platform: platform, engine: engine}
		p.sessions[platform] = sess
	}

	sess.lastUsed = time.Now()

	lease, err := p.openLease(sess)
	if err != nil {
		return nil, autoerr.Browser("open context", err)
	}
	return lease, nil
}

// launchLocked starts a new process with bounded retries. Caller holds mu.
func (p *Pool) launchLocked(platform string, opts AcquireOptions) (Engine, error) {
	launchOpts := LaunchOptions{
		Headless:  p.cfg.Headless,
		Proxy:     opts.Proxy,
		ExtraArgs: opts.ExtraArgs,
	}

	return retry.DoValue(func() (Engine, error) {
		return p.launcher.Launch(launchOpts, func() {
			p.onDisconnect(platform)
		})
	}, retry.Options{
		Retries:  p.cfg.LaunchRetries,
		MinDelay: 500 * time.Millisecond,
		MaxDelay: 2 * time.Second,
		OnRetry: func(attempt int, err error) {
			log.Printf("🔄 [%s] browser launch retry %d: %v", platform, attempt, err)
		},
	})
}

func (p *Pool) openLease(sess *session) (*Lease, error) {
	ctxOpts := ContextOptions{UserAgent: RandomUserAgent()}

	if p.cookiesDir != "" {
		cookies, err := LoadCookies(p.cookiesDir, sess.platform)
		if err == nil {
			ctxOpts.Cookies = cookies
		}
	}

	ctx, err := sess.engine.NewContext(ctxOpts)
	if err != nil {
		return nil, err
	}

	page, err := ctx.NewPage()
	if err != nil {
		ctx.Close()
		return nil, err
	}

	return &Lease{
		Platform: sess.platform,
		Engine:   sess.engine,
		Context:  ctx,
		Page:     page,
	}, nil
}

// Release closes the lease's page and context. The underlying process stays
// in the pool for reuse. Safe to call on every exit path.
func (p *Pool) Release(lease *Lease) {
	if lease == nil {
		return
	}
	if lease.Page != nil {
		if err := lease.Page.Close(); err != nil {
			log.Printf("⚠️ Error closing page: %v", err)
		}
	}
	if lease.Context != nil {
		if err := lease.Context.Close(); err != nil {
			log.Printf("⚠️ Error closing context: %v", err)
		}
	}

	p.mu.Lock()
	if sess, ok := p.sessions[lease.Platform]; ok {
		sess.lastUsed = time.Now()
	}
	p.mu.Unlock()
}

// CloseAll shuts down every tracked process. Used at shutdown and on the
// explicit restart administrative action.
func (p *Pool) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for platform := range p.sessions {
		p.evictLocked(platform)
	}
}

// SweepIdle closes and evicts any session unused beyond threshold.
func (p *Pool) SweepIdle(threshold time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	for platform, sess := range p.sessions {
		if now.Sub(sess.lastUsed) > threshold {
			log.Printf("🧹 [%s] idle session swept (last used %s ago)", platform, now.Sub(sess.lastUsed).Round(time.Second))
			p.evictLocked(platform)
		}
	}
}

// StartSweeper runs SweepIdle on a fixed period until StopSweeper is called.
func (p *Pool) StartSweeper(interval, threshold time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.SweepIdle(threshold)
			case <-p.sweepStop:
				return
			}
		}
	}()
}

func (p *Pool) StopSweeper() {
	p.sweepOnce.Do(func() {
		close(p.sweepStop)
	})
}

// onDisconnect evicts a platform entry when its process reports itself gone.
func (p *Pool) onDisconnect(platform string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if sess, ok := p.sessions[platform]; ok && !sess.engine.Connected() {
		log.Printf("🔌 [%s] browser disconnected, evicting from pool", platform)
		delete(p.sessions, platform)
	}
}

// evictLocked removes and closes one session. Caller holds mu.
func (p *Pool) evictLocked(platform string) {
	sess, ok := p.sessions[platform]
	if !ok {
		return
	}
	delete(p.sessions, platform)
	if err := sess.engine.Close(); err != nil {
		log.Printf("⚠️ [%s] error closing browser: %v", platform, err)
	}
}

package browser

import (
	"errors"
	"testing"
	"time"

	"github.com/Eli-the-creator/api/internal/config"
	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	id        int
	connected bool
	closed    bool
	contexts  int
}

func (e *fakeEngine) NewContext(opts ContextOptions) (Context, error) {
	e.contexts++
	return &fakeContext{}, nil
}

func (e *fakeEngine) Close() error {
	e.closed = true
	e.connected = false
	return nil
}

func (e *fakeEngine) Connected() bool { return e.connected }

type fakeContext struct {
	closed bool
}

func (c *fakeContext) NewPage() (playwright.Page, error) { return nil, nil }

func (c *fakeContext) Close() error {
	c.closed = true
	return nil
}

type fakeLauncher struct {
	launches  int
	failFirst int
	engines   []*fakeEngine
}

func (l *fakeLauncher) Launch(opts LaunchOptions, onDisconnect func()) (Engine, error) {
	l.launches++
	if l.launches <= l.failFirst {
		return nil, errors.New("launch failed")
	}
	engine := &fakeEngine{id: l.launches, connected: true}
	l.engines = append(l.engines, engine)
	return engine, nil
}

func testPool(launcher Launcher) *Pool {
	return NewPool(launcher, config.BrowserConfig{LaunchRetries: 2}, "")
}

func TestPool_ReuseReturnsSameProcess(t *testing.T) {
	launcher := &fakeLauncher{}
	pool := testPool(launcher)

	first, err := pool.Acquire("linkedin", AcquireOptions{ReuseExisting: true})
	require.NoError(t, err)
	pool.Release(first)

	second, err := pool.Acquire("linkedin", AcquireOptions{ReuseExisting: true})
	require.NoError(t, err)
	pool.Release(second)

	assert.Equal(t, 1, launcher.launches, "reuse must not launch a second process")
	assert.Same(t, first.Engine, second.Engine)
}

func TestPool_FreshSessionEvictsExisting(t *testing.T) {
	launcher := &fakeLauncher{}
	pool := testPool(launcher)

	first, err := pool.Acquire("indeed", AcquireOptions{ReuseExisting: true})
	require.NoError(t, err)
	pool.Release(first)

	second, err := pool.Acquire("indeed", AcquireOptions{ReuseExisting: false})
	require.NoError(t, err)
	pool.Release(second)

	assert.Equal(t, 2, launcher.launches)
	assert.NotSame(t, first.Engine, second.Engine)
	assert.True(t, launcher.engines[0].closed, "old process must be closed before the new one is handed out")
}

func TestPool_DisconnectedProcessIsReplaced(t *testing.T) {
	launcher := &fakeLauncher{}
	pool := testPool(launcher)

	first, err := pool.Acquire("glassdoor", AcquireOptions{ReuseExisting: true})
	require.NoError(t, err)
	pool.Release(first)

	//simulate the process dying
	launcher.engines[0].connected = false

	second, err := pool.Acquire("glassdoor", AcquireOptions{ReuseExisting: true})
	require.NoError(t, err)
	pool.Release(second)

	assert.Equal(t, 2, launcher.launches, "disconnected process must be evicted, not reused")
	assert.NotSame(t, first.Engine, second.Engine)
}

func TestPool_LaunchRetriesThenFails(t *testing.T) {
	//fails more times than the retry budget (2 extra tries) allows
	launcher := &fakeLauncher{failFirst: 10}
	pool := testPool(launcher)

	_, err := pool.Acquire("linkedin", AcquireOptions{})
	assert.Error(t, err)
	assert.Equal(t, 3, launcher.launches)
}

func TestPool_SweepIdleEvictsStaleSessions(t *testing.T) {
	launcher := &fakeLauncher{}
	pool := testPool(launcher)

	lease, err := pool.Acquire("indeed", AcquireOptions{ReuseExisting: true})
	require.NoError(t, err)
	pool.Release(lease)

	//not stale yet
	pool.SweepIdle(time.Hour)
	assert.False(t, launcher.engines[0].closed)

	//everything older than 0 is stale
	time.Sleep(5 * time.Millisecond)
	pool.SweepIdle(0)
	assert.True(t, launcher.engines[0].closed)

	//next acquire launches fresh
	next, err := pool.Acquire("indeed", AcquireOptions{ReuseExisting: true})
	require.NoError(t, err)
	pool.Release(next)
	assert.Equal(t, 2, launcher.launches)
}

func TestPool_CloseAll(t *testing.T) {
	launcher := &fakeLauncher{}
	pool := testPool(launcher)

	for _, platform := range []string{"linkedin", "indeed"} {
		lease, err := pool.Acquire(platform, AcquireOptions{ReuseExisting: true})
		require.NoError(t, err)
		pool.Release(lease)
	}

	pool.CloseAll()
	for _, engine := range launcher.engines {
		assert.True(t, engine.closed)
	}
}

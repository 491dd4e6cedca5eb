package retry

import (
	"math/rand"
	"time"
)

// Options bounds a retried operation. Retries is the number of EXTRA
// attempts after the first one; total attempts = Retries + 1.
type Options struct {
	Retries  int
	MinDelay time.Duration
	MaxDelay time.Duration
	// OnRetry is an observation hook (logging). It never alters control flow.
	OnRetry func(attempt int, err error)
}

// Do runs op until it succeeds or the retry budget is exhausted, sleeping a
// uniformly-random duration in [MinDelay, MaxDelay] between attempts. The
// jitter avoids synchronized retry storms and keeps pacing human-like.
func Do(op func() error, opts Options) error {
	var lastErr error
	for attempt := 0; attempt <= opts.Retries; attempt++ {
		if attempt > 0 {
			if opts.OnRetry != nil {
				opts.OnRetry(attempt, lastErr)
			}
			sleepJitter(opts.MinDelay, opts.MaxDelay)
		}
		if err := op(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

// DoValue is the value-returning variant of Do.
func DoValue[T any](op func() (T, error), opts Options) (T, error) {
	var result T
	err := Do(func() error {
		var opErr error
		result, opErr = op()
		return opErr
	}, opts)
	return result, err
}

func sleepJitter(min, max time.Duration) {
	if max <= min {
		time.Sleep(min)
		return
	}
	time.Sleep(min + time.Duration(rand.Int63n(int64(max-min))))
}

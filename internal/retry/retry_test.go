package retry

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDo_SucceedsAfterFailures(t *testing.T) {
	attempts := 0
	err := Do(func() error {
		attempts++
		if attempts <= 2 {
			return errors.New("flaky")
		}
		return nil
	}, Options{Retries: 2, MinDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_ExhaustedReturnsLastError(t *testing.T) {
	attempts := 0
	err := Do(func() error {
		attempts++
		return errors.New("always down")
	}, Options{Retries: 2, MinDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond})

	assert.EqualError(t, err, "always down")
	//total attempts never exceed retries+1
	assert.Equal(t, 3, attempts)
}

func TestDo_OnRetryObservesOnly(t *testing.T) {
	var observed []int
	_ = Do(func() error {
		return errors.New("nope")
	}, Options{
		Retries:  2,
		MinDelay: time.Millisecond,
		MaxDelay: 2 * time.Millisecond,
		OnRetry: func(attempt int, err error) {
			observed = append(observed, attempt)
			assert.Error(t, err)
		},
	})

	//first attempt is not a retry
	assert.Equal(t, []int{1, 2}, observed)
}

func TestDoValue(t *testing.T) {
	attempts := 0
	val, err := DoValue(func() (string, error) {
		attempts++
		if attempts == 1 {
			return "", errors.New("first try fails")
		}
		return "ok", nil
	}, Options{Retries: 1, MinDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond})

	assert.NoError(t, err)
	assert.Equal(t, "ok", val)
}

// Typed error taxonomy shared by the browser pool, the platform adapters and
// the orchestration layers. Callers classify with errors.As.
package autoerr

import (
	"errors"
	"fmt"
)

// BrowserError covers automation-engine and process-level failures. These are
// retried at launch time only.
type BrowserError struct {
	Op  string
	Err error
}

func (e *BrowserError) Error() string {
	return fmt.Sprintf("browser: %s: %v", e.Op, e.Err)
}

func (e *BrowserError) Unwrap() error { return e.Err }

func Browser(op string, err error) *BrowserError {
	return &BrowserError{Op: op, Err: err}
}

// PlatformError is an adapter-level failure (login failure, missing expected
// element, unrecognized form state). Fatal to the current job or scrape
// attempt.
type PlatformError struct {
	Platform string
	Op       string
	Err      error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Platform, e.Op, e.Err)
}

func (e *PlatformError) Unwrap() error { return e.Err }

func Platform(platform, op string, err error) *PlatformError {
	return &PlatformError{Platform: platform, Op: op, Err: err}
}

// ApplicationError is a job-level orchestration failure, tagged with the job
// it belongs to.
type ApplicationError struct {
	JobID string
	Err   error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("application %s: %v", e.JobID, e.Err)
}

func (e *ApplicationError) Unwrap() error { return e.Err }

func Application(jobID string, err error) *ApplicationError {
	return &ApplicationError{JobID: jobID, Err: err}
}

// StoreError is a backend call failure. Logged by callers; the parent flow
// continues in degraded form where safe.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func Store(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

// Sentinels for adapter-level conditions the orchestrator branches on.
var (
	ErrLoginFailed          = errors.New("login failed")
	ErrUnrecognizedFormStep = errors.New("unrecognized form state")
	ErrUnknownPlatform      = errors.New("unknown platform")
)

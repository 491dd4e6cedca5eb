package store

import (
	"context"

	"github.com/Eli-the-creator/api/internal/models"
)

// Store is the backend persistence boundary consumed by the scraping
// pipeline and the application orchestrator. Every call is a fallible remote
// operation; callers degrade per their own policy.
type Store interface {
	// FindJobByPlatformAndURL returns nil, nil when no job matches.
	FindJobByPlatformAndURL(ctx context.Context, platform, url string) (*models.JobPosting, error)
	InsertJob(ctx context.Context, job *models.JobPosting) (*models.JobPosting, error)
	UpdateJobStatus(ctx context.Context, jobID string, status models.JobStatus, details string) error
	InsertApplicationRecord(ctx context.Context, attempt *models.ApplicationAttempt) error
	QueryJobsByFilter(ctx context.Context, filter models.JobFilter) ([]models.JobPosting, error)
}

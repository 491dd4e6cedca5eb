package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Eli-the-creator/api/internal/autoerr"
	"github.com/Eli-the-creator/api/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the PostgreSQL-backed Store.
type Repository struct {
	db *pgxpool.Pool
}

func ConnectDB(ctx context.Context, connString string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	// IMPORTANT: Supabase connection pooler (PgBouncer in Transaction mode)
	// does not support prepared statements easily. We MUST disable the statement cache.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Ping to ensure connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &Repository{db: pool}, nil
}

func (r *Repository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

const jobColumns = "id, platform, external_id, url, title, company, location, description, salary_text, status, raw, created_at"

// FindJobByPlatformAndURL looks a job up by its dedup key. Returns nil, nil
// when the job is not stored yet.
func (r *Repository) FindJobByPlatformAndURL(ctx context.Context, platform, url string) (*models.JobPosting, error) {
	var job models.JobPosting
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE platform = $1 AND url = $2`
	err := r.db.QueryRow(ctx, query, platform, url).
		Scan(&job.ID, &job.Platform, &job.ExternalID, &job.URL, &job.Title, &job.Company, &job.Location, &job.Description, &job.SalaryText, &job.Status, &job.Raw, &job.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, autoerr.Store("find job", err)
	}
	return &job, nil
}

// InsertJob persists a freshly scraped job. The (platform, url) conflict
// path refreshes mutable listing fields without touching status.
func (r *Repository) InsertJob(ctx context.Context, job *models.JobPosting) (*models.JobPosting, error) {
	query := `
		INSERT INTO jobs (platform, external_id, url, title, company, location, description, salary_text, status, raw)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (platform, url)
		DO UPDATE SET title = EXCLUDED.title, company = EXCLUDED.company, description = EXCLUDED.description, salary_text = EXCLUDED.salary_text, raw = EXCLUDED.raw
		RETURNING ` + jobColumns

	err := r.db.QueryRow(ctx, query, job.Platform, job.ExternalID, job.URL, job.Title, job.Company, job.Location, job.Description, job.SalaryText, job.Status, job.Raw).
		Scan(&job.ID, &job.Platform, &job.ExternalID, &job.URL, &job.Title, &job.Company, &job.Location, &job.Description, &job.SalaryText, &job.Status, &job.Raw, &job.CreatedAt)
	if err != nil {
		return nil, autoerr.Store("insert job", err)
	}
	return job, nil
}

// UpdateJobStatus changes the application-status field owned by the
// orchestrator. details lands in status_details for post-mortems.
func (r *Repository) UpdateJobStatus(ctx context.Context, jobID string, status models.JobStatus, details string) error {
	_, err := r.db.Exec(ctx, "UPDATE jobs SET status = $1, status_details = $2 WHERE id = $3", status, details, jobID)
	if err != nil {
		return autoerr.Store("update job status", err)
	}
	return nil
}

// InsertApplicationRecord appends one finished attempt. Attempts are
// append-only; retries create new rows.
func (r *Repository) InsertApplicationRecord(ctx context.Context, attempt *models.ApplicationAttempt) error {
	query := `
		INSERT INTO applications (id, job_id, platform, status, screenshot_path, error_message, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query, attempt.ID, attempt.JobID, attempt.Platform, attempt.Status, attempt.ScreenshotPath, attempt.ErrorMessage, attempt.StartedAt, attempt.FinishedAt)
	if err != nil {
		return autoerr.Store("insert application", err)
	}
	return nil
}

// QueryJobsByFilter pages through stored jobs for batch application runs.
func (r *Repository) QueryJobsByFilter(ctx context.Context, filter models.JobFilter) ([]models.JobPosting, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE 1=1`
	args := []any{}
	idx := 1

	if filter.Platform != "" {
		query += fmt.Sprintf(" AND platform = $%d", idx)
		args = append(args, filter.Platform)
		idx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, filter.Status)
		idx++
	}
	if filter.From != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", idx)
		args = append(args, *filter.From)
		idx++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", idx)
		args = append(args, *filter.To)
		idx++
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, autoerr.Store("query jobs", err)
	}
	defer rows.Close()

	var jobs []models.JobPosting
	for rows.Next() {
		var job models.JobPosting
		if err := rows.Scan(&job.ID, &job.Platform, &job.ExternalID, &job.URL, &job.Title, &job.Company, &job.Location, &job.Description, &job.SalaryText, &job.Status, &job.Raw, &job.CreatedAt); err != nil {
			return nil, autoerr.Store("scan job", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

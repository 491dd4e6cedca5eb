package models

import (
	"time"
)

type JobStatus string

const (
	JobStatusNew        JobStatus = "new"
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusApplied    JobStatus = "applied"
	JobStatusFailed     JobStatus = "failed"
)

// JobPosting is one scraped job. Immutable once persisted except for Status,
// which is owned by the application orchestrator.
type JobPosting struct {
	ID          string            `json:"id"`
	Platform    string            `json:"platform"`
	ExternalID  string            `json:"external_id"`
	URL         string            `json:"url"`
	Title       string            `json:"title"`
	Company     string            `json:"company"`
	Location    string            `json:"location"`
	Description string            `json:"description"`
	SalaryText  string            `json:"salary_text,omitempty"`
	Raw         map[string]string `json:"raw,omitempty"`
	Status      JobStatus         `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

// ApplicationAttempt records one apply invocation. Retries create new
// attempts, they never mutate prior ones.
type ApplicationAttempt struct {
	ID             string    `json:"id"`
	JobID          string    `json:"job_id"`
	Platform       string    `json:"platform"`
	Status         JobStatus `json:"status"`
	ScreenshotPath string    `json:"screenshot_path,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

// SearchCriteria drives search-URL generation and scraping limits.
type SearchCriteria struct {
	Keywords  string `json:"keywords"`
	Country   string `json:"country,omitempty"`
	JobType   string `json:"job_type,omitempty"`  // e.g. "remote"
	Seniority string `json:"seniority,omitempty"` // e.g. "entry", "mid", "senior"
	Quantity  int    `json:"quantity,omitempty"`
}

// ApplicationPayload carries the user-supplied answers used when filling
// multi-step application forms.
type ApplicationPayload struct {
	CoverLetter string            `json:"cover_letter,omitempty"`
	Phone       string            `json:"phone,omitempty"`
	ResumePath  string            `json:"resume_path,omitempty"`
	Answers     map[string]string `json:"answers,omitempty"`
}

type ScrapeResult struct {
	Platform     string        `json:"platform"`
	Total        int           `json:"total"`
	NewJobs      int           `json:"new_jobs"`
	Duplicates   int           `json:"duplicates"`
	SampleTitles []string      `json:"sample_titles,omitempty"`
	Elapsed      time.Duration `json:"elapsed"`
}

type ApplicationResult struct {
	JobID          string        `json:"job_id"`
	Platform       string        `json:"platform"`
	Status         JobStatus     `json:"status"`
	ScreenshotPath string        `json:"screenshot_path,omitempty"`
	Error          string        `json:"error,omitempty"`
	Elapsed        time.Duration `json:"elapsed"`
}

type BatchResult struct {
	Total   int                 `json:"total"`
	Applied int                 `json:"applied"`
	Failed  int                 `json:"failed"`
	Results []ApplicationResult `json:"results"`
}

// ProbeResult is the outcome of a platform health probe: login check plus a
// screenshot, no submission.
type ProbeResult struct {
	Platform       string `json:"platform"`
	LoggedIn       bool   `json:"logged_in"`
	ScreenshotPath string `json:"screenshot_path,omitempty"`
	Error          string `json:"error,omitempty"`
}

// JobFilter selects jobs from the store for batch application.
type JobFilter struct {
	Platform string     `json:"platform,omitempty"`
	Status   JobStatus  `json:"status,omitempty"`
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
	Page     int        `json:"page,omitempty"`
	Limit    int        `json:"limit,omitempty"`
}

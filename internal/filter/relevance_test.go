package filter

import (
	"testing"

	"github.com/Eli-the-creator/api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	entryRemote := models.SearchCriteria{Keywords: "golang backend", Seniority: "entry", JobType: "remote"}

	tests := []struct {
		name     string
		job      models.JobPosting
		criteria models.SearchCriteria
		expected int
	}{
		{
			name: "strong match",
			job: models.JobPosting{
				Title:       "Junior Golang Backend Developer",
				Description: "Fully remote, entry-level friendly",
			},
			criteria: entryRemote,
			expected: 8,
		},
		{
			name: "senior penalty outweighs keyword hit",
			job: models.JobPosting{
				Title:       "Senior Golang Architect",
				Description: "10 years experience required",
			},
			criteria: entryRemote,
			expected: 0,
		},
		{
			name: "keyword only in description",
			job: models.JobPosting{
				Title:       "Software Engineer",
				Description: "We use golang for our backend services",
			},
			criteria: models.SearchCriteria{Keywords: "golang"},
			expected: 1,
		},
		{
			name:     "no signal",
			job:      models.JobPosting{Title: "Accountant", Description: "Ledger work"},
			criteria: entryRemote,
			expected: 0,
		},
		{
			name: "remote detected from location",
			job: models.JobPosting{
				Title:    "Backend Engineer",
				Location: "Remote, United States",
			},
			criteria: models.SearchCriteria{Keywords: "backend", JobType: "remote"},
			expected: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Score(tt.job, tt.criteria))
		})
	}
}

func TestRankByScore(t *testing.T) {
	criteria := models.SearchCriteria{Keywords: "golang"}
	jobs := []models.JobPosting{
		{URL: "a", Title: "Accountant"},
		{URL: "b", Title: "Golang Developer"},
		{URL: "c", Title: "Data Entry Clerk"},
	}

	RankByScore(jobs, criteria)

	assert.Equal(t, "b", jobs[0].URL)
	assert.Equal(t, "a", jobs[1].URL, "ties keep their original order")
	assert.Equal(t, "c", jobs[2].URL)
}

func TestRankByScore_StableOnUniformScores(t *testing.T) {
	criteria := models.SearchCriteria{Keywords: "golang"}
	jobs := []models.JobPosting{
		{URL: "1", Title: "Backend Engineer 1"},
		{URL: "2", Title: "Backend Engineer 2"},
		{URL: "3", Title: "Backend Engineer 3"},
	}

	RankByScore(jobs, criteria)

	assert.Equal(t, []string{"1", "2", "3"}, []string{jobs[0].URL, jobs[1].URL, jobs[2].URL})
}

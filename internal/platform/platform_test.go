package platform

import (
	"testing"

	"github.com/Eli-the-creator/api/internal/autoerr"
	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://www.linkedin.com/jobs/view/4012345678", "linkedin"},
		{"https://www.indeed.com/viewjob?jk=abc123", "indeed"},
		{"https://uk.indeed.com/viewjob?jk=abc123", "indeed"},
		{"https://www.glassdoor.com/job-listing/backend-engineer-JV_IC1147401.htm", "glassdoor"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := Detect(tt.url)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDetect_UnknownHost(t *testing.T) {
	_, err := Detect("https://jobs.example.com/view/1")
	assert.ErrorIs(t, err, autoerr.ErrUnknownPlatform)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("linkedin")
	assert.ErrorIs(t, err, autoerr.ErrUnknownPlatform)
}

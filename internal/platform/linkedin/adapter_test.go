package linkedin

import (
	"net/url"
	"testing"

	"github.com/Eli-the-creator/api/internal/models"
	"github.com/Eli-the-creator/api/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchURL(t *testing.T) {
	a := New(platform.NewDOM(5000, 30000), 12)

	raw := a.SearchURL(models.SearchCriteria{
		Keywords:  "backend engineer",
		Country:   "uk",
		JobType:   "remote",
		Seniority: "entry",
	})

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()

	assert.Equal(t, "www.linkedin.com", u.Host)
	assert.Equal(t, "backend engineer", q.Get("keywords"))
	assert.Equal(t, "United Kingdom", q.Get("location"))
	assert.Equal(t, "2", q.Get("f_WT"))
	assert.Equal(t, "1,2", q.Get("f_E"))
	assert.Equal(t, "true", q.Get("f_AL"))
}

func TestSearchURL_Fallbacks(t *testing.T) {
	a := New(platform.NewDOM(5000, 30000), 12)

	//unsupported country and seniority fall back to platform defaults
	raw := a.SearchURL(models.SearchCriteria{
		Keywords:  "golang",
		Country:   "atlantis",
		Seniority: "wizard",
	})

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()

	assert.Equal(t, "United States", q.Get("location"))
	assert.Empty(t, q.Get("f_E"))
	assert.Empty(t, q.Get("f_WT"))
}

func TestExternalIDFromURL(t *testing.T) {
	assert.Equal(t, "4012345678", externalIDFromURL("https://www.linkedin.com/jobs/view/4012345678/"))
	assert.Equal(t, "4012345678", externalIDFromURL("https://www.linkedin.com/jobs/view/4012345678"))
}

package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeenCache_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	cache := NewSeenCache(dir)
	assert.False(t, cache.IsSeen("indeed", "https://www.indeed.com/viewjob?jk=a"))

	cache.Add("indeed", []string{"https://www.indeed.com/viewjob?jk=a"})
	assert.True(t, cache.IsSeen("indeed", "https://www.indeed.com/viewjob?jk=a"))

	//same url under a different platform is a different key
	assert.False(t, cache.IsSeen("linkedin", "https://www.indeed.com/viewjob?jk=a"))

	//survives a reload from disk
	reloaded := NewSeenCache(dir)
	assert.True(t, reloaded.IsSeen("indeed", "https://www.indeed.com/viewjob?jk=a"))
}

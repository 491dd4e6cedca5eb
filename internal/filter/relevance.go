package filter

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Eli-the-creator/api/internal/models"
)

var (
	seniorRegex = regexp.MustCompile(`(?i)\b(senior|lead|manager|principal|staff|architect)\b`)
	juniorRegex = regexp.MustCompile(`(?i)\b(intern|junior|entry[\s-]?level|graduate|trainee)\b`)
	remoteRegex = regexp.MustCompile(`(?i)\b(remote|work\s+from\s+home|wfh|fully\s+distributed)\b`)
)

// Score rates how well a posting matches the search criteria, 0 to 10.
// Listings with a higher score are surfaced first in scrape summaries.
func Score(job models.JobPosting, criteria models.SearchCriteria) int {
	score := 0
	title := strings.ToLower(job.Title)
	text := title + " " + strings.ToLower(job.Description)

	//keyword hits: title matches count double
	for _, kw := range strings.Fields(strings.ToLower(criteria.Keywords)) {
		if strings.Contains(title, kw) {
			score += 2
		} else if strings.Contains(text, kw) {
			score += 1
		}
	}

	//seniority alignment
	switch criteria.Seniority {
	case "entry":
		if juniorRegex.MatchString(text) {
			score += 2
		}
		if seniorRegex.MatchString(title) {
			score -= 5
		}
	case "senior":
		if seniorRegex.MatchString(text) {
			score += 2
		}
	}

	//work-type alignment
	if criteria.JobType == "remote" && remoteRegex.MatchString(text+" "+strings.ToLower(job.Location)) {
		score += 2
	}

	//score normalizing
	if score > 10 {
		return 10
	}
	if score < 0 {
		return 0
	}
	return score
}

// RankByScore orders jobs best-match first. The sort is stable so equally
// scored listings keep the order the platform returned them in.
func RankByScore(jobs []models.JobPosting, criteria models.SearchCriteria) {
	type scored struct {
		job   models.JobPosting
		score int
	}
	ranked := make([]scored, len(jobs))
	for i, job := range jobs {
		ranked[i] = scored{job: job, score: Score(job, criteria)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	for i := range ranked {
		jobs[i] = ranked[i].job
	}
}

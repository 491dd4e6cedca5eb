package screenshot

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Capturer writes audit screenshots with deterministic names:
// <platform>_<outcome>_<jobID>_<timestamp>.png
type Capturer struct {
	outputDir string
}

func NewCapturer(outputDir string) *Capturer {
	os.MkdirAll(outputDir, 0755)
	return &Capturer{outputDir: outputDir}
}

// Capture takes a full-page screenshot and returns its path. Best effort:
// audit evidence is useful but never blocks the flow that requested it.
func (c *Capturer) Capture(page playwright.Page, platform, outcome, jobID string) string {
	if page == nil {
		return ""
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("%s_%s_%s_%s.png", platform, outcome, jobID, timestamp)
	path := filepath.Join(c.outputDir, filename)

	_, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		log.Printf("⚠️ Failed to capture screenshot: %v", err)
		return ""
	}

	log.Printf("📸 Screenshot saved: %s", path)
	return path
}

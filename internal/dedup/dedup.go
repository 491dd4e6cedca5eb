package dedup

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type seenEntry struct {
	Key       string `json:"key"`
	Timestamp int64  `json:"timestamp"`
}

// SeenCache is a local persisted record of (platform, url) pairs already
// processed. It cuts backend round-trips during dedup; the store stays the
// source of truth.
type SeenCache struct {
	mu       sync.Mutex
	filePath string
	seen     map[string]int64
}

const thirtyDaysMs = int64(30 * 24 * 60 * 60 * 1000)

// NewSeenCache creates or loads a seen cache under cacheDir.
func NewSeenCache(cacheDir string) *SeenCache {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.Printf("⚠️ Failed to create cache directory: %v", err)
	}
	cache := &SeenCache{
		filePath: filepath.Join(cacheDir, "seen_jobs.json"),
		seen:     make(map[string]int64),
	}
	cache.load()
	return cache
}

func key(platform, url string) string {
	return platform + "|" + url
}

// IsSeen checks if a (platform, url) pair has already been processed.
func (sc *SeenCache) IsSeen(platform, url string) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	_, exists := sc.seen[key(platform, url)]
	return exists
}

// Add marks pairs as seen and persists the cache when anything changed.
func (sc *SeenCache) Add(platform string, urls []string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	now := time.Now().UnixMilli()
	changed := false
	for _, url := range urls {
		k := key(platform, url)
		if _, exists := sc.seen[k]; !exists {
			sc.seen[k] = now
			changed = true
		}
	}

	if changed {
		sc.save()
	}
}

// load reads the cache from disk, dropping entries older than 30 days.
func (sc *SeenCache) load() {
	data, err := os.ReadFile(sc.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("⚠️ Failed to read seen_jobs.json: %v", err)
		}
		return
	}

	var entries []seenEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Printf("⚠️ Failed to parse seen_jobs.json: %v", err)
		return
	}

	cutoff := time.Now().UnixMilli() - thirtyDaysMs
	loaded := 0
	for _, e := range entries {
		if e.Timestamp > cutoff {
			sc.seen[e.Key] = e.Timestamp
			loaded++
		}
	}
	log.Printf("📋 Loaded %d previously seen jobs (%d expired and removed)", loaded, len(entries)-loaded)
}

// save writes the current cache to disk
func (sc *SeenCache) save() {
	entries := make([]seenEntry, 0, len(sc.seen))
	for k, ts := range sc.seen {
		entries = append(entries, seenEntry{Key: k, Timestamp: ts})
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		log.Printf("⚠️ Failed to marshal seen jobs: %v", err)
		return
	}
	if err := os.WriteFile(sc.filePath, data, 0644); err != nil {
		log.Printf("⚠️ Failed to write seen_jobs.json: %v", err)
	}
}

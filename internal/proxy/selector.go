package proxy

import (
	"math/rand"
	"net/url"
	"strings"
	"sync"

	"github.com/Eli-the-creator/api/internal/config"
)

// Selector picks an outbound proxy endpoint per automation session. A nil or
// disabled selector always reports no proxy; callers proceed without one.
type Selector struct {
	mu        sync.Mutex
	endpoints []string
	strategy  string
	cursor    int
}

func NewSelector(cfg config.ProxyConfig) *Selector {
	if !cfg.Enabled || len(cfg.Endpoints) == 0 {
		return &Selector{}
	}
	endpoints := make([]string, 0, len(cfg.Endpoints))
	for _, e := range cfg.Endpoints {
		if trimmed := strings.TrimSpace(e); trimmed != "" {
			endpoints = append(endpoints, trimmed)
		}
	}
	return &Selector{endpoints: endpoints, strategy: cfg.Strategy}
}

// Next returns the endpoint for the next session. ok is false when proxying
// is disabled or no endpoints are configured.
func (s *Selector) Next() (endpoint string, ok bool) {
	if s == nil || len(s.endpoints) == 0 {
		return "", false
	}

	if s.strategy == "random" {
		return s.endpoints[rand.Intn(len(s.endpoints))], true
	}

	//round robin
	s.mu.Lock()
	defer s.mu.Unlock()
	endpoint = s.endpoints[s.cursor%len(s.endpoints)]
	s.cursor++
	return endpoint, true
}

// Redact masks the credential segment of a proxy endpoint so it can be
// logged. Scheme, host and port are preserved.
func Redact(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.User == nil {
		return endpoint
	}
	u.User = url.UserPassword("***", "***")
	return u.String()
}

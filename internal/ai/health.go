package ai

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// healthGate caches the model server's availability. A failed call clears
// the flag immediately; the probe re-establishes it at most once per
// interval, so a dead upstream is short-circuited for up to 30 seconds.
type healthGate struct {
	mu        sync.Mutex
	available bool
	lastCheck time.Time
	interval  time.Duration
	probe     func(ctx context.Context) bool
}

func newHealthGate(interval time.Duration, probe func(ctx context.Context) bool) *healthGate {
	return &healthGate{
		available: true,
		interval:  interval,
		probe:     probe,
	}
}

func (g *healthGate) Available(ctx context.Context) bool {
	g.mu.Lock()
	if time.Since(g.lastCheck) < g.interval {
		available := g.available
		g.mu.Unlock()
		return available
	}
	g.lastCheck = time.Now()
	g.mu.Unlock()

	ok := g.probe(ctx)

	g.mu.Lock()
	g.available = ok
	g.mu.Unlock()
	return ok
}

func (g *healthGate) MarkDown() {
	g.mu.Lock()
	g.available = false
	g.mu.Unlock()
}

// probeTags checks GET /api/tags on the model server.
func probeTags(httpClient *http.Client, baseURL string, timeout time.Duration) func(ctx context.Context) bool {
	return func(ctx context.Context) bool {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/tags", nil)
		if err != nil {
			return false
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			log.Warn().Err(err).Msg("model server health check failed")
			return false
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return false
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return false
		}
		return strings.Contains(string(body), "models")
	}
}

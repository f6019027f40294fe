package ai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/Shivam-2310/ShortAI/internal/annotation"
	"github.com/Shivam-2310/ShortAI/internal/metrics"
	"github.com/Shivam-2310/ShortAI/internal/models"
)

// Client drives the local Ollama instance. Every public operation degrades
// to a neutral result instead of failing: the creation path must never be
// blocked by an unavailable model.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	store      *annotation.Store
	health     *healthGate
	breaker    *gobreaker.CircuitBreaker

	genTimeout   time.Duration
	retryBackoff time.Duration
}

const (
	defaultGenTimeout   = 45 * time.Second
	defaultProbeTimeout = 5 * time.Second
	healthInterval      = 30 * time.Second
	maxRetries          = 2
)

func NewClient(baseURL, model string, store *annotation.Store) *Client {
	httpClient := &http.Client{}
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		model:        model,
		httpClient:   httpClient,
		store:        store,
		genTimeout:   defaultGenTimeout,
		retryBackoff: time.Second,
	}
	c.health = newHealthGate(healthInterval, probeTags(httpClient, c.baseURL, defaultProbeTimeout))
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "ollama",
		Timeout: 45 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit state change")
		},
	})
	return c
}

// Available reports whether the model server responded to a recent probe.
func (c *Client) Available(ctx context.Context) bool {
	return c.health.Available(ctx)
}

// Analyze produces an annotation for the URL. Cache hits are returned as-is
// with FromCache set; everything else runs the full prompt → parse →
// sanitize → persist pipeline.
func (c *Client) Analyze(ctx context.Context, url, title, description string) *Result {
	urlHash := hashURL(url)

	if cached, ok := c.store.Get(urlHash); ok {
		log.Debug().Str("url", url).Msg("annotation cache hit")
		metrics.AIAnalyses.WithLabelValues("cached").Inc()
		return annotationToResult(cached, true)
	}

	if !c.health.Available(ctx) {
		log.Warn().Str("url", url).Msg("model server unavailable, returning neutral analysis")
		metrics.AIAnalyses.WithLabelValues("fallback").Inc()
		return neutralResult()
	}

	prompt := analysisPrompt(url, title, description)

	raw, err := c.generateGuarded(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("analysis failed, returning neutral")
		metrics.AIAnalyses.WithLabelValues("fallback").Inc()
		return neutralResult()
	}

	parsed := parseResult(raw)
	if parsed == nil {
		log.Warn().Str("url", url).Msg("empty model response")
		metrics.AIAnalyses.WithLabelValues("fallback").Inc()
		return neutralResult()
	}
	result := sanitizeResult(parsed)

	now := time.Now().UTC()
	if err := c.store.Put(resultToAnnotation(urlHash, url, result, now, c.store.TTL())); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("annotation cache write failed")
	}

	metrics.AIAnalyses.WithLabelValues("fresh").Inc()
	return result
}

// SuggestAliases asks for short memorable aliases. Failures return an empty
// list.
func (c *Client) SuggestAliases(ctx context.Context, url, title string) []string {
	if !c.health.Available(ctx) {
		return []string{}
	}

	raw, err := c.generateGuarded(ctx, aliasPrompt(url, title))
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("alias suggestion failed")
		return []string{}
	}
	return parseAliasLines(raw)
}

// CheckSafety runs the safety-only prompt. Failures return the midpoint
// score with an explanatory reason.
func (c *Client) CheckSafety(ctx context.Context, url string) *Result {
	if !c.health.Available(ctx) {
		return neutralSafety()
	}

	raw, err := c.generateGuarded(ctx, safetyPrompt(url))
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("safety check failed")
		return neutralSafety()
	}

	parsed := parseResult(raw)
	if parsed == nil {
		return neutralSafety()
	}
	return &Result{
		SafetyScore:   clampScore(parsed.SafetyScore),
		IsSafe:        parsed.IsSafe,
		SafetyReasons: sanitizeList(parsed.SafetyReasons, 5),
	}
}

func (c *Client) generateGuarded(ctx context.Context, prompt string) (string, error) {
	out, err := c.breaker.Execute(func() (any, error) {
		return c.generate(ctx, prompt)
	})
	if err != nil {
		c.health.MarkDown()
		return "", err
	}
	return out.(string), nil
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	NumPredict  int     `json:"num_predict"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// generate issues one completion request, retrying timeouts with a short
// backoff.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: 0,
			TopP:        0.9,
			NumPredict:  1000,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.retryBackoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		resp, err := c.generateOnce(ctx, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isTimeout(err) {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt+1).Msg("model call timed out, retrying")
	}
	return "", lastErr
}

func (c *Client) generateOnce(ctx context.Context, body []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.genTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call model server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model server status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode model response: %w", err)
	}
	return out.Response, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func hashURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// parseAliasLines handles the line-oriented alias prompt output.
func parseAliasLines(raw string) []string {
	var aliases []string
	for _, line := range strings.Split(raw, "\n") {
		slug := slugify(line)
		if len(slug) >= 3 && len(slug) <= 15 {
			aliases = append(aliases, slug)
		}
		if len(aliases) == 5 {
			break
		}
	}
	if aliases == nil {
		return []string{}
	}
	return aliases
}

func annotationToResult(a *models.Annotation, fromCache bool) *Result {
	return &Result{
		Summary:       a.Summary,
		Category:      a.Category,
		Tags:          splitList(a.Tags),
		SafetyScore:   a.SafetyScore,
		IsSafe:        a.IsSafe,
		SafetyReasons: splitList(a.SafetyReasons),
		FromCache:     fromCache,
	}
}

func resultToAnnotation(urlHash, url string, r *Result, now time.Time, ttl time.Duration) *models.Annotation {
	return &models.Annotation{
		URLHash:       urlHash,
		OriginalURL:   url,
		Summary:       r.Summary,
		Category:      r.Category,
		Tags:          strings.Join(r.Tags, ","),
		SafetyScore:   r.SafetyScore,
		IsSafe:        r.IsSafe,
		SafetyReasons: strings.Join(r.SafetyReasons, ","),
		AnalyzedAt:    now,
		ExpiresAt:     now.Add(ttl),
	}
}

func splitList(joined string) []string {
	if joined == "" {
		return []string{}
	}
	return strings.Split(joined, ",")
}

package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Shivam-2310/ShortAI/internal/annotation"
	"github.com/Shivam-2310/ShortAI/internal/db"
)

// fakeOllama serves /api/tags and /api/generate with a canned completion.
func fakeOllama(t *testing.T, response string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.Write([]byte(`{"models":[{"name":"llama3.2:1b"}]}`))
		case "/api/generate":
			var req generateRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("bad generate request: %v", err)
			}
			if req.Stream {
				t.Error("stream = true, want false")
			}
			if req.Options.Temperature != 0 {
				t.Errorf("temperature = %v, want 0", req.Options.Temperature)
			}
			json.NewEncoder(w).Encode(generateResponse{Response: response, Done: true})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	database, err := db.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })
	store := annotation.NewStore(database, 7*24*time.Hour)
	c := NewClient(baseURL, "llama3.2:1b", store)
	c.genTimeout = 2 * time.Second
	c.retryBackoff = 10 * time.Millisecond
	return c
}

const goodCompletion = `{"summary": "A code hosting platform for software projects.", "category": "Technology",
	"tags": ["git", "code", "hosting"], "safetyScore": 0.97, "isSafe": true,
	"safetyReasons": [], "aliasSuggestions": ["Code Hub", "git-home"]}`

func TestAnalyze_FreshThenCached(t *testing.T) {
	srv := fakeOllama(t, goodCompletion)
	c := testClient(t, srv.URL)
	ctx := context.Background()

	first := c.Analyze(ctx, "https://github.com", "GitHub", "Where software is built")
	if first.FromCache {
		t.Error("first analysis reported FromCache")
	}
	if first.Category != "Technology" {
		t.Errorf("Category = %q", first.Category)
	}
	if first.Summary != "A code hosting platform for software projects." {
		t.Errorf("Summary = %q", first.Summary)
	}
	if len(first.Tags) != 3 {
		t.Errorf("Tags = %v", first.Tags)
	}

	second := c.Analyze(ctx, "https://github.com", "GitHub", "Where software is built")
	if !second.FromCache {
		t.Error("second analysis not served from cache")
	}
	if second.Summary != first.Summary || second.Category != first.Category {
		t.Errorf("cached content differs: %+v vs %+v", second, first)
	}
}

func TestAnalyze_SanitizesAliasSuggestions(t *testing.T) {
	srv := fakeOllama(t, goodCompletion)
	c := testClient(t, srv.URL)

	r := c.Analyze(context.Background(), "https://github.com", "", "")
	for _, alias := range r.AliasSuggestions {
		if alias != slugify(alias) {
			t.Errorf("alias %q not slugified", alias)
		}
	}
}

func TestAnalyze_ServerDownReturnsNeutral(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	c := testClient(t, addr)
	r := c.Analyze(context.Background(), "https://example.com", "", "")
	if r.FromCache {
		t.Error("fallback reported FromCache")
	}
	if r.Category != "Other" || r.SafetyScore != 0.8 || !r.IsSafe {
		t.Errorf("fallback = %+v, want neutral default", r)
	}
}

func TestAnalyze_MalformedCompletionStillStructured(t *testing.T) {
	srv := fakeOllama(t, "```json\n{\"summary\": \"A discussion forum for many topics.\", \"category\": \"social networking\", \"tags\": [\"forum\"")
	c := testClient(t, srv.URL)

	r := c.Analyze(context.Background(), "https://forum.test", "", "")
	if r.Category != "Social" {
		t.Errorf("Category = %q, want fuzzy-mapped Social", r.Category)
	}
	if r.Summary == "" {
		t.Error("Summary empty after repair")
	}
}

func TestAnalyze_GarbageCompletionFallsBack(t *testing.T) {
	srv := fakeOllama(t, "I am sorry, I cannot help with that.")
	c := testClient(t, srv.URL)

	r := c.Analyze(context.Background(), "https://example.com", "", "")
	// Regex fallback finds nothing; sanitization yields a well-typed result
	if r.Category != "Other" {
		t.Errorf("Category = %q, want Other", r.Category)
	}
	if r.SafetyScore < 0 || r.SafetyScore > 1 {
		t.Errorf("SafetyScore = %v out of range", r.SafetyScore)
	}
}

func TestSuggestAliases(t *testing.T) {
	srv := fakeOllama(t, "Daily News\nnews-today\nab\nthis-alias-is-way-too-long-to-keep\nheadlines")
	c := testClient(t, srv.URL)

	aliases := c.SuggestAliases(context.Background(), "https://news.test", "Daily News")
	want := map[string]bool{"daily-news": true, "news-today": true, "headlines": true}
	if len(aliases) != 3 {
		t.Fatalf("aliases = %v, want 3", aliases)
	}
	for _, a := range aliases {
		if !want[a] {
			t.Errorf("unexpected alias %q", a)
		}
	}
}

func TestSuggestAliases_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	c := testClient(t, addr)
	if aliases := c.SuggestAliases(context.Background(), "https://x.test", ""); len(aliases) != 0 {
		t.Errorf("aliases = %v, want empty", aliases)
	}
}

func TestCheckSafety(t *testing.T) {
	srv := fakeOllama(t, `{"safetyScore": 0.2, "isSafe": false, "safetyReasons": ["suspicious domain", "phishing pattern"]}`)
	c := testClient(t, srv.URL)

	r := c.CheckSafety(context.Background(), "https://suspicious.test")
	if r.IsSafe {
		t.Error("IsSafe = true")
	}
	if r.SafetyScore != 0.2 {
		t.Errorf("SafetyScore = %v", r.SafetyScore)
	}
	if len(r.SafetyReasons) != 2 {
		t.Errorf("SafetyReasons = %v", r.SafetyReasons)
	}
}

func TestCheckSafety_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	c := testClient(t, addr)
	r := c.CheckSafety(context.Background(), "https://x.test")
	if r.SafetyScore != 0.5 || !r.IsSafe {
		t.Errorf("fallback = %+v, want midpoint neutral", r)
	}
}

func TestHealthGate_CachesResultWithinInterval(t *testing.T) {
	probes := 0
	gate := newHealthGate(30*time.Second, func(ctx context.Context) bool {
		probes++
		return true
	})

	for i := 0; i < 5; i++ {
		if !gate.Available(context.Background()) {
			t.Fatal("gate reported unavailable")
		}
	}
	if probes != 1 {
		t.Errorf("probes = %d, want 1 within the interval", probes)
	}
}

func TestHealthGate_MarkDownShortCircuits(t *testing.T) {
	gate := newHealthGate(30*time.Second, func(ctx context.Context) bool { return true })

	if !gate.Available(context.Background()) {
		t.Fatal("initial probe failed")
	}
	gate.MarkDown()
	if gate.Available(context.Background()) {
		t.Error("gate available right after MarkDown; 30s decay expected")
	}
}

func TestHashURL_Stable(t *testing.T) {
	a := hashURL("https://example.com")
	b := hashURL("https://example.com")
	if a != b {
		t.Error("hash not deterministic")
	}
	if len(a) != 64 {
		t.Errorf("len = %d, want 64 hex chars", len(a))
	}
	if a == hashURL("https://example.org") {
		t.Error("distinct URLs share a hash")
	}
}

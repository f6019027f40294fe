package metadata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
<title>Fallback Title</title>
<meta property="og:title" content="OG Title">
<meta property="og:description" content="OG description text">
<meta property="og:image" content="/img/cover.png">
<meta property="og:site_name" content="Example Site">
<meta property="og:type" content="article">
<meta name="author" content="Jane Roe">
<meta name="keywords" content="go,urls">
<link rel="icon" href="/static/fav.ico">
<link rel="canonical" href="https://example.com/canonical">
<style>body { color: red }</style>
<script>var ignored = true;</script>
</head>
<body><p>Visible body text here.</p></body>
</html>`

func testFetcher(t *testing.T, handler http.HandlerFunc) (*Fetcher, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewFetcher(2*time.Second, 1<<20), srv
}

func TestFetch_ExtractsOpenGraph(t *testing.T) {
	f, srv := testFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, samplePage)
	})

	m := f.Fetch(context.Background(), srv.URL)
	if m.Title != "OG Title" {
		t.Errorf("Title = %q, want OG Title", m.Title)
	}
	if m.Description != "OG description text" {
		t.Errorf("Description = %q", m.Description)
	}
	if m.ImageURL != srv.URL+"/img/cover.png" {
		t.Errorf("ImageURL = %q, relative reference not resolved", m.ImageURL)
	}
	if m.FaviconURL != srv.URL+"/static/fav.ico" {
		t.Errorf("FaviconURL = %q", m.FaviconURL)
	}
	if m.SiteName != "Example Site" || m.Type != "article" {
		t.Errorf("SiteName = %q, Type = %q", m.SiteName, m.Type)
	}
	if m.Author != "Jane Roe" || m.Keywords != "go,urls" {
		t.Errorf("Author = %q, Keywords = %q", m.Author, m.Keywords)
	}
	if m.CanonicalURL != "https://example.com/canonical" {
		t.Errorf("CanonicalURL = %q", m.CanonicalURL)
	}
	if !strings.Contains(m.TextContent, "Visible body text here.") {
		t.Errorf("TextContent = %q, missing body text", m.TextContent)
	}
	if strings.Contains(m.TextContent, "ignored") || strings.Contains(m.TextContent, "color: red") {
		t.Errorf("TextContent leaked script/style content: %q", m.TextContent)
	}
}

func TestFetch_TitleFallback(t *testing.T) {
	f, srv := testFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Only Title</title></head><body></body></html>`)
	})

	m := f.Fetch(context.Background(), srv.URL)
	if m.Title != "Only Title" {
		t.Errorf("Title = %q, want Only Title", m.Title)
	}
	if m.FaviconURL != srv.URL+"/favicon.ico" {
		t.Errorf("FaviconURL = %q, want default /favicon.ico", m.FaviconURL)
	}
}

func TestFetch_TextContentCap(t *testing.T) {
	f, srv := testFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body>%s</body></html>`, strings.Repeat("word ", 3000))
	})

	m := f.Fetch(context.Background(), srv.URL)
	if len(m.TextContent) > 5000 {
		t.Errorf("TextContent length = %d, want <= 5000", len(m.TextContent))
	}
}

func TestFetch_ErrorYieldsURLOnly(t *testing.T) {
	f, srv := testFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	m := f.Fetch(context.Background(), srv.URL)
	if m.URL != srv.URL {
		t.Errorf("URL = %q", m.URL)
	}
	if m.Title != "" || m.Description != "" {
		t.Errorf("expected empty metadata, got %+v", m)
	}
}

func TestFetch_BreakerOpensOnRepeatedFailures(t *testing.T) {
	var hits int
	f, srv := testFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 10; i++ {
		f.Fetch(context.Background(), srv.URL)
	}
	if hits >= 10 {
		t.Errorf("breaker never opened: %d upstream hits for 10 fetches", hits)
	}
}

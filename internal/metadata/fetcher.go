package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/net/html"
)

const (
	fetchUserAgent = "Mozilla/5.0 (compatible; ShortAIBot/2.0)"
	maxTextContent = 5000
)

// Metadata is everything extractable from a page. Every field except URL is
// optional; a failed fetch yields the URL alone.
type Metadata struct {
	URL          string `json:"url"`
	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
	ImageURL     string `json:"imageUrl,omitempty"`
	FaviconURL   string `json:"faviconUrl,omitempty"`
	SiteName     string `json:"siteName,omitempty"`
	Type         string `json:"type,omitempty"`
	Author       string `json:"author,omitempty"`
	Keywords     string `json:"keywords,omitempty"`
	CanonicalURL string `json:"canonicalUrl,omitempty"`
	TextContent  string `json:"-"`
}

type Fetcher struct {
	httpClient *http.Client
	maxBytes   int64
	breaker    *gobreaker.CircuitBreaker
}

func NewFetcher(timeout time.Duration, maxBytes int64) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   maxBytes,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "metadata",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit state change")
			},
		}),
	}
}

// Fetch downloads and parses the page. It never returns an error to callers:
// any failure, including an open breaker, degrades to URL-only metadata.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) *Metadata {
	result, err := f.breaker.Execute(func() (any, error) {
		return f.fetch(ctx, pageURL)
	})
	if err != nil {
		log.Warn().Err(err).Str("url", pageURL).Msg("metadata fetch failed")
		return &Metadata{URL: pageURL}
	}
	return result.(*Metadata)
}

func (f *Fetcher) fetch(ctx context.Context, pageURL string) (*Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	return extract(doc, pageURL), nil
}

type pageData struct {
	meta     map[string]string // property/name → content, first occurrence wins
	title    string
	favicon  string
	canon    string
	textBuf  strings.Builder
	skipText int
}

func extract(doc *html.Node, pageURL string) *Metadata {
	data := &pageData{meta: make(map[string]string)}
	walk(doc, data)

	m := &Metadata{URL: pageURL}

	m.Title = firstOf(data.meta, "og:title", "twitter:title")
	if m.Title == "" {
		m.Title = strings.TrimSpace(data.title)
	}

	m.Description = firstOf(data.meta, "og:description", "twitter:description", "description")

	if img := firstOf(data.meta, "og:image", "twitter:image"); img != "" {
		m.ImageURL = resolveRef(pageURL, img)
	}

	if data.favicon != "" {
		m.FaviconURL = resolveRef(pageURL, data.favicon)
	} else {
		m.FaviconURL = defaultFavicon(pageURL)
	}

	m.SiteName = data.meta["og:site_name"]
	m.Type = data.meta["og:type"]
	m.Author = data.meta["author"]
	m.Keywords = data.meta["keywords"]
	m.CanonicalURL = data.canon

	text := strings.Join(strings.Fields(data.textBuf.String()), " ")
	if len(text) > maxTextContent {
		text = text[:maxTextContent]
	}
	m.TextContent = text

	return m
}

var faviconRels = map[string]bool{
	"icon":                         true,
	"shortcut icon":                true,
	"apple-touch-icon":             true,
	"apple-touch-icon-precomposed": true,
}

func walk(n *html.Node, data *pageData) {
	switch n.Type {
	case html.ElementNode:
		switch n.Data {
		case "meta":
			key := attr(n, "property")
			if key == "" {
				key = attr(n, "name")
			}
			if key != "" {
				if content := attr(n, "content"); content != "" {
					if _, seen := data.meta[key]; !seen {
						data.meta[key] = content
					}
				}
			}
		case "title":
			if data.title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				data.title = n.FirstChild.Data
			}
		case "link":
			rel := strings.ToLower(attr(n, "rel"))
			if faviconRels[rel] && data.favicon == "" {
				data.favicon = attr(n, "href")
			}
			if rel == "canonical" && data.canon == "" {
				data.canon = attr(n, "href")
			}
		case "script", "style", "noscript":
			data.skipText++
			defer func() { data.skipText-- }()
		}
	case html.TextNode:
		if data.skipText == 0 && data.textBuf.Len() < maxTextContent*2 {
			data.textBuf.WriteString(n.Data)
			data.textBuf.WriteByte(' ')
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, data)
	}
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

func firstOf(meta map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(meta[k]); v != "" {
			return v
		}
	}
	return ""
}

// resolveRef turns a possibly relative reference into an absolute URL against
// the fetched page.
func resolveRef(baseURL, ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(refURL).String()
}

func defaultFavicon(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/favicon.ico"
}

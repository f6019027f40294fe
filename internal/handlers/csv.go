package handlers

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/Shivam-2310/ShortAI/internal/shortener"
)

const (
	csvMaxRows  = 100
	csvMaxBytes = 1 << 20
)

var (
	schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)
	domainRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9.-]*\.[a-zA-Z]{2,}`)
)

// parseCSV extracts URLs from an uploaded file: one URL per line, or CSV
// rows whose first column is the URL, with an optional url/originalUrl
// header.
func parseCSV(r io.Reader) ([]*shortener.CreateRequest, error) {
	scanner := bufio.NewScanner(io.LimitReader(r, csvMaxBytes))

	var requests []*shortener.CreateRequest
	lineNumber := 0
	for scanner.Scan() && len(requests) < csvMaxRows {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if lineNumber == 1 && looksLikeHeader(line) {
			continue
		}

		url := normalizeCSVURL(firstColumn(line))
		if url == "" {
			continue
		}

		off := false
		requests = append(requests, &shortener.CreateRequest{
			OriginalURL:      url,
			FetchMetadata:    &off,
			EnableAIAnalysis: &off,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	if len(requests) == 0 {
		return nil, fmt.Errorf("no valid URLs found in CSV file")
	}
	return requests, nil
}

func looksLikeHeader(line string) bool {
	lower := strings.ToLower(line)
	return strings.HasPrefix(lower, "url") || strings.HasPrefix(lower, "originalurl")
}

func firstColumn(line string) string {
	if idx := strings.Index(line, ","); idx >= 0 {
		line = line[:idx]
	}
	col := strings.TrimSpace(line)
	col = strings.Trim(col, `"'`)
	return col
}

// normalizeCSVURL supplies a scheme when the row looks like a bare domain.
// Rows that cannot be normalized are skipped entirely.
func normalizeCSVURL(raw string) string {
	if raw == "" {
		return ""
	}
	if schemeRe.MatchString(raw) {
		return raw
	}
	if strings.HasPrefix(raw, "//") {
		return "http:" + raw
	}
	if strings.Contains(raw, " ") {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "www.") || domainRe.MatchString(raw) {
		return "https://" + raw
	}
	return ""
}

package handlers

import (
	"strings"
	"testing"
)

func TestParseCSV_SimpleLines(t *testing.T) {
	in := "https://one.test\nhttps://two.test\n"
	reqs, err := parseCSV(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 2 {
		t.Fatalf("len = %d, want 2", len(reqs))
	}
	if reqs[0].OriginalURL != "https://one.test" {
		t.Errorf("first = %q", reqs[0].OriginalURL)
	}
	// Bulk CSV rows default enrichment off
	if reqs[0].FetchMetadata == nil || *reqs[0].FetchMetadata {
		t.Error("FetchMetadata not defaulted off")
	}
	if reqs[0].EnableAIAnalysis == nil || *reqs[0].EnableAIAnalysis {
		t.Error("EnableAIAnalysis not defaulted off")
	}
}

func TestParseCSV_HeaderSkipped(t *testing.T) {
	in := "originalUrl\nhttps://one.test\n"
	reqs, err := parseCSV(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 1 {
		t.Fatalf("len = %d, want 1 (header must be skipped)", len(reqs))
	}
}

func TestParseCSV_FirstColumnAndQuotes(t *testing.T) {
	in := "\"https://one.test\",Some Title,extra\n"
	reqs, err := parseCSV(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if reqs[0].OriginalURL != "https://one.test" {
		t.Errorf("url = %q", reqs[0].OriginalURL)
	}
}

func TestParseCSV_SchemeNormalization(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"example.com/page", "https://example.com/page"},
		{"www.example.com", "https://www.example.com"},
		{"//cdn.example.com/x", "http://cdn.example.com/x"},
		{"https://already.test", "https://already.test"},
	}

	in := ""
	for _, tt := range tests {
		in += tt.line + "\n"
	}
	reqs, err := parseCSV(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(reqs) != len(tests) {
		t.Fatalf("len = %d, want %d", len(reqs), len(tests))
	}
	for i, tt := range tests {
		if reqs[i].OriginalURL != tt.want {
			t.Errorf("line %q → %q, want %q", tt.line, reqs[i].OriginalURL, tt.want)
		}
	}
}

func TestParseCSV_SkipsGarbageAndEmpty(t *testing.T) {
	in := "\n\nnot a url at all\nhttps://ok.test\n"
	reqs, err := parseCSV(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 1 {
		t.Fatalf("len = %d, want 1", len(reqs))
	}
}

func TestParseCSV_RowCap(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 150; i++ {
		sb.WriteString("https://example.test/x\n")
	}
	reqs, err := parseCSV(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 100 {
		t.Errorf("len = %d, want capped at 100", len(reqs))
	}
}

func TestParseCSV_Empty(t *testing.T) {
	if _, err := parseCSV(strings.NewReader("")); err == nil {
		t.Error("expected error for empty file")
	}
}

func TestNormalizeCSVURL(t *testing.T) {
	if got := normalizeCSVURL("has space.com"); got != "" {
		t.Errorf("space-containing line normalized to %q", got)
	}
	if got := normalizeCSVURL("ftp://files.test"); got != "ftp://files.test" {
		t.Errorf("existing scheme altered: %q", got)
	}
}

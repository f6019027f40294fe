package ai

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Technology", "Technology"},
		{"technology", "Technology"},
		{"NEWS", "News"},
		{`"Finance"`, "Finance"},
		{"tech stuff", "Technology"},
		{"e-learning course", "Education"},
		{"online store", "Shopping"},
		{"investment banking", "Finance"},
		{"something else entirely", "Other"},
		{"", "Other"},
	}
	for _, tt := range tests {
		if got := normalizeCategory(tt.in); got != tt.want {
			t.Errorf("normalizeCategory(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClampScore(t *testing.T) {
	if clampScore(-0.5) != 0 {
		t.Error("negative score not clamped to 0")
	}
	if clampScore(1.5) != 1 {
		t.Error("score above 1 not clamped")
	}
	if clampScore(0.42) != 0.42 {
		t.Error("in-range score altered")
	}
}

func TestSanitizeText(t *testing.T) {
	if got := sanitizeText("No summary available"); got != "" {
		t.Errorf("placeholder not rejected: %q", got)
	}
	if got := sanitizeText("short"); got != "" {
		t.Errorf("sub-10-char text not rejected: %q", got)
	}
	if got := sanitizeText("A real\x00 summary with\x1f control chars inside."); strings.ContainsAny(got, "\x00\x1f") {
		t.Errorf("control chars survived: %q", got)
	}
	long := strings.Repeat("x", 600)
	if got := sanitizeText(long); len(got) != 500 {
		t.Errorf("len = %d, want 500", len(got))
	}
}

func TestSanitizeList_CapsAndDropsEmpties(t *testing.T) {
	in := []string{"a", "", "  ", "b", "c", "d", "e", "f"}
	got := sanitizeList(in, 5)
	if !reflect.DeepEqual(got, []string{"a", "b", "c", "d", "e"}) {
		t.Errorf("sanitizeList = %v", got)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Cool Link", "my-cool-link"},
		{"  spaces   everywhere  ", "spaces-everywhere"},
		{"Special!@#Chars", "specialchars"},
		{"--already--hyphened--", "already-hyphened"},
		{"UPPER", "upper"},
	}
	for _, tt := range tests {
		if got := slugify(tt.in); got != tt.want {
			t.Errorf("slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeAliases(t *testing.T) {
	in := []string{"Good Alias", "ab", "good-alias", "Good Alias", strings.Repeat("x", 25), "one", "two", "three", "four"}
	got := sanitizeAliases(in)
	if len(got) > 5 {
		t.Errorf("len = %d, want <= 5", len(got))
	}
	seen := map[string]bool{}
	for _, a := range got {
		if seen[a] {
			t.Errorf("duplicate alias %q", a)
		}
		seen[a] = true
		if len(a) < 3 || len(a) > 20 {
			t.Errorf("alias %q out of 3-20 range", a)
		}
	}
}

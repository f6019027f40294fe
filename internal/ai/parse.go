package ai

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Small local models routinely emit malformed JSON. Parsing runs as a
// staircase: extract the JSON span, strip markdown fences, repair unbalanced
// structures, parse tolerantly, and as a last resort pull fields out of the
// raw text with regexes.

var jsonSpanRe = regexp.MustCompile(`(?s)\{.*\}`)

func parseResult(raw string) *Result {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	jsonStr := extractJSONSpan(raw)
	if jsonStr == "" {
		jsonStr = strings.TrimSpace(raw)
	}
	if !strings.Contains(jsonStr, "{") {
		jsonStr = stripMarkdown(jsonStr)
	}
	jsonStr = repairJSON(jsonStr)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &fields); err == nil {
		return &Result{
			Summary:          stringField(fields, "summary"),
			Category:         stringField(fields, "category"),
			Tags:             listField(fields, "tags"),
			SafetyScore:      floatField(fields, "safetyScore", 0.8),
			IsSafe:           boolField(fields, "isSafe", true),
			SafetyReasons:    listField(fields, "safetyReasons"),
			AliasSuggestions: listField(fields, "aliasSuggestions"),
		}
	}

	return parseByRegex(raw)
}

func extractJSONSpan(s string) string {
	if m := jsonSpanRe.FindString(s); m != "" {
		return m
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return ""
}

func stripMarkdown(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

var (
	trailingCommaBraceRe   = regexp.MustCompile(`,\s*}`)
	trailingCommaBracketRe = regexp.MustCompile(`,\s*]`)
)

// repairJSON closes unbalanced braces and brackets and strips trailing
// commas, which is enough for the usual truncated-generation failure mode.
func repairJSON(s string) string {
	repaired := strings.TrimSpace(s)
	if repaired == "" {
		return repaired
	}

	openBraces := strings.Count(repaired, "{")
	closeBraces := strings.Count(repaired, "}")
	openBrackets := strings.Count(repaired, "[")
	closeBrackets := strings.Count(repaired, "]")

	if openBraces > closeBraces {
		// Drop a dangling trailing comma or quote before closing
		repaired = strings.TrimRight(repaired, ",")
		if strings.HasSuffix(repaired, `"`) && strings.Count(repaired, `"`)%2 != 0 {
			repaired = strings.TrimSuffix(repaired, `"`)
		}
		if openBrackets > closeBrackets {
			repaired += strings.Repeat("]", openBrackets-closeBrackets)
			closeBrackets = openBrackets
		}
		repaired += strings.Repeat("}", openBraces-closeBraces)
	}
	if openBrackets > closeBrackets {
		repaired += strings.Repeat("]", openBrackets-closeBrackets)
	}

	repaired = trailingCommaBraceRe.ReplaceAllString(repaired, "}")
	repaired = trailingCommaBracketRe.ReplaceAllString(repaired, "]")

	return repaired
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func floatField(fields map[string]json.RawMessage, key string, fallback float64) float64 {
	raw, ok := fields[key]
	if !ok {
		return fallback
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	// Models sometimes quote numbers
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return fallback
}

func boolField(fields map[string]json.RawMessage, key string, fallback bool) bool {
	raw, ok := fields[key]
	if !ok {
		return fallback
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return fallback
	}
	return b
}

func listField(fields map[string]json.RawMessage, key string) []string {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err == nil {
		return items
	}
	// Tolerate mixed-type arrays by re-reading element by element
	var anyItems []any
	if err := json.Unmarshal(raw, &anyItems); err == nil {
		out := make([]string, 0, len(anyItems))
		for _, it := range anyItems {
			if s, ok := it.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Regex fallback for responses where no JSON parse succeeds.

var categoryFieldRe = regexp.MustCompile(`(?i)category["']?\s*:\s*["']?([A-Za-z]+)`)

func parseByRegex(raw string) *Result {
	return &Result{
		Summary:          extractField(raw, "summary"),
		Category:         extractCategory(raw),
		Tags:             extractArray(raw, "tags"),
		SafetyScore:      extractScore(raw),
		IsSafe:           true,
		SafetyReasons:    []string{},
		AliasSuggestions: extractArray(raw, "aliasSuggestions"),
	}
}

func extractField(text, field string) string {
	patterns := []string{
		`(?i)"` + field + `"\s*:\s*"([^"]+)"`,
		`(?i)"` + field + `"\s*:\s*'([^']+)'`,
		`(?i)` + field + `\s*:\s*["']?([^,"'}]+)["']?`,
	}
	for _, p := range patterns {
		if m := regexp.MustCompile(p).FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func extractCategory(text string) string {
	if m := categoryFieldRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

var arrayItemRe = regexp.MustCompile(`["']([^,"']+)["']`)

func extractArray(text, field string) []string {
	re := regexp.MustCompile(`(?i)"` + field + `"\s*:\s*\[([^\]]*)\]`)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	var out []string
	for _, item := range arrayItemRe.FindAllStringSubmatch(m[1], -1) {
		v := strings.TrimSpace(item[1])
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func extractScore(text string) float64 {
	if s := extractField(text, "safetyScore"); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return 0.8
}

package ai

import "fmt"

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func orNoDescription(s string) string {
	if s == "" {
		return "No description available"
	}
	return s
}

func analysisPrompt(url, title, description string) string {
	return fmt.Sprintf(`Analyze this URL and provide a comprehensive analysis. You MUST respond with ONLY valid JSON, no explanations, no markdown.

URL: %s
Title: %s
Description: %s

Analyze the URL and provide:
1. A brief 1-2 sentence summary of what this website/service is about
2. The most appropriate category from: Technology, News, Entertainment, Education, Business, Social, Shopping, Health, Travel, Finance, Sports, Other
3. 3-5 relevant tags that describe the content/topic
4. A safety score between 0.0 and 1.0 (1.0 = completely safe, 0.0 = dangerous)
5. Whether it's safe (true/false)
6. Any safety concerns as an array (empty if safe)
7. 3-5 short, memorable alias suggestions (2-4 words max, URL-friendly)

Respond with ONLY this JSON structure:
{
    "summary": "your actual summary here",
    "category": "one of the categories listed above",
    "tags": ["relevant", "tags", "here"],
    "safetyScore": 0.95,
    "isSafe": true,
    "safetyReasons": [],
    "aliasSuggestions": ["short-alias-1", "short-alias-2", "short-alias-3"]
}

Important: Generate REAL content based on the URL, title, and description. Do NOT use placeholder text.
`, url, orUnknown(title), orNoDescription(description))
}

func aliasPrompt(url, title string) string {
	return fmt.Sprintf(`You are a URL shortener assistant. Generate 5 short, memorable URL aliases.

URL: %s
Title: %s

Rules:
- Each alias: 3-15 characters
- Only lowercase letters, numbers, hyphens
- Memorable and relevant to content
- No spaces or special characters
- Return ONLY aliases, one per line

Examples:
github -> github-dev, code-hub, git-link
news -> daily-news, news-today

Aliases:
`, url, orUnknown(title))
}

func safetyPrompt(url string) string {
	return fmt.Sprintf(`Analyze this URL for safety issues. Check for:
1. Phishing (misspelled domains, suspicious patterns)
2. Malware distribution patterns
3. Suspicious URL structure
4. Scam indicators

URL: %s

Respond with ONLY valid JSON in this exact format:
{
    "safetyScore": 0.0-1.0,
    "isSafe": true/false,
    "safetyReasons": ["reason1", "reason2"]
}

JSON:
`, url)
}

package llm

import (
	"fmt"
	"strings"

	"NewsScanner/internal/domain"
	"NewsScanner/internal/ports"
)

var systemPrompt = buildSystemPrompt()

func buildSystemPrompt() string {
	names := make([]string, 0, len(domain.Taxonomy))
	for _, c := range domain.Taxonomy {
		names = append(names, string(c))
	}
	return "You are an expert P&C insurance analyst. Extract only facts present in the article. " +
		"Return 3-5 sharp bullets (<=22 words each) for busy professionals. " +
		"Classify into the fixed P&C categories: " + strings.Join(names, ", ") + "."
}

func userPrompt(req ports.SummaryRequest, maxBodyChars int) string {
	return fmt.Sprintf("URL: %s\nTITLE: %s\nARTICLE (trimmed):\n%s\n\n"+
		"Return strict JSON with keys: title, bullets[], categories[], relevance (0..1 for P&C relevance).",
		req.URL, req.Title, truncateRunes(req.Body, maxBodyChars))
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}

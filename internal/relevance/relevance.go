// Package relevance implements the two relevance gates around summarization:
// a keyword heuristic before the reasoning-service call and a score
// threshold after it.
package relevance

import (
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// DefaultThreshold is the minimum model-assigned relevance for acceptance.
const DefaultThreshold = 0.5

// DefaultKeywords is the P&C vocabulary used by the heuristic gate.
var DefaultKeywords = []string{
	"insurer", "insurance", "reinsurance", "underwriting", "claims", "premium", "broker", "policy", "NAIC", "regulator", "catastrophe",
	"combined ratio", "workers comp", "auto insurance", "homeowners", "carrier", "MGA", "property", "casualty",
}

// Heuristic is a case-insensitive substring matcher over a fixed keyword list.
// It is safe for concurrent use.
type Heuristic struct {
	matcher  *ahocorasick.Matcher
	keywords []string
}

// NewHeuristic builds the automaton; empty keywords are ignored and a nil or
// empty list falls back to DefaultKeywords.
func NewHeuristic(keywords []string) *Heuristic {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			normalized = append(normalized, kw)
		}
	}
	if len(normalized) == 0 && len(keywords) == 0 {
		return NewHeuristic(DefaultKeywords)
	}

	return &Heuristic{
		matcher:  ahocorasick.NewStringMatcher(normalized),
		keywords: normalized,
	}
}

// Match reports whether title or body mention any keyword. Empty body text
// never matches.
func (h *Heuristic) Match(title, body string) bool {
	if strings.TrimSpace(body) == "" || len(h.keywords) == 0 {
		return false
	}
	hay := strings.ToLower(title + " " + body)
	return h.matcher.Contains([]byte(hay))
}

// Matches lists the keywords found in title and body.
func (h *Heuristic) Matches(title, body string) []string {
	if strings.TrimSpace(body) == "" || len(h.keywords) == 0 {
		return nil
	}
	hay := strings.ToLower(title + " " + body)
	hits := h.matcher.MatchThreadSafe([]byte(hay))
	out := make([]string, 0, len(hits))
	for _, idx := range hits {
		out = append(out, h.keywords[idx])
	}
	return out
}

// PassesScore is the post-summarization gate.
func PassesScore(score, threshold float64) bool {
	return score >= threshold
}

// Package canonical resolves the authoritative URL of a fetched page and
// derives the content-hash identifier used for deduplication.
package canonical

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const trackingPrefix = "utm_"

// StripTracking removes utm_* query parameters from raw and drops any
// separator left dangling. Other parameters keep their order and encoding.
func StripTracking(raw string) string {
	base, fragment, hasFragment := strings.Cut(raw, "#")
	path, query, hasQuery := strings.Cut(base, "?")
	if !hasQuery {
		return raw
	}

	kept := make([]string, 0, strings.Count(query, "&")+1)
	for _, param := range strings.Split(query, "&") {
		if param == "" {
			continue
		}
		key, _, _ := strings.Cut(param, "=")
		if strings.HasPrefix(strings.ToLower(key), trackingPrefix) {
			continue
		}
		kept = append(kept, param)
	}

	out := path
	if len(kept) > 0 {
		out += "?" + strings.Join(kept, "&")
	}
	if hasFragment {
		out += "#" + fragment
	}
	return out
}

// Resolve returns the canonical URL of a page: the first
// <link rel="canonical"> href resolved against fetchURL, or fetchURL itself
// when the hint is missing or unusable. Both paths strip tracking params.
func Resolve(html, fetchURL string) string {
	fallback := StripTracking(fetchURL)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fallback
	}

	href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return fallback
	}

	base, err := url.Parse(fetchURL)
	if err != nil {
		return fallback
	}
	ref, err := url.Parse(href)
	if err != nil {
		return fallback
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return fallback
	}
	return StripTracking(resolved.String())
}

// ID is the hex SHA-1 digest of a canonical URL; it keys stored records.
func ID(canonicalURL string) string {
	sum := sha1.Sum([]byte(canonicalURL))
	return hex.EncodeToString(sum[:])
}

// Origin returns scheme://host of u, or an empty string when u does not parse.
func Origin(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}

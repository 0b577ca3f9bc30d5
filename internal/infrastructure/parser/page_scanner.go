package parser

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"NewsScanner/internal/domain"
	"NewsScanner/internal/ports"
	"NewsScanner/internal/scanner"
)

// DefaultPageLinkLimit caps how many links a single page contributes.
const DefaultPageLinkLimit = 100

// PageScanner fetches an HTML listing page and collects its outbound links.
// It does not follow them.
type PageScanner struct {
	fetcher ports.PageFetcher
}

var _ scanner.Scanner = (*PageScanner)(nil)

// NewPageScanner wires the page fetcher.
func NewPageScanner(fetcher ports.PageFetcher) *PageScanner {
	return &PageScanner{fetcher: fetcher}
}

// Kind identifies the strategy inside the registry.
func (p *PageScanner) Kind() domain.SourceKind {
	return domain.SourcePage
}

// Scan returns absolute http(s) anchors of the page, in document order.
func (p *PageScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.CandidateURL, error) {
	body, finalURL, err := p.fetcher.Fetch(ctx, req.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}

	base, err := url.Parse(finalURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %s: %w", finalURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultPageLinkLimit
	}

	return extractLinks(doc, base, req.Endpoint, limit), nil
}

func extractLinks(doc *goquery.Document, base *url.URL, origin string, limit int) []domain.CandidateURL {
	var links []domain.CandidateURL

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		abs, ok := absoluteHTTP(base, href)
		if !ok {
			return true
		}
		links = append(links, domain.CandidateURL{
			URL:    abs,
			Kind:   domain.SourcePage,
			Origin: origin,
		})
		return len(links) < limit
	})

	return links
}

func absoluteHTTP(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	return resolved.String(), true
}

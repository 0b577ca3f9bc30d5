package parser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"NewsScanner/internal/domain"
	"NewsScanner/internal/ports"
	"NewsScanner/internal/scanner"
)

// FeedScanner reads RSS, Atom and JSON feeds and returns their item links.
type FeedScanner struct {
	fetcher ports.PageFetcher
}

var _ scanner.Scanner = (*FeedScanner)(nil)

// NewFeedScanner wires the page fetcher used to download feeds.
func NewFeedScanner(fetcher ports.PageFetcher) *FeedScanner {
	return &FeedScanner{fetcher: fetcher}
}

// Kind identifies the strategy inside the registry.
func (f *FeedScanner) Kind() domain.SourceKind {
	return domain.SourceFeed
}

// Scan downloads and parses one feed. Items without a usable link are skipped.
func (f *FeedScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.CandidateURL, error) {
	body, _, err := f.fetcher.Fetch(ctx, req.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	parsed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	out := make([]domain.CandidateURL, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		link := itemLink(item)
		if link == "" {
			continue
		}
		out = append(out, domain.CandidateURL{
			URL:         link,
			Kind:        domain.SourceFeed,
			Origin:      req.Endpoint,
			PublishedAt: itemPublished(item),
		})
		if req.Limit > 0 && len(out) >= req.Limit {
			break
		}
	}
	return out, nil
}

func itemLink(item *gofeed.Item) string {
	if link := strings.TrimSpace(item.Link); link != "" {
		return link
	}
	if strings.HasPrefix(item.GUID, "http") {
		return strings.TrimSpace(item.GUID)
	}
	return ""
}

func itemPublished(item *gofeed.Item) time.Time {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.UTC()
	default:
		return time.Time{}
	}
}

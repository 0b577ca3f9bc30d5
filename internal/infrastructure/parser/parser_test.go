package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"NewsScanner/internal/config"
	"NewsScanner/internal/domain"
	"NewsScanner/internal/infrastructure/fetcher"
	"NewsScanner/internal/scanner"
)

const rssBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Insurance Wire</title>
  <link>https://wire.example.com</link>
  <item>
    <title>First</title>
    <link>https://wire.example.com/a?utm_source=rss&amp;id=1</link>
    <pubDate>Mon, 06 Oct 2025 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>GUID only</title>
    <guid>https://wire.example.com/b</guid>
  </item>
  <item>
    <title>No link</title>
    <guid isPermaLink="false">tag-123</guid>
  </item>
</channel>
</rss>`

func newScannerServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssBody))
	})
	mux.HandleFunc("/broken-feed", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not a feed"))
	})
	mux.HandleFunc("/down", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/press", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<a href="/release/1?utm_campaign=x">One</a>
			<a href="https://wire.example.com/a?id=1">Dup of feed item</a>
			<a href="mailto:press@example.com">Mail</a>
			<a href="javascript:void(0)">JS</a>
			<a href="#top">Top</a>
			<a>no href</a>
		</body></html>`))
	})
	mux.HandleFunc("/many", func(w http.ResponseWriter, r *http.Request) {
		var b strings.Builder
		for i := 0; i < 250; i++ {
			fmt.Fprintf(&b, `<a href="https://many.example.com/%d">%d</a>`, i, i)
		}
		_, _ = w.Write([]byte(b.String()))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestFeedScannerScan(t *testing.T) {
	t.Parallel()

	server := newScannerServer(t)
	sc := NewFeedScanner(fetcher.NewHTTPFetcher(server.Client(), ""))

	items, err := sc.Scan(context.Background(), scanner.Request{Endpoint: server.URL + "/feed"})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "https://wire.example.com/a?utm_source=rss&id=1", items[0].URL)
	assert.Equal(t, domain.SourceFeed, items[0].Kind)
	assert.Equal(t, server.URL+"/feed", items[0].Origin)
	assert.True(t, time.Date(2025, time.October, 6, 10, 0, 0, 0, time.UTC).Equal(items[0].PublishedAt))

	assert.Equal(t, "https://wire.example.com/b", items[1].URL)
	assert.True(t, items[1].PublishedAt.IsZero())
}

func TestFeedScannerErrors(t *testing.T) {
	t.Parallel()

	server := newScannerServer(t)
	sc := NewFeedScanner(fetcher.NewHTTPFetcher(server.Client(), ""))

	_, err := sc.Scan(context.Background(), scanner.Request{Endpoint: server.URL + "/broken-feed"})
	require.Error(t, err)

	_, err = sc.Scan(context.Background(), scanner.Request{Endpoint: server.URL + "/down"})
	require.Error(t, err)
}

func TestPageScannerScan(t *testing.T) {
	t.Parallel()

	server := newScannerServer(t)
	sc := NewPageScanner(fetcher.NewHTTPFetcher(server.Client(), ""))

	links, err := sc.Scan(context.Background(), scanner.Request{Endpoint: server.URL + "/press"})
	require.NoError(t, err)

	urls := make([]string, 0, len(links))
	for _, l := range links {
		assert.Equal(t, domain.SourcePage, l.Kind)
		urls = append(urls, l.URL)
	}
	assert.Equal(t, []string{
		server.URL + "/release/1?utm_campaign=x",
		"https://wire.example.com/a?id=1",
		server.URL + "/press#top",
	}, urls)
}

func TestPageScannerLimit(t *testing.T) {
	t.Parallel()

	server := newScannerServer(t)
	sc := NewPageScanner(fetcher.NewHTTPFetcher(server.Client(), ""))

	links, err := sc.Scan(context.Background(), scanner.Request{Endpoint: server.URL + "/many"})
	require.NoError(t, err)
	assert.Len(t, links, DefaultPageLinkLimit)
	assert.Equal(t, "https://many.example.com/0", links[0].URL)

	links, err = sc.Scan(context.Background(), scanner.Request{Endpoint: server.URL + "/many", Limit: 7})
	require.NoError(t, err)
	assert.Len(t, links, 7)
}

func newRegistry(server *httptest.Server) *scanner.Registry {
	f := fetcher.NewHTTPFetcher(server.Client(), "")
	reg := scanner.NewRegistry()
	reg.Register(NewFeedScanner(f))
	reg.Register(NewPageScanner(f))
	return reg
}

func TestStrategySourceCollect(t *testing.T) {
	t.Parallel()

	server := newScannerServer(t)
	src := NewStrategySource(newRegistry(server), config.SourcesConfig{
		Feeds: []string{server.URL + "/feed", server.URL + "/down", server.URL + "/broken-feed"},
		Pages: []string{server.URL + "/press", "http://127.0.0.1:1/unreachable"},
	}, 0, 2, zap.NewNop())

	got, err := src.Collect(context.Background())
	require.NoError(t, err)

	urls := make([]string, 0, len(got))
	for _, c := range got {
		urls = append(urls, c.URL)
	}
	assert.Equal(t, []string{
		"https://wire.example.com/a?id=1",
		"https://wire.example.com/b",
		server.URL + "/release/1",
		server.URL + "/press#top",
	}, urls)
	assert.Equal(t, domain.SourceFeed, got[0].Kind, "first occurrence wins")
	assert.False(t, got[0].PublishedAt.IsZero())
}

func TestStrategySourceCap(t *testing.T) {
	t.Parallel()

	server := newScannerServer(t)
	src := NewStrategySource(newRegistry(server), config.SourcesConfig{
		Pages:         []string{server.URL + "/many"},
		PageLinkLimit: 200,
	}, 150, 1, nil)

	got, err := src.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 150)
}

func TestStrategySourceNoRegistry(t *testing.T) {
	t.Parallel()

	src := NewStrategySource(nil, config.SourcesConfig{}, 0, 0, nil)
	_, err := src.Collect(context.Background())
	require.Error(t, err)
}

func TestStrategySourceUnregisteredKind(t *testing.T) {
	t.Parallel()

	server := newScannerServer(t)
	reg := scanner.NewRegistry()
	reg.Register(NewFeedScanner(fetcher.NewHTTPFetcher(server.Client(), "")))

	src := NewStrategySource(reg, config.SourcesConfig{
		Feeds: []string{server.URL + "/feed"},
		Pages: []string{server.URL + "/press"},
	}, 0, 0, nil)

	got, err := src.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

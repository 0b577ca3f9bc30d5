package ports

import (
	"context"
	"time"

	"NewsScanner/internal/domain"
)

// CandidateSource collects the candidate URL set for one run.
type CandidateSource interface {
	Collect(ctx context.Context) ([]domain.CandidateURL, error)
}

// PageFetcher downloads a page and reports the final URL after redirects.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (body string, finalURL string, err error)
}

// NewsRepository stores accepted records keyed by content-hash id.
type NewsRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
	Upsert(ctx context.Context, record domain.NewsRecord) error
}

// ClaimStore hands out short-lived per-id claims so concurrent workers do not
// summarize the same article twice.
type ClaimStore interface {
	Claim(ctx context.Context, id string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, id string) error
}

// SummaryRequest is the input of a single summarization call.
type SummaryRequest struct {
	Title string
	Body  string
	URL   string
}

// Summarizer turns article text into a validated structured summary.
type Summarizer interface {
	Summarize(ctx context.Context, req SummaryRequest) (domain.Summary, error)
}

// Notifier streams run digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

// MetricsRecorder receives per-item and per-run observations.
type MetricsRecorder interface {
	ObserveItem(outcome domain.Outcome)
	ObserveRun(candidates int, elapsed time.Duration, err error)
	ObserveSummarize(start time.Time, err error)
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"NewsScanner/internal/canonical"
	"NewsScanner/internal/domain"
	"NewsScanner/internal/extract"
	"NewsScanner/internal/ports"
	"NewsScanner/internal/relevance"
)

const (
	defaultConcurrency = 3
	defaultClaimTTL    = 10 * time.Minute
)

var (
	// ErrNoRepository is returned by Run when no store is wired.
	ErrNoRepository = errors.New("pipeline: repository is not configured")
	// ErrNoSummarizer is returned by Run when no reasoning client is wired.
	ErrNoSummarizer = errors.New("pipeline: summarizer is not configured")
	// ErrNoSource is returned by Run when no candidate source or fetcher is wired.
	ErrNoSource = errors.New("pipeline: candidate source is not configured")
	// ErrRunInProgress is returned when a trigger arrives during a run.
	ErrRunInProgress = errors.New("pipeline: run already in progress")
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source      ports.CandidateSource
	Fetcher     ports.PageFetcher
	Repository  ports.NewsRepository
	Summarizer  ports.Summarizer
	Claims      ports.ClaimStore
	Notifier    ports.Notifier
	Metrics     ports.MetricsRecorder
	Heuristic   *relevance.Heuristic
	Threshold   *float64
	Concurrency int
	ClaimTTL    time.Duration
	Logger      *zap.Logger
	Now         func() time.Time
}

// Pipeline implements the news-ingestion workflow.
type Pipeline struct {
	source      ports.CandidateSource
	fetcher     ports.PageFetcher
	repository  ports.NewsRepository
	summarizer  ports.Summarizer
	claims      ports.ClaimStore
	notifier    ports.Notifier
	metrics     ports.MetricsRecorder
	heuristic   *relevance.Heuristic
	threshold   float64
	concurrency int
	claimTTL    time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		source:      deps.Source,
		fetcher:     deps.Fetcher,
		repository:  deps.Repository,
		summarizer:  deps.Summarizer,
		claims:      deps.Claims,
		notifier:    deps.Notifier,
		metrics:     deps.Metrics,
		heuristic:   deps.Heuristic,
		threshold:   relevance.DefaultThreshold,
		concurrency: deps.Concurrency,
		claimTTL:    deps.ClaimTTL,
		logger:      deps.Logger,
		now:         deps.Now,
	}
	if p.heuristic == nil {
		p.heuristic = relevance.NewHeuristic(nil)
	}
	if deps.Threshold != nil {
		p.threshold = *deps.Threshold
	}
	if p.concurrency <= 0 {
		p.concurrency = defaultConcurrency
	}
	if p.claimTTL <= 0 {
		p.claimTTL = defaultClaimTTL
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Run collects candidates and drives each through the item pipeline on a
// fixed pool of workers. It returns after every item has settled. Per-item
// failures only show up in the report; the returned error is reserved for
// missing dependencies and candidate collection failures.
func (p *Pipeline) Run(ctx context.Context) (domain.RunReport, error) {
	report := domain.RunReport{
		RunID:     uuid.NewString(),
		Outcomes:  make(map[domain.Outcome]int),
		StartedAt: p.now().UTC(),
	}

	if err := p.validate(); err != nil {
		return report, err
	}

	log := p.logger.With(zap.String("run_id", report.RunID))
	log.Info("run started")

	candidates, err := p.source.Collect(ctx)
	if err != nil {
		err = fmt.Errorf("collect candidates: %w", err)
		report.FinishedAt = p.now().UTC()
		p.metricsOrNop().ObserveRun(0, report.FinishedAt.Sub(report.StartedAt), err)
		return report, err
	}
	report.Candidates = len(candidates)

	var mu sync.Mutex
	record := func(outcome domain.Outcome, rec *domain.NewsRecord) {
		mu.Lock()
		defer mu.Unlock()
		report.Outcomes[outcome]++
		if rec != nil {
			report.Accepted = append(report.Accepted, *rec)
		}
	}

	queue := make(chan domain.CandidateURL)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(queue)
		for _, c := range candidates {
			select {
			case queue <- c:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	for i := 0; i < p.concurrency; i++ {
		g.Go(func() error {
			for c := range queue {
				outcome, rec := p.processSafely(gctx, log, c)
				p.metricsOrNop().ObserveItem(outcome)
				record(outcome, rec)
			}
			return nil
		})
	}

	_ = g.Wait()

	report.FinishedAt = p.now().UTC()
	p.metricsOrNop().ObserveRun(report.Candidates, report.FinishedAt.Sub(report.StartedAt), nil)

	log.Info("run finished",
		zap.Int("candidates", report.Candidates),
		zap.Int("accepted", len(report.Accepted)),
		zap.Any("outcomes", report.Outcomes),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)))

	p.publishDigest(ctx, log, report.Accepted)

	return report, nil
}

func (p *Pipeline) validate() error {
	switch {
	case p.repository == nil:
		return ErrNoRepository
	case p.summarizer == nil:
		return ErrNoSummarizer
	case p.source == nil || p.fetcher == nil:
		return ErrNoSource
	}
	return nil
}

func (p *Pipeline) metricsOrNop() ports.MetricsRecorder {
	if p.metrics == nil {
		return nopMetrics{}
	}
	return p.metrics
}

// processSafely converts a panic inside one item into an outcome.
func (p *Pipeline) processSafely(ctx context.Context, log *zap.Logger, c domain.CandidateURL) (outcome domain.Outcome, rec *domain.NewsRecord) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("item panicked",
				zap.String("url", c.URL),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			outcome, rec = domain.OutcomePanic, nil
		}
	}()
	return p.processItem(ctx, log.With(zap.String("url", c.URL)), c)
}

func (p *Pipeline) processItem(ctx context.Context, log *zap.Logger, c domain.CandidateURL) (domain.Outcome, *domain.NewsRecord) {
	article, outcome := p.fetchArticle(ctx, log, c)
	if outcome != "" {
		return outcome, nil
	}

	if !p.heuristic.Match(article.Title, article.BodyText) {
		log.Debug("skipped by keyword gate")
		return domain.OutcomeIrrelevant, nil
	}
	if ce := log.Check(zap.DebugLevel, "passed keyword gate"); ce != nil {
		ce.Write(zap.Strings("keywords", p.heuristic.Matches(article.Title, article.BodyText)))
	}

	id := canonical.ID(article.CanonicalURL)
	log = log.With(zap.String("id", id))

	exists, err := p.repository.Exists(ctx, id)
	if err != nil {
		log.Warn("existence check failed", zap.Error(err))
		return domain.OutcomeStoreFailed, nil
	}
	if exists {
		log.Debug("already stored")
		return domain.OutcomeDuplicate, nil
	}

	if p.claims != nil {
		claimed, err := p.claims.Claim(ctx, id, p.claimTTL)
		switch {
		case err != nil:
			log.Warn("claim store unavailable, continuing without claim", zap.Error(err))
		case !claimed:
			log.Debug("claimed by another worker")
			return domain.OutcomeClaimed, nil
		default:
			defer p.release(ctx, log, id)
		}
	}

	started := time.Now()
	summary, err := p.summarizer.Summarize(ctx, ports.SummaryRequest{
		Title: article.Title,
		Body:  article.BodyText,
		URL:   article.CanonicalURL,
	})
	p.metricsOrNop().ObserveSummarize(started, err)
	if err != nil {
		if errors.Is(err, domain.ErrSchemaInvalid) {
			log.Warn("summary rejected", zap.Error(err))
			return domain.OutcomeSchemaInvalid, nil
		}
		log.Warn("summarizer failed", zap.Error(err))
		return domain.OutcomeServiceFailure, nil
	}

	if !relevance.PassesScore(summary.Relevance, p.threshold) {
		log.Debug("below relevance threshold", zap.Float64("relevance", summary.Relevance))
		return domain.OutcomeLowScore, nil
	}

	rec := p.buildRecord(id, c, article, summary)
	if err := p.repository.Upsert(ctx, rec); err != nil {
		log.Error("persist failed", zap.Error(err))
		return domain.OutcomePersistFailed, nil
	}

	log.Info("accepted", zap.String("title", rec.Title), zap.Float64("relevance", rec.Relevance))
	return domain.OutcomeAccepted, &rec
}

// fetchArticle returns a non-empty outcome when the item stops before the
// relevance gate.
func (p *Pipeline) fetchArticle(ctx context.Context, log *zap.Logger, c domain.CandidateURL) (domain.FetchedArticle, domain.Outcome) {
	body, finalURL, err := p.fetcher.Fetch(ctx, c.URL)
	if err != nil {
		log.Warn("fetch failed", zap.Error(err))
		return domain.FetchedArticle{}, domain.OutcomeFetchFailed
	}
	if finalURL == "" {
		finalURL = c.URL
	}

	canonicalURL := canonical.Resolve(body, finalURL)

	content, err := extract.Extract(body, finalURL)
	if err != nil {
		log.Warn("extract failed", zap.Error(err))
		return domain.FetchedArticle{}, domain.OutcomeEmpty
	}
	if strings.TrimSpace(content.Text) == "" {
		log.Debug("no readable text")
		return domain.FetchedArticle{}, domain.OutcomeEmpty
	}

	return domain.FetchedArticle{
		CanonicalURL: canonicalURL,
		Title:        content.Title,
		BodyText:     content.Text,
		ImageURL:     content.ImageURL,
	}, ""
}

// release runs on a detached context so a cancelled run still drops its claims.
func (p *Pipeline) release(ctx context.Context, log *zap.Logger, id string) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.claims.Release(rctx, id); err != nil {
		log.Debug("claim release failed", zap.Error(err))
	}
}

func (p *Pipeline) buildRecord(id string, c domain.CandidateURL, article domain.FetchedArticle, summary domain.Summary) domain.NewsRecord {
	title := summary.Title
	if strings.TrimSpace(title) == "" {
		title = article.Title
	}

	published := c.PublishedAt
	if published.IsZero() {
		published = p.now()
	}

	return domain.NewsRecord{
		ID:             id,
		Title:          title,
		URL:            article.CanonicalURL,
		Source:         canonical.Origin(article.CanonicalURL),
		ImageURL:       article.ImageURL,
		SummaryBullets: summary.Bullets,
		Categories:     summary.Categories,
		Relevance:      summary.Relevance,
		PublishedAt:    published.UTC(),
	}
}

func (p *Pipeline) publishDigest(ctx context.Context, log *zap.Logger, accepted []domain.NewsRecord) {
	if p.notifier == nil || len(accepted) == 0 {
		return
	}
	if err := p.notifier.PublishDigest(ctx, buildDigestMessage(accepted)); err != nil {
		log.Warn("digest not delivered", zap.Error(err))
	}
}

func buildDigestMessage(records []domain.NewsRecord) string {
	if len(records) == 0 {
		return ""
	}

	var b strings.Builder
	for _, rec := range records {
		fmt.Fprintf(&b, "*%s*\nRelevance: %.2f\n", boldText(rec.Title), rec.Relevance)
		for _, bullet := range rec.SummaryBullets {
			fmt.Fprintf(&b, "• %s\n", markdownEscaper.Replace(bullet))
		}
		fmt.Fprintf(&b, "%s\n\n", markdownEscaper.Replace(rec.URL))
	}
	return strings.TrimRight(b.String(), "\n")
}

// markdownEscaper escapes the Telegram legacy Markdown control characters
// outside of an entity.
var markdownEscaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"`", "\\`",
	"[", "\\[",
)

// boldText prepares text for a *bold* entity. Text inside an entity is
// literal up to the closing asterisk and cannot be escaped.
func boldText(s string) string {
	return strings.ReplaceAll(s, "*", "")
}

type nopMetrics struct{}

func (nopMetrics) ObserveItem(domain.Outcome)           {}
func (nopMetrics) ObserveRun(int, time.Duration, error) {}
func (nopMetrics) ObserveSummarize(time.Time, error)    {}

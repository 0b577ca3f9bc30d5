package parser

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"NewsScanner/internal/canonical"
	"NewsScanner/internal/config"
	"NewsScanner/internal/domain"
	"NewsScanner/internal/ports"
	"NewsScanner/internal/scanner"
)

const (
	defaultMaxCandidates = 150
	defaultScanWorkers   = 3
)

// StrategySource implements CandidateSource via registered scanner strategies.
type StrategySource struct {
	registry      *scanner.Registry
	sources       config.SourcesConfig
	maxCandidates int
	workers       int
	logger        *zap.Logger
}

var _ ports.CandidateSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined endpoints.
func NewStrategySource(reg *scanner.Registry, sources config.SourcesConfig, maxCandidates, workers int, log *zap.Logger) *StrategySource {
	if maxCandidates <= 0 {
		maxCandidates = defaultMaxCandidates
	}
	if workers <= 0 {
		workers = defaultScanWorkers
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &StrategySource{
		registry:      reg,
		sources:       sources,
		maxCandidates: maxCandidates,
		workers:       workers,
		logger:        log,
	}
}

type endpoint struct {
	kind  domain.SourceKind
	url   string
	limit int
}

// Collect scans every configured endpoint and returns the normalized,
// deduplicated and capped candidate set. Feeds come before pages, each in
// config order. A failing endpoint contributes nothing.
func (s *StrategySource) Collect(ctx context.Context) ([]domain.CandidateURL, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	endpoints := make([]endpoint, 0, len(s.sources.Feeds)+len(s.sources.Pages))
	for _, u := range s.sources.Feeds {
		endpoints = append(endpoints, endpoint{kind: domain.SourceFeed, url: u})
	}
	for _, u := range s.sources.Pages {
		endpoints = append(endpoints, endpoint{kind: domain.SourcePage, url: u, limit: s.sources.PageLinkLimit})
	}

	results := make([][]domain.CandidateURL, len(endpoints))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, ep := range endpoints {
		g.Go(func() error {
			results[i] = s.scanEndpoint(ctx, ep)
			return nil
		})
	}
	_ = g.Wait()

	raw := 0
	seen := make(map[string]struct{})
	var candidates []domain.CandidateURL
	for _, batch := range results {
		raw += len(batch)
		for _, c := range batch {
			c.URL = canonical.StripTracking(c.URL)
			if c.URL == "" {
				continue
			}
			if _, ok := seen[c.URL]; ok {
				continue
			}
			seen[c.URL] = struct{}{}
			candidates = append(candidates, c)
		}
	}

	s.logger.Info("candidates collected",
		zap.Int("endpoints", len(endpoints)),
		zap.Int("raw", raw),
		zap.Int("unique", len(candidates)),
		zap.Int("cap", s.maxCandidates))

	if len(candidates) > s.maxCandidates {
		candidates = candidates[:s.maxCandidates]
	}
	return candidates, nil
}

func (s *StrategySource) scanEndpoint(ctx context.Context, ep endpoint) []domain.CandidateURL {
	log := s.logger.With(zap.String("kind", string(ep.kind)), zap.String("endpoint", ep.url))

	strategy, err := s.registry.Resolve(ep.kind)
	if err != nil {
		log.Warn("no scanner for source", zap.Error(err))
		return nil
	}

	found, err := strategy.Scan(ctx, scanner.Request{Endpoint: ep.url, Limit: ep.limit})
	if err != nil {
		log.Warn("source unavailable", zap.Error(err))
		return nil
	}

	log.Debug("source scanned", zap.Int("count", len(found)))
	return found
}

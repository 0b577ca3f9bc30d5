package scanner

import (
	"context"
	"fmt"

	"NewsScanner/internal/domain"
)

// Request carries all parameters required to scan one source endpoint.
type Request struct {
	Endpoint string
	Limit    int
}

// Scanner captures a single strategy implementation (feeds, HTML link pages).
type Scanner interface {
	Kind() domain.SourceKind
	Scan(ctx context.Context, req Request) ([]domain.CandidateURL, error)
}

// Registry keeps a mapping from source kinds to their implementations.
type Registry struct {
	scanners map[domain.SourceKind]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[domain.SourceKind]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[domain.SourceKind]Scanner{}
	}
	r.scanners[scanner.Kind()] = scanner
}

// Resolve returns a scanner by kind or an error if it is absent.
func (r *Registry) Resolve(kind domain.SourceKind) (Scanner, error) {
	if scanner, ok := r.scanners[kind]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", kind)
}

// Package resolver reconciles book metadata from multiple catalog sources.
// It offers three strategies: an ordered fallback that stops at the first
// source with data, a concurrent enrichment pass that merges every source's
// answer, and a fuzzy-validated title/author search. Source failures are
// converted into result data at this boundary; they never surface as errors.
package resolver

import (
	"context"
	"time"

	"github.com/lepinkainen/biblio/internal/bookdata"
	"github.com/lepinkainen/biblio/internal/cache"
	"github.com/lepinkainen/biblio/internal/match"
)

// DefaultTimeout bounds each individual source call.
const DefaultTimeout = 8 * time.Second

// Config supplies the resolver's construction-time knobs. The source order
// is the priority order for both fallback and enrichment merging.
type Config struct {
	// Sources in priority order. Required.
	Sources []bookdata.Source

	// Timeout bounds each source call. Zero selects DefaultTimeout.
	Timeout time.Duration

	// Matcher validates title-search candidates. Nil selects the default
	// thresholds.
	Matcher *match.Matcher

	// TitleCacheCapacity and TitleCacheTTL configure the resolver-owned
	// title search cache. Zero values select the cache defaults.
	TitleCacheCapacity int
	TitleCacheTTL      time.Duration
}

// Resolver orchestrates lookups across the configured sources.
type Resolver struct {
	sources []bookdata.Source
	timeout time.Duration
	matcher *match.Matcher

	// titleCache is keyed by normalized "title|author" and is independent
	// of any per-source cache.
	titleCache *cache.Cache[bookdata.LookupResult]
}

// New creates a Resolver from cfg.
func New(cfg Config) *Resolver {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	matcher := cfg.Matcher
	if matcher == nil {
		matcher = match.NewMatcher()
	}
	return &Resolver{
		sources:    cfg.Sources,
		timeout:    timeout,
		matcher:    matcher,
		titleCache: cache.New[bookdata.LookupResult](cfg.TitleCacheCapacity, cfg.TitleCacheTTL),
	}
}

// SourceNames returns the configured adapter identifiers in priority order.
func (r *Resolver) SourceNames() []string {
	names := make([]string, len(r.sources))
	for i, s := range r.sources {
		names[i] = s.Name()
	}
	return names
}

// ClearCaches resets the title cache and every source-owned cache.
// Intended for test isolation.
func (r *Resolver) ClearCaches() {
	r.titleCache.Clear()
	for _, s := range r.sources {
		if cc, ok := s.(bookdata.CacheClearer); ok {
			cc.ClearCache()
		}
	}
}

// callLookup runs one source's ISBN lookup under the per-source timeout.
func (r *Resolver) callLookup(ctx context.Context, src bookdata.Source, isbn string) (*bookdata.BookData, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return src.LookupISBN(callCtx, isbn)
}

// callSearch runs one source's title search under the per-source timeout.
func (r *Resolver) callSearch(ctx context.Context, src bookdata.Source, title, author string) ([]bookdata.BookData, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return src.SearchTitle(callCtx, title, author)
}

// Package bookdata defines the normalized book record shape shared by all
// catalog sources, the result envelope returned by the resolver, and the
// contract every source adapter implements.
package bookdata

import "context"

// UnknownAuthor is the sentinel adapters substitute when a source omits
// the author entirely.
const UnknownAuthor = "Unknown Author"

// BookData is the normalized record every source adapter produces.
// Empty strings, zero and nil mean "the source did not supply this field";
// adapters never fabricate values beyond light normalization (URL scheme
// upgrade, whitespace trim).
type BookData struct {
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	ISBN          string   `json:"isbn,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	Synopsis      string   `json:"synopsis,omitempty"`
	CoverImageURL string   `json:"cover_image_url,omitempty"`
	OCLCNumber    string   `json:"oclc_number,omitempty"`
	Pages         int      `json:"pages,omitempty"`
	Subjects      []string `json:"subjects,omitempty"`
}

// LookupResult is the envelope the resolver returns to callers. Adapter
// failures never escape as errors; they are folded into this shape.
type LookupResult struct {
	Success bool      `json:"success"`
	Data    *BookData `json:"data,omitempty"`
	Error   string    `json:"error,omitempty"`

	// Source identifies the adapter that supplied Data.
	Source string `json:"source,omitempty"`

	// AttemptedSources lists every adapter actually tried, in attempt order.
	AttemptedSources []string `json:"attempted_sources"`

	// FallbackUsed is true when the first-priority source did not supply
	// the final answer.
	FallbackUsed bool `json:"fallback_used"`
}

// Source is the capability contract each external catalog adapter implements.
// Implementations handle their own request construction, response parsing and
// field normalization; the resolver never inspects source-specific formats.
type Source interface {
	// Name returns the adapter identifier used in results and logs.
	Name() string

	// LookupISBN fetches the record for a canonicalized ISBN.
	// Returns nil, nil when the source has no record for the ISBN,
	// so other sources can be tried.
	LookupISBN(ctx context.Context, isbn string) (*BookData, error)

	// SearchTitle runs a free-text title search, optionally narrowed by
	// author. The returned candidates are loosely related; callers are
	// expected to validate them against the query.
	SearchTitle(ctx context.Context, title, author string) ([]BookData, error)
}

// CacheClearer is implemented by sources that keep an internal lookup cache.
type CacheClearer interface {
	ClearCache()
}

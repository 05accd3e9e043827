package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lepinkainen/biblio/internal/bookdata"
	"github.com/lepinkainen/biblio/internal/isbn"
)

// LookupISBNEnriched queries every source concurrently and merges their
// answers field by field, preferring higher-priority sources. This path
// optimizes for completeness over latency: all calls settle before merging,
// and individual failures only remove that source's contribution.
func (r *Resolver) LookupISBNEnriched(ctx context.Context, rawISBN string) bookdata.LookupResult {
	canonical := isbn.Canonicalize(rawISBN)
	if !isbn.Valid(canonical) {
		return bookdata.LookupResult{
			Success:          false,
			Error:            fmt.Sprintf("invalid ISBN %q: checksum failed", rawISBN),
			AttemptedSources: []string{},
		}
	}

	// Slot per source keeps the merge order deterministic regardless of
	// which call finishes first.
	books := make([]*bookdata.BookData, len(r.sources))
	var wg sync.WaitGroup
	for i, src := range r.sources {
		wg.Add(1)
		go func(i int, src bookdata.Source) {
			defer wg.Done()
			book, err := r.callLookup(ctx, src, canonical)
			if err != nil {
				slog.Warn("Source lookup failed", "source", src.Name(), "isbn", canonical, "error", err)
				return
			}
			books[i] = book
		}(i, src)
	}
	wg.Wait()

	attempted := r.SourceNames()

	var merged *bookdata.BookData
	contributors := 0
	firstSource := ""
	for i, book := range books {
		if book == nil {
			continue
		}
		contributors++
		if merged == nil {
			copied := *book
			merged = &copied
			firstSource = r.sources[i].Name()
			continue
		}
		mergeInto(merged, book)
	}

	if merged == nil {
		return bookdata.LookupResult{
			Success:          false,
			Error:            "Book not found in any source",
			AttemptedSources: attempted,
		}
	}

	if merged.ISBN == "" {
		merged.ISBN = canonical
	}
	if merged.Author == "" {
		merged.Author = bookdata.UnknownAuthor
	}

	return bookdata.LookupResult{
		Success:          true,
		Data:             merged,
		Source:           firstSource,
		AttemptedSources: attempted,
		FallbackUsed:     contributors > 1,
	}
}

// mergeInto fills dst's absent fields from src. Scalars keep the first
// non-empty value; the Subjects slice keeps the first non-empty sequence
// whole, never concatenating across sources. The "Unknown Author" sentinel
// counts as absent so a lower-priority source can supply the real author.
func mergeInto(dst, src *bookdata.BookData) {
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if (dst.Author == "" || dst.Author == bookdata.UnknownAuthor) && src.Author != "" {
		dst.Author = src.Author
	}
	if dst.ISBN == "" {
		dst.ISBN = src.ISBN
	}
	if dst.Publisher == "" {
		dst.Publisher = src.Publisher
	}
	if dst.PublishedDate == "" {
		dst.PublishedDate = src.PublishedDate
	}
	if dst.Synopsis == "" {
		dst.Synopsis = src.Synopsis
	}
	if dst.CoverImageURL == "" {
		dst.CoverImageURL = src.CoverImageURL
	}
	if dst.OCLCNumber == "" {
		dst.OCLCNumber = src.OCLCNumber
	}
	if dst.Pages == 0 {
		dst.Pages = src.Pages
	}
	if len(dst.Subjects) == 0 {
		dst.Subjects = src.Subjects
	}
}

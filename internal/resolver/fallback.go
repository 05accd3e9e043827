package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lepinkainen/biblio/internal/bookdata"
	"github.com/lepinkainen/biblio/internal/isbn"
)

// LookupISBN tries each source in priority order and returns the first
// record found. A source error counts the same as "not found": the next
// source is tried and the reason is kept for the exhaustion message.
func (r *Resolver) LookupISBN(ctx context.Context, rawISBN string) bookdata.LookupResult {
	return r.LookupISBNWithHint(ctx, rawISBN, "", "")
}

// LookupISBNWithHint is LookupISBN with an optional title/author hint. When
// every source is exhausted and a title hint is available, the title/author
// resolver runs as a secondary strategy.
func (r *Resolver) LookupISBNWithHint(ctx context.Context, rawISBN, titleHint, authorHint string) bookdata.LookupResult {
	canonical := isbn.Canonicalize(rawISBN)
	if !isbn.Valid(canonical) {
		return bookdata.LookupResult{
			Success:          false,
			Error:            fmt.Sprintf("invalid ISBN %q: checksum failed", rawISBN),
			AttemptedSources: []string{},
		}
	}

	attempted := make([]string, 0, len(r.sources))
	reasons := make([]string, 0, len(r.sources))

	for i, src := range r.sources {
		attempted = append(attempted, src.Name())
		slog.Debug("Trying source", "source", src.Name(), "isbn", canonical)

		book, err := r.callLookup(ctx, src, canonical)
		if err != nil {
			slog.Warn("Source lookup failed", "source", src.Name(), "isbn", canonical, "error", err)
			reasons = append(reasons, fmt.Sprintf("%s: %s", src.Name(), err.Error()))
			continue
		}
		if book == nil {
			reasons = append(reasons, fmt.Sprintf("%s: Not found", src.Name()))
			continue
		}

		if book.ISBN == "" {
			book.ISBN = canonical
		}
		return bookdata.LookupResult{
			Success:          true,
			Data:             book,
			Source:           src.Name(),
			AttemptedSources: attempted,
			FallbackUsed:     i != 0,
		}
	}

	if titleHint != "" {
		slog.Debug("ISBN lookup exhausted, falling back to title search", "isbn", canonical, "title", titleHint)
		titleResult := r.LookupTitle(ctx, titleHint, authorHint)
		if titleResult.Success {
			titleResult.AttemptedSources = append(attempted, titleResult.AttemptedSources...)
			titleResult.FallbackUsed = true
			if titleResult.Data.ISBN == "" {
				// Copy before annotating; the title cache may hold this record.
				book := *titleResult.Data
				book.ISBN = canonical
				titleResult.Data = &book
			}
			return titleResult
		}
	}

	return bookdata.LookupResult{
		Success:          false,
		Error:            exhaustionError(attempted, reasons),
		AttemptedSources: attempted,
	}
}

// exhaustionError builds the all-sources-failed message, keeping each
// source's individual reason visible to the caller.
func exhaustionError(attempted, reasons []string) string {
	return fmt.Sprintf("Book not found in any source. Tried: %s. Errors: %s",
		strings.Join(attempted, ", "), strings.Join(reasons, "; "))
}

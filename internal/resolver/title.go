package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lepinkainen/biblio/internal/bookdata"
	"github.com/lepinkainen/biblio/internal/match"
)

// LookupTitle searches the sources in priority order for a book matching
// title (and author, when given), validating each source's candidates with
// the fuzzy matcher. Sources are queried strictly one at a time: a match
// from an earlier-priority source always wins, so the calls cannot be raced.
func (r *Resolver) LookupTitle(ctx context.Context, title, author string) bookdata.LookupResult {
	key := match.Normalize(title) + "|" + match.Normalize(author)
	if cached, ok := r.titleCache.Get(key); ok {
		slog.Debug("Title cache hit", "title", title, "author", author)
		return cached
	}

	attempted := make([]string, 0, len(r.sources))

	for i, src := range r.sources {
		attempted = append(attempted, src.Name())
		slog.Debug("Searching source", "source", src.Name(), "title", title, "author", author)

		candidates, err := r.callSearch(ctx, src, title, author)
		if err != nil {
			// Search failures are not fatal; this source simply
			// contributes no candidates.
			slog.Warn("Source search failed", "source", src.Name(), "title", title, "error", err)
			continue
		}

		idx, score, ok := r.matcher.BestMatch(title, author, candidates)
		if !ok {
			slog.Debug("No qualifying candidates", "source", src.Name(), "candidates", len(candidates))
			continue
		}

		book := candidates[idx]
		slog.Debug("Matched candidate", "source", src.Name(), "title", book.Title, "score", score)
		result := bookdata.LookupResult{
			Success:          true,
			Data:             &book,
			Source:           src.Name(),
			AttemptedSources: attempted,
			FallbackUsed:     i != 0,
		}
		r.titleCache.Set(key, result)
		return result
	}

	result := bookdata.LookupResult{
		Success:          false,
		Error:            fmt.Sprintf("no match found for title %q. Tried: %s", title, strings.Join(attempted, ", ")),
		AttemptedSources: attempted,
	}
	r.titleCache.Set(key, result)
	return result
}

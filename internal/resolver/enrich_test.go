package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/biblio/internal/bookdata"
)

func TestEnrichMergePriority(t *testing.T) {
	a := &mockSource{name: "A", lookup: returnsBook(&bookdata.BookData{
		Title:  "X",
		Author: "Author A",
	})}
	b := &mockSource{name: "B", lookup: returnsBook(&bookdata.BookData{
		Title:     "Y",
		Author:    "Author B",
		Publisher: "P",
	})}

	r := newTestResolver(t, a, b)
	result := r.LookupISBNEnriched(context.Background(), pragISBN)

	require.True(t, result.Success)
	assert.Equal(t, "X", result.Data.Title, "higher-priority title wins")
	assert.Equal(t, "Author A", result.Data.Author)
	assert.Equal(t, "P", result.Data.Publisher, "missing fields are filled from lower priority")
	assert.Equal(t, "A", result.Source)
	assert.True(t, result.FallbackUsed, "more than one source contributed")
}

func TestEnrichSingleContributor(t *testing.T) {
	a := &mockSource{name: "A", lookup: returnsBook(&bookdata.BookData{Title: "X", Author: "AA"})}
	b := &mockSource{name: "B"}

	r := newTestResolver(t, a, b)
	result := r.LookupISBNEnriched(context.Background(), pragISBN)

	require.True(t, result.Success)
	assert.False(t, result.FallbackUsed)
	assert.Equal(t, []string{"A", "B"}, result.AttemptedSources, "enrichment always attempts every source")
}

func TestEnrichAllSourcesFail(t *testing.T) {
	a := &mockSource{name: "A", lookup: returnsError(errors.New("down"))}
	b := &mockSource{name: "B"}

	r := newTestResolver(t, a, b)
	result := r.LookupISBNEnriched(context.Background(), pragISBN)

	require.False(t, result.Success)
	assert.Equal(t, "Book not found in any source", result.Error)
	assert.Equal(t, []string{"A", "B"}, result.AttemptedSources)
}

func TestEnrichDeterministicOrderDespiteCompletionOrder(t *testing.T) {
	// The lower-priority source answers immediately, the higher-priority
	// one slowly; the merge must still prefer the slow one's values.
	slow := &mockSource{name: "Slow", lookup: func(ctx context.Context, _ string) (*bookdata.BookData, error) {
		select {
		case <-time.After(30 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return &bookdata.BookData{Title: "Slow Title", Author: "Slow Author"}, nil
	}}
	fast := &mockSource{name: "Fast", lookup: returnsBook(&bookdata.BookData{Title: "Fast Title", Author: "Fast Author"})}

	r := newTestResolver(t, slow, fast)
	result := r.LookupISBNEnriched(context.Background(), pragISBN)

	require.True(t, result.Success)
	assert.Equal(t, "Slow Title", result.Data.Title)
	assert.Equal(t, "Slow", result.Source)
}

func TestEnrichSubjectsKeptWhole(t *testing.T) {
	a := &mockSource{name: "A", lookup: returnsBook(&bookdata.BookData{
		Title:    "X",
		Author:   "AA",
		Subjects: []string{"Fiction", "Satire"},
	})}
	b := &mockSource{name: "B", lookup: returnsBook(&bookdata.BookData{
		Title:    "X",
		Author:   "AA",
		Subjects: []string{"Humor"},
	})}

	r := newTestResolver(t, a, b)
	result := r.LookupISBNEnriched(context.Background(), pragISBN)

	require.True(t, result.Success)
	assert.Equal(t, []string{"Fiction", "Satire"}, result.Data.Subjects,
		"first non-empty subject list wins whole; no concatenation")
}

func TestEnrichUnknownAuthorYieldsToRealAuthor(t *testing.T) {
	a := &mockSource{name: "A", lookup: returnsBook(&bookdata.BookData{
		Title:  "X",
		Author: bookdata.UnknownAuthor,
	})}
	b := &mockSource{name: "B", lookup: returnsBook(&bookdata.BookData{
		Title:  "X",
		Author: "Real Author",
	})}

	r := newTestResolver(t, a, b)
	result := r.LookupISBNEnriched(context.Background(), pragISBN)

	require.True(t, result.Success)
	assert.Equal(t, "Real Author", result.Data.Author)
}

func TestEnrichInvalidISBN(t *testing.T) {
	src := &mockSource{name: "A"}
	r := newTestResolver(t, src)

	result := r.LookupISBNEnriched(context.Background(), "not-an-isbn")

	assert.False(t, result.Success)
	assert.Empty(t, result.AttemptedSources)
	assert.Equal(t, 0, src.lookupCalls)
}

func TestEnrichDoesNotMutateSourceRecords(t *testing.T) {
	original := &bookdata.BookData{Title: "X", Author: "AA"}
	a := &mockSource{name: "A", lookup: returnsBook(original)}
	b := &mockSource{name: "B", lookup: returnsBook(&bookdata.BookData{
		Title:     "Y",
		Author:    "BB",
		Publisher: "P",
	})}

	r := newTestResolver(t, a, b)
	result := r.LookupISBNEnriched(context.Background(), pragISBN)

	require.True(t, result.Success)
	assert.Equal(t, "", original.Publisher, "merge must copy, not mutate, adapter results")
	assert.Equal(t, "P", result.Data.Publisher)
}

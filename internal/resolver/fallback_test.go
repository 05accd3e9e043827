package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/biblio/internal/bookdata"
)

func TestFallbackFirstSourceWins(t *testing.T) {
	book := &bookdata.BookData{Title: "The Pragmatic Programmer", Author: "David Thomas, Andrew Hunt"}
	first := &mockSource{name: "Google Books", lookup: returnsBook(book)}
	second := &mockSource{name: "OpenLibrary"}

	r := newTestResolver(t, first, second)
	result := r.LookupISBN(context.Background(), pragISBN)

	require.True(t, result.Success)
	assert.Equal(t, "Google Books", result.Source)
	assert.Equal(t, []string{"Google Books"}, result.AttemptedSources)
	assert.False(t, result.FallbackUsed)
	assert.Equal(t, 0, second.lookupCalls, "later sources must not be called after a hit")
}

func TestFallbackOrdering(t *testing.T) {
	book := &bookdata.BookData{Title: "Found It", Author: "Second Source"}
	first := &mockSource{name: "A", lookup: returnsError(errors.New("boom"))}
	second := &mockSource{name: "B", lookup: returnsBook(book)}
	third := &mockSource{name: "C"}

	r := newTestResolver(t, first, second, third)
	result := r.LookupISBN(context.Background(), pragISBN)

	require.True(t, result.Success)
	assert.Equal(t, book.Title, result.Data.Title)
	assert.Equal(t, "B", result.Source)
	assert.Equal(t, []string{"A", "B"}, result.AttemptedSources)
	assert.True(t, result.FallbackUsed)
	assert.Equal(t, 0, third.lookupCalls)
}

func TestFallbackTimeoutScenario(t *testing.T) {
	// Source 1 times out, source 2 has the record.
	timedOut := &mockSource{name: "OpenLibrary", lookup: returnsError(context.DeadlineExceeded)}
	hit := &mockSource{name: "Google Books", lookup: returnsBook(&bookdata.BookData{
		Title:  "The Pragmatic Programmer",
		Author: "David Thomas, Andrew Hunt",
	})}

	r := newTestResolver(t, timedOut, hit)
	result := r.LookupISBN(context.Background(), "9780135957059")

	require.True(t, result.Success)
	assert.Equal(t, "Google Books", result.Source)
	assert.True(t, result.FallbackUsed)
	assert.Equal(t, []string{"OpenLibrary", "Google Books"}, result.AttemptedSources)
}

func TestFallbackInvalidISBN(t *testing.T) {
	src := &mockSource{name: "A"}
	r := newTestResolver(t, src)

	result := r.LookupISBN(context.Background(), "12345")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "invalid ISBN")
	assert.Empty(t, result.AttemptedSources)
	assert.Equal(t, 0, src.lookupCalls, "invalid ISBN must short-circuit before any network call")
}

func TestFallbackExhaustionMessage(t *testing.T) {
	first := &mockSource{name: "A", lookup: returnsError(errors.New("http 503"))}
	second := &mockSource{name: "B"} // not found
	third := &mockSource{name: "C", lookup: returnsError(errors.New("timeout"))}

	r := newTestResolver(t, first, second, third)
	result := r.LookupISBN(context.Background(), pragISBN)

	require.False(t, result.Success)
	assert.Equal(t, []string{"A", "B", "C"}, result.AttemptedSources)
	for _, fragment := range []string{"A: http 503", "B: Not found", "C: timeout", "Tried: A, B, C"} {
		assert.Contains(t, result.Error, fragment)
	}
}

func TestFallbackCanonicalizesISBN(t *testing.T) {
	var seen string
	src := &mockSource{name: "A", lookup: func(_ context.Context, isbn string) (*bookdata.BookData, error) {
		seen = isbn
		return &bookdata.BookData{Title: "X", Author: "Y"}, nil
	}}

	r := newTestResolver(t, src)
	result := r.LookupISBN(context.Background(), "978-0-13-595705-9")

	require.True(t, result.Success)
	assert.Equal(t, "9780135957059", seen)
	assert.Equal(t, "9780135957059", result.Data.ISBN, "missing ISBN is filled from the query")
}

func TestHintFallsBackToTitleSearch(t *testing.T) {
	noISBN := &mockSource{name: "A", search: func(context.Context, string, string) ([]bookdata.BookData, error) {
		return []bookdata.BookData{{Title: "The Dispossessed", Author: "Ursula K. Le Guin"}}, nil
	}}
	alsoEmpty := &mockSource{name: "B"}

	r := newTestResolver(t, noISBN, alsoEmpty)
	result := r.LookupISBNWithHint(context.Background(), pragISBN, "The Dispossessed", "Le Guin")

	require.True(t, result.Success)
	assert.Equal(t, "A", result.Source)
	assert.True(t, result.FallbackUsed)
	// ISBN attempts first, then the title search attempts.
	assert.Equal(t, []string{"A", "B", "A"}, result.AttemptedSources)
	assert.Equal(t, "9780135957059", result.Data.ISBN, "hint match inherits the queried ISBN")
}

func TestHintNotUsedWhenEmpty(t *testing.T) {
	src := &mockSource{name: "A"}
	r := newTestResolver(t, src)

	result := r.LookupISBNWithHint(context.Background(), pragISBN, "", "")

	assert.False(t, result.Success)
	assert.Equal(t, 0, src.searchCalls)
}

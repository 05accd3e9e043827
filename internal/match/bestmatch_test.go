package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/biblio/internal/bookdata"
)

func TestBestMatchPicksHighestScore(t *testing.T) {
	m := NewMatcher()
	candidates := []bookdata.BookData{
		{Title: "The Left Hand of Dark Matter", Author: "Someone Else"},
		{Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin"},
		{Title: "Left Hand Path", Author: "Nobody"},
	}

	idx, score, ok := m.BestMatch("The Left Hand of Darkness", "Le Guin", candidates)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 1.0, score)
}

func TestBestMatchNoQualifiers(t *testing.T) {
	m := NewMatcher()
	candidates := []bookdata.BookData{
		{Title: "Cooking for Two", Author: "A Chef"},
		{Title: "Gardening Basics", Author: "A Gardener"},
	}

	idx, _, ok := m.BestMatch("Gravity's Rainbow", "Pynchon", candidates)
	assert.False(t, ok)
	assert.Equal(t, -1, idx)
}

func TestBestMatchTiesKeepFirstSeen(t *testing.T) {
	m := NewMatcher()
	// Two identical candidates from the same source: the first wins.
	candidates := []bookdata.BookData{
		{Title: "Dune", Author: "Frank Herbert"},
		{Title: "Dune", Author: "Frank Herbert"},
	}

	idx, _, ok := m.BestMatch("Dune", "Frank Herbert", candidates)
	require.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestBestMatchEmptyCandidates(t *testing.T) {
	m := NewMatcher()
	_, _, ok := m.BestMatch("Anything", "", nil)
	assert.False(t, ok)
}

package match

import "github.com/lepinkainen/biblio/internal/bookdata"

// BestMatch picks the highest-scoring candidate that passes IsMatch,
// returning its index. Ties keep the first-seen candidate so earlier results
// from a source rank ahead on equal scores. ok is false when no candidate
// qualifies.
func (m *Matcher) BestMatch(queryTitle, queryAuthor string, candidates []bookdata.BookData) (best int, score float64, ok bool) {
	best = -1
	for i, c := range candidates {
		if !m.IsMatch(queryTitle, queryAuthor, c.Title, c.Author) {
			continue
		}
		s := m.Score(queryTitle, queryAuthor, c.Title, c.Author)
		if !ok || s > score {
			best, score, ok = i, s, true
		}
	}
	return best, score, ok
}

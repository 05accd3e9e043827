// Package openlibrary adapts the OpenLibrary books and search APIs to the
// bookdata.Source contract.
package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lepinkainen/biblio/internal/bookdata"
	"github.com/lepinkainen/biblio/internal/cache"
	"github.com/lepinkainen/biblio/internal/errors"
	"github.com/lepinkainen/biblio/internal/match"
	"github.com/lepinkainen/biblio/internal/ratelimit"
)

// Name is the adapter identifier reported in lookup results.
const Name = "OpenLibrary"

const (
	defaultTimeout = 10 * time.Second
	searchLimit    = 10
)

// baseURL is a var so tests can point the client at a test server.
var baseURL = "https://openlibrary.org"

// coverBaseURL serves cover images by OpenLibrary cover id.
var coverBaseURL = "https://covers.openlibrary.org"

// Options configures a Client. Zero values select the defaults.
type Options struct {
	Timeout       time.Duration
	CacheCapacity int
	CacheTTL      time.Duration
}

// Client implements bookdata.Source for OpenLibrary. It owns its caches;
// both found and not-found lookups are cached so a source without a record
// for an ISBN is not re-queried.
type Client struct {
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	lookups    *cache.Cache[lookupOutcome]
	searches   *cache.Cache[[]bookdata.BookData]
}

var _ bookdata.Source = (*Client)(nil)

// lookupOutcome is the cached result of one ISBN lookup.
type lookupOutcome struct {
	Book     *bookdata.BookData
	NotFound bool
}

// New creates an OpenLibrary client.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    ratelimit.New(Name, 1),
		lookups:    cache.New[lookupOutcome](opts.CacheCapacity, opts.CacheTTL),
		searches:   cache.New[[]bookdata.BookData](opts.CacheCapacity, opts.CacheTTL),
	}
}

// Name returns the adapter identifier.
func (c *Client) Name() string {
	return Name
}

// ClearCache drops all cached lookups and searches.
func (c *Client) ClearCache() {
	c.lookups.Clear()
	c.searches.Clear()
}

// olBook matches the jscmd=data response shape of the books API.
type olBook struct {
	Title       string `json:"title"`
	PublishDate string `json:"publish_date"`
	Publishers  []struct {
		Name string `json:"name"`
	} `json:"publishers"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Cover struct {
		Large  string `json:"large"`
		Medium string `json:"medium"`
	} `json:"cover"`
	Subjects      []any `json:"subjects"`
	NumberOfPages int   `json:"number_of_pages"`
	Excerpts      []struct {
		Text string `json:"text"`
	} `json:"excerpts"`
	Identifiers struct {
		OCLC []string `json:"oclc"`
	} `json:"identifiers"`
	Description any `json:"description"`
}

// LookupISBN fetches a record via the books API. Returns nil, nil when
// OpenLibrary has no record for the ISBN.
func (c *Client) LookupISBN(ctx context.Context, isbn string) (*bookdata.BookData, error) {
	if outcome, ok := c.lookups.Get(isbn); ok {
		slog.Debug("Cache hit", "source", Name, "isbn", isbn, "not_found", outcome.NotFound)
		if outcome.NotFound {
			return nil, nil
		}
		return outcome.Book, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/books?bibkeys=ISBN:%s&format=json&jscmd=data", baseURL, isbn)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OpenLibrary request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errors.NewRateLimitError(Name)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenLibrary returned status %d", resp.StatusCode)
	}

	var result map[string]olBook
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding OpenLibrary response: %w", err)
	}

	raw, ok := result["ISBN:"+isbn]
	if !ok || raw.Title == "" {
		c.lookups.Set(isbn, lookupOutcome{NotFound: true})
		return nil, nil
	}

	book := convertBook(isbn, raw)
	c.lookups.Set(isbn, lookupOutcome{Book: book})
	return book, nil
}

func convertBook(isbn string, raw olBook) *bookdata.BookData {
	book := &bookdata.BookData{
		Title:         strings.TrimSpace(raw.Title),
		Author:        joinAuthors(raw),
		ISBN:          isbn,
		PublishedDate: strings.TrimSpace(raw.PublishDate),
		Pages:         raw.NumberOfPages,
	}

	if len(raw.Publishers) > 0 {
		book.Publisher = strings.TrimSpace(raw.Publishers[0].Name)
	}

	cover := raw.Cover.Large
	if cover == "" {
		cover = raw.Cover.Medium
	}
	book.CoverImageURL = upgradeScheme(cover)

	if desc := extractDescription(raw.Description); desc != "" {
		book.Synopsis = desc
	} else if len(raw.Excerpts) > 0 {
		book.Synopsis = strings.TrimSpace(raw.Excerpts[0].Text)
	}

	if len(raw.Identifiers.OCLC) > 0 {
		book.OCLCNumber = raw.Identifiers.OCLC[0]
	}

	book.Subjects = extractSubjects(raw.Subjects)
	return book
}

func joinAuthors(raw olBook) string {
	names := make([]string, 0, len(raw.Authors))
	for _, a := range raw.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return bookdata.UnknownAuthor
	}
	return strings.Join(names, ", ")
}

// searchResponse matches the search.json response shape.
type searchResponse struct {
	Docs []struct {
		Title            string   `json:"title"`
		AuthorName       []string `json:"author_name"`
		FirstPublishYear int      `json:"first_publish_year"`
		CoverID          int      `json:"cover_i"`
		ISBN             []string `json:"isbn"`
		Publisher        []string `json:"publisher"`
		Subject          []string `json:"subject"`
		NumberOfPagesMed int      `json:"number_of_pages_median"`
	} `json:"docs"`
}

// SearchTitle runs a free-text search. Results are loose candidates; the
// caller validates them against the query.
func (c *Client) SearchTitle(ctx context.Context, title, author string) ([]bookdata.BookData, error) {
	key := match.Normalize(title) + "|" + match.Normalize(author)
	if books, ok := c.searches.Get(key); ok {
		slog.Debug("Cache hit", "source", Name, "title", title, "author", author)
		return books, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("title", title)
	if author != "" {
		q.Set("author", author)
	}
	q.Set("limit", strconv.Itoa(searchLimit))

	endpoint := baseURL + "/search.json?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OpenLibrary search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errors.NewRateLimitError(Name)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenLibrary search returned status %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding OpenLibrary search response: %w", err)
	}

	books := make([]bookdata.BookData, 0, len(result.Docs))
	for _, doc := range result.Docs {
		if doc.Title == "" {
			continue
		}
		book := bookdata.BookData{
			Title:    strings.TrimSpace(doc.Title),
			Author:   bookdata.UnknownAuthor,
			Pages:    doc.NumberOfPagesMed,
			Subjects: doc.Subject,
		}
		if len(doc.AuthorName) > 0 {
			book.Author = strings.Join(doc.AuthorName, ", ")
		}
		if len(doc.ISBN) > 0 {
			book.ISBN = doc.ISBN[0]
		}
		if len(doc.Publisher) > 0 {
			book.Publisher = doc.Publisher[0]
		}
		if doc.FirstPublishYear > 0 {
			book.PublishedDate = strconv.Itoa(doc.FirstPublishYear)
		}
		if doc.CoverID > 0 {
			book.CoverImageURL = fmt.Sprintf("%s/b/id/%d-L.jpg", coverBaseURL, doc.CoverID)
		}
		books = append(books, book)
	}

	c.searches.Set(key, books)
	return books, nil
}

// extractDescription handles the two shapes the description field takes:
// a plain string or an object with a "value" key.
func extractDescription(desc any) string {
	switch v := desc.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		if val, ok := v["value"].(string); ok {
			return strings.TrimSpace(val)
		}
	}
	return ""
}

// extractSubjects converts the mixed-type subjects list to names.
func extractSubjects(items []any) []string {
	if len(items) == 0 {
		return nil
	}
	subjects := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			subjects = append(subjects, v)
		case map[string]any:
			if name, ok := v["name"].(string); ok {
				subjects = append(subjects, name)
			}
		}
	}
	return subjects
}

// upgradeScheme rewrites plain-HTTP image URLs to HTTPS.
func upgradeScheme(u string) string {
	if strings.HasPrefix(u, "http://") {
		return "https://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

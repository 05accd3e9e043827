// Package googlebooks adapts the Google Books volumes API to the
// bookdata.Source contract.
package googlebooks

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
const Name = "Google Books"

const (
	defaultTimeout = 10 * time.Second
	searchLimit    = 10
)

// baseURL is a var so tests can point the client at a test server.
var baseURL = "https://www.googleapis.com/books/v1"

// Options configures a Client. Zero values select the defaults.
type Options struct {
	APIKey        string
	Timeout       time.Duration
	CacheCapacity int
	CacheTTL      time.Duration
}

// Client implements bookdata.Source for the Google Books API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	lookups    *cache.Cache[lookupOutcome]
	searches   *cache.Cache[[]bookdata.BookData]
}

var _ bookdata.Source = (*Client)(nil)

type lookupOutcome struct {
	Book     *bookdata.BookData
	NotFound bool
}

// New creates a Google Books client. The API key is optional; anonymous
// requests work with tighter quotas.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:     opts.APIKey,
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

// volumesResponse matches the volumes API response shape.
type volumesResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo volumeInfo `json:"volumeInfo"`
	} `json:"items"`
}

type volumeInfo struct {
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Publisher     string   `json:"publisher"`
	PublishedDate string   `json:"publishedDate"`
	Description   string   `json:"description"`
	PageCount     int      `json:"pageCount"`
	Categories    []string `json:"categories"`
	ImageLinks    struct {
		Thumbnail      string `json:"thumbnail"`
		SmallThumbnail string `json:"smallThumbnail"`
	} `json:"imageLinks"`
	IndustryIdentifiers []struct {
		Type       string `json:"type"`
		Identifier string `json:"identifier"`
	} `json:"industryIdentifiers"`
}

// LookupISBN fetches the best volume for an ISBN. Returns nil, nil when no
// volume matches.
func (c *Client) LookupISBN(ctx context.Context, isbn string) (*bookdata.BookData, error) {
	if outcome, ok := c.lookups.Get(isbn); ok {
		slog.Debug("Cache hit", "source", Name, "isbn", isbn, "not_found", outcome.NotFound)
		if outcome.NotFound {
			return nil, nil
		}
		return outcome.Book, nil
	}

	result, err := c.queryVolumes(ctx, "isbn:"+isbn)
	if err != nil {
		return nil, err
	}

	if result.TotalItems == 0 || len(result.Items) == 0 {
		c.lookups.Set(isbn, lookupOutcome{NotFound: true})
		return nil, nil
	}

	book := convertVolume(result.Items[0].VolumeInfo)
	if book.ISBN == "" {
		book.ISBN = isbn
	}
	c.lookups.Set(isbn, lookupOutcome{Book: book})
	return book, nil
}

// SearchTitle searches volumes by title, narrowed by author when given.
func (c *Client) SearchTitle(ctx context.Context, title, author string) ([]bookdata.BookData, error) {
	key := match.Normalize(title) + "|" + match.Normalize(author)
	if books, ok := c.searches.Get(key); ok {
		slog.Debug("Cache hit", "source", Name, "title", title, "author", author)
		return books, nil
	}

	query := fmt.Sprintf("intitle:%q", title)
	if author != "" {
		query += fmt.Sprintf("+inauthor:%q", author)
	}

	result, err := c.queryVolumes(ctx, query)
	if err != nil {
		return nil, err
	}

	books := make([]bookdata.BookData, 0, len(result.Items))
	for _, item := range result.Items {
		if item.VolumeInfo.Title == "" {
			continue
		}
		books = append(books, *convertVolume(item.VolumeInfo))
	}

	c.searches.Set(key, books)
	return books, nil
}

func (c *Client) queryVolumes(ctx context.Context, query string) (*volumesResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("maxResults", strconv.Itoa(searchLimit))
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	endpoint := baseURL + "/volumes?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Google Books request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errors.NewRateLimitError(Name)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Google Books returned status %d", resp.StatusCode)
	}

	var result volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding Google Books response: %w", err)
	}
	return &result, nil
}

func convertVolume(vol volumeInfo) *bookdata.BookData {
	book := &bookdata.BookData{
		Title:         strings.TrimSpace(vol.Title),
		Author:        bookdata.UnknownAuthor,
		Publisher:     strings.TrimSpace(vol.Publisher),
		PublishedDate: strings.TrimSpace(vol.PublishedDate),
		Synopsis:      strings.TrimSpace(vol.Description),
		Pages:         vol.PageCount,
		Subjects:      vol.Categories,
	}

	if len(vol.Authors) > 0 {
		book.Author = strings.Join(vol.Authors, ", ")
	}

	for _, id := range vol.IndustryIdentifiers {
		if id.Type == "ISBN_13" {
			book.ISBN = id.Identifier
			break
		}
		if id.Type == "ISBN_10" && book.ISBN == "" {
			book.ISBN = id.Identifier
		}
	}

	cover := vol.ImageLinks.Thumbnail
	if cover == "" {
		cover = vol.ImageLinks.SmallThumbnail
	}
	if cover != "" {
		// zoom=0 serves the larger image.
		cover = strings.Replace(cover, "zoom=1", "zoom=0", 1)
		book.CoverImageURL = upgradeScheme(cover)
	}

	return book
}

// upgradeScheme rewrites plain-HTTP image URLs to HTTPS; the volumes API
// still hands out http:// thumbnail links.
func upgradeScheme(u string) string {
	if strings.HasPrefix(u, "http://") {
		return "https://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

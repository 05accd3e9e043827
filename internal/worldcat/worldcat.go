// Package worldcat adapts the OCLC Classify service (WorldCat's
// classification API) to the bookdata.Source contract. Classify answers in
// XML and carries less bibliographic detail than the JSON catalogs, so this
// source sits last in the default priority order.
package worldcat

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lepinkainen/biblio/internal/bookdata"
	"github.com/lepinkainen/biblio/internal/cache"
	"github.com/lepinkainen/biblio/internal/match"
	"github.com/lepinkainen/biblio/internal/ratelimit"
)

// Name is the adapter identifier reported in lookup results.
const Name = "WorldCat"

const defaultTimeout = 10 * time.Second

// Classify response codes: 0 and 2 are single-work answers, 4 is a
// multi-work list, 100+ are "no data" conditions.
const (
	codeSingleWork    = 0
	codeSingleSummary = 2
	codeMultiWork     = 4
)

// baseURL is a var so tests can point the client at a test server.
var baseURL = "http://classify.oclc.org/classify2"

// Options configures a Client. Zero values select the defaults.
type Options struct {
	Timeout       time.Duration
	CacheCapacity int
	CacheTTL      time.Duration
}

// Client implements bookdata.Source for OCLC Classify.
type Client struct {
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

// New creates a Classify client.
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

// classifyResponse matches the Classify XML envelope.
type classifyResponse struct {
	XMLName  xml.Name `xml:"classify"`
	Response struct {
		Code int `xml:"code,attr"`
	} `xml:"response"`
	Work struct {
		Title  string `xml:"title,attr"`
		Author string `xml:"author,attr"`
		OWI    string `xml:"owi,attr"`
		Year   string `xml:"hyr,attr"`
		OCLC   string `xml:",chardata"`
	} `xml:"work"`
	Works struct {
		Work []classifyWork `xml:"work"`
	} `xml:"works"`
}

type classifyWork struct {
	Title  string `xml:"title,attr"`
	Author string `xml:"author,attr"`
	OWI    string `xml:"owi,attr"`
	Year   string `xml:"hyr,attr"`
	OCLC   string `xml:"oclc,attr"`
}

// LookupISBN fetches classification data for an ISBN. Returns nil, nil when
// Classify has no work for it.
func (c *Client) LookupISBN(ctx context.Context, isbn string) (*bookdata.BookData, error) {
	if outcome, ok := c.lookups.Get(isbn); ok {
		slog.Debug("Cache hit", "source", Name, "isbn", isbn, "not_found", outcome.NotFound)
		if outcome.NotFound {
			return nil, nil
		}
		return outcome.Book, nil
	}

	q := url.Values{}
	q.Set("isbn", isbn)
	q.Set("summary", "true")

	doc, err := c.query(ctx, q)
	if err != nil {
		return nil, err
	}

	book := firstWork(doc, isbn)
	if book == nil {
		c.lookups.Set(isbn, lookupOutcome{NotFound: true})
		return nil, nil
	}

	c.lookups.Set(isbn, lookupOutcome{Book: book})
	return book, nil
}

// SearchTitle searches Classify by title and optional author.
func (c *Client) SearchTitle(ctx context.Context, title, author string) ([]bookdata.BookData, error) {
	key := match.Normalize(title) + "|" + match.Normalize(author)
	if books, ok := c.searches.Get(key); ok {
		slog.Debug("Cache hit", "source", Name, "title", title, "author", author)
		return books, nil
	}

	q := url.Values{}
	q.Set("title", title)
	if author != "" {
		q.Set("author", author)
	}
	q.Set("summary", "true")

	doc, err := c.query(ctx, q)
	if err != nil {
		return nil, err
	}

	var books []bookdata.BookData
	switch doc.Response.Code {
	case codeSingleWork, codeSingleSummary:
		if b := firstWork(doc, ""); b != nil {
			books = append(books, *b)
		}
	case codeMultiWork:
		for _, w := range doc.Works.Work {
			if b := convertWork(w.Title, w.Author, w.Year, w.OCLC, ""); b != nil {
				books = append(books, *b)
			}
		}
	}

	c.searches.Set(key, books)
	return books, nil
}

func (c *Client) query(ctx context.Context, q url.Values) (*classifyResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := baseURL + "/Classify?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("WorldCat request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("WorldCat returned status %d", resp.StatusCode)
	}

	var doc classifyResponse
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding WorldCat response: %w", err)
	}
	return &doc, nil
}

// firstWork extracts the best work from a Classify response, whichever form
// the response took.
func firstWork(doc *classifyResponse, isbn string) *bookdata.BookData {
	switch doc.Response.Code {
	case codeSingleWork, codeSingleSummary:
		oclc := strings.TrimSpace(doc.Work.OCLC)
		if b := convertWork(doc.Work.Title, doc.Work.Author, doc.Work.Year, oclc, isbn); b != nil {
			return b
		}
	case codeMultiWork:
		if len(doc.Works.Work) > 0 {
			w := doc.Works.Work[0]
			return convertWork(w.Title, w.Author, w.Year, w.OCLC, isbn)
		}
	}
	return nil
}

func convertWork(title, author, year, oclc, isbn string) *bookdata.BookData {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}

	book := &bookdata.BookData{
		Title:         title,
		Author:        bookdata.UnknownAuthor,
		ISBN:          isbn,
		PublishedDate: strings.TrimSpace(year),
		OCLCNumber:    strings.TrimSpace(oclc),
	}
	// Classify reports authors "Family, Given | Other Author"; keep the
	// first listed name.
	if a := strings.TrimSpace(author); a != "" {
		book.Author = strings.TrimSpace(strings.Split(a, "|")[0])
	}
	return book
}

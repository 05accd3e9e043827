package datastore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// DatasetteClient implements Store against a remote Datasette instance
// running the datasette-insert plugin.
type DatasetteClient struct {
	baseURL  string
	apiToken string
	client   *http.Client
}

var _ Store = (*DatasetteClient)(nil)

// NewDatasetteClient creates a client for the given Datasette base URL.
func NewDatasetteClient(baseURL, apiToken string) *DatasetteClient {
	return &DatasetteClient{
		baseURL:  baseURL,
		apiToken: apiToken,
		client:   &http.Client{},
	}
}

// Connect validates the configured base URL.
func (c *DatasetteClient) Connect() error {
	if _, err := url.Parse(c.baseURL); err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	return nil
}

// SaveRecords sends records to the Datasette insert API. The plugin creates
// the table on first insert.
func (c *DatasetteClient) SaveRecords(records []Record) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]map[string]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, map[string]any{
			"isbn":            r.Book.ISBN,
			"title":           r.Book.Title,
			"author":          r.Book.Author,
			"publisher":       r.Book.Publisher,
			"published_date":  r.Book.PublishedDate,
			"synopsis":        r.Book.Synopsis,
			"cover_image_url": r.Book.CoverImageURL,
			"oclc_number":     r.Book.OCLCNumber,
			"pages":           r.Book.Pages,
			"subjects":        strings.Join(r.Book.Subjects, ", "),
			"source":          r.Source,
		})
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = path.Join(u.Path, "-/insert/biblio/books")
	q := u.Query()
	q.Set("pk", "isbn")
	q.Set("alter", "1")
	u.RawQuery = q.Encode()

	payload, err := json.Marshal(map[string]any{"rows": rows})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, u.String(), bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var errResp map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
			return fmt.Errorf("request failed with status %d", resp.StatusCode)
		}
		return fmt.Errorf("API error: %v", errResp)
	}
	return nil
}

// Close is a no-op for the HTTP client.
func (c *DatasetteClient) Close() error {
	return nil
}

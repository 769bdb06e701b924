// Package arxiv implements the papersources.FetchSource interface for the
// arXiv Atom API.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/venturelens/paper-scout/internal/domain"
	"github.com/venturelens/paper-scout/internal/papersources"
)

const (
	// DefaultBaseURL is the default arXiv API base URL.
	DefaultBaseURL = "https://export.arxiv.org/api"

	// DefaultRateLimit is the default rate limit (3 requests per second).
	DefaultRateLimit = 3.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultPageSize is the default number of entries per API page.
	DefaultPageSize = 100

	// DefaultMaxResults is the default cap on entries fetched per call.
	DefaultMaxResults = 2000

	// sourceName is the human-readable name for this source.
	sourceName = "arXiv"
)

// arxivIDRegex extracts the arXiv ID from the full entry URL, dropping the
// version suffix. Matches patterns like "http://arxiv.org/abs/2301.12345v1"
// or "http://arxiv.org/abs/hep-th/9901001v1".
var arxivIDRegex = regexp.MustCompile(`arxiv\.org/abs/(.+?)(?:v\d+)?$`)

// Config holds configuration for the arXiv client.
type Config struct {
	// BaseURL is the arXiv API base URL.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// PageSize is the number of entries requested per API page.
	PageSize int

	// MaxResults caps the entries fetched per category per call.
	MaxResults int
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
}

// Client implements the papersources.FetchSource interface for arXiv.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

// Ensure Client implements FetchSource interface.
var _ papersources.FetchSource = (*Client)(nil)

// New creates a new arXiv client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
		UserAgent: "PaperScout/1.0",
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new arXiv client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// Fetch returns all papers submitted to the given category within the
// inclusive [from, until] window, paging through the Atom API until the
// feed is exhausted or the configured result cap is reached.
func (c *Client) Fetch(ctx context.Context, category string, from, until time.Time) ([]domain.Paper, error) {
	var papers []domain.Paper

	for start := 0; start < c.config.MaxResults; start += c.config.PageSize {
		feed, err := c.fetchPage(ctx, category, from, until, start)
		if err != nil {
			return nil, err
		}

		for i := range feed.Entries {
			if paper, ok := entryToPaper(&feed.Entries[i]); ok {
				papers = append(papers, paper)
			}
		}

		if start+len(feed.Entries) >= feed.TotalResults || len(feed.Entries) == 0 {
			break
		}
	}

	return papers, nil
}

// fetchPage executes a single paged query against the Atom API.
func (c *Client) fetchPage(ctx context.Context, category string, from, until time.Time, start int) (*Feed, error) {
	searchURL, err := c.buildSearchURL(category, from, until, start)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(
			sourceName,
			resp.StatusCode,
			string(body),
			nil,
		)
	}

	// Parse the Atom XML response (limit body to 10MB).
	var feed Feed
	if err := xml.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &feed, nil
}

// buildSearchURL constructs the arXiv search API URL for one page.
func (c *Client) buildSearchURL(category string, from, until time.Time, start int) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/query"

	// A bare top-level category like "cs" matches all of its subcategories;
	// a fully qualified tag like "cs.LG" is used as-is.
	catQuery := "cat:" + category
	if !strings.Contains(category, ".") {
		catQuery += ".*"
	}

	dateFilter := fmt.Sprintf("submittedDate:[%s0000 TO %s2359]",
		from.Format("20060102"), until.Format("20060102"))

	query := url.Values{}
	query.Set("search_query", catQuery+" AND "+dateFilter)
	query.Set("start", strconv.Itoa(start))
	query.Set("max_results", strconv.Itoa(c.config.PageSize))
	query.Set("sortBy", "submittedDate")
	query.Set("sortOrder", "ascending")

	baseURL.RawQuery = query.Encode()
	return baseURL.String(), nil
}

// entryToPaper converts an arXiv Atom entry to a domain Paper.
// Returns false when the entry carries no usable identifier.
func entryToPaper(entry *Entry) (domain.Paper, bool) {
	id := extractArXivID(entry.ID)
	if id == "" {
		return domain.Paper{}, false
	}

	categories := make([]string, 0, len(entry.Categories))
	for _, cat := range entry.Categories {
		if cat.Term != "" {
			categories = append(categories, cat.Term)
		}
	}

	authors := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			authors = append(authors, name)
		}
	}

	return domain.Paper{
		ID:         id,
		Title:      normalizeWhitespace(entry.Title),
		Categories: strings.Join(categories, " "),
		Abstract:   normalizeWhitespace(entry.Summary),
		DOI:        strings.TrimSpace(entry.DOI),
		Created:    isoDate(entry.Published),
		Updated:    isoDate(entry.Updated),
		Authors:    strings.Join(authors, ", "),
		Score:      domain.ScoreUnscored,
	}, true
}

// extractArXivID extracts the arXiv ID from the full entry URL.
// Input: "http://arxiv.org/abs/2301.12345v1" -> "2301.12345"
func extractArXivID(entryURL string) string {
	matches := arxivIDRegex.FindStringSubmatch(entryURL)
	if len(matches) < 2 {
		return ""
	}
	return matches[1]
}

// isoDate converts an RFC3339 timestamp to an ISO date string.
// Returns empty string when the input does not parse.
func isoDate(ts string) string {
	if ts == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// normalizeWhitespace trims and collapses multiple whitespace characters.
// arXiv titles and abstracts include embedded newlines and indentation.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

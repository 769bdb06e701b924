package arxiv

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venturelens/paper-scout/internal/domain"
	"github.com/venturelens/paper-scout/internal/papersources"
)

// newTestClient creates a client configured for testing with the given server URL.
func newTestClient(serverURL string, pageSize int) *Client {
	cfg := Config{
		BaseURL:    serverURL,
		Timeout:    5 * time.Second,
		RateLimit:  100, // High rate for testing
		BurstSize:  100,
		PageSize:   pageSize,
		MaxResults: 1000,
	}

	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
		UserAgent: "TestClient/1.0",
	})

	return NewWithHTTPClient(cfg, httpClient)
}

// sampleFeed returns a one-entry Atom feed document for testing.
func sampleFeed(total int) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <opensearch:totalResults xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/">%d</opensearch:totalResults>
  <entry>
    <id>http://arxiv.org/abs/2301.12345v2</id>
    <title>Deep   Learning
      for Everything</title>
    <summary>
      We propose a method.
      It works well.
    </summary>
    <published>2023-01-15T18:30:00Z</published>
    <updated>2023-01-20T10:00:00Z</updated>
    <author><name>Ada Lovelace</name></author>
    <author><name>Alan Turing</name></author>
    <category term="cs.LG"/>
    <category term="stat.ML"/>
  </entry>
</feed>`, total)
}

func TestFetch(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, sampleFeed(1))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 100)
	from := time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)
	until := time.Date(2023, 1, 17, 0, 0, 0, 0, time.UTC)

	papers, err := client.Fetch(context.Background(), "cs", from, until)
	require.NoError(t, err)
	require.Len(t, papers, 1)

	p := papers[0]
	assert.Equal(t, "2301.12345", p.ID, "version suffix should be stripped")
	assert.Equal(t, "Deep Learning for Everything", p.Title, "whitespace should be collapsed")
	assert.Equal(t, "We propose a method. It works well.", p.Abstract)
	assert.Equal(t, "cs.LG stat.ML", p.Categories)
	assert.Equal(t, "2023-01-15", p.Created)
	assert.Equal(t, "2023-01-20", p.Updated)
	assert.Equal(t, "Ada Lovelace, Alan Turing", p.Authors)
	assert.False(t, p.Scored())

	assert.Contains(t, gotQuery, "cat:cs.*")
	assert.Contains(t, gotQuery, "submittedDate:[202301100000 TO 202301172359]")
}

func TestFetchQualifiedCategory(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		fmt.Fprint(w, sampleFeed(1))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 100)
	_, err := client.Fetch(context.Background(), "cs.LG", time.Now(), time.Now())
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "cat:cs.LG AND")
	assert.NotContains(t, gotQuery, "cs.LG.*")
}

func TestFetchPaging(t *testing.T) {
	var starts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		starts = append(starts, r.URL.Query().Get("start"))
		// Total of 3 results, one entry per page.
		fmt.Fprint(w, sampleFeed(3))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 1)
	papers, err := client.Fetch(context.Background(), "cs", time.Now(), time.Now())
	require.NoError(t, err)

	assert.Len(t, papers, 3)
	assert.Equal(t, []string{"0", "1", "2"}, starts)
}

func TestFetchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 100)
	_, err := client.Fetch(context.Background(), "cs", time.Now(), time.Now())
	require.Error(t, err)

	var apiErr *domain.ExternalAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "arXiv", apiErr.Source)
}

func TestFetchMalformedFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "this is not XML")
	}))
	defer server.Close()

	client := newTestClient(server.URL, 100)
	_, err := client.Fetch(context.Background(), "cs", time.Now(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}

func TestExtractArXivID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://arxiv.org/abs/2301.12345v1", "2301.12345"},
		{"http://arxiv.org/abs/2301.12345", "2301.12345"},
		{"http://arxiv.org/abs/hep-th/9901001v3", "hep-th/9901001"},
		{"http://example.com/other", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, extractArXivID(tt.in))
		})
	}
}

func TestEntryToPaperNoID(t *testing.T) {
	_, ok := entryToPaper(&Entry{ID: "garbage", Title: "x"})
	assert.False(t, ok)
}

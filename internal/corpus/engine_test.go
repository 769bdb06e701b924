package corpus

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venturelens/paper-scout/internal/domain"
)

type fakeLoader struct {
	papers       []domain.Paper
	watermark    time.Time
	hasWatermark bool
}

func (f *fakeLoader) Load() ([]domain.Paper, error) {
	out := make([]domain.Paper, len(f.papers))
	copy(out, f.papers)
	return out, nil
}

func (f *fakeLoader) Watermark() (time.Time, bool) { return f.watermark, f.hasWatermark }

func fixturePapers() []domain.Paper {
	return []domain.Paper{
		{
			ID: "2408.00001", Title: "Neural Reranking for Search",
			Categories: "cs.IR cs.LG", Abstract: "We study reranking.",
			Authors: "Ada Lovelace", Created: "2026-08-01", Updated: "2026-08-02",
			Score: 8, Reasoning: "strong",
		},
		{
			ID: "2408.00002", Title: "Sparse Attention Kernels",
			Categories: "cs.LG", Abstract: "Kernels for sparse attention.",
			Authors: "Grace Hopper", Created: "2026-08-03", Updated: "2026-08-03",
			Score: 4, Reasoning: "niche",
		},
		{
			ID: "2408.00003", Title: "Bayesian Model Averaging",
			Categories: "stat.ME", Abstract: "A Bayesian treatment.",
			Authors: "Thomas Bayes", Created: "2026-08-02", Updated: "2026-08-04",
		},
	}
}

func newTestEngine(loader Loader) *Engine {
	return NewEngine(loader, zerolog.Nop())
}

func TestListNoFilters(t *testing.T) {
	engine := newTestEngine(&fakeLoader{papers: fixturePapers()})

	result, err := engine.List(ListParams{Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.TotalPages)
	assert.Len(t, result.Papers, 3)
}

func TestListSearch(t *testing.T) {
	engine := newTestEngine(&fakeLoader{papers: fixturePapers()})

	tests := []struct {
		name    string
		search  string
		wantIDs []string
	}{
		{"title match case insensitive", "SPARSE", []string{"2408.00002"}},
		{"abstract match", "bayesian treatment", []string{"2408.00003"}},
		{"author match", "hopper", []string{"2408.00002"}},
		{"no match", "quantum", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.List(ListParams{Search: tt.search, Page: 1, PerPage: 20})
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, ids(result.Papers))
		})
	}
}

func TestListCategoryFilter(t *testing.T) {
	engine := newTestEngine(&fakeLoader{papers: fixturePapers()})

	result, err := engine.List(ListParams{Category: "cs.LG", Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.Equal(t, []string{"2408.00001", "2408.00002"}, ids(result.Papers))

	result, err = engine.List(ListParams{Category: "stat", Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.Equal(t, []string{"2408.00003"}, ids(result.Papers))
}

func TestListScoreBoundsExcludeUnscored(t *testing.T) {
	engine := newTestEngine(&fakeLoader{papers: fixturePapers()})
	min := 1.0

	result, err := engine.List(ListParams{MinScore: &min, Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total, "the unscored paper is excluded once a bound is set")

	max := 5.0
	result, err = engine.List(ListParams{MaxScore: &max, Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.Equal(t, []string{"2408.00002"}, ids(result.Papers))
}

func TestListScoreFilterMonotone(t *testing.T) {
	engine := newTestEngine(&fakeLoader{papers: fixturePapers()})

	prev := len(fixturePapers()) + 1
	for _, bound := range []float64{0, 2, 5, 9, 10} {
		min := bound
		result, err := engine.List(ListParams{MinScore: &min, Page: 1, PerPage: 20})
		require.NoError(t, err)
		assert.LessOrEqual(t, result.Total, prev, "raising min_score can only shrink the result")
		prev = result.Total
	}
}

func TestListSortScoreDescMissingLast(t *testing.T) {
	engine := newTestEngine(&fakeLoader{papers: fixturePapers()})

	result, err := engine.List(ListParams{SortBy: SortScore, SortOrder: OrderDesc, Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.Equal(t, []string{"2408.00001", "2408.00002", "2408.00003"}, ids(result.Papers))

	// Ascending still puts the unscored row last.
	result, err = engine.List(ListParams{SortBy: SortScore, SortOrder: OrderAsc, Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.Equal(t, []string{"2408.00002", "2408.00001", "2408.00003"}, ids(result.Papers))
}

func TestListSortTitleAsc(t *testing.T) {
	engine := newTestEngine(&fakeLoader{papers: fixturePapers()})

	result, err := engine.List(ListParams{SortBy: SortTitle, SortOrder: OrderAsc, Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.Equal(t, []string{"2408.00003", "2408.00001", "2408.00002"}, ids(result.Papers))
}

func TestListSortDefaultCreated(t *testing.T) {
	engine := newTestEngine(&fakeLoader{papers: fixturePapers()})

	result, err := engine.List(ListParams{SortOrder: OrderDesc, Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.Equal(t, []string{"2408.00002", "2408.00003", "2408.00001"}, ids(result.Papers))
}

func TestListPagination(t *testing.T) {
	papers := make([]domain.Paper, 7)
	for i := range papers {
		papers[i] = domain.Paper{ID: string(rune('a' + i)), Title: "t", Abstract: "a"}
	}
	engine := newTestEngine(&fakeLoader{papers: papers})

	seen := 0
	for page := 1; page <= 3; page++ {
		result, err := engine.List(ListParams{Page: page, PerPage: 3})
		require.NoError(t, err)
		assert.Equal(t, 7, result.Total)
		assert.Equal(t, 3, result.TotalPages)
		seen += len(result.Papers)
	}
	assert.Equal(t, 7, seen, "pages partition the full result set")

	result, err := engine.List(ListParams{Page: 4, PerPage: 3})
	require.NoError(t, err)
	assert.Empty(t, result.Papers, "out-of-range page yields an empty slice")
	assert.Equal(t, 7, result.Total)
}

func TestListPerPageBounds(t *testing.T) {
	engine := newTestEngine(&fakeLoader{papers: fixturePapers()})

	result, err := engine.List(ListParams{Page: 1, PerPage: 0})
	require.NoError(t, err)
	assert.Equal(t, DefaultPerPage, result.PerPage)

	result, err = engine.List(ListParams{Page: 1, PerPage: 500})
	require.NoError(t, err)
	assert.Equal(t, MaxPerPage, result.PerPage)
}

func TestListEmptySnapshot(t *testing.T) {
	engine := newTestEngine(&fakeLoader{})

	result, err := engine.List(ListParams{Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.Zero(t, result.Total)
	assert.Zero(t, result.TotalPages)
	assert.Empty(t, result.Papers)
}

func TestGet(t *testing.T) {
	engine := newTestEngine(&fakeLoader{papers: fixturePapers()})

	paper, err := engine.Get("2408.00002")
	require.NoError(t, err)
	assert.Equal(t, "Sparse Attention Kernels", paper.Title)

	_, err = engine.Get("9999.00000")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStats(t *testing.T) {
	loader := &fakeLoader{
		papers:       fixturePapers(),
		watermark:    time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
		hasWatermark: true,
	}
	engine := newTestEngine(loader)

	stats, err := engine.Stats()
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalPapers)
	assert.Equal(t, 2, stats.EvaluatedPapers)
	require.NotNil(t, stats.AverageScore)
	assert.Equal(t, 6.0, *stats.AverageScore)

	// Tag occurrences aggregate by top-level segment.
	assert.Equal(t, map[string]int{"cs": 3, "stat": 1}, stats.Categories)

	assert.Equal(t, 1, stats.ScoreDistribution["8"])
	assert.Equal(t, 1, stats.ScoreDistribution["4"])
	assert.Equal(t, 0, stats.ScoreDistribution["1"])

	require.NotNil(t, stats.LastIngestion)
	assert.Equal(t, loader.watermark, *stats.LastIngestion)
}

func TestStatsAverageRounding(t *testing.T) {
	engine := newTestEngine(&fakeLoader{papers: []domain.Paper{
		{ID: "1", Score: 7},
		{ID: "2", Score: 7},
		{ID: "3", Score: 6},
	}})

	stats, err := engine.Stats()
	require.NoError(t, err)
	require.NotNil(t, stats.AverageScore)
	assert.Equal(t, 6.67, *stats.AverageScore)
}

func TestStatsEmptySnapshot(t *testing.T) {
	engine := newTestEngine(&fakeLoader{})

	stats, err := engine.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.TotalPapers)
	assert.Nil(t, stats.AverageScore)
	assert.Empty(t, stats.ScoreDistribution)
	assert.Nil(t, stats.LastIngestion)
}

func TestCategories(t *testing.T) {
	engine := newTestEngine(&fakeLoader{papers: fixturePapers()})

	tags, err := engine.Categories()
	require.NoError(t, err)
	assert.Equal(t, []string{"cs.IR", "cs.LG", "stat.ME"}, tags)
}

func ids(papers []domain.Paper) []string {
	if len(papers) == 0 {
		return nil
	}
	out := make([]string, len(papers))
	for i := range papers {
		out[i] = papers[i].ID
	}
	return out
}

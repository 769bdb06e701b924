// Package corpus provides read-only query access to the paper snapshot:
// filtering, sorting, pagination, and aggregate statistics.
package corpus

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/venturelens/paper-scout/internal/domain"
)

// Sort fields accepted by List.
const (
	SortCreated = "created"
	SortUpdated = "updated"
	SortScore   = "score"
	SortTitle   = "title"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Pagination bounds.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Loader is the subset of the snapshot store used by the query engine.
type Loader interface {
	Load() ([]domain.Paper, error)
	Watermark() (time.Time, bool)
}

// ListParams are the filter, sort, and pagination inputs for List. The HTTP
// boundary validates them; the engine still normalizes pagination bounds.
type ListParams struct {
	Search    string
	Category  string
	MinScore  *float64
	MaxScore  *float64
	SortBy    string
	SortOrder string
	Page      int
	PerPage   int
}

// PageResult is one page of matching papers.
type PageResult struct {
	Papers     []domain.Paper
	Total      int
	Page       int
	PerPage    int
	TotalPages int
}

// Stats aggregates the current snapshot.
type Stats struct {
	TotalPapers     int
	EvaluatedPapers int
	// AverageScore is nil when no paper has been evaluated.
	AverageScore *float64
	// Categories counts tag occurrences by top-level segment; a paper with
	// two tags under the same segment counts twice.
	Categories map[string]int
	// ScoreDistribution buckets evaluated scores into [i, i+1) for i 1..10,
	// keyed by the decimal string of i. Empty when nothing is evaluated.
	ScoreDistribution map[string]int
	// LastIngestion is the watermark date, nil if ingestion never ran.
	LastIngestion *time.Time
}

// Engine answers queries against whatever snapshot currently exists. It never
// mutates the snapshot and never blocks on running background jobs.
type Engine struct {
	loader Loader
	logger zerolog.Logger
}

// NewEngine creates a corpus query engine.
func NewEngine(loader Loader, logger zerolog.Logger) *Engine {
	return &Engine{
		loader: loader,
		logger: logger.With().Str("component", "corpus-engine").Logger(),
	}
}

// List returns one page of papers matching the given filters.
//
// Filters are AND-combined. When either score bound is set, unscored rows are
// excluded. An out-of-range page yields an empty slice, not an error.
func (e *Engine) List(params ListParams) (PageResult, error) {
	papers, err := e.loader.Load()
	if err != nil {
		return PageResult{}, fmt.Errorf("load snapshot: %w", err)
	}

	matched := filter(papers, params)
	sortPapers(matched, params.SortBy, params.SortOrder)

	page := params.Page
	if page < 1 {
		page = 1
	}
	perPage := params.PerPage
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	total := len(matched)
	result := PageResult{
		Papers:     []domain.Paper{},
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: int(math.Ceil(float64(total) / float64(perPage))),
	}

	start := (page - 1) * perPage
	if start < total {
		end := start + perPage
		if end > total {
			end = total
		}
		result.Papers = matched[start:end]
	}
	return result, nil
}

// Get returns the paper with the given identifier.
func (e *Engine) Get(id string) (domain.Paper, error) {
	papers, err := e.loader.Load()
	if err != nil {
		return domain.Paper{}, fmt.Errorf("load snapshot: %w", err)
	}

	for i := range papers {
		if papers[i].ID == id {
			return papers[i], nil
		}
	}
	return domain.Paper{}, domain.NewNotFoundError("paper", id)
}

// Stats computes aggregate statistics over the full snapshot.
func (e *Engine) Stats() (Stats, error) {
	papers, err := e.loader.Load()
	if err != nil {
		return Stats{}, fmt.Errorf("load snapshot: %w", err)
	}

	stats := Stats{
		TotalPapers:       len(papers),
		Categories:        make(map[string]int),
		ScoreDistribution: make(map[string]int),
	}

	var scoreSum float64
	for i := range papers {
		for _, tag := range papers[i].CategoryTags() {
			stats.Categories[domain.TopLevelCategory(tag)]++
		}
		if papers[i].Scored() {
			stats.EvaluatedPapers++
			scoreSum += papers[i].Score
		}
	}

	if stats.EvaluatedPapers > 0 {
		avg := math.Round(scoreSum/float64(stats.EvaluatedPapers)*100) / 100
		stats.AverageScore = &avg

		for i := 1; i <= 10; i++ {
			bucket := 0
			for j := range papers {
				if papers[j].Scored() && papers[j].Score >= float64(i) && papers[j].Score < float64(i+1) {
					bucket++
				}
			}
			stats.ScoreDistribution[strconv.Itoa(i)] = bucket
		}
	}

	if wm, ok := e.loader.Watermark(); ok {
		stats.LastIngestion = &wm
	}
	return stats, nil
}

// Categories returns the sorted set of distinct category tags.
func (e *Engine) Categories() ([]string, error) {
	papers, err := e.loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	seen := make(map[string]struct{})
	for i := range papers {
		for _, tag := range papers[i].CategoryTags() {
			seen[tag] = struct{}{}
		}
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}

// filter applies the AND-combined list predicates.
func filter(papers []domain.Paper, params ListParams) []domain.Paper {
	search := strings.ToLower(params.Search)
	out := make([]domain.Paper, 0, len(papers))

	for i := range papers {
		p := papers[i]

		if search != "" &&
			!strings.Contains(strings.ToLower(p.Title), search) &&
			!strings.Contains(strings.ToLower(p.Abstract), search) &&
			!strings.Contains(strings.ToLower(p.Authors), search) {
			continue
		}
		if params.Category != "" && !strings.Contains(p.Categories, params.Category) {
			continue
		}
		if params.MinScore != nil || params.MaxScore != nil {
			if !p.Scored() {
				continue
			}
			if params.MinScore != nil && p.Score < *params.MinScore {
				continue
			}
			if params.MaxScore != nil && p.Score > *params.MaxScore {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// sortPapers orders papers by the given field and direction. Rows missing the
// sort value go last regardless of direction; the sort is stable so ties keep
// snapshot order.
func sortPapers(papers []domain.Paper, field, order string) {
	desc := order == OrderDesc

	key := func(p *domain.Paper) (value string, missing bool) {
		switch field {
		case SortUpdated:
			return p.Updated, p.Updated == ""
		case SortTitle:
			return p.Title, p.Title == ""
		case SortScore:
			return "", !p.Scored()
		default:
			return p.Created, p.Created == ""
		}
	}

	sort.SliceStable(papers, func(i, j int) bool {
		a, b := &papers[i], &papers[j]

		av, amissing := key(a)
		bv, bmissing := key(b)
		if amissing != bmissing {
			return bmissing
		}
		if amissing {
			return false
		}

		if field == SortScore {
			if a.Score == b.Score {
				return false
			}
			if desc {
				return a.Score > b.Score
			}
			return a.Score < b.Score
		}

		if av == bv {
			return false
		}
		if desc {
			return av > bv
		}
		return av < bv
	})
}

package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/venturelens/paper-scout/internal/corpus"
	"github.com/venturelens/paper-scout/internal/tasks"
)

// Scoring batch bounds for the evaluate endpoint.
const (
	defaultScoringRows = 5
	maxScoringRows     = 1000
)

// listPapersParams are the validated query parameters for listPapers.
type listPapersParams struct {
	Page      int      `validate:"gte=1"`
	PerPage   int      `validate:"gte=1,lte=100"`
	Search    string   `validate:"max=500"`
	Category  string   `validate:"max=100"`
	MinScore  *float64 `validate:"omitempty,gte=0,lte=10"`
	MaxScore  *float64 `validate:"omitempty,gte=0,lte=10"`
	SortBy    string   `validate:"oneof=created updated score title"`
	SortOrder string   `validate:"oneof=asc desc"`
}

// parseListParams decodes the listPapers query string, applying defaults.
func parseListParams(r *http.Request) (listPapersParams, error) {
	q := r.URL.Query()
	params := listPapersParams{
		Page:      1,
		PerPage:   corpus.DefaultPerPage,
		Search:    q.Get("search"),
		Category:  q.Get("category"),
		SortBy:    corpus.SortCreated,
		SortOrder: corpus.OrderDesc,
	}

	var err error
	if v := q.Get("page"); v != "" {
		if params.Page, err = strconv.Atoi(v); err != nil {
			return params, fmt.Errorf("page must be an integer")
		}
	}
	if v := q.Get("per_page"); v != "" {
		if params.PerPage, err = strconv.Atoi(v); err != nil {
			return params, fmt.Errorf("per_page must be an integer")
		}
	}
	if v := q.Get("min_score"); v != "" {
		score, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return params, fmt.Errorf("min_score must be a number")
		}
		params.MinScore = &score
	}
	if v := q.Get("max_score"); v != "" {
		score, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return params, fmt.Errorf("max_score must be a number")
		}
		params.MaxScore = &score
	}
	if v := q.Get("sort_by"); v != "" {
		params.SortBy = v
	}
	if v := q.Get("sort_order"); v != "" {
		params.SortOrder = v
	}
	return params, nil
}

// listPapers handles GET /api/papers.
func (s *Server) listPapers(w http.ResponseWriter, r *http.Request) {
	s.recordQuery("papers")

	params, err := parseListParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.validate.Struct(params); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid query parameters: %v", err))
		return
	}
	if params.MinScore != nil && params.MaxScore != nil && *params.MinScore > *params.MaxScore {
		writeError(w, http.StatusBadRequest, "min_score must not exceed max_score")
		return
	}

	result, err := s.corpus.List(corpus.ListParams{
		Search:    params.Search,
		Category:  params.Category,
		MinScore:  params.MinScore,
		MaxScore:  params.MaxScore,
		SortBy:    params.SortBy,
		SortOrder: params.SortOrder,
		Page:      params.Page,
		PerPage:   params.PerPage,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("list papers failed")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pageResultToResponse(result))
}

// getPaper handles GET /api/paper/{paperID}.
func (s *Server) getPaper(w http.ResponseWriter, r *http.Request) {
	s.recordQuery("paper")

	paperID := chi.URLParam(r, "paperID")
	if paperID == "" {
		writeError(w, http.StatusBadRequest, "paper id is required")
		return
	}

	paper, err := s.corpus.Get(paperID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domainPaperToResponse(paper))
}

// getStats handles GET /api/stats.
func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	s.recordQuery("stats")

	stats, err := s.corpus.Stats()
	if err != nil {
		s.logger.Error().Err(err).Msg("stats failed")
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsToResponse(stats))
}

// getCategories handles GET /api/categories.
func (s *Server) getCategories(w http.ResponseWriter, r *http.Request) {
	s.recordQuery("categories")

	tags, err := s.corpus.Categories()
	if err != nil {
		s.logger.Error().Err(err).Msg("categories failed")
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: tags})
}

// triggerIngestion handles POST /api/scrape. A run already in flight is
// reported as a status, not an error.
func (s *Server) triggerIngestion(w http.ResponseWriter, r *http.Request) {
	runID, err := s.runner.Launch(tasks.KindIngestion, s.cfg.IngestionTimeout, func(ctx context.Context) error {
		_, runErr := s.ingestion.Run(ctx)
		return runErr
	})
	if err != nil {
		writeJSON(w, http.StatusOK, taskResponse{
			Status:  string(tasks.StateRunning),
			Message: "ingestion is already running",
		})
		return
	}

	writeJSON(w, http.StatusAccepted, taskResponse{
		Status:  "started",
		Message: "ingestion started in background",
		RunID:   runID,
	})
}

// triggerScoring handles POST /api/evaluate.
func (s *Server) triggerScoring(w http.ResponseWriter, r *http.Request) {
	numRows := s.cfg.DefaultScoringRows
	if numRows <= 0 {
		numRows = defaultScoringRows
	}
	if v := r.URL.Query().Get("num_rows"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "num_rows must be an integer")
			return
		}
		if parsed < 1 || parsed > maxScoringRows {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("num_rows must be between 1 and %d", maxScoringRows))
			return
		}
		numRows = parsed
	}

	runID, err := s.runner.Launch(tasks.KindScoring, s.cfg.ScoringTimeout, func(ctx context.Context) error {
		_, runErr := s.scoring.ScoreBatch(ctx, numRows)
		return runErr
	})
	if err != nil {
		writeJSON(w, http.StatusOK, taskResponse{
			Status:  string(tasks.StateRunning),
			Message: "scoring is already running",
		})
		return
	}

	writeJSON(w, http.StatusAccepted, taskResponse{
		Status:  "started",
		Message: fmt.Sprintf("scoring started for %d papers", numRows),
		RunID:   runID,
	})
}

// getTaskStatus handles GET /api/task-status.
func (s *Server) getTaskStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	writeJSON(w, http.StatusOK, taskStatusResponse{
		Ingestion: snap[tasks.KindIngestion],
		Scoring:   snap[tasks.KindScoring],
	})
}

func (s *Server) recordQuery(endpoint string) {
	if s.metrics != nil {
		s.metrics.RecordQueryRequest(endpoint)
	}
}

package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/venturelens/paper-scout/internal/corpus"
	"github.com/venturelens/paper-scout/internal/domain"
	"github.com/venturelens/paper-scout/internal/tasks"
)

// Response types for JSON serialization.

type paperResponse struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Categories string  `json:"categories"`
	Abstract   string  `json:"abstract"`
	DOI        string  `json:"doi,omitempty"`
	Created    string  `json:"created,omitempty"`
	Updated    string  `json:"updated,omitempty"`
	Authors    string  `json:"authors"`
	Score      float64 `json:"score,omitempty"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

type listPapersResponse struct {
	Papers     []paperResponse `json:"papers"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PerPage    int             `json:"per_page"`
	TotalPages int             `json:"total_pages"`
}

type statsResponse struct {
	TotalPapers       int            `json:"total_papers"`
	EvaluatedPapers   int            `json:"evaluated_papers"`
	AverageScore      *float64       `json:"average_score"`
	Categories        map[string]int `json:"categories"`
	ScoreDistribution map[string]int `json:"score_distribution"`
	LastScrape        *string        `json:"last_scrape"`
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
}

type taskResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
}

type taskStatusResponse struct {
	Ingestion tasks.Status `json:"ingestion"`
	Scoring   tasks.Status `json:"scoring"`
}

// Converter functions

func domainPaperToResponse(p domain.Paper) paperResponse {
	return paperResponse{
		ID:         p.ID,
		Title:      p.Title,
		Categories: p.Categories,
		Abstract:   p.Abstract,
		DOI:        p.DOI,
		Created:    p.Created,
		Updated:    p.Updated,
		Authors:    p.Authors,
		Score:      p.Score,
		Reasoning:  p.Reasoning,
	}
}

func pageResultToResponse(result corpus.PageResult) listPapersResponse {
	papers := make([]paperResponse, len(result.Papers))
	for i := range result.Papers {
		papers[i] = domainPaperToResponse(result.Papers[i])
	}
	return listPapersResponse{
		Papers:     papers,
		Total:      result.Total,
		Page:       result.Page,
		PerPage:    result.PerPage,
		TotalPages: result.TotalPages,
	}
}

func statsToResponse(stats corpus.Stats) statsResponse {
	resp := statsResponse{
		TotalPapers:       stats.TotalPapers,
		EvaluatedPapers:   stats.EvaluatedPapers,
		AverageScore:      stats.AverageScore,
		Categories:        stats.Categories,
		ScoreDistribution: stats.ScoreDistribution,
	}
	if stats.LastIngestion != nil {
		formatted := stats.LastIngestion.Format(time.DateOnly)
		resp.LastScrape = &formatted
	}
	return resp
}

// writeDomainError maps domain error types to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAlreadyRunning):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

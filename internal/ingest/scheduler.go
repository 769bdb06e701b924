// Package ingest implements the rolling ingestion scheduler.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/venturelens/paper-scout/internal/domain"
	"github.com/venturelens/paper-scout/internal/observability"
	"github.com/venturelens/paper-scout/internal/papersources"
)

// DefaultMaxLookbackDays bounds the fetch window when the watermark is stale
// or missing, which also bounds the blast radius of a fully failed run.
const DefaultMaxLookbackDays = 7

// Store is the subset of the snapshot store used by the scheduler.
type Store interface {
	WriteBase(papers []domain.Paper) error
	Watermark() (time.Time, bool)
	SetWatermark(t time.Time) error
}

// Summary describes the outcome of a single ingestion run.
type Summary struct {
	// From and Until are the bounds of the fetched window.
	From  time.Time
	Until time.Time
	// PerCategory maps each category to the number of records it returned.
	PerCategory map[string]int
	// FailedCategories lists categories whose fetch failed.
	FailedCategories []string
	// Fetched is the total number of records returned across categories,
	// before deduplication.
	Fetched int
	// Kept is the number of records written to the snapshot after
	// dedup-by-identifier.
	Kept int
}

// Config holds scheduler settings.
type Config struct {
	// Categories is the list of category tags to fetch per run.
	Categories []string
	// MaxLookbackDays bounds the window when the watermark is old or missing.
	MaxLookbackDays int
	// Now supplies the current time; defaults to time.Now. Overridable in tests.
	Now func() time.Time
}

// Scheduler computes the fetch window, pulls each configured category from
// the fetch source, and persists a new base snapshot plus the watermark.
type Scheduler struct {
	source  papersources.FetchSource
	store   Store
	cfg     Config
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewScheduler creates an ingestion scheduler.
func NewScheduler(source papersources.FetchSource, store Store, cfg Config, metrics *observability.Metrics, logger zerolog.Logger) *Scheduler {
	if cfg.MaxLookbackDays <= 0 {
		cfg.MaxLookbackDays = DefaultMaxLookbackDays
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Scheduler{
		source:  source,
		store:   store,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger.With().Str("component", "ingest-scheduler").Logger(),
	}
}

// Run executes one ingestion pass.
//
// A per-category fetch failure contributes zero records and does not abort
// the run. The watermark advances to the end of the window unconditionally
// once the snapshot is written, even when every category failed; the bounded
// lookback window limits what a later run has to re-fetch.
func (s *Scheduler) Run(ctx context.Context) (summary Summary, err error) {
	started := s.cfg.Now()
	if s.metrics != nil {
		s.metrics.RecordIngestionStarted()
		defer func() {
			elapsed := s.cfg.Now().Sub(started).Seconds()
			if err != nil {
				s.metrics.RecordIngestionFailed(elapsed)
				return
			}
			s.metrics.RecordIngestionCompleted(elapsed)
		}()
	}

	from, until := s.window()
	summary = Summary{
		From:        from,
		Until:       until,
		PerCategory: make(map[string]int, len(s.cfg.Categories)),
	}

	s.logger.Info().
		Str("from", from.Format("2006-01-02")).
		Str("until", until.Format("2006-01-02")).
		Strs("categories", s.cfg.Categories).
		Msg("ingestion run starting")

	var all []domain.Paper
	for _, category := range s.cfg.Categories {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("ingestion cancelled: %w", err)
		}

		log := observability.WithCategoryContext(s.logger, s.source.Name(), category)
		papers, err := s.source.Fetch(ctx, category, from, until)
		if err != nil {
			log.Error().Err(err).Msg("category fetch failed, continuing with zero records")
			summary.FailedCategories = append(summary.FailedCategories, category)
			summary.PerCategory[category] = 0
			if s.metrics != nil {
				s.metrics.RecordFetchFailed(category)
			}
			continue
		}

		log.Info().Int("papers", len(papers)).Msg("category fetched")
		summary.PerCategory[category] = len(papers)
		summary.Fetched += len(papers)
		if s.metrics != nil {
			s.metrics.RecordPapersFetched(category, len(papers))
		}
		all = append(all, papers...)
	}

	// Overlapping categories can return the same identifier more than once.
	// Dedup is explicit and deterministic: the later occurrence wins, at the
	// position where the identifier first appeared.
	merged := dedupByID(all)
	summary.Kept = len(merged)

	if err := s.store.WriteBase(merged); err != nil {
		return summary, fmt.Errorf("write snapshot: %w", err)
	}

	if err := s.store.SetWatermark(until); err != nil {
		return summary, fmt.Errorf("advance watermark: %w", err)
	}

	s.logger.Info().
		Int("fetched", summary.Fetched).
		Int("kept", summary.Kept).
		Int("failed_categories", len(summary.FailedCategories)).
		Msg("ingestion run completed")

	return summary, nil
}

// window computes the fetch date range: from the watermark, bounded by the
// configured lookback, up to today.
func (s *Scheduler) window() (from, until time.Time) {
	today := s.cfg.Now().UTC().Truncate(24 * time.Hour)
	floor := today.AddDate(0, 0, -s.cfg.MaxLookbackDays)

	from = floor
	if wm, ok := s.store.Watermark(); ok && wm.After(floor) {
		from = wm
	}
	return from, today
}

// dedupByID collapses repeated identifiers, keeping the latest occurrence of
// each at the position of its first occurrence.
func dedupByID(papers []domain.Paper) []domain.Paper {
	index := make(map[string]int, len(papers))
	out := make([]domain.Paper, 0, len(papers))

	for _, p := range papers {
		if at, seen := index[p.ID]; seen {
			out[at] = p
			continue
		}
		index[p.ID] = len(out)
		out = append(out, p)
	}
	return out
}

package scoring

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/venturelens/paper-scout/internal/domain"
	"github.com/venturelens/paper-scout/internal/observability"
)

// DefaultRequestDelay throttles successive completion calls.
const DefaultRequestDelay = 500 * time.Millisecond

// Store is the subset of the snapshot store used by the scoring engine.
type Store interface {
	Load() ([]domain.Paper, error)
	WriteEvaluated(papers []domain.Paper) error
}

// Summary describes the outcome of a single scoring batch.
type Summary struct {
	// Candidates is the number of unscored papers selected for this batch.
	Candidates int
	// Scored is the number of papers that received a positive score.
	Scored int
	// Skipped is the number of papers passed over for an empty abstract.
	Skipped int
	// Failed is the number of papers annotated with an error sentinel.
	Failed int
	// Remaining is the number of unscored papers left after the batch.
	Remaining int
}

// Config holds scoring engine settings.
type Config struct {
	// RequestDelay is the pause between completion calls.
	RequestDelay time.Duration
}

// Engine scores unscored papers in the current snapshot.
//
// Each completion reply is parsed through ParseEvaluation and the annotated
// snapshot is rewritten after every paper, so cancelling a batch mid-way
// loses at most the in-flight paper.
type Engine struct {
	completions CompletionService
	store       Store
	cfg         Config
	metrics     *observability.Metrics
	logger      zerolog.Logger
}

// NewEngine creates a scoring engine.
func NewEngine(completions CompletionService, store Store, cfg Config, metrics *observability.Metrics, logger zerolog.Logger) *Engine {
	if cfg.RequestDelay < 0 {
		cfg.RequestDelay = DefaultRequestDelay
	}
	return &Engine{
		completions: completions,
		store:       store,
		cfg:         cfg,
		metrics:     metrics,
		logger:      logger.With().Str("component", "scoring-engine").Logger(),
	}
}

// ScoreBatch scores up to limit unscored papers in snapshot order. A limit
// of zero or less scores every unscored paper in the snapshot.
//
// A completion failure is recorded per paper as a zero score with the error
// text as the rationale and does not abort the batch; zero-score rows stay
// eligible for the next run. Papers with empty abstracts are skipped without
// an annotation. Context cancellation stops the batch after the current
// paper; progress written so far is kept.
func (e *Engine) ScoreBatch(ctx context.Context, limit int) (Summary, error) {
	papers, err := e.store.Load()
	if err != nil {
		return Summary{}, fmt.Errorf("load snapshot: %w", err)
	}
	if len(papers) == 0 {
		return Summary{}, domain.NewNotFoundError("snapshot", "latest")
	}

	summary := Summary{}
	e.logger.Info().
		Int("papers", len(papers)).
		Int("limit", limit).
		Str("provider", e.completions.Provider()).
		Str("model", e.completions.Model()).
		Msg("scoring batch starting")

	for i := range papers {
		if limit > 0 && summary.Candidates >= limit {
			break
		}
		if papers[i].Scored() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("scoring cancelled: %w", err)
		}

		log := observability.WithPaperContext(e.logger, papers[i].ID)

		if strings.TrimSpace(papers[i].Abstract) == "" {
			log.Warn().Msg("skipping paper with empty abstract")
			summary.Skipped++
			if e.metrics != nil {
				e.metrics.RecordPaperSkipped()
			}
			continue
		}

		summary.Candidates++

		ev := e.evaluate(ctx, log, papers[i].Abstract)
		papers[i].Score = ev.Score
		papers[i].Reasoning = ev.Reasoning
		if ev.Score > domain.ScoreUnscored {
			summary.Scored++
			if e.metrics != nil {
				e.metrics.RecordPaperScored()
			}
		} else {
			summary.Failed++
		}

		if err := e.store.WriteEvaluated(papers); err != nil {
			return summary, fmt.Errorf("persist annotations: %w", err)
		}

		if e.cfg.RequestDelay > 0 && summary.Candidates < limit {
			select {
			case <-ctx.Done():
				return summary, fmt.Errorf("scoring cancelled: %w", ctx.Err())
			case <-time.After(e.cfg.RequestDelay):
			}
		}
	}

	for i := range papers {
		if !papers[i].Scored() && strings.TrimSpace(papers[i].Abstract) != "" {
			summary.Remaining++
		}
	}

	e.logger.Info().
		Int("scored", summary.Scored).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Int("remaining", summary.Remaining).
		Msg("scoring batch completed")

	return summary, nil
}

// evaluate calls the completion service for one abstract and parses the
// reply. Call failures become a zero-score annotation carrying the error.
func (e *Engine) evaluate(ctx context.Context, log zerolog.Logger, abstract string) Evaluation {
	start := time.Now()
	content, err := e.completions.Complete(ctx, systemPrompt, abstract)
	elapsed := time.Since(start)

	if err != nil {
		log.Error().Err(err).Msg("completion call failed")
		if e.metrics != nil {
			e.metrics.RecordScoringRequestFailed(e.completions.Model(), errorType(err))
		}
		return Evaluation{
			Score:     domain.ScoreUnscored,
			Reasoning: fmt.Sprintf("Error: %s", err),
		}
	}

	if e.metrics != nil {
		e.metrics.RecordScoringRequest(e.completions.Model(), elapsed.Seconds())
	}

	ev, ok := parseStructured(strings.TrimSpace(content))
	if !ok {
		log.Warn().Msg("reply was not valid JSON, using pattern fallback")
		if e.metrics != nil {
			e.metrics.RecordParseFallback()
		}
		ev = parsePattern(content)
	}
	return ev
}

// errorType buckets an error for the request failure metric.
func errorType(err error) string {
	if isTransientError(err) {
		return "transient"
	}
	return "permanent"
}

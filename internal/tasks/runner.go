package tasks

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/venturelens/paper-scout/internal/observability"
)

// Runner launches tracked jobs in the background with a wall-clock ceiling.
type Runner struct {
	tracker *Tracker
	logger  zerolog.Logger
}

// NewRunner creates a runner bound to the given tracker.
func NewRunner(tracker *Tracker, logger zerolog.Logger) *Runner {
	return &Runner{
		tracker: tracker,
		logger:  logger.With().Str("component", "task-runner").Logger(),
	}
}

// Launch starts fn in a goroutine if no run of the same kind is in flight,
// returning the run ID immediately. The job context is cancelled after
// timeout; a job exceeding it is abandoned and marked failed with the
// deadline error.
func (r *Runner) Launch(kind Kind, timeout time.Duration, fn func(ctx context.Context) error) (string, error) {
	runID, err := r.tracker.TryStart(kind)
	if err != nil {
		return "", err
	}

	log := observability.WithJobContext(r.logger, string(kind), runID)
	log.Info().Dur("timeout", timeout).Msg("background job started")

	go func() {
		ctx := context.Background()
		var cancel context.CancelFunc
		if timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		start := time.Now()
		jobErr := fn(ctx)
		elapsed := time.Since(start)

		r.tracker.Finish(kind, jobErr)
		if jobErr != nil {
			log.Error().Err(jobErr).Dur("elapsed", elapsed).Msg("background job failed")
			return
		}
		log.Info().Dur("elapsed", elapsed).Msg("background job completed")
	}()

	return runID, nil
}

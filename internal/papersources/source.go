package papersources

import (
	"context"
	"time"

	"github.com/venturelens/paper-scout/internal/domain"
)

// FetchSource defines the interface for paper metadata sources.
//
// The ingestion scheduler is written against this interface so that the real
// arXiv client can be replaced with a mock in tests. Implementations should
// respect context cancellation, apply their own rate limiting, and transform
// source-specific records into domain.Paper values.
type FetchSource interface {
	// Fetch returns all papers submitted to the given top-level category
	// within the inclusive [from, until] date window, in source order.
	Fetch(ctx context.Context, category string, from, until time.Time) ([]domain.Paper, error)

	// Name returns a human-readable name for this source, used for logging.
	Name() string
}

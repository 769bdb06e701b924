// Package observability provides logging and metrics support for the
// paper-scout service.
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("category", "cs").Msg("fetch started")
//
// # Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics("paper_scout")
//
// Record metrics:
//
//	metrics.RecordIngestionStarted()
//	metrics.RecordPapersFetched("cs", 42)
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - job: background job kind (ingestion, scoring)
//   - run_id: background job run identifier
//   - category: arXiv category tag
//   - paper_id: paper identifier
//   - source: fetch source name
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability

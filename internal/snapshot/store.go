// Package snapshot persists paper snapshots as flat CSV files.
//
// A snapshot generation is a single CSV file that fully supersedes the
// previous file of the same name. Writes go to a temporary file in the same
// directory followed by an atomic rename, so concurrent readers never observe
// a partially written snapshot.
package snapshot

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/venturelens/paper-scout/internal/domain"
)

// Snapshot file names inside the results directory. The evaluated file, when
// present, is the authoritative generation.
const (
	BaseFile      = "arxiv_papers.csv"
	EvaluatedFile = "arxiv_papers_evaluated.csv"
)

// watermarkLayout is the date format of the watermark file contents.
const watermarkLayout = "2006-01-02"

// baseColumns is the column order of an unscored snapshot.
var baseColumns = []string{"id", "title", "categories", "abstract", "doi", "created", "updated", "authors"}

// evaluatedColumns extends baseColumns with the scoring annotation.
var evaluatedColumns = append(append([]string{}, baseColumns...), "score", "reasoning")

// Store reads and writes snapshot generations and the ingestion watermark.
type Store struct {
	resultsDir    string
	watermarkPath string
	logger        zerolog.Logger
}

// NewStore creates a snapshot store rooted at resultsDir. The directory is
// created if it does not exist.
func NewStore(resultsDir, watermarkPath string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(resultsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}
	return &Store{
		resultsDir:    resultsDir,
		watermarkPath: watermarkPath,
		logger:        logger.With().Str("component", "snapshot-store").Logger(),
	}, nil
}

// BasePath returns the path of the base snapshot file.
func (s *Store) BasePath() string {
	return filepath.Join(s.resultsDir, BaseFile)
}

// EvaluatedPath returns the path of the evaluated snapshot file.
func (s *Store) EvaluatedPath() string {
	return filepath.Join(s.resultsDir, EvaluatedFile)
}

// WriteBase writes a new base snapshot generation, superseding any prior one.
// An existing evaluated snapshot is rewritten for the new paper set with
// prior annotations carried forward by identifier, so a stale evaluated file
// never shadows freshly ingested papers.
func (s *Store) WriteBase(papers []domain.Paper) error {
	if err := s.write(s.BasePath(), papers, false); err != nil {
		return err
	}
	return s.carryAnnotations(papers)
}

// carryAnnotations rewrites the evaluated snapshot for a new base generation,
// keeping the annotations of identifiers that survived into it. Identifiers
// that fell out of the new generation are dropped with it.
func (s *Store) carryAnnotations(papers []domain.Paper) error {
	if _, err := os.Stat(s.EvaluatedPath()); err != nil {
		return nil
	}

	prior, err := s.read(s.EvaluatedPath())
	if err != nil {
		return fmt.Errorf("read evaluated snapshot: %w", err)
	}

	annotated := make(map[string]domain.Paper, len(prior))
	for i := range prior {
		if prior[i].Scored() || prior[i].Reasoning != "" {
			annotated[prior[i].ID] = prior[i]
		}
	}

	merged := make([]domain.Paper, len(papers))
	copy(merged, papers)
	for i := range merged {
		if prev, ok := annotated[merged[i].ID]; ok {
			merged[i].Score = prev.Score
			merged[i].Reasoning = prev.Reasoning
		}
	}
	return s.WriteEvaluated(merged)
}

// WriteEvaluated writes a new evaluated snapshot generation, superseding any
// prior one.
func (s *Store) WriteEvaluated(papers []domain.Paper) error {
	return s.write(s.EvaluatedPath(), papers, true)
}

// write serializes papers to a temporary file and renames it into place.
func (s *Store) write(path string, papers []domain.Paper, scored bool) error {
	tmp, err := os.CreateTemp(s.resultsDir, ".snapshot-*.csv")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after successful rename

	w := csv.NewWriter(tmp)

	header := baseColumns
	if scored {
		header = evaluatedColumns
	}
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}

	for i := range papers {
		if err := w.Write(paperToRow(&papers[i], scored)); err != nil {
			tmp.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename snapshot into place: %w", err)
	}

	s.logger.Info().Str("path", path).Int("papers", len(papers)).Msg("snapshot written")
	return nil
}

// Load returns the most authoritative snapshot available: the evaluated file
// if present, else the base file, else the most recently modified CSV file in
// the results directory, else an empty slice. A missing snapshot is not an
// error.
func (s *Store) Load() ([]domain.Paper, error) {
	for _, path := range []string{s.EvaluatedPath(), s.BasePath()} {
		if _, err := os.Stat(path); err == nil {
			return s.read(path)
		}
	}

	if path := s.newestCSV(); path != "" {
		return s.read(path)
	}

	return nil, nil
}

// newestCSV returns the most recently modified CSV file in the results
// directory, or empty string if none exists.
func (s *Store) newestCSV() string {
	entries, err := os.ReadDir(s.resultsDir)
	if err != nil {
		return ""
	}

	var newest string
	var newestMod time.Time
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = filepath.Join(s.resultsDir, e.Name())
			newestMod = info.ModTime()
		}
	}
	return newest
}

// read parses a snapshot file. Both 8-column (base) and 10-column (evaluated)
// layouts are accepted; short or malformed rows are skipped with a warning.
func (s *Store) read(path string) ([]domain.Paper, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // validated per row below

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	papers := make([]domain.Paper, 0, len(rows)-1)
	for i, row := range rows[1:] { // skip header
		p, ok := rowToPaper(row)
		if !ok {
			s.logger.Warn().Str("path", path).Int("row", i+2).Msg("skipping malformed snapshot row")
			continue
		}
		papers = append(papers, p)
	}
	return papers, nil
}

// paperToRow serializes a paper in snapshot column order.
func paperToRow(p *domain.Paper, scored bool) []string {
	row := []string{p.ID, p.Title, p.Categories, p.Abstract, p.DOI, p.Created, p.Updated, p.Authors}
	if scored {
		row = append(row, formatScore(p.Score), p.Reasoning)
	}
	return row
}

// rowToPaper parses a snapshot row in either layout.
func rowToPaper(row []string) (domain.Paper, bool) {
	if len(row) != len(baseColumns) && len(row) != len(evaluatedColumns) {
		return domain.Paper{}, false
	}

	p := domain.Paper{
		ID:         row[0],
		Title:      row[1],
		Categories: row[2],
		Abstract:   row[3],
		DOI:        row[4],
		Created:    row[5],
		Updated:    row[6],
		Authors:    row[7],
	}
	if len(row) == len(evaluatedColumns) {
		p.Score = parseScore(row[8])
		p.Reasoning = row[9]
	}
	return p, true
}

// formatScore renders a score for the CSV; the unscored sentinel serializes
// as an empty cell.
func formatScore(score float64) string {
	if score <= domain.ScoreUnscored {
		return ""
	}
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// parseScore reads a score cell; empty or malformed cells map to the
// unscored sentinel.
func parseScore(cell string) float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return domain.ScoreUnscored
	}
	score, err := strconv.ParseFloat(cell, 64)
	if err != nil || score < 0 {
		return domain.ScoreUnscored
	}
	return score
}

// Watermark returns the end date of the last completed ingestion window.
// The second return value is false when the watermark file is missing or
// unreadable.
func (s *Store) Watermark() (time.Time, bool) {
	data, err := os.ReadFile(s.watermarkPath)
	if err != nil {
		return time.Time{}, false
	}

	t, err := time.Parse(watermarkLayout, strings.TrimSpace(string(data)))
	if err != nil {
		s.logger.Error().Err(err).Str("path", s.watermarkPath).Msg("corrupt watermark file")
		return time.Time{}, false
	}
	return t, true
}

// SetWatermark records the end date of a completed ingestion window.
func (s *Store) SetWatermark(t time.Time) error {
	if err := os.WriteFile(s.watermarkPath, []byte(t.Format(watermarkLayout)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write watermark: %w", err)
	}
	return nil
}

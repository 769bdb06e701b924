// Package domain defines the core types shared across the paper-scout service.
package domain

import (
	"strings"
)

// Score bounds for viability annotations. A score of ScoreUnscored marks a
// paper that has not been evaluated yet (or whose evaluation failed) and is
// eligible for the next scoring batch.
const (
	ScoreUnscored = 0.0
	ScoreMin      = 1.0
	ScoreMax      = 10.0
)

// Paper represents a single arXiv paper record in a snapshot.
//
// All metadata fields are immutable once ingested; only Score and Reasoning
// are written afterwards, by the scoring engine. Date fields hold ISO date
// strings as delivered by the source; an empty string means the value is
// absent.
type Paper struct {
	ID         string
	Title      string
	Categories string
	Abstract   string
	DOI        string
	Created    string
	Updated    string
	Authors    string
	Score      float64
	Reasoning  string
}

// Scored reports whether the paper carries a viability score.
func (p *Paper) Scored() bool {
	return p.Score > ScoreUnscored
}

// CategoryTags splits the space-separated category string into individual
// tags, e.g. "cs.LG stat.ML" -> ["cs.LG", "stat.ML"].
func (p *Paper) CategoryTags() []string {
	return strings.Fields(p.Categories)
}

// TopLevelCategory returns the text before the first '.' of a category tag,
// e.g. "cs.LG" -> "cs". A tag without a dot is returned unchanged.
func TopLevelCategory(tag string) string {
	if i := strings.IndexByte(tag, '.'); i >= 0 {
		return tag[:i]
	}
	return tag
}

// ClampScore forces a parsed score into the valid [ScoreMin, ScoreMax] range.
// The ScoreUnscored sentinel must not be passed through this function; it is
// preserved separately by the scoring engine.
func ClampScore(s float64) float64 {
	if s < ScoreMin {
		return ScoreMin
	}
	if s > ScoreMax {
		return ScoreMax
	}
	return s
}

package scoring

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/venturelens/paper-scout/internal/domain"
)

// Placeholder rationales used when the model reply cannot be fully parsed.
const (
	reasoningMissing  = "No reasoning provided"
	reasoningUnparsed = "Unable to parse reasoning"
)

// Evaluation is a parsed score and rationale for one abstract.
type Evaluation struct {
	Score     float64
	Reasoning string
}

// structuredReply is the expected JSON shape of a model reply.
type structuredReply struct {
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

var (
	scorePattern     = regexp.MustCompile(`(?i)score["']?\s*:?\s*(\d+(?:\.\d+)?)`)
	reasoningPattern = regexp.MustCompile(`(?is)reasoning["']?\s*:?\s*["'](.*?)["']\}?`)
)

// ParseEvaluation turns raw model output into an Evaluation.
//
// The parse chain has two stages. The first attempts a strict JSON decode of
// the reply. When that fails, the second scans for a numeric token after a
// "score" label and a quoted string after a "reasoning" label. A score that
// parses is clamped into [1,10]; a score that cannot be found stays at the
// zero sentinel so a later batch retries the paper.
func ParseEvaluation(content string) Evaluation {
	content = strings.TrimSpace(content)

	if ev, ok := parseStructured(content); ok {
		return ev
	}
	return parsePattern(content)
}

// parseStructured attempts a strict JSON decode of the reply.
func parseStructured(content string) (Evaluation, bool) {
	var reply structuredReply
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		return Evaluation{}, false
	}

	ev := Evaluation{Score: reply.Score, Reasoning: reply.Reasoning}
	if ev.Score != domain.ScoreUnscored {
		ev.Score = domain.ClampScore(ev.Score)
	}
	if ev.Reasoning == "" {
		ev.Reasoning = reasoningMissing
	}
	return ev, true
}

// parsePattern extracts the score and reasoning from free-form text. Missing
// matches default to the zero sentinel and a fixed placeholder.
func parsePattern(content string) Evaluation {
	ev := Evaluation{Score: domain.ScoreUnscored, Reasoning: reasoningUnparsed}

	if m := scorePattern.FindStringSubmatch(content); m != nil {
		if score, err := strconv.ParseFloat(m[1], 64); err == nil {
			ev.Score = domain.ClampScore(score)
		}
	}
	if m := reasoningPattern.FindStringSubmatch(content); m != nil {
		ev.Reasoning = m[1]
	}
	return ev
}

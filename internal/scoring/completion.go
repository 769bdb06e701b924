// Package scoring evaluates paper abstracts for startup viability using an
// LLM chat completion API.
//
// The engine walks the current snapshot, sends each unscored abstract to the
// completion service with a fixed evaluation prompt, parses the response into
// a score and reasoning, and persists the annotated snapshot after every
// paper so a cancelled batch keeps its partial progress.
package scoring

import "context"

// systemPrompt instructs the model how to score an abstract. The response is
// expected to be a JSON object with "score" and "reasoning" keys; the parser
// falls back to pattern extraction when the model drifts from that shape.
const systemPrompt = `
I am sending you a list of paper abstracts. Please give a score from 1-10 on how viable the paper topic is to be turned into a startup.

1 = Not viable at all (purely theoretical with no practical applications)
10 = Extremely viable (ready for commercialization with clear market potential)

Respond with a JSON object containing:
1. "score": a number between 1 and 10
2. "reasoning": a brief explanation (max 3 sentences) of your score

Example response format:
{"score": 7, "reasoning": "The technology addresses a clear market need in cybersecurity. The approach is novel compared to existing solutions. However, implementation costs may be high for initial market entry."}
`

// CompletionService defines the interface for LLM chat completion providers.
//
// Implementations should respect context cancellation, retry transient API
// failures, and return wrapped errors with provider context.
type CompletionService interface {
	// Complete sends a system and user message pair and returns the raw
	// text content of the first completion choice.
	Complete(ctx context.Context, system, user string) (string, error)

	// Provider returns the name of the LLM provider (e.g., "openai").
	Provider() string

	// Model returns the model identifier being used (e.g., "gpt-4o").
	Model() string
}

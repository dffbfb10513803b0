package core

import "context"

// LLMTransport performs one prompt-to-text call with no timeout or retry of its own.
type LLMTransport interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// WebKnowledge returns a short general-knowledge summary for a topic,
// or an empty string when nothing usable exists.
type WebKnowledge interface {
	Summarize(ctx context.Context, topic string) (string, error)
}

package web

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/tuskqa/internal/providers/llm"
)

const DefaultGeneralTimeout = 5 * time.Second

// Executor is the slice of the retrying LLM client a general knowledge source needs.
type Executor interface {
	ExecuteWith(ctx context.Context, prompt string, opts llm.Options) (string, error)
}

const generalPrompt = `Give a short, neutral, encyclopedic summary of %q in at most %d words.
Do not give personal advice. If the topic is not a real subject, reply with NONE.`

// GeneralKnowledge asks the model for a summary when no encyclopedia page exists.
// Each lookup is one attempt with a short timeout, never the full retry cycle.
type GeneralKnowledge struct {
	model Executor
	words int
	opts  llm.Options
}

func NewGeneralKnowledge(exec Executor, words int, timeout time.Duration) *GeneralKnowledge {
	if words <= 0 {
		words = 60
	}
	if timeout <= 0 {
		timeout = DefaultGeneralTimeout
	}
	return &GeneralKnowledge{
		model: exec,
		words: words,
		opts:  llm.Options{Timeout: timeout, MaxRetries: 0},
	}
}

func (g *GeneralKnowledge) Summarize(ctx context.Context, topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", nil
	}
	out, err := g.model.ExecuteWith(ctx, fmt.Sprintf(generalPrompt, topic, g.words), g.opts)
	if err != nil {
		return "", fmt.Errorf("general knowledge for %q: %w", topic, err)
	}
	out = strings.Join(strings.Fields(out), " ")
	if strings.EqualFold(strings.Trim(out, ". "), "none") {
		return "", nil
	}
	return out, nil
}

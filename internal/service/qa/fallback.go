package qa

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/tuskqa/internal/core"
	"github.com/sandevgo/tuskqa/pkg/log"
)

const (
	DefaultWebNoteWords  = 60
	DefaultWebNoteBudget = 8 * time.Second
	summaryItems         = 3
	webNotePrefix        = "Web note:"
)

// Strategy produces a fallback answer or declines with ok=false.
type Strategy struct {
	Name  string
	Apply func(question string, evidence []core.EvidenceItem, webNote string) (text string, cited []string, ok bool)
}

// Resolver always yields user-facing text: the strategies are tried in order
// and the last one never declines.
type Resolver struct {
	knowledge  core.WebKnowledge
	noteWords  int
	budget     time.Duration
	strategies []Strategy
}

func NewResolver(knowledge core.WebKnowledge, noteWords int) *Resolver {
	if noteWords <= 0 {
		noteWords = DefaultWebNoteWords
	}
	return &Resolver{
		knowledge: knowledge,
		noteWords: noteWords,
		budget:    DefaultWebNoteBudget,
		strategies: []Strategy{
			{Name: "conservative_summary", Apply: conservativeSummary},
			{Name: "web_only", Apply: webOnly},
			{Name: "fixed_message", Apply: fixedMessage},
		},
	}
}

// WithBudget caps the total time WebNote may spend across all topic candidates.
func (r *Resolver) WithBudget(d time.Duration) *Resolver {
	if d > 0 {
		r.budget = d
	}
	return r
}

func (r *Resolver) Resolve(ctx context.Context, question string, evidence []core.EvidenceItem) string {
	text, _ := r.resolve(ctx, question, evidence)
	return text
}

func (r *Resolver) resolve(ctx context.Context, question string, evidence []core.EvidenceItem) (string, []string) {
	note := r.WebNote(ctx, question)
	for _, s := range r.strategies {
		if text, cited, ok := s.Apply(question, evidence, note); ok {
			fallbackStrategies.WithLabelValues(s.Name).Inc()
			log.FromCtx(ctx).Info().Str("strategy", s.Name).Bool("web_note", note != "").Msg("fallback answer")
			return text, cited
		}
	}
	text, _, _ := fixedMessage(question, evidence, note)
	return text, nil
}

// WebNote looks the question's topic up and returns a labeled, word-capped
// note, or "" when no candidate topic yields a summary. Candidates are tried
// in order; the first lookup error or the end of the budget stops the search.
func (r *Resolver) WebNote(ctx context.Context, question string) string {
	if r.knowledge == nil {
		return ""
	}
	logger := log.FromCtx(ctx)

	ctx, cancel := context.WithTimeout(ctx, r.budget)
	defer cancel()

	for _, topic := range TopicCandidates(question) {
		summary, err := r.knowledge.Summarize(ctx, topic)
		if err != nil {
			webLookups.WithLabelValues("error").Inc()
			logger.Warn().Err(err).Str("topic", topic).Msg("knowledge lookup failed, skipping web note")
			return ""
		}
		if strings.TrimSpace(summary) == "" {
			webLookups.WithLabelValues("miss").Inc()
			continue
		}
		webLookups.WithLabelValues("hit").Inc()
		return webNotePrefix + " " + capWords(summary, r.noteWords)
	}
	return ""
}

func conservativeSummary(question string, evidence []core.EvidenceItem, note string) (string, []string, bool) {
	if len(evidence) == 0 {
		return "", nil, false
	}

	recent := evidence[:min(summaryItems, len(evidence))]
	bits := make([]string, 0, len(recent))
	cited := make([]string, 0, len(recent))
	for _, e := range recent {
		bits = append(bits, fmt.Sprintf("[%s] %s", e.ID, e.Text))
		cited = append(cited, e.ID)
	}

	text := fmt.Sprintf("Based on your recent data: %s. I am not confident answering \"%s\" from this alone; more data would help.",
		strings.Join(bits, " | "), strings.TrimSpace(question))
	return joinNote(text, note), cited, true
}

func webOnly(question string, _ []core.EvidenceItem, note string) (string, []string, bool) {
	if note == "" {
		return "", nil, false
	}
	text := fmt.Sprintf("I don't have enough personal data to answer \"%s\".", strings.TrimSpace(question))
	return joinNote(text, note), nil, true
}

func fixedMessage(question string, _ []core.EvidenceItem, _ string) (string, []string, bool) {
	return fmt.Sprintf("I don't have enough personal data to answer \"%s\" yet. Log more facts, meals or check-ins, "+
		"and consider asking a professional or another trusted source.", strings.TrimSpace(question)), nil, true
}

func joinNote(text, note string) string {
	if note == "" {
		return text
	}
	return text + " " + note
}

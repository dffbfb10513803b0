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
	DefaultWordCap = 150
	ellipsis       = "…"
)

// Candidate is an answer before finalization.
type Candidate struct {
	Text       string
	Citations  []string
	Confidence *float64
}

// Executor runs a prompt against the model with resilience applied.
type Executor interface {
	Execute(ctx context.Context, prompt string) (string, error)
}

type Finalizer struct {
	log        core.QALog
	wordCap    int
	summarizer Executor
	now        func() time.Time
}

// NewFinalizer records to qaLog when it is non-nil. With a summarizer, long
// answers are first shortened by the model and only truncated if that fails.
func NewFinalizer(qaLog core.QALog, wordCap int, summarizer Executor) *Finalizer {
	if wordCap <= 0 {
		wordCap = DefaultWordCap
	}
	return &Finalizer{log: qaLog, wordCap: wordCap, summarizer: summarizer, now: time.Now}
}

// Finalize returns the text shown to the user and appends exactly one QA record.
// The result is never empty.
func (f *Finalizer) Finalize(ctx context.Context, owner, question string, c Candidate) string {
	text := collapseSpace(c.Text)
	if text == "" {
		text, _, _ = fixedMessage(question, nil, "")
	}

	if countWords(text) > f.wordCap {
		text = f.shorten(ctx, text)
	}

	if f.log != nil {
		rec := core.QARecord{
			Owner:      owner,
			Question:   strings.TrimSpace(question),
			Answer:     text,
			CitedFacts: c.Citations,
			Confidence: c.Confidence,
			CreatedAt:  f.now(),
		}
		if err := f.log.Append(ctx, rec); err != nil {
			log.FromCtx(ctx).Error().Err(err).Str("owner", owner).Msg("failed to record qa")
		}
	}
	return text
}

func (f *Finalizer) shorten(ctx context.Context, text string) string {
	if f.summarizer != nil {
		prompt := fmt.Sprintf("Shorten the following answer to at most %d words. Keep every bracketed id such as [fact_1] "+
			"and keep any %q segment at the end. Reply with the shortened text only.\n\n%s", f.wordCap, webNotePrefix, text)
		out, err := f.summarizer.Execute(ctx, prompt)
		if err != nil {
			log.FromCtx(ctx).Warn().Err(err).Msg("answer summarization failed, truncating")
		} else if s := collapseSpace(out); s != "" && countWords(s) <= f.wordCap {
			return s
		}
	}
	return truncateAnswer(text, f.wordCap)
}

// truncateAnswer caps the personal part and the web note separately so the
// note survives truncation. The note gets at most half of the budget.
func truncateAnswer(text string, wordCap int) string {
	idx := strings.Index(text, webNotePrefix)
	if idx < 0 {
		return capWords(text, wordCap)
	}

	personal := strings.TrimSpace(text[:idx])
	note := capWords(text[idx:], max(wordCap/2, 1))
	if personal == "" {
		return note
	}

	personalCap := wordCap - countWords(note)
	if personalCap <= 0 {
		return note
	}
	return capWords(personal, personalCap) + " " + note
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func countWords(s string) int {
	return len(strings.Fields(s))
}

func capWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + ellipsis
}

package qa

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sandevgo/tuskqa/internal/core"
)

const (
	placeholderQuestion = "{{question}}"
	placeholderEvidence = "{{evidence}}"
)

const DefaultTemplate = `You are a careful coach answering ONLY from the user's own recorded evidence.
Return STRICT JSON of the shape:
{"answer": "...", "citations": ["id1","id2"], "confidence": 0.0, "needs_web": false}
Rules:
- Keep the answer at most 120 words.
- Every claim must be supported by the evidence below. Cite evidence by id.
- Copy citation ids exactly as shown. Never invent, change or guess an id.
- Cite at least one evidence id in every answer, even if it is only loosely related.
- confidence is a number between 0 and 1.
- If the evidence conflicts, describe the conflict, say that the answer is uncertain and lower confidence. Suggest what additional data would settle it.
- If the evidence is weak or inconclusive, give a reasoned conclusion from the closest items and lower confidence. Never refuse to answer.
- When reasoning about meal timing, treat times at or after 20:00 as "late" and times before 18:00 as "early".
- If possible, include one concrete number from the evidence.
- If the question is outside what the evidence covers, say so, cite the closest item and set "needs_web" to true. Do not answer it with unsupported general claims.
Question: {{question}}
Evidence (id: text):
{{evidence}}`

type PromptBuilder struct {
	template string
}

func NewPromptBuilder(template string) *PromptBuilder {
	if strings.TrimSpace(template) == "" {
		template = DefaultTemplate
	}
	return &PromptBuilder{template: template}
}

// LoadPromptBuilder uses the template at path when the file exists, the default otherwise.
func LoadPromptBuilder(path string) (*PromptBuilder, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewPromptBuilder(""), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read prompt template: %w", err)
	}

	tpl := string(data)
	for _, ph := range []string{placeholderQuestion, placeholderEvidence} {
		if !strings.Contains(tpl, ph) {
			return nil, fmt.Errorf("prompt template %s is missing %s", path, ph)
		}
	}
	return NewPromptBuilder(tpl), nil
}

// Build substitutes both placeholders in one pass, so braces inside the
// question or evidence are never expanded.
func (b *PromptBuilder) Build(question string, evidence []core.EvidenceItem) string {
	return strings.NewReplacer(
		placeholderQuestion, strings.TrimSpace(question),
		placeholderEvidence, EvidenceBlock(evidence),
	).Replace(b.template)
}

// EvidenceBlock renders one "id: text (src:source, at:time)" line per item.
func EvidenceBlock(evidence []core.EvidenceItem) string {
	lines := make([]string, 0, len(evidence))
	for _, e := range evidence {
		text := strings.Join(strings.Fields(e.Text), " ")
		if e.HasTime() {
			lines = append(lines, fmt.Sprintf("%s: %s (src:%s, at:%s)", e.ID, text, e.Source, e.ObservedAt.Format(time.RFC3339)))
		} else {
			lines = append(lines, fmt.Sprintf("%s: %s (src:%s)", e.ID, text, e.Source))
		}
	}
	return strings.Join(lines, "\n")
}

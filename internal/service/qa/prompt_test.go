package qa

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/tuskqa/internal/core"
)

func sampleEvidence() []core.EvidenceItem {
	return []core.EvidenceItem{
		{ID: "fact_5", Text: "Insight: fried + late dinner linked to lower next-day energy", Source: core.SourceFact, ObservedAt: ts("2025-10-05T10:00:00Z")},
		{ID: "meal_1", Text: "Meal: fried chicken bowl\nat 21:00", Source: core.SourceMeal, ObservedAt: ts("2025-10-01T21:00:00Z")},
		{ID: "fact_9", Text: "Prefers oats", Source: core.SourceFact},
	}
}

func TestPromptBuilder_Build(t *testing.T) {
	b := NewPromptBuilder("")
	prompt := b.Build("  Do fried late dinners hurt my next-day energy? ", sampleEvidence())

	assert.Contains(t, prompt, "Question: Do fried late dinners hurt my next-day energy?\n")
	assert.True(t, strings.HasSuffix(prompt, strings.Join([]string{
		"fact_5: Insight: fried + late dinner linked to lower next-day energy (src:fact, at:2025-10-05T10:00:00Z)",
		"meal_1: Meal: fried chicken bowl at 21:00 (src:meal, at:2025-10-01T21:00:00Z)",
		"fact_9: Prefers oats (src:fact)",
	}, "\n")))

	for _, rule := range []string{`"answer"`, `"citations"`, `"confidence"`, `"needs_web"`, "120 words", "20:00", "18:00", "at least one"} {
		assert.Contains(t, prompt, rule)
	}
}

func TestPromptBuilder_Deterministic(t *testing.T) {
	b := NewPromptBuilder("")
	ev := sampleEvidence()
	assert.Equal(t, b.Build("q", ev), b.Build("q", ev))
}

func TestPromptBuilder_NoRecursiveExpansion(t *testing.T) {
	b := NewPromptBuilder("Q={{question}} E={{evidence}}")
	got := b.Build("what about {{evidence}}?", nil)
	assert.Equal(t, "Q=what about {{evidence}}? E=", got)
}

func TestLoadPromptBuilder(t *testing.T) {
	dir := t.TempDir()

	b, err := LoadPromptBuilder(filepath.Join(dir, "PROMPT.md"))
	require.NoError(t, err)
	assert.Equal(t, DefaultTemplate, b.template)

	custom := filepath.Join(dir, "custom.md")
	require.NoError(t, os.WriteFile(custom, []byte("Answer {{question}} using\n{{evidence}}"), 0o600))
	b, err = LoadPromptBuilder(custom)
	require.NoError(t, err)
	assert.Equal(t, "Answer hi using\nfact_9: Prefers oats (src:fact)", b.Build("hi", sampleEvidence()[2:]))

	broken := filepath.Join(dir, "broken.md")
	require.NoError(t, os.WriteFile(broken, []byte("no placeholders"), 0o600))
	_, err = LoadPromptBuilder(broken)
	assert.ErrorContains(t, err, "{{question}}")
}

func TestEstimateTokens_Empty(t *testing.T) {
	assert.Zero(t, EstimateTokens(""))
}

package qa

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sandevgo/tuskqa/internal/core"
	"github.com/sandevgo/tuskqa/internal/providers/llm"
	"github.com/sandevgo/tuskqa/internal/providers/web"
)

func TestResolver_ConservativeSummary(t *testing.T) {
	ev := []core.EvidenceItem{
		{ID: "fact_4", Text: "newest"},
		{ID: "meal_2", Text: "middle"},
		{ID: "fact_1", Text: "older"},
		{ID: "fact_0", Text: "oldest"},
	}
	r := NewResolver(nil, 0)

	text, cited := r.resolve(context.Background(), "Will I sleep well?", ev)
	assert.Equal(t, `Based on your recent data: [fact_4] newest | [meal_2] middle | [fact_1] older. I am not confident answering "Will I sleep well?" from this alone; more data would help.`, text)
	assert.Equal(t, []string{"fact_4", "meal_2", "fact_1"}, cited)
	assert.NotContains(t, text, "fact_0")
	assert.NotContains(t, text, webNotePrefix)
}

func TestResolver_SummaryWithWebNote(t *testing.T) {
	kb := &stubKnowledge{pages: map[string]string{"Seed oil": "Seed oils are vegetable oils extracted from the seeds of plants."}}
	r := NewResolver(kb, 60)

	text := r.Resolve(context.Background(), "Are seed oils toxic?", []core.EvidenceItem{{ID: "meal_1", Text: "Meal: oatmeal, berries"}})
	assert.Contains(t, text, "[meal_1] Meal: oatmeal, berries")
	assert.True(t, strings.HasSuffix(text, "Web note: Seed oils are vegetable oils extracted from the seeds of plants."))
}

func TestResolver_WebOnly(t *testing.T) {
	kb := &stubKnowledge{pages: map[string]string{"Oil": "Oil is any nonpolar chemical substance."}}
	r := NewResolver(kb, 60)

	text := r.Resolve(context.Background(), "Are seed oils toxic?", nil)
	assert.True(t, strings.HasPrefix(text, `I don't have enough personal data to answer "Are seed oils toxic?".`))
	assert.Contains(t, text, "Web note: Oil is any nonpolar chemical substance.")
	// Earlier, more specific candidates were tried first.
	assert.Equal(t, []string{"Seed oil", "Seed oils", "Oil"}, kb.lookups)
}

func TestResolver_FixedMessage(t *testing.T) {
	kb := &stubKnowledge{errs: map[string]error{"Seed oil": errors.New("offline")}}
	r := NewResolver(kb, 60)

	text := r.Resolve(context.Background(), "Are seed oils toxic?", nil)
	assert.Contains(t, text, "I don't have enough personal data")
	assert.Contains(t, text, "professional")
	assert.NotContains(t, text, webNotePrefix)
	// A failing source is not retried for the remaining candidates.
	assert.Equal(t, []string{"Seed oil"}, kb.lookups)
}

type refusingTransport struct {
	calls atomic.Int32
}

func (r *refusingTransport) Generate(context.Context, string) (string, error) {
	r.calls.Add(1)
	return "", errors.New("connection refused")
}

func TestResolver_DeadModelIsCalledOnce(t *testing.T) {
	transport := &refusingTransport{}
	client := llm.NewRetryingClient(transport, llm.DefaultOptions())
	knowledge := web.Chain{web.NewGeneralKnowledge(client, 60, 0)}
	r := NewResolver(knowledge, 60)

	start := time.Now()
	text := r.Resolve(context.Background(), "Are seed oils toxic?", []core.EvidenceItem{{ID: "fact_1", Text: "Oatmeal for breakfast"}})

	assert.Equal(t, int32(1), transport.calls.Load())
	assert.Less(t, time.Since(start), time.Second)
	assert.Contains(t, text, "[fact_1] Oatmeal for breakfast")
	assert.NotContains(t, text, webNotePrefix)
}

type stallingKnowledge struct {
	lookups atomic.Int32
}

func (s *stallingKnowledge) Summarize(ctx context.Context, _ string) (string, error) {
	s.lookups.Add(1)
	<-ctx.Done()
	return "", ctx.Err()
}

func TestResolver_WebNoteBudget(t *testing.T) {
	kb := &stallingKnowledge{}
	r := NewResolver(kb, 60).WithBudget(50 * time.Millisecond)

	start := time.Now()
	text := r.Resolve(context.Background(), "Are seed oils toxic?", nil)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, int32(1), kb.lookups.Load())
	assert.Contains(t, text, "I don't have enough personal data")
}

func TestResolver_NeverEmpty(t *testing.T) {
	r := NewResolver(nil, 0)
	for _, q := range []string{"", "   ", "?", "x"} {
		assert.NotEmpty(t, r.Resolve(context.Background(), q, nil))
	}
}

func TestResolver_WebNoteCapped(t *testing.T) {
	long := strings.Repeat("word ", 200)
	kb := &stubKnowledge{pages: map[string]string{"Coffee": long}}
	r := NewResolver(kb, 40)

	note := r.WebNote(context.Background(), "Is coffee bad for me?")
	assert.True(t, strings.HasPrefix(note, "Web note: "))
	assert.Equal(t, 42, countWords(note)) // "Web" "note:" + 40
	assert.True(t, strings.HasSuffix(note, ellipsis))
}

package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/tuskqa/internal/core"
	"github.com/sandevgo/tuskqa/internal/service/qa"
)

type fakeStore struct {
	facts    []core.Fact
	meals    []core.Meal
	checkIns []core.CheckIn
	records  []core.QARecord
	evidence []core.EvidenceItem
	forgot   []string
	report   qa.InsightReport
	window   time.Duration
	err      error
}

func (f *fakeStore) IngestFact(_ context.Context, owner, text, source string, at time.Time) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.facts = append(f.facts, core.Fact{ID: "7", Owner: owner, Content: text, Source: source, At: at})
	return "7", nil
}

func (f *fakeStore) ForgetFact(_ context.Context, _ string, id string) error {
	f.forgot = append(f.forgot, id)
	return f.err
}

func (f *fakeStore) ListFacts(context.Context, string) ([]core.Fact, error) {
	return f.facts, f.err
}

func (f *fakeStore) LogMeal(_ context.Context, m core.Meal) (string, error) {
	f.meals = append(f.meals, m)
	return "3", f.err
}

func (f *fakeStore) RecordCheckIn(_ context.Context, c core.CheckIn) (string, error) {
	f.checkIns = append(f.checkIns, c)
	return "4", f.err
}

func (f *fakeStore) History(context.Context, string) ([]core.QARecord, error) {
	return f.records, f.err
}

func (f *fakeStore) LastEvidence(string) []core.EvidenceItem {
	return f.evidence
}

func (f *fakeStore) MineInsights(_ context.Context, _ string, window time.Duration) (qa.InsightReport, error) {
	f.window = window
	return f.report, f.err
}

type staticProvider struct{}

func (staticProvider) GetProvider() string { return "gemini" }
func (staticProvider) GetModel() string    { return "gemini-2.5-flash" }
func (staticProvider) GetAPIKey() string   { return "" }
func (staticProvider) GetBaseURL() string  { return "" }

func newRouter(store *fakeStore) *Router {
	return New(NewCommands(staticProvider{}, store, "telegram"))
}

func TestRouter_NotACommand(t *testing.T) {
	_, ok := newRouter(&fakeStore{}).Execute(context.Background(), "me", "How is my sleep?")
	assert.False(t, ok)
}

func TestRouter_HelpAndUnknown(t *testing.T) {
	r := newRouter(&fakeStore{})

	out, ok := r.Execute(context.Background(), "me", "/help")
	require.True(t, ok)
	assert.Contains(t, out, "/fact - Remember a fact about you")
	assert.Contains(t, out, "/checkin")

	out, ok = r.Execute(context.Background(), "me", "/nope")
	require.True(t, ok)
	assert.Contains(t, out, "Unknown command: /nope")

	out, _ = r.Execute(context.Background(), "me", "/model@tuskqa_bot")
	assert.Contains(t, out, "gemini-2.5-flash")
}

func TestRouter_Facts(t *testing.T) {
	store := &fakeStore{}
	r := newRouter(store)
	ctx := context.Background()

	out, _ := r.Execute(ctx, "me", "/fact  Energy 4/10   after fried dinner")
	assert.Contains(t, out, "fact_7")
	require.Len(t, store.facts, 1)
	assert.Equal(t, "Energy 4/10 after fried dinner", store.facts[0].Content)
	assert.Equal(t, "telegram", store.facts[0].Source)

	out, _ = r.Execute(ctx, "me", "/facts")
	assert.Contains(t, out, "`fact_7` Energy 4/10 after fried dinner")

	out, _ = r.Execute(ctx, "me", "/forget fact_7")
	assert.Contains(t, out, "Forgot fact_7")
	assert.Equal(t, []string{"fact_7"}, store.forgot)

	out, _ = r.Execute(ctx, "me", "/fact")
	assert.Contains(t, out, "Usage")
}

func TestRouter_ErrorsAreRendered(t *testing.T) {
	store := &fakeStore{err: errors.New("fact not found")}
	out, ok := newRouter(store).Execute(context.Background(), "me", "/forget fact_9")
	require.True(t, ok)
	assert.Equal(t, "❌ /forget failed: fact not found\n", out)
}

func TestRouter_MealAndCheckIn(t *testing.T) {
	store := &fakeStore{}
	r := newRouter(store)
	ctx := context.Background()

	out, _ := r.Execute(ctx, "me", "/meal fried chicken, rice ; ate at 21:00")
	assert.Contains(t, out, "meal_3")
	require.Len(t, store.meals, 1)
	assert.Equal(t, []string{"fried chicken", "rice"}, store.meals[0].Items)
	assert.Equal(t, "ate at 21:00", store.meals[0].Notes)
	assert.Equal(t, "me", store.meals[0].Owner)

	out, _ = r.Execute(ctx, "me", "/checkin energy 6 /10")
	assert.Contains(t, out, "energy")
	require.Len(t, store.checkIns, 1)
	assert.Equal(t, 6.0, store.checkIns[0].Value)
	assert.Equal(t, "/10", store.checkIns[0].Unit)

	out, _ = r.Execute(ctx, "me", "/checkin energy high")
	assert.Contains(t, out, "not a number")
}

func TestRouter_HistoryAndEvidence(t *testing.T) {
	conf := 0.8
	store := &fakeStore{
		records: []core.QARecord{
			{Question: "old?", Answer: "old answer"},
			{Question: "new?", Answer: "new answer", CitedFacts: []string{"fact_1"}, Confidence: &conf},
		},
		evidence: []core.EvidenceItem{{ID: "fact_1", Text: "Slept 7h"}},
	}
	r := newRouter(store)

	out, _ := r.Execute(context.Background(), "me", "/history 1")
	assert.Contains(t, out, "❓ **new?**\nnew answer\n_cited fact_1 · confidence 0.80_")
	assert.NotContains(t, out, "old answer")

	out, _ = r.Execute(context.Background(), "me", "/history zero")
	assert.Contains(t, out, "**Usage**: `/history [count]`")

	out, _ = r.Execute(context.Background(), "me", "/evidence")
	assert.Contains(t, out, "`fact_1` Slept 7h")
}

func TestFormatAnswer(t *testing.T) {
	conf := 0.78
	got := FormatAnswer(qa.Answer{Text: "Yes.", Citations: []string{"fact_1", "meal_2"}, Confidence: &conf})
	assert.Equal(t, "Yes.\n\n_sources: fact_1, meal_2 · confidence 0.78_", got)

	assert.Equal(t, "Plain.", FormatAnswer(qa.Answer{Text: "Plain."}))
}

func TestRouter_Insights(t *testing.T) {
	now := time.Now()
	store := &fakeStore{report: qa.InsightReport{
		Window:    qa.InsightWindow{Start: now.Add(-qa.DefaultInsightWindow), End: now},
		Insights:  []string{"Most meals were dinner this week.", "Trending down this week: energy."},
		FactIDs:   []string{"8"},
		FromModel: false,
	}}
	r := newRouter(store)

	out, _ := r.Execute(context.Background(), "me", "/insights")
	assert.Equal(t, qa.DefaultInsightWindow, store.window)
	assert.Contains(t, out, "**Insights this week (from simple trends)**")
	assert.Contains(t, out, "› Trending down this week: energy.")
	assert.Contains(t, out, "1 new, saved as facts with source insight")

	_, _ = r.Execute(context.Background(), "me", "/insights 14")
	assert.Equal(t, 14*24*time.Hour, store.window)

	out, _ = r.Execute(context.Background(), "me", "/insights soon")
	assert.Contains(t, out, "Usage")

	store.report = qa.InsightReport{}
	out, _ = r.Execute(context.Background(), "me", "/insights")
	assert.Contains(t, out, "no meals or check-ins")
}

package qa

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/tuskqa/internal/core"
)

const owner = "maya"

type fixture struct {
	facts    *memFacts
	meals    *memMeals
	checkIns *memCheckIns
	log      *memLog
	llm      *scriptedLLM
	kb       *stubKnowledge
	svc      *Service
}

func newFixture(t *testing.T, llm *scriptedLLM, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		facts:    &memFacts{},
		meals:    &memMeals{},
		checkIns: &memCheckIns{},
		log:      &memLog{},
		llm:      llm,
		kb:       &stubKnowledge{pages: map[string]string{}},
	}
	deps := Deps{Facts: f.facts, Meals: f.meals, CheckIns: f.checkIns, Log: f.log, Knowledge: f.kb}
	if llm != nil {
		deps.LLM = llm
	}
	f.svc = NewService(deps, nil, opts)
	return f
}

func (f *fixture) ingest(t *testing.T, at, content, source string) string {
	t.Helper()
	id, err := f.svc.IngestFact(context.Background(), owner, content, source, ts(at))
	require.NoError(t, err)
	return "fact_" + id
}

// The model's reply is derived from the prompt so that it can cite real ids.
func citeFirst(answer string, confidence float64, needsWeb bool, idPrefix string) *scriptedLLM {
	return &scriptedLLM{fn: func(prompt string) (string, error) {
		for _, line := range strings.Split(prompt, "\n") {
			if strings.HasPrefix(line, idPrefix) {
				id, _, _ := strings.Cut(line, ":")
				return fmt.Sprintf(`{"answer":%q,"citations":[%q],"confidence":%v,"needs_web":%v}`,
					answer+" ["+id+"]", id, confidence, needsWeb), nil
			}
		}
		return "", errors.New("no evidence in prompt")
	}}
}

func TestAsk_ScenarioGrounded(t *testing.T) {
	llm := citeFirst("Yes: after late fried dinners your next-day energy was 4/10 versus 6/10.", 0.78, false, "fact_5")
	f := newFixture(t, llm, DefaultOptions())

	f.ingest(t, "2025-10-01T21:00:00Z", "Dinner: fried chicken bowl at 21:00", "meal")
	f.ingest(t, "2025-10-02T13:30:00Z", "Next-day energy: 4/10 at 13:30", "check_in")
	f.ingest(t, "2025-10-03T19:15:00Z", "Dinner: grilled bowl at 19:15", "meal")
	f.ingest(t, "2025-10-04T13:30:00Z", "Next-day energy: 6/10 at 13:30", "check_in")
	insight := f.ingest(t, "2025-10-05T10:00:00Z", "Insight: fried + late dinner linked to lower next-day energy (conf 0.78)", "insight")

	ans, err := f.svc.Session(owner).Ask(context.Background(), "Do fried late dinners hurt my next-day energy?")
	require.NoError(t, err)

	assert.Equal(t, PathGrounded, ans.Path)
	assert.Contains(t, ans.Citations, insight)
	require.NotNil(t, ans.Confidence)
	assert.Greater(t, *ans.Confidence, 0.6)
	assert.NotContains(t, ans.Text, webNotePrefix)
	assert.Empty(t, f.kb.lookups)

	recs := f.log.all()
	require.Len(t, recs, 1)
	assert.Equal(t, ans.Text, recs[0].Answer)
	assert.Equal(t, []string{insight}, recs[0].CitedFacts)
}

func TestAsk_ScenarioConflicting(t *testing.T) {
	llm := citeFirst("The evidence conflicts: fried late dinners were followed by 6/10 and 4/10, so this is uncertain.", 0.45, false, "fact_")
	opts := DefaultOptions()
	opts.WebOnLowConfidence = true
	f := newFixture(t, llm, opts)
	f.kb.pages["Lateness"] = "Lateness is the state of arriving after the expected time."

	f.ingest(t, "2025-10-06T21:30:00Z", "Dinner: grilled bowl at 21:30", "meal")
	f.ingest(t, "2025-10-07T13:00:00Z", "Next-day energy: 7/10 at 13:00", "check_in")
	f.ingest(t, "2025-10-08T21:30:00Z", "Dinner: fried bowl at 21:30", "meal")
	f.ingest(t, "2025-10-09T13:00:00Z", "Next-day energy: 6/10 at 13:00", "check_in")
	f.ingest(t, "2025-10-10T21:30:00Z", "Dinner: fried bowl at 21:30", "meal")
	f.ingest(t, "2025-10-11T13:00:00Z", "Next-day energy: 4/10 at 13:00", "check_in")

	ans, err := f.svc.Session(owner).Ask(context.Background(), "Is lateness or frying affecting my next-day energy more?")
	require.NoError(t, err)

	assert.Equal(t, PathGrounded, ans.Path)
	require.NotNil(t, ans.Confidence)
	assert.LessOrEqual(t, *ans.Confidence, 0.6)
	assert.Contains(t, ans.Text, "conflicts")
	assert.Contains(t, ans.Text, "uncertain")
	assert.Contains(t, ans.Text, personalCaveat)
	assert.Contains(t, ans.Text, "Web note: Lateness is the state")
}

func TestAsk_ScenarioOutOfScope(t *testing.T) {
	llm := citeFirst("Your data only covers breakfast, not seed oils.", 0.2, true, "fact_")
	f := newFixture(t, llm, DefaultOptions())
	f.kb.pages["Seed oil"] = "Seed oils are vegetable oils extracted from the seeds of plants."
	f.ingest(t, "2025-10-12T10:00:00Z", "Logged breakfast: oatmeal + berries", "meal")

	ans, err := f.svc.Session(owner).Ask(context.Background(), "Are seed oils toxic?")
	require.NoError(t, err)

	assert.True(t, ans.NeedsWeb)
	assert.Contains(t, ans.Text, personalCaveat)
	idx := strings.Index(ans.Text, "Web note: Seed oils are vegetable oils")
	require.Greater(t, idx, 0)
	assert.Contains(t, ans.Text[:idx], "[fact_1]")
}

func TestAsk_ScenarioOutOfScopeWithoutModelFlag(t *testing.T) {
	// The model breaks the contract; the fallback still separates personal and general knowledge.
	f := newFixture(t, replyWith(`{"answer":"Seed oils are toxic.","citations":[],"confidence":0.9}`), DefaultOptions())
	f.kb.pages["Seed oil"] = "Seed oils are vegetable oils extracted from the seeds of plants."
	f.ingest(t, "2025-10-12T10:00:00Z", "Logged breakfast: oatmeal + berries", "meal")

	ans, err := f.svc.Session(owner).Ask(context.Background(), "Are seed oils toxic?")
	require.NoError(t, err)

	assert.Equal(t, PathFallback, ans.Path)
	assert.Equal(t, "LLM_NO_CITATIONS", ans.Reason)
	assert.Contains(t, ans.Text, "[fact_1] Logged breakfast")
	assert.Contains(t, ans.Text, "Web note: Seed oils are vegetable oils")
	assert.NotContains(t, ans.Text, "are toxic")
}

func TestAsk_ZeroEvidenceSkipsModel(t *testing.T) {
	llm := replyWith(`{"answer":"should not be used","citations":["x"],"confidence":1}`)
	f := newFixture(t, llm, DefaultOptions())

	ans, err := f.svc.Session(owner).Ask(context.Background(), "How is my sleep?")
	require.NoError(t, err)

	assert.Equal(t, int32(0), llm.calls.Load())
	assert.Equal(t, PathFallback, ans.Path)
	assert.Equal(t, "no_evidence", ans.Reason)
	assert.Contains(t, ans.Text, "I don't have enough personal data")
	assert.Nil(t, ans.Confidence)
	assert.Len(t, f.log.all(), 1)
}

func TestAsk_MalformedOutput(t *testing.T) {
	f := newFixture(t, replyWith("not json"), DefaultOptions())
	f.ingest(t, "2025-10-01T08:00:00Z", "Slept 7h", "note")
	f.ingest(t, "2025-10-02T08:00:00Z", "Slept 5h", "note")

	ans, err := f.svc.Session(owner).Ask(context.Background(), "Do I sleep enough?")
	require.NoError(t, err)

	assert.Equal(t, PathFallback, ans.Path)
	assert.Equal(t, "LLM_MALFORMED_JSON", ans.Reason)
	assert.True(t, strings.HasPrefix(ans.Text, "Based on your recent data: [fact_2] Slept 5h | [fact_1] Slept 7h."))
	assert.Equal(t, []string{"fact_2", "fact_1"}, ans.Citations)

	recs := f.log.all()
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"fact_2", "fact_1"}, recs[0].CitedFacts)
	assert.Nil(t, recs[0].Confidence)
}

func TestAsk_TransportFailure(t *testing.T) {
	llm := &scriptedLLM{fn: func(string) (string, error) { return "", errors.New("failed after 4 attempts: timeout") }}
	f := newFixture(t, llm, DefaultOptions())
	f.ingest(t, "2025-10-01T08:00:00Z", "Walked 10k steps", "note")

	ans, err := f.svc.Session(owner).Ask(context.Background(), "Am I active?")
	require.NoError(t, err)
	assert.Equal(t, PathFallback, ans.Path)
	assert.Equal(t, "transport", ans.Reason)
	assert.Contains(t, ans.Text, "[fact_1] Walked 10k steps")
}

func TestAsk_BadCitationFallsBack(t *testing.T) {
	f := newFixture(t, replyWith(`{"answer":"ok","citations":["evidence_99"],"confidence":0.9}`), DefaultOptions())
	f.ingest(t, "2025-10-01T08:00:00Z", "Drank coffee at 16:00", "note")

	ans, err := f.svc.Session(owner).Ask(context.Background(), "Does coffee affect me?")
	require.NoError(t, err)
	assert.Equal(t, "LLM_BAD_CITATION", ans.Reason)
	assert.NotContains(t, ans.Citations, "evidence_99")
}

func TestAsk_PartialSourceFailure(t *testing.T) {
	llm := citeFirst("Energy was 3/10 after the late meal.", 0.7, false, "meal_")
	f := newFixture(t, llm, DefaultOptions())
	f.facts.listErr = errors.New("facts table locked")
	f.checkIns.err = errors.New("check-in service down")
	f.meals.meals = []core.Meal{{ID: "9", Items: []string{"pizza"}, At: ts("2025-10-01T22:00:00Z")}}

	ans, err := f.svc.Session(owner).Ask(context.Background(), "Do late meals matter?")
	require.NoError(t, err)
	assert.Equal(t, PathGrounded, ans.Path)
	assert.Equal(t, []string{"meal_9"}, ans.Citations)
}

func TestAsk_HygieneForgetsBlankFacts(t *testing.T) {
	f := newFixture(t, citeFirst("ok", 0.9, false, "fact_"), DefaultOptions())
	f.ingest(t, "2025-10-01T08:00:00Z", "Real fact", "note")
	// Written around the service, as a sync from another client could.
	_, _ = f.facts.IngestFact(context.Background(), owner, "null", "sync", ts("2025-10-02T08:00:00Z"))
	_, _ = f.facts.IngestFact(context.Background(), owner, "  ", "sync", ts("2025-10-03T08:00:00Z"))

	sess := f.svc.Session(owner)
	_, err := sess.Ask(context.Background(), "anything?")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"2", "3"}, f.facts.forgot)
	facts, err := f.svc.ListFacts(context.Background(), owner)
	require.NoError(t, err)
	assert.Len(t, facts, 1)
	assert.Equal(t, []string{"fact_1"}, ids(sess.LastEvidence()))
	assert.NotContains(t, f.llm.prompts[0], "null")
}

func TestAsk_Guards(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once
	llm := &scriptedLLM{fn: func(prompt string) (string, error) {
		once.Do(func() { close(entered) })
		<-release
		return `{"answer":"done [fact_1]","citations":["fact_1"],"confidence":0.8}`, nil
	}}
	f := newFixture(t, llm, DefaultOptions())
	f.ingest(t, "2025-10-01T08:00:00Z", "A fact", "note")
	sess := f.svc.Session(owner)

	_, err := sess.Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)

	done := make(chan error, 1)
	go func() {
		_, err := sess.Ask(context.Background(), "first?")
		done <- err
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first ask never reached the model")
	}

	_, err = sess.Ask(context.Background(), "second?")
	assert.ErrorIs(t, err, ErrAskInProgress)

	// Other owners are not blocked.
	other, err := f.svc.Session("someone-else").Ask(context.Background(), "mine?")
	require.NoError(t, err)
	assert.Equal(t, PathFallback, other.Path)

	close(release)
	require.NoError(t, <-done)

	_, err = sess.Ask(context.Background(), "third?")
	assert.NoError(t, err)

	// One record per completed ask; the rejected one left no trace.
	assert.Len(t, f.log.all(), 3)
}

func TestService_SessionRegistry(t *testing.T) {
	f := newFixture(t, nil, DefaultOptions())
	a := f.svc.Session("a")
	assert.Same(t, a, f.svc.Session("a"))
	assert.NotSame(t, a, f.svc.Session("b"))
	assert.Equal(t, "a", a.Owner())
}

func TestService_NoModelConfigured(t *testing.T) {
	f := newFixture(t, nil, DefaultOptions())
	f.ingest(t, "2025-10-01T08:00:00Z", "A fact", "note")

	ans, err := f.svc.Session(owner).Ask(context.Background(), "q?")
	require.NoError(t, err)
	assert.Equal(t, "no_llm", ans.Reason)
	assert.NotEmpty(t, ans.Text)
}

func TestService_FactManagement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, DefaultOptions())

	_, err := f.svc.IngestFact(ctx, owner, "  ", "note", time.Time{})
	assert.ErrorIs(t, err, ErrEmptyFact)
	_, err = f.svc.IngestFact(ctx, owner, "undefined", "note", time.Time{})
	assert.ErrorIs(t, err, ErrEmptyFact)

	id, err := f.svc.IngestFact(ctx, owner, "  Likes tea ", "note", time.Time{})
	require.NoError(t, err)
	facts, _ := f.svc.ListFacts(ctx, owner)
	require.Len(t, facts, 1)
	assert.Equal(t, "Likes tea", facts[0].Content)
	assert.False(t, facts[0].At.IsZero())

	require.NoError(t, f.svc.ForgetFact(ctx, owner, "fact_"+id))
	facts, _ = f.svc.ListFacts(ctx, owner)
	assert.Empty(t, facts)

	_, err = f.svc.LogMeal(ctx, core.Meal{Owner: owner})
	assert.ErrorIs(t, err, ErrEmptyFact)
	_, err = f.svc.LogMeal(ctx, core.Meal{Owner: owner, Items: []string{"soup"}})
	assert.NoError(t, err)

	_, err = f.svc.RecordCheckIn(ctx, core.CheckIn{Owner: owner, Metric: " "})
	assert.ErrorIs(t, err, ErrEmptyFact)
	_, err = f.svc.RecordCheckIn(ctx, core.CheckIn{Owner: owner, Metric: "mood", Value: 8})
	assert.NoError(t, err)
	assert.False(t, f.checkIns.checkIns[0].At.IsZero())
}

package qa

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sandevgo/tuskqa/internal/core"
)

type memFacts struct {
	mu      sync.Mutex
	next    int
	facts   []core.Fact
	listErr error
	forgot  []string
}

func (m *memFacts) IngestFact(_ context.Context, owner, content, source string, at time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	id := strconv.Itoa(m.next)
	m.facts = append(m.facts, core.Fact{ID: id, Owner: owner, Content: content, Source: source, At: at})
	return id, nil
}

func (m *memFacts) ForgetFact(_ context.Context, owner, factID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, f := range m.facts {
		if f.ID == factID && f.Owner == owner {
			m.facts = append(m.facts[:i], m.facts[i+1:]...)
			m.forgot = append(m.forgot, factID)
			return nil
		}
	}
	return errors.New("fact not found")
}

func (m *memFacts) ListFacts(_ context.Context, owner string) ([]core.Fact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []core.Fact
	for _, f := range m.facts {
		if f.Owner == owner {
			out = append(out, f)
		}
	}
	return out, nil
}

type memMeals struct {
	meals []core.Meal
	err   error
}

func (m *memMeals) LogMeal(_ context.Context, meal core.Meal) (string, error) {
	meal.ID = strconv.Itoa(len(m.meals) + 1)
	m.meals = append(m.meals, meal)
	return meal.ID, nil
}

func (m *memMeals) ListMeals(context.Context, string) ([]core.Meal, error) {
	return m.meals, m.err
}

type memCheckIns struct {
	checkIns []core.CheckIn
	err      error
}

func (m *memCheckIns) RecordCheckIn(_ context.Context, c core.CheckIn) (string, error) {
	c.ID = strconv.Itoa(len(m.checkIns) + 1)
	m.checkIns = append(m.checkIns, c)
	return c.ID, nil
}

func (m *memCheckIns) ListCheckIns(context.Context, string) ([]core.CheckIn, error) {
	return m.checkIns, m.err
}

type memLog struct {
	mu      sync.Mutex
	records []core.QARecord
	err     error
}

func (m *memLog) Append(_ context.Context, rec core.QARecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memLog) ListQAs(_ context.Context, owner string) ([]core.QARecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.QARecord
	for _, r := range m.records {
		if r.Owner == owner {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memLog) all() []core.QARecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.QARecord(nil), m.records...)
}

// scriptedLLM answers with fn and records every prompt it saw.
type scriptedLLM struct {
	calls   atomic.Int32
	mu      sync.Mutex
	prompts []string
	fn      func(prompt string) (string, error)
}

func (s *scriptedLLM) Execute(_ context.Context, prompt string) (string, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()
	return s.fn(prompt)
}

func replyWith(text string) *scriptedLLM {
	return &scriptedLLM{fn: func(string) (string, error) { return text, nil }}
}

type stubKnowledge struct {
	mu      sync.Mutex
	pages   map[string]string
	errs    map[string]error
	lookups []string
}

func (s *stubKnowledge) Summarize(_ context.Context, topic string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups = append(s.lookups, topic)
	if err := s.errs[topic]; err != nil {
		return "", err
	}
	return s.pages[topic], nil
}

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

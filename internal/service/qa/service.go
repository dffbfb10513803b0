package qa

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sandevgo/tuskqa/internal/core"
	"github.com/sandevgo/tuskqa/pkg/log"
)

const DefaultLowConfidence = 0.6

const personalCaveat = "Your personal data does not cover this question directly."

type Path string

const (
	PathGrounded Path = "grounded"
	PathFallback Path = "fallback"
)

// Answer is what an ask returns to a surface. Confidence is nil on the fallback path.
type Answer struct {
	Text       string
	Citations  []string
	Confidence *float64
	Path       Path
	NeedsWeb   bool
	// Reason says why the fallback path was taken: no_evidence, transport or a validation kind.
	Reason string
}

type Deps struct {
	Facts     core.FactRepository
	Meals     core.MealRepository
	CheckIns  core.CheckInRepository
	Log       core.QALog
	LLM       Executor
	Knowledge core.WebKnowledge
}

type Options struct {
	EvidenceCap  int
	MinFacts     int
	WordCap      int
	WebNoteWords int
	// WebNoteBudget bounds the whole web note lookup.
	WebNoteBudget time.Duration
	// WebOnLowConfidence adds a web note to grounded answers at or below LowConfidence.
	WebOnLowConfidence bool
	LowConfidence      float64
	// Summarize lets the model shorten over-long answers before truncation.
	Summarize bool
}

func DefaultOptions() Options {
	return Options{
		EvidenceCap:   DefaultEvidenceCap,
		MinFacts:      DefaultMinFacts,
		WordCap:       DefaultWordCap,
		WebNoteWords:  DefaultWebNoteWords,
		WebNoteBudget: DefaultWebNoteBudget,
		LowConfidence: DefaultLowConfidence,
	}
}

type Service struct {
	deps       Deps
	opts       Options
	aggregator *Aggregator
	prompts    *PromptBuilder
	resolver   *Resolver
	finalizer  *Finalizer

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewService(deps Deps, prompts *PromptBuilder, opts Options) *Service {
	if prompts == nil {
		prompts = NewPromptBuilder("")
	}
	if opts.LowConfidence <= 0 {
		opts.LowConfidence = DefaultLowConfidence
	}

	var summarizer Executor
	if opts.Summarize {
		summarizer = deps.LLM
	}

	return &Service{
		deps:       deps,
		opts:       opts,
		aggregator: NewAggregator(opts.EvidenceCap, opts.MinFacts),
		prompts:    prompts,
		resolver:   NewResolver(deps.Knowledge, opts.WebNoteWords).WithBudget(opts.WebNoteBudget),
		finalizer:  NewFinalizer(deps.Log, opts.WordCap, summarizer),
		sessions:   make(map[string]*Session),
	}
}

// Session returns the owner's session, creating it on first use.
func (s *Service) Session(owner string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[owner]
	if !ok {
		sess = newSession(owner, s)
		s.sessions[owner] = sess
	}
	return sess
}

func (s *Service) ask(ctx context.Context, owner, question string) (Answer, []core.EvidenceItem) {
	logger := log.FromCtx(ctx).With().Str("owner", owner).Logger()
	ctx = logger.WithContext(ctx)

	facts, meals, checkIns := s.gatherEvidence(ctx, owner)
	evidence := s.aggregator.Select(question, facts, meals, checkIns)
	evidenceSize.Observe(float64(len(evidence)))
	logger.Debug().Int("evidence", len(evidence)).Msg("evidence selected")

	ans, cand := s.answer(ctx, question, evidence)
	ans.Text = s.finalizer.Finalize(ctx, owner, question, cand)

	asksTotal.WithLabelValues(string(ans.Path)).Inc()
	logger.Info().
		Str("path", string(ans.Path)).
		Str("reason", ans.Reason).
		Int("citations", len(ans.Citations)).
		Msg("ask answered")
	return ans, evidence
}

func (s *Service) answer(ctx context.Context, question string, evidence []core.EvidenceItem) (Answer, Candidate) {
	logger := log.FromCtx(ctx)

	if len(evidence) == 0 {
		return s.fallback(ctx, question, evidence, "no_evidence")
	}
	if s.deps.LLM == nil {
		return s.fallback(ctx, question, evidence, "no_llm")
	}

	prompt := s.prompts.Build(question, evidence)
	if e := logger.Debug(); e.Enabled() {
		e.Int("prompt_tokens", EstimateTokens(prompt)).Msg("prompt built")
	}

	raw, err := s.deps.LLM.Execute(ctx, prompt)
	if err != nil {
		logger.Warn().Err(err).Msg("llm unavailable, falling back")
		return s.fallback(ctx, question, evidence, "transport")
	}

	draft, err := Validate(raw, EvidenceIDs(evidence))
	if err != nil {
		kind := ValidationKind(err)
		validationFailures.WithLabelValues(kind).Inc()
		logger.Warn().Err(err).Str("kind", kind).Msg("model draft rejected")
		return s.fallback(ctx, question, evidence, kind)
	}

	text := draft.Answer
	lowConfidence := s.opts.WebOnLowConfidence && draft.Confidence <= s.opts.LowConfidence
	if draft.NeedsWeb || lowConfidence {
		text = joinNote(text+" "+personalCaveat, s.resolver.WebNote(ctx, question))
	}

	confidence := draft.Confidence
	ans := Answer{
		Citations:  draft.Citations,
		Confidence: &confidence,
		Path:       PathGrounded,
		NeedsWeb:   draft.NeedsWeb,
	}
	return ans, Candidate{Text: text, Citations: draft.Citations, Confidence: &confidence}
}

func (s *Service) fallback(ctx context.Context, question string, evidence []core.EvidenceItem, reason string) (Answer, Candidate) {
	text, cited := s.resolver.resolve(ctx, question, evidence)
	return Answer{Citations: cited, Path: PathFallback, Reason: reason}, Candidate{Text: text, Citations: cited}
}

// gatherEvidence reads the three sources concurrently. A failing source
// contributes nothing; the others are unaffected.
func (s *Service) gatherEvidence(ctx context.Context, owner string) ([]core.Fact, []core.Meal, []core.CheckIn) {
	logger := log.FromCtx(ctx)

	var (
		g        errgroup.Group
		facts    []core.Fact
		meals    []core.Meal
		checkIns []core.CheckIn
	)

	if s.deps.Facts != nil {
		g.Go(func() error {
			list, err := s.deps.Facts.ListFacts(ctx, owner)
			if err != nil {
				logger.Warn().Err(err).Str("source", "facts").Msg("evidence source failed")
				return nil
			}
			facts = s.hygiene(ctx, owner, list)
			return nil
		})
	}
	if s.deps.Meals != nil {
		g.Go(func() error {
			list, err := s.deps.Meals.ListMeals(ctx, owner)
			if err != nil {
				logger.Warn().Err(err).Str("source", "meals").Msg("evidence source failed")
				return nil
			}
			meals = list
			return nil
		})
	}
	if s.deps.CheckIns != nil {
		g.Go(func() error {
			list, err := s.deps.CheckIns.ListCheckIns(ctx, owner)
			if err != nil {
				logger.Warn().Err(err).Str("source", "check_ins").Msg("evidence source failed")
				return nil
			}
			checkIns = list
			return nil
		})
	}

	_ = g.Wait()
	return facts, meals, checkIns
}

// hygiene forgets facts whose text can never be cited. Failures only cost a retry on the next ask.
func (s *Service) hygiene(ctx context.Context, owner string, facts []core.Fact) []core.Fact {
	kept := make([]core.Fact, 0, len(facts))
	for _, f := range facts {
		if !isBlankText(f.Content) {
			kept = append(kept, f)
			continue
		}
		if err := s.deps.Facts.ForgetFact(ctx, owner, f.ID); err != nil {
			log.FromCtx(ctx).Debug().Err(err).Str("fact", f.ID).Msg("hygiene forget failed")
			continue
		}
		log.FromCtx(ctx).Info().Str("fact", f.ID).Msg("forgot blank fact")
	}
	return kept
}

// Ask is Session(owner).Ask.
func (s *Service) Ask(ctx context.Context, owner, question string) (Answer, error) {
	return s.Session(owner).Ask(ctx, question)
}

// LastEvidence is the owner's most recent selection, empty before the first ask.
func (s *Service) LastEvidence(owner string) []core.EvidenceItem {
	return s.Session(owner).LastEvidence()
}

func (s *Service) IngestFact(ctx context.Context, owner, text, source string, at time.Time) (string, error) {
	text = strings.TrimSpace(text)
	if isBlankText(text) {
		return "", ErrEmptyFact
	}
	if at.IsZero() {
		at = time.Now()
	}
	return s.deps.Facts.IngestFact(ctx, owner, text, strings.TrimSpace(source), at)
}

func (s *Service) ForgetFact(ctx context.Context, owner, factID string) error {
	return s.deps.Facts.ForgetFact(ctx, owner, strings.TrimPrefix(strings.TrimSpace(factID), "fact_"))
}

func (s *Service) ListFacts(ctx context.Context, owner string) ([]core.Fact, error) {
	return s.deps.Facts.ListFacts(ctx, owner)
}

func (s *Service) LogMeal(ctx context.Context, meal core.Meal) (string, error) {
	if mealText(meal) == "" {
		return "", ErrEmptyFact
	}
	if meal.At.IsZero() {
		meal.At = time.Now()
	}
	return s.deps.Meals.LogMeal(ctx, meal)
}

func (s *Service) RecordCheckIn(ctx context.Context, c core.CheckIn) (string, error) {
	if isBlankText(c.Metric) {
		return "", ErrEmptyFact
	}
	if c.At.IsZero() {
		c.At = time.Now()
	}
	return s.deps.CheckIns.RecordCheckIn(ctx, c)
}

func (s *Service) History(ctx context.Context, owner string) ([]core.QARecord, error) {
	if s.deps.Log == nil {
		return nil, nil
	}
	return s.deps.Log.ListQAs(ctx, owner)
}

package command

import (
	"context"
	"time"

	"github.com/sandevgo/tuskqa/internal/core"
	"github.com/sandevgo/tuskqa/internal/service/qa"
)

// Store is what the data commands need from the QA service.
type Store interface {
	IngestFact(ctx context.Context, owner, text, source string, at time.Time) (string, error)
	ForgetFact(ctx context.Context, owner, factID string) error
	ListFacts(ctx context.Context, owner string) ([]core.Fact, error)
	LogMeal(ctx context.Context, meal core.Meal) (string, error)
	RecordCheckIn(ctx context.Context, c core.CheckIn) (string, error)
	History(ctx context.Context, owner string) ([]core.QARecord, error)
	LastEvidence(owner string) []core.EvidenceItem
	MineInsights(ctx context.Context, owner string, window time.Duration) (qa.InsightReport, error)
}

func NewCommands(cfg core.ProviderConfig, store Store, source string) []core.Command {
	return []core.Command{
		NewModelCommand(cfg),
		NewFactCommand(store, source),
		NewForgetCommand(store),
		NewFactsCommand(store),
		NewMealCommand(store),
		NewCheckInCommand(store),
		NewHistoryCommand(store),
		NewEvidenceCommand(store),
		NewInsightsCommand(store),
	}
}

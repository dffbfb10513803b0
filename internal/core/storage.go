package core

import (
	"context"
	"time"
)

type FactRepository interface {
	IngestFact(ctx context.Context, owner, content, source string, at time.Time) (string, error)
	ForgetFact(ctx context.Context, owner, factID string) error
	ListFacts(ctx context.Context, owner string) ([]Fact, error)
}

type MealRepository interface {
	LogMeal(ctx context.Context, meal Meal) (string, error)
	ListMeals(ctx context.Context, owner string) ([]Meal, error)
}

type CheckInRepository interface {
	RecordCheckIn(ctx context.Context, checkIn CheckIn) (string, error)
	ListCheckIns(ctx context.Context, owner string) ([]CheckIn, error)
}

// QALog is append-only. Records are never updated by the application.
type QALog interface {
	Append(ctx context.Context, rec QARecord) error
	ListQAs(ctx context.Context, owner string) ([]QARecord, error)
}

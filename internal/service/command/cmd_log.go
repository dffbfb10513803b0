package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sandevgo/tuskqa/internal/core"
)

type MealCommand struct {
	store Store
}

func NewMealCommand(store Store) *MealCommand {
	return &MealCommand{store: store}
}

func (c *MealCommand) Name() string        { return "meal" }
func (c *MealCommand) Description() string { return "Log a meal: items separated by commas, notes after ;" }

func (c *MealCommand) Execute(ctx context.Context, owner string, args []string) (string, error) {
	if len(args) == 0 {
		return usage("/meal <item, item> [; notes]", "/meal fried chicken, rice; ate at 21:00"), nil
	}

	meal := ParseMeal(strings.Join(args, " "))
	meal.Owner = owner
	meal.At = time.Now()
	id, err := c.store.LogMeal(ctx, meal)
	if err != nil {
		return "", err
	}
	return saved(fmt.Sprintf("Logged meal_%s", id)), nil
}

// ParseMeal reads "item, item; notes".
func ParseMeal(s string) core.Meal {
	itemsPart, notes, _ := strings.Cut(s, ";")
	var items []string
	for _, it := range strings.Split(itemsPart, ",") {
		if it = strings.TrimSpace(it); it != "" {
			items = append(items, it)
		}
	}
	return core.Meal{Items: items, Notes: strings.TrimSpace(notes)}
}

type CheckInCommand struct {
	store Store
}

func NewCheckInCommand(store Store) *CheckInCommand {
	return &CheckInCommand{store: store}
}

func (c *CheckInCommand) Name() string        { return "checkin" }
func (c *CheckInCommand) Description() string { return "Record a measurement: metric, value and an optional unit" }

func (c *CheckInCommand) Execute(ctx context.Context, owner string, args []string) (string, error) {
	if len(args) < 2 {
		return usage("/checkin <metric> <value> [unit]", "/checkin energy 6 /10", "/checkin sleep 7.5 h"), nil
	}

	value, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return "", fmt.Errorf("value %q is not a number", args[1])
	}
	id, err := c.store.RecordCheckIn(ctx, core.CheckIn{
		Owner:  owner,
		Metric: args[0],
		Value:  value,
		Unit:   strings.Join(args[2:], " "),
		At:     time.Now(),
	})
	if err != nil {
		return "", err
	}
	return saved(fmt.Sprintf("Recorded %s check-in #%s", args[0], id)), nil
}

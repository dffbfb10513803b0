package command

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type FactCommand struct {
	store  Store
	source string
}

func NewFactCommand(store Store, source string) *FactCommand {
	return &FactCommand{store: store, source: source}
}

func (c *FactCommand) Name() string        { return "fact" }
func (c *FactCommand) Description() string { return "Remember a fact about you" }

func (c *FactCommand) Execute(ctx context.Context, owner string, args []string) (string, error) {
	if len(args) == 0 {
		return usage("/fact <text>", "/fact Next-day energy 4/10 after a late fried dinner"), nil
	}
	id, err := c.store.IngestFact(ctx, owner, strings.Join(args, " "), c.source, time.Now())
	if err != nil {
		return "", err
	}
	return saved(fmt.Sprintf("Saved as fact_%s", id)), nil
}

type ForgetCommand struct {
	store Store
}

func NewForgetCommand(store Store) *ForgetCommand {
	return &ForgetCommand{store: store}
}

func (c *ForgetCommand) Name() string        { return "forget" }
func (c *ForgetCommand) Description() string { return "Forget a fact by id" }

func (c *ForgetCommand) Execute(ctx context.Context, owner string, args []string) (string, error) {
	if len(args) != 1 {
		return usage("/forget <fact id>", "/forget fact_12"), nil
	}
	if err := c.store.ForgetFact(ctx, owner, args[0]); err != nil {
		return "", err
	}
	return saved(fmt.Sprintf("Forgot %s", args[0])), nil
}

type FactsCommand struct {
	store Store
}

func NewFactsCommand(store Store) *FactsCommand {
	return &FactsCommand{store: store}
}

func (c *FactsCommand) Name() string        { return "facts" }
func (c *FactsCommand) Description() string { return "List remembered facts" }

func (c *FactsCommand) Execute(ctx context.Context, owner string, _ []string) (string, error) {
	facts, err := c.store.ListFacts(ctx, owner)
	if err != nil {
		return "", err
	}
	if len(facts) == 0 {
		return hint("nothing remembered yet, add one with /fact"), nil
	}

	items := make([]string, 0, len(facts))
	for _, f := range facts {
		items = append(items, factLine(f))
	}
	return join(heading(fmt.Sprintf("Facts (%d)", len(facts))), bullets(items)), nil
}

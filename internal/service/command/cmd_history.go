package command

import (
	"context"
	"strconv"
	"strings"
)

const defaultHistorySize = 5

type HistoryCommand struct {
	store Store
}

func NewHistoryCommand(store Store) *HistoryCommand {
	return &HistoryCommand{store: store}
}

func (c *HistoryCommand) Name() string        { return "history" }
func (c *HistoryCommand) Description() string { return "Show recent questions and answers" }

func (c *HistoryCommand) Execute(ctx context.Context, owner string, args []string) (string, error) {
	n := defaultHistorySize
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			return usage("/history [count]", "/history 10"), nil
		}
		n = v
	}

	records, err := c.store.History(ctx, owner)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return hint("no questions asked yet"), nil
	}

	sections := []string{heading("Recent questions")}
	for i := len(records) - 1; i >= 0 && len(records)-i <= n; i-- {
		sections = append(sections, historyEntry(records[i]))
	}
	return join(sections...), nil
}

type EvidenceCommand struct {
	store Store
}

func NewEvidenceCommand(store Store) *EvidenceCommand {
	return &EvidenceCommand{store: store}
}

func (c *EvidenceCommand) Name() string        { return "evidence" }
func (c *EvidenceCommand) Description() string { return "Show the evidence behind the last answer" }

func (c *EvidenceCommand) Execute(_ context.Context, owner string, _ []string) (string, error) {
	evidence := c.store.LastEvidence(owner)
	if len(evidence) == 0 {
		return hint("ask a question first"), nil
	}

	items := make([]string, 0, len(evidence))
	for _, e := range evidence {
		items = append(items, evidenceLine(e))
	}
	return join(heading("Evidence behind the last answer"), strings.TrimSpace(bullets(items))), nil
}

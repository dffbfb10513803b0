package command

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sandevgo/tuskqa/internal/service/qa"
)

type InsightsCommand struct {
	store Store
}

func NewInsightsCommand(store Store) *InsightsCommand {
	return &InsightsCommand{store: store}
}

func (c *InsightsCommand) Name() string { return "insights" }
func (c *InsightsCommand) Description() string {
	return "Summarize recent meals and check-ins and remember the insights"
}

func (c *InsightsCommand) Execute(ctx context.Context, owner string, args []string) (string, error) {
	window := qa.DefaultInsightWindow
	if len(args) > 0 {
		days, err := strconv.Atoi(args[0])
		if err != nil || days <= 0 {
			return usage("/insights [days]", "/insights", "/insights 14"), nil
		}
		window = time.Duration(days) * 24 * time.Hour
	}

	report, err := c.store.MineInsights(ctx, owner, window)
	if err != nil {
		return "", err
	}
	return FormatInsights(report), nil
}

// FormatInsights lists the insights and says how many became new facts.
func FormatInsights(r qa.InsightReport) string {
	if len(r.Insights) == 0 {
		return hint("no meals or check-ins in the last 30 days, log some with /meal and /checkin")
	}

	title := "Insights " + r.Window.Period()
	if !r.FromModel {
		title += " (from simple trends)"
	}
	return join(
		heading(title),
		bullets(r.Insights),
		hint(fmt.Sprintf("%d new, saved as facts with source %s", len(r.FactIDs), qa.InsightFactSource)),
	)
}

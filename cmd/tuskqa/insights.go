package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sandevgo/tuskqa/internal/service/qa"
	"github.com/spf13/cobra"
)

var insightDays int

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Mine insights from recent meals and check-ins",
	Long: `Summarizes recent meals and check-ins with the model, or with simple trend
rules when the model is unavailable, and remembers each insight as a fact.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if insightDays <= 0 {
			return fmt.Errorf("--days must be positive, got %d", insightDays)
		}
		return withApp(cmd, func(ctx context.Context, app *App) error {
			report, err := app.qa.MineInsights(ctx, app.Owner(), time.Duration(insightDays)*24*time.Hour)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			printInsights(cmd, report)
			return nil
		})
	},
}

func printInsights(cmd *cobra.Command, r qa.InsightReport) {
	out := cmd.OutOrStdout()
	if len(r.Insights) == 0 {
		fmt.Fprintln(out, "Nothing to mine: no meals or check-ins in the last 30 days.")
		return
	}
	for _, text := range r.Insights {
		fmt.Fprintf(out, "- %s\n", text)
	}
	for _, id := range r.FactIDs {
		fmt.Fprintf(out, "fact_%s\n", id)
	}
}

func init() {
	insightsCmd.Flags().IntVar(&insightDays, "days", 7, "window to mine, widened to 30 days when empty")
	insightsCmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	rootCmd.AddCommand(insightsCmd)
}

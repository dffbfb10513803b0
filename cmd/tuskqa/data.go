package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sandevgo/tuskqa/internal/core"
	"github.com/sandevgo/tuskqa/internal/service/command"
	"github.com/spf13/cobra"
)

var (
	factSource string
	recordedAt string
	historyMax int
)

var factCmd = &cobra.Command{
	Use:   "fact",
	Short: "Add, forget or list facts",
}

var factAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Remember a fact",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := parseAt(recordedAt)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, app *App) error {
			id, err := app.qa.IngestFact(ctx, app.Owner(), strings.Join(args, " "), factSource, at)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fact_%s\n", id)
			return nil
		})
	},
}

var factForgetCmd = &cobra.Command{
	Use:   "forget <id>",
	Short: "Forget a fact by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *App) error {
			return app.qa.ForgetFact(ctx, app.Owner(), args[0])
		})
	},
}

var factListCmd = &cobra.Command{
	Use:   "list",
	Short: "List remembered facts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *App) error {
			facts, err := app.qa.ListFacts(ctx, app.Owner())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), facts)
			}
			for _, f := range facts {
				fmt.Fprintf(cmd.OutOrStdout(), "fact_%s\t%s\t%s\n", f.ID, formatAt(f.At), f.Content)
			}
			return nil
		})
	},
}

var mealCmd = &cobra.Command{
	Use:   "meal <item, item> [; notes]",
	Short: "Log a meal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := parseAt(recordedAt)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, app *App) error {
			meal := command.ParseMeal(strings.Join(args, " "))
			meal.Owner = app.Owner()
			meal.At = at
			id, err := app.qa.LogMeal(ctx, meal)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "meal_%s\n", id)
			return nil
		})
	},
}

var checkInCmd = &cobra.Command{
	Use:   "checkin <metric> <value> [unit]",
	Short: "Record a measurement",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("value %q is not a number", args[1])
		}
		at, err := parseAt(recordedAt)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, app *App) error {
			id, err := app.qa.RecordCheckIn(ctx, core.CheckIn{
				Owner:  app.Owner(),
				Metric: args[0],
				Value:  value,
				Unit:   strings.Join(args[2:], " "),
				At:     at,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "check-in #%s\n", id)
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show asked questions and their answers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *App) error {
			records, err := app.qa.History(ctx, app.Owner())
			if err != nil {
				return err
			}
			if historyMax > 0 && len(records) > historyMax {
				records = records[len(records)-historyMax:]
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), records)
			}
			for _, r := range records {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n%s\n\n", formatAt(r.CreatedAt), r.Question, r.Answer)
			}
			return nil
		})
	},
}

// parseAt reads --at as RFC 3339 or a local "2006-01-02 15:04"; empty means now.
func parseAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Now(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("--at %q: want RFC 3339 or \"2006-01-02 15:04\"", s)
	}
	return t, nil
}

func formatAt(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func init() {
	factAddCmd.Flags().StringVar(&factSource, "source", "cli", "where the fact came from")
	for _, c := range []*cobra.Command{factAddCmd, mealCmd, checkInCmd} {
		c.Flags().StringVar(&recordedAt, "at", "", "when it happened (default now)")
	}
	factListCmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	historyCmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	historyCmd.Flags().IntVarP(&historyMax, "limit", "n", 0, "only the most recent n records")

	factCmd.AddCommand(factAddCmd, factForgetCmd, factListCmd)
	rootCmd.AddCommand(factCmd, mealCmd, checkInCmd, historyCmd)
}

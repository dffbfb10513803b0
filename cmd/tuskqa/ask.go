package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sandevgo/tuskqa/internal/service/qa"
	"github.com/sandevgo/tuskqa/internal/transport/cli"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one question and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *App) error {
			ans, err := app.qa.Ask(ctx, app.Owner(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printAnswer(cmd.OutOrStdout(), ans)
		})
	},
}

func init() {
	askCmd.Flags().BoolVar(&asJSON, "json", false, "print the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func printAnswer(w io.Writer, ans qa.Answer) error {
	if !asJSON {
		_, err := fmt.Fprintln(w, cli.RenderAnswer(ans))
		return err
	}
	return writeJSON(w, struct {
		Answer     string   `json:"answer"`
		Citations  []string `json:"citations"`
		Confidence *float64 `json:"confidence,omitempty"`
		Path       qa.Path  `json:"path"`
		NeedsWeb   bool     `json:"needs_web,omitempty"`
		Reason     string   `json:"reason,omitempty"`
	}{ans.Text, ans.Citations, ans.Confidence, ans.Path, ans.NeedsWeb, ans.Reason})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// withApp runs fn with logs on stderr, so stdout only carries the result.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *App) error) error {
	ctx, flushLog := setupLoggerTo(cmd.Context(), os.Stderr)
	defer flushLog()

	app, err := NewApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(ctx, app)
}

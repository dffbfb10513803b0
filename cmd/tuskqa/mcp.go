package main

import (
	"os"
	"os/signal"

	"github.com/sandevgo/tuskqa/internal/transport/mcp"
	"github.com/sandevgo/tuskqa/pkg/srv"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve ask and fact tools over MCP on stdio",
	Long:  `Runs a Model Context Protocol server on stdin/stdout so assistants can ask questions and manage facts. Logs go to stderr.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		ctx, flushLog := setupLoggerTo(ctx, os.Stderr)
		defer flushLog()

		app, err := NewApp(ctx)
		if err != nil {
			return err
		}

		server := mcp.NewServer(app.Owner(), app.qa, os.Stdin, os.Stdout, os.Stderr)
		return srv.Run(ctx, []srv.Service{srv.NewCleanup(app.Close), srv.Foreground(server)})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

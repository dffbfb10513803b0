package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/sandevgo/tuskqa/internal/config"
	"github.com/sandevgo/tuskqa/internal/transport/cli"
	"github.com/sandevgo/tuskqa/internal/transport/metrics"
	"github.com/sandevgo/tuskqa/internal/transport/telegram"
	"github.com/sandevgo/tuskqa/pkg/log"
	"github.com/sandevgo/tuskqa/pkg/srv"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the interactive prompt and the configured bots",
	Long:  `Starts every enabled surface: the terminal prompt, the Telegram bot and the metrics endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting tuskqa")

		app, err := NewApp(ctx)
		if err != nil {
			return err
		}

		services, err := NewServices(ctx, app)
		if err != nil {
			_ = app.Close()
			return err
		}

		if err := srv.Run(ctx, services); err != nil {
			return err
		}
		logger.Info().Msg("tuskqa has been shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}

// NewServices builds the long-running surfaces. The database closes last.
func NewServices(ctx context.Context, app *App) ([]srv.Service, error) {
	services := []srv.Service{srv.NewCleanup(app.Close)}

	metricsCfg := config.NewMetricsConfig(ctx)
	if metricsCfg.Enabled {
		services = append(services, metrics.NewServer(metricsCfg.Addr))
	}

	if app.cfg.IsTelegramSelected() {
		tgCfg := config.NewTelegramConfig(ctx)
		bot, err := telegram.NewBot(ctx, tgCfg, app.Owner(), app.qa, app.Router("telegram"))
		if err != nil {
			return nil, err
		}
		services = append(services, bot)
	}

	if app.cfg.EnableCLI {
		rl, err := cli.NewReadLine(app.cfg, app.qa, app.Router("cli"))
		if err != nil {
			return nil, err
		}
		services = append(services, srv.Foreground(rl))
	}

	return services, nil
}

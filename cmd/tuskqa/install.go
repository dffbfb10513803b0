package main

import (
	"github.com/joho/godotenv"
	"github.com/sandevgo/tuskqa/internal/config"
	"github.com/sandevgo/tuskqa/internal/service/installer"
	"github.com/sandevgo/tuskqa/pkg/log"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:           "install",
	Short:         "Choose a model provider and surfaces, and write the .env file",
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting installation process")

		runtimePath := config.GetRuntimePath()
		state, err := installer.RunWizard(runtimePath)
		if err != nil {
			return err
		}

		if err := godotenv.Load(state.EnvPath()); err != nil {
			logger.Warn().Err(err).Str("path", state.EnvPath()).Msg("failed to load .env file")
		}

		logger.Info().Msgf("initialized runtime directory at: %s", runtimePath)
		logger.Info().Msg("Installation complete! Record a fact with 'tuskqa fact add' and run 'tuskqa start'.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}

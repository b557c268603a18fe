package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gsarma/courier/internal/config"
	"github.com/gsarma/courier/internal/logger"
)

const serviceName = "courier"

var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var cfg config.Config

	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Newsletter double opt-in and transactional email service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			logger.Init(logger.Config{
				Env:         cfg.Env,
				Level:       cfg.LogLevel,
				ServiceName: serviceName,
				Version:     version,
			})
			logger.L().Debug("configuration loaded",
				zap.String("env", cfg.Env),
				zap.String("transport", cfg.Email.Transport),
				zap.String("dispatch", cfg.Email.Dispatch),
			)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	root.AddCommand(
		serveCmd(&cfg),
		migrateCmd(&cfg),
		checkEmailServiceCmd(&cfg),
	)
	return root
}

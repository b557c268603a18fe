package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/gsarma/courier/internal/config"
	"github.com/gsarma/courier/internal/logger"
	"github.com/gsarma/courier/internal/store"
)

func migrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer pool.Close()

			if err := store.Migrate(ctx, pool); err != nil {
				return err
			}
			logger.L().Info("schema applied")
			return nil
		},
	}
}

var errEmailServiceDown = errors.New("email service is unreachable")

func checkEmailServiceCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "check-email-service",
		Short: "Probe the mail service health endpoint; exits non-zero when down",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newDeliveryClient(*cfg, nil)
			if err != nil {
				return err
			}
			if !c.CheckHealth(cmd.Context()) {
				return errEmailServiceDown
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/paisaid/paisaid-cms/cmd/paisaid/cli"
	"github.com/paisaid/paisaid-cms/internal/platform/db"
	"github.com/paisaid/paisaid-cms/migrations"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			pool, err := db.New(cmd.Context(), cfg.PGDSN, cfg.PGMaxConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			n, err := cli.NewMigrator(pool, migrations.Files, logger).Up(cmd.Context())
			if err != nil {
				return err
			}
			logger.Info("migrations complete", slog.Int("applied", n))
			return nil
		},
	}
}

func jobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and trigger background jobs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "inspect",
		Short: "Show default queue statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadRuntime()
			if err != nil {
				return err
			}
			jobsCLI := cli.NewJobsCLI(cfg.RedisAddr)
			defer jobsCLI.Close() //nolint:errcheck

			stats, err := jobsCLI.InspectQueue(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queue=%s pending=%d active=%d scheduled=%d retry=%d failed=%d\n",
				stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Failed)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "trigger <task> [arg]",
		Short: "Enqueue a job by task type",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadRuntime()
			if err != nil {
				return err
			}
			jobsCLI := cli.NewJobsCLI(cfg.RedisAddr)
			defer jobsCLI.Close() //nolint:errcheck

			var arg string
			if len(args) > 1 {
				arg = args[1]
			}
			info, err := jobsCLI.Trigger(cmd.Context(), args[0], arg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
			return nil
		},
	})
	return cmd
}

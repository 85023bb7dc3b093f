package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/classlive/internal/watch"
)

func newWatchCmd() *cobra.Command {
	var (
		configPath string
		accounts   string
		schedule   string
		once       bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Resolve lives on a schedule and record snapshots",
		Long: "Runs the live resolution on the configured cron schedule and stores every\n" +
			"run, successful or not, as a snapshot in the account store.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, configPath, accounts, schedule, once)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVarP(&accounts, "accounts", "a", "", "comma-separated account uids (default: all)")
	cmd.Flags().StringVarP(&schedule, "schedule", "s", "", "cron schedule (overrides watch.schedule)")
	cmd.Flags().BoolVar(&once, "once", false, "run a single pass and exit")
	return cmd
}

func runWatch(cmd *cobra.Command, configPath, accounts, schedule string, once bool) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	a, err := setup(ctx, cmd, configPath, false)
	if err != nil {
		return err
	}
	defer a.close()

	if schedule == "" {
		schedule = a.cfg.Watch.Schedule
	}
	w, err := watch.New(watch.Opts{
		DB:       a.db,
		Engine:   a.engine,
		Sessions: a.sessions,
		Accounts: accounts,
		Schedule: schedule,
		Previous: a.cfg.Watch.Previous,
		Logger:   a.log,
		Now:      clock,
	})
	if err != nil {
		return err
	}

	if once {
		snap, err := w.RunOnce(ctx)
		if snap != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Snapshot %s: %d of %d accounts resolved\n", snap.BatchID, snap.Resolved, snap.Accounts)
		}
		return err
	}
	return w.Run(ctx)
}

package main

import (
	"github.com/spf13/cobra"
)

func newNowCmd() *cobra.Command {
	var (
		configPath string
		this       bool
		accounts   string
		out        outputFlags
	)

	cmd := &cobra.Command{
		Use:   "now",
		Short: "Show the live each account attends",
		Long: "Resolves, for every selected account, the class scheduled in the upcoming\n" +
			"period (or the one under way with --this), then looks up its room and streams.\n" +
			"Accounts sharing a class share a single lookup.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNow(cmd, configPath, this, accounts, out)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVarP(&this, "this", "t", false, "resolve the period under way instead of the upcoming one")
	cmd.Flags().StringVarP(&accounts, "accounts", "a", "", "comma-separated account uids (default: all)")
	out.register(cmd)
	return cmd
}

func runNow(cmd *cobra.Command, configPath string, previous bool, accounts string, out outputFlags) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	a, err := setup(ctx, cmd, configPath, true)
	if err != nil {
		return err
	}
	defer a.close()

	sessions, err := a.sessions(ctx, accounts)
	if err != nil {
		return err
	}
	lives, err := a.engine.LivesNow(ctx, sessions, previous)
	if err != nil {
		return err
	}
	return emitEntries(cmd, a.log, out, lives)
}

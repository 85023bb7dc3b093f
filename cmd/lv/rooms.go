package main

import (
	"github.com/spf13/cobra"
)

func newRoomsCmd() *cobra.Command {
	var (
		configPath string
		accounts   string
		out        outputFlags
	)

	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "List every classroom and its device code",
		Long: "Scans six years of schedules for the selected accounts and maps every\n" +
			"classroom found to its streaming device code.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRooms(cmd, configPath, accounts, out)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVarP(&accounts, "accounts", "a", "", "comma-separated account uids (default: all)")
	out.register(cmd)
	return cmd
}

func runRooms(cmd *cobra.Command, configPath, accounts string, out outputFlags) error {
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
	rooms, err := a.engine.Rooms(ctx, sessions)
	if err != nil {
		return err
	}
	return emitEntries(cmd, a.log, out, rooms)
}

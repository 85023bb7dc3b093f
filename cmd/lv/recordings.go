package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/zulandar/classlive/internal/resolve"
)

func newRecordingsCmd() *cobra.Command {
	var (
		configPath string
		accounts   string
		out        outputFlags
	)

	cmd := &cobra.Command{
		Use:   "recordings <live-id>",
		Short: "List the recorded lessons of a course",
		Long: "Lists every lesson of the course a live belongs to, keyed by start time in\n" +
			"milliseconds, with the recorded streams of each.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid live id %q: %w", args[0], err)
			}
			return runRecordings(cmd, configPath, accounts, id, out)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVarP(&accounts, "accounts", "a", "", "comma-separated account uids; the first one is used")
	out.register(cmd)
	return cmd
}

func runRecordings(cmd *cobra.Command, configPath, accounts string, liveID int64, out outputFlags) error {
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
	if len(sessions) == 0 {
		return resolve.ErrNoSessions
	}
	recs, err := a.engine.Recordings(ctx, sessions[0], liveID)
	if err != nil {
		return err
	}
	return emitEntries(cmd, a.log, out, recs)
}

package main

import (
	"github.com/spf13/cobra"
)

func newDeviceCmd() *cobra.Command {
	var (
		configPath string
		accounts   string
		out        outputFlags
	)

	cmd := &cobra.Command{
		Use:   "device <code>",
		Short: "Show the live streams of a classroom device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevice(cmd, configPath, accounts, args[0], out)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVarP(&accounts, "accounts", "a", "", "comma-separated account uids; the first one is used")
	out.register(cmd)
	return cmd
}

func runDevice(cmd *cobra.Command, configPath, accounts, code string, out outputFlags) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	a, err := setup(ctx, cmd, configPath, false)
	if err != nil {
		return err
	}
	defer a.close()

	sessions, err := a.sessions(ctx, accounts)
	if err != nil {
		return err
	}
	vp, err := a.engine.Device(ctx, sessions, code)
	if err != nil {
		return err
	}
	if vp.IsDefault() {
		a.log.Warn("device is not streaming")
	}
	return emitValue(cmd, out, vp)
}

package main

import (
	"github.com/spf13/cobra"
	"github.com/zulandar/classlive/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve lives, rooms and recordings over HTTP",
		Long:  "Starts a JSON API. Every request runs a fresh resolution pass.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides serve.port)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	a, err := setup(ctx, cmd, configPath, false)
	if err != nil {
		return err
	}
	defer a.close()

	if port == 0 {
		port = a.cfg.Serve.Port
	}
	return server.Start(ctx, server.StartOpts{
		DB:       a.db,
		Engine:   a.engine,
		Sessions: a.sessions,
		Port:     port,
		Out:      cmd.OutOrStdout(),
		Logger:   a.log,
	})
}

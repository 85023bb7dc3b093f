package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const defaultConfigPath = "classlive.yaml"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lv",
		Short: "classlive finds the classroom live streams your accounts attend",
		Long: "classlive resolves, for every stored account, the class scheduled in the upcoming\n" +
			"or ongoing period and the live streams of its classroom.",
		SilenceUsage: true,
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newAccountCmd())
	cmd.AddCommand(newNowCmd())
	cmd.AddCommand(newDeviceCmd())
	cmd.AddCommand(newRoomsCmd())
	cmd.AddCommand(newRecordingsCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newServeCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lv %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func addConfigFlag(cmd *cobra.Command, configPath *string) {
	cmd.Flags().StringVarP(configPath, "config", "c", defaultConfigPath, "path to classlive config file")
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}

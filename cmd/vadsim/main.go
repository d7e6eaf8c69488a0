// Command vadsim replays workloads against a simulated virtual address
// space.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set by the linker.
var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "vadsim",
		Short: "Virtual address space simulator",
		Long: `vadsim reserves and releases regions of a simulated address space
as directed by a workload file and reports the resulting layout.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCommand())
	root.AddCommand(versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vadsim %s\n", version)
		},
	}
}

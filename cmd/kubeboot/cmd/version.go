package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Populated via -ldflags at build time.
var (
	version   = "dev"
	gitCommit = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the kubeboot version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kubeboot %s (commit %s, %s %s/%s)\n",
			version, gitCommit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

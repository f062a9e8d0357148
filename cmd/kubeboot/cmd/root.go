package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mensylisir/kubeboot/cmd/kubeboot/cmd/cluster"
	"github.com/mensylisir/kubeboot/cmd/kubeboot/cmd/node"
	"github.com/mensylisir/kubeboot/pkg/logger"
)

var verboseFlag bool

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "kubeboot",
	Short: "kubeboot bootstraps and manages HA Kubernetes clusters over SSH.",
	Long: `kubeboot provisions a highly-available Kubernetes cluster from a host
inventory file and manages cluster membership afterwards: preparing hosts,
initializing the control plane, joining nodes, and adding or removing
members of a running cluster.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logOpts := logger.DefaultOptions()
		if verboseFlag {
			logOpts.ConsoleLevel = logger.DebugLevel
		}
		logger.Init(logOpts)
	},
}

// Execute runs the root command. It is called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(cluster.ClusterCmd)
	rootCmd.AddCommand(node.NodeCmd)
}

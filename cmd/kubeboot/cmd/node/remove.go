package node

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// RemoveOptions holds options for the node remove command.
type RemoveOptions struct {
	Node        string
	Force       bool
	NoReset     bool
	List        bool
	Status      string
	SSHKeyPath  string
	SSHPassword string
}

var removeOptions = &RemoveOptions{}

func init() {
	NodeCmd.AddCommand(removeCmd)
	removeCmd.Flags().StringVar(&removeOptions.Node, "node", "", "Hostname or IP of the node to remove")
	removeCmd.Flags().BoolVar(&removeOptions.Force, "force", false, "Force removal even if drain fails")
	removeCmd.Flags().BoolVar(&removeOptions.NoReset, "no-reset", false, "Do not reset the node after removal")
	removeCmd.Flags().BoolVar(&removeOptions.List, "list", false, "List all nodes in the cluster")
	removeCmd.Flags().StringVar(&removeOptions.Status, "status", "", "Print the status of the given node and exit")
	removeCmd.Flags().StringVar(&removeOptions.SSHKeyPath, "ssh-key", "", "Path to the SSH private key (defaults to ~/.ssh/id_rsa)")
	removeCmd.Flags().StringVar(&removeOptions.SSHPassword, "ssh-password", "", "SSH password used when no key is available")
}

var removeCmd = &cobra.Command{
	Use:     "remove <inventory-file> <master-node>",
	Aliases: []string{"rm", "delete"},
	Short:   "Remove a node from a running cluster",
	Long: `Remove a node in three phases: drain its workloads, delete it from the
cluster, and reset its local Kubernetes state. Drain failures abort the
removal unless --force is set; the reset phase is skipped with --no-reset.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := newManager(args[0], args[1], removeOptions.SSHKeyPath, removeOptions.SSHPassword)
		if err != nil {
			return err
		}
		ctx := context.Background()

		if removeOptions.List {
			names, err := mgr.ListNodes(ctx)
			if err != nil {
				return err
			}
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Node"})
			for _, name := range names {
				table.Append([]string{name})
			}
			table.Render()
			return nil
		}

		if removeOptions.Status != "" {
			status, err := mgr.GetNodeStatus(ctx, removeOptions.Status)
			if err != nil {
				return err
			}
			fmt.Println(status)
			return nil
		}

		if removeOptions.Node == "" {
			return fmt.Errorf("specify --node to remove, or --list to see cluster nodes")
		}
		return mgr.RemoveNode(ctx, removeOptions.Node, removeOptions.Force, !removeOptions.NoReset)
	},
}

package node

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mensylisir/kubeboot/pkg/common"
	"github.com/mensylisir/kubeboot/pkg/logger"
)

// AddOptions holds options for the node add command.
type AddOptions struct {
	NodeType    string
	Hostname    string
	IP          string
	AllNew      bool
	SSHKeyPath  string
	SSHPassword string
}

var addOptions = &AddOptions{}

func init() {
	NodeCmd.AddCommand(addCmd)
	addCmd.Flags().StringVar(&addOptions.NodeType, "node-type", common.RoleWorker, "Role of the node(s) to add (worker|control-plane)")
	addCmd.Flags().StringVar(&addOptions.Hostname, "hostname", "", "Hostname of the inventory node to add")
	addCmd.Flags().StringVar(&addOptions.IP, "ip", "", "IP address of the inventory node to add")
	addCmd.Flags().BoolVar(&addOptions.AllNew, "all-new", false, "Add every node from the inventory")
	addCmd.Flags().StringVar(&addOptions.SSHKeyPath, "ssh-key", "", "Path to the SSH private key (defaults to ~/.ssh/id_rsa)")
	addCmd.Flags().StringVar(&addOptions.SSHPassword, "ssh-password", "", "SSH password used when no key is available")
}

var addCmd = &cobra.Command{
	Use:   "add <inventory-file> <master-node>",
	Short: "Add node(s) to a running cluster",
	Long: `Add one inventory node (selected by --hostname or --ip) or every
inventory node (--all-new) to the cluster reachable through the given
master node. The join credential is generated freshly on the master.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.Get()

		if addOptions.NodeType != common.RoleWorker && addOptions.NodeType != common.RoleControlPlane {
			return fmt.Errorf("invalid --node-type %q: must be %s or %s",
				addOptions.NodeType, common.RoleWorker, common.RoleControlPlane)
		}

		mgr, err := newManager(args[0], args[1], addOptions.SSHKeyPath, addOptions.SSHPassword)
		if err != nil {
			return err
		}
		ctx := context.Background()

		switch {
		case addOptions.Hostname != "" || addOptions.IP != "":
			identifier := addOptions.Hostname
			if identifier == "" {
				identifier = addOptions.IP
			}
			target, ok := mgr.FindNode(identifier)
			if !ok {
				return fmt.Errorf("node not found in inventory: %s", identifier)
			}
			return mgr.AddNode(ctx, target, addOptions.NodeType)

		case addOptions.AllNew:
			nodes := mgr.InventoryNodes()
			count, err := mgr.AddNodesFromInventory(ctx, nodes, addOptions.NodeType)
			if err != nil {
				return err
			}
			if count < len(nodes) {
				return fmt.Errorf("added %d/%d nodes", count, len(nodes))
			}
			log.Successf("added all %d nodes", count)
			return nil

		default:
			return fmt.Errorf("specify --hostname, --ip, or --all-new")
		}
	},
}

package node

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mensylisir/kubeboot/pkg/config"
	"github.com/mensylisir/kubeboot/pkg/executor"
	"github.com/mensylisir/kubeboot/pkg/inventory"
	"github.com/mensylisir/kubeboot/pkg/membership"
)

// NodeCmd groups membership operations against a running cluster.
var NodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Manage membership of a running cluster",
}

// newManager parses the inventory and binds a membership manager to the
// given master node.
func newManager(inventoryFile, masterIdentifier, sshKeyPath, sshPassword string) (*membership.Manager, error) {
	nodes, err := inventory.Parse(inventoryFile)
	if err != nil {
		return nil, err
	}
	exec := executor.NewSSHExecutor(executor.Credentials{
		Password:       sshPassword,
		PrivateKeyPath: resolveSSHKeyPath(sshKeyPath),
	})
	return membership.NewManager(nodes, masterIdentifier, exec, config.Default())
}

func resolveSSHKeyPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	defaultKey := filepath.Join(home, ".ssh", "id_rsa")
	if _, err := os.Stat(defaultKey); err != nil {
		return ""
	}
	return defaultKey
}

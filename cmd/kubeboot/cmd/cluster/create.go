package cluster

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/mensylisir/kubeboot/pkg/bootstrap"
	"github.com/mensylisir/kubeboot/pkg/config"
	"github.com/mensylisir/kubeboot/pkg/executor"
	"github.com/mensylisir/kubeboot/pkg/inventory"
	"github.com/mensylisir/kubeboot/pkg/logger"
	"github.com/mensylisir/kubeboot/pkg/util"
)

// ClusterCmd groups cluster-level operations.
var ClusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Manage cluster lifecycle",
}

// CreateOptions holds options for the cluster create command.
type CreateOptions struct {
	ConfigFile        string
	Format            string
	ControlPlaneCount int
	MaxParallel       int
	DryRun            bool
	SSHKeyPath        string
	SSHPassword       string
}

var createOptions = &CreateOptions{}

func init() {
	ClusterCmd.AddCommand(createCmd)
	createCmd.Flags().StringVarP(&createOptions.ConfigFile, "config", "c", "", "Path to the cluster configuration YAML file")
	createCmd.Flags().StringVar(&createOptions.Format, "format", "", "Inventory format (yaml|ini|csv), auto-detected from the extension by default")
	createCmd.Flags().IntVar(&createOptions.ControlPlaneCount, "control-plane-count", 3, "Number of leading inventory entries used as control-plane nodes")
	createCmd.Flags().IntVar(&createOptions.MaxParallel, "max-parallel", 5, "Maximum concurrent remote operations during parallel steps")
	createCmd.Flags().BoolVar(&createOptions.DryRun, "dry-run", false, "Print the resolved topology and configuration without executing")
	createCmd.Flags().StringVar(&createOptions.SSHKeyPath, "ssh-key", "", "Path to the SSH private key (defaults to ~/.ssh/id_rsa)")
	createCmd.Flags().StringVar(&createOptions.SSHPassword, "ssh-password", "", "SSH password used when no key is available")
}

var createCmd = &cobra.Command{
	Use:   "create <inventory-file>",
	Short: "Bootstrap a new HA Kubernetes cluster from an inventory file",
	Long: `Bootstrap a new cluster: prepare every host, initialize the first
control-plane node with kubeadm, join the remaining control-plane and
worker nodes, install the CNI and storage add-ons, and verify the result.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.Get()
		inventoryFile := args[0]

		nodes, err := inventory.ParseWithFormat(inventoryFile, inventory.Format(createOptions.Format))
		if err != nil {
			return fmt.Errorf("failed to parse inventory '%s': %w", inventoryFile, err)
		}
		topo := inventory.ResolveTopology(nodes, createOptions.ControlPlaneCount)

		cfg, err := config.Load(createOptions.ConfigFile)
		if err != nil {
			return err
		}

		if createOptions.DryRun {
			printDryRun(topo, cfg)
			return nil
		}

		fmt.Println(util.GenerateASCIIArt("kubeboot", ""))
		log.Infof("using inventory from %s", inventoryFile)

		exec := executor.NewSSHExecutor(executor.Credentials{
			Password:       createOptions.SSHPassword,
			PrivateKeyPath: resolveSSHKeyPath(createOptions.SSHKeyPath),
		})

		bc := bootstrap.NewContext(topo, cfg, exec)
		bc.MaxParallel = createOptions.MaxParallel
		if err := bootstrap.Run(context.Background(), bc); err != nil {
			log.Errorf("%v", err)
			return err
		}
		return nil
	},
}

// printDryRun renders the resolved topology and config without touching any
// remote host.
func printDryRun(topo inventory.Topology, cfg *config.ClusterConfig) {
	bold := color.New(color.Bold)
	bold.Println("Dry run mode - resolved cluster topology:")

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Hostname", "IP", "Role", "User", "Port", "Group", "OS"})
	for _, node := range topo.All {
		table.Append([]string{
			node.Hostname,
			node.IPAddress,
			node.Role,
			node.Username,
			strconv.Itoa(node.SSHPort),
			node.Group,
			fmt.Sprintf("%s %s", node.OS, node.OSVersion),
		})
	}
	table.Render()

	fmt.Printf("Control plane nodes: %d\n", len(topo.ControlPlane))
	fmt.Printf("Worker nodes: %d\n", len(topo.Workers))
	fmt.Printf("Kubernetes version: %s\n", cfg.KubernetesVersion)
	fmt.Printf("Pod network CIDR: %s\n", cfg.PodNetworkCIDR)
	fmt.Printf("Service CIDR: %s\n", cfg.ServiceCIDR)
	fmt.Printf("CNI plugin: %s\n", cfg.CNIPlugin)
	fmt.Printf("Storage class: %s\n", cfg.StorageClass)
}

// resolveSSHKeyPath falls back to the conventional key location when no key
// was given explicitly.
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

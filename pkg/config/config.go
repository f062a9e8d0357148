// Package config holds the cluster-wide configuration for one run: a fixed
// set of defaults overridden key-by-key by an optional user-supplied YAML
// file. The merged configuration is immutable once loaded.
package config

import (
	"fmt"
	"net"
	"os"

	"gopkg.in/yaml.v3"
)

// FirewallRules lists the ports opened per node class during preparation.
type FirewallRules struct {
	ControlPlanePorts []int `yaml:"control_plane_ports"`
	WorkerPorts       []int `yaml:"worker_ports"`
	CommonPorts       []int `yaml:"common_ports"`
}

// ClusterConfig is the merged configuration consumed by the orchestrators.
type ClusterConfig struct {
	KubernetesVersion string        `yaml:"kubernetes_version"`
	PodNetworkCIDR    string        `yaml:"pod_network_cidr"`
	ServiceCIDR       string        `yaml:"service_cidr"`
	ContainerRuntime  string        `yaml:"container_runtime"`
	CNIPlugin         string        `yaml:"cni_plugin"`
	StorageClass      string        `yaml:"storage_class"`
	Timezone          string        `yaml:"timezone"`
	NTPServers        []string      `yaml:"ntp_servers"`
	FirewallRules     FirewallRules `yaml:"firewall_rules"`
}

// Default returns the built-in configuration used when no override file is
// supplied.
func Default() *ClusterConfig {
	cfg := &ClusterConfig{}
	SetDefaults(cfg)
	return cfg
}

// SetDefaults fills every unset field with its built-in default.
func SetDefaults(cfg *ClusterConfig) {
	if cfg.KubernetesVersion == "" {
		cfg.KubernetesVersion = "1.28.0"
	}
	if cfg.PodNetworkCIDR == "" {
		cfg.PodNetworkCIDR = "10.244.0.0/16"
	}
	if cfg.ServiceCIDR == "" {
		cfg.ServiceCIDR = "10.96.0.0/12"
	}
	if cfg.ContainerRuntime == "" {
		cfg.ContainerRuntime = "containerd"
	}
	if cfg.CNIPlugin == "" {
		cfg.CNIPlugin = "flannel"
	}
	if cfg.StorageClass == "" {
		cfg.StorageClass = "local-path"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if len(cfg.NTPServers) == 0 {
		cfg.NTPServers = []string{"pool.ntp.org", "time.google.com"}
	}
	if len(cfg.FirewallRules.ControlPlanePorts) == 0 {
		cfg.FirewallRules.ControlPlanePorts = []int{6443, 2379, 2380, 10250, 10251, 10252, 10259, 10257}
	}
	if len(cfg.FirewallRules.WorkerPorts) == 0 {
		cfg.FirewallRules.WorkerPorts = []int{10250, 30000, 32767}
	}
	if len(cfg.FirewallRules.CommonPorts) == 0 {
		cfg.FirewallRules.CommonPorts = []int{22, 80, 443, 53}
	}
}

// Load reads the optional override file, merges it over the defaults, and
// validates the result. An empty path yields the pure defaults.
func Load(configPath string) (*ClusterConfig, error) {
	if configPath == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes merges YAML content over the defaults and validates it.
func LoadFromBytes(data []byte) (*ClusterConfig, error) {
	var cfg ClusterConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml config: %w", err)
	}
	SetDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate performs structural checks on the merged configuration. It does
// not judge semantic correctness beyond parseability.
func Validate(cfg *ClusterConfig) error {
	if _, _, err := net.ParseCIDR(cfg.PodNetworkCIDR); err != nil {
		return fmt.Errorf("invalid pod_network_cidr '%s': %w", cfg.PodNetworkCIDR, err)
	}
	if _, _, err := net.ParseCIDR(cfg.ServiceCIDR); err != nil {
		return fmt.Errorf("invalid service_cidr '%s': %w", cfg.ServiceCIDR, err)
	}
	allPorts := make([]int, 0,
		len(cfg.FirewallRules.ControlPlanePorts)+len(cfg.FirewallRules.WorkerPorts)+len(cfg.FirewallRules.CommonPorts))
	allPorts = append(allPorts, cfg.FirewallRules.ControlPlanePorts...)
	allPorts = append(allPorts, cfg.FirewallRules.WorkerPorts...)
	allPorts = append(allPorts, cfg.FirewallRules.CommonPorts...)
	for _, port := range allPorts {
		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid firewall port %d", port)
		}
	}
	return nil
}

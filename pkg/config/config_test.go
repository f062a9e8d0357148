package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.KubernetesVersion != "1.28.0" {
		t.Errorf("KubernetesVersion = %q, want 1.28.0", cfg.KubernetesVersion)
	}
	if cfg.PodNetworkCIDR != "10.244.0.0/16" {
		t.Errorf("PodNetworkCIDR = %q", cfg.PodNetworkCIDR)
	}
	if cfg.ServiceCIDR != "10.96.0.0/12" {
		t.Errorf("ServiceCIDR = %q", cfg.ServiceCIDR)
	}
	if cfg.ContainerRuntime != "containerd" || cfg.CNIPlugin != "flannel" {
		t.Errorf("runtime/cni = %q/%q", cfg.ContainerRuntime, cfg.CNIPlugin)
	}
	if cfg.StorageClass != "local-path" || cfg.Timezone != "UTC" {
		t.Errorf("storage/timezone = %q/%q", cfg.StorageClass, cfg.Timezone)
	}
	if len(cfg.NTPServers) == 0 {
		t.Error("NTPServers should have defaults")
	}
	if len(cfg.FirewallRules.ControlPlanePorts) == 0 || len(cfg.FirewallRules.CommonPorts) == 0 {
		t.Error("firewall rules should have defaults")
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate(defaults) = %v", err)
	}
}

func TestLoadFromBytesMerge(t *testing.T) {
	data := []byte("kubernetes_version: \"1.29.2\"\ncni_plugin: calico\n")

	cfg, err := LoadFromBytes(data)
	if err != nil {
		t.Fatalf("LoadFromBytes() error = %v", err)
	}
	if cfg.KubernetesVersion != "1.29.2" {
		t.Errorf("KubernetesVersion = %q, override lost", cfg.KubernetesVersion)
	}
	if cfg.CNIPlugin != "calico" {
		t.Errorf("CNIPlugin = %q, override lost", cfg.CNIPlugin)
	}
	// Unset keys keep the defaults.
	if cfg.PodNetworkCIDR != "10.244.0.0/16" {
		t.Errorf("PodNetworkCIDR = %q, default lost", cfg.PodNetworkCIDR)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Timezone = %q, default lost", cfg.Timezone)
	}
}

func TestLoadFromBytesErrors(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"malformed yaml", ":\n  - not yaml"},
		{"bad pod cidr", "pod_network_cidr: not-a-cidr\n"},
		{"bad service cidr", "service_cidr: 10.96.0.0/99\n"},
		{"port out of range", "firewall_rules:\n  common_ports: [0]\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadFromBytes([]byte(tc.data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("empty path yields defaults", func(t *testing.T) {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load(\"\") error = %v", err)
		}
		if cfg.KubernetesVersion != "1.28.0" {
			t.Errorf("KubernetesVersion = %q", cfg.KubernetesVersion)
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Fatal("expected error for unreadable config file")
		}
	})

	t.Run("file override", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cluster.yaml")
		if err := os.WriteFile(path, []byte("storage_class: longhorn\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.StorageClass != "longhorn" {
			t.Errorf("StorageClass = %q, want longhorn", cfg.StorageClass)
		}
	})
}

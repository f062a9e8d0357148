// Package kubeadm renders the cluster init configuration document and
// parses the credentials kubeadm emits. The orchestrators treat kubeadm
// itself as an external collaborator; only its config input and the join
// command lines of its output are interpreted here.
package kubeadm

import (
	"fmt"

	"sigs.k8s.io/yaml"

	"github.com/mensylisir/kubeboot/pkg/common"
	"github.com/mensylisir/kubeboot/pkg/config"
)

const configAPIVersion = "kubeadm.k8s.io/v1beta3"

// APIEndpoint is the kubeadm localAPIEndpoint block.
type APIEndpoint struct {
	AdvertiseAddress string `json:"advertiseAddress"`
	BindPort         int    `json:"bindPort"`
}

// NodeRegistration carries kubelet extra args for the registering node.
type NodeRegistration struct {
	KubeletExtraArgs map[string]string `json:"kubeletExtraArgs,omitempty"`
}

// InitConfiguration is the first document of the generated config.
type InitConfiguration struct {
	APIVersion       string           `json:"apiVersion"`
	Kind             string           `json:"kind"`
	LocalAPIEndpoint APIEndpoint      `json:"localAPIEndpoint"`
	NodeRegistration NodeRegistration `json:"nodeRegistration"`
}

// Networking is the pod/service subnet block of ClusterConfiguration.
type Networking struct {
	PodSubnet     string `json:"podSubnet"`
	ServiceSubnet string `json:"serviceSubnet"`
}

// LocalEtcd configures the stacked etcd data directory.
type LocalEtcd struct {
	DataDir string `json:"dataDir"`
}

// Etcd is the etcd block of ClusterConfiguration.
type Etcd struct {
	Local LocalEtcd `json:"local"`
}

// ClusterConfiguration is the second document of the generated config.
type ClusterConfiguration struct {
	APIVersion           string     `json:"apiVersion"`
	Kind                 string     `json:"kind"`
	KubernetesVersion    string     `json:"kubernetesVersion"`
	ControlPlaneEndpoint string     `json:"controlPlaneEndpoint"`
	Networking           Networking `json:"networking"`
	Etcd                 Etcd       `json:"etcd"`
}

// RenderInitConfig produces the two-part kubeadm configuration document for
// initializing the first control-plane node at advertiseAddress.
func RenderInitConfig(cfg *config.ClusterConfig, advertiseAddress string) (string, error) {
	if advertiseAddress == "" {
		return "", fmt.Errorf("advertise address cannot be empty")
	}

	initCfg := InitConfiguration{
		APIVersion: configAPIVersion,
		Kind:       "InitConfiguration",
		LocalAPIEndpoint: APIEndpoint{
			AdvertiseAddress: advertiseAddress,
			BindPort:         common.APIServerBindPort,
		},
		NodeRegistration: NodeRegistration{
			KubeletExtraArgs: map[string]string{"cgroup-driver": "systemd"},
		},
	}
	clusterCfg := ClusterConfiguration{
		APIVersion:           configAPIVersion,
		Kind:                 "ClusterConfiguration",
		KubernetesVersion:    cfg.KubernetesVersion,
		ControlPlaneEndpoint: fmt.Sprintf("%s:%d", advertiseAddress, common.APIServerBindPort),
		Networking: Networking{
			PodSubnet:     cfg.PodNetworkCIDR,
			ServiceSubnet: cfg.ServiceCIDR,
		},
		Etcd: Etcd{Local: LocalEtcd{DataDir: common.EtcdDataDir}},
	}

	initDoc, err := yaml.Marshal(initCfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal InitConfiguration: %w", err)
	}
	clusterDoc, err := yaml.Marshal(clusterCfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal ClusterConfiguration: %w", err)
	}
	return string(initDoc) + "---\n" + string(clusterDoc), nil
}

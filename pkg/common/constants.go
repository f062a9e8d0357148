package common

import "time"

// Node roles. The topology resolver assigns these positionally: the first
// ControlPlaneCount inventory entries become control-plane nodes, the rest
// become workers.
const (
	RoleControlPlane = "control-plane"
	RoleWorker       = "worker"
)

// Inventory field defaults applied during normalization.
const (
	DefaultSSHUser   = "root"
	DefaultSSHPort   = 22
	DefaultNodeGroup = "default"
	DefaultOS        = "ubuntu"
	DefaultOSVersion = "22.04"
)

// DefaultControlPlaneCount is the number of leading inventory entries
// promoted to the control plane when no explicit count is given.
const DefaultControlPlaneCount = 3

// DefaultMaxParallel bounds concurrent remote sessions during parallel
// steps. Each in-flight operation holds an SSH connection, so this also
// caps the load on the control host.
const DefaultMaxParallel = 5

// Remote operation timeouts. Most commands finish well within the default;
// node preparation and joins pull packages and container images, and
// kubeadm init additionally waits for the control plane to come up.
const (
	DefaultCommandTimeout = 300 * time.Second
	PrepareNodeTimeout    = 600 * time.Second
	JoinNodeTimeout       = 600 * time.Second
	InitClusterTimeout    = 900 * time.Second
	SSHConnectTimeout     = 10 * time.Second
)

// NodeRegisterSettleDelay is how long a freshly joined node is given to
// register with the API server before the Ready verification runs.
const NodeRegisterSettleDelay = 30 * time.Second

// APIServerBindPort is the fixed kube-apiserver bind port used both in the
// generated kubeadm configuration and in the control-plane endpoint.
const APIServerBindPort = 6443

// EtcdDataDir is the data directory written into the kubeadm
// ClusterConfiguration for the stacked etcd members.
const EtcdDataDir = "/var/lib/etcd"

// Remote staging paths used by the bootstrap and membership workflows.
const (
	RemotePrepareScriptPath = "/tmp/prepare_node.sh"
	RemoteKubeadmConfigPath = "/tmp/kubeadm-config.yaml"
)

// NodeConditionReady is the kubelet condition type checked when verifying
// cluster membership.
const NodeConditionReady = "Ready"

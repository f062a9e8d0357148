// Package membership implements node add and remove workflows against an
// already running cluster. All cluster queries execute remotely on a
// designated master node; the join credentials are fetched fresh from it
// rather than reused from a bootstrap run.
package membership

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"

	"github.com/mensylisir/kubeboot/pkg/common"
	"github.com/mensylisir/kubeboot/pkg/config"
	"github.com/mensylisir/kubeboot/pkg/executor"
	"github.com/mensylisir/kubeboot/pkg/inventory"
	"github.com/mensylisir/kubeboot/pkg/logger"
)

// Manager runs membership workflows through one master node of an existing
// cluster.
type Manager struct {
	exec        executor.Executor
	cfg         *config.ClusterConfig
	nodes       []inventory.Node
	master      *inventory.Node
	settleDelay time.Duration
	log         *logger.Logger
}

// NewManager resolves masterIdentifier against the inventory and returns a
// manager bound to that master.
func NewManager(nodes []inventory.Node, masterIdentifier string, exec executor.Executor, cfg *config.ClusterConfig) (*Manager, error) {
	var master *inventory.Node
	for i := range nodes {
		if nodes[i].Matches(masterIdentifier) {
			master = &nodes[i]
			break
		}
	}
	if master == nil {
		return nil, fmt.Errorf("master node not found in inventory: %s", masterIdentifier)
	}
	return &Manager{
		exec:        exec,
		cfg:         cfg,
		nodes:       nodes,
		master:      master,
		settleDelay: common.NodeRegisterSettleDelay,
		log:         logger.Get(),
	}, nil
}

// Master returns the node cluster queries are routed through.
func (m *Manager) Master() *inventory.Node {
	return m.master
}

// InventoryNodes returns the parsed inventory backing this manager.
func (m *Manager) InventoryNodes() []inventory.Node {
	return m.nodes
}

// FindNode looks an inventory node up by hostname or IP.
func (m *Manager) FindNode(identifier string) (*inventory.Node, bool) {
	for i := range m.nodes {
		if m.nodes[i].Matches(identifier) {
			return &m.nodes[i], true
		}
	}
	return nil, false
}

// getNodeObject fetches one node object from the cluster and decodes it.
func (m *Manager) getNodeObject(ctx context.Context, identifier string) (*corev1.Node, error) {
	cmd := fmt.Sprintf("kubectl get nodes %s -o json", identifier)
	outcome := m.exec.Run(ctx, m.master, cmd, common.DefaultCommandTimeout)
	if !outcome.OK() {
		return nil, fmt.Errorf("node %s not found in cluster: %s", identifier, outcome.Stderr)
	}
	var node corev1.Node
	if err := json.Unmarshal([]byte(outcome.Stdout), &node); err != nil {
		return nil, fmt.Errorf("failed to decode node object for %s: %w", identifier, err)
	}
	return &node, nil
}

// isNodeReady reports whether the node's kubelet Ready condition is True.
func isNodeReady(node *corev1.Node) bool {
	for _, cond := range node.Status.Conditions {
		if cond.Type == corev1.NodeReady {
			return cond.Status == corev1.ConditionTrue
		}
	}
	return false
}

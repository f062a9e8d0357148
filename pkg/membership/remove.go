package membership

import (
	"context"
	"fmt"
	"strings"

	"github.com/mensylisir/kubeboot/pkg/common"
	"github.com/mensylisir/kubeboot/pkg/inventory"
)

// RemoveNode removes a node from the cluster in three phases: drain, delete,
// and an optional local reset. Drain failure aborts unless force is set;
// delete failure is always fatal (force does not override it); reset
// failures are downgraded to warnings because the node is already out of
// the cluster by then.
func (m *Manager) RemoveNode(ctx context.Context, identifier string, force, reset bool) error {
	node, ok := m.FindNode(identifier)
	if !ok {
		return fmt.Errorf("node %s not found in inventory", identifier)
	}
	m.log.Infof("removing node %s", identifier)

	if err := m.DrainNode(ctx, identifier, force); err != nil {
		if !force {
			return fmt.Errorf("drain failed, use --force to continue anyway: %w", err)
		}
		m.log.Warnf("drain of %s failed, continuing because --force is set: %v", identifier, err)
	}

	if err := m.DeleteNode(ctx, identifier); err != nil {
		return err
	}

	if reset {
		if err := m.ResetNode(ctx, node); err != nil {
			m.log.Warnf("failed to reset node %s: %v", node.Hostname, err)
		}
	}

	m.log.Successf("removed node %s", identifier)
	return nil
}

// DrainNode evicts workloads from the node. --ignore-daemonsets is added
// when the node is still schedulable; force additionally evicts unmanaged
// pods with no grace period. Local ephemeral-volume data is always deleted.
func (m *Manager) DrainNode(ctx context.Context, identifier string, force bool) error {
	obj, err := m.getNodeObject(ctx, identifier)
	if err != nil {
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "kubectl drain %s", identifier)
	if !obj.Spec.Unschedulable {
		sb.WriteString(" --ignore-daemonsets")
	}
	if force {
		sb.WriteString(" --force --grace-period=0")
	}
	sb.WriteString(" --delete-emptydir-data")

	drainCmd := sb.String()
	m.log.Infof("draining node %s: %s", identifier, drainCmd)
	outcome := m.exec.Run(ctx, m.master, drainCmd, common.JoinNodeTimeout)
	if !outcome.OK() {
		return fmt.Errorf("failed to drain node %s (exit %d): %s", identifier, outcome.ExitCode, outcome.Stderr)
	}
	m.log.Successf("drained node %s", identifier)
	return nil
}

// DeleteNode removes the node object from the cluster's membership
// registry.
func (m *Manager) DeleteNode(ctx context.Context, identifier string) error {
	cmd := fmt.Sprintf("kubectl delete node %s", identifier)
	outcome := m.exec.Run(ctx, m.master, cmd, common.DefaultCommandTimeout)
	if !outcome.OK() {
		return fmt.Errorf("failed to delete node %s (exit %d): %s", identifier, outcome.ExitCode, outcome.Stderr)
	}
	m.log.Successf("deleted node %s from cluster", identifier)
	return nil
}

// ResetNode wipes local Kubernetes state on the target node itself:
// kubeadm reset, firewall and NAT rule flush, CNI interface and state
// directory removal. Cleanup commands after the reset run best-effort; the
// node is already evicted and a failed local cleanup does not threaten
// cluster health.
func (m *Manager) ResetNode(ctx context.Context, node *inventory.Node) error {
	m.log.Infof("resetting node %s", node.Hostname)

	outcome := m.exec.Run(ctx, node, "kubeadm reset --force", common.DefaultCommandTimeout)
	if !outcome.OK() {
		return fmt.Errorf("kubeadm reset failed on %s (exit %d): %s", node.Hostname, outcome.ExitCode, outcome.Stderr)
	}

	cleanups := []string{
		"iptables -F && iptables -t nat -F && iptables -t mangle -F && iptables -X",
		"ip link delete cni0 2>/dev/null || true && ip link delete flannel.1 2>/dev/null || true",
		"rm -rf /var/lib/cni /var/lib/kubelet /etc/cni /etc/kubernetes",
	}
	for _, cmd := range cleanups {
		if outcome := m.exec.Run(ctx, node, cmd, common.DefaultCommandTimeout); !outcome.OK() {
			m.log.Warnf("cleanup command failed on %s: %s", node.Hostname, outcome.Stderr)
		}
	}

	m.log.Successf("reset node %s", node.Hostname)
	return nil
}

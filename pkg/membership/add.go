package membership

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/mensylisir/kubeboot/pkg/bootstrap"
	"github.com/mensylisir/kubeboot/pkg/common"
	"github.com/mensylisir/kubeboot/pkg/inventory"
	"github.com/mensylisir/kubeboot/pkg/kubeadm"
)

// FetchJoinCommand obtains a freshly generated join command of the given
// role from the master. For control-plane joins the certificates are
// re-uploaded so the command carries a certificate key; for workers a
// disposable bootstrap token is created.
func (m *Manager) FetchJoinCommand(ctx context.Context, role string) (string, error) {
	var cmd string
	switch role {
	case common.RoleControlPlane:
		cmd = "kubeadm init phase upload-certs --upload-certs --print-join-command"
	case common.RoleWorker:
		cmd = "kubeadm token create --print-join-command"
	default:
		return "", fmt.Errorf("unknown node role: %s", role)
	}

	outcome := m.exec.Run(ctx, m.master, cmd, common.DefaultCommandTimeout)
	if !outcome.OK() {
		return "", fmt.Errorf("failed to get %s join command (exit %d): %s", role, outcome.ExitCode, outcome.Stderr)
	}
	joinCmd := strings.TrimSpace(outcome.Stdout)
	if joinCmd == "" {
		return "", errors.Wrapf(kubeadm.ErrMissingCredential, "empty %s join command from %s", role, m.master.Hostname)
	}
	return joinCmd, nil
}

// AddNode adds one node to the running cluster: prepare, fetch a fresh join
// credential, join, wait for the node to register, verify it reports Ready.
// Any failing stage aborts with that stage's error; there is no retry. The
// credential is minted only after preparation succeeds so a host that
// cannot be prepared leaves no live token or certificate key behind.
func (m *Manager) AddNode(ctx context.Context, node *inventory.Node, role string) error {
	m.log.Infof("adding %s node %s", role, node.Hostname)

	if !bootstrap.PrepareNode(ctx, m.exec, m.cfg, *node) {
		return fmt.Errorf("failed to prepare node %s", node.Hostname)
	}

	joinCmd, err := m.FetchJoinCommand(ctx, role)
	if err != nil {
		return err
	}
	return m.joinAndVerify(ctx, node, role, joinCmd)
}

func (m *Manager) addNodeWithCommand(ctx context.Context, node *inventory.Node, role string, joinCmd string) error {
	m.log.Infof("adding %s node %s", role, node.Hostname)

	if !bootstrap.PrepareNode(ctx, m.exec, m.cfg, *node) {
		return fmt.Errorf("failed to prepare node %s", node.Hostname)
	}
	return m.joinAndVerify(ctx, node, role, joinCmd)
}

// joinAndVerify runs the join command on the node, waits out the
// registration settle delay, and checks the Ready condition.
func (m *Manager) joinAndVerify(ctx context.Context, node *inventory.Node, role string, joinCmd string) error {
	outcome := m.exec.Run(ctx, node, joinCmd, common.JoinNodeTimeout)
	if !outcome.OK() {
		return fmt.Errorf("failed to join %s node %s (exit %d): %s", role, node.Hostname, outcome.ExitCode, outcome.Stderr)
	}

	// Give the kubelet time to register with the API server before the
	// Ready check; verifying immediately races node registration.
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.settleDelay):
	}

	if err := m.VerifyNodeReady(ctx, node.Hostname); err != nil {
		return err
	}
	m.log.Successf("added %s node %s", role, node.Hostname)
	return nil
}

// VerifyNodeReady checks that the node is registered in the cluster and
// its kubelet reports Ready.
func (m *Manager) VerifyNodeReady(ctx context.Context, identifier string) error {
	node, err := m.getNodeObject(ctx, identifier)
	if err != nil {
		return err
	}
	if !isNodeReady(node) {
		return fmt.Errorf("node %s joined but is not Ready", identifier)
	}
	return nil
}

// AddNodesFromInventory adds every given node sequentially, fetching the
// join credential once and reusing it. Individual node failures are
// tolerated; the success count is returned.
func (m *Manager) AddNodesFromInventory(ctx context.Context, nodes []inventory.Node, role string) (int, error) {
	joinCmd, err := m.FetchJoinCommand(ctx, role)
	if err != nil {
		return 0, err
	}

	successCount := 0
	for i := range nodes {
		if err := m.addNodeWithCommand(ctx, &nodes[i], role, joinCmd); err != nil {
			m.log.Errorf("failed to add node %s: %v", nodes[i].Hostname, err)
			continue
		}
		successCount++
	}
	m.log.Infof("added %d/%d nodes", successCount, len(nodes))
	return successCount, nil
}

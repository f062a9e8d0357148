package membership

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/mensylisir/kubeboot/pkg/common"
)

// ListNodes returns the names of all nodes currently registered in the
// cluster.
func (m *Manager) ListNodes(ctx context.Context) ([]string, error) {
	outcome := m.exec.Run(ctx, m.master, "kubectl get nodes -o json", common.DefaultCommandTimeout)
	if !outcome.OK() {
		return nil, fmt.Errorf("failed to list nodes (exit %d): %s", outcome.ExitCode, outcome.Stderr)
	}

	var names []string
	for _, item := range gjson.Get(outcome.Stdout, "items.#.metadata.name").Array() {
		names = append(names, item.String())
	}
	return names, nil
}

// GetNodeStatus returns the human-readable describe output for one node.
func (m *Manager) GetNodeStatus(ctx context.Context, identifier string) (string, error) {
	cmd := fmt.Sprintf("kubectl describe node %s", identifier)
	outcome := m.exec.Run(ctx, m.master, cmd, common.DefaultCommandTimeout)
	if !outcome.OK() {
		return "", fmt.Errorf("failed to get status of node %s (exit %d): %s", identifier, outcome.ExitCode, outcome.Stderr)
	}
	return outcome.Stdout, nil
}

package bootstrap

import (
	"context"
	"fmt"

	"github.com/mensylisir/kubeboot/pkg/common"
	"github.com/mensylisir/kubeboot/pkg/config"
	"github.com/mensylisir/kubeboot/pkg/executor"
	"github.com/mensylisir/kubeboot/pkg/inventory"
	"github.com/mensylisir/kubeboot/pkg/logger"
	"github.com/mensylisir/kubeboot/pkg/templates"
	"github.com/mensylisir/kubeboot/pkg/util"
)

const prepareScriptTemplate = "os/prepare_node.sh.tmpl"

// RenderPrepareScript renders the node preparation payload with the
// cluster-wide NTP servers and the union of the configured firewall ports
// baked in.
func RenderPrepareScript(cfg *config.ClusterConfig) (string, error) {
	tmpl, err := templates.Get(prepareScriptTemplate)
	if err != nil {
		return "", err
	}
	ports := make([]int, 0,
		len(cfg.FirewallRules.CommonPorts)+len(cfg.FirewallRules.ControlPlanePorts)+len(cfg.FirewallRules.WorkerPorts))
	ports = append(ports, cfg.FirewallRules.CommonPorts...)
	ports = append(ports, cfg.FirewallRules.ControlPlanePorts...)
	ports = append(ports, cfg.FirewallRules.WorkerPorts...)

	return util.RenderTemplate(tmpl, map[string]interface{}{
		"NTPServers": cfg.NTPServers,
		"OpenPorts":  ports,
	})
}

// PrepareNode stages the preparation payload on one node, marks it
// executable, and runs it with the node's OS parameters. Success requires
// every sub-command to exit zero; the first non-zero sub-command aborts
// this node's preparation. PrepareNode is shared by the bootstrap pipeline
// and the add-node workflow.
func PrepareNode(ctx context.Context, exec executor.Executor, cfg *config.ClusterConfig, node inventory.Node) bool {
	log := logger.Get()
	log.Infof("preparing node %s", node.Hostname)

	script, err := RenderPrepareScript(cfg)
	if err != nil {
		log.Errorf("failed to render preparation script for %s: %v", node.Hostname, err)
		return false
	}
	if !exec.Push(ctx, &node, []byte(script), common.RemotePrepareScriptPath, 0o644) {
		log.Errorf("failed to copy preparation script to %s", node.Hostname)
		return false
	}

	commands := []string{
		fmt.Sprintf("chmod +x %s", common.RemotePrepareScriptPath),
		fmt.Sprintf("%s --os %s --version %s --timezone %s",
			common.RemotePrepareScriptPath, node.OS, node.OSVersion, cfg.Timezone),
	}
	for _, cmd := range commands {
		outcome := exec.Run(ctx, &node, cmd, common.PrepareNodeTimeout)
		if !outcome.OK() {
			log.Errorf("preparation command failed on %s (exit %d): %s", node.Hostname, outcome.ExitCode, outcome.Stderr)
			return false
		}
	}

	log.Successf("prepared node %s", node.Hostname)
	return true
}

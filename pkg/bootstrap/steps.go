package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/mensylisir/kubeboot/pkg/common"
	"github.com/mensylisir/kubeboot/pkg/dispatch"
	"github.com/mensylisir/kubeboot/pkg/inventory"
	"github.com/mensylisir/kubeboot/pkg/kubeadm"
)

// Manifests applied from the first control-plane node. The add-on steps are
// idempotent kubectl applies of fixed manifests.
const (
	flannelManifestURL   = "https://raw.githubusercontent.com/flannel-io/flannel/master/Documentation/kube-flannel.yml"
	localPathManifestURL = "https://raw.githubusercontent.com/rancher/local-path-provisioner/master/deploy/local-path-storage.yaml"
)

// Step is one named stage of the bootstrap pipeline.
type Step struct {
	Name string
	Run  func(ctx context.Context, bc *Context) error
}

// prepareAllNodes stages and runs the preparation payload on every node in
// parallel. One failing node does not interrupt its siblings, but any
// failure fails the step.
func prepareAllNodes(ctx context.Context, bc *Context) error {
	results := dispatch.Map(ctx, bc.Topology.All, func(ctx context.Context, node inventory.Node) bool {
		return PrepareNode(ctx, bc.Executor, bc.Config, node)
	}, bc.MaxParallel)

	if !results.AllSucceeded() {
		return fmt.Errorf("failed to prepare nodes: %s", strings.Join(results.Failed(), ", "))
	}
	return nil
}

// initializeControlPlane renders the kubeadm configuration, ships it to the
// first control-plane node, runs kubeadm init, and extracts the join
// credentials from its output.
func initializeControlPlane(ctx context.Context, bc *Context) error {
	master := bc.Topology.FirstControlPlane()
	if master == nil {
		return fmt.Errorf("topology has no control-plane node")
	}
	log := bc.Logger()
	log.Infof("initializing control plane on %s", master.Hostname)

	doc, err := kubeadm.RenderInitConfig(bc.Config, master.Address())
	if err != nil {
		return errors.Wrap(err, "failed to render kubeadm configuration")
	}
	if !bc.Executor.Push(ctx, master, []byte(doc), common.RemoteKubeadmConfigPath, 0o644) {
		return fmt.Errorf("failed to copy kubeadm configuration to %s", master.Hostname)
	}

	initCmd := fmt.Sprintf("kubeadm init --config=%s --upload-certs", common.RemoteKubeadmConfigPath)
	outcome := bc.Executor.Run(ctx, master, initCmd, common.InitClusterTimeout)
	if !outcome.OK() {
		return fmt.Errorf("kubeadm init failed on %s (exit %d): %s", master.Hostname, outcome.ExitCode, outcome.Stderr)
	}

	bc.JoinCommands = kubeadm.ExtractJoinCommands(outcome.Stdout)
	log.Successf("initialized control plane on %s", master.Hostname)
	return nil
}

// joinControlPlaneNodes joins the remaining control-plane nodes one at a
// time, in topology order. Control-plane membership is on the quorum
// critical path, so the first failure aborts the whole pipeline.
func joinControlPlaneNodes(ctx context.Context, bc *Context) error {
	remaining := bc.Topology.ControlPlane
	if len(remaining) <= 1 {
		return nil
	}
	remaining = remaining[1:]

	joinCmd, err := bc.JoinCommands.ForControlPlane()
	if err != nil {
		return errors.Wrap(err, "cannot join control-plane nodes")
	}

	log := bc.Logger()
	for i := range remaining {
		node := &remaining[i]
		log.Infof("joining control-plane node %s", node.Hostname)
		outcome := bc.Executor.Run(ctx, node, joinCmd, common.JoinNodeTimeout)
		if !outcome.OK() {
			return fmt.Errorf("failed to join control-plane node %s (exit %d): %s", node.Hostname, outcome.ExitCode, outcome.Stderr)
		}
		log.Successf("joined control-plane node %s", node.Hostname)
	}
	return nil
}

// joinWorkerNodes joins all workers in parallel. Workers are not on the
// quorum critical path: a failing worker is reported but does not stop its
// siblings from joining.
func joinWorkerNodes(ctx context.Context, bc *Context) error {
	if len(bc.Topology.Workers) == 0 {
		return nil
	}

	joinCmd, err := bc.JoinCommands.ForWorker()
	if err != nil {
		return errors.Wrap(err, "cannot join worker nodes")
	}

	log := bc.Logger()
	results := dispatch.Map(ctx, bc.Topology.Workers, func(ctx context.Context, node inventory.Node) bool {
		log.Infof("joining worker node %s", node.Hostname)
		outcome := bc.Executor.Run(ctx, &node, joinCmd, common.JoinNodeTimeout)
		if !outcome.OK() {
			log.Errorf("failed to join worker node %s (exit %d): %s", node.Hostname, outcome.ExitCode, outcome.Stderr)
			return false
		}
		log.Successf("joined worker node %s", node.Hostname)
		return true
	}, bc.MaxParallel)

	if !results.AllSucceeded() {
		return fmt.Errorf("failed to join worker nodes: %s", strings.Join(results.Failed(), ", "))
	}
	return nil
}

// installNetworkAddon applies the CNI manifest from the first control-plane
// node.
func installNetworkAddon(ctx context.Context, bc *Context) error {
	master := bc.Topology.FirstControlPlane()
	log := bc.Logger()
	log.Infof("installing %s CNI", bc.Config.CNIPlugin)

	applyCmd := fmt.Sprintf("kubectl apply -f %s", flannelManifestURL)
	outcome := bc.Executor.Run(ctx, master, applyCmd, common.DefaultCommandTimeout)
	if !outcome.OK() {
		return fmt.Errorf("failed to install CNI (exit %d): %s", outcome.ExitCode, outcome.Stderr)
	}
	log.Successf("installed %s CNI", bc.Config.CNIPlugin)
	return nil
}

// installStorageAddon applies the storage provisioner manifest and marks
// the resulting storage class as the cluster default.
func installStorageAddon(ctx context.Context, bc *Context) error {
	master := bc.Topology.FirstControlPlane()
	log := bc.Logger()
	log.Infof("installing %s storage provisioner", bc.Config.StorageClass)

	applyCmd := fmt.Sprintf("kubectl apply -f %s", localPathManifestURL)
	outcome := bc.Executor.Run(ctx, master, applyCmd, common.DefaultCommandTimeout)
	if !outcome.OK() {
		return fmt.Errorf("failed to install storage provisioner (exit %d): %s", outcome.ExitCode, outcome.Stderr)
	}

	patchCmd := fmt.Sprintf(
		`kubectl patch storageclass %s -p '{"metadata": {"annotations":{"storageclass.kubernetes.io/is-default-class":"true"}}}'`,
		bc.Config.StorageClass)
	outcome = bc.Executor.Run(ctx, master, patchCmd, common.DefaultCommandTimeout)
	if !outcome.OK() {
		return fmt.Errorf("failed to set default storage class (exit %d): %s", outcome.ExitCode, outcome.Stderr)
	}
	log.Successf("installed %s storage provisioner", bc.Config.StorageClass)
	return nil
}

// verifyCluster surfaces node and workload status from the first
// control-plane node. It reports but never remediates.
func verifyCluster(ctx context.Context, bc *Context) error {
	master := bc.Topology.FirstControlPlane()
	log := bc.Logger()

	outcome := bc.Executor.Run(ctx, master, "kubectl get nodes -o wide", common.DefaultCommandTimeout)
	if !outcome.OK() {
		return fmt.Errorf("failed to query nodes (exit %d): %s", outcome.ExitCode, outcome.Stderr)
	}
	log.Infof("cluster nodes:\n%s", outcome.Stdout)

	outcome = bc.Executor.Run(ctx, master, "kubectl get pods --all-namespaces", common.DefaultCommandTimeout)
	if !outcome.OK() {
		return fmt.Errorf("failed to query pods (exit %d): %s", outcome.ExitCode, outcome.Stderr)
	}
	log.Infof("cluster pods:\n%s", outcome.Stdout)
	return nil
}

package bootstrap

import (
	"context"

	"github.com/pkg/errors"
)

// Steps returns the bootstrap pipeline in execution order. The order is
// load-bearing: initialization produces the join credentials that both join
// steps consume, and the add-on steps need a reachable API server.
func Steps() []Step {
	return []Step{
		{Name: "Preparing all nodes", Run: prepareAllNodes},
		{Name: "Initializing control plane", Run: initializeControlPlane},
		{Name: "Joining control plane nodes", Run: joinControlPlaneNodes},
		{Name: "Joining worker nodes", Run: joinWorkerNodes},
		{Name: "Setting up networking", Run: installNetworkAddon},
		{Name: "Setting up storage", Run: installStorageAddon},
		{Name: "Verifying cluster", Run: verifyCluster},
	}
}

// Run executes the pipeline strictly in order and halts at the first step
// that fails. There is no partial continuation, rollback, or retry; the
// returned error names the failing step.
func Run(ctx context.Context, bc *Context) error {
	log := bc.Logger()
	log.Infof("starting cluster bootstrap: %d control-plane, %d worker nodes",
		len(bc.Topology.ControlPlane), len(bc.Topology.Workers))

	for _, step := range Steps() {
		log.Infof("--- %s ---", step.Name)
		if err := step.Run(ctx, bc); err != nil {
			return errors.Wrapf(err, "bootstrap failed at step '%s'", step.Name)
		}
	}

	log.Successf("cluster bootstrap completed: %d control-plane and %d worker nodes",
		len(bc.Topology.ControlPlane), len(bc.Topology.Workers))
	return nil
}

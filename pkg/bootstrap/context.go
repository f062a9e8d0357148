// Package bootstrap drives the provisioning of a brand-new cluster as a
// fixed sequence of named steps over a resolved topology. Data produced by
// one step and consumed by later ones (the join credentials) travels in an
// explicit Context value instead of shared mutable state, so each step's
// dependencies are visible and testable in isolation.
package bootstrap

import (
	"github.com/google/uuid"

	"github.com/mensylisir/kubeboot/pkg/common"
	"github.com/mensylisir/kubeboot/pkg/config"
	"github.com/mensylisir/kubeboot/pkg/executor"
	"github.com/mensylisir/kubeboot/pkg/inventory"
	"github.com/mensylisir/kubeboot/pkg/kubeadm"
	"github.com/mensylisir/kubeboot/pkg/logger"
)

// Context carries everything a bootstrap run needs. Topology and Config are
// read-only after construction and safe to share across concurrent
// operations. JoinCommands is written exactly once, by the control-plane
// initialization step, and only read afterwards; production always precedes
// consumption in pipeline order, so no locking is needed.
type Context struct {
	RunID        string
	Topology     inventory.Topology
	Config       *config.ClusterConfig
	Executor     executor.Executor
	MaxParallel  int
	JoinCommands kubeadm.JoinCommands

	log *logger.Logger
}

// NewContext assembles a bootstrap context with a fresh run ID.
func NewContext(topo inventory.Topology, cfg *config.ClusterConfig, exec executor.Executor) *Context {
	runID := uuid.NewString()
	return &Context{
		RunID:       runID,
		Topology:    topo,
		Config:      cfg,
		Executor:    exec,
		MaxParallel: common.DefaultMaxParallel,
		log:         logger.Get().With("run_id", runID),
	}
}

// Logger returns the run-scoped logger.
func (c *Context) Logger() *logger.Logger {
	if c.log == nil {
		c.log = logger.Get()
	}
	return c.log
}

package inventory

import (
	"github.com/mensylisir/kubeboot/pkg/common"
)

// Topology is the resolved cluster shape for one run: the parsed node
// sequence partitioned by a prefix split into control-plane and worker
// sets. The partition is purely positional; an explicit role field in the
// inventory never overrides it.
type Topology struct {
	All          []Node
	ControlPlane []Node
	Workers      []Node
}

// FirstControlPlane returns the node that kubeadm init runs on.
func (t *Topology) FirstControlPlane() *Node {
	if len(t.ControlPlane) == 0 {
		return nil
	}
	return &t.ControlPlane[0]
}

// Find looks a node up by hostname or IP address.
func (t *Topology) Find(identifier string) (*Node, bool) {
	for i := range t.All {
		if t.All[i].Matches(identifier) {
			return &t.All[i], true
		}
	}
	return nil, false
}

// ResolveTopology partitions nodes into the first controlPlaneCount
// control-plane nodes and the remaining workers. It is pure and
// deterministic: the same node sequence and count always produce the same
// topology. A count of zero or less falls back to the default of 3.
func ResolveTopology(nodes []Node, controlPlaneCount int) Topology {
	if controlPlaneCount <= 0 {
		controlPlaneCount = common.DefaultControlPlaneCount
	}
	if controlPlaneCount > len(nodes) {
		controlPlaneCount = len(nodes)
	}

	all := make([]Node, len(nodes))
	copy(all, nodes)
	for i := range all {
		if i < controlPlaneCount {
			all[i].Role = common.RoleControlPlane
		} else {
			all[i].Role = common.RoleWorker
		}
	}

	return Topology{
		All:          all,
		ControlPlane: all[:controlPlaneCount],
		Workers:      all[controlPlaneCount:],
	}
}

// Package dispatch runs a per-node operation across a set of nodes with a
// bounded worker pool. Faults are fully contained: a panic or failure on
// one node is recorded as a false result for that node and never disturbs
// the operations in flight on its siblings.
package dispatch

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mensylisir/kubeboot/pkg/common"
	"github.com/mensylisir/kubeboot/pkg/inventory"
	"github.com/mensylisir/kubeboot/pkg/logger"
)

// Operation is one unit of per-node work. It reports success or failure;
// it must not panic, but if it does the dispatcher converts the panic into
// a failure for that node.
type Operation func(ctx context.Context, node inventory.Node) bool

// Results maps each dispatched node to its operation result. Nodes are
// identified by their hostname/IP pair; hostnames alone are not unique in
// an inventory. Completion order between nodes is unspecified; the
// aggregate is the logical AND over all per-node results.
type Results struct {
	mu      sync.Mutex
	perNode map[string]bool
}

// nodeKey identifies one dispatched node. The IP is appended when it adds
// information beyond the hostname, so duplicate hostnames never collapse
// into one entry.
func nodeKey(node inventory.Node) string {
	if node.IPAddress == "" || node.IPAddress == node.Hostname {
		return node.Hostname
	}
	return node.Hostname + " (" + node.IPAddress + ")"
}

func newResults(size int) *Results {
	return &Results{perNode: make(map[string]bool, size)}
}

func (r *Results) record(node inventory.Node, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.perNode[nodeKey(node)] = ok
}

// Get returns the result recorded for one node.
func (r *Results) Get(node inventory.Node) (ok, present bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ok, present = r.perNode[nodeKey(node)]
	return ok, present
}

// AllSucceeded reports whether every dispatched operation returned true.
func (r *Results) AllSucceeded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ok := range r.perNode {
		if !ok {
			return false
		}
	}
	return true
}

// Failed returns the node keys whose operation failed.
func (r *Results) Failed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var failed []string
	for hostname, ok := range r.perNode {
		if !ok {
			failed = append(failed, hostname)
		}
	}
	return failed
}

// Len returns the number of recorded results.
func (r *Results) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.perNode)
}

// Map runs op for every node with at most maxParallel operations in flight
// (each one holds a remote session). It blocks until every operation has
// completed; the call is a synchronization barrier for the pipeline.
func Map(ctx context.Context, nodes []inventory.Node, op Operation, maxParallel int) *Results {
	if maxParallel <= 0 {
		maxParallel = common.DefaultMaxParallel
	}

	results := newResults(len(nodes))
	g := &errgroup.Group{}
	g.SetLimit(maxParallel)

	for _, node := range nodes {
		n := node
		g.Go(func() error {
			results.record(n, runIsolated(ctx, n, op))
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// runIsolated converts a panicking operation into a failed result so one
// broken host cannot take down the whole fleet.
func runIsolated(ctx context.Context, node inventory.Node, op Operation) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Get().Errorf("operation on node %s panicked: %v", node.Hostname, r)
			ok = false
		}
	}()
	return op(ctx, node)
}

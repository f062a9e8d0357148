package membership

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mensylisir/kubeboot/pkg/config"
	"github.com/mensylisir/kubeboot/pkg/executor"
	"github.com/mensylisir/kubeboot/pkg/inventory"
)

const readyNodeJSON = `{"kind":"Node","apiVersion":"v1","metadata":{"name":"node-4"},"spec":{},"status":{"conditions":[{"type":"Ready","status":"True"}]}}`

const notReadyNodeJSON = `{"kind":"Node","apiVersion":"v1","metadata":{"name":"node-4"},"spec":{},"status":{"conditions":[{"type":"Ready","status":"False"}]}}`

const cordonedNodeJSON = `{"kind":"Node","apiVersion":"v1","metadata":{"name":"node-4"},"spec":{"unschedulable":true},"status":{"conditions":[{"type":"Ready","status":"True"}]}}`

// fakeExecutor answers Run calls from an ordered rule list and records
// every command.
type fakeExecutor struct {
	mu    sync.Mutex
	calls []string // "host: command"
	rules []rule
}

type rule struct {
	substr  string
	outcome executor.Outcome
}

func (f *fakeExecutor) on(substr string, outcome executor.Outcome) *fakeExecutor {
	f.rules = append(f.rules, rule{substr, outcome})
	return f
}

func (f *fakeExecutor) Run(ctx context.Context, node *inventory.Node, command string, timeout time.Duration) executor.Outcome {
	f.mu.Lock()
	f.calls = append(f.calls, node.Hostname+": "+command)
	f.mu.Unlock()
	for _, r := range f.rules {
		if strings.Contains(command, r.substr) {
			return r.outcome
		}
	}
	return executor.Outcome{}
}

func (f *fakeExecutor) Copy(ctx context.Context, node *inventory.Node, localPath, remotePath string) bool {
	return true
}

func (f *fakeExecutor) Push(ctx context.Context, node *inventory.Node, content []byte, remotePath string, mode uint32) bool {
	return true
}

func (f *fakeExecutor) count(substr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.Contains(c, substr) {
			n++
		}
	}
	return n
}

func (f *fakeExecutor) find(substr string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if strings.Contains(c, substr) {
			return c, true
		}
	}
	return "", false
}

func testInventory() []inventory.Node {
	return []inventory.Node{
		{Hostname: "master-1", IPAddress: "10.0.0.1", Username: "root", SSHPort: 22, OS: "ubuntu", OSVersion: "22.04"},
		{Hostname: "node-4", IPAddress: "10.0.0.4", Username: "root", SSHPort: 22, OS: "ubuntu", OSVersion: "22.04"},
		{Hostname: "node-5", IPAddress: "10.0.0.5", Username: "root", SSHPort: 22, OS: "ubuntu", OSVersion: "22.04"},
	}
}

func testManager(t *testing.T, fake *fakeExecutor) *Manager {
	t.Helper()
	m, err := NewManager(testInventory(), "master-1", fake, config.Default())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	m.settleDelay = time.Millisecond
	return m
}

func TestNewManager(t *testing.T) {
	fake := &fakeExecutor{}

	t.Run("resolve by hostname", func(t *testing.T) {
		m, err := NewManager(testInventory(), "master-1", fake, config.Default())
		if err != nil {
			t.Fatalf("NewManager() error = %v", err)
		}
		if m.Master().Hostname != "master-1" {
			t.Errorf("Master() = %s", m.Master().Hostname)
		}
	})

	t.Run("resolve by ip", func(t *testing.T) {
		m, err := NewManager(testInventory(), "10.0.0.1", fake, config.Default())
		if err != nil {
			t.Fatalf("NewManager() error = %v", err)
		}
		if m.Master().Hostname != "master-1" {
			t.Errorf("Master() = %s", m.Master().Hostname)
		}
	})

	t.Run("unknown master", func(t *testing.T) {
		if _, err := NewManager(testInventory(), "ghost", fake, config.Default()); err == nil {
			t.Fatal("expected error for master not in inventory")
		}
	})
}

func TestFindNode(t *testing.T) {
	m := testManager(t, &fakeExecutor{})

	if node, ok := m.FindNode("10.0.0.5"); !ok || node.Hostname != "node-5" {
		t.Errorf("FindNode(10.0.0.5) = %v, %v", node, ok)
	}
	if _, ok := m.FindNode("absent"); ok {
		t.Error("FindNode(absent) should report not found")
	}
}

func TestVerifyNodeReady(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		fake := (&fakeExecutor{}).on("kubectl get nodes node-4", executor.Outcome{Stdout: readyNodeJSON})
		m := testManager(t, fake)
		if err := m.VerifyNodeReady(context.Background(), "node-4"); err != nil {
			t.Errorf("VerifyNodeReady() = %v", err)
		}
	})

	t.Run("not ready", func(t *testing.T) {
		fake := (&fakeExecutor{}).on("kubectl get nodes node-4", executor.Outcome{Stdout: notReadyNodeJSON})
		m := testManager(t, fake)
		err := m.VerifyNodeReady(context.Background(), "node-4")
		if err == nil || !strings.Contains(err.Error(), "not Ready") {
			t.Errorf("VerifyNodeReady() = %v, want not-Ready failure", err)
		}
	})

	t.Run("not registered", func(t *testing.T) {
		fake := (&fakeExecutor{}).on("kubectl get nodes node-4",
			executor.Outcome{ExitCode: 1, Stderr: `nodes "node-4" not found`})
		m := testManager(t, fake)
		if err := m.VerifyNodeReady(context.Background(), "node-4"); err == nil {
			t.Error("expected error for unregistered node")
		}
	})
}

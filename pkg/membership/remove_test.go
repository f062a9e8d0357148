package membership

import (
	"context"
	"strings"
	"testing"

	"github.com/mensylisir/kubeboot/pkg/executor"
)

func TestRemoveNode(t *testing.T) {
	t.Run("full removal", func(t *testing.T) {
		fake := (&fakeExecutor{}).on("kubectl get nodes node-4", executor.Outcome{Stdout: readyNodeJSON})
		m := testManager(t, fake)

		if err := m.RemoveNode(context.Background(), "node-4", false, true); err != nil {
			t.Fatalf("RemoveNode() error = %v", err)
		}
		for _, want := range []string{
			"master-1: kubectl drain node-4",
			"master-1: kubectl delete node node-4",
			"node-4: kubeadm reset --force",
		} {
			if _, ok := fake.find(want); !ok {
				t.Errorf("missing call %q in %v", want, fake.calls)
			}
		}
	})

	t.Run("unknown node", func(t *testing.T) {
		m := testManager(t, &fakeExecutor{})
		if err := m.RemoveNode(context.Background(), "ghost", false, true); err == nil {
			t.Fatal("expected error for node not in inventory")
		}
	})

	t.Run("drain failure aborts without force", func(t *testing.T) {
		fake := (&fakeExecutor{}).
			on("kubectl get nodes node-4", executor.Outcome{Stdout: readyNodeJSON}).
			on("kubectl drain", executor.Outcome{ExitCode: 1, Stderr: "pdb violation"})
		m := testManager(t, fake)

		err := m.RemoveNode(context.Background(), "node-4", false, true)
		if err == nil || !strings.Contains(err.Error(), "--force") {
			t.Fatalf("RemoveNode() = %v, want drain failure pointing at --force", err)
		}
		// The node must stay in the cluster: no delete, no reset.
		if fake.count("kubectl delete node") != 0 {
			t.Error("node deleted despite aborted drain")
		}
		if fake.count("kubeadm reset") != 0 {
			t.Error("node reset despite aborted drain")
		}
	})

	t.Run("force overrides drain failure", func(t *testing.T) {
		fake := (&fakeExecutor{}).
			on("kubectl get nodes node-4", executor.Outcome{Stdout: readyNodeJSON}).
			on("kubectl drain", executor.Outcome{ExitCode: 1, Stderr: "pdb violation"})
		m := testManager(t, fake)

		if err := m.RemoveNode(context.Background(), "node-4", true, true); err != nil {
			t.Fatalf("RemoveNode() error = %v", err)
		}
		if fake.count("kubectl delete node node-4") != 1 {
			t.Error("delete should proceed under --force")
		}
	})

	t.Run("delete failure is fatal even with force", func(t *testing.T) {
		fake := (&fakeExecutor{}).
			on("kubectl get nodes node-4", executor.Outcome{Stdout: readyNodeJSON}).
			on("kubectl delete node", executor.Outcome{ExitCode: 1, Stderr: "etcd unavailable"})
		m := testManager(t, fake)

		err := m.RemoveNode(context.Background(), "node-4", true, true)
		if err == nil || !strings.Contains(err.Error(), "failed to delete node") {
			t.Fatalf("RemoveNode() = %v, want delete failure", err)
		}
		if fake.count("kubeadm reset") != 0 {
			t.Error("node reset despite failed delete")
		}
	})

	t.Run("reset skipped on request", func(t *testing.T) {
		fake := (&fakeExecutor{}).on("kubectl get nodes node-4", executor.Outcome{Stdout: readyNodeJSON})
		m := testManager(t, fake)

		if err := m.RemoveNode(context.Background(), "node-4", false, false); err != nil {
			t.Fatalf("RemoveNode() error = %v", err)
		}
		if fake.count("kubeadm reset") != 0 {
			t.Error("reset ran despite being disabled")
		}
	})

	t.Run("reset failure is only a warning", func(t *testing.T) {
		fake := (&fakeExecutor{}).
			on("kubectl get nodes node-4", executor.Outcome{Stdout: readyNodeJSON}).
			on("kubeadm reset", executor.Outcome{ExitCode: 1, Stderr: "already reset"})
		m := testManager(t, fake)

		if err := m.RemoveNode(context.Background(), "node-4", false, true); err != nil {
			t.Errorf("RemoveNode() = %v, reset failure must not fail the removal", err)
		}
	})
}

func TestDrainNodeFlags(t *testing.T) {
	cases := []struct {
		name     string
		nodeJSON string
		force    bool
		want     []string
		absent   []string
	}{
		{
			name:     "schedulable node",
			nodeJSON: readyNodeJSON,
			want:     []string{"--ignore-daemonsets", "--delete-emptydir-data"},
			absent:   []string{"--force", "--grace-period=0"},
		},
		{
			name:     "cordoned node",
			nodeJSON: cordonedNodeJSON,
			want:     []string{"--delete-emptydir-data"},
			absent:   []string{"--ignore-daemonsets"},
		},
		{
			name:     "forced drain",
			nodeJSON: readyNodeJSON,
			force:    true,
			want:     []string{"--ignore-daemonsets", "--force --grace-period=0", "--delete-emptydir-data"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := (&fakeExecutor{}).on("kubectl get nodes node-4", executor.Outcome{Stdout: tc.nodeJSON})
			m := testManager(t, fake)

			if err := m.DrainNode(context.Background(), "node-4", tc.force); err != nil {
				t.Fatalf("DrainNode() error = %v", err)
			}
			drainCmd, ok := fake.find("kubectl drain node-4")
			if !ok {
				t.Fatalf("drain never ran: %v", fake.calls)
			}
			for _, flag := range tc.want {
				if !strings.Contains(drainCmd, flag) {
					t.Errorf("drain command %q missing %q", drainCmd, flag)
				}
			}
			for _, flag := range tc.absent {
				if strings.Contains(drainCmd, flag) {
					t.Errorf("drain command %q should not carry %q", drainCmd, flag)
				}
			}
		})
	}
}

func TestResetNodeCleanupIsBestEffort(t *testing.T) {
	fake := (&fakeExecutor{}).on("iptables", executor.Outcome{ExitCode: 1, Stderr: "not permitted"})
	m := testManager(t, fake)
	node, _ := m.FindNode("node-4")

	if err := m.ResetNode(context.Background(), node); err != nil {
		t.Errorf("ResetNode() = %v, cleanup failures must not be fatal", err)
	}
	// All cleanup phases still ran on the target.
	for _, want := range []string{"iptables -F", "ip link delete cni0", "rm -rf /var/lib/cni"} {
		if _, ok := fake.find(want); !ok {
			t.Errorf("missing cleanup %q in %v", want, fake.calls)
		}
	}
}

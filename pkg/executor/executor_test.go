package executor

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/mensylisir/kubeboot/pkg/connector"
	"github.com/mensylisir/kubeboot/pkg/inventory"
)

// fakeConnector scripts the connector behavior for one operation.
type fakeConnector struct {
	connectErr error
	stdout     string
	stderr     string
	execErr    error
	copyErr    error

	connectedTo connector.ConnectionCfg
	execCmd     string
	pushed      []byte
	pushedPath  string
	pushedMode  fs.FileMode
	closed      bool
}

func (f *fakeConnector) Connect(ctx context.Context, cfg connector.ConnectionCfg) error {
	f.connectedTo = cfg
	return f.connectErr
}

func (f *fakeConnector) Exec(ctx context.Context, cmd string, opts *connector.ExecOptions) ([]byte, []byte, error) {
	f.execCmd = cmd
	return []byte(f.stdout), []byte(f.stderr), f.execErr
}

func (f *fakeConnector) CopyContent(ctx context.Context, content []byte, destPath string, mode fs.FileMode) error {
	f.pushed = content
	f.pushedPath = destPath
	f.pushedMode = mode
	return f.copyErr
}

func (f *fakeConnector) CopyFile(ctx context.Context, localPath, destPath string) error {
	return f.copyErr
}

func (f *fakeConnector) Close() error {
	f.closed = true
	return nil
}

func (f *fakeConnector) IsConnected() bool { return !f.closed }

func executorWith(fake *fakeConnector) *SSHExecutor {
	e := NewSSHExecutor(Credentials{Password: "secret"})
	e.dial = func() connector.Connector { return fake }
	return e
}

func testNode() *inventory.Node {
	return &inventory.Node{Hostname: "node-1", IPAddress: "10.0.0.1", Username: "root", SSHPort: 22}
}

func TestRunSuccess(t *testing.T) {
	fake := &fakeConnector{stdout: "ok\n"}
	e := executorWith(fake)

	outcome := e.Run(context.Background(), testNode(), "uptime", time.Second)

	if !outcome.OK() {
		t.Fatalf("outcome = %+v, want exit 0", outcome)
	}
	if outcome.Stdout != "ok\n" {
		t.Errorf("Stdout = %q", outcome.Stdout)
	}
	if fake.execCmd != "uptime" {
		t.Errorf("executed %q, want uptime", fake.execCmd)
	}
	if fake.connectedTo.Host != "10.0.0.1" || fake.connectedTo.User != "root" {
		t.Errorf("connected to %s as %s", fake.connectedTo.Host, fake.connectedTo.User)
	}
	if !fake.closed {
		t.Error("connector not closed after Run")
	}
}

func TestRunClassifiesFailures(t *testing.T) {
	cases := []struct {
		name       string
		fake       *fakeConnector
		wantExit   int
		wantStderr string
	}{
		{
			name: "non-zero exit",
			fake: &fakeConnector{
				stderr:  "no such file",
				execErr: &connector.CommandError{Cmd: "ls /nope", ExitCode: 2, Stderr: "no such file"},
			},
			wantExit:   2,
			wantStderr: "no such file",
		},
		{
			name:       "timeout",
			fake:       &fakeConnector{execErr: context.DeadlineExceeded},
			wantExit:   LocalFailureExitCode,
			wantStderr: "command timed out",
		},
		{
			name:       "transport failure",
			fake:       &fakeConnector{execErr: errors.New("session torn down")},
			wantExit:   LocalFailureExitCode,
			wantStderr: "session torn down",
		},
		{
			name:       "unreachable host",
			fake:       &fakeConnector{connectErr: &connector.ConnectionError{Host: "10.0.0.1", Err: errors.New("refused")}},
			wantExit:   LocalFailureExitCode,
			wantStderr: "failed to connect to host 10.0.0.1: refused",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := executorWith(tc.fake)
			outcome := e.Run(context.Background(), testNode(), "cmd", time.Second)
			if outcome.ExitCode != tc.wantExit {
				t.Errorf("ExitCode = %d, want %d", outcome.ExitCode, tc.wantExit)
			}
			if outcome.Stderr != tc.wantStderr {
				t.Errorf("Stderr = %q, want %q", outcome.Stderr, tc.wantStderr)
			}
		})
	}
}

func TestPush(t *testing.T) {
	fake := &fakeConnector{}
	e := executorWith(fake)

	if !e.Push(context.Background(), testNode(), []byte("#!/bin/bash\n"), "/tmp/prepare_node.sh", 0o644) {
		t.Fatal("Push() = false")
	}
	if string(fake.pushed) != "#!/bin/bash\n" || fake.pushedPath != "/tmp/prepare_node.sh" {
		t.Errorf("pushed %q to %q", fake.pushed, fake.pushedPath)
	}
	if fake.pushedMode != 0o644 {
		t.Errorf("mode = %o, want 644", fake.pushedMode)
	}

	fake.copyErr = errors.New("sftp unavailable")
	if e.Push(context.Background(), testNode(), []byte("x"), "/tmp/x", 0o644) {
		t.Error("Push() = true on copy failure")
	}
}

func TestCopy(t *testing.T) {
	fake := &fakeConnector{}
	e := executorWith(fake)

	if !e.Copy(context.Background(), testNode(), "/local/file", "/remote/file") {
		t.Fatal("Copy() = false")
	}

	failing := &fakeConnector{connectErr: errors.New("refused")}
	if executorWith(failing).Copy(context.Background(), testNode(), "/local/file", "/remote/file") {
		t.Error("Copy() = true on connect failure")
	}
}

func TestOutcomeOK(t *testing.T) {
	if !(Outcome{ExitCode: 0}).OK() {
		t.Error("exit 0 should be OK")
	}
	if (Outcome{ExitCode: 1}).OK() || (Outcome{ExitCode: LocalFailureExitCode}).OK() {
		t.Error("non-zero exits must not be OK")
	}
}

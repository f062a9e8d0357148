// Package executor exposes the remote-execution contract the orchestrators
// depend on: run a command on one node with a timeout, or copy a file to
// it. Every failure mode, including timeouts and unreachable hosts, is
// folded into an Outcome; callers never receive a raised fault.
package executor

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"github.com/mensylisir/kubeboot/pkg/common"
	"github.com/mensylisir/kubeboot/pkg/connector"
	"github.com/mensylisir/kubeboot/pkg/inventory"
	"github.com/mensylisir/kubeboot/pkg/logger"
)

// LocalFailureExitCode is the reserved exit code for anything that kept the
// command from producing a real exit status: timeout, unreachable host,
// authentication failure.
const LocalFailureExitCode = -1

// Outcome is the normalized result of one remote operation. All three
// fields are always populated, even on timeout.
type Outcome struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// OK reports whether the command exited zero.
func (o Outcome) OK() bool {
	return o.ExitCode == 0
}

// Executor runs commands on and copies files to managed nodes.
type Executor interface {
	// Run executes command on node as the node's configured user. On
	// timeout or any local failure the outcome carries exit code -1 and
	// the failure detail in Stderr.
	Run(ctx context.Context, node *inventory.Node, command string, timeout time.Duration) Outcome
	// Copy transfers one local file to a remote path. It returns false on
	// any failure; no partial-success signaling.
	Copy(ctx context.Context, node *inventory.Node, localPath, remotePath string) bool
	// Push writes content directly to a remote path with the given mode.
	Push(ctx context.Context, node *inventory.Node, content []byte, remotePath string, mode uint32) bool
}

// Credentials supply the SSH authentication material shared by all nodes of
// a run. Username and port come from each node's inventory record.
type Credentials struct {
	Password       string
	PrivateKey     []byte
	PrivateKeyPath string
}

// SSHExecutor implements Executor over per-operation SSH connections.
type SSHExecutor struct {
	creds Credentials
	// dial is swapped out by tests.
	dial func() connector.Connector
}

// NewSSHExecutor builds an executor using the given credentials.
func NewSSHExecutor(creds Credentials) *SSHExecutor {
	return &SSHExecutor{
		creds: creds,
		dial:  func() connector.Connector { return connector.NewSSHConnector() },
	}
}

func (e *SSHExecutor) connect(ctx context.Context, node *inventory.Node) (connector.Connector, error) {
	conn := e.dial()
	cfg := connector.ConnectionCfg{
		Host:           node.Address(),
		Port:           node.SSHPort,
		User:           node.Username,
		Password:       e.creds.Password,
		PrivateKey:     e.creds.PrivateKey,
		PrivateKeyPath: e.creds.PrivateKeyPath,
		Timeout:        common.SSHConnectTimeout,
	}
	if err := conn.Connect(ctx, cfg); err != nil {
		return nil, err
	}
	return conn, nil
}

func (e *SSHExecutor) Run(ctx context.Context, node *inventory.Node, command string, timeout time.Duration) Outcome {
	if timeout <= 0 {
		timeout = common.DefaultCommandTimeout
	}

	conn, err := e.connect(ctx, node)
	if err != nil {
		return Outcome{ExitCode: LocalFailureExitCode, Stderr: err.Error()}
	}
	defer conn.Close()

	stdout, stderr, err := conn.Exec(ctx, command, &connector.ExecOptions{Timeout: timeout})
	return classify(command, stdout, stderr, err)
}

// classify folds the connector's error taxonomy into an Outcome.
func classify(command string, stdout, stderr []byte, err error) Outcome {
	outcome := Outcome{Stdout: string(stdout), Stderr: string(stderr)}
	if err == nil {
		return outcome
	}

	var cmdErr *connector.CommandError
	if errors.As(err, &cmdErr) {
		outcome.ExitCode = cmdErr.ExitCode
		return outcome
	}

	outcome.ExitCode = LocalFailureExitCode
	if errors.Is(err, context.DeadlineExceeded) {
		outcome.Stderr = "command timed out"
		return outcome
	}
	outcome.Stderr = err.Error()
	return outcome
}

func (e *SSHExecutor) Copy(ctx context.Context, node *inventory.Node, localPath, remotePath string) bool {
	log := logger.Get()
	conn, err := e.connect(ctx, node)
	if err != nil {
		log.Errorf("failed to connect to %s for file copy: %v", node.Hostname, err)
		return false
	}
	defer conn.Close()

	if err := conn.CopyFile(ctx, localPath, remotePath); err != nil {
		log.Errorf("failed to copy %s to %s:%s: %v", localPath, node.Hostname, remotePath, err)
		return false
	}
	return true
}

func (e *SSHExecutor) Push(ctx context.Context, node *inventory.Node, content []byte, remotePath string, mode uint32) bool {
	log := logger.Get()
	conn, err := e.connect(ctx, node)
	if err != nil {
		log.Errorf("failed to connect to %s for content push: %v", node.Hostname, err)
		return false
	}
	defer conn.Close()

	if err := conn.CopyContent(ctx, content, remotePath, fs.FileMode(mode)); err != nil {
		log.Errorf("failed to push content to %s:%s: %v", node.Hostname, remotePath, err)
		return false
	}
	return true
}

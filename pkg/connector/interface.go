package connector

import (
	"context"
	"io/fs"
	"time"
)

// ConnectionCfg holds all parameters needed to establish a connection.
type ConnectionCfg struct {
	Host           string
	Port           int
	User           string
	Password       string
	PrivateKey     []byte
	PrivateKeyPath string
	Timeout        time.Duration
}

// ExecOptions controls a single remote command execution.
type ExecOptions struct {
	// Timeout bounds the whole command; zero means no per-command bound
	// beyond the caller's context.
	Timeout time.Duration
	// Env entries of the form KEY=VALUE set on the remote session.
	Env []string
}

// Connector is the low-level channel to one host: run a command, push a
// file, close. Implementations must be safe for sequential reuse but are
// not required to be goroutine-safe; the executor opens one connector per
// operation.
type Connector interface {
	Connect(ctx context.Context, cfg ConnectionCfg) error
	// Exec runs cmd and returns captured stdout/stderr. A non-zero exit
	// is reported as *CommandError; transport problems as *ConnectionError
	// or the context error.
	Exec(ctx context.Context, cmd string, opts *ExecOptions) (stdout, stderr []byte, err error)
	// CopyContent writes content to destPath on the host with the given mode.
	CopyContent(ctx context.Context, content []byte, destPath string, mode fs.FileMode) error
	// CopyFile transfers a local file to destPath on the host.
	CopyFile(ctx context.Context, localPath, destPath string) error
	Close() error
	IsConnected() bool
}

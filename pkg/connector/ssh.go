package connector

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// SSHConnector connects to a host over SSH and SFTP. Host keys are not
// verified: bootstrap targets are ephemeral hosts provisioned moments
// before first contact, so trust-on-first-use is the accepted tradeoff.
type SSHConnector struct {
	client      *ssh.Client
	sftpClient  *sftp.Client
	connCfg     ConnectionCfg
	isConnected bool
}

// NewSSHConnector returns an unconnected SSH connector.
func NewSSHConnector() *SSHConnector {
	return &SSHConnector{}
}

func (s *SSHConnector) Connect(ctx context.Context, cfg ConnectionCfg) error {
	s.connCfg = cfg

	authMethods, err := buildAuthMethods(cfg)
	if err != nil {
		return &ConnectionError{Host: cfg.Host, Err: err}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	sshCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	dialer := net.Dialer{Timeout: timeout}
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return &ConnectionError{Host: cfg.Host, Err: err}
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, sshCfg)
	if err != nil {
		_ = netConn.Close()
		return &ConnectionError{Host: cfg.Host, Err: err}
	}

	s.client = ssh.NewClient(sshConn, chans, reqs)
	s.isConnected = true
	return nil
}

func buildAuthMethods(cfg ConnectionCfg) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	keyBytes := cfg.PrivateKey
	if len(keyBytes) == 0 && cfg.PrivateKeyPath != "" {
		data, err := os.ReadFile(cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key '%s': %w", cfg.PrivateKeyPath, err)
		}
		keyBytes = data
	}
	if len(keyBytes) > 0 {
		signer, err := ssh.ParsePrivateKey(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if cfg.Password != "" {
		methods = append(methods, ssh.Password(cfg.Password))
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("no authentication method configured for host %s", cfg.Host)
	}
	return methods, nil
}

func (s *SSHConnector) IsConnected() bool {
	if s.client == nil || !s.isConnected {
		return false
	}
	_, _, err := s.client.SendRequest("keepalive@openssh.com", true, nil)
	if err != nil {
		s.isConnected = false
		return false
	}
	return true
}

func (s *SSHConnector) Close() error {
	s.isConnected = false
	var firstErr error
	if s.sftpClient != nil {
		if err := s.sftpClient.Close(); err != nil {
			firstErr = fmt.Errorf("failed to close SFTP client for %s: %w", s.connCfg.Host, err)
		}
		s.sftpClient = nil
	}
	if s.client != nil {
		if err := s.client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.client = nil
	}
	return firstErr
}

func (s *SSHConnector) Exec(ctx context.Context, cmd string, opts *ExecOptions) (stdout, stderr []byte, err error) {
	if s.client == nil || !s.isConnected {
		return nil, nil, &ConnectionError{Host: s.connCfg.Host, Err: fmt.Errorf("not connected")}
	}

	effective := ExecOptions{}
	if opts != nil {
		effective = *opts
	}

	runCtx := ctx
	if effective.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, effective.Timeout)
		defer cancel()
	}

	session, err := s.client.NewSession()
	if err != nil {
		return nil, nil, &ConnectionError{Host: s.connCfg.Host, Err: fmt.Errorf("failed to create session: %w", err)}
	}
	defer session.Close()

	for _, envVar := range effective.Env {
		if key, value, ok := splitEnv(envVar); ok {
			_ = session.Setenv(key, value)
		}
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	session.Stdout = &stdoutBuf
	session.Stderr = &stderrBuf

	if err := session.Start(cmd); err != nil {
		return stdoutBuf.Bytes(), stderrBuf.Bytes(), fmt.Errorf("failed to start command '%s': %w", cmd, err)
	}

	doneCh := make(chan error, 1)
	go func() {
		doneCh <- session.Wait()
	}()

	select {
	case <-runCtx.Done():
		_ = session.Signal(ssh.SIGKILL)
		select {
		case <-doneCh:
		case <-time.After(1 * time.Second):
		}
		return stdoutBuf.Bytes(), stderrBuf.Bytes(), runCtx.Err()
	case waitErr := <-doneCh:
		if waitErr == nil {
			return stdoutBuf.Bytes(), stderrBuf.Bytes(), nil
		}
		if exitErr, ok := waitErr.(*ssh.ExitError); ok {
			return stdoutBuf.Bytes(), stderrBuf.Bytes(), &CommandError{
				Cmd:      cmd,
				ExitCode: exitErr.ExitStatus(),
				Stdout:   stdoutBuf.String(),
				Stderr:   stderrBuf.String(),
			}
		}
		return stdoutBuf.Bytes(), stderrBuf.Bytes(), fmt.Errorf("command '%s' wait failed: %w", cmd, waitErr)
	}
}

func (s *SSHConnector) CopyContent(ctx context.Context, content []byte, destPath string, mode fs.FileMode) error {
	client, err := s.ensureSftp()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	remote, err := client.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create remote file '%s': %w", destPath, err)
	}
	defer remote.Close()
	if _, err := remote.Write(content); err != nil {
		return fmt.Errorf("failed to write remote file '%s': %w", destPath, err)
	}
	if err := client.Chmod(destPath, mode); err != nil {
		return fmt.Errorf("failed to chmod remote file '%s': %w", destPath, err)
	}
	return nil
}

func (s *SSHConnector) CopyFile(ctx context.Context, localPath, destPath string) error {
	client, err := s.ensureSftp()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	local, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open local file '%s': %w", localPath, err)
	}
	defer local.Close()

	remote, err := client.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create remote file '%s': %w", destPath, err)
	}
	defer remote.Close()

	if _, err := io.Copy(remote, local); err != nil {
		return fmt.Errorf("failed to copy '%s' to '%s': %w", localPath, destPath, err)
	}
	return nil
}

func (s *SSHConnector) ensureSftp() (*sftp.Client, error) {
	if s.client == nil || !s.isConnected {
		return nil, &ConnectionError{Host: s.connCfg.Host, Err: fmt.Errorf("not connected")}
	}
	if s.sftpClient != nil {
		return s.sftpClient, nil
	}
	client, err := sftp.NewClient(s.client)
	if err != nil {
		return nil, &ConnectionError{Host: s.connCfg.Host, Err: fmt.Errorf("failed to create sftp client: %w", err)}
	}
	s.sftpClient = client
	return client, nil
}

func splitEnv(envVar string) (key, value string, ok bool) {
	for i := 0; i < len(envVar); i++ {
		if envVar[i] == '=' {
			return envVar[:i], envVar[i+1:], true
		}
	}
	return "", "", false
}

package connector

import "fmt"

// CommandError encapsulates a remote command that ran but exited non-zero.
type CommandError struct {
	Cmd      string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command '%s' failed with exit code %d", e.Cmd, e.ExitCode)
	if e.Stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Stderr)
	}
	return msg
}

// ConnectionError represents a failure to establish or use a connection.
type ConnectionError struct {
	Host string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to host %s: %v", e.Host, e.Err)
}

// Unwrap returns the underlying error for errors.Is and errors.As support.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

package kubeadm

import (
	"errors"
	"strings"
)

// ErrMissingCredential is returned when a step needs a join credential that
// initialization did not produce.
var ErrMissingCredential = errors.New("join credential not found in kubeadm output")

// JoinCommands holds the two opaque join command strings extracted from
// kubeadm init output. They are capability tokens: whoever holds one can
// attach a node to the cluster, so they are never logged in full.
type JoinCommands struct {
	ControlPlane string
	Worker       string
}

// ForControlPlane returns the control-plane join command or
// ErrMissingCredential when extraction found none.
func (j JoinCommands) ForControlPlane() (string, error) {
	if j.ControlPlane == "" {
		return "", ErrMissingCredential
	}
	return j.ControlPlane, nil
}

// ForWorker returns the worker join command or ErrMissingCredential when
// extraction found none.
func (j JoinCommands) ForWorker() (string, error) {
	if j.Worker == "" {
		return "", ErrMissingCredential
	}
	return j.Worker, nil
}

const (
	joinMarker         = "kubeadm join"
	controlPlaneMarker = "--control-plane"
)

// ExtractJoinCommands scans kubeadm init output for the two join command
// shapes. The parsing contract: backslash line continuations are folded
// first, then each line containing "kubeadm join" is classified by the
// presence of "--control-plane". When a pattern never matches the
// corresponding command stays empty and dependent steps fail with
// ErrMissingCredential.
func ExtractJoinCommands(initOutput string) JoinCommands {
	var cmds JoinCommands
	for _, line := range foldContinuations(initOutput) {
		if !strings.Contains(line, joinMarker) {
			continue
		}
		if strings.Contains(line, controlPlaneMarker) {
			cmds.ControlPlane = line
		} else {
			cmds.Worker = line
		}
	}
	return cmds
}

// foldContinuations joins lines ending in a backslash with their successor,
// normalizing the multi-line join commands kubeadm prints into single
// trimmed lines.
func foldContinuations(output string) []string {
	rawLines := strings.Split(output, "\n")
	folded := make([]string, 0, len(rawLines))
	var pending string
	for _, raw := range rawLines {
		line := strings.TrimSpace(raw)
		if strings.HasSuffix(line, "\\") {
			pending += strings.TrimSpace(strings.TrimSuffix(line, "\\")) + " "
			continue
		}
		if pending != "" {
			line = pending + line
			pending = ""
		}
		folded = append(folded, line)
	}
	if pending != "" {
		folded = append(folded, strings.TrimSpace(pending))
	}
	return folded
}

// Package inventory parses heterogeneous host inventory files (YAML, INI,
// CSV) into a canonical ordered node list and resolves the cluster topology
// from it. Field names are normalized through a declarative alias table so
// that all formats produce identical nodes for the same logical host set.
package inventory

import (
	"fmt"
	"strconv"

	"github.com/mensylisir/kubeboot/pkg/common"
)

// Node is one machine under management. Every node has at least one of
// Hostname/IPAddress; when Hostname is empty it is set to IPAddress during
// normalization. Nodes are immutable after topology resolution.
type Node struct {
	Hostname  string `yaml:"hostname" json:"hostname"`
	IPAddress string `yaml:"ip_address" json:"ip_address"`
	Username  string `yaml:"username" json:"username"`
	SSHPort   int    `yaml:"ssh_port" json:"ssh_port"`
	Role      string `yaml:"role" json:"role"`
	Group     string `yaml:"group" json:"group"`
	OS        string `yaml:"os" json:"os"`
	OSVersion string `yaml:"os_version" json:"os_version"`

	// Extra holds raw record keys that did not map to a canonical field.
	// They are preserved for diagnostics but never interpreted.
	Extra map[string]string `yaml:"-" json:"-"`
}

// Address returns the endpoint used for SSH: the IP when known, otherwise
// the hostname.
func (n *Node) Address() string {
	if n.IPAddress != "" {
		return n.IPAddress
	}
	return n.Hostname
}

// Matches reports whether identifier refers to this node by hostname or IP.
func (n *Node) Matches(identifier string) bool {
	return identifier != "" && (n.Hostname == identifier || n.IPAddress == identifier)
}

// IsControlPlane reports whether the node carries the control-plane role.
func (n *Node) IsControlPlane() bool {
	return n.Role == common.RoleControlPlane
}

// canonicalFields maps each canonical field name to the record keys accepted
// for it, in priority order. The table is applied uniformly to every input
// format.
var canonicalFields = []struct {
	name    string
	aliases []string
}{
	{"hostname", []string{"hostname", "host", "name", "fqdn"}},
	{"ip_address", []string{"ip_address", "ip", "address"}},
	{"username", []string{"username", "user", "login"}},
	{"ssh_port", []string{"ssh_port", "port"}},
	{"role", []string{"role", "type", "node_type"}},
	{"group", []string{"group", "cluster"}},
	{"os", []string{"os", "operating_system"}},
	{"os_version", []string{"os_version", "version"}},
}

// NormalizeRecord builds a Node from one raw inventory record. Keys are
// resolved through the alias table, defaults are applied, and the record is
// rejected with InvalidHostError when neither hostname nor IP survives
// normalization.
func NormalizeRecord(record map[string]string) (Node, error) {
	node := Node{
		Username:  common.DefaultSSHUser,
		SSHPort:   common.DefaultSSHPort,
		Role:      common.RoleWorker,
		Group:     common.DefaultNodeGroup,
		OS:        common.DefaultOS,
		OSVersion: common.DefaultOSVersion,
	}

	resolved := make(map[string]bool, len(record))
	for _, field := range canonicalFields {
		// Every present alias of the field is consumed; the value comes
		// from the highest-priority one.
		value, found := "", false
		for _, alias := range field.aliases {
			v, ok := record[alias]
			if !ok {
				continue
			}
			resolved[alias] = true
			if !found {
				value = v
				found = true
			}
		}
		if !found || value == "" {
			continue
		}
		switch field.name {
		case "hostname":
			node.Hostname = value
		case "ip_address":
			node.IPAddress = value
		case "username":
			node.Username = value
		case "ssh_port":
			port, err := strconv.Atoi(value)
			if err != nil {
				return Node{}, fmt.Errorf("invalid ssh port %q: %w", value, err)
			}
			node.SSHPort = port
		case "role":
			node.Role = value
		case "group":
			node.Group = value
		case "os":
			node.OS = value
		case "os_version":
			node.OSVersion = value
		}
	}

	for key, value := range record {
		if !resolved[key] {
			if node.Extra == nil {
				node.Extra = make(map[string]string)
			}
			node.Extra[key] = value
		}
	}

	if node.Hostname == "" && node.IPAddress == "" {
		return Node{}, &InvalidHostError{Record: record}
	}
	if node.Hostname == "" {
		node.Hostname = node.IPAddress
	}
	return node, nil
}

package inventory

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Format identifies an inventory file format.
type Format string

const (
	// FormatAuto selects the format from the file extension.
	FormatAuto Format = ""
	// FormatYAML covers .yaml/.yml inventories.
	FormatYAML Format = "yaml"
	// FormatINI covers .ini/.cfg inventories (one section per host).
	FormatINI Format = "ini"
	// FormatCSV covers .csv inventories (header row plus one host per row).
	FormatCSV Format = "csv"
)

// DetectFormat maps a file extension to a Format. Unrecognized extensions
// yield UnsupportedFormatError.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".ini", ".cfg":
		return FormatINI, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return FormatAuto, &UnsupportedFormatError{Format: filepath.Ext(path)}
	}
}

// Parse reads an inventory file and returns its ordered node list. The
// format is detected from the file extension.
func Parse(path string) ([]Node, error) {
	return ParseWithFormat(path, FormatAuto)
}

// ParseWithFormat is Parse with an explicit format hint overriding
// extension sniffing.
func ParseWithFormat(path string, format Format) ([]Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory file '%s': %w", path, err)
	}
	if format == FormatAuto {
		format, err = DetectFormat(path)
		if err != nil {
			return nil, err
		}
	}
	return ParseBytes(data, format)
}

// ParseBytes parses raw inventory content in the given format.
func ParseBytes(data []byte, format Format) ([]Node, error) {
	switch format {
	case FormatYAML:
		return parseYAML(data)
	case FormatINI:
		return parseINI(data)
	case FormatCSV:
		return parseCSV(data)
	default:
		return nil, &UnsupportedFormatError{Format: string(format)}
	}
}

// parseYAML accepts a mapping with a hosts:/nodes: sequence, a bare
// sequence, or a single host mapping. Sequence items may be host mappings
// or plain hostname strings.
func parseYAML(data []byte) ([]Node, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml inventory: %w", err)
	}

	var entries []interface{}
	switch v := doc.(type) {
	case map[string]interface{}:
		if hosts, ok := v["hosts"]; ok {
			entries, ok = hosts.([]interface{})
			if !ok {
				return nil, fmt.Errorf("yaml inventory: 'hosts' must be a sequence")
			}
		} else if nodes, ok := v["nodes"]; ok {
			entries, ok = nodes.([]interface{})
			if !ok {
				return nil, fmt.Errorf("yaml inventory: 'nodes' must be a sequence")
			}
		} else {
			// A bare mapping is treated as a single host record.
			entries = []interface{}{v}
		}
	case []interface{}:
		entries = v
	default:
		return nil, fmt.Errorf("yaml inventory: unexpected document structure %T", doc)
	}

	nodes := make([]Node, 0, len(entries))
	for i, entry := range entries {
		record, err := recordFromYAMLEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("yaml inventory entry %d: %w", i, err)
		}
		node, err := NormalizeRecord(record)
		if err != nil {
			return nil, fmt.Errorf("yaml inventory entry %d: %w", i, err)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func recordFromYAMLEntry(entry interface{}) (map[string]string, error) {
	switch v := entry.(type) {
	case map[string]interface{}:
		record := make(map[string]string, len(v))
		for key, value := range v {
			record[strings.ToLower(key)] = stringify(value)
		}
		return record, nil
	case string:
		// A plain scalar is a hostname or IP.
		return map[string]string{"hostname": v}, nil
	default:
		return nil, fmt.Errorf("unexpected entry type %T", entry)
	}
}

// parseINI treats each section as one host, with the section name as the
// hostname. Section order is preserved.
func parseINI(data []byte) ([]Node, error) {
	file, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ini inventory: %w", err)
	}

	var nodes []Node
	for _, section := range file.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		record := map[string]string{"hostname": section.Name()}
		for key, value := range section.KeysHash() {
			record[strings.ToLower(key)] = value
		}
		node, err := NormalizeRecord(record)
		if err != nil {
			return nil, fmt.Errorf("ini inventory section '%s': %w", section.Name(), err)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// parseCSV expects a header row naming the fields; each following row is
// one host. Row order is the inventory order.
func parseCSV(data []byte) ([]Node, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv inventory: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(name))
	}

	nodes := make([]Node, 0, len(rows)-1)
	for rowIdx, row := range rows[1:] {
		record := make(map[string]string, len(header))
		for i, value := range row {
			if i < len(header) {
				record[header[i]] = strings.TrimSpace(value)
			}
		}
		node, err := NormalizeRecord(record)
		if err != nil {
			return nil, fmt.Errorf("csv inventory row %d: %w", rowIdx+2, err)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

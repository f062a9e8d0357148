// Package templates embeds the file payloads kubeboot ships to managed
// hosts. Templates are rendered with util.RenderTemplate before transfer.
package templates

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed os/*.tmpl
var embeddedTemplates embed.FS

// Get retrieves the content of an embedded template file, addressed by its
// relative path, e.g. "os/prepare_node.sh.tmpl".
func Get(templateName string) (string, error) {
	content, err := fs.ReadFile(embeddedTemplates, templateName)
	if err != nil {
		return "", fmt.Errorf("failed to read embedded template '%s': %w", templateName, err)
	}
	return string(content), nil
}

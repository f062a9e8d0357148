package util

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// RenderTemplate renders tmplStr with sprig's function map. Missing keys
// are errors so a template never silently emits an empty value.
func RenderTemplate(tmplStr string, data interface{}) (string, error) {
	tmpl, err := template.New("kubeboot").
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

package manifest

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
)

//go:embed starter.yaml
var starterYAML string

// Starter renders the scaffold manifest written by `pad init`: the
// PythonKids Streamlit app with its native package set, autoscale
// deployment, Project workflow, and the 5000 -> 80 port mapping. author
// fills the workflow author field; empty defaults to "agent".
func Starter(author string) ([]byte, error) {
	if author == "" {
		author = "agent"
	}
	t, err := template.New("starter").Parse(starterYAML)
	if err != nil {
		return nil, fmt.Errorf("parse starter template: %w", err)
	}
	var out bytes.Buffer
	if err := t.Execute(&out, map[string]string{"Author": author}); err != nil {
		return nil, fmt.Errorf("render starter template: %w", err)
	}
	return out.Bytes(), nil
}

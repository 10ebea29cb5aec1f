package prompts

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

const defaultPromptsPath = "prompts.yaml"

//go:embed defaults.yaml
var defaultPrompts []byte

type Prompts struct {
	System SystemPrompts `yaml:"system"`
	Script ScriptPrompts `yaml:"script"`
}

type SystemPrompts struct {
	Reporter string `yaml:"reporter"`
}

type ScriptPrompts struct {
	Report string `yaml:"report"`
}

type ReportParams struct {
	BusinessData string
}

// Load returns the built-in prompts overlaid with prompts.yaml when present.
func Load() (*Prompts, error) {
	return LoadFrom(defaultPromptsPath)
}

func LoadFrom(path string) (*Prompts, error) {
	p, err := Default()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}

	return p, nil
}

func Default() (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(defaultPrompts, &p); err != nil {
		return nil, fmt.Errorf("failed to parse default prompts: %w", err)
	}
	return &p, nil
}

func (p *Prompts) RenderReport(params ReportParams) (string, error) {
	return render(p.Script.Report, params)
}

func render(tmpl string, data any) (string, error) {
	t, err := template.New("prompt").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

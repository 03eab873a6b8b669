package main

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/zakeri-dev/simrun/resolve"
)

// workflowContext is the on-disk shape of a --context file. Every section
// is optional.
type workflowContext struct {
	// Params are the step's input parameters, bound as the params global
	// (or as top-level constants under --custom-tool).
	Params map[string]any `yaml:"params"`

	// EnvVars are the workflow's environment variables.
	EnvVars map[string]string `yaml:"envVars"`

	// BlockData maps block identifiers to upstream block outputs.
	BlockData map[string]any `yaml:"blockData"`

	// BlockNameMapping maps block display names to block identifiers.
	BlockNameMapping map[string]string `yaml:"blockNameMapping"`

	// Variables declares workflow variables, keyed by identifier.
	Variables map[string]contextVariable `yaml:"variables"`
}

// contextVariable declares one workflow variable.
type contextVariable struct {
	// Name is the display name referenced as <variable.Name>. Defaults to
	// the map key.
	Name string `yaml:"name"`

	// Type is the declared type: plain, string, number, boolean, or json.
	Type string `yaml:"type"`

	// Value is the stored value.
	Value any `yaml:"value"`
}

// loadContext reads a workflow context file. An empty path yields an empty
// context.
func loadContext(path string) (workflowContext, error) {
	var wc workflowContext
	if path == "" {
		return wc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return wc, err
	}
	if err := yaml.Unmarshal(data, &wc); err != nil {
		return wc, fmt.Errorf("parse context file %s: %w", path, err)
	}
	return wc, nil
}

// workflowVariables converts the declared variables to resolver form.
func (wc workflowContext) workflowVariables() map[string]resolve.Variable {
	if len(wc.Variables) == 0 {
		return nil
	}
	out := make(map[string]resolve.Variable, len(wc.Variables))
	for id, v := range wc.Variables {
		name := v.Name
		if name == "" {
			name = id
		}
		out[id] = resolve.Variable{Name: name, Type: v.Type, Value: v.Value}
	}
	return out
}

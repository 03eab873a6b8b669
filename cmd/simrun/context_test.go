package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadContext(t *testing.T) {
	content := `params:
  city: Berlin
  limit: 3
envVars:
  API_KEY: k-123
blockData:
  block-1:
    status: done
blockNameMapping:
  Fetch Data: block-1
variables:
  var-1:
    name: count
    type: number
    value: "21"
  var-2:
    type: string
    value: hello
`
	path := writeContextFile(t, content)

	wc, err := loadContext(path)
	if err != nil {
		t.Fatalf("loadContext() error = %v", err)
	}

	if wc.Params["city"] != "Berlin" || wc.Params["limit"] != 3 {
		t.Errorf("Params = %v", wc.Params)
	}
	if wc.EnvVars["API_KEY"] != "k-123" {
		t.Errorf("EnvVars = %v", wc.EnvVars)
	}
	if wc.BlockNameMapping["Fetch Data"] != "block-1" {
		t.Errorf("BlockNameMapping = %v", wc.BlockNameMapping)
	}
	block, ok := wc.BlockData["block-1"].(map[string]any)
	if !ok || block["status"] != "done" {
		t.Errorf("BlockData = %v", wc.BlockData)
	}

	vars := wc.workflowVariables()
	if v := vars["var-1"]; v.Name != "count" || v.Type != "number" || v.Value != "21" {
		t.Errorf("vars[var-1] = %+v", v)
	}
	if v := vars["var-2"]; v.Name != "var-2" {
		t.Errorf("vars[var-2].Name = %q, want the map key", v.Name)
	}
}

func TestLoadContextEmptyPath(t *testing.T) {
	wc, err := loadContext("")
	if err != nil {
		t.Fatalf("loadContext() error = %v", err)
	}
	if wc.Params != nil || wc.Variables != nil {
		t.Errorf("loadContext(\"\") = %+v, want empty context", wc)
	}
}

func TestLoadContextMissingFile(t *testing.T) {
	_, err := loadContext(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Error("loadContext() error = nil, want not-exist error")
	}
}

func TestLoadContextMalformed(t *testing.T) {
	path := writeContextFile(t, "params: [broken")

	_, err := loadContext(path)
	if err == nil {
		t.Error("loadContext() error = nil, want parse error")
	}
}

func TestWorkflowVariablesEmpty(t *testing.T) {
	if got := (workflowContext{}).workflowVariables(); got != nil {
		t.Errorf("workflowVariables() = %v, want nil", got)
	}
}

func writeContextFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workflow.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write context file: %v", err)
	}
	return path
}

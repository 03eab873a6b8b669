package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/zakeri-dev/simrun/exec"
	"github.com/zakeri-dev/simrun/sandbox"
)

func TestSnippetLanguage(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		path    string
		want    sandbox.Language
		wantErr bool
	}{
		{name: "explicit javascript wins over extension", flag: "javascript", path: "x.py", want: sandbox.LanguageJavaScript},
		{name: "short form", flag: "py", path: "x.js", want: sandbox.LanguagePython},
		{name: "python extension", flag: "", path: "snippet.py", want: sandbox.LanguagePython},
		{name: "javascript extension", flag: "", path: "snippet.js", want: sandbox.LanguageJavaScript},
		{name: "stdin defaults to javascript", flag: "", path: "-", want: sandbox.LanguageJavaScript},
		{name: "unknown language", flag: "ruby", path: "x.rb", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := snippetLanguage(tt.flag, tt.path)
			if tt.wantErr {
				if err == nil {
					t.Error("snippetLanguage() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("snippetLanguage() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("snippetLanguage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintResult(t *testing.T) {
	color.NoColor = true

	tests := []struct {
		name           string
		res            exec.Result
		expectedOutput []string
		notExpected    []string
	}{
		{
			name:           "success with result",
			res:            exec.Result{Success: true, Result: map[string]any{"n": 1}, ExecutionTimeMs: 12},
			expectedOutput: []string{"result: {\"n\":1}", "elapsed: 12ms"},
			notExpected:    []string{"error:"},
		},
		{
			name:           "success without result",
			res:            exec.Result{Success: true},
			expectedOutput: []string{"result: null"},
		},
		{
			name:           "stdout precedes the result line",
			res:            exec.Result{Success: true, Stdout: "working\n", Result: "ok"},
			expectedOutput: []string{"working\nresult: \"ok\""},
		},
		{
			name:           "stdout without trailing newline",
			res:            exec.Result{Success: true, Stdout: "partial", Result: "ok"},
			expectedOutput: []string{"partial\nresult:"},
		},
		{
			name:           "failure",
			res:            exec.Result{Error: "Line 1: `return x;` - Reference Error: x is not defined", ExecutionTimeMs: 3},
			expectedOutput: []string{"error: Line 1:", "elapsed: 3ms"},
			notExpected:    []string{"result:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := printResult(&buf, tt.res, false); err != nil {
				t.Fatalf("printResult() error = %v", err)
			}
			out := buf.String()
			for _, want := range tt.expectedOutput {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
			for _, not := range tt.notExpected {
				if strings.Contains(out, not) {
					t.Errorf("output should not contain %q:\n%s", not, out)
				}
			}
		})
	}
}

func TestPrintResultJSON(t *testing.T) {
	var buf bytes.Buffer
	res := exec.Result{Success: true, Result: 2, Stdout: "hi\n", ExecutionTimeMs: 8}
	if err := printResult(&buf, res, true); err != nil {
		t.Fatalf("printResult() error = %v", err)
	}

	var decoded exec.Result
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if !decoded.Success || decoded.Stdout != "hi\n" || decoded.ExecutionTimeMs != 8 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestFormatResult(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "nil", in: nil, want: "null"},
		{name: "string", in: "x", want: "\"x\""},
		{name: "number", in: 2, want: "2"},
		{name: "object", in: map[string]any{"a": 1}, want: "{\"a\":1}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatResult(tt.in); got != tt.want {
				t.Errorf("formatResult(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

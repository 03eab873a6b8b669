package translate

import (
	"strings"
	"testing"

	"github.com/zakeri-dev/simrun/sandbox"
)

func localFailure(class sandbox.FailureClass, message, trace string) *sandbox.Failure {
	return &sandbox.Failure{
		Class:        class,
		Message:      message,
		StackOrTrace: trace,
		Backend:      sandbox.KindLocal,
		Language:     sandbox.LanguageJavaScript,
	}
}

func TestTranslateLocalRuntimeFrame(t *testing.T) {
	// Wrapper header is 2 lines, so user line 1 sits on wrapped line 3.
	f := localFailure(sandbox.FailureRuntime,
		"ReferenceError: undefinedVar is not defined",
		"ReferenceError: undefinedVar is not defined\n\tat user-function.js:3:5(1)")

	got := Translate(f, 2, "undefinedVar")

	if got.Kind != "ReferenceError" {
		t.Errorf("Kind = %q, want ReferenceError", got.Kind)
	}
	if got.Line != 1 {
		t.Errorf("Line = %d, want 1", got.Line)
	}
	if got.Column != 5 {
		t.Errorf("Column = %d, want 5", got.Column)
	}
	if got.LineContent != "undefinedVar" {
		t.Errorf("LineContent = %q, want the snippet line", got.LineContent)
	}
	if !strings.Contains(got.Message, "Line 1") || !strings.Contains(got.Message, "undefinedVar") {
		t.Errorf("Message = %q, want line anchor and symbol name", got.Message)
	}
}

func TestTranslateLocalMapsDeepFrame(t *testing.T) {
	userCode := "const a = 1;\nconst b = a.missing.deep;\nreturn b;"
	f := localFailure(sandbox.FailureRuntime,
		"TypeError: Cannot read property 'deep' of undefined",
		"TypeError: Cannot read property 'deep' of undefined\n\tat user-function.js:4:11(8)")

	got := Translate(f, 2, userCode)

	if got.Line != 2 {
		t.Errorf("Line = %d, want 2", got.Line)
	}
	if got.LineContent != "const b = a.missing.deep;" {
		t.Errorf("LineContent = %q", got.LineContent)
	}
	if !strings.Contains(got.Message, "Type Error") {
		t.Errorf("Message = %q, want Type Error label", got.Message)
	}
}

func TestTranslateLocalIncompleteSnippetLastLine(t *testing.T) {
	// An unclosed brace surfaces at the wrapper footer; the error belongs on
	// the snippet's final line.
	userCode := "const obj = {"
	f := localFailure(sandbox.FailureCompile,
		"SyntaxError: user-function.js: Line 5:1 Unexpected end of input",
		"")

	got := Translate(f, 2, userCode)

	if got.Line != 1 {
		t.Errorf("Line = %d, want last user line 1", got.Line)
	}
	if got.LineContent != "const obj = {" {
		t.Errorf("LineContent = %q", got.LineContent)
	}
	if !strings.Contains(got.Message, "never closed") {
		t.Errorf("Message = %q, want the unclosed-input hint", got.Message)
	}
}

func TestTranslateLocalIncompleteMultilineSnippet(t *testing.T) {
	userCode := "const a = 1;\nconst b = 2;\nif (a < b) {"
	f := localFailure(sandbox.FailureCompile,
		"SyntaxError: user-function.js: Line 7:1 Unexpected token )",
		"")

	got := Translate(f, 2, userCode)

	if got.Line != 3 {
		t.Errorf("Line = %d, want last user line 3", got.Line)
	}
}

func TestTranslateLocalHeaderFailureKeepsRawPosition(t *testing.T) {
	// A malformed custom-tool param line fails inside the generated header,
	// before user code starts. The raw position is reported with no snippet
	// content.
	f := localFailure(sandbox.FailureCompile,
		"SyntaxError: user-function.js: Line 3:11 Unexpected token -",
		"")

	// Header is 2 + 2 param lines, so user code starts on wrapped line 5.
	got := Translate(f, 4, "return 1;")

	if got.Line != 3 {
		t.Errorf("Line = %d, want raw line 3", got.Line)
	}
	if got.Column != 11 {
		t.Errorf("Column = %d, want raw column 11", got.Column)
	}
	if got.LineContent != "" {
		t.Errorf("LineContent = %q, want empty for a header failure", got.LineContent)
	}
	if strings.Contains(got.Message, "user-function.js") {
		t.Errorf("Message = %q leaks the script name", got.Message)
	}
}

func TestTranslateLocalClampsPastEnd(t *testing.T) {
	// A runtime frame pointing into the wrapper footer clamps to the last
	// snippet line instead of falling off the end.
	f := localFailure(sandbox.FailureRuntime,
		"Error: boom",
		"Error: boom\n\tat user-function.js:9:3(4)")

	got := Translate(f, 2, "return boom();")

	if got.Line != 1 {
		t.Errorf("Line = %d, want clamped to 1", got.Line)
	}
}

func TestTranslateLocalNoPosition(t *testing.T) {
	f := localFailure(sandbox.FailureRuntime, "Error: something failed", "no frames here")

	got := Translate(f, 2, "return 1;")

	if got.Line != 0 {
		t.Errorf("Line = %d, want 0 when no frame matches", got.Line)
	}
	if got.Message != "something failed" {
		t.Errorf("Message = %q, want bare message", got.Message)
	}
}

func TestSplitKind(t *testing.T) {
	tests := []struct {
		in       string
		wantKind string
		wantRest string
	}{
		{in: "ReferenceError: x is not defined", wantKind: "ReferenceError", wantRest: "x is not defined"},
		{in: "SyntaxError: bad", wantKind: "SyntaxError", wantRest: "bad"},
		{in: "Exception: kaboom", wantKind: "Exception", wantRest: "kaboom"},
		{in: "plain message", wantKind: "Error", wantRest: "plain message"},
		{in: "NameError: name 'x' is not defined", wantKind: "NameError", wantRest: "name 'x' is not defined"},
	}

	for _, tt := range tests {
		kind, rest := splitKind(tt.in)
		if kind != tt.wantKind || rest != tt.wantRest {
			t.Errorf("splitKind(%q) = (%q, %q), want (%q, %q)", tt.in, kind, rest, tt.wantKind, tt.wantRest)
		}
	}
}

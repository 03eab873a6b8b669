package translate

import (
	"strings"
	"testing"

	"github.com/zakeri-dev/simrun/sandbox"
)

func TestTranslateNil(t *testing.T) {
	if got := Translate(nil, 0, ""); got != nil {
		t.Errorf("Translate(nil) = %v, want nil", got)
	}
}

func TestTranslateTimeout(t *testing.T) {
	f := &sandbox.Failure{
		Class:   sandbox.FailureTimeout,
		Message: "execution timed out after 50ms",
		Backend: sandbox.KindLocal,
	}

	got := Translate(f, 2, "while(true){}")

	if got.Kind != "TimeoutError" {
		t.Errorf("Kind = %q, want TimeoutError", got.Kind)
	}
	if got.Line != 0 {
		t.Errorf("Line = %d, want no line mapping", got.Line)
	}
	if got.Message != f.Message {
		t.Errorf("Message = %q, want surfaced as-is", got.Message)
	}
}

func TestTranslateTransport(t *testing.T) {
	f := &sandbox.Failure{
		Class:   sandbox.FailureTransport,
		Message: "sandbox service returned status 503",
		Backend: sandbox.KindRemote,
	}

	got := Translate(f, 7, "return 1")

	if got.Kind != "Error" {
		t.Errorf("Kind = %q, want Error", got.Kind)
	}
	if got.Line != 0 {
		t.Errorf("Line = %d, want no line mapping", got.Line)
	}
}

func TestAssembleMessage(t *testing.T) {
	tests := []struct {
		name string
		ce   *CodeError
		want string
	}{
		{
			name: "kind label prefixed",
			ce:   &CodeError{Message: "x is not defined", Kind: "ReferenceError"},
			want: "Reference Error: x is not defined",
		},
		{
			name: "label already present is not doubled",
			ce:   &CodeError{Message: "reference error: x is not defined", Kind: "ReferenceError"},
			want: "reference error: x is not defined",
		},
		{
			name: "generic kind gets no label",
			ce:   &CodeError{Message: "boom", Kind: "Error"},
			want: "boom",
		},
		{
			name: "line anchor without column",
			ce:   &CodeError{Message: "bad", Kind: "Error", Line: 3, LineContent: "return x"},
			want: "Line 3: `return x` - bad",
		},
		{
			name: "line anchor with column",
			ce:   &CodeError{Message: "bad", Kind: "Error", Line: 3, Column: 7, LineContent: "return x"},
			want: "Line 3:7: `return x` - bad",
		},
		{
			name: "line without content is not anchored",
			ce:   &CodeError{Message: "bad header", Kind: "Error", Line: 2},
			want: "bad header",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := assembleMessage(tt.ce); got != tt.want {
				t.Errorf("assembleMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAssembleMessageSyntaxHints(t *testing.T) {
	hints := []string{"stray characters", "never closed", "unequal number"}

	tests := []struct {
		name         string
		ce           *CodeError
		wantFragment string
	}{
		{
			name:         "invalid token",
			ce:           &CodeError{Message: "Invalid or unexpected token", Kind: "SyntaxError", Line: 1, LineContent: `const s = "abc`},
			wantFragment: "stray characters",
		},
		{
			name:         "unexpected end of input",
			ce:           &CodeError{Message: "Unexpected end of input", Kind: "SyntaxError", Line: 1, LineContent: "const obj = {"},
			wantFragment: "never closed",
		},
		{
			name:         "unexpected token with unbalanced line",
			ce:           &CodeError{Message: "Unexpected token )", Kind: "SyntaxError", Line: 1, LineContent: "f(x))"},
			wantFragment: "unequal number",
		},
		{
			name: "unexpected token with balanced line",
			ce:   &CodeError{Message: "Unexpected token ;", Kind: "SyntaxError", Line: 1, LineContent: "let ; = 2"},
		},
		{
			name: "non-syntax kind",
			ce:   &CodeError{Message: "Unexpected end of input", Kind: "TypeError", Line: 1, LineContent: "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := assembleMessage(tt.ce)
			if tt.wantFragment != "" {
				if !strings.Contains(got, tt.wantFragment) {
					t.Errorf("assembleMessage() = %q, want hint containing %q", got, tt.wantFragment)
				}
				return
			}
			for _, h := range hints {
				if strings.Contains(got, h) {
					t.Errorf("assembleMessage() = %q, want no hint", got)
				}
			}
		})
	}
}

func TestUnbalanced(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{line: "f(x)", want: false},
		{line: "f(x", want: true},
		{line: "a[1]]", want: true},
		{line: "const o = {a: 1}", want: false},
		{line: "const o = {", want: true},
		{line: `s = "open`, want: true},
		{line: `s = "closed"`, want: false},
		{line: "", want: false},
	}

	for _, tt := range tests {
		if got := unbalanced(tt.line); got != tt.want {
			t.Errorf("unbalanced(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestTranslateMessageNeverLeaksScriptName(t *testing.T) {
	f := &sandbox.Failure{
		Class:        sandbox.FailureCompile,
		Message:      "SyntaxError: " + sandbox.ScriptName + ": Line 3:1 Unexpected token ILLEGAL",
		StackOrTrace: "",
		Backend:      sandbox.KindLocal,
		Language:     sandbox.LanguageJavaScript,
	}

	got := Translate(f, 2, "const x = @")

	if strings.Contains(got.Message, sandbox.ScriptName) {
		t.Errorf("Message = %q leaks the synthetic script name", got.Message)
	}
}

package sandbox

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Common errors for invoker operations.
var (
	ErrInvokerExists       = errors.New("invoker already registered")
	ErrInvokerNotFound     = errors.New("invoker not found")
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// ScriptName is the synthetic program name the local backend compiles user
// programs under. Engine traces reference it, and the error translator keys
// its line scanning on it; it must never leak into user-facing messages.
const ScriptName = "user-function.js"

// Language identifies the programming language of a snippet.
type Language string

// Supported snippet languages.
const (
	LanguageJavaScript Language = "javascript"
	LanguagePython     Language = "python"
)

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	return l == LanguageJavaScript || l == LanguagePython
}

// Kind identifies a backend implementation.
type Kind string

// Backend kinds.
const (
	KindLocal  Kind = "local"
	KindRemote Kind = "remote"
)

// FailureClass categorizes why an execution did not complete successfully.
type FailureClass string

// Failure classes. Compile and runtime failures carry engine traces that the
// error translator maps back to user-source coordinates; timeout and
// transport failures carry no line information.
const (
	FailureCompile   FailureClass = "compile"
	FailureRuntime   FailureClass = "runtime"
	FailureTimeout   FailureClass = "timeout"
	FailureTransport FailureClass = "transport"
)

// Program is a wrapped snippet ready for execution, together with the
// bookkeeping needed to invoke it and to map engine-reported line numbers
// back to the original user source.
type Program struct {
	// SourceText is the complete program text to execute, including any
	// generated prologue, wrapper, and epilogue lines around the user code.
	SourceText string

	// Language is the language SourceText is written in.
	Language Language

	// PrologueLineCount is the number of generated context-decoding lines
	// preceding the wrapper header. Zero for the local backend, which
	// injects context through bindings instead of text.
	PrologueLineCount int

	// WrapperLineCount is the number of wrapper header lines between the
	// prologue and the first line of user code. Epilogue lines are not
	// counted: they follow user code and do not shift its line numbers.
	WrapperLineCount int

	// Timeout is the execution budget for this program.
	Timeout time.Duration

	// Params, EnvVars, and ContextVariables are the bindings a backend must
	// make visible to the running program. Backends that inline these as
	// prologue text ignore them at invoke time.
	Params           map[string]any
	EnvVars          map[string]string
	ContextVariables map[string]any
}

// Offset returns the total number of generated lines preceding user code.
func (p Program) Offset() int {
	return p.PrologueLineCount + p.WrapperLineCount
}

// UserCodeStartLine returns the 1-based line of SourceText on which the
// first line of user code appears.
func (p Program) UserCodeStartLine() int {
	return p.Offset() + 1
}

// Validate checks that the program can be submitted to an invoker.
func (p Program) Validate() error {
	if p.SourceText == "" {
		return errors.New("program source text is required")
	}
	if !p.Language.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, p.Language)
	}
	if p.Timeout <= 0 {
		return errors.New("program timeout must be positive")
	}
	return nil
}

// Failure describes an execution that did not complete successfully, in a
// backend-agnostic shape. It is produced by an invoker and consumed by the
// error translator.
type Failure struct {
	// Class categorizes the failure.
	Class FailureClass

	// Message is the raw error message as reported by the engine or service.
	Message string

	// StackOrTrace is the raw multi-line trace, when one was reported.
	StackOrTrace string

	// Backend is the kind of invoker that produced this failure.
	Backend Kind

	// Language is the language the failed program was written in.
	Language Language
}

// Outcome is the raw, backend-agnostic result of invoking a program.
// It is never mutated after creation.
type Outcome struct {
	// Stdout is the accumulated standard output, with any result-marker
	// line already stripped.
	Stdout string

	// Result is the structured return value of the program. Only
	// meaningful when HasResult is true.
	Result any

	// HasResult distinguishes "returned null" from "no result recovered".
	HasResult bool

	// Failure is non-nil when execution did not complete successfully.
	// Stdout accumulated before the failure is still populated.
	Failure *Failure
}

// Invoker executes wrapped programs on one backend.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Invoke must honor cancellation and deadlines; on cancellation
//   the local evaluation is aborted in-process and the remote backend is
//   asked to tear down the ephemeral sandbox, best effort.
// - Errors: failures attributable to the program or the backend transport
//   are reported in Outcome.Failure so all backends yield one shape; the
//   returned error is reserved for invalid programs and context errors.
// - Ownership: the Program is read-only to the invoker.
type Invoker interface {
	// Kind returns the backend kind this invoker implements.
	Kind() Kind

	// Invoke executes the program and returns its raw outcome.
	Invoke(ctx context.Context, prog Program) (Outcome, error)
}

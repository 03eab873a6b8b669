// Package local evaluates JavaScript programs in-process on an isolated
// engine instance per invocation. Context is injected through engine
// bindings rather than generated source lines, so programs run with a
// prologue line count of zero and engine positions map back to user code
// through the wrapper offset alone.
package local

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/zakeri-dev/simrun/sandbox"
)

// maxCallStackSize bounds engine call stack depth so runaway recursion
// fails inside the sandbox instead of exhausting the host stack.
const maxCallStackSize = 2048

// defaultStdoutLimit caps accumulated console output per invocation.
const defaultStdoutLimit = 64 * 1024

// Interrupt reasons distinguish the budget timer from context cancellation.
const (
	interruptTimeout  = "timeout"
	interruptCanceled = "canceled"
)

// Config holds the configuration for the local invoker.
type Config struct {
	// HTTPClient serves fetch() calls made by user code.
	// Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// StdoutLimit caps accumulated console output, in bytes. Output past
	// the cap is dropped and a single truncation notice appended.
	// Defaults to 64 KiB.
	StdoutLimit int

	// DisableNetwork makes fetch() reject immediately instead of
	// performing requests.
	DisableNetwork bool

	// Logger is an optional logger for observability.
	Logger Logger
}

// Logger is an optional interface for observability during local
// evaluation.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: logging must be best-effort; Logf should not panic.
// - Ownership: format/args are read-only.
type Logger interface {
	// Logf logs a formatted message.
	Logf(format string, args ...any)
}

// applyDefaults sets default values for optional fields.
func (c *Config) applyDefaults() {
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.StdoutLimit <= 0 {
		c.StdoutLimit = defaultStdoutLimit
	}
}

// Invoker implements the sandbox.Invoker interface on an embedded
// JavaScript engine. A fresh engine instance is created per invocation, so
// programs never observe each other's globals.
type Invoker struct {
	cfg Config
}

var _ sandbox.Invoker = (*Invoker)(nil)

// New creates a local invoker.
func New(cfg Config) *Invoker {
	cfg.applyDefaults()
	return &Invoker{cfg: cfg}
}

// Kind returns the backend kind.
func (inv *Invoker) Kind() sandbox.Kind {
	return sandbox.KindLocal
}

// Invoke evaluates the program and returns its raw outcome. Programs are
// expected to evaluate to a promise (the wrapper is an async IIFE); a
// rejected promise is reported as a runtime failure, a fulfilled one as the
// result. Budget overruns interrupt the engine and report a timeout
// failure; context cancellation interrupts it and returns the context
// error.
func (inv *Invoker) Invoke(ctx context.Context, prog sandbox.Program) (sandbox.Outcome, error) {
	if err := prog.Validate(); err != nil {
		return sandbox.Outcome{}, err
	}
	if prog.Language != sandbox.LanguageJavaScript {
		return sandbox.Outcome{}, fmt.Errorf("%w: local backend evaluates javascript, got %q",
			sandbox.ErrUnsupportedLanguage, prog.Language)
	}
	if err := ctx.Err(); err != nil {
		return sandbox.Outcome{}, err
	}

	// In-flight fetch calls share the budget: the engine interrupt cannot
	// unblock a native call, but the request context can.
	fetchCtx, cancel := context.WithTimeout(ctx, prog.Timeout)
	defer cancel()

	vm := goja.New()
	vm.SetMaxCallStackSize(maxCallStackSize)

	console := newConsoleBuffer(inv.cfg.StdoutLimit)
	if err := inv.bindGlobals(fetchCtx, vm, prog, console); err != nil {
		return sandbox.Outcome{}, fmt.Errorf("bind globals: %w", err)
	}

	timer := time.AfterFunc(prog.Timeout, func() { vm.Interrupt(interruptTimeout) })
	defer timer.Stop()

	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(interruptCanceled)
		case <-watchDone:
		}
	}()

	start := time.Now()
	value, err := vm.RunScript(sandbox.ScriptName, prog.SourceText)
	if err != nil {
		return inv.outcomeFromError(ctx, err, prog, console)
	}
	vm.ClearInterrupt()

	outcome := inv.outcomeFromValue(value, console)
	inv.logf("local invoke done in %s (result=%t failure=%t)",
		time.Since(start), outcome.HasResult, outcome.Failure != nil)
	return outcome, nil
}

// bindGlobals injects the program context into the engine: parameters,
// environment variables, resolved context values, a capped console, and
// fetch.
func (inv *Invoker) bindGlobals(ctx context.Context, vm *goja.Runtime, prog sandbox.Program, console *consoleBuffer) error {
	params := prog.Params
	if params == nil {
		params = map[string]any{}
	}
	if err := vm.Set("params", params); err != nil {
		return err
	}

	env := prog.EnvVars
	if env == nil {
		env = map[string]string{}
	}
	if err := vm.Set("environmentVariables", env); err != nil {
		return err
	}

	for name, value := range prog.ContextVariables {
		if err := vm.Set(name, value); err != nil {
			return fmt.Errorf("context variable %s: %w", name, err)
		}
	}

	if err := vm.Set("console", console.object(vm)); err != nil {
		return err
	}
	return vm.Set("fetch", inv.fetchFunc(ctx, vm))
}

// outcomeFromError classifies an engine-level error: interrupts become
// timeouts or context errors, parse failures become compile failures, and
// thrown values become runtime failures.
func (inv *Invoker) outcomeFromError(ctx context.Context, err error, prog sandbox.Program, console *consoleBuffer) (sandbox.Outcome, error) {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if ctx.Err() != nil {
			return sandbox.Outcome{}, ctx.Err()
		}
		inv.logf("local invoke interrupted after %s", prog.Timeout)
		return sandbox.Outcome{
			Stdout: console.String(),
			Failure: newFailure(sandbox.FailureTimeout,
				fmt.Sprintf("Execution timed out after %dms", prog.Timeout.Milliseconds()), ""),
		}, nil
	}

	var syntaxErr *goja.CompilerSyntaxError
	if errors.As(err, &syntaxErr) {
		msg := strings.TrimSpace(syntaxErr.Error())
		return sandbox.Outcome{
			Stdout:  console.String(),
			Failure: newFailure(sandbox.FailureCompile, firstLine(msg), msg),
		}, nil
	}

	var ex *goja.Exception
	if errors.As(err, &ex) {
		return sandbox.Outcome{
			Stdout:  console.String(),
			Failure: newFailure(sandbox.FailureRuntime, ex.Value().String(), ex.String()),
		}, nil
	}

	return sandbox.Outcome{
		Stdout:  console.String(),
		Failure: newFailure(sandbox.FailureRuntime, err.Error(), ""),
	}, nil
}

// outcomeFromValue unwraps the evaluation result. The wrapper is an async
// IIFE, so the usual shape is a promise whose rejection carries user-thrown
// errors; plain values pass through for non-wrapped programs.
func (inv *Invoker) outcomeFromValue(value goja.Value, console *consoleBuffer) sandbox.Outcome {
	stdout := console.String()
	if value == nil || goja.IsUndefined(value) {
		return sandbox.Outcome{Stdout: stdout}
	}

	promise, ok := value.Export().(*goja.Promise)
	if !ok {
		return sandbox.Outcome{Stdout: stdout, Result: value.Export(), HasResult: true}
	}

	switch promise.State() {
	case goja.PromiseStateFulfilled:
		res := promise.Result()
		if res == nil || goja.IsUndefined(res) {
			return sandbox.Outcome{Stdout: stdout}
		}
		return sandbox.Outcome{Stdout: stdout, Result: res.Export(), HasResult: true}
	case goja.PromiseStateRejected:
		return sandbox.Outcome{Stdout: stdout, Failure: rejectionFailure(promise.Result())}
	default:
		// The job queue drained without settling the program promise, so
		// it can never settle: there is no background event loop.
		return sandbox.Outcome{
			Stdout: stdout,
			Failure: newFailure(sandbox.FailureRuntime,
				"execution did not settle: an awaited promise never resolved", ""),
		}
	}
}

// rejectionFailure builds a runtime failure from a rejected promise value,
// pulling the stack off Error objects when present.
func rejectionFailure(v goja.Value) *sandbox.Failure {
	if v == nil {
		return newFailure(sandbox.FailureRuntime, "unknown error", "")
	}
	trace := ""
	if obj, ok := v.(*goja.Object); ok {
		if stack := obj.Get("stack"); stack != nil && !goja.IsUndefined(stack) {
			trace = stack.String()
		}
	}
	return newFailure(sandbox.FailureRuntime, v.String(), trace)
}

func newFailure(class sandbox.FailureClass, message, trace string) *sandbox.Failure {
	return &sandbox.Failure{
		Class:        class,
		Message:      message,
		StackOrTrace: trace,
		Backend:      sandbox.KindLocal,
		Language:     sandbox.LanguageJavaScript,
	}
}

func (inv *Invoker) logf(format string, args ...any) {
	if inv.cfg.Logger != nil {
		inv.cfg.Logger.Logf(format, args...)
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

package exec

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zakeri-dev/simrun/resolve"
	"github.com/zakeri-dev/simrun/sandbox"
	"github.com/zakeri-dev/simrun/translate"
	"github.com/zakeri-dev/simrun/wrap"
)

// Dispatcher is the main entry point for executing workflow snippets.
// It resolves references, wraps the code, routes it to a backend, and
// translates failures into user-facing errors.
//
// Contract:
// - Concurrency: safe for concurrent use; per-request state is local.
// - Context: Execute honors cancellation and deadlines.
// - Errors: Execute never returns a Go error; every failure class lands in
//   Result with Success false.
// - Ownership: the Request is read-only; the returned Result is caller-owned.
type Dispatcher struct {
	opts     Options
	registry *sandbox.Registry
}

// New creates a Dispatcher with the given options.
// Returns ErrConfiguration when no invoker is configured.
func New(opts Options) (*Dispatcher, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	registry := sandbox.NewRegistry()
	for _, inv := range []sandbox.Invoker{opts.Local, opts.Remote} {
		if inv == nil {
			continue
		}
		if err := registry.Register(inv); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
	}
	return &Dispatcher{opts: opts, registry: registry}, nil
}

// Execute runs a snippet and returns its result. It never returns a Go
// error: validation problems, backend failures, timeouts, and transport
// errors are all reported in the Result.
func (d *Dispatcher) Execute(ctx context.Context, req Request) Result {
	id := uuid.NewString()

	lang := req.language()
	if !lang.Valid() {
		return Result{Success: false, Error: fmt.Sprintf("unsupported language: %q", req.Language)}
	}
	if req.Code == "" {
		return Result{Success: false, Error: "code is required"}
	}

	kind, routeFailure := d.route(req, lang)
	if routeFailure != nil {
		d.logf("execution %s: routing failed: %s", id, routeFailure.Message)
		return d.failedResult(routeFailure, 0, req.Code, "", 0)
	}
	invoker, err := d.registry.Get(kind)
	if err != nil {
		return Result{Success: false, Error: fmt.Sprintf("backend %s not available", kind)}
	}

	resolved := resolve.Resolve(req.Code, resolve.Inputs{
		Params:            req.Params,
		EnvVars:           req.EnvVars,
		BlockData:         req.BlockData,
		BlockNameMapping:  req.BlockNameMapping,
		WorkflowVariables: req.WorkflowVariables,
	})

	prog, err := d.buildProgram(kind, lang, resolved, req)
	if err != nil {
		d.logf("execution %s: wrap failed: %v", id, err)
		return Result{Success: false, Error: fmt.Sprintf("prepare program: %v", err)}
	}

	d.logf("execution %s: language=%s backend=%s timeout=%s code=%dB",
		id, lang, kind, prog.Timeout, len(req.Code))

	start := time.Now()
	out, err := invoker.Invoke(ctx, prog)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		d.logf("execution %s: invoke error after %dms: %v", id, elapsed, err)
		return d.failedResult(invokeFailure(err, kind, lang), prog.Offset(), resolved.Code, out.Stdout, elapsed)
	}

	if out.Failure != nil {
		d.logf("execution %s: %s failure after %dms", id, out.Failure.Class, elapsed)
		return d.failedResult(out.Failure, prog.Offset(), resolved.Code, out.Stdout, elapsed)
	}

	d.logf("execution %s: success in %dms", id, elapsed)
	return Result{
		Success:         true,
		Result:          out.Result,
		Stdout:          out.Stdout,
		ExecutionTimeMs: elapsed,
	}
}

// route picks the backend kind for a request. It returns a transport-class
// failure when the required backend is not configured.
func (d *Dispatcher) route(req Request, lang sandbox.Language) (sandbox.Kind, *sandbox.Failure) {
	if lang == sandbox.LanguagePython {
		if d.opts.Remote == nil {
			return "", routingFailure("Python execution requires the remote sandbox service, which is not configured", lang)
		}
		return sandbox.KindRemote, nil
	}

	if req.IsCustomTool {
		if d.opts.Local == nil {
			return "", routingFailure("custom tools execute locally, but no local backend is configured", lang)
		}
		return sandbox.KindLocal, nil
	}
	if (req.PreferLocal || d.opts.PreferLocal) && d.opts.Local != nil {
		return sandbox.KindLocal, nil
	}
	if d.opts.Remote == nil {
		return sandbox.KindLocal, nil
	}
	return sandbox.KindRemote, nil
}

// buildProgram wraps resolved source for the chosen backend.
func (d *Dispatcher) buildProgram(kind sandbox.Kind, lang sandbox.Language, resolved resolve.Resolved, req Request) (sandbox.Program, error) {
	opts := wrap.Options{
		Language:     lang,
		Params:       req.Params,
		EnvVars:      req.EnvVars,
		Timeout:      d.opts.budget(req.Timeout),
		IsCustomTool: req.IsCustomTool,
	}
	if kind == sandbox.KindLocal {
		return wrap.Local(resolved, opts)
	}
	return wrap.Remote(resolved, opts)
}

// failedResult translates a failure and assembles the failed result shape.
func (d *Dispatcher) failedResult(f *sandbox.Failure, offset int, userCode, stdout string, elapsedMs int64) Result {
	ce := translate.Translate(f, offset, userCode)
	return Result{
		Success:         false,
		Stdout:          stdout,
		ExecutionTimeMs: elapsedMs,
		Error:           ce.Message,
		Debug:           ce,
	}
}

// invokeFailure maps an invoker-returned error (context or validation) onto
// the failure taxonomy so it reaches callers in the uniform result shape.
func invokeFailure(err error, kind sandbox.Kind, lang sandbox.Language) *sandbox.Failure {
	class := sandbox.FailureTransport
	message := fmt.Sprintf("execution aborted: %v", err)
	if errors.Is(err, context.DeadlineExceeded) {
		class = sandbox.FailureTimeout
		message = "Execution timed out: deadline exceeded"
	}
	return &sandbox.Failure{
		Class:    class,
		Message:  message,
		Backend:  kind,
		Language: lang,
	}
}

func routingFailure(message string, lang sandbox.Language) *sandbox.Failure {
	return &sandbox.Failure{
		Class:    sandbox.FailureTransport,
		Message:  message,
		Language: lang,
	}
}

func (d *Dispatcher) logf(format string, args ...any) {
	if d.opts.Logger != nil {
		d.opts.Logger.Logf(format, args...)
	}
}

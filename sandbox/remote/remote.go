// Package remote executes programs on an ephemeral-sandbox execution
// service. The service provisions an isolated sandbox per request, runs the
// program with the requested budget, and reports stdout, an optional result,
// and an optional error. Structured results travel back on stdout under the
// result marker; the service-level result field is a fallback for runtimes
// that report one directly.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zakeri-dev/simrun/sandbox"
)

// Errors for remote invoker operations.
var (
	// ErrClientNotConfigured is returned when no service client is configured.
	ErrClientNotConfigured = errors.New("remote client not configured")

	// ErrServiceUnavailable is returned by clients when the execution
	// service cannot be reached or answers outside the 2xx range.
	ErrServiceUnavailable = errors.New("execution service unavailable")
)

// defaultTimeoutOverhead pads the program budget to cover sandbox
// provisioning and network latency.
const defaultTimeoutOverhead = 10 * time.Second

// Logger is the interface for logging.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: logging must be best-effort and must not panic.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config configures a remote invoker.
type Config struct {
	// Client executes service requests.
	// Required. Provide an HTTPClient or a custom implementation.
	Client Client

	// TimeoutOverhead is added to the program budget when deriving the
	// request deadline, covering provisioning and network latency.
	// Default: 10s.
	TimeoutOverhead time.Duration

	// Logger is an optional logger for invoker events.
	Logger Logger
}

// Invoker implements the sandbox.Invoker interface against an execution
// service.
type Invoker struct {
	client   Client
	overhead time.Duration
	logger   Logger
}

var _ sandbox.Invoker = (*Invoker)(nil)

// New creates a remote invoker with the given configuration.
func New(cfg Config) (*Invoker, error) {
	if cfg.Client == nil {
		return nil, ErrClientNotConfigured
	}
	overhead := cfg.TimeoutOverhead
	if overhead <= 0 {
		overhead = defaultTimeoutOverhead
	}
	return &Invoker{
		client:   cfg.Client,
		overhead: overhead,
		logger:   cfg.Logger,
	}, nil
}

// Kind returns the backend kind.
func (inv *Invoker) Kind() sandbox.Kind {
	return sandbox.KindRemote
}

// Invoke submits the program to the execution service and maps the service
// response onto the backend-agnostic outcome shape. The service enforces
// the program budget itself and reports overruns in-band; the request
// deadline is budget plus overhead, so tripping it means the transport
// hung, not the program. If the caller's context ends while the request is
// in flight, the sandbox is asked to tear down, best effort.
func (inv *Invoker) Invoke(ctx context.Context, prog sandbox.Program) (sandbox.Outcome, error) {
	if err := prog.Validate(); err != nil {
		return sandbox.Outcome{}, err
	}

	requestID := uuid.NewString()
	reqCtx, cancel := context.WithTimeout(ctx, prog.Timeout+inv.overhead)
	defer cancel()

	start := time.Now()
	resp, err := inv.client.Execute(reqCtx, Request{
		RequestID:     requestID,
		Code:          prog.SourceText,
		Language:      string(prog.Language),
		TimeoutMillis: prog.Timeout.Milliseconds(),
	})
	if err != nil {
		if ctx.Err() != nil {
			inv.teardown(requestID)
			return sandbox.Outcome{}, ctx.Err()
		}
		inv.logError("remote execution failed", "requestId", requestID, "error", err)
		return sandbox.Outcome{
			Failure: inv.newFailure(sandbox.FailureTransport, err.Error(), "", prog.Language),
		}, nil
	}

	inv.logInfo("remote execution complete",
		"requestId", requestID, "sandboxId", resp.SandboxID, "duration", time.Since(start))

	value, stdout, found := sandbox.ExtractResult(resp.Stdout)

	if resp.Error != nil {
		return sandbox.Outcome{
			Stdout: stdout,
			Failure: inv.newFailure(classifyServiceError(resp.Error.Message),
				resp.Error.Message, resp.Error.StackTrace, prog.Language),
		}, nil
	}

	out := sandbox.Outcome{Stdout: stdout}
	switch {
	case found:
		out.Result, out.HasResult = value, true
	case len(resp.Result) > 0:
		var v any
		if err := json.Unmarshal(resp.Result, &v); err != nil {
			return sandbox.Outcome{
				Stdout: stdout,
				Failure: inv.newFailure(sandbox.FailureTransport,
					fmt.Sprintf("malformed service result: %v", err), "", prog.Language),
			}, nil
		}
		out.Result, out.HasResult = v, true
	}
	return out, nil
}

// teardown asks the service to destroy the sandbox for an abandoned
// request. The caller's context is already dead, so it runs on its own
// short deadline.
func (inv *Invoker) teardown(requestID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := inv.client.Cancel(ctx, requestID); err != nil {
		inv.logWarn("sandbox teardown failed", "requestId", requestID, "error", err)
		return
	}
	inv.logInfo("sandbox teardown requested", "requestId", requestID)
}

// classifyServiceError buckets a service-reported error by its text. The
// service reports one message string for every failure mode, so the class
// is recovered from the well-known interpreter and runtime prefixes.
func classifyServiceError(message string) sandbox.FailureClass {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "timed out"), strings.Contains(lower, "timeout"):
		return sandbox.FailureTimeout
	case strings.Contains(message, "SyntaxError"),
		strings.Contains(message, "IndentationError"),
		strings.Contains(message, "TabError"):
		return sandbox.FailureCompile
	default:
		return sandbox.FailureRuntime
	}
}

func (inv *Invoker) newFailure(class sandbox.FailureClass, message, trace string, lang sandbox.Language) *sandbox.Failure {
	return &sandbox.Failure{
		Class:        class,
		Message:      message,
		StackOrTrace: trace,
		Backend:      sandbox.KindRemote,
		Language:     lang,
	}
}

func (inv *Invoker) logInfo(msg string, args ...any) {
	if inv.logger != nil {
		inv.logger.Info(msg, args...)
	}
}

func (inv *Invoker) logWarn(msg string, args ...any) {
	if inv.logger != nil {
		inv.logger.Warn(msg, args...)
	}
}

func (inv *Invoker) logError(msg string, args ...any) {
	if inv.logger != nil {
		inv.logger.Error(msg, args...)
	}
}

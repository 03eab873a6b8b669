// Package exec provides the execution pipeline for workflow code snippets:
// reference resolution, code wrapping, backend dispatch, and error
// translation.
//
// exec sits on top of resolve, wrap, sandbox, and translate to turn a raw
// snippet request into one uniform result shape, whichever backend ran the
// code.
//
// # Architecture
//
// The package defines two main types:
//
//   - [Dispatcher]: The main entry point. It resolves workflow references
//     in the snippet, wraps the code for the chosen backend, invokes it,
//     and translates any failure into a user-facing error.
//
//   - [Options]: Wiring for a dispatcher: the local and remote invokers,
//     routing preference, timeout policy, and logging.
//
// # Routing
//
// Python always executes on the remote sandbox service. JavaScript executes
// locally when the request is a custom tool, when the request or the options
// prefer local execution, or when no remote invoker is configured; it
// executes remotely otherwise. A request whose required backend is not
// configured yields a failed [Result], not a Go error.
//
// # Result Shape
//
// Execute never returns a Go error. Compile errors, runtime exceptions,
// timeouts, and transport problems all land in [Result] with Success false,
// a user-facing message, and positional diagnostics when the failure maps
// back to a snippet line. Stdout accumulated before a failure is preserved.
package exec

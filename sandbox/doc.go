// Package sandbox defines the contract between the execution dispatcher and
// the backends that run wrapped snippets.
//
// # Architecture
//
// The package defines one interface and the value types that cross it:
//
//   - [Invoker]: a backend that executes a wrapped [Program] and reports a
//     raw [Outcome]. Two implementations exist: sandbox/local runs
//     JavaScript in an embedded VM, sandbox/remote submits programs to an
//     ephemeral sandbox service.
//
//   - [Program]: the literal program text plus the line-offset bookkeeping
//     ([Program.PrologueLineCount], [Program.WrapperLineCount]) that error
//     translation depends on.
//
//   - [Outcome] and [Failure]: the uniform result shape. Every failure a
//     snippet or a backend can produce is folded into a [FailureClass]
//     rather than a backend-specific error type, so callers stay
//     backend-agnostic.
//
// # Result Convention
//
// Programs destined for the remote backend print their return value to
// stdout on a single line prefixed with [ResultMarker]. [ExtractResult]
// recovers the structured value and strips the marker line so callers never
// see the encoding artifact.
package sandbox

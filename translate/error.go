package translate

import "fmt"

// CodeError is a user-facing execution error anchored, when possible, to a
// line of the original unwrapped snippet. It is surfaced as the optional
// debug payload of an execution result; Message alone is sufficient for
// display.
type CodeError struct {
	// Message is the fully assembled human-readable message.
	Message string `json:"message"`

	// Kind is the error class as reported by the engine, for example
	// SyntaxError, TypeError, ReferenceError, TimeoutError, or Error.
	Kind string `json:"kind"`

	// Line is the 1-based line in the user's own snippet, 0 when no line
	// could be attributed.
	Line int `json:"line,omitempty"`

	// Column is the 1-based column when the engine reported one.
	Column int `json:"column,omitempty"`

	// LineContent is the trimmed text of the attributed snippet line.
	LineContent string `json:"lineContent,omitempty"`
}

// Error implements the error interface.
func (e *CodeError) Error() string {
	if e.Line > 0 {
		if e.Column > 0 {
			return fmt.Sprintf("%s (line %d, col %d)", e.Message, e.Line, e.Column)
		}
		return fmt.Sprintf("%s (line %d)", e.Message, e.Line)
	}
	return e.Message
}

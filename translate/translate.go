// Package translate turns raw backend failures into user-facing errors whose
// line and column coordinates refer to the original unwrapped snippet.
//
// Each backend pollutes errors differently: the local VM reports positions
// inside the wrapped program text under the synthetic script name, the remote
// service reports Jupyter-style cell positions for Python and
// compiler-style header lines for JavaScript. The heuristics here are
// deliberately documented per shape; ambiguous traces degrade to a message
// without line information rather than a wrong line.
package translate

import (
	"fmt"
	"strings"

	"github.com/zakeri-dev/simrun/sandbox"
)

// Translate derives a CodeError from a raw failure. offset is the number of
// generated lines preceding user code in the wrapped program
// (Program.Offset()); userCode is the original resolved snippet the failure
// should be attributed against. Timeout and transport failures carry no line
// mapping and their message is surfaced as-is.
func Translate(f *sandbox.Failure, offset int, userCode string) *CodeError {
	if f == nil {
		return nil
	}

	switch f.Class {
	case sandbox.FailureTimeout:
		return &CodeError{Message: f.Message, Kind: "TimeoutError"}
	case sandbox.FailureTransport:
		return &CodeError{Message: f.Message, Kind: "Error"}
	}

	var ce *CodeError
	switch {
	case f.Backend == sandbox.KindLocal:
		// Local failures map against the wrapped text; user code starts on
		// the line after the last header line.
		ce = translateLocal(f, offset+1, userCode)
	case f.Language == sandbox.LanguagePython:
		ce = translateRemotePython(f, offset, userCode)
	default:
		ce = translateRemoteJavaScript(f, offset, userCode)
	}

	ce.Message = assembleMessage(ce)
	return ce
}

// assembleMessage builds the display message: optional kind label, then the
// optional line anchor with the trimmed snippet line, then a syntax hint for
// the common classes of malformed snippets.
func assembleMessage(ce *CodeError) string {
	msg := strings.TrimSpace(ce.Message)

	if label := kindLabel(ce.Kind); label != "" && ce.Kind != "Error" {
		if !strings.Contains(strings.ToLower(msg), strings.ToLower(label)) {
			msg = label + ": " + msg
		}
	}

	if ce.Line > 0 && ce.LineContent != "" {
		pos := fmt.Sprintf("Line %d", ce.Line)
		if ce.Column > 0 {
			pos = fmt.Sprintf("Line %d:%d", ce.Line, ce.Column)
		}
		msg = fmt.Sprintf("%s: `%s` - %s", pos, ce.LineContent, msg)
	}

	if ce.Kind == "SyntaxError" {
		if hint := syntaxHint(ce.Message, ce.LineContent); hint != "" {
			msg = msg + ". " + hint
		}
	}
	return msg
}

// kindLabel maps engine error kinds to the label shown to snippet authors.
func kindLabel(kind string) string {
	switch kind {
	case "SyntaxError":
		return "Syntax Error"
	case "TypeError":
		return "Type Error"
	case "ReferenceError":
		return "Reference Error"
	default:
		return kind
	}
}

// syntaxHint picks one fixed hint for the three recognizable syntax-error
// shapes. The unbalanced check is naive by design: it counts bracket pairs
// and quote characters on the single attributed line only.
func syntaxHint(message, lineContent string) string {
	switch {
	case strings.Contains(message, "Invalid or unexpected token"):
		return "Check this line for stray characters or an unclosed string"
	case strings.Contains(message, "Unexpected end of input"):
		return "A bracket, parenthesis, or quote opened here is never closed"
	case strings.Contains(message, "Unexpected token") && unbalanced(lineContent):
		return "This line opens and closes an unequal number of brackets, parentheses, or quotes"
	}
	return ""
}

// unbalanced reports whether a line has unmatched brackets, parentheses,
// braces, or an odd number of quote characters.
func unbalanced(line string) bool {
	var round, square, curly int
	quotes := make(map[rune]int)
	for _, r := range line {
		switch r {
		case '(':
			round++
		case ')':
			round--
		case '[':
			square++
		case ']':
			square--
		case '{':
			curly++
		case '}':
			curly--
		case '\'', '"', '`':
			quotes[r]++
		}
	}
	if round != 0 || square != 0 || curly != 0 {
		return true
	}
	for _, n := range quotes {
		if n%2 != 0 {
			return true
		}
	}
	return false
}

// userLines splits the snippet once for line-content lookups.
func userLines(userCode string) []string {
	return strings.Split(userCode, "\n")
}

// lineContent returns the trimmed text of a 1-based snippet line.
func lineContent(lines []string, n int) string {
	if n < 1 || n > len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[n-1])
}

// clamp bounds n to [lo, hi].
func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

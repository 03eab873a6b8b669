package translate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/zakeri-dev/simrun/sandbox"
)

var (
	// Runtime traces position frames as "user-function.js:3:9".
	localFramePattern = regexp.MustCompile(regexp.QuoteMeta(sandbox.ScriptName) + `:(\d+)(?::(\d+))?`)

	// Compile errors position as "user-function.js: Line 3:9 ...".
	localParsePattern = regexp.MustCompile(regexp.QuoteMeta(sandbox.ScriptName) + `: Line (\d+):(\d+)`)

	// Leading "<Kind>: " prefix of an engine message.
	kindPrefixPattern = regexp.MustCompile(`^([A-Za-z]*(?:Error|Exception)):\s*`)

	// Trailing "(and N more errors)" the parser appends on multi-error input.
	moreErrorsPattern = regexp.MustCompile(`\s*\(and \d+ more errors?\)\s*$`)

	// Leading "Line 3:9 " clause left behind once the script name is gone.
	positionClausePattern = regexp.MustCompile(`^Line \d+:\d+\s*`)
)

// translateLocal maps a local VM failure onto the user snippet. The trace is
// scanned for the first position referencing the synthetic script name; that
// wrapped-text line is shifted by userCodeStartLine to a snippet line.
//
// Two escape hatches: a syntax error reported past the start of user code
// for an unexpected token or unexpected end of input is attributed to the
// snippet's last line, because the engine only notices a dangling bracket or
// quote when it reaches the wrapper footer. A position before the start of
// user code (a malformed generated header line, such as a custom-tool param
// binding for an invalid key) is reported raw, with no snippet line content.
func translateLocal(f *sandbox.Failure, userCodeStartLine int, userCode string) *CodeError {
	kind, message := splitKind(f.Message)
	message = cleanLocalMessage(message)
	lines := userLines(userCode)

	raw, col, found := findLocalPosition(f)
	if !found {
		return &CodeError{Message: message, Kind: kind}
	}

	if raw > userCodeStartLine && kind == "SyntaxError" && indicatesIncompleteSnippet(message) {
		n := len(lines)
		return &CodeError{
			Message:     message,
			Kind:        kind,
			Line:        n,
			LineContent: lineContent(lines, n),
		}
	}

	adjusted := raw - userCodeStartLine + 1
	if adjusted < 1 {
		return &CodeError{Message: message, Kind: kind, Line: raw, Column: col}
	}

	adjusted = clamp(adjusted, 1, len(lines))
	return &CodeError{
		Message:     message,
		Kind:        kind,
		Line:        adjusted,
		Column:      col,
		LineContent: lineContent(lines, adjusted),
	}
}

// findLocalPosition scans the message first, then the trace, for the first
// position referencing the synthetic script name. Both the runtime frame
// shape and the parser shape are accepted.
func findLocalPosition(f *sandbox.Failure) (line, col int, found bool) {
	for _, text := range []string{f.Message, f.StackOrTrace} {
		for _, candidate := range strings.Split(text, "\n") {
			if m := localParsePattern.FindStringSubmatch(candidate); m != nil {
				return atoi(m[1]), atoi(m[2]), true
			}
			if m := localFramePattern.FindStringSubmatch(candidate); m != nil {
				return atoi(m[1]), atoi(m[2]), true
			}
		}
	}
	return 0, 0, false
}

// splitKind separates a leading error-kind prefix from the message body.
func splitKind(message string) (kind, rest string) {
	message = strings.TrimSpace(message)
	if m := kindPrefixPattern.FindStringSubmatch(message); m != nil {
		return m[1], message[len(m[0]):]
	}
	return "Error", message
}

// cleanLocalMessage strips engine internals that must not reach users: the
// synthetic script name, the parser's embedded position clause, and its
// multi-error suffix.
func cleanLocalMessage(message string) string {
	message = strings.ReplaceAll(message, sandbox.ScriptName+": ", "")
	message = strings.ReplaceAll(message, sandbox.ScriptName, "")
	message = positionClausePattern.ReplaceAllString(message, "")
	message = moreErrorsPattern.ReplaceAllString(message, "")
	return strings.TrimSpace(message)
}

// indicatesIncompleteSnippet matches the messages an engine produces when a
// snippet ends mid-construct and parsing fails only inside the wrapper
// footer.
func indicatesIncompleteSnippet(message string) bool {
	return strings.Contains(message, "Unexpected token") ||
		strings.Contains(message, "Unexpected end of input") ||
		strings.Contains(message, "Invalid or unexpected token")
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

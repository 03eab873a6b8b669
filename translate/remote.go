package translate

import (
	"regexp"
	"strings"

	"github.com/zakeri-dev/simrun/sandbox"
)

var (
	// Jupyter-style position marker in Python tracebacks.
	cellPattern = regexp.MustCompile(`Cell In\[\d+\], line (\d+)`)

	// Python message suffixes that reference generated-file coordinates.
	detectedAtPattern = regexp.MustCompile(`\s*\(detected at line \d+\)`)
	fileLinePattern   = regexp.MustCompile(`\s*\([^()]+, line \d+\)`)

	// Compiler-style first line of a remote JavaScript error:
	// "<ErrorKind>: <path>: <msg>. (L:C)".
	jsHeadPattern = regexp.MustCompile(`^([A-Za-z]+Error|Error):\s*([^:]+):\s*(.+?)\.?\s*\((\d+):(\d+)\)\s*$`)

	// Source-context pointer line: "> 5 | return data.map(".
	jsPointerPattern = regexp.MustCompile(`(?m)^\s*>\s*(\d+)\s*\|`)

	// Loose "<ErrorKind>: <msg>" fallback.
	jsLoosePattern = regexp.MustCompile(`^([A-Za-z]+Error|Error):\s*(.+)$`)

	// Trailing "(L:C)" position suffix inside a message body.
	trailingPosPattern = regexp.MustCompile(`\s*\(\d+:\d+\)\s*$`)
)

// translateRemotePython maps a sandbox-service Python failure onto the user
// snippet via the Jupyter cell marker. Positions that land inside the
// generated prologue are reported without a line rather than pinned to the
// first snippet line.
func translateRemotePython(f *sandbox.Failure, offset int, userCode string) *CodeError {
	kind, message := splitKind(f.Message)
	message = cleanPythonMessage(message)
	lines := userLines(userCode)

	m := cellPattern.FindStringSubmatch(f.Message)
	if m == nil {
		m = cellPattern.FindStringSubmatch(f.StackOrTrace)
	}
	if m == nil {
		return &CodeError{Message: message, Kind: kind}
	}

	userLine := atoi(m[1]) - offset
	if userLine < 1 {
		return &CodeError{Message: message, Kind: kind}
	}
	userLine = clamp(userLine, 1, len(lines))
	return &CodeError{
		Message:     message,
		Kind:        kind,
		Line:        userLine,
		LineContent: lineContent(lines, userLine),
	}
}

// cleanPythonMessage removes position clauses that refer to the wrapped
// file, not the user's snippet.
func cleanPythonMessage(message string) string {
	message = detectedAtPattern.ReplaceAllString(message, "")
	message = fileLinePattern.ReplaceAllString(message, "")
	return strings.TrimSpace(message)
}

// translateRemoteJavaScript maps a sandbox-service JavaScript failure onto
// the user snippet. The primary shape is the compiler-style header line with
// an explicit position; when it is absent, the source-context pointer line
// recovers the line and a looser header match recovers the message.
func translateRemoteJavaScript(f *sandbox.Failure, offset int, userCode string) *CodeError {
	lines := userLines(userCode)
	firstLine, _, _ := strings.Cut(strings.TrimSpace(f.Message), "\n")

	if m := jsHeadPattern.FindStringSubmatch(firstLine); m != nil {
		userLine := atoi(m[4]) - offset
		col := atoi(m[5])
		if userLine < 1 {
			return &CodeError{Message: m[3], Kind: m[1]}
		}
		userLine = clamp(userLine, 1, len(lines))
		return &CodeError{
			Message:     m[3],
			Kind:        m[1],
			Line:        userLine,
			Column:      col,
			LineContent: lineContent(lines, userLine),
		}
	}

	kind := "Error"
	message := firstLine
	if m := jsLoosePattern.FindStringSubmatch(firstLine); m != nil {
		kind, message = m[1], stripPathPrefix(m[2])
	}
	message = strings.TrimSpace(trailingPosPattern.ReplaceAllString(message, ""))

	m := jsPointerPattern.FindStringSubmatch(f.Message)
	if m == nil {
		m = jsPointerPattern.FindStringSubmatch(f.StackOrTrace)
	}
	if m == nil {
		return &CodeError{Message: message, Kind: kind}
	}

	userLine := atoi(m[1]) - offset
	if userLine < 1 {
		return &CodeError{Message: message, Kind: kind}
	}
	userLine = clamp(userLine, 1, len(lines))
	return &CodeError{
		Message:     message,
		Kind:        kind,
		Line:        userLine,
		LineContent: lineContent(lines, userLine),
	}
}

// stripPathPrefix drops a leading "<path>: " chunk when it looks like a file
// path rather than message text.
func stripPathPrefix(message string) string {
	head, rest, ok := strings.Cut(message, ": ")
	if !ok {
		return message
	}
	if strings.ContainsAny(head, "/\\") || strings.HasSuffix(head, ".js") || strings.HasSuffix(head, ".ts") {
		return rest
	}
	return message
}

package sandbox

import (
	"encoding/json"
	"strings"
)

// ResultMarker is the fixed prefix generated epilogue code writes to stdout,
// followed by a JSON encoding of the program's return value. Invokers use it
// to recover a structured result from otherwise unstructured text output.
const ResultMarker = "__SIM_RESULT__="

// ExtractResult scans stdout for the result-marker line, JSON-decodes its
// suffix, and returns the decoded value along with stdout with the marker
// line removed. The last marker line wins: the generated epilogue always
// prints after user output, so a later line is always the authoritative one.
// found is false when no marker line is present or its suffix is not valid
// JSON; stdout is then returned unchanged.
func ExtractResult(stdout string) (value any, remaining string, found bool) {
	if !strings.Contains(stdout, ResultMarker) {
		return nil, stdout, false
	}

	lines := strings.Split(stdout, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		suffix, ok := strings.CutPrefix(lines[i], ResultMarker)
		if !ok {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(suffix), &v); err != nil {
			continue
		}
		remaining = strings.Join(append(lines[:i:i], lines[i+1:]...), "\n")
		return v, remaining, true
	}
	return nil, stdout, false
}

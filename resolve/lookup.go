package resolve

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// lookupPath resolves a dotted path against a map. The whole path is tried
// as a literal key first, since block data payloads commonly arrive with
// flattened "id.path.to.field" keys, then traversed segment by segment.
// A missing key or a non-object intermediate yields not-found, never an
// error.
func lookupPath(data map[string]any, path string) (any, bool) {
	if data == nil {
		return nil, false
	}
	if v, ok := data[path]; ok {
		return v, true
	}

	var cur any = data
	for _, seg := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// mapBlockName treats the first segment of a dotted path as a
// human-readable block name and rewrites it to the mapped internal block
// identifier. Mapping keys are compared after normalization, so "Block 1"
// matches the token segment "block1". Mapping keys are visited in sorted
// order for deterministic results.
func mapBlockName(path string, mapping map[string]string) (string, bool) {
	dot := strings.IndexByte(path, '.')
	if dot < 0 || len(mapping) == 0 {
		return "", false
	}
	first, rest := path[:dot], path[dot+1:]
	normalized := normalizeBlockName(first)

	keys := make([]string, 0, len(mapping))
	for k := range mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if normalizeBlockName(k) == normalized {
			return mapping[k] + "." + rest, true
		}
	}
	return "", false
}

// normalizeBlockName strips all whitespace and lowercases, Unicode-aware,
// so display names and token segments compare loosely.
func normalizeBlockName(name string) string {
	stripped := stripWhitespace(name)
	return cases.Lower(language.Und).String(stripped)
}

// stripWhitespace removes every Unicode whitespace rune.
func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

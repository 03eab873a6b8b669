// Package resolve substitutes workflow-supplied values into snippet source
// text before execution.
//
// Three reference syntaxes are recognized: workflow variables
// (<variable.NAME>), environment variables ({{NAME}}), and block tags
// (<path.to.value>). Each occurrence is replaced with a generated safe
// identifier and the value is emitted in a side table of identifier
// bindings, so values never appear as literal text inside the snippet.
//
// Substitution is token-level text replacement, not an AST transform: a
// token appearing inside a string literal is still replaced. That is
// documented behavior, kept because snippets are routinely invalid until
// resolution completes and parsing two languages is out of proportion to
// the problem.
package resolve

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Variable is a workflow variable as stored by the workflow editor: a
// display name, a declared type, and the raw stored value.
type Variable struct {
	// Name is the display name referenced as <variable.Name> (whitespace
	// in the display name is ignored when matching).
	Name string `json:"name"`

	// Type is the declared type: plain, string, number, boolean, or json.
	// Unknown types behave like plain.
	Type string `json:"type"`

	// Value is the stored value, often a string even for typed variables.
	Value any `json:"value"`
}

// Inputs carries the workflow-supplied data available to a snippet.
type Inputs struct {
	// Params are the step's input parameters.
	Params map[string]any

	// EnvVars are the workflow's environment variables.
	EnvVars map[string]string

	// BlockData maps block identifiers (or flattened "id.path.to.field"
	// keys) to upstream block outputs.
	BlockData map[string]any

	// BlockNameMapping maps human-readable block names to internal block
	// identifiers.
	BlockNameMapping map[string]string

	// WorkflowVariables maps variable identifiers to workflow variables.
	WorkflowVariables map[string]Variable
}

// Resolved is the output of resolution: code with every recognized token
// replaced by a generated identifier, plus the identifier bindings.
type Resolved struct {
	// Code is the resolved source text.
	Code string

	// ContextVariables maps each generated identifier to its bound value.
	// Keys contain only [A-Za-z0-9_] and start with an underscore.
	ContextVariables map[string]any
}

var (
	workflowVarPattern = regexp.MustCompile(`<variable\.([^>]+)>`)
	envVarPattern      = regexp.MustCompile(`\{\{([^{}]+)\}\}`)
	tagPattern         = regexp.MustCompile(`<([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z0-9_]+)*)>`)
	invalidIdentChars  = regexp.MustCompile(`[^A-Za-z0-9_]`)
)

// Resolve runs the three substitution passes over code, in fixed order:
// workflow variables, environment variables, block tags. Each pass is
// non-recursive; its output is only re-scanned by later passes' patterns.
// Resolution never fails: a missing workflow variable erases its token, an
// unresolved environment variable or tag binds the empty string. Resolving
// already-resolved code is a no-op.
func Resolve(code string, in Inputs) Resolved {
	ctx := make(map[string]any)
	code = resolveWorkflowVariables(code, in, ctx)
	code = resolveEnvVariables(code, in, ctx)
	code = resolveTags(code, in, ctx)
	return Resolved{Code: code, ContextVariables: ctx}
}

// resolveWorkflowVariables handles <variable.NAME> tokens. The variable
// whose whitespace-stripped display name equals NAME supplies the value,
// coerced by its declared type. Tokens naming no variable are replaced with
// the empty string and create no binding.
func resolveWorkflowVariables(code string, in Inputs, ctx map[string]any) string {
	for _, m := range distinctMatches(workflowVarPattern, code) {
		v, ok := findWorkflowVariable(in.WorkflowVariables, m.capture)
		if !ok {
			code = strings.ReplaceAll(code, m.token, "")
			continue
		}
		ident := "__variable_" + sanitizeIdentifier(m.capture)
		ctx[ident] = coerceVariable(v)
		code = strings.ReplaceAll(code, m.token, ident)
	}
	return code
}

// resolveEnvVariables handles {{NAME}} tokens. The value comes from
// EnvVars, falling back to Params, falling back to the empty string; the
// binding is always created, even when empty.
func resolveEnvVariables(code string, in Inputs, ctx map[string]any) string {
	for _, m := range distinctMatches(envVarPattern, code) {
		var value any = ""
		if v, ok := in.EnvVars[m.capture]; ok {
			value = v
		} else if v, ok := in.Params[m.capture]; ok {
			value = v
		}
		ident := "__var_" + sanitizeIdentifier(m.capture)
		ctx[ident] = value
		code = strings.ReplaceAll(code, m.token, ident)
	}
	return code
}

// resolveTags handles <path.to.value> tokens (leading letter or
// underscore; <variable.*> tokens were already consumed by the first
// pass). Lookup order: params, block data, then block data again after
// substituting the first path segment through the block-name mapping.
// Unresolved tags bind the empty string.
func resolveTags(code string, in Inputs, ctx map[string]any) string {
	for _, m := range distinctMatches(tagPattern, code) {
		path := m.capture
		value, found := lookupPath(in.Params, path)
		if !found {
			value, found = lookupPath(in.BlockData, path)
		}
		if !found {
			if mapped, ok := mapBlockName(path, in.BlockNameMapping); ok {
				value, found = lookupPath(in.BlockData, mapped)
			}
		}
		if found {
			value = reparseSerialized(value)
		} else {
			value = ""
		}
		ident := "__tag_" + sanitizeIdentifier(path)
		ctx[ident] = value
		code = strings.ReplaceAll(code, m.token, ident)
	}
	return code
}

// match pairs a full token with its captured inner text.
type match struct {
	token   string
	capture string
}

// distinctMatches returns each distinct token once, in first-occurrence
// order, so replacement is deterministic.
func distinctMatches(re *regexp.Regexp, code string) []match {
	seen := make(map[string]bool)
	var out []match
	for _, m := range re.FindAllStringSubmatch(code, -1) {
		if seen[m[0]] {
			continue
		}
		seen[m[0]] = true
		out = append(out, match{token: m[0], capture: m[1]})
	}
	return out
}

// findWorkflowVariable matches name against each variable's display name
// with all whitespace stripped. Variables are visited in sorted key order
// so a duplicate display name resolves the same way on every run.
func findWorkflowVariable(vars map[string]Variable, name string) (Variable, bool) {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if stripWhitespace(vars[k].Name) == name {
			return vars[k], true
		}
	}
	return Variable{}, false
}

// coerceVariable converts a variable's stored value according to its
// declared type. Coercion is forgiving: a value that does not parse keeps
// its original form rather than failing resolution.
func coerceVariable(v Variable) any {
	switch v.Type {
	case "number":
		s, ok := v.Value.(string)
		if !ok {
			return v.Value
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return v.Value
		}
		return n
	case "boolean":
		if b, ok := v.Value.(bool); ok {
			return b
		}
		return v.Value == "true"
	case "json":
		s, ok := v.Value.(string)
		if !ok {
			return v.Value
		}
		var parsed any
		if err := json.Unmarshal([]byte(s), &parsed); err != nil {
			return v.Value
		}
		return parsed
	default:
		return v.Value
	}
}

// reparseSerialized guards against double-serialized payloads: a resolved
// string longer than 100 characters that looks like a JSON object or array
// is decoded and the decoded value used instead.
func reparseSerialized(value any) any {
	s, ok := value.(string)
	if !ok || len(s) <= 100 {
		return value
	}
	if !strings.HasPrefix(s, "{") && !strings.HasPrefix(s, "[") {
		return value
	}
	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return value
	}
	return parsed
}

// sanitizeIdentifier rewrites every character outside [A-Za-z0-9_] to an
// underscore. Two different raw names can sanitize to the same identifier;
// the later binding silently wins.
func sanitizeIdentifier(name string) string {
	return invalidIdentChars.ReplaceAllString(name, "_")
}

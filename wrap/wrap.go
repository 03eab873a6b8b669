// Package wrap turns resolved snippet source into the literal program text a
// backend executes, together with the exact count of generated lines
// prepended ahead of user code. That count is the single source of truth for
// mapping engine-reported line numbers back to the user's snippet, so every
// generated shape keeps its claimed offset equal to the text it produced.
package wrap

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/zakeri-dev/simrun/resolve"
	"github.com/zakeri-dev/simrun/sandbox"
)

// Options carries the request fields wrapping depends on.
type Options struct {
	// Language is the snippet language. Empty defaults to JavaScript.
	Language sandbox.Language

	// Params are the step's input parameters, exposed to the program as
	// `params`. For custom tools the local wrapper additionally declares
	// one binding per top-level key.
	Params map[string]any

	// EnvVars are exposed to the program as `environmentVariables`.
	EnvVars map[string]string

	// Timeout is the execution budget recorded on the program.
	Timeout time.Duration

	// IsCustomTool selects the custom-tool header for the local wrapper.
	IsCustomTool bool
}

func (o Options) language() sandbox.Language {
	if o.Language == "" {
		return sandbox.LanguageJavaScript
	}
	return o.Language
}

// Local wraps resolved JavaScript for the in-process backend. The program
// text is an async IIFE with a catch/rethrow footer; context variables are
// not inlined because the local backend injects them as VM bindings, so the
// prologue count is always zero. For custom tools the header declares one
// `const <key> = params.<key>;` binding per parameter, in sorted key order.
func Local(resolved resolve.Resolved, opts Options) (sandbox.Program, error) {
	if lang := opts.language(); lang != sandbox.LanguageJavaScript {
		return sandbox.Program{}, fmt.Errorf("%w: local backend runs JavaScript only, got %q", sandbox.ErrUnsupportedLanguage, lang)
	}

	header := []string{
		"(async () => {",
		"  try {",
	}
	if opts.IsCustomTool {
		for _, key := range sortedKeys(opts.Params) {
			header = append(header, fmt.Sprintf("    const %s = params.%s;", key, key))
		}
	}

	footer := []string{
		"  } catch (error) {",
		"    throw error;",
		"  }",
		"})()",
	}

	var b strings.Builder
	b.WriteString(strings.Join(header, "\n"))
	b.WriteString("\n")
	b.WriteString(indent(resolved.Code, "    "))
	b.WriteString("\n")
	b.WriteString(strings.Join(footer, "\n"))

	return sandbox.Program{
		SourceText:        b.String(),
		Language:          sandbox.LanguageJavaScript,
		PrologueLineCount: 0,
		WrapperLineCount:  len(header),
		Timeout:           opts.Timeout,
		Params:            opts.Params,
		EnvVars:           opts.EnvVars,
		ContextVariables:  resolved.ContextVariables,
	}, nil
}

// Remote wraps resolved source for the ephemeral sandbox service. All
// context is inlined as literal prologue text: one line decoding params, one
// line decoding environmentVariables, then one line per context variable, in
// sorted identifier order. The epilogue invokes the wrapped body and prints
// its return value to stdout behind [sandbox.ResultMarker]; epilogue lines
// follow user code and never count toward the offset.
func Remote(resolved resolve.Resolved, opts Options) (sandbox.Program, error) {
	lang := opts.language()
	switch lang {
	case sandbox.LanguageJavaScript:
		return remoteJavaScript(resolved, opts)
	case sandbox.LanguagePython:
		return remotePython(resolved, opts)
	default:
		return sandbox.Program{}, fmt.Errorf("%w: %q", sandbox.ErrUnsupportedLanguage, lang)
	}
}

func remoteJavaScript(resolved resolve.Resolved, opts Options) (sandbox.Program, error) {
	prologue, err := prologueLines(resolved, opts, func(name, literal string) string {
		return fmt.Sprintf("const %s = JSON.parse(%s);", name, literal)
	})
	if err != nil {
		return sandbox.Program{}, err
	}

	header := []string{
		"const __execute = async () => {",
		"  try {",
		"    const __result = await (async () => {",
	}
	epilogue := []string{
		"    })();",
		fmt.Sprintf("    console.log(%q + JSON.stringify(__result === undefined ? null : __result));", sandbox.ResultMarker),
		"    return __result;",
		"  } catch (error) {",
		"    throw error;",
		"  }",
		"};",
		"__execute();",
	}

	source := assemble(prologue, header, indent(resolved.Code, "      "), epilogue)
	return sandbox.Program{
		SourceText:        source,
		Language:          sandbox.LanguageJavaScript,
		PrologueLineCount: len(prologue),
		WrapperLineCount:  len(header),
		Timeout:           opts.Timeout,
		Params:            opts.Params,
		EnvVars:           opts.EnvVars,
		ContextVariables:  resolved.ContextVariables,
	}, nil
}

func remotePython(resolved resolve.Resolved, opts Options) (sandbox.Program, error) {
	prologue, err := prologueLines(resolved, opts, func(name, literal string) string {
		return fmt.Sprintf("%s = json.loads(%s)", name, literal)
	})
	if err != nil {
		return sandbox.Program{}, err
	}
	// The json module must be in scope before the first decode; folding the
	// import into that line keeps the prologue at one line per item.
	prologue[0] = "import json; " + prologue[0]

	header := []string{
		"def __execute():",
	}
	epilogue := []string{
		"__result = __execute()",
		fmt.Sprintf("print(%q + json.dumps(__result))", sandbox.ResultMarker),
	}

	source := assemble(prologue, header, indent(resolved.Code, "    "), epilogue)
	return sandbox.Program{
		SourceText:        source,
		Language:          sandbox.LanguagePython,
		PrologueLineCount: len(prologue),
		WrapperLineCount:  len(header),
		Timeout:           opts.Timeout,
		Params:            opts.Params,
		EnvVars:           opts.EnvVars,
		ContextVariables:  resolved.ContextVariables,
	}, nil
}

// prologueLines builds the context-decoding prologue: params, then
// environment variables, then each context variable in sorted order. decode
// renders one assignment line from an identifier and a string literal
// holding JSON text.
func prologueLines(resolved resolve.Resolved, opts Options, decode func(name, literal string) string) ([]string, error) {
	paramsLit, err := jsonLiteral(nonNilMap(opts.Params))
	if err != nil {
		return nil, fmt.Errorf("encoding params: %w", err)
	}
	envLit, err := jsonLiteral(nonNilEnv(opts.EnvVars))
	if err != nil {
		return nil, fmt.Errorf("encoding environment variables: %w", err)
	}

	lines := []string{
		decode("params", paramsLit),
		decode("environmentVariables", envLit),
	}
	for _, name := range sortedKeys(resolved.ContextVariables) {
		lit, err := jsonLiteral(resolved.ContextVariables[name])
		if err != nil {
			return nil, fmt.Errorf("encoding context variable %s: %w", name, err)
		}
		lines = append(lines, decode(name, lit))
	}
	return lines, nil
}

// jsonLiteral renders v as a quoted string literal containing v's JSON
// encoding. The literal is valid source in both JavaScript and Python, and
// marshaling escapes newlines, so the result always occupies a single line.
func jsonLiteral(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	lit, err := json.Marshal(string(raw))
	if err != nil {
		return "", err
	}
	return string(lit), nil
}

// assemble joins program sections with newlines. Every section contributes
// its exact line count; user code is included verbatim apart from the
// uniform indent.
func assemble(prologue, header []string, body string, epilogue []string) string {
	parts := make([]string, 0, len(prologue)+len(header)+1+len(epilogue))
	parts = append(parts, prologue...)
	parts = append(parts, header...)
	parts = append(parts, body)
	parts = append(parts, epilogue...)
	return strings.Join(parts, "\n")
}

// indent prefixes every non-blank line of code. Indentation never changes
// the line count.
func indent(code, prefix string) string {
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func nonNilEnv(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

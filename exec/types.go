package exec

import (
	"time"

	"github.com/zakeri-dev/simrun/resolve"
	"github.com/zakeri-dev/simrun/sandbox"
	"github.com/zakeri-dev/simrun/translate"
)

// Request specifies a snippet execution.
type Request struct {
	// Code is the source to execute. It may contain workflow references:
	// <variable.NAME> workflow variables, {{NAME}} environment variables,
	// and <block.path> tags.
	Code string `json:"code"`

	// Language is the snippet language.
	// If empty, JavaScript is assumed.
	Language sandbox.Language `json:"language,omitempty"`

	// Params are the call parameters. The snippet sees them as the
	// `params` binding, and tag references resolve against them.
	Params map[string]any `json:"params,omitempty"`

	// Timeout is the execution budget. Zero means the dispatcher default;
	// budgets above the configured maximum are clamped down to it.
	Timeout time.Duration `json:"timeout,omitempty"`

	// PreferLocal routes JavaScript to the local backend when set.
	PreferLocal bool `json:"preferLocal,omitempty"`

	// EnvVars supply {{NAME}} references and the environmentVariables
	// binding.
	EnvVars map[string]string `json:"envVars,omitempty"`

	// BlockData holds upstream block outputs addressed by tag paths.
	BlockData map[string]any `json:"blockData,omitempty"`

	// BlockNameMapping maps display block names to BlockData identifiers.
	BlockNameMapping map[string]string `json:"blockNameMapping,omitempty"`

	// WorkflowVariables are the typed workflow values that
	// <variable.NAME> references resolve against, keyed by variable id.
	WorkflowVariables map[string]resolve.Variable `json:"workflowVariables,omitempty"`

	// IsCustomTool marks custom tool bodies: params are additionally
	// unpacked into top-level constants, and execution is local.
	IsCustomTool bool `json:"isCustomTool,omitempty"`
}

// language returns the effective snippet language.
func (r Request) language() sandbox.Language {
	if r.Language == "" {
		return sandbox.LanguageJavaScript
	}
	return r.Language
}

// Result contains the outcome of a snippet execution.
type Result struct {
	// Success reports whether the snippet ran to completion.
	Success bool `json:"success"`

	// Result is the snippet's structured return value. Nil on failure and
	// when the snippet produced no result.
	Result any `json:"result"`

	// Stdout is the accumulated standard output. Output written before a
	// failure is preserved.
	Stdout string `json:"stdout"`

	// ExecutionTimeMs is the wall time of the backend invocation in
	// milliseconds. Zero when execution never started.
	ExecutionTimeMs int64 `json:"executionTimeMs"`

	// Error is the user-facing error message. Empty on success.
	Error string `json:"error,omitempty"`

	// Debug carries positional diagnostics for failed executions.
	Debug *translate.CodeError `json:"debug,omitempty"`
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zakeri-dev/simrun/exec"
	"github.com/zakeri-dev/simrun/sandbox"
	"github.com/zakeri-dev/simrun/sandbox/local"
	"github.com/zakeri-dev/simrun/sandbox/remote"
)

var runFlags struct {
	language    string
	contextFile string
	timeout     time.Duration
	preferLocal bool
	customTool  bool
	remoteURL   string
	remoteToken string
	asJSON      bool
}

var runCmd = &cobra.Command{
	Use:   "run [snippet-file]",
	Short: "Execute a snippet and print its result",
	Long: `Execute a snippet file and print its result.

The snippet may reference workflow context: <variable.NAME> for workflow
variables, {{NAME}} for environment variables, and <block.path> for upstream
block outputs. Provide the context with --context; references that resolve
to nothing become empty strings, never errors.

Pass "-" as the snippet file to read the snippet from stdin.

Exit codes:
	0 = snippet executed successfully
	1 = snippet failed (compile, runtime, timeout, or transport)
	2 = invalid usage or configuration

Examples:
  # Run a snippet with step parameters
  simrun run snippet.js --context workflow.yaml

  # Force in-process execution even with a remote service configured
  simrun run snippet.js --remote-url https://sandbox.internal:8400 --prefer-local

  # Custom tool calling convention: params bound as top-level constants
  simrun run tool.js --context args.yaml --custom-tool

  # Machine-readable result
  simrun run snippet.js --json
`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := readSnippet(args[0])
		if err != nil {
			return err
		}
		lang, err := snippetLanguage(runFlags.language, args[0])
		if err != nil {
			return err
		}
		wctx, err := loadContext(runFlags.contextFile)
		if err != nil {
			return err
		}
		d, err := newDispatcher()
		if err != nil {
			return err
		}

		res := d.Execute(context.Background(), exec.Request{
			Code:              code,
			Language:          lang,
			Params:            wctx.Params,
			Timeout:           runFlags.timeout,
			PreferLocal:       runFlags.preferLocal,
			EnvVars:           wctx.EnvVars,
			BlockData:         wctx.BlockData,
			BlockNameMapping:  wctx.BlockNameMapping,
			WorkflowVariables: wctx.workflowVariables(),
			IsCustomTool:      runFlags.customTool,
		})

		if err := printResult(cmd.OutOrStdout(), res, runFlags.asJSON); err != nil {
			return err
		}
		if !res.Success {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runFlags.language, "language", "l", "", "Snippet language: javascript or python (default: inferred from the file extension)")
	runCmd.Flags().StringVarP(&runFlags.contextFile, "context", "c", "", "YAML file with params, envVars, blockData, blockNameMapping, and variables")
	runCmd.Flags().DurationVar(&runFlags.timeout, "timeout", 0, "Execution budget (default 10s)")
	runCmd.Flags().BoolVar(&runFlags.preferLocal, "prefer-local", false, "Run JavaScript in-process even when a remote service is configured")
	runCmd.Flags().BoolVar(&runFlags.customTool, "custom-tool", false, "Bind each param as a top-level constant (custom tool calling convention)")
	runCmd.Flags().StringVar(&runFlags.remoteURL, "remote-url", "", "Base URL of the sandbox service (enables the remote backend)")
	runCmd.Flags().StringVar(&runFlags.remoteToken, "remote-token", "", "Bearer token for the sandbox service (default: SIMRUN_REMOTE_TOKEN)")
	runCmd.Flags().BoolVar(&runFlags.asJSON, "json", false, "Print the full result as JSON")
}

// readSnippet loads the snippet text from a file, or from stdin when the
// path is "-".
func readSnippet(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// snippetLanguage decides the language from the --language flag, falling
// back to the file extension, falling back to JavaScript.
func snippetLanguage(flag, path string) (sandbox.Language, error) {
	switch strings.ToLower(flag) {
	case "javascript", "js":
		return sandbox.LanguageJavaScript, nil
	case "python", "py":
		return sandbox.LanguagePython, nil
	case "":
	default:
		return "", fmt.Errorf("unknown language %q (supported: javascript, python)", flag)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".py":
		return sandbox.LanguagePython, nil
	default:
		return sandbox.LanguageJavaScript, nil
	}
}

// newDispatcher wires the configured backends. The local backend is always
// available; the remote backend is added when --remote-url is set.
func newDispatcher() (*exec.Dispatcher, error) {
	logger := verboseLogger()

	opts := exec.Options{PreferLocal: runFlags.preferLocal}
	localCfg := local.Config{}
	if logger != nil {
		opts.Logger = logfAdapter{l: logger}
		localCfg.Logger = logfAdapter{l: logger}
	}
	opts.Local = local.New(localCfg)

	if runFlags.remoteURL != "" {
		var clientOpts []remote.HTTPOption
		if token := remoteToken(); token != "" {
			clientOpts = append(clientOpts, remote.WithToken(token))
		}
		cfg := remote.Config{Client: remote.NewHTTPClient(runFlags.remoteURL, clientOpts...)}
		if logger != nil {
			cfg.Logger = logger
		}
		inv, err := remote.New(cfg)
		if err != nil {
			return nil, err
		}
		opts.Remote = inv
	}

	return exec.New(opts)
}

// remoteToken prefers the --remote-token flag over the environment.
func remoteToken() string {
	if runFlags.remoteToken != "" {
		return runFlags.remoteToken
	}
	return os.Getenv("SIMRUN_REMOTE_TOKEN")
}

// printResult renders an execution result. Snippet stdout goes first, raw,
// so piped output stays usable; the result line and timing follow.
func printResult(w io.Writer, res exec.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	if res.Stdout != "" {
		fmt.Fprint(w, res.Stdout)
		if !strings.HasSuffix(res.Stdout, "\n") {
			fmt.Fprintln(w)
		}
	}

	if !res.Success {
		color.New(color.FgRed, color.Bold).Fprint(w, "error: ")
		fmt.Fprintln(w, res.Error)
		fmt.Fprintf(w, "elapsed: %dms\n", res.ExecutionTimeMs)
		return nil
	}

	color.New(color.Bold).Fprint(w, "result: ")
	fmt.Fprintln(w, formatResult(res.Result))
	fmt.Fprintf(w, "elapsed: %dms\n", res.ExecutionTimeMs)
	return nil
}

// formatResult renders a result value as compact JSON, falling back to the
// Go representation for values JSON cannot express.
func formatResult(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

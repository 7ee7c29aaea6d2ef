package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"mercator-hq/parley/pkg/cli"
	"mercator-hq/parley/pkg/feedback"

	"github.com/spf13/cobra"
)

var checkFlags struct {
	tools  string
	batch  string
	format string
}

var checkCmd = &cobra.Command{
	Use:   "check <tool> [payload.json|-]",
	Short: "Validate a tool call without serving",
	Long: `Run one tool call, or a batch of calls, through the same validation the
server performs and print the result.

The payload is a JSON object of arguments read from a file, or from stdin
when the path is "-" or omitted. With --batch, every line of a JSONL file is
one call. The command exits with status 3 when any call is rejected.

Examples:
  # Check a single call
  parley check book_flight call.json

  # Read the call from stdin
  echo '{"passengers":2,"departure":"lhr"}' | parley check book_flight

  # Check many calls and print JSON
  parley check book_flight --batch calls.jsonl --format json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&checkFlags.tools, "tools", "t", "", "tools file (default from config)")
	checkCmd.Flags().StringVar(&checkFlags.batch, "batch", "", "JSONL file with one call per line")
	checkCmd.Flags().StringVar(&checkFlags.format, "format", "text", "output format: text, json")
}

// CheckReport is the result of a single checked call.
type CheckReport struct {
	Tool   string               `json:"tool"`
	Result *feedback.CallResult `json:"result"`
}

// Text renders the summary followed by the wire form of the result.
func (r CheckReport) Text() string {
	wire, err := r.Result.JSON()
	if err != nil {
		wire = err.Error()
	}
	return fmt.Sprintf("%s: %s\n%s", r.Tool, r.Result.Summary(), wire)
}

// BatchReport is the result of a batch of checked calls.
type BatchReport struct {
	Tool     string      `json:"tool"`
	Total    int         `json:"total"`
	Accepted int         `json:"accepted"`
	Rejected int         `json:"rejected"`
	Calls    []BatchCall `json:"rejected_calls,omitempty"`
}

// BatchCall describes one rejected line of a batch.
type BatchCall struct {
	Line   int                  `json:"line"`
	Result *feedback.CallResult `json:"result"`
}

// Text renders the batch totals and each rejected line.
func (r BatchReport) Text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d call(s), %d accepted, %d rejected", r.Tool, r.Total, r.Accepted, r.Rejected)
	for _, c := range r.Calls {
		fmt.Fprintf(&sb, "\n\nline %d %s", c.Line, c.Result.Summary())
	}
	return sb.String()
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cli.NewFormatter(cli.OutputFormat(checkFlags.format))
	if err != nil {
		return cli.NewConfigError("--format", err.Error(), nil)
	}
	if checkFlags.batch != "" && len(args) > 1 {
		return cli.NewConfigError("--batch", "cannot be combined with a payload argument", nil)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if checkFlags.tools != "" {
		cfg.Tools.File = checkFlags.tools
	}

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	a, err := newApp(ctx, cfg, appOptions{})
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	if err := a.loadTools(cfg.Tools.File); err != nil {
		return cli.NewCommandError("check", err)
	}
	name := args[0]
	t, err := a.registry.Get(name)
	if err != nil {
		return cli.NewCommandError("check", err)
	}

	if checkFlags.batch != "" {
		var progress cli.ProgressReporter
		if cli.OutputFormat(checkFlags.format) != cli.FormatJSON {
			progress = cli.NewProgressReporter(cmd.ErrOrStderr())
		}
		report, err := checkBatch(ctx, a, name, checkFlags.batch, progress)
		if err != nil {
			return cli.NewCommandError("check", err)
		}
		if err := format.FormatTo(cmd.OutOrStdout(), report); err != nil {
			return err
		}
		if report.Rejected > 0 {
			return &cli.CommandError{
				Command: "check",
				Err:     fmt.Errorf("%d of %d call(s) rejected", report.Rejected, report.Total),
				Code:    cli.ExitRejected,
			}
		}
		return nil
	}

	path := "-"
	if len(args) > 1 {
		path = args[1]
	}
	payload, err := readPayload(path, cmd.InOrStdin())
	if err != nil {
		return cli.NewCommandError("check", err)
	}
	callArgs, err := decodeArgs(payload)
	if err != nil {
		return cli.NewCommandError("check", err)
	}

	result, err := t.Invoke(ctx, callArgs)
	if err != nil {
		return cli.NewCommandError("check", err)
	}
	if err := format.FormatTo(cmd.OutOrStdout(), CheckReport{Tool: name, Result: result}); err != nil {
		return err
	}
	if !result.IsAccepted() {
		return &cli.CommandError{
			Command: "check",
			Err:     fmt.Errorf("call rejected: %s", strings.Join(result.InvalidFields(), ", ")),
			Code:    cli.ExitRejected,
		}
	}
	return nil
}

func checkBatch(ctx context.Context, a *app, name, path string, progress cli.ProgressReporter) (BatchReport, error) {
	report := BatchReport{Tool: name}

	data, err := os.ReadFile(path)
	if err != nil {
		return report, fmt.Errorf("failed to read batch: %w", err)
	}

	type call struct {
		line int
		args map[string]any
	}
	var calls []call
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 10<<20)
	for line := 1; scanner.Scan(); line++ {
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		args, err := decodeArgs(text)
		if err != nil {
			return report, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		calls = append(calls, call{line: line, args: args})
	}
	if err := scanner.Err(); err != nil {
		return report, fmt.Errorf("failed to read batch: %w", err)
	}

	if progress != nil {
		progress.Start(int64(len(calls)))
		defer progress.Finish()
	}
	for i, c := range calls {
		result, err := a.registry.Invoke(ctx, name, c.args)
		if err != nil {
			return report, fmt.Errorf("%s:%d: %w", path, c.line, err)
		}
		report.Total++
		if result.IsAccepted() {
			report.Accepted++
		} else {
			report.Rejected++
			report.Calls = append(report.Calls, BatchCall{Line: c.line, Result: result})
		}
		if progress != nil {
			progress.Update(int64(i + 1))
		}
	}
	return report, nil
}

func readPayload(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	return data, nil
}

// decodeArgs parses a JSON object of call arguments. Empty input is an
// empty call.
func decodeArgs(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(data, &args); err != nil {
		return nil, fmt.Errorf("payload is not a JSON object: %w", err)
	}
	if args == nil {
		return nil, errors.New("payload is not a JSON object: null")
	}
	return args, nil
}

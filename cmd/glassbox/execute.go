package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/glassbox-labs/compliance-engine/pkg/cli"
	"github.com/glassbox-labs/compliance-engine/pkg/compliance/execcontext"
	"github.com/glassbox-labs/compliance-engine/pkg/compliance/ruleengine"
)

var executeFlags struct {
	contextFile string
	outFile     string
	format      string
}

var executeCmd = &cobra.Command{
	Use:   "execute <bundle>",
	Short: "Execute a DecisionBundle against a context",
	Long: `Run every rule in a DecisionBundle against the data in a context
file and print the aggregate result.

Examples:
  glassbox execute bundle.json -c context.json
  glassbox execute bundle.json -c context.json -o result.json
  glassbox execute bundle.json -c context.json -f csv -o result.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runExecute,
}

func init() {
	rootCmd.AddCommand(executeCmd)
	executeCmd.Flags().StringVarP(&executeFlags.contextFile, "context", "c", "", "JSON file of context data (default: empty context)")
	executeCmd.Flags().StringVarP(&executeFlags.outFile, "out", "o", "", "write the result here instead of stdout")
	executeCmd.Flags().StringVarP(&executeFlags.format, "format", "f", "json", "output format: text, json, or csv")
}

func runExecute(cmd *cobra.Command, args []string) error {
	b, err := loadBundleFile(args[0])
	if err != nil {
		return cli.NewCommandError("execute", fmt.Errorf("load bundle: %w", err))
	}

	data, err := loadContextData(executeFlags.contextFile)
	if err != nil {
		return cli.NewCommandError("execute", fmt.Errorf("load context: %w", err))
	}

	execCtx := execcontext.New(data, time.Now().UTC().Format(time.RFC3339))
	engine := ruleengine.New(nil)
	result := engine.Execute(b, execCtx)

	if err := writeFormatted(executeFlags.outFile, executeFlags.format, &executionResult{result}); err != nil {
		return cli.NewCommandError("execute", err)
	}
	return nil
}

// executionResult adapts a ruleengine.Result for CSV export, one row per
// rule. It embeds *ruleengine.Result unchanged so JSON output is
// identical to marshaling the result directly.
type executionResult struct {
	*ruleengine.Result
}

func (r *executionResult) CSVHeader() []string {
	return []string{"rule_id", "result", "reason", "error", "cached"}
}

func (r *executionResult) CSVRows() [][]string {
	rows := make([][]string, 0, len(r.RuleResults))
	for _, rr := range r.RuleResults {
		rows = append(rows, []string{
			rr.RuleID,
			strconv.FormatBool(rr.Result),
			rr.Reason,
			rr.Error,
			strconv.FormatBool(rr.Cached),
		})
	}
	return rows
}

// writeFormatted writes data to path (or stdout if empty) using the
// formatter for the named output format.
func writeFormatted(path, format string, data interface{}) error {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return cli.NewFormatter(cli.OutputFormat(format)).FormatTo(out, data)
}

func loadContextData(path string) (map[string]interface{}, error) {
	if path == "" {
		return map[string]interface{}{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("invalid context JSON: %w", err)
	}
	return data, nil
}

// writeJSONResult is the JSON-only convenience used by commands whose
// output (a parsed rule AST, a scaffolded bundle) has no CSV shape.
func writeJSONResult(path string, data interface{}) error {
	return writeFormatted(path, string(cli.FormatJSON), data)
}

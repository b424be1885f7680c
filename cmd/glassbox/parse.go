package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/glassbox-labs/compliance-engine/pkg/cli"
	"github.com/glassbox-labs/compliance-engine/pkg/compliance/dsl"
)

var parseFlags struct {
	contextFile string
	outFile     string
}

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse (and optionally evaluate) a single DSL rule",
	Long: `Parse one compliance DSL rule and print its AST. Reads from file
if given, otherwise from stdin.

If -c is given, the parsed rule is evaluated against the context file's
data instead, and the resulting outcome is printed.

Examples:
  echo 'WHEN age >= 18 THEN MUST eligible = TRUE' | glassbox parse
  glassbox parse rule.dsl -c context.json -o outcome.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVarP(&parseFlags.contextFile, "context", "c", "", "evaluate the parsed rule against this JSON context instead of just printing its AST")
	parseCmd.Flags().StringVarP(&parseFlags.outFile, "out", "o", "", "write output here instead of stdout")
}

func runParse(cmd *cobra.Command, args []string) error {
	source, err := readDSLSource(args)
	if err != nil {
		return cli.NewCommandError("parse", err)
	}

	rule, err := dsl.Parse(source)
	if err != nil {
		return cli.NewCommandError("parse", fmt.Errorf("parse failed: %w", err))
	}

	if parseFlags.contextFile != "" {
		data, err := loadContextData(parseFlags.contextFile)
		if err != nil {
			return cli.NewCommandError("parse", fmt.Errorf("load context: %w", err))
		}
		outcome := dsl.Evaluate(rule, data)
		return writeJSONResult(parseFlags.outFile, outcome)
	}

	return writeJSONResult(parseFlags.outFile, rule)
}

func readDSLSource(args []string) (string, error) {
	if len(args) == 1 {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(raw), nil
}

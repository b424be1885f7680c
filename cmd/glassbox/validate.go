package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glassbox-labs/compliance-engine/pkg/cli"
	"github.com/glassbox-labs/compliance-engine/pkg/compliance/bundle"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a DecisionBundle file",
	Long: `Parse a DecisionBundle file and report any structural or semantic
errors: unsupported version, invalid domain, malformed rule or decision
shapes, missing required metadata fields.

Examples:
  glassbox validate bundle.json
  glassbox validate bundle.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]

	b, err := loadBundleFile(path)
	if err != nil {
		fmt.Printf("✗ %s\n", path)
		fmt.Printf("  %v\n", err)
		return cli.NewCommandError("validate", err)
	}

	fmt.Printf("✓ %s\n", path)
	fmt.Printf("  bundle: %s (%s)\n", b.Metadata.ID, b.Metadata.Name)
	fmt.Printf("  rules: %d, decisions: %d\n", len(b.Rules), len(b.Decisions))
	return nil
}

// loadBundleFile parses a bundle from disk, dispatching on extension the
// same way the bundle watcher does.
func loadBundleFile(path string) (*bundle.Bundle, error) {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return bundle.FromFile(path)
	}
	return bundle.FromYAMLFile(path)
}

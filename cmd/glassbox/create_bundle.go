package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glassbox-labs/compliance-engine/pkg/cli"
	"github.com/glassbox-labs/compliance-engine/pkg/compliance/bundle"
)

var createBundleFlags struct {
	name         string
	description  string
	jurisdiction string
	domain       string
	author       string
	tags         []string
	outFile      string
}

var createBundleCmd = &cobra.Command{
	Use:   "create-bundle",
	Short: "Scaffold a new, empty DecisionBundle",
	Long: `Build a new DecisionBundle with a fresh metadata ID and no rules or
decisions, ready to be filled in and validated.

Examples:
  glassbox create-bundle --name "KYC checks" --jurisdiction US --domain finance -o bundle.json`,
	RunE: runCreateBundle,
}

func init() {
	rootCmd.AddCommand(createBundleCmd)
	createBundleCmd.Flags().StringVar(&createBundleFlags.name, "name", "", "bundle name")
	createBundleCmd.Flags().StringVar(&createBundleFlags.description, "description", "", "bundle description")
	createBundleCmd.Flags().StringVar(&createBundleFlags.jurisdiction, "jurisdiction", "", "bundle jurisdiction")
	createBundleCmd.Flags().StringVar(&createBundleFlags.domain, "domain", "general", "bundle domain: finance, health, esg, general")
	createBundleCmd.Flags().StringVar(&createBundleFlags.author, "author", "", "bundle author")
	createBundleCmd.Flags().StringSliceVar(&createBundleFlags.tags, "tag", nil, "bundle tag (repeatable)")
	createBundleCmd.Flags().StringVarP(&createBundleFlags.outFile, "out", "o", "", "write the bundle JSON here instead of stdout")
}

func runCreateBundle(cmd *cobra.Command, args []string) error {
	builder := bundle.NewBuilder().
		SetName(createBundleFlags.name).
		SetDescription(createBundleFlags.description).
		SetJurisdiction(createBundleFlags.jurisdiction).
		SetDomain(createBundleFlags.domain).
		SetAuthor(createBundleFlags.author)

	for _, tag := range createBundleFlags.tags {
		builder.AddTag(tag)
	}

	b, err := builder.Build()
	if err != nil {
		return cli.NewCommandError("create-bundle", err)
	}

	if err := writeJSONResult(createBundleFlags.outFile, b); err != nil {
		return cli.NewCommandError("create-bundle", err)
	}
	if createBundleFlags.outFile != "" {
		fmt.Printf("wrote %s (id %s)\n", createBundleFlags.outFile, b.Metadata.ID)
	}
	return nil
}

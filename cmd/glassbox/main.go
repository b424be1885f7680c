// glassbox is the command-line front end for the compliance rule engine.
//
// It parses and validates DecisionBundle files, executes them against an
// execution context, and offers low-level access to the DSL parser for
// debugging individual rule expressions.
//
// Usage:
//
//	# Validate a bundle file
//	glassbox validate bundle.json
//
//	# Execute a bundle against a context file
//	glassbox execute bundle.json -c context.json -o result.json
//
//	# Parse a single DSL expression from stdin
//	echo 'IF age > 18 THEN eligible = true' | glassbox parse
//
//	# Scaffold a new empty bundle
//	glassbox create-bundle -o bundle.json
//
//	# List every bundle in a directory
//	glassbox list-bundles ./bundles
//
//	# Run as a long-lived service (metrics, retention, hot-reload)
//	glassbox serve --config config.yaml
package main

func main() {
	Execute()
}

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/glassbox-labs/compliance-engine/pkg/compliance/ruleengine"
)

const executableTestBundle = `{
	"version": "1.0",
	"metadata": {
		"id": "bundle-2",
		"name": "executable bundle",
		"description": "exercises execute",
		"created": "2024-01-01T00:00:00Z",
		"jurisdiction": "US",
		"domain": "general"
	},
	"rules": [
		{
			"id": "rule-age",
			"name": "age check",
			"type": "dsl",
			"definition": {"dsl": "WHEN age >= 18 THEN MUST eligible = TRUE"}
		}
	],
	"decisions": []
}`

func TestRunExecute_WritesResultFile(t *testing.T) {
	dir := t.TempDir()
	bundlePath := writeTestBundle(t, dir, "bundle.json", executableTestBundle)
	ctxPath := filepath.Join(dir, "context.json")
	if err := os.WriteFile(ctxPath, []byte(`{"age": 21, "eligible": true}`), 0644); err != nil {
		t.Fatalf("failed to write context fixture: %v", err)
	}
	outPath := filepath.Join(dir, "result.json")

	executeFlags.contextFile = ctxPath
	executeFlags.outFile = outPath
	defer func() { executeFlags.contextFile, executeFlags.outFile = "", "" }()

	if err := runExecute(nil, []string{bundlePath}); err != nil {
		t.Fatalf("runExecute() returned error: %v", err)
	}

	raw, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read result file: %v", err)
	}
	var result ruleengine.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("result file is not valid JSON: %v", err)
	}
	if result.RulesExecuted != 1 || !result.OverallResult {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestRunExecute_EmptyContextWhenFlagUnset(t *testing.T) {
	dir := t.TempDir()
	bundlePath := writeTestBundle(t, dir, "bundle.json", executableTestBundle)
	outPath := filepath.Join(dir, "result.json")

	executeFlags.contextFile = ""
	executeFlags.outFile = outPath
	defer func() { executeFlags.outFile = "" }()

	if err := runExecute(nil, []string{bundlePath}); err != nil {
		t.Fatalf("runExecute() returned error: %v", err)
	}

	raw, _ := os.ReadFile(outPath)
	var result ruleengine.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("result file is not valid JSON: %v", err)
	}
	if result.RulesExecuted != 1 {
		t.Fatalf("expected the rule to still run against an empty context, got %+v", result)
	}
}

func TestRunExecute_CSVFormat(t *testing.T) {
	dir := t.TempDir()
	bundlePath := writeTestBundle(t, dir, "bundle.json", executableTestBundle)
	ctxPath := filepath.Join(dir, "context.json")
	if err := os.WriteFile(ctxPath, []byte(`{"age": 21, "eligible": true}`), 0644); err != nil {
		t.Fatalf("failed to write context fixture: %v", err)
	}
	outPath := filepath.Join(dir, "result.csv")

	executeFlags.contextFile = ctxPath
	executeFlags.outFile = outPath
	executeFlags.format = "csv"
	defer func() {
		executeFlags.contextFile, executeFlags.outFile = "", ""
		executeFlags.format = "json"
	}()

	if err := runExecute(nil, []string{bundlePath}); err != nil {
		t.Fatalf("runExecute() returned error: %v", err)
	}

	raw, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read result file: %v", err)
	}
	const expected = "rule_id,result,reason,error,cached\nrule-age,true,,,false\n"
	if string(raw) != expected {
		t.Fatalf("CSV output = %q, want %q", string(raw), expected)
	}
}

func TestRunExecute_MissingBundle(t *testing.T) {
	executeFlags.contextFile = ""
	executeFlags.outFile = ""
	if err := runExecute(nil, []string{"/nonexistent/bundle.json"}); err == nil {
		t.Fatal("runExecute() expected an error for a missing bundle file")
	}
}

package main

import "testing"

func TestRootCommandRegistersSubcommands(t *testing.T) {
	want := []string{"validate", "execute", "parse", "create-bundle", "list-bundles", "serve"}
	got := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		got[c.Name()] = true
	}
	for _, name := range want {
		if !got[name] {
			t.Errorf("expected rootCmd to register subcommand %q", name)
		}
	}
}

func TestRootCommandUse(t *testing.T) {
	if rootCmd.Use != "glassbox" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "glassbox")
	}
}

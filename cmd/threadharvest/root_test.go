package main

import (
	"testing"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "threadharvest" {
			t.Errorf("expected use 'threadharvest', got %q", cmd.Use)
		}
	})

	t.Run("has descriptions", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has global flags", func(t *testing.T) {
		t.Parallel()
		verbose := cmd.PersistentFlags().Lookup("verbose")
		if verbose == nil {
			t.Fatal("expected verbose flag")
		}
		if verbose.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", verbose.Shorthand)
		}
		if verbose.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", verbose.DefValue)
		}
		if cmd.PersistentFlags().Lookup("log-json") == nil {
			t.Error("expected log-json flag")
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		want := map[string]bool{"run": false, "history": false, "init": false, "version": false}
		for _, sub := range cmd.Commands() {
			if _, ok := want[sub.Name()]; ok {
				want[sub.Name()] = true
			}
		}
		for name, found := range want {
			if !found {
				t.Errorf("expected %s subcommand", name)
			}
		}
	})

	t.Run("silences usage and errors", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceUsage {
			t.Error("expected SilenceUsage to be true")
		}
		if !cmd.SilenceErrors {
			t.Error("expected SilenceErrors to be true")
		}
	})
}

func TestGetPersistentFlags(t *testing.T) {
	t.Parallel()

	t.Run("returns false when flags are absent", func(t *testing.T) {
		t.Parallel()
		cmd := NewRunCmd()
		if getVerboseFlag(cmd) {
			t.Error("expected verbose to be false")
		}
		if getLogJSONFlag(cmd) {
			t.Error("expected log-json to be false")
		}
	})

	t.Run("reads values from the root command", func(t *testing.T) {
		t.Parallel()
		root := NewRootCmd()
		_ = root.PersistentFlags().Set("verbose", "true")
		_ = root.PersistentFlags().Set("log-json", "true")

		runCmd, _, err := root.Find([]string{"run"})
		if err != nil {
			t.Fatalf("failed to find run command: %v", err)
		}
		if !getVerboseFlag(runCmd) {
			t.Error("expected verbose from root flag")
		}
		if !getLogJSONFlag(runCmd) {
			t.Error("expected log-json from root flag")
		}
	})
}

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/san-kum/esail/internal/config"
)

func subcommand(t *testing.T, name string, args ...string) *cobra.Command {
	t.Helper()
	root := newRootCmd()
	cmd, _, err := root.Find([]string{name})
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatal(err)
	}
	return cmd
}

func TestResolveConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	body := "spacecraft:\n  rpm: 3\nsimulation:\n  iterations: 7\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := subcommand(t, "run", "--preset", "stress", "--config", path, "--rpm", "4")
	cfg, err := resolveConfig(cmd)
	if err != nil {
		t.Fatal(err)
	}

	want := config.GetPreset("stress")
	want.Simulation.Iterations = 7 // file over preset
	want.Spacecraft.RPM = 4        // flag over file
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("resolved config (-want +got):\n%s", diff)
	}
}

func TestResolveConfigDefaults(t *testing.T) {
	cfg, err := resolveConfig(subcommand(t, "live"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(config.DefaultConfig(), cfg); diff != "" {
		t.Errorf("unflagged command should use defaults (-want +got):\n%s", diff)
	}

	if _, err := resolveConfig(subcommand(t, "run", "--preset", "nope")); err == nil {
		t.Error("expected error for unknown preset")
	}
	if _, err := resolveConfig(subcommand(t, "run", "--deploy", "500")); err == nil {
		t.Error("expected validation error")
	}
}

func TestParseValues(t *testing.T) {
	got, err := parseValues([]string{"1,2", " 3 ", "4e3,"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{1, 2, 3, 4000}, got); diff != "" {
		t.Errorf("values (-want +got):\n%s", diff)
	}
	if _, err := parseValues([]string{"a"}); err == nil {
		t.Error("expected parse error")
	}
	if _, err := parseValues([]string{","}); err == nil {
		t.Error("expected error for empty list")
	}
}

package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/esail/internal/config"
	"github.com/san-kum/esail/internal/physics"
)

const script = `
name: reel-out
description: spin up, then deploy in two stages
duration_s: 1
actions:
  - at_s: 0.5
    deploy: 10
    potential_v: 20000
  - at_s: 0
    rpm: 5
    deploy: 5
  - at_s: 0.75
    retract: 3
    iterations: 10
`

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(writeScript(t, script))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sc.Name != "reel-out" || len(sc.Actions) != 3 || sc.Duration != 1 {
		t.Fatalf("unexpected scenario %+v", sc)
	}
	if sc.Actions[0].Potential == nil || *sc.Actions[0].Potential != 20000 || sc.Actions[0].RPM != nil {
		t.Errorf("unexpected first action %+v", sc.Actions[0])
	}

	if _, err := LoadScenario(writeScript(t, "actions:\n  - at_s: -1\n")); !errors.Is(err, physics.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
	if _, err := LoadScenario(writeScript(t, "actions: [")); err == nil {
		t.Error("expected parse error")
	}
}

func TestRunAppliesActionsInTimeOrder(t *testing.T) {
	sc, err := LoadScenario(writeScript(t, script))
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()

	result, s, err := Run(context.Background(), cfg, sc)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.StepsTaken != 60 {
		t.Errorf("scenario duration should give 60 steps, got %d", result.StepsTaken)
	}
	if got := s.Chain().DeployedCount(); got != 12 {
		t.Errorf("expected 5+10-3 = 12 deployed, got %d", got)
	}
	craft, _ := s.Parameters()
	if craft.RPM != 5 || craft.TetherPotential != 20000 || s.Iterations() != 10 {
		t.Errorf("unexpected final parameters rpm %g, %g V, %d iterations", craft.RPM, craft.TetherPotential, s.Iterations())
	}

	// Frames are recorded every 6 steps and the first one before any action
	// fires. The deployment at 0.5 s shows up from the frame at 0.6 s.
	for _, f := range result.Frames {
		switch {
		case f.Time > 0.05 && f.Time < 0.45 && f.Deployed != 5:
			t.Errorf("t=%.2f: expected 5 deployed, got %d", f.Time, f.Deployed)
		case f.Time > 0.55 && f.Time < 0.7 && f.Deployed != 15:
			t.Errorf("t=%.2f: expected 15 deployed, got %d", f.Time, f.Deployed)
		}
	}
	if cfg.Simulation.Duration != config.DefaultDuration {
		t.Error("Run must not modify the caller's config")
	}
}

func TestRunRejectsBadAction(t *testing.T) {
	bad := -5
	sc := &Scenario{Actions: []Action{{At: 0, Iterations: &bad}}}
	_, _, err := Run(context.Background(), config.DefaultConfig(), sc)
	if !errors.Is(err, physics.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds from the action, got %v", err)
	}
	if _, _, err := Run(context.Background(), config.DefaultConfig(), nil); err == nil {
		t.Error("expected error for nil scenario")
	}
}

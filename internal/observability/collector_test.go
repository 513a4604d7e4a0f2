package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/esail/internal/sim"
	"github.com/san-kum/esail/internal/tether"
)

func TestCollectorObservesSimulator(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSolverCollector(reg)
	if err != nil {
		t.Fatalf("NewSolverCollector: %v", err)
	}

	cfg := sim.DefaultConfig()
	cfg.Spacecraft.TetherPotential = 20e3
	chain, err := tether.NewChain(cfg.Spacecraft, 0)
	if err != nil {
		t.Fatal(err)
	}
	s, err := sim.New(chain, cfg, sim.WithObservers(collector))
	if err != nil {
		t.Fatal(err)
	}
	s.Deploy(8)

	if _, err := s.Run(context.Background(), sim.RunConfig{Duration: 0.5, FrameDt: 1.0 / 60, SampleEvery: 1}); err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := testutil.ToFloat64(collector.Steps); got != float64(s.Steps()) {
		t.Errorf("esail_steps_total = %v, want %d", got, s.Steps())
	}
	if got := testutil.ToFloat64(collector.DeployedSegments); got != 8 {
		t.Errorf("esail_deployed_segments = %v, want 8", got)
	}
	if got := testutil.ToFloat64(collector.CoulombForce); got != s.CoulombForce() {
		t.Errorf("esail_coulomb_force_newtons = %v, want %v", got, s.CoulombForce())
	}
	if got := testutil.ToFloat64(collector.TipRadius); got <= 0 {
		t.Errorf("esail_tip_radius_meters = %v, want > 0", got)
	}
}

func TestCollectorReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewSolverCollector(reg)
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewSolverCollector(reg)
	if err != nil {
		t.Fatalf("second registration should reuse metrics: %v", err)
	}

	first.Steps.Inc()
	if got := testutil.ToFloat64(second.Steps); got != 1 {
		t.Errorf("collectors should share the counter, got %v", got)
	}
}

func TestCollectorRejectsIncompatibleMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{Name: "esail_steps_total", Help: "wrong type"}))

	if _, err := NewSolverCollector(reg); err == nil {
		t.Fatal("expected error for incompatible collector")
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSolverCollector(reg)
	if err != nil {
		t.Fatal(err)
	}
	collector.OnStep(sim.Sample{Step: 1, Time: 0.5, Deployed: 3, CoulombForce: 1e-7})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	for _, want := range []string{
		"esail_steps_total 1",
		"esail_deployed_segments 3",
		"esail_simulated_time_seconds 0.5",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestServeExposesMetrics(t *testing.T) {
	c, err := NewSolverCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	c.Steps.Add(3)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	addr, err := c.Serve(ctx, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("serve: %v", err)
	}

	resp, err := http.Get("http://" + addr + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "esail_steps_total 3") {
		t.Errorf("metrics output missing step count:\n%s", body)
	}
}

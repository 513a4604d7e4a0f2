// Package observability exposes solver state as Prometheus metrics.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/esail/internal/sim"
)

// SolverCollector bundles the tether solver metrics. It implements
// sim.Observer so a simulator updates it after every fixed step.
type SolverCollector struct {
	gatherer prometheus.Gatherer

	Steps            prometheus.Counter
	DeployedSegments prometheus.Gauge
	CoulombForce     prometheus.Gauge
	TipRadius        prometheus.Gauge
	MaxStretch       prometheus.Gauge
	SimulatedTime    prometheus.Gauge
}

// NewSolverCollector registers solver metrics against reg, defaulting to the
// global Prometheus registry when nil. Metrics already registered on reg
// are reused.
func NewSolverCollector(reg prometheus.Registerer) (*SolverCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	steps, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "esail_steps_total",
		Help: "Fixed physics steps completed.",
	}), "esail_steps_total")
	if err != nil {
		return nil, err
	}

	gauges := make(map[string]prometheus.Gauge)
	for _, opts := range []prometheus.GaugeOpts{
		{Name: "esail_deployed_segments", Help: "Tether elements currently deployed."},
		{Name: "esail_coulomb_force_newtons", Help: "Total Coulomb drag on the deployed tether."},
		{Name: "esail_tip_radius_meters", Help: "Distance of the tether tip from the spin axis."},
		{Name: "esail_max_stretch_ratio", Help: "Worst relative constraint error after relaxation."},
		{Name: "esail_simulated_time_seconds", Help: "Simulated time of the last completed step."},
	} {
		g, err := registerGauge(reg, prometheus.NewGauge(opts), opts.Name)
		if err != nil {
			return nil, err
		}
		gauges[opts.Name] = g
	}

	return &SolverCollector{
		gatherer:         gatherer,
		Steps:            steps,
		DeployedSegments: gauges["esail_deployed_segments"],
		CoulombForce:     gauges["esail_coulomb_force_newtons"],
		TipRadius:        gauges["esail_tip_radius_meters"],
		MaxStretch:       gauges["esail_max_stretch_ratio"],
		SimulatedTime:    gauges["esail_simulated_time_seconds"],
	}, nil
}

// OnStep records one completed step.
func (c *SolverCollector) OnStep(s sim.Sample) {
	if c == nil {
		return
	}
	c.Steps.Inc()
	c.DeployedSegments.Set(float64(s.Deployed))
	c.CoulombForce.Set(s.CoulombForce)
	c.SimulatedTime.Set(s.Time)
	if s.Chain != nil {
		c.TipRadius.Set(s.Chain.TipRadius(s.Spacecraft.RotationAxis))
		c.MaxStretch.Set(s.Chain.MaxStretch())
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SolverCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

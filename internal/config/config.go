package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/esail/internal/physics"
	"github.com/san-kum/esail/internal/quantity"
	"github.com/san-kum/esail/internal/sim"
)

const (
	DefaultTimestep   = 1.0 / 60
	DefaultIterations = 60
	DefaultDuration   = 10.0
	DefaultFrameRate  = 60.0
)

// Config is the on-disk description of a run. All values are SI; key
// suffixes name the unit.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Spacecraft SpacecraftConfig `yaml:"spacecraft"`
	Tether     TetherConfig     `yaml:"tether"`
	SolarWind  SolarWindConfig  `yaml:"solar_wind"`
}

type SimulationConfig struct {
	Timestep    float64 `yaml:"timestep_s"`
	Iterations  int     `yaml:"iterations"`
	Duration    float64 `yaml:"duration_s"`
	FrameRate   float64 `yaml:"frame_rate_hz"`
	SampleEvery int     `yaml:"sample_every"`
	Deploy      int     `yaml:"deploy"`
	Reserve     int     `yaml:"reserve"`
}

type SpacecraftConfig struct {
	RPM           float64    `yaml:"rpm"`
	RotationAxis  [3]float64 `yaml:"rotation_axis,flow"`
	BodySize      float64    `yaml:"body_size_m"`
	EndMass       float64    `yaml:"end_mass_kg"`
	EndMassRadius float64    `yaml:"end_mass_radius_m"`
}

type TetherConfig struct {
	Length     float64 `yaml:"length_m"`
	Radius     float64 `yaml:"radius_m"`
	Density    float64 `yaml:"density_kg_m3"`
	Potential  float64 `yaml:"potential_v"`
	Resolution float64 `yaml:"resolution_per_m"`
}

type SolarWindConfig struct {
	ElectronDensity     float64    `yaml:"electron_density_m3"`
	ElectronTemperature float64    `yaml:"electron_temperature_ev"`
	Speed               float64    `yaml:"speed_m_s"`
	Direction           [3]float64 `yaml:"direction,flow"`
}

func DefaultConfig() *Config {
	craft := physics.DefaultSpacecraft()
	wind := physics.DefaultSolarWind()
	return &Config{
		Simulation: SimulationConfig{
			Timestep:    DefaultTimestep,
			Iterations:  DefaultIterations,
			Duration:    DefaultDuration,
			FrameRate:   DefaultFrameRate,
			SampleEvery: 6,
		},
		Spacecraft: SpacecraftConfig{
			RPM:          craft.RPM,
			RotationAxis: triple(craft.RotationAxis),
			BodySize:     craft.BodySize,
		},
		Tether: TetherConfig{
			Length:     craft.TetherLength,
			Radius:     craft.TetherRadius,
			Density:    craft.TetherDensity,
			Potential:  craft.TetherPotential,
			Resolution: craft.Resolution,
		},
		SolarWind: SolarWindConfig{
			ElectronDensity:     wind.ElectronDensity,
			ElectronTemperature: wind.ElectronTemperature,
			Speed:               wind.Speed,
			Direction:           triple(wind.Direction),
		},
	}
}

func triple(d quantity.Direction) [3]float64 { return [3]float64{d.X, d.Y, d.Z} }

// Load reads a YAML file over the defaults, so a file only needs the keys
// it changes.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads a YAML file over a copy of base.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

func (c *Config) SpacecraftParameters() physics.SpacecraftParameters {
	a := c.Spacecraft.RotationAxis
	return physics.SpacecraftParameters{
		RPM:             c.Spacecraft.RPM,
		RotationAxis:    quantity.NewDirection(a[0], a[1], a[2]),
		BodySize:        c.Spacecraft.BodySize,
		TetherLength:    c.Tether.Length,
		TetherRadius:    c.Tether.Radius,
		TetherDensity:   c.Tether.Density,
		TetherPotential: c.Tether.Potential,
		Resolution:      c.Tether.Resolution,
		EndMass:         c.Spacecraft.EndMass,
		EndMassRadius:   c.Spacecraft.EndMassRadius,
	}
}

func (c *Config) SolarWindParameters() physics.SolarWindParameters {
	d := c.SolarWind.Direction
	return physics.SolarWindParameters{
		ElectronDensity:     c.SolarWind.ElectronDensity,
		ElectronTemperature: c.SolarWind.ElectronTemperature,
		Speed:               c.SolarWind.Speed,
		Direction:           quantity.NewDirection(d[0], d[1], d[2]),
	}
}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		Spacecraft: c.SpacecraftParameters(),
		SolarWind:  c.SolarWindParameters(),
		Iterations: c.Simulation.Iterations,
		Timestep:   c.Simulation.Timestep,
	}
}

func (c *Config) RunConfig() sim.RunConfig {
	frameDt := 0.0
	if c.Simulation.FrameRate > 0 {
		frameDt = 1 / c.Simulation.FrameRate
	}
	return sim.RunConfig{
		Duration:    c.Simulation.Duration,
		FrameDt:     frameDt,
		SampleEvery: c.Simulation.SampleEvery,
	}
}

// Validate checks every section and the deploy plan against the chain size.
func (c *Config) Validate() error {
	sc := c.SimConfig()
	if err := sc.Validate(); err != nil {
		return err
	}
	if !(c.Simulation.Timestep > 0) {
		return fmt.Errorf("%w: timestep must be positive, got %g s", physics.ErrParameterBounds, c.Simulation.Timestep)
	}
	if err := c.RunConfig().Validate(); err != nil {
		return err
	}
	n := sc.Spacecraft.NumberOfElements()
	if c.Simulation.Reserve < 0 || c.Simulation.Reserve > n {
		return fmt.Errorf("%w: reserve %d outside [0, %d]", physics.ErrParameterBounds, c.Simulation.Reserve, n)
	}
	if c.Simulation.Deploy < 0 || c.Simulation.Deploy > n-c.Simulation.Reserve {
		return fmt.Errorf("%w: cannot deploy %d of %d elements with %d in reserve",
			physics.ErrParameterBounds, c.Simulation.Deploy, n, c.Simulation.Reserve)
	}
	return nil
}

package config

import "sort"

// Presets are named starting points for runs. GetPreset hands out copies.
var Presets = map[string]*Config{
	"lab": func() *Config {
		c := DefaultConfig()
		c.Simulation.Deploy = 19
		c.Simulation.Reserve = 1
		return c
	}(),
	"spin-up": func() *Config {
		c := DefaultConfig()
		c.Spacecraft.RPM = 5
		c.Simulation.Deploy = 20
		c.Simulation.Duration = 20
		return c
	}(),
	"nominal": func() *Config {
		c := DefaultConfig()
		c.Spacecraft.RPM = 2
		c.Tether.Potential = 20e3
		c.Simulation.Deploy = 20
		c.Simulation.Duration = 30
		return c
	}(),
	"stress": func() *Config {
		c := DefaultConfig()
		c.Spacecraft.RPM = 5
		c.Spacecraft.EndMass = 1e-4
		c.Tether.Length = 2
		c.Tether.Resolution = 40
		c.Tether.Potential = 30e3
		c.Simulation.Iterations = 20
		c.Simulation.Deploy = 80
		c.Simulation.Duration = 10
		return c
	}(),
}

func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

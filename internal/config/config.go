// Package config holds the run configuration: grid, time integration and
// the problem record (materials, sources, drive) handed to the field
// system. Everything is an explicit value; no package-level state.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"emfield/internal/maxwell"
)

const (
	DefaultCells     = 256
	DefaultLength    = 8.0
	DefaultDuration  = 40.0
	DefaultMaxSteps  = 100000
	DefaultOrder     = 2
	DefaultFrequency = 0.75
)

type Config struct {
	Grid    GridConfig    `yaml:"grid"`
	Time    TimeConfig    `yaml:"time"`
	Problem ProblemConfig `yaml:"problem"`
}

type GridConfig struct {
	Cells  int     `yaml:"cells"`
	Length float64 `yaml:"length"`
}

type TimeConfig struct {
	Duration float64 `yaml:"duration"`
	MaxSteps int     `yaml:"max_steps"`
	Order    int     `yaml:"order"`
}

type ProblemConfig struct {
	Frequency  float64        `yaml:"frequency"`
	Drive      string         `yaml:"drive"` // "", "sine" or "gauss"
	Initial    *InitialConfig `yaml:"initial,omitempty"`
	Dielectric *SlabConfig    `yaml:"dielectric,omitempty"`
	Permeable  *ShellConfig   `yaml:"permeable,omitempty"`
	Conductor  *BlockConfig   `yaml:"conductor,omitempty"`
	Current    *SourceConfig  `yaml:"current,omitempty"`
}

// InitialConfig seeds the E field with a gaussian bump before stepping.
type InitialConfig struct {
	Center    float64 `yaml:"center"`
	Width     float64 `yaml:"width"`
	Amplitude float64 `yaml:"amplitude"`
}

type SlabConfig struct {
	Center       float64 `yaml:"center"`
	HalfWidth    float64 `yaml:"half_width"`
	Permittivity float64 `yaml:"permittivity"`
}

type ShellConfig struct {
	Center       float64 `yaml:"center"`
	Inner        float64 `yaml:"inner"`
	Outer        float64 `yaml:"outer"`
	Permeability float64 `yaml:"permeability"`
}

type BlockConfig struct {
	Center       float64 `yaml:"center"`
	HalfWidth    float64 `yaml:"half_width"`
	Conductivity float64 `yaml:"conductivity"`
}

type SourceConfig struct {
	Center    float64 `yaml:"center"`
	HalfWidth float64 `yaml:"half_width"`
	Amplitude float64 `yaml:"amplitude"`
	Frequency float64 `yaml:"frequency"`
}

func DefaultConfig() *Config {
	return &Config{
		Grid: GridConfig{Cells: DefaultCells, Length: DefaultLength},
		Time: TimeConfig{
			Duration: DefaultDuration,
			MaxSteps: DefaultMaxSteps,
			Order:    DefaultOrder,
		},
		Problem: ProblemConfig{Frequency: DefaultFrequency},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
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

// ToProblem converts the configuration into the field system's problem
// record.
func (c *Config) ToProblem() (maxwell.Problem, error) {
	p := maxwell.Problem{
		Cells:  c.Grid.Cells,
		Length: c.Grid.Length,
	}
	switch c.Problem.Drive {
	case "":
	case "sine":
		p.Drive = &maxwell.BoundaryDrive{Kind: maxwell.DriveSine, Frequency: c.Problem.Frequency}
	case "gauss":
		p.Drive = &maxwell.BoundaryDrive{Kind: maxwell.DriveGaussian, Frequency: c.Problem.Frequency}
	default:
		return maxwell.Problem{}, fmt.Errorf("config: unknown drive %q", c.Problem.Drive)
	}
	if s := c.Problem.Dielectric; s != nil {
		p.Slab = &maxwell.DielectricSlab{
			Center: s.Center, HalfWidth: s.HalfWidth, Permittivity: s.Permittivity,
		}
	}
	if s := c.Problem.Permeable; s != nil {
		p.Shell = &maxwell.PermeableShell{
			Center: s.Center, Inner: s.Inner, Outer: s.Outer, Permeability: s.Permeability,
		}
	}
	if b := c.Problem.Conductor; b != nil {
		p.Conductor = &maxwell.ConductiveBlock{
			Center: b.Center, HalfWidth: b.HalfWidth, Conductivity: b.Conductivity,
		}
	}
	if s := c.Problem.Current; s != nil {
		freq := s.Frequency
		if freq == 0 {
			freq = c.Problem.Frequency
		}
		p.Source = &maxwell.CurrentPulse{
			Center: s.Center, HalfWidth: s.HalfWidth, Amplitude: s.Amplitude, Frequency: freq,
		}
	}
	return p, nil
}

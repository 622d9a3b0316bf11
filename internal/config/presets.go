package config

// Presets are ready-made problem setups. "vacuum" carries an initial
// pulse so a source-free run has something to conserve.
var Presets = map[string]*Config{
	"vacuum": {
		Grid: GridConfig{Cells: 256, Length: 8.0},
		Time: TimeConfig{Duration: 40.0, MaxSteps: 100000, Order: 2},
		Problem: ProblemConfig{
			Initial: &InitialConfig{Center: 4.0, Width: 0.5, Amplitude: 1.0},
		},
	},
	"driven": {
		Grid: GridConfig{Cells: 256, Length: 8.0},
		Time: TimeConfig{Duration: 40.0, MaxSteps: 100000, Order: 2},
		Problem: ProblemConfig{
			Frequency: 0.75,
			Drive:     "sine",
		},
	},
	"pulse": {
		Grid: GridConfig{Cells: 512, Length: 8.0},
		Time: TimeConfig{Duration: 40.0, MaxSteps: 100000, Order: 2},
		Problem: ProblemConfig{
			Frequency: 0.75,
			Drive:     "gauss",
		},
	},
	"dielectric": {
		Grid: GridConfig{Cells: 512, Length: 8.0},
		Time: TimeConfig{Duration: 40.0, MaxSteps: 100000, Order: 2},
		Problem: ProblemConfig{
			Frequency:  0.75,
			Drive:      "gauss",
			Dielectric: &SlabConfig{Center: 5.0, HalfWidth: 1.0, Permittivity: 4.0},
		},
	},
	"lossy": {
		Grid: GridConfig{Cells: 256, Length: 8.0},
		Time: TimeConfig{Duration: 40.0, MaxSteps: 100000, Order: 2},
		Problem: ProblemConfig{
			Initial:   &InitialConfig{Center: 3.0, Width: 0.5, Amplitude: 1.0},
			Conductor: &BlockConfig{Center: 6.0, HalfWidth: 1.0, Conductivity: 2.0},
		},
	},
	"current": {
		Grid: GridConfig{Cells: 256, Length: 8.0},
		Time: TimeConfig{Duration: 40.0, MaxSteps: 100000, Order: 2},
		Problem: ProblemConfig{
			Frequency: 0.75,
			Current:   &SourceConfig{Center: 4.0, HalfWidth: 0.25, Amplitude: 1.0},
		},
	},
}

func GetPreset(name string) *Config {
	return Presets[name]
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}

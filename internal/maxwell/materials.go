package maxwell

import "math"

// Boundary drive kinds.
const (
	DriveSine = iota
	DriveGaussian
)

// Problem describes geometry, materials, sources and drive for a run. It
// is an explicit record handed to NewSystem; nothing here lives in
// process-wide state. Material parameters are relative to a normalized
// vacuum (unit permittivity, permeability and wave speed).
type Problem struct {
	Cells  int
	Length float64

	Slab      *DielectricSlab
	Shell     *PermeableShell
	Conductor *ConductiveBlock
	Source    *CurrentPulse
	Drive     *BoundaryDrive
}

// DielectricSlab is a region of constant relative permittivity around a
// center.
type DielectricSlab struct {
	Center       float64
	HalfWidth    float64
	Permittivity float64
}

// PermeableShell is the pair of regions at distances between Inner and
// Outer from a center, with constant relative permeability.
type PermeableShell struct {
	Center       float64
	Inner, Outer float64
	Permeability float64
}

// ConductiveBlock is a region of constant conductivity.
type ConductiveBlock struct {
	Center       float64
	HalfWidth    float64
	Conductivity float64
}

// CurrentPulse is a region carrying an oscillating current density.
type CurrentPulse struct {
	Center    float64
	HalfWidth float64
	Amplitude float64
	Frequency float64
}

// BoundaryDrive forces dE/dt at the left boundary node: a plain sinusoid
// or a gaussian-modulated wave packet.
type BoundaryDrive struct {
	Kind      int
	Frequency float64
}

func (p *Problem) permittivity(x float64) float64 {
	if s := p.Slab; s != nil && math.Abs(x-s.Center) <= s.HalfWidth {
		return s.Permittivity
	}
	return 1.0
}

func (p *Problem) invPermeability(x float64) float64 {
	if s := p.Shell; s != nil {
		r := math.Abs(x - s.Center)
		if r >= s.Inner && r <= s.Outer {
			return 1.0 / s.Permeability
		}
	}
	return 1.0
}

func (p *Problem) conductivity(x float64) float64 {
	if c := p.Conductor; c != nil && math.Abs(x-c.Center) <= c.HalfWidth {
		return c.Conductivity
	}
	return 0.0
}

func (p *Problem) current(x, t float64) float64 {
	s := p.Source
	if s == nil || math.Abs(x-s.Center) > s.HalfWidth {
		return 0.0
	}
	return s.Amplitude * math.Sin(2.0*math.Pi*s.Frequency*t)
}

func (d *BoundaryDrive) rate(t float64) float64 {
	w := 2.0 * math.Pi * d.Frequency
	switch d.Kind {
	case DriveGaussian:
		arg := w * t
		return w * math.Exp(-0.25*arg*arg) * (math.Cos(arg) + 0.25*arg*math.Sin(arg))
	default:
		return w * math.Cos(w*t)
	}
}

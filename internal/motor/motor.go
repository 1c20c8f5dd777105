// Package motor describes solid rocket motors.
package motor

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidMotorGeometry is wrapped by every validation error from Build.
var ErrInvalidMotorGeometry = errors.New("invalid motor geometry")

// Coordinate system orientations.
const (
	NozzleToCombustionChamber = "nozzle_to_combustion_chamber"
	CombustionChamberToNozzle = "combustion_chamber_to_nozzle"
)

// Params are the construction parameters of a solid motor. Lengths are in
// meters, masses in kg, density in kg/m³, inertia in kg·m² about the dry
// center of mass (I11, I22, I33).
type Params struct {
	Name         string `json:"name"`
	ThrustSource string `json:"thrust_source"` // thrust curve reference, e.g. an .eng file

	DryMass    float64    `json:"dry_mass"`
	DryInertia [3]float64 `json:"dry_inertia"`

	NozzleRadius   float64 `json:"nozzle_radius"`
	ThroatRadius   float64 `json:"throat_radius"`
	NozzlePosition float64 `json:"nozzle_position"`

	GrainNumber                int     `json:"grain_number"`
	GrainDensity               float64 `json:"grain_density"`
	GrainOuterRadius           float64 `json:"grain_outer_radius"`
	GrainInitialInnerRadius    float64 `json:"grain_initial_inner_radius"`
	GrainInitialHeight         float64 `json:"grain_initial_height"`
	GrainSeparation            float64 `json:"grain_separation"`
	GrainsCenterOfMassPosition float64 `json:"grains_center_of_mass_position"`
	CenterOfDryMassPosition    float64 `json:"center_of_dry_mass_position"`

	BurnTime    float64 `json:"burn_time"`
	Orientation string  `json:"coordinate_system_orientation"`
}

// Motor is a validated, immutable motor description. Vehicles hold motors
// by pointer; the same Motor may be mounted on several configurations.
type Motor struct {
	p Params
}

// Build validates params and returns a Motor. An empty orientation defaults
// to NozzleToCombustionChamber.
func Build(params Params) (*Motor, error) {
	if params.Orientation == "" {
		params.Orientation = NozzleToCombustionChamber
	}
	if err := validate(params); err != nil {
		if params.Name != "" {
			return nil, fmt.Errorf("motor %s: %w", params.Name, err)
		}
		return nil, err
	}
	return &Motor{p: params}, nil
}

func validate(p Params) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidMotorGeometry, fmt.Sprintf(format, args...))
	}

	if !(p.BurnTime > 0) || math.IsInf(p.BurnTime, 0) {
		return invalid("burn time must be positive, got %v", p.BurnTime)
	}
	if p.GrainNumber < 1 {
		return invalid("grain number must be at least 1, got %d", p.GrainNumber)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"dry mass", p.DryMass},
		{"nozzle radius", p.NozzleRadius},
		{"throat radius", p.ThroatRadius},
		{"grain density", p.GrainDensity},
		{"grain outer radius", p.GrainOuterRadius},
		{"grain initial inner radius", p.GrainInitialInnerRadius},
		{"grain initial height", p.GrainInitialHeight},
		{"grain separation", p.GrainSeparation},
		{"dry inertia I11", p.DryInertia[0]},
		{"dry inertia I22", p.DryInertia[1]},
		{"dry inertia I33", p.DryInertia[2]},
	} {
		if !(f.v >= 0) || math.IsInf(f.v, 0) {
			return invalid("%s must be non-negative, got %v", f.name, f.v)
		}
	}
	if p.GrainInitialInnerRadius >= p.GrainOuterRadius {
		return invalid("grain inner radius %v must be less than outer radius %v",
			p.GrainInitialInnerRadius, p.GrainOuterRadius)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"nozzle position", p.NozzlePosition},
		{"grains center of mass position", p.GrainsCenterOfMassPosition},
		{"center of dry mass position", p.CenterOfDryMassPosition},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return invalid("%s must be finite, got %v", f.name, f.v)
		}
	}
	switch p.Orientation {
	case NozzleToCombustionChamber, CombustionChamberToNozzle:
	default:
		return invalid("unknown coordinate system orientation %q", p.Orientation)
	}
	return nil
}

// Name returns the motor designation.
func (m *Motor) Name() string { return m.p.Name }

// Params returns a copy of the construction parameters.
func (m *Motor) Params() Params { return m.p }

// BurnTime returns the burn duration in seconds.
func (m *Motor) BurnTime() float64 { return m.p.BurnTime }

// PropellantMass returns the initial propellant mass: GrainNumber hollow
// cylinders of the given density.
func (m *Motor) PropellantMass() float64 {
	ro, ri := m.p.GrainOuterRadius, m.p.GrainInitialInnerRadius
	volume := math.Pi * (ro*ro - ri*ri) * m.p.GrainInitialHeight
	return float64(m.p.GrainNumber) * volume * m.p.GrainDensity
}

// TotalMass returns dry mass plus initial propellant mass.
func (m *Motor) TotalMass() float64 {
	return m.p.DryMass + m.PropellantMass()
}

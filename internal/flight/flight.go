// Package flight is the boundary to the external flight-dynamics solver.
// It validates launch parameters, packages a vehicle and its environment,
// and reads back the apogee summary.
package flight

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/WilliamArmst/testTwoStageRocket/internal/environment"
	"github.com/WilliamArmst/testTwoStageRocket/internal/vehicle"
)

// ErrInvalidLaunch is wrapped by launch parameter validation errors.
var ErrInvalidLaunch = errors.New("invalid launch parameters")

// Launch describes the launch rail. Inclination is measured from the
// horizontal in degrees; heading is clockwise from north in degrees.
type Launch struct {
	RailLength  float64 `json:"rail_length"`
	Inclination float64 `json:"inclination"`
	Heading     float64 `json:"heading"`
}

// DefaultLaunch returns a 4 m rail at 85° heading north.
func DefaultLaunch() Launch {
	return Launch{RailLength: 4, Inclination: 85, Heading: 0}
}

// Validate checks the launch parameters.
func (l Launch) Validate() error {
	switch {
	case !(l.RailLength > 0) || math.IsInf(l.RailLength, 0):
		return fmt.Errorf("%w: rail length must be positive, got %v", ErrInvalidLaunch, l.RailLength)
	case !(l.Inclination > 0 && l.Inclination <= 90):
		return fmt.Errorf("%w: inclination must be in (0, 90], got %v", ErrInvalidLaunch, l.Inclination)
	case !(l.Heading >= 0 && l.Heading < 360):
		return fmt.Errorf("%w: heading must be in [0, 360), got %v", ErrInvalidLaunch, l.Heading)
	}
	return nil
}

// Input is one simulation request.
type Input struct {
	Vehicle     *vehicle.Configuration
	Environment *environment.Record
	Launch      Launch
}

// Validate checks that the input is complete.
func (in Input) Validate() error {
	if in.Vehicle == nil {
		return errors.New("flight input has no vehicle")
	}
	if in.Environment == nil {
		return errors.New("flight input has no environment")
	}
	return in.Launch.Validate()
}

// Summary holds the apogee conditions reported by the solver. Altitudes are
// above sea level; X and Y are east and north of the launch point.
type Summary struct {
	ApogeeTime      float64 `json:"apogee_time"`
	ApogeeAltitude  float64 `json:"apogee_altitude"`
	ApogeeX         float64 `json:"apogee_x"`
	ApogeeY         float64 `json:"apogee_y"`
	ApogeeSpeed     float64 `json:"apogee_freestream_speed"`
	OutOfRailTime   float64 `json:"out_of_rail_time,omitempty"`
	OutOfRailSpeed  float64 `json:"out_of_rail_velocity,omitempty"`
	MaxSpeed        float64 `json:"max_speed,omitempty"`
	ImpactTime      float64 `json:"impact_time,omitempty"`
	SiteElevation   float64 `json:"-"`
	ApogeeAboveSite float64 `json:"-"`
}

// Solver runs one simulation.
type Solver interface {
	Simulate(ctx context.Context, in Input) (*Summary, error)
}

package design

import (
	"errors"
	"fmt"

	"github.com/WilliamArmst/testTwoStageRocket/internal/motor"
	"github.com/WilliamArmst/testTwoStageRocket/internal/vehicle"
)

var (
	ErrUnknownMotor  = errors.New("unknown motor")
	ErrDuplicateName = errors.New("duplicate name")
)

// Fleet is an assembled design.
type Fleet struct {
	motors   map[string]*motor.Motor
	order    []*motor.Motor
	vehicles []*vehicle.Configuration
	byName   map[string]*vehicle.Configuration
}

// Motor returns the motor with the given name.
func (f *Fleet) Motor(name string) (*motor.Motor, bool) {
	m, ok := f.motors[name]
	return m, ok
}

// Vehicle returns the configuration with the given name.
func (f *Fleet) Vehicle(name string) (*vehicle.Configuration, bool) {
	v, ok := f.byName[name]
	return v, ok
}

// Motors returns the motors in design order.
func (f *Fleet) Motors() []*motor.Motor {
	return append([]*motor.Motor(nil), f.order...)
}

// Vehicles returns the configurations in design order.
func (f *Fleet) Vehicles() []*vehicle.Configuration {
	return append([]*vehicle.Configuration(nil), f.vehicles...)
}

// Assemble builds every motor of d once, then every vehicle, mounting the
// same *motor.Motor wherever a vehicle names it.
func Assemble(d Design) (*Fleet, error) {
	f := &Fleet{
		motors: make(map[string]*motor.Motor, len(d.Motors)),
		byName: make(map[string]*vehicle.Configuration, len(d.Vehicles)),
	}

	for _, ms := range d.Motors {
		if _, dup := f.motors[ms.Name]; dup {
			return nil, fmt.Errorf("%w: motor %q", ErrDuplicateName, ms.Name)
		}
		params, err := ms.params()
		if err != nil {
			return nil, err
		}
		m, err := motor.Build(params)
		if err != nil {
			return nil, err
		}
		f.motors[ms.Name] = m
		f.order = append(f.order, m)
	}

	for _, vs := range d.Vehicles {
		if _, dup := f.byName[vs.Name]; dup {
			return nil, fmt.Errorf("%w: vehicle %q", ErrDuplicateName, vs.Name)
		}
		c, err := f.buildVehicle(vs)
		if err != nil {
			return nil, err
		}
		f.vehicles = append(f.vehicles, c)
		f.byName[vs.Name] = c
	}
	return f, nil
}

func (ms MotorSpec) params() (motor.Params, error) {
	inertia, err := triple("motor "+ms.Name+" dry_inertia", ms.DryInertia)
	if err != nil {
		return motor.Params{}, fmt.Errorf("%w: %v", motor.ErrInvalidMotorGeometry, err)
	}
	return motor.Params{
		Name:                       ms.Name,
		ThrustSource:               ms.ThrustSource,
		DryMass:                    ms.DryMass,
		DryInertia:                 inertia,
		NozzleRadius:               ms.NozzleRadius,
		ThroatRadius:               ms.ThroatRadius,
		NozzlePosition:             ms.NozzlePosition,
		GrainNumber:                ms.GrainNumber,
		GrainDensity:               ms.GrainDensity,
		GrainOuterRadius:           ms.GrainOuterRadius,
		GrainInitialInnerRadius:    ms.GrainInitialInnerRadius,
		GrainInitialHeight:         ms.GrainInitialHeight,
		GrainSeparation:            ms.GrainSeparation,
		GrainsCenterOfMassPosition: ms.GrainsCenterOfMassPosition,
		CenterOfDryMassPosition:    ms.CenterOfDryMassPosition,
		BurnTime:                   ms.BurnTime,
		Orientation:                ms.Orientation,
	}, nil
}

func (f *Fleet) buildVehicle(vs VehicleSpec) (*vehicle.Configuration, error) {
	inertia, err := triple("vehicle "+vs.Name+" inertia", vs.Inertia)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vehicle.ErrInvalidBody, err)
	}
	body := vehicle.Body{
		Name:                     vs.Name,
		Radius:                   vs.Radius,
		Length:                   vs.Length,
		Mass:                     vs.Mass,
		Inertia:                  inertia,
		PowerOffDrag:             vs.PowerOffDrag,
		PowerOnDrag:              vs.PowerOnDrag,
		CenterOfMassWithoutMotor: vs.CenterOfMassWithoutMotor,
		Orientation:              vs.Orientation,
	}
	if rb := vs.RailButtons; rb != nil {
		body.RailButtons = &vehicle.RailButtons{
			UpperPosition:   rb.UpperPosition,
			LowerPosition:   rb.LowerPosition,
			AngularPosition: rb.AngularPosition,
		}
	}

	mounts := make([]vehicle.MotorMount, 0, len(vs.Motors))
	for _, ms := range vs.Motors {
		m, ok := f.motors[ms.Motor]
		if !ok {
			return nil, fmt.Errorf("vehicle %s: %w %q", vs.Name, ErrUnknownMotor, ms.Motor)
		}
		mounts = append(mounts, vehicle.MotorMount{Motor: m, Position: ms.Position})
	}

	surfaces := make([]vehicle.Surface, 0, len(vs.Noses)+len(vs.Fins))
	for _, n := range vs.Noses {
		surfaces = append(surfaces, vehicle.Nose{Length: n.Length, Kind: n.Kind, Position: n.Position})
	}
	for _, fs := range vs.Fins {
		surfaces = append(surfaces, vehicle.TrapezoidalFins{
			N:           fs.N,
			RootChord:   fs.RootChord,
			TipChord:    fs.TipChord,
			Span:        fs.Span,
			SweepLength: fs.SweepLength,
			SweepAngle:  fs.SweepAngle,
			CantAngle:   fs.CantAngle,
			Position:    fs.Position,
		})
	}

	chutes := make([]vehicle.Parachute, 0, len(vs.Parachutes))
	for _, ps := range vs.Parachutes {
		trigger, err := vehicle.ParseTrigger(ps.Trigger)
		if err != nil {
			return nil, fmt.Errorf("vehicle %s: parachute %q: %w", vs.Name, ps.Name, err)
		}
		var noise [3]float64
		if len(ps.Noise) > 0 {
			if noise, err = triple("parachute "+ps.Name+" noise", ps.Noise); err != nil {
				return nil, fmt.Errorf("vehicle %s: %w: %v", vs.Name, vehicle.ErrInvalidParachute, err)
			}
		}
		chutes = append(chutes, vehicle.Parachute{
			Name:         ps.Name,
			CdS:          ps.CdS,
			Trigger:      trigger,
			SamplingRate: ps.SamplingRate,
			Lag:          ps.Lag,
			Noise:        noise,
		})
	}

	return vehicle.Build(body, mounts, surfaces, chutes)
}

func triple(what string, v []float64) ([3]float64, error) {
	if len(v) != 3 {
		return [3]float64{}, fmt.Errorf("%s needs 3 values, got %d", what, len(v))
	}
	return [3]float64{v[0], v[1], v[2]}, nil
}

// Package design describes vehicle fleets as data and assembles them into
// validated configurations. A design names its motors once; vehicles mount
// them by name, and Assemble hands every vehicle the same motor instance.
package design

// Names of the configurations in the built-in design.
const (
	FullAssembly = "full"
	Sustainer    = "sustainer"
	Booster      = "booster"
)

// Design is a set of motors and the vehicles that mount them. Field tags
// map it to HCL design files.
type Design struct {
	Motors   []MotorSpec   `hcl:"motor,block"`
	Vehicles []VehicleSpec `hcl:"vehicle,block"`
}

// MotorSpec are the parameters of one named solid motor.
type MotorSpec struct {
	Name                       string    `hcl:"name,label"`
	ThrustSource               string    `hcl:"thrust_source"`
	DryMass                    float64   `hcl:"dry_mass"`
	DryInertia                 []float64 `hcl:"dry_inertia"`
	NozzleRadius               float64   `hcl:"nozzle_radius,optional"`
	ThroatRadius               float64   `hcl:"throat_radius,optional"`
	NozzlePosition             float64   `hcl:"nozzle_position,optional"`
	GrainNumber                int       `hcl:"grain_number"`
	GrainDensity               float64   `hcl:"grain_density"`
	GrainOuterRadius           float64   `hcl:"grain_outer_radius"`
	GrainInitialInnerRadius    float64   `hcl:"grain_initial_inner_radius"`
	GrainInitialHeight         float64   `hcl:"grain_initial_height"`
	GrainSeparation            float64   `hcl:"grain_separation,optional"`
	GrainsCenterOfMassPosition float64   `hcl:"grains_center_of_mass_position"`
	CenterOfDryMassPosition    float64   `hcl:"center_of_dry_mass_position"`
	BurnTime                   float64   `hcl:"burn_time"`
	Orientation                string    `hcl:"coordinate_system_orientation,optional"`
}

// VehicleSpec is one vehicle configuration.
type VehicleSpec struct {
	Name                     string          `hcl:"name,label"`
	Radius                   float64         `hcl:"radius"`
	Length                   float64         `hcl:"length,optional"`
	Mass                     float64         `hcl:"mass"`
	Inertia                  []float64       `hcl:"inertia"`
	PowerOffDrag             string          `hcl:"power_off_drag"`
	PowerOnDrag              string          `hcl:"power_on_drag"`
	CenterOfMassWithoutMotor float64         `hcl:"center_of_mass_without_motor"`
	Orientation              string          `hcl:"coordinate_system_orientation,optional"`
	Motors                   []MountSpec     `hcl:"motor,block"`
	RailButtons              *RailButtonSpec `hcl:"rail_buttons,block"`
	Noses                    []NoseSpec      `hcl:"nose,block"`
	Fins                     []FinSpec       `hcl:"trapezoidal_fins,block"`
	Parachutes               []ParachuteSpec `hcl:"parachute,block"`
}

// MountSpec mounts the named motor at a body position.
type MountSpec struct {
	Motor    string  `hcl:"motor,label"`
	Position float64 `hcl:"position"`
}

type RailButtonSpec struct {
	UpperPosition   float64 `hcl:"upper_button_position"`
	LowerPosition   float64 `hcl:"lower_button_position"`
	AngularPosition float64 `hcl:"angular_position,optional"`
}

type NoseSpec struct {
	Length   float64 `hcl:"length"`
	Kind     string  `hcl:"kind"`
	Position float64 `hcl:"position"`
}

type FinSpec struct {
	N           int     `hcl:"n"`
	RootChord   float64 `hcl:"root_chord"`
	TipChord    float64 `hcl:"tip_chord"`
	Span        float64 `hcl:"span"`
	SweepLength float64 `hcl:"sweep_length,optional"`
	SweepAngle  float64 `hcl:"sweep_angle,optional"`
	CantAngle   float64 `hcl:"cant_angle,optional"`
	Position    float64 `hcl:"position"`
}

// ParachuteSpec is a recovery device. Trigger is "apogee" or an altitude in
// meters.
type ParachuteSpec struct {
	Name         string    `hcl:"name,label"`
	CdS          float64   `hcl:"cd_s"`
	Trigger      string    `hcl:"trigger"`
	SamplingRate float64   `hcl:"sampling_rate"`
	Lag          float64   `hcl:"lag"`
	Noise        []float64 `hcl:"noise,optional"`
}

const (
	dragOff = "../certRocket/rocketpyTest/powerOffDragCurve.csv"
	dragOn  = "../certRocket/rocketpyTest/powerOnDragCurve.csv"
)

// Default returns the two-stage design: an AeroTech I59WN booster motor
// shared by the full assembly and the booster, and an AeroTech J510W in the
// sustainer. Each call returns a fresh copy.
func Default() Design {
	inertia := func() []float64 { return []float64{6.321, 6.321, 0.034} }
	noise := func() []float64 { return []float64{0, 8.3, 0.5} }
	upperFins := func() FinSpec {
		return FinSpec{N: 4, RootChord: 0.08, TipChord: 0.04, Span: 0.03, SweepLength: 0.04, Position: -0.65}
	}
	lowerFins := func(pos float64) FinSpec {
		return FinSpec{N: 4, RootChord: 0.05, TipChord: 0.02, Span: 0.03, SweepAngle: 50, Position: pos}
	}
	nose := func() NoseSpec { return NoseSpec{Length: 0.15, Kind: "ogive", Position: 0} }

	return Design{
		Motors: []MotorSpec{
			{
				Name:                       "I59WN",
				ThrustSource:               "AeroTech_I59WN.eng",
				DryMass:                    0.215,
				DryInertia:                 []float64{0.125, 0.125, 0.002},
				GrainNumber:                1,
				GrainDensity:               1432,
				GrainOuterRadius:           0.019,
				GrainInitialInnerRadius:    0.010,
				GrainInitialHeight:         0.232,
				GrainSeparation:            0.005,
				GrainsCenterOfMassPosition: 0.116,
				CenterOfDryMassPosition:    0.116,
				BurnTime:                   8.15,
				Orientation:                "nozzle_to_combustion_chamber",
			},
			{
				Name:                       "J510W",
				ThrustSource:               "AeroTech_J510W.eng",
				DryMass:                    0.418,
				DryInertia:                 []float64{0.125, 0.125, 0.002},
				GrainNumber:                1,
				GrainDensity:               296,
				GrainOuterRadius:           0.019,
				GrainInitialInnerRadius:    0.010,
				GrainInitialHeight:         0.584,
				GrainSeparation:            0.005,
				GrainsCenterOfMassPosition: 0.292,
				CenterOfDryMassPosition:    0.292,
				BurnTime:                   2.15,
				Orientation:                "nozzle_to_combustion_chamber",
			},
		},
		Vehicles: []VehicleSpec{
			{
				Name:                     FullAssembly,
				Radius:                   0.025,
				Mass:                     1.49,
				Inertia:                  inertia(),
				PowerOffDrag:             dragOff,
				PowerOnDrag:              dragOn,
				CenterOfMassWithoutMotor: -0.455,
				Orientation:              "tail_to_nose",
				Motors:                   []MountSpec{{Motor: "I59WN", Position: -1.05}},
				RailButtons:              &RailButtonSpec{UpperPosition: -0.90, LowerPosition: -1.02, AngularPosition: 45},
				Noses:                    []NoseSpec{nose()},
				Fins:                     []FinSpec{upperFins(), lowerFins(-0.99)},
			},
			{
				Name:                     Sustainer,
				Radius:                   0.025,
				Mass:                     0.321,
				Inertia:                  inertia(),
				PowerOffDrag:             dragOff,
				PowerOnDrag:              dragOn,
				CenterOfMassWithoutMotor: -0.321,
				Orientation:              "tail_to_nose",
				Motors:                   []MountSpec{{Motor: "J510W", Position: -0.75}},
				Noses:                    []NoseSpec{nose()},
				Fins:                     []FinSpec{upperFins()},
				Parachutes: []ParachuteSpec{
					{Name: "main", CdS: 0.162146393311, Trigger: "250", SamplingRate: 105, Lag: 1.5, Noise: noise()},
					{Name: "drogue", CdS: 0.0145166713337, Trigger: "apogee", SamplingRate: 105, Lag: 1.5, Noise: noise()},
				},
			},
			{
				Name:                     Booster,
				Radius:                   0.025,
				Mass:                     0.0986,
				Inertia:                  inertia(),
				PowerOffDrag:             dragOff,
				PowerOnDrag:              dragOn,
				CenterOfMassWithoutMotor: -0.151,
				Orientation:              "tail_to_nose",
				Motors:                   []MountSpec{{Motor: "I59WN", Position: -0.30}},
				RailButtons:              &RailButtonSpec{UpperPosition: -0.17, LowerPosition: -0.25, AngularPosition: 45},
				Fins:                     []FinSpec{lowerFins(-0.24)},
				Parachutes: []ParachuteSpec{
					{Name: "main", CdS: 0.0565486677646, Trigger: "apogee", SamplingRate: 105, Lag: 1.5, Noise: noise()},
				},
			},
		},
	}
}

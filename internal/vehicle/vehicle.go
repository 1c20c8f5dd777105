// Package vehicle assembles rocket configurations from a body, mounted
// motors, aerodynamic surfaces and parachutes.
//
// A Configuration owns copies of its surfaces and parachutes and references
// its motors. Motors are shared: two configurations built with the same
// *motor.Motor observe the same hardware.
package vehicle

import (
	"errors"
	"fmt"
	"math"

	"github.com/WilliamArmst/testTwoStageRocket/internal/motor"
)

var (
	ErrInvalidMounting  = errors.New("invalid mounting position")
	ErrInvalidTrigger   = errors.New("invalid parachute trigger")
	ErrInvalidParachute = errors.New("invalid parachute")
	ErrInvalidSurface   = errors.New("invalid aerodynamic surface")
	ErrInvalidBody      = errors.New("invalid body")
)

// Body coordinate system orientations.
const (
	TailToNose = "tail_to_nose"
	NoseToTail = "nose_to_tail"
)

// RailButtons are the launch rail guides. Positions are in the body
// coordinate system; AngularPosition is in degrees.
type RailButtons struct {
	UpperPosition   float64 `json:"upper_button_position"`
	LowerPosition   float64 `json:"lower_button_position"`
	AngularPosition float64 `json:"angular_position"`
}

// Body holds the motorless airframe parameters. Length is the body length in
// meters; 0 means the length is not modeled and positions are not bounded.
// With TailToNose the nose tip is at 0 and the tail at -Length.
type Body struct {
	Name                     string       `json:"name"`
	Radius                   float64      `json:"radius"`
	Length                   float64      `json:"length,omitempty"`
	Mass                     float64      `json:"mass"`
	Inertia                  [3]float64   `json:"inertia"`
	PowerOffDrag             string       `json:"power_off_drag"`
	PowerOnDrag              string       `json:"power_on_drag"`
	CenterOfMassWithoutMotor float64      `json:"center_of_mass_without_motor"`
	Orientation              string       `json:"coordinate_system_orientation"`
	RailButtons              *RailButtons `json:"rail_buttons,omitempty"`
}

// MotorMount places a motor at a body position (the motor coordinate
// origin, usually its nozzle).
type MotorMount struct {
	Motor    *motor.Motor
	Position float64
}

// Configuration is an immutable, validated vehicle.
type Configuration struct {
	body       Body
	motors     []MotorMount
	surfaces   []Surface
	parachutes []Parachute
}

// Build validates the inputs and returns a Configuration holding copies of
// them. Later changes to the arguments do not affect the result.
func Build(body Body, motors []MotorMount, surfaces []Surface, parachutes []Parachute) (*Configuration, error) {
	if body.Orientation == "" {
		body.Orientation = TailToNose
	}
	if body.RailButtons != nil {
		rb := *body.RailButtons
		body.RailButtons = &rb
	}

	c := &Configuration{
		body:       body,
		motors:     append([]MotorMount(nil), motors...),
		surfaces:   make([]Surface, 0, len(surfaces)),
		parachutes: append([]Parachute(nil), parachutes...),
	}
	for _, s := range surfaces {
		c.surfaces = append(c.surfaces, copySurface(s))
	}
	if err := c.validate(); err != nil {
		if body.Name != "" {
			return nil, fmt.Errorf("vehicle %s: %w", body.Name, err)
		}
		return nil, err
	}
	return c, nil
}

func (c *Configuration) validate() error {
	b := c.body
	switch {
	case b.Orientation != TailToNose && b.Orientation != NoseToTail:
		return fmt.Errorf("%w: unknown coordinate system orientation %q", ErrInvalidBody, b.Orientation)
	case !(b.Radius > 0):
		return fmt.Errorf("%w: radius must be positive, got %v", ErrInvalidBody, b.Radius)
	case !(b.Mass >= 0):
		return fmt.Errorf("%w: mass must be non-negative, got %v", ErrInvalidBody, b.Mass)
	case !(b.Length >= 0):
		return fmt.Errorf("%w: length must be non-negative, got %v", ErrInvalidBody, b.Length)
	}

	for i, m := range c.motors {
		if m.Motor == nil {
			return fmt.Errorf("%w: motor mount %d has no motor", ErrInvalidMounting, i)
		}
		if err := c.checkPosition("motor "+m.Motor.Name(), m.Position); err != nil {
			return err
		}
	}
	for _, s := range c.surfaces {
		if s == nil {
			return fmt.Errorf("%w: nil surface", ErrInvalidSurface)
		}
		if err := s.validate(); err != nil {
			return err
		}
		if err := c.checkPosition(s.Type(), s.MountPosition()); err != nil {
			return err
		}
	}
	if rb := b.RailButtons; rb != nil {
		if err := c.checkPosition("upper rail button", rb.UpperPosition); err != nil {
			return err
		}
		if err := c.checkPosition("lower rail button", rb.LowerPosition); err != nil {
			return err
		}
		if rb.UpperPosition == rb.LowerPosition {
			return fmt.Errorf("%w: rail buttons share position %v", ErrInvalidMounting, rb.UpperPosition)
		}
	}
	for _, p := range c.parachutes {
		if err := p.validate(); err != nil {
			return err
		}
	}
	return nil
}

// copySurface stores pointer surfaces by value so callers keep no alias.
func copySurface(s Surface) Surface {
	switch v := s.(type) {
	case *Nose:
		if v == nil {
			return nil
		}
		return *v
	case *TrapezoidalFins:
		if v == nil {
			return nil
		}
		return *v
	}
	return s
}

// checkPosition reports whether pos lies on the modeled body.
func (c *Configuration) checkPosition(what string, pos float64) error {
	if math.IsNaN(pos) || math.IsInf(pos, 0) {
		return fmt.Errorf("%w: %s position %v", ErrInvalidMounting, what, pos)
	}
	length := c.body.Length
	if length == 0 {
		return nil
	}
	lo, hi := -length, 0.0
	if c.body.Orientation == NoseToTail {
		lo, hi = 0, length
	}
	if pos < lo || pos > hi {
		return fmt.Errorf("%w: %s position %v outside body [%v, %v]", ErrInvalidMounting, what, pos, lo, hi)
	}
	return nil
}

// Name returns the configuration name.
func (c *Configuration) Name() string { return c.body.Name }

// Body returns a copy of the body parameters.
func (c *Configuration) Body() Body {
	b := c.body
	if b.RailButtons != nil {
		rb := *b.RailButtons
		b.RailButtons = &rb
	}
	return b
}

// Motors returns the motor mounts. The motors themselves are shared.
func (c *Configuration) Motors() []MotorMount {
	return append([]MotorMount(nil), c.motors...)
}

// Surfaces returns copies of the aerodynamic surfaces.
func (c *Configuration) Surfaces() []Surface {
	return append([]Surface(nil), c.surfaces...)
}

// Parachutes returns copies of the parachutes.
func (c *Configuration) Parachutes() []Parachute {
	return append([]Parachute(nil), c.parachutes...)
}

// TotalMass returns the body mass plus the loaded mass of every motor.
func (c *Configuration) TotalMass() float64 {
	m := c.body.Mass
	for _, mm := range c.motors {
		m += mm.Motor.TotalMass()
	}
	return m
}

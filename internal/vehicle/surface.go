package vehicle

import (
	"fmt"
	"math"
)

// Surface is an aerodynamic surface mounted on the body.
type Surface interface {
	// Type names the surface kind, e.g. "nose" or "trapezoidal_fins".
	Type() string
	// MountPosition is the surface position in the body coordinate system.
	MountPosition() float64
	validate() error
}

// Nose is a nose cone. Position is the nose base reference, 0 for a nose at
// the tip of a tail_to_nose body.
type Nose struct {
	Length   float64 `json:"length"`
	Kind     string  `json:"kind"` // ogive, conical, elliptical, ...
	Position float64 `json:"position"`
}

func (n Nose) Type() string           { return "nose" }
func (n Nose) MountPosition() float64 { return n.Position }

func (n Nose) validate() error {
	if !(n.Length > 0) {
		return fmt.Errorf("%w: nose length must be positive, got %v", ErrInvalidSurface, n.Length)
	}
	if n.Kind == "" {
		return fmt.Errorf("%w: nose kind is required", ErrInvalidSurface)
	}
	return nil
}

// TrapezoidalFins is a set of N identical trapezoidal fins. The sweep is
// given either as SweepLength (m) or SweepAngle (degrees), not both.
type TrapezoidalFins struct {
	N           int     `json:"n"`
	RootChord   float64 `json:"root_chord"`
	TipChord    float64 `json:"tip_chord"`
	Span        float64 `json:"span"`
	SweepLength float64 `json:"sweep_length,omitempty"`
	SweepAngle  float64 `json:"sweep_angle,omitempty"`
	CantAngle   float64 `json:"cant_angle"`
	Position    float64 `json:"position"`
}

func (f TrapezoidalFins) Type() string           { return "trapezoidal_fins" }
func (f TrapezoidalFins) MountPosition() float64 { return f.Position }

func (f TrapezoidalFins) validate() error {
	switch {
	case f.N < 1:
		return fmt.Errorf("%w: fin count must be at least 1, got %d", ErrInvalidSurface, f.N)
	case !(f.RootChord > 0):
		return fmt.Errorf("%w: fin root chord must be positive, got %v", ErrInvalidSurface, f.RootChord)
	case !(f.TipChord >= 0):
		return fmt.Errorf("%w: fin tip chord must be non-negative, got %v", ErrInvalidSurface, f.TipChord)
	case !(f.Span > 0):
		return fmt.Errorf("%w: fin span must be positive, got %v", ErrInvalidSurface, f.Span)
	case f.SweepLength != 0 && f.SweepAngle != 0:
		return fmt.Errorf("%w: fin sweep length and sweep angle are exclusive", ErrInvalidSurface)
	case math.Abs(f.SweepAngle) >= 90:
		return fmt.Errorf("%w: fin sweep angle must be within (-90, 90), got %v", ErrInvalidSurface, f.SweepAngle)
	}
	return nil
}

// Package atmosphere models the atmospheric conditions of a launch day as
// piecewise-linear functions of altitude.
package atmosphere

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrEmptyProfile is returned when a profile has no usable samples.
	ErrEmptyProfile = errors.New("profile has no samples")
	// ErrDomainMismatch is returned when the profiles of an Atmosphere do
	// not describe the same altitude range.
	ErrDomainMismatch = errors.New("profile domains do not match")
)

// Sample is one (altitude, value) point of a profile. Altitude is in meters
// above sea level.
type Sample struct {
	Altitude float64
	Value    float64
}

// Profile is a piecewise-linear function of altitude. The zero value is an
// empty profile. A Profile is immutable after construction.
type Profile struct {
	samples []Sample
}

// NewProfile validates samples and returns a Profile over them. Altitudes must
// be strictly increasing and every value finite.
func NewProfile(samples []Sample) (Profile, error) {
	if len(samples) == 0 {
		return Profile{}, ErrEmptyProfile
	}
	for i, s := range samples {
		if !finite(s.Altitude) || !finite(s.Value) {
			return Profile{}, fmt.Errorf("sample %d: non-finite value (%v, %v)", i, s.Altitude, s.Value)
		}
		if i > 0 && s.Altitude <= samples[i-1].Altitude {
			return Profile{}, fmt.Errorf("sample %d: altitude %v not above %v", i, s.Altitude, samples[i-1].Altitude)
		}
	}
	return Profile{samples: append([]Sample(nil), samples...)}, nil
}

// Len returns the number of samples.
func (p Profile) Len() int {
	return len(p.samples)
}

// Samples returns a copy of the samples in altitude order.
func (p Profile) Samples() []Sample {
	return append([]Sample(nil), p.samples...)
}

// Domain returns the lowest and highest sampled altitude.
func (p Profile) Domain() (lo, hi float64) {
	if len(p.samples) == 0 {
		return math.NaN(), math.NaN()
	}
	return p.samples[0].Altitude, p.samples[len(p.samples)-1].Altitude
}

// At evaluates the profile at altitude h by linear interpolation between the
// neighbouring samples. Outside the sampled domain the nearest end value is
// returned. An empty profile evaluates to NaN.
func (p Profile) At(h float64) float64 {
	n := len(p.samples)
	switch {
	case n == 0:
		return math.NaN()
	case h <= p.samples[0].Altitude:
		return p.samples[0].Value
	case h >= p.samples[n-1].Altitude:
		return p.samples[n-1].Value
	}

	// First sample strictly above h; always in [1, n-1] here.
	i := sort.Search(n, func(i int) bool { return p.samples[i].Altitude > h })
	lo, hi := p.samples[i-1], p.samples[i]
	frac := (h - lo.Altitude) / (hi.Altitude - lo.Altitude)
	return lo.Value + frac*(hi.Value-lo.Value)
}

// Equal reports whether both profiles hold exactly the same samples.
func (p Profile) Equal(o Profile) bool {
	if len(p.samples) != len(o.samples) {
		return false
	}
	for i := range p.samples {
		if p.samples[i] != o.samples[i] {
			return false
		}
	}
	return true
}

// Atmosphere groups the four profiles consumed by the flight solver.
// Pressure is in Pa, temperature in K, wind components in m/s (u eastward,
// v northward).
type Atmosphere struct {
	Pressure    Profile
	Temperature Profile
	WindU       Profile
	WindV       Profile
}

// Validate checks that all four profiles carry samples and share a common
// domain: every profile starts at the same lowest altitude, and the range
// covered by all of them is not empty unless every profile is a single
// sample. Outside that range At would clamp one profile while another is
// still sampled.
func (a Atmosphere) Validate() error {
	profiles := []struct {
		name string
		p    Profile
	}{
		{"pressure", a.Pressure},
		{"temperature", a.Temperature},
		{"wind_u", a.WindU},
		{"wind_v", a.WindV},
	}
	for _, f := range profiles {
		if f.p.Len() == 0 {
			return fmt.Errorf("%s: %w", f.name, ErrEmptyProfile)
		}
	}

	base, top := a.Pressure.Domain()
	multi := a.Pressure.Len() > 1
	for _, f := range profiles[1:] {
		lo, hi := f.p.Domain()
		if lo != base {
			return fmt.Errorf("%w: %s starts at %v, pressure at %v", ErrDomainMismatch, f.name, lo, base)
		}
		top = min(top, hi)
		multi = multi || f.p.Len() > 1
	}
	if multi && !(top > base) {
		return fmt.Errorf("%w: common range [%v, %v] is empty", ErrDomainMismatch, base, top)
	}
	return nil
}

// Equal reports whether all four profiles are identical.
func (a Atmosphere) Equal(o Atmosphere) bool {
	return a.Pressure.Equal(o.Pressure) &&
		a.Temperature.Equal(o.Temperature) &&
		a.WindU.Equal(o.WindU) &&
		a.WindV.Equal(o.WindV)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

package vehicle

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const apogee = "apogee"

// Trigger is the deployment condition of a parachute: either apogee
// detection or a fixed altitude above ground level while descending. The
// zero Trigger is an altitude of 0 and fails validation.
type Trigger struct {
	apogee   bool
	altitude float64
}

// Apogee returns the apogee-detection trigger.
func Apogee() Trigger { return Trigger{apogee: true} }

// AtAltitude returns a fixed-altitude trigger in meters.
func AtAltitude(h float64) Trigger { return Trigger{altitude: h} }

// ParseTrigger parses "apogee" or a number of meters. The result is not
// range checked; Build rejects non-positive altitudes.
func ParseTrigger(s string) (Trigger, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, apogee) {
		return Apogee(), nil
	}
	h, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Trigger{}, fmt.Errorf("%w: %q is neither %q nor a number", ErrInvalidTrigger, s, apogee)
	}
	return AtAltitude(h), nil
}

// IsApogee reports whether the trigger fires at apogee.
func (t Trigger) IsApogee() bool { return t.apogee }

// Altitude returns the deployment altitude and false for apogee triggers.
func (t Trigger) Altitude() (float64, bool) {
	if t.apogee {
		return 0, false
	}
	return t.altitude, true
}

func (t Trigger) String() string {
	if t.apogee {
		return apogee
	}
	return strconv.FormatFloat(t.altitude, 'g', -1, 64)
}

func (t Trigger) validate() error {
	if t.apogee {
		return nil
	}
	if !(t.altitude > 0) || math.IsInf(t.altitude, 0) {
		return fmt.Errorf("%w: altitude must be positive or %q, got %v", ErrInvalidTrigger, apogee, t.altitude)
	}
	return nil
}

// MarshalJSON writes "apogee" or the altitude as a number.
func (t Trigger) MarshalJSON() ([]byte, error) {
	if t.apogee {
		return json.Marshal(apogee)
	}
	return json.Marshal(t.altitude)
}

// UnmarshalJSON accepts "apogee", a number, or a numeric string.
func (t *Trigger) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		parsed, err := ParseTrigger(s)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	}
	var h float64
	if err := json.Unmarshal(b, &h); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTrigger, b)
	}
	*t = AtAltitude(h)
	return nil
}

// Parachute is a recovery device. CdS is the drag coefficient times the
// reference area (m²). Noise is the pressure sensor noise as (mean,
// standard deviation, time correlation) in Pa.
type Parachute struct {
	Name         string     `json:"name"`
	CdS          float64    `json:"cd_s"`
	Trigger      Trigger    `json:"trigger"`
	SamplingRate float64    `json:"sampling_rate"` // Hz
	Lag          float64    `json:"lag"`           // s
	Noise        [3]float64 `json:"noise"`
}

func (p Parachute) validate() error {
	if err := p.Trigger.validate(); err != nil {
		return fmt.Errorf("parachute %q: %w", p.Name, err)
	}
	switch {
	case !(p.CdS > 0):
		return fmt.Errorf("%w: parachute %q: cd_s must be positive, got %v", ErrInvalidParachute, p.Name, p.CdS)
	case !(p.SamplingRate > 0):
		return fmt.Errorf("%w: parachute %q: sampling rate must be positive, got %v", ErrInvalidParachute, p.Name, p.SamplingRate)
	case !(p.Lag >= 0):
		return fmt.Errorf("%w: parachute %q: lag must be non-negative, got %v", ErrInvalidParachute, p.Name, p.Lag)
	case !(p.Noise[1] >= 0):
		return fmt.Errorf("%w: parachute %q: noise standard deviation must be non-negative, got %v", ErrInvalidParachute, p.Name, p.Noise[1])
	}
	return nil
}

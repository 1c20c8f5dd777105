package environment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/WilliamArmst/testTwoStageRocket/internal/atmosphere"
)

// profileFields are the profile keys in artifact order. They match the
// RocketPy environment export; the shorter aliases in document are accepted
// on read.
var profileFields = []string{
	"atmospheric_model_pressure_profile",
	"atmospheric_model_temperature_profile",
	"atmospheric_model_wind_velocity_x_profile",
	"atmospheric_model_wind_velocity_y_profile",
}

// document is the artifact JSON object.
type document struct {
	Date              *artifactDate `json:"date"`
	Latitude          *float64      `json:"latitude"`
	Longitude         *float64      `json:"longitude"`
	Elevation         *flexFloat    `json:"elevation"`
	Datum             string        `json:"datum"`
	Timezone          string        `json:"timezone"`
	MaxExpectedHeight *float64      `json:"max_expected_height"`
	ModelType         string        `json:"atmospheric_model_type,omitempty"`

	Pressure    profileText `json:"atmospheric_model_pressure_profile"`
	Temperature profileText `json:"atmospheric_model_temperature_profile"`
	WindU       profileText `json:"atmospheric_model_wind_velocity_x_profile"`
	WindV       profileText `json:"atmospheric_model_wind_velocity_y_profile"`

	PressureAlias    profileText `json:"pressure_profile,omitzero"`
	TemperatureAlias profileText `json:"temperature_profile,omitzero"`
	WindUAlias       profileText `json:"wind_u_profile,omitzero"`
	WindVAlias       profileText `json:"wind_v_profile,omitzero"`
}

// Encode serializes a record as an artifact. Profiles are written as text
// blocks of "[altitude value]" rows.
func Encode(r *Record) ([]byte, error) {
	if r == nil {
		return nil, errors.New("nil record")
	}
	if err := r.Atmosphere.Validate(); err != nil {
		return nil, err
	}
	d := artifactDate(r.Date.UTC())
	elev := flexFloat(r.Location.Elevation)
	doc := document{
		Date:              &d,
		Latitude:          &r.Location.Latitude,
		Longitude:         &r.Location.Longitude,
		Elevation:         &elev,
		Datum:             r.Datum,
		Timezone:          r.Timezone,
		MaxExpectedHeight: &r.MaxExpectedHeight,
		ModelType:         r.ModelType,
		Pressure:          profileText{text: atmosphere.FormatRows(r.Atmosphere.Pressure), set: true},
		Temperature:       profileText{text: atmosphere.FormatRows(r.Atmosphere.Temperature), set: true},
		WindU:             profileText{text: atmosphere.FormatRows(r.Atmosphere.WindU), set: true},
		WindV:             profileText{text: atmosphere.FormatRows(r.Atmosphere.WindV), set: true},
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding artifact: %w", err)
	}
	return data, nil
}

// Decode parses an artifact. Any missing scalar, unparseable row, empty
// profile or profiles over different altitude ranges fail the whole
// artifact; no partial record is returned.
func Decode(data []byte) (*Record, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding artifact: %w", err)
	}

	switch {
	case doc.Date == nil:
		return nil, missingField("date")
	case doc.Latitude == nil:
		return nil, missingField("latitude")
	case doc.Longitude == nil:
		return nil, missingField("longitude")
	case doc.Elevation == nil:
		return nil, missingField("elevation")
	case doc.MaxExpectedHeight == nil:
		return nil, missingField("max_expected_height")
	}

	r := &Record{
		Date: time.Time(*doc.Date),
		Location: Location{
			Latitude:  *doc.Latitude,
			Longitude: *doc.Longitude,
			Elevation: float64(*doc.Elevation),
		},
		Datum:             doc.Datum,
		Timezone:          doc.Timezone,
		MaxExpectedHeight: *doc.MaxExpectedHeight,
		ModelType:         doc.ModelType,
	}

	targets := []*atmosphere.Profile{
		&r.Atmosphere.Pressure,
		&r.Atmosphere.Temperature,
		&r.Atmosphere.WindU,
		&r.Atmosphere.WindV,
	}
	fields := []profileText{doc.Pressure, doc.Temperature, doc.WindU, doc.WindV}
	aliases := []profileText{doc.PressureAlias, doc.TemperatureAlias, doc.WindUAlias, doc.WindVAlias}
	for i, name := range profileFields {
		src := fields[i]
		if !src.set {
			src = aliases[i]
		}
		if !src.set {
			return nil, missingField(name)
		}
		p, err := src.profile()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		*targets[i] = p
	}
	if err := r.Atmosphere.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func missingField(name string) error {
	return fmt.Errorf("artifact missing field %q", name)
}

// artifactDate is written as [year, month, day, hour] when it falls on a
// whole hour and as an RFC 3339 string otherwise. On read it also accepts
// [year, month, day] and ISO 8601 strings.
type artifactDate time.Time

func (d artifactDate) MarshalJSON() ([]byte, error) {
	t := time.Time(d).UTC()
	if !t.Truncate(time.Hour).Equal(t) {
		return json.Marshal(t.Format(time.RFC3339Nano))
	}
	return json.Marshal([4]int{t.Year(), int(t.Month()), t.Day(), t.Hour()})
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15",
	time.DateOnly,
}

func (d *artifactDate) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				*d = artifactDate(t.UTC())
				return nil
			}
		}
		return fmt.Errorf("invalid date %q", s)
	}

	var parts []int
	if err := json.Unmarshal(b, &parts); err != nil {
		return fmt.Errorf("invalid date %s: %w", b, err)
	}
	if len(parts) < 3 || len(parts) > 4 {
		return fmt.Errorf("invalid date %s: expected [year, month, day, hour]", b)
	}
	hour := 0
	if len(parts) == 4 {
		hour = parts[3]
	}
	if parts[1] < 1 || parts[1] > 12 || parts[2] < 1 || parts[2] > 31 || hour < 0 || hour > 23 {
		return fmt.Errorf("invalid date %s", b)
	}
	t := time.Date(parts[0], time.Month(parts[1]), parts[2], hour, 0, 0, 0, time.UTC)
	if t.Day() != parts[2] {
		return fmt.Errorf("invalid date %s", b)
	}
	*d = artifactDate(t)
	return nil
}

// flexFloat is a number that may also be written as a numeric string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", s)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// profileText holds a profile field. It is normally a text block of rows,
// but a JSON array of [altitude, value] pairs is accepted too.
type profileText struct {
	text  string
	pairs [][]float64
	set   bool
}

func (p profileText) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.text)
}

func (p profileText) IsZero() bool { return !p.set }

func (p *profileText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	p.set = true
	if len(b) > 0 && b[0] == '[' {
		return json.Unmarshal(b, &p.pairs)
	}
	return json.Unmarshal(b, &p.text)
}

func (p profileText) profile() (atmosphere.Profile, error) {
	if p.pairs == nil {
		return atmosphere.ParseProfile(p.text)
	}
	samples := make([]atmosphere.Sample, 0, len(p.pairs))
	for i, row := range p.pairs {
		if len(row) != atmosphere.Columns {
			return atmosphere.Profile{}, &atmosphere.RowError{
				Line:   1,
				Row:    i + 1,
				Reason: fmt.Sprintf("expected %d columns, got %d", atmosphere.Columns, len(row)),
			}
		}
		samples = append(samples, atmosphere.Sample{Altitude: row[0], Value: row[1]})
	}
	return atmosphere.NewProfile(samples)
}

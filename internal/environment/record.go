// Package environment resolves the launch-day environment: site, date and
// the four atmospheric profiles the flight solver integrates through.
//
// Environments are cached as dated artifacts. A Resolver reads the artifact
// for a day when one exists and is valid, and otherwise queries a forecast
// source and writes a fresh artifact for the next run.
package environment

import (
	"time"

	"github.com/WilliamArmst/testTwoStageRocket/internal/atmosphere"
)

// Location is a launch site. Elevation is in meters above sea level.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation"`
}

// Record is one resolved environment. Profiles are immutable, so a Record
// can be copied and shared freely.
type Record struct {
	Date              time.Time // UTC, whole hour
	Location          Location
	Datum             string
	Timezone          string
	MaxExpectedHeight float64
	ModelType         string
	Atmosphere        atmosphere.Atmosphere
}

// Equal reports whether both records hold the same scalar fields and the
// same profile samples.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.Date.Equal(o.Date) &&
		r.Location == o.Location &&
		r.Datum == o.Datum &&
		r.Timezone == o.Timezone &&
		r.MaxExpectedHeight == o.MaxExpectedHeight &&
		r.ModelType == o.ModelType &&
		r.Atmosphere.Equal(o.Atmosphere)
}

// Key returns the artifact key for the UTC calendar day of date. A date in
// another zone is converted to UTC first, so local midnight east of UTC
// names the previous day. Callers keying by a local calendar day build the
// date with time.UTC from its year, month and day.
func Key(date time.Time) string {
	return "environment_" + date.UTC().Format(time.DateOnly) + ".json"
}

// Day truncates t to midnight of its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

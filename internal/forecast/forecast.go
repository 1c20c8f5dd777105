// Package forecast queries remote numerical weather models for the
// atmospheric profiles above a launch site.
package forecast

import (
	"context"
	"errors"
	"time"

	"github.com/WilliamArmst/testTwoStageRocket/internal/atmosphere"
)

// ErrUnusable is returned when a forecast response cannot be turned into
// valid profiles.
var ErrUnusable = errors.New("unusable forecast response")

// Query identifies one forecast: a site, a UTC time and a model name such as
// "GFS".
type Query struct {
	Latitude  float64
	Longitude float64
	Time      time.Time
	Model     string
}

// Source fetches atmospheric profiles for a query.
type Source interface {
	Fetch(ctx context.Context, q Query) (atmosphere.Atmosphere, error)
}

package flight

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/WilliamArmst/testTwoStageRocket/internal/atmosphere"
	"github.com/WilliamArmst/testTwoStageRocket/internal/design"
	"github.com/WilliamArmst/testTwoStageRocket/internal/environment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

func TestLaunchValidate(t *testing.T) {
	assert.NoError(t, DefaultLaunch().Validate())
	assert.NoError(t, Launch{RailLength: 1, Inclination: 90, Heading: 359.9}.Validate())

	for _, l := range []Launch{
		{RailLength: 0, Inclination: 85},
		{RailLength: -4, Inclination: 85},
		{RailLength: 4, Inclination: 0},
		{RailLength: 4, Inclination: 91},
		{RailLength: 4, Inclination: 85, Heading: 360},
		{RailLength: 4, Inclination: 85, Heading: -1},
	} {
		err := l.Validate()
		assert.True(t, errors.Is(err, ErrInvalidLaunch), "%+v: got %v", l, err)
	}
}

func testInput(t *testing.T) Input {
	t.Helper()
	fleet, err := design.Assemble(design.Default())
	require.NoError(t, err)
	full, _ := fleet.Vehicle(design.FullAssembly)

	profile := func(a, b float64) atmosphere.Profile {
		p, err := atmosphere.NewProfile([]atmosphere.Sample{{Altitude: 0, Value: a}, {Altitude: 1000, Value: b}})
		require.NoError(t, err)
		return p
	}
	return Input{
		Vehicle: full,
		Environment: &environment.Record{
			Date:              time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			Location:          environment.HartselLaunchSite,
			Datum:             "SIRGAS2000",
			Timezone:          "UTC",
			MaxExpectedHeight: 80000,
			Atmosphere: atmosphere.Atmosphere{
				Pressure:    profile(101325, 89875),
				Temperature: profile(288.15, 281.65),
				WindU:       profile(0, 1),
				WindV:       profile(0, 1),
			},
		},
		Launch: DefaultLaunch(),
	}
}

func TestHTTPSolverSimulate(t *testing.T) {
	var got map[string]json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Write([]byte(`{"apogee_time": 14.2, "apogee_altitude": 3962.5, "apogee_x": 12, "apogee_y": 250.5, "apogee_freestream_speed": 8.1}`))
	}))
	defer server.Close()

	in := testInput(t)
	sum, err := NewHTTPSolver(server.URL, 5*time.Second, testLogger).Simulate(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 14.2, sum.ApogeeTime)
	assert.Equal(t, 3962.5, sum.ApogeeAltitude)
	assert.Equal(t, 2962.0, sum.SiteElevation)
	assert.InDelta(t, 1000.5, sum.ApogeeAboveSite, 1e-9)

	require.Contains(t, got, "vehicle")
	require.Contains(t, got, "environment")
	require.Contains(t, got, "launch")
	assert.JSONEq(t, `{"rail_length": 4, "inclination": 85, "heading": 0}`, string(got["launch"]))

	env, err := environment.Decode(got["environment"])
	require.NoError(t, err)
	assert.True(t, in.Environment.Equal(env))

	var v map[string]any
	require.NoError(t, json.Unmarshal(got["vehicle"], &v))
	assert.Equal(t, design.FullAssembly, v["name"])
}

func TestHTTPSolverErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fail":
			http.Error(w, "diverged", http.StatusUnprocessableEntity)
		case "/garbage":
			w.Write([]byte("not json"))
		case "/huge":
			w.Write([]byte(strings.Repeat(" ", maxSummaryBytes+10)))
		}
	}))
	defer server.Close()

	ctx := context.Background()
	in := testInput(t)

	_, err := NewHTTPSolver(server.URL+"/fail", 0, testLogger).Simulate(ctx, in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code 422")

	_, err = NewHTTPSolver(server.URL+"/garbage", 0, testLogger).Simulate(ctx, in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding solver response")

	_, err = NewHTTPSolver(server.URL+"/huge", 0, testLogger).Simulate(ctx, in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "byte limit")
}

func TestHTTPSolverRejectsInvalidInput(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	solver := NewHTTPSolver(server.URL, 0, testLogger)
	in := testInput(t)
	in.Launch.Inclination = 120
	_, err := solver.Simulate(context.Background(), in)
	assert.True(t, errors.Is(err, ErrInvalidLaunch), "got %v", err)

	_, err = solver.Simulate(context.Background(), Input{Launch: DefaultLaunch()})
	assert.Error(t, err)
	assert.Zero(t, calls)
}

package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WilliamArmst/testTwoStageRocket/internal/artifact"
	"github.com/WilliamArmst/testTwoStageRocket/internal/atmosphere"
	"github.com/WilliamArmst/testTwoStageRocket/internal/environment"
)

func writeArtifact(t *testing.T, dir string, day time.Time) {
	t.Helper()
	profile := func(a, b float64) atmosphere.Profile {
		p, err := atmosphere.NewProfile([]atmosphere.Sample{{Altitude: 0, Value: a}, {Altitude: 1000, Value: b}})
		require.NoError(t, err)
		return p
	}
	data, err := environment.Encode(&environment.Record{
		Date:              day.Add(12 * time.Hour),
		Location:          environment.HartselLaunchSite,
		Datum:             "SIRGAS2000",
		Timezone:          "UTC",
		MaxExpectedHeight: 80000,
		Atmosphere: atmosphere.Atmosphere{
			Pressure:    profile(101325, 89875),
			Temperature: profile(288.15, 281.65),
			WindU:       profile(0, 5),
			WindV:       profile(0, -5),
		},
	})
	require.NoError(t, err)
	require.NoError(t, artifact.NewFileStore(dir).Save(context.Background(), environment.Key(day), data))
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeArtifact(t, dir, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  []string
	}{
		{
			name:     "prints cached artifact",
			args:     []string{"--cache-dir", dir, "--date", "2025-06-01", "--at", "500"},
			wantCode: 0,
			wantOut:  []string{"Artifact environment_2025-06-01.json", "Forecast time: 2025-06-01T12:00:00Z", "95600.0", "284.90"},
		},
		{
			name:     "cache miss",
			args:     []string{"--cache-dir", dir, "--date", "2025-06-02"},
			wantCode: 1,
			wantOut:  []string{"CACHE MISS"},
		},
		{
			name:     "bad date",
			args:     []string{"--date", "06/01/2025"},
			wantCode: 2,
			wantOut:  []string{"ERROR parsing --date"},
		},
		{name: "unknown flag", args: []string{"--bogus"}, wantCode: 2},
		{name: "help", args: []string{"--help"}, wantCode: 0, wantOut: []string{"--cache-dir"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Cleanup(viper.Reset)
			var out bytes.Buffer
			code := run(tt.args, &out)
			assert.Equal(t, tt.wantCode, code, "output:\n%s", out.String())
			for _, want := range tt.wantOut {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

package environment

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/WilliamArmst/testTwoStageRocket/internal/atmosphere"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustProfile(t *testing.T, samples ...atmosphere.Sample) atmosphere.Profile {
	t.Helper()
	p, err := atmosphere.NewProfile(samples)
	require.NoError(t, err)
	return p
}

func sampleRecord(t *testing.T) *Record {
	t.Helper()
	return &Record{
		Date:              time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC),
		Location:          HartselLaunchSite,
		Datum:             "SIRGAS2000",
		Timezone:          "UTC",
		MaxExpectedHeight: 80000,
		ModelType:         "GFS",
		Atmosphere: atmosphere.Atmosphere{
			Pressure: mustProfile(t,
				atmosphere.Sample{Altitude: 2962.25, Value: 71234.56789},
				atmosphere.Sample{Altitude: 5821.1, Value: 50000},
				atmosphere.Sample{Altitude: 31011.000000001, Value: 1000},
			),
			Temperature: mustProfile(t,
				atmosphere.Sample{Altitude: 2962.25, Value: 0.1 + 0.2 + 288.15},
				atmosphere.Sample{Altitude: 5821.1, Value: 263.15},
			),
			WindU: mustProfile(t,
				atmosphere.Sample{Altitude: 2962.25, Value: -3.0000000000000004},
				atmosphere.Sample{Altitude: 5821.1, Value: 1e-17},
			),
			WindV: mustProfile(t,
				atmosphere.Sample{Altitude: 2962.25, Value: 6.123233995736766e-16},
				atmosphere.Sample{Altitude: 5821.1, Value: -12.5},
			),
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rec := sampleRecord(t)

	data, err := Encode(rec)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.True(t, rec.Equal(got), "round trip changed the record:\nwant %+v\ngot  %+v", rec, got)

	// Encoding again yields the same bytes.
	again, err := Encode(got)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestEncodeDecodeRoundTrip_SubHourDate(t *testing.T) {
	for _, date := range []time.Time{
		time.Date(2025, 6, 2, 12, 30, 0, 0, time.UTC),
		time.Date(2025, 6, 2, 12, 0, 15, 250, time.UTC),
		time.Date(2025, 6, 2, 6, 45, 0, 0, time.FixedZone("MDT", -6*3600)),
	} {
		rec := sampleRecord(t)
		rec.Date = date

		data, err := Encode(rec)
		require.NoError(t, err)

		got, err := Decode(data)
		require.NoError(t, err)
		assert.True(t, rec.Equal(got), "date %v came back as %v", date, got.Date)
	}
}

func TestEncodeWritesDateArrayAndProfileText(t *testing.T) {
	data, err := Encode(sampleRecord(t))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, []any{2025.0, 6.0, 2.0, 12.0}, raw["date"])
	assert.Equal(t, "[2962.25 -3.0000000000000004]\n[5821.1 1e-17]", raw["atmospheric_model_wind_velocity_x_profile"])
	assert.NotContains(t, raw, "pressure_profile")
}

func TestEncodeRejectsEmptyProfile(t *testing.T) {
	rec := sampleRecord(t)
	rec.Atmosphere.WindV = atmosphere.Profile{}

	_, err := Encode(rec)
	assert.True(t, errors.Is(err, atmosphere.ErrEmptyProfile), "got %v", err)
}

const minimalArtifact = `{
  "date": %s,
  "latitude": 39.0,
  "longitude": -105.7,
  "elevation": %s,
  "datum": "SIRGAS2000",
  "timezone": "UTC",
  "max_expected_height": 80000,
  "atmospheric_model_pressure_profile": %s,
  "atmospheric_model_temperature_profile": "[0 288.15]\n[1000 281.65]",
  "atmospheric_model_wind_velocity_x_profile": "[[0 0]\n [1000 5]]",
  "atmospheric_model_wind_velocity_y_profile": "0 0\n1000 -5\n"
}`

func artifactJSON(date, elevation, pressure string) []byte {
	return []byte(fmt.Sprintf(minimalArtifact, date, elevation, pressure))
}

func TestDecodeVariants(t *testing.T) {
	tests := []struct {
		name      string
		date      string
		elevation string
		pressure  string
		wantDate  time.Time
		wantElev  float64
	}{
		{
			name:      "array date with hour",
			date:      `[2025, 6, 1, 12]`,
			elevation: `1400`,
			pressure:  `"[0 101325][1000 89875]"`,
			wantDate:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			wantElev:  1400,
		},
		{
			name:      "array date without hour",
			date:      `[2025, 6, 1]`,
			elevation: `"1400.5"`,
			pressure:  `"[0, 101325]\n[1000, 89875]"`,
			wantDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			wantElev:  1400.5,
		},
		{
			name:      "string date and pair array",
			date:      `"2025-06-01T12:00:00Z"`,
			elevation: `0`,
			pressure:  `[[0, 101325], [1000, 89875]]`,
			wantDate:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			wantElev:  0,
		},
		{
			name:      "date only string",
			date:      `"2025-06-01"`,
			elevation: `2962`,
			pressure:  `"[0 101325]   [1000    89875]"`,
			wantDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			wantElev:  2962,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Decode(artifactJSON(tt.date, tt.elevation, tt.pressure))
			require.NoError(t, err)
			assert.True(t, tt.wantDate.Equal(rec.Date), "date = %v", rec.Date)
			assert.Equal(t, tt.wantElev, rec.Location.Elevation)
			assert.Equal(t, 2, rec.Atmosphere.Pressure.Len())
			assert.InDelta(t, 95600, rec.Atmosphere.Pressure.At(500), 1e-9)
			assert.InDelta(t, -2.5, rec.Atmosphere.WindV.At(500), 1e-12)
		})
	}
}

func TestDecodeShortProfileNames(t *testing.T) {
	data := []byte(`{
		"date": [2025, 6, 1, 12],
		"latitude": 1, "longitude": 2, "elevation": 3,
		"datum": "WGS84", "timezone": "UTC", "max_expected_height": 5000,
		"pressure_profile": "[0 101325][1000 89875]",
		"temperature_profile": "[0 288.15][1000 281.65]",
		"wind_u_profile": "[0 0][1000 0]",
		"wind_v_profile": "[0 0][1000 0]"
	}`)

	rec, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "WGS84", rec.Datum)
	assert.InDelta(t, 95600, rec.Atmosphere.Pressure.At(500), 1e-9)
}

func TestDecodeFailures(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"not json", []byte("environment"), "decoding artifact"},
		{"truncated", artifactJSON(`[2025, 6, 1, 12]`, `1`, `"[0 1][1 2]"`)[:120], "decoding artifact"},
		{"wrong arity", artifactJSON(`[2025, 6, 1, 12]`, `1`, `"[0 101325 7][1000 89875]"`), "expected 2 columns, got 3"},
		{"pair wrong arity", artifactJSON(`[2025, 6, 1, 12]`, `1`, `[[0, 101325], [1000]]`), "expected 2 columns, got 1"},
		{"empty profile", artifactJSON(`[2025, 6, 1, 12]`, `1`, `"[]"`), "no samples"},
		{"empty pair array", artifactJSON(`[2025, 6, 1, 12]`, `1`, `[]`), "no samples"},
		{"null profile", artifactJSON(`[2025, 6, 1, 12]`, `1`, `null`), "atmospheric_model_pressure_profile"},
		{"bad number", artifactJSON(`[2025, 6, 1, 12]`, `1`, `"[0 abc][1 2]"`), "invalid number"},
		{"bad date", artifactJSON(`[2025, 13, 1, 12]`, `1`, `"[0 1][1 2]"`), "invalid date"},
		{"feb 30", artifactJSON(`[2025, 2, 30]`, `1`, `"[0 1][1 2]"`), "invalid date"},
		{"bad elevation", artifactJSON(`[2025, 6, 1, 12]`, `"high"`, `"[0 1][1 2]"`), "invalid number"},
		{"missing scalar", []byte(`{"date": [2025, 6, 1, 12], "latitude": 1}`), `"longitude"`},
		{"pressure above the ground", artifactJSON(`[2025, 6, 1, 12]`, `1`, `"[5000 54000][5001 53990]"`), "profile domains do not match"},
		{"pressure single sample", artifactJSON(`[2025, 6, 1, 12]`, `1`, `"[0 101325]"`), "common range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Decode(tt.data)
			require.Error(t, err)
			assert.Nil(t, rec)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDecodeRowErrorIsTyped(t *testing.T) {
	_, err := Decode(artifactJSON(`[2025, 6, 1, 12]`, `1`, `"[0 101325]\n[1000 89875 3]"`))

	var rowErr *atmosphere.RowError
	require.True(t, errors.As(err, &rowErr), "got %v", err)
	assert.Equal(t, 2, rowErr.Line)
	assert.Equal(t, 2, rowErr.Row)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "environment_2025-06-01.json", Key(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "environment_2025-06-01.json", Key(time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC)))
	assert.NotEqual(t, Key(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)), Key(time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)))

	mdt := time.FixedZone("MDT", -6*3600)
	assert.Equal(t, "environment_2025-06-02.json", Key(time.Date(2025, 6, 1, 20, 0, 0, 0, mdt)))

	// Local midnight east of UTC is still the previous UTC day.
	aest := time.FixedZone("AEST", 10*3600)
	assert.Equal(t, "environment_2025-05-31.json", Key(time.Date(2025, 6, 1, 0, 0, 0, 0, aest)))
	assert.Equal(t, "environment_2025-06-01.json", Key(Day(time.Date(2025, 6, 1, 10, 0, 0, 0, aest))))
}

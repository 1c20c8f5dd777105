package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/WilliamArmst/testTwoStageRocket/internal/atmosphere"
)

const (
	defaultBaseURL = "https://api.open-meteo.com/v1/forecast"
	maxBodyBytes   = 10 << 20
	timeLayout     = "2006-01-02T15:04"
)

// pressureLevels are the isobaric levels (hPa) requested from the model,
// surface first.
var pressureLevels = []int{
	1000, 975, 950, 925, 900, 850, 800, 750, 700, 650, 600, 550, 500, 450,
	400, 350, 300, 250, 200, 150, 100, 70, 50, 40, 30, 20, 15, 10,
}

// modelNames maps model identifiers to Open-Meteo model names.
var modelNames = map[string]string{
	"GFS":   "gfs_seamless",
	"ICON":  "icon_seamless",
	"ECMWF": "ecmwf_ifs025",
	"GEM":   "gem_seamless",
}

// OpenMeteo fetches pressure-level forecasts from the Open-Meteo API.
type OpenMeteo struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOpenMeteo creates a client for the API at baseURL (the public endpoint
// when empty). Requests are bounded by the caller's context.
func NewOpenMeteo(baseURL string, logger *slog.Logger) *OpenMeteo {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &OpenMeteo{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// BaseURL returns the configured endpoint.
func (o *OpenMeteo) BaseURL() string {
	return o.baseURL
}

// Fetch queries the forecast for q.Time (truncated to the hour) and converts
// the pressure-level data into atmospheric profiles over geopotential height.
func (o *OpenMeteo) Fetch(ctx context.Context, q Query) (atmosphere.Atmosphere, error) {
	reqURL, err := o.requestURL(q)
	if err != nil {
		return atmosphere.Atmosphere{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return atmosphere.Atmosphere{}, fmt.Errorf("creating request: %w", err)
	}

	start := time.Now()
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return atmosphere.Atmosphere{}, fmt.Errorf("fetching forecast: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return atmosphere.Atmosphere{}, fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return atmosphere.Atmosphere{}, fmt.Errorf("forecast response exceeds %d byte limit", maxBodyBytes)
	}

	var doc response
	if resp.StatusCode != http.StatusOK {
		if json.Unmarshal(body, &doc) == nil && doc.Reason != "" {
			return atmosphere.Atmosphere{}, fmt.Errorf("unexpected status code %d from forecast API: %s", resp.StatusCode, doc.Reason)
		}
		return atmosphere.Atmosphere{}, fmt.Errorf("unexpected status code %d from forecast API", resp.StatusCode)
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return atmosphere.Atmosphere{}, fmt.Errorf("%w: decoding: %v", ErrUnusable, err)
	}

	atm, levels, err := doc.atmosphere(q.Time.UTC().Truncate(time.Hour))
	if err != nil {
		return atmosphere.Atmosphere{}, err
	}

	o.logger.Debug("forecast fetched",
		"component", "forecast",
		"model", q.Model,
		"levels", levels,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return atm, nil
}

func (o *OpenMeteo) requestURL(q Query) (string, error) {
	u, err := url.Parse(o.baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing forecast URL: %w", err)
	}

	vars := make([]string, 0, 4*len(pressureLevels))
	for _, lvl := range pressureLevels {
		vars = append(vars,
			fmt.Sprintf("temperature_%dhPa", lvl),
			fmt.Sprintf("geopotential_height_%dhPa", lvl),
			fmt.Sprintf("wind_speed_%dhPa", lvl),
			fmt.Sprintf("wind_direction_%dhPa", lvl),
		)
	}

	hour := q.Time.UTC().Truncate(time.Hour).Format(timeLayout)
	v := u.Query()
	v.Set("latitude", strconv.FormatFloat(q.Latitude, 'f', -1, 64))
	v.Set("longitude", strconv.FormatFloat(q.Longitude, 'f', -1, 64))
	v.Set("hourly", strings.Join(vars, ","))
	v.Set("start_hour", hour)
	v.Set("end_hour", hour)
	v.Set("wind_speed_unit", "ms")
	v.Set("timezone", "GMT")
	if q.Model != "" {
		name, ok := modelNames[strings.ToUpper(q.Model)]
		if !ok {
			name = strings.ToLower(q.Model)
		}
		v.Set("models", name)
	}
	u.RawQuery = v.Encode()
	return u.String(), nil
}

// response is the subset of the Open-Meteo payload used here. Hourly series
// are keyed by variable name; missing values decode as nil.
type response struct {
	Error  bool                       `json:"error"`
	Reason string                     `json:"reason"`
	Hourly map[string]json.RawMessage `json:"hourly"`
}

func (r *response) series(name string) ([]*float64, error) {
	raw, ok := r.Hourly[name]
	if !ok {
		return nil, nil
	}
	var vals []*float64
	if err := json.Unmarshal(raw, &vals); err != nil {
		return nil, fmt.Errorf("%w: series %s: %v", ErrUnusable, name, err)
	}
	return vals, nil
}

type levelSample struct {
	height, pressure, temperature, u, v float64
}

func (r *response) atmosphere(at time.Time) (atmosphere.Atmosphere, int, error) {
	if r.Error {
		return atmosphere.Atmosphere{}, 0, fmt.Errorf("%w: %s", ErrUnusable, r.Reason)
	}

	var times []string
	if raw, ok := r.Hourly["time"]; ok {
		if err := json.Unmarshal(raw, &times); err != nil {
			return atmosphere.Atmosphere{}, 0, fmt.Errorf("%w: time series: %v", ErrUnusable, err)
		}
	}
	idx := -1
	want := at.Format(timeLayout)
	for i, ts := range times {
		if ts == want {
			idx = i
			break
		}
	}
	if idx < 0 {
		return atmosphere.Atmosphere{}, 0, fmt.Errorf("%w: no data for %s", ErrUnusable, want)
	}

	var levels []levelSample
	for _, lvl := range pressureLevels {
		vals := make([]float64, 4)
		ok := true
		for j, prefix := range []string{"temperature", "geopotential_height", "wind_speed", "wind_direction"} {
			s, err := r.series(fmt.Sprintf("%s_%dhPa", prefix, lvl))
			if err != nil {
				return atmosphere.Atmosphere{}, 0, err
			}
			if idx >= len(s) || s[idx] == nil {
				ok = false
				break
			}
			vals[j] = *s[idx]
		}
		if !ok {
			continue
		}

		speed, dir := vals[2], vals[3]*math.Pi/180
		levels = append(levels, levelSample{
			height:      vals[1],
			pressure:    float64(lvl) * 100,
			temperature: vals[0] + 273.15,
			// Direction is where the wind blows from, clockwise from north.
			u: -speed * math.Sin(dir),
			v: -speed * math.Cos(dir),
		})
	}

	sort.SliceStable(levels, func(i, j int) bool { return levels[i].height < levels[j].height })
	var pressure, temperature, windU, windV []atmosphere.Sample
	for i, l := range levels {
		if i > 0 && l.height <= levels[i-1].height {
			continue
		}
		pressure = append(pressure, atmosphere.Sample{Altitude: l.height, Value: l.pressure})
		temperature = append(temperature, atmosphere.Sample{Altitude: l.height, Value: l.temperature})
		windU = append(windU, atmosphere.Sample{Altitude: l.height, Value: l.u})
		windV = append(windV, atmosphere.Sample{Altitude: l.height, Value: l.v})
	}
	if len(pressure) < 2 {
		return atmosphere.Atmosphere{}, 0, fmt.Errorf("%w: only %d usable pressure levels", ErrUnusable, len(pressure))
	}

	var atm atmosphere.Atmosphere
	var err error
	if atm.Pressure, err = atmosphere.NewProfile(pressure); err != nil {
		return atmosphere.Atmosphere{}, 0, fmt.Errorf("%w: pressure: %v", ErrUnusable, err)
	}
	if atm.Temperature, err = atmosphere.NewProfile(temperature); err != nil {
		return atmosphere.Atmosphere{}, 0, fmt.Errorf("%w: temperature: %v", ErrUnusable, err)
	}
	if atm.WindU, err = atmosphere.NewProfile(windU); err != nil {
		return atmosphere.Atmosphere{}, 0, fmt.Errorf("%w: wind_u: %v", ErrUnusable, err)
	}
	if atm.WindV, err = atmosphere.NewProfile(windV); err != nil {
		return atmosphere.Atmosphere{}, 0, fmt.Errorf("%w: wind_v: %v", ErrUnusable, err)
	}
	return atm, len(pressure), nil
}

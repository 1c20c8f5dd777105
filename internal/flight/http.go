package flight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/WilliamArmst/testTwoStageRocket/internal/environment"
	"github.com/WilliamArmst/testTwoStageRocket/internal/vehicle"
)

const maxSummaryBytes = 1 << 20

// HTTPSolver posts simulation requests to a solver service:
//
//	POST <url>  {"vehicle": {...}, "environment": {...}, "launch": {...}}
//
// and decodes a Summary from a 200 response.
type HTTPSolver struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPSolver creates a solver client. timeout bounds each request; zero
// leaves the bound to the caller's context.
func NewHTTPSolver(url string, timeout time.Duration, logger *slog.Logger) *HTTPSolver {
	return &HTTPSolver{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// URL returns the solver endpoint.
func (s *HTTPSolver) URL() string {
	return s.url
}

type request struct {
	Vehicle     *vehicle.Configuration `json:"vehicle"`
	Environment json.RawMessage        `json:"environment"`
	Launch      Launch                 `json:"launch"`
}

// Simulate sends in to the solver.
func (s *HTTPSolver) Simulate(ctx context.Context, in Input) (*Summary, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	env, err := environment.Encode(in.Environment)
	if err != nil {
		return nil, fmt.Errorf("encoding environment: %w", err)
	}
	body, err := json.Marshal(request{Vehicle: in.Vehicle, Environment: env, Launch: in.Launch})
	if err != nil {
		return nil, fmt.Errorf("encoding solver request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling solver: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSummaryBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(data) > maxSummaryBytes {
		return nil, fmt.Errorf("solver response exceeds %d byte limit", maxSummaryBytes)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from solver", resp.StatusCode)
	}

	var sum Summary
	if err := json.Unmarshal(data, &sum); err != nil {
		return nil, fmt.Errorf("decoding solver response: %w", err)
	}
	sum.SiteElevation = in.Environment.Location.Elevation
	sum.ApogeeAboveSite = sum.ApogeeAltitude - sum.SiteElevation

	s.logger.Debug("simulation finished",
		"component", "flight",
		"vehicle", in.Vehicle.Name(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &sum, nil
}

// Package pipeline runs one simulation pass: resolve the launch-day
// environment, assemble the vehicles, hand the full assembly to the solver
// and report what happened.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/WilliamArmst/testTwoStageRocket/internal/design"
	"github.com/WilliamArmst/testTwoStageRocket/internal/environment"
	"github.com/WilliamArmst/testTwoStageRocket/internal/flight"
	"github.com/WilliamArmst/testTwoStageRocket/internal/metrics"
	"github.com/WilliamArmst/testTwoStageRocket/internal/report"
)

// Resolver produces the environment for a launch day.
type Resolver interface {
	Resolve(ctx context.Context, date time.Time) (*environment.Resolution, error)
}

// Result describes a finished run. Fields after Date are nil when the run
// stopped before reaching them.
type Result struct {
	RunID       string
	Date        time.Time
	Environment *environment.Resolution
	Fleet       *design.Fleet
	Summary     *flight.Summary
	Report      *report.Report
	Elapsed     time.Duration
}

// Pipeline wires the run's collaborators together.
type Pipeline struct {
	resolver Resolver
	design   design.Design
	solver   flight.Solver
	launch   flight.Launch
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a pipeline. A nil solver skips the simulation step.
func New(resolver Resolver, d design.Design, solver flight.Solver, launch flight.Launch, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		resolver: resolver,
		design:   d,
		solver:   solver,
		launch:   launch,
		logger:   logger,
		now:      time.Now,
	}
}

// DefaultDate returns the UTC day after now.
func DefaultDate(now time.Time) time.Time {
	return environment.Day(now).AddDate(0, 0, 1)
}

// Run executes one pass for date; a zero date selects tomorrow. Fatal errors
// stop the run early. The returned error joins every error recorded in the
// report and is nil only when the run completed with 0 errors.
func (p *Pipeline) Run(ctx context.Context, date time.Time) (*Result, error) {
	start := p.now()
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)

	if date.IsZero() {
		date = DefaultDate(start)
	}
	date = environment.Day(date)

	rep := report.New(logger)
	res := &Result{RunID: runID, Date: date, Report: rep}
	defer func() {
		res.Elapsed = p.now().Sub(start)
		rep.Finish(res.Elapsed)
		metrics.RecordRun(rep.Count(), res.Elapsed)
	}()

	logger.Info("run started", "date", date.Format(time.DateOnly))

	env, err := p.resolver.Resolve(ctx, date)
	if err != nil {
		rep.Fatal(err)
		return res, rep.Err()
	}
	res.Environment = env
	if env.PersistErr != nil {
		rep.Add(env.PersistErr)
	}
	logger.Info("environment resolved",
		"source", env.Source,
		"key", env.Key,
		"forecast_time", env.Record.Date.Format(time.RFC3339),
		"levels", env.Record.Atmosphere.Pressure.Len(),
	)

	fleet, err := design.Assemble(p.design)
	if err != nil {
		rep.Fatal(err)
		return res, rep.Err()
	}
	res.Fleet = fleet
	for _, v := range fleet.Vehicles() {
		logger.Info("vehicle assembled",
			"vehicle", v.Name(),
			"motors", len(v.Motors()),
			"parachutes", len(v.Parachutes()),
			"total_mass", v.TotalMass(),
		)
	}

	if p.solver == nil {
		logger.Info("no solver configured, skipping simulation")
		return res, rep.Err()
	}

	full, ok := fleet.Vehicle(design.FullAssembly)
	if !ok {
		rep.Errorf("design has no %q vehicle to simulate", design.FullAssembly)
		return res, rep.Err()
	}

	sum, err := p.solver.Simulate(ctx, flight.Input{
		Vehicle:     full,
		Environment: env.Record,
		Launch:      p.launch,
	})
	if err != nil {
		rep.Errorf("simulating %s: %w", full.Name(), err)
		return res, rep.Err()
	}
	res.Summary = sum

	logger.Info("apogee",
		"vehicle", full.Name(),
		"time_s", sum.ApogeeTime,
		"altitude_asl_m", sum.ApogeeAltitude,
		"altitude_agl_m", sum.ApogeeAboveSite,
		"x_m", sum.ApogeeX,
		"y_m", sum.ApogeeY,
		"freestream_speed_ms", sum.ApogeeSpeed,
	)
	return res, rep.Err()
}

// Command rocketsim prepares and runs a two-stage rocket simulation.
//
//	rocketsim [run] [--date YYYY-MM-DD] [--design file.hcl]
//	rocketsim serve [--addr :8080]
//
// Settings come from rocketsim.yaml (or --config), .env, ROCKETSIM_*
// environment variables and flags.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/WilliamArmst/testTwoStageRocket/internal/api"
	"github.com/WilliamArmst/testTwoStageRocket/internal/artifact"
	"github.com/WilliamArmst/testTwoStageRocket/internal/cache"
	"github.com/WilliamArmst/testTwoStageRocket/internal/config"
	"github.com/WilliamArmst/testTwoStageRocket/internal/design"
	"github.com/WilliamArmst/testTwoStageRocket/internal/environment"
	"github.com/WilliamArmst/testTwoStageRocket/internal/flight"
	"github.com/WilliamArmst/testTwoStageRocket/internal/forecast"
	"github.com/WilliamArmst/testTwoStageRocket/internal/health"
	"github.com/WilliamArmst/testTwoStageRocket/internal/metrics"
	"github.com/WilliamArmst/testTwoStageRocket/internal/pipeline"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("rocketsim", pflag.ContinueOnError)
	configFile := flags.String("config", "", "config file (default ./rocketsim.yaml if present)")
	dateFlag := flags.String("date", "", "launch day YYYY-MM-DD (default tomorrow, UTC)")
	flags.String("design", "", "HCL design file (default built-in two-stage design)")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("cache-backend", "", "artifact store: file, sqlite or redis")
	flags.String("cache-dir", "", "artifact directory for the file backend")
	flags.String("solver-url", "", "flight solver endpoint; empty skips simulation")
	flags.String("addr", "", "listen address for serve")
	flags.String("metrics-textfile", "", "write run metrics to this file after a run")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	if err := config.Load(*configFile, flags); err != nil {
		fmt.Fprintln(os.Stderr, "rocketsim:", err)
		return 1
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: config.LogLevel(),
	}))
	if f := config.ConfigFile(); f != "" {
		logger.Info("config file loaded", "path", f)
	}

	cmd := "run"
	if flags.NArg() > 0 {
		cmd = flags.Arg(0)
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "run":
		return runOnce(ctx, logger, *dateFlag)
	case "serve":
		return serve(ctx, logger)
	default:
		logger.Error("unknown command", "command", cmd, "want", "run or serve")
		return 2
	}
}

func loadDesign(logger *slog.Logger) (design.Design, error) {
	path := config.DesignFile()
	if path == "" {
		return design.Default(), nil
	}
	d, err := design.LoadFile(path)
	if err != nil {
		return design.Design{}, err
	}
	logger.Info("design loaded", "path", path, "motors", len(d.Motors), "vehicles", len(d.Vehicles))
	return d, nil
}

func newResolver(ctx context.Context, logger *slog.Logger) (*environment.Resolver, artifact.Store, error) {
	store, err := artifact.New(ctx, config.Artifact(logger), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("opening artifact store: %w", err)
	}
	src := forecast.NewOpenMeteo(config.ForecastURL(), logger)
	return environment.NewResolver(store, src, config.Environment(logger), logger), store, nil
}

func runOnce(ctx context.Context, logger *slog.Logger, dateArg string) int {
	var date time.Time
	if dateArg != "" {
		d, err := time.Parse(time.DateOnly, dateArg)
		if err != nil {
			logger.Error("invalid --date, want YYYY-MM-DD", "value", dateArg)
			return 2
		}
		date = d
	}

	d, err := loadDesign(logger)
	if err != nil {
		logger.Error("failed to load design", "error", err)
		return 1
	}

	resolver, store, err := newResolver(ctx, logger)
	if err != nil {
		logger.Error("failed to initialize environment", "error", err)
		return 1
	}
	defer store.Close()

	var solver flight.Solver
	if url := config.SolverURL(); url != "" {
		solver = flight.NewHTTPSolver(url, config.SolverTimeout(), logger)
	}

	p := pipeline.New(resolver, d, solver, config.Launch(logger), logger)
	_, runErr := p.Run(ctx, date)

	if path := config.MetricsTextfile(); path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			logger.Warn("failed to write metrics textfile", "path", path, "error", err)
		}
	}

	if runErr != nil {
		return 1
	}
	return 0
}

func serve(ctx context.Context, logger *slog.Logger) int {
	authCfg, err := config.Auth(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		return 1
	}

	d, err := loadDesign(logger)
	if err != nil {
		logger.Error("failed to load design", "error", err)
		return 1
	}
	fleet, err := design.Assemble(d)
	if err != nil {
		logger.Error("invalid design", "error", err)
		return 1
	}

	resolver, store, err := newResolver(ctx, logger)
	if err != nil {
		logger.Error("failed to initialize environment", "error", err)
		return 1
	}
	defer store.Close()

	memo := cache.New(config.MemoryCache(logger), resolver, logger)
	go memo.Start(ctx)

	limits := config.ServeLimits(logger)
	addr := config.HTTPAddr()
	srv := api.NewServer(addr, logger, api.Options{
		Environments: memo,
		Fleet:        fleet,
		Auth:         authCfg,
		TrustProxy:   limits.TrustProxy,
		MaxPerClient: limits.MaxPerClient,
		MaxTotal:     limits.MaxTotal,
		Ready: map[string]health.Check{
			"artifacts": func(ctx context.Context) error { return artifact.Ping(ctx, store) },
		},
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", addr, "auth_enabled", authCfg.Enabled, "vehicles", len(fleet.Vehicles()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server listen error", "error", err)
		return 1
	}
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		return 1
	}

	logger.Info("server stopped")
	return 0
}

// Command envdiag prints the cached environment artifact for a day without
// contacting the forecast source.
//
//	envdiag --date 2025-06-01 --at 0,500,1000,5000
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/WilliamArmst/testTwoStageRocket/internal/artifact"
	"github.com/WilliamArmst/testTwoStageRocket/internal/atmosphere"
	"github.com/WilliamArmst/testTwoStageRocket/internal/config"
	"github.com/WilliamArmst/testTwoStageRocket/internal/environment"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	flags := pflag.NewFlagSet("envdiag", pflag.ContinueOnError)
	flags.SetOutput(out)
	configFile := flags.String("config", "", "config file")
	dateArg := flags.String("date", "", "day to inspect, YYYY-MM-DD (default tomorrow, UTC)")
	at := flags.Float64Slice("at", []float64{0, 500, 1000, 3000, 10000}, "altitudes to evaluate (m)")
	flags.String("cache-backend", "", "artifact store: file, sqlite or redis")
	flags.String("cache-dir", "", "artifact directory for the file backend")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	if err := config.Load(*configFile, flags); err != nil {
		fmt.Fprintln(out, "ERROR loading config:", err)
		return 1
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	date := environment.Day(time.Now()).AddDate(0, 0, 1)
	if *dateArg != "" {
		d, err := time.Parse(time.DateOnly, *dateArg)
		if err != nil {
			fmt.Fprintln(out, "ERROR parsing --date:", err)
			return 2
		}
		date = d
	}

	ctx := context.Background()
	store, err := artifact.New(ctx, config.Artifact(logger), logger)
	if err != nil {
		fmt.Fprintln(out, "ERROR opening artifact store:", err)
		return 1
	}
	defer store.Close()

	// No forecast source: Cached never fetches.
	resolver := environment.NewResolver(store, nil, config.Environment(logger), logger)
	fmt.Fprintf(out, "Artifact %s\n", environment.Key(date))

	rec, err := resolver.Cached(ctx, date)
	if err != nil {
		fmt.Fprintln(out, "CACHE MISS:", err)
		return 1
	}

	fmt.Fprintf(out, "Forecast time: %s\n", rec.Date.Format(time.RFC3339))
	fmt.Fprintf(out, "Location: lat=%.6f lon=%.6f elev=%.1fm (%s, %s)\n",
		rec.Location.Latitude, rec.Location.Longitude, rec.Location.Elevation, rec.Datum, rec.Timezone)
	fmt.Fprintf(out, "Max expected height: %.0fm\n", rec.MaxExpectedHeight)

	profiles := []struct {
		name string
		p    atmosphere.Profile
	}{
		{"pressure", rec.Atmosphere.Pressure},
		{"temperature", rec.Atmosphere.Temperature},
		{"wind_u", rec.Atmosphere.WindU},
		{"wind_v", rec.Atmosphere.WindV},
	}
	for _, pr := range profiles {
		lo, hi := pr.p.Domain()
		fmt.Fprintf(out, "  %-12s %3d samples  %8.1fm .. %8.1fm\n", pr.name, pr.p.Len(), lo, hi)
	}

	fmt.Fprintf(out, "\n%10s %12s %10s %8s %8s\n", "alt (m)", "p (Pa)", "T (K)", "u (m/s)", "v (m/s)")
	for _, h := range *at {
		fmt.Fprintf(out, "%10.1f %12.1f %10.2f %8.2f %8.2f\n", h,
			rec.Atmosphere.Pressure.At(h),
			rec.Atmosphere.Temperature.At(h),
			rec.Atmosphere.WindU.At(h),
			rec.Atmosphere.WindV.At(h),
		)
	}
	return 0
}

package environment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/WilliamArmst/testTwoStageRocket/internal/artifact"
	"github.com/WilliamArmst/testTwoStageRocket/internal/forecast"
	"github.com/WilliamArmst/testTwoStageRocket/internal/metrics"
)

// Source tells where a resolved record came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceForecast Source = "forecast"
)

// Resolution is the outcome of Resolve. PersistErr is set when a fetched
// record could not be written back; the record is valid regardless.
type Resolution struct {
	Record     *Record
	Source     Source
	Key        string
	PersistErr *PersistError
}

// Config holds the values used to build a record from a forecast.
type Config struct {
	Location          Location
	Datum             string
	Timezone          string
	MaxExpectedHeight float64
	Model             string
	Hour              int           // UTC hour of the forecast
	FetchTimeout      time.Duration // zero means no timeout beyond ctx
}

// HartselLaunchSite is the default launch site.
var HartselLaunchSite = Location{
	Latitude:  39.01549201631338,
	Longitude: -105.71103788653403,
	Elevation: 2962,
}

// DefaultConfig returns the configuration used by the CLI.
func DefaultConfig() Config {
	return Config{
		Location:          HartselLaunchSite,
		Datum:             "SIRGAS2000",
		Timezone:          "UTC",
		MaxExpectedHeight: 80000,
		Model:             "GFS",
		Hour:              12,
		FetchTimeout:      30 * time.Second,
	}
}

// Resolver produces one environment per day, reading the dated artifact when
// it is valid and fetching a forecast otherwise.
type Resolver struct {
	store  artifact.Store
	source forecast.Source
	cfg    Config
	logger *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(store artifact.Store, source forecast.Source, cfg Config, logger *slog.Logger) *Resolver {
	if cfg.Hour < 0 || cfg.Hour > 23 {
		cfg.Hour = 12
	}
	return &Resolver{
		store:  store,
		source: source,
		cfg:    cfg,
		logger: logger,
	}
}

// Config returns the resolver configuration.
func (r *Resolver) Config() Config {
	return r.cfg
}

// Resolve returns the environment for the UTC day of date at the configured
// launch site.
func (r *Resolver) Resolve(ctx context.Context, date time.Time) (*Resolution, error) {
	return r.ResolveAt(ctx, date, r.cfg.Location)
}

// ResolveAt is Resolve with an explicit site for the forecast fallback. A
// valid cached artifact for the day is returned as stored.
func (r *Resolver) ResolveAt(ctx context.Context, date time.Time, loc Location) (*Resolution, error) {
	key := Key(date)

	rec, err := r.Cached(ctx, date)
	if err == nil {
		metrics.RecordResolution(string(SourceCache))
		r.logger.Info("environment loaded from artifact",
			"component", "environment",
			"key", key,
		)
		return &Resolution{Record: rec, Source: SourceCache, Key: key}, nil
	}
	r.logger.Info("environment artifact unusable, fetching forecast",
		"component", "environment",
		"key", key,
		"cause", err,
	)

	rec, err = r.fetch(ctx, date, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetchFailed, key, err)
	}
	metrics.RecordResolution(string(SourceForecast))

	res := &Resolution{Record: rec, Source: SourceForecast, Key: key}
	if perr := r.persist(ctx, key, rec); perr != nil {
		metrics.RecordPersistFailure()
		r.logger.Warn("failed to persist environment artifact",
			"component", "environment",
			"key", key,
			"error", perr.Err,
		)
		res.PersistErr = perr
	}
	return res, nil
}

// Cached reads and decodes the artifact for the day of date without any
// remote access. Every failure is returned as a *CacheMiss.
func (r *Resolver) Cached(ctx context.Context, date time.Time) (*Record, error) {
	key := Key(date)

	data, err := r.store.Load(ctx, key)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			metrics.RecordCacheMiss(metrics.MissNotFound)
		} else {
			metrics.RecordCacheMiss(metrics.MissLoad)
		}
		return nil, &CacheMiss{Key: key, Err: err}
	}

	rec, err := Decode(data)
	if err != nil {
		metrics.RecordCacheMiss(metrics.MissInvalid)
		return nil, &CacheMiss{Key: key, Err: err}
	}
	if !sameDay(rec.Date, date) {
		metrics.RecordCacheMiss(metrics.MissInvalid)
		return nil, &CacheMiss{
			Key: key,
			Err: fmt.Errorf("artifact is dated %s", rec.Date.Format(time.DateOnly)),
		}
	}
	return rec, nil
}

func (r *Resolver) fetch(ctx context.Context, date time.Time, loc Location) (*Record, error) {
	target := Day(date).Add(time.Duration(r.cfg.Hour) * time.Hour)

	if r.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.FetchTimeout)
		defer cancel()
	}

	start := time.Now()
	atm, err := r.source.Fetch(ctx, forecast.Query{
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Time:      target,
		Model:     r.cfg.Model,
	})
	if err == nil {
		err = atm.Validate()
	}
	metrics.RecordFetch(time.Since(start), err)
	if err != nil {
		return nil, err
	}

	r.logger.Info("forecast fetched",
		"component", "environment",
		"model", r.cfg.Model,
		"target", target.Format(time.RFC3339),
		"levels", atm.Pressure.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &Record{
		Date:              target,
		Location:          loc,
		Datum:             r.cfg.Datum,
		Timezone:          r.cfg.Timezone,
		MaxExpectedHeight: r.cfg.MaxExpectedHeight,
		ModelType:         r.cfg.Model,
		Atmosphere:        atm,
	}, nil
}

func (r *Resolver) persist(ctx context.Context, key string, rec *Record) *PersistError {
	data, err := Encode(rec)
	if err != nil {
		return &PersistError{Key: key, Err: err}
	}
	if err := r.store.Save(ctx, key, data); err != nil {
		return &PersistError{Key: key, Err: err}
	}
	r.logger.Debug("environment artifact written",
		"component", "environment",
		"key", key,
		"bytes", len(data),
	)
	return nil
}

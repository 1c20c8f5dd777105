// Package config loads rocketsim settings from defaults, an optional config
// file, a .env file, ROCKETSIM_* environment variables and command-line flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/WilliamArmst/testTwoStageRocket/internal/artifact"
	"github.com/WilliamArmst/testTwoStageRocket/internal/auth"
	"github.com/WilliamArmst/testTwoStageRocket/internal/cache"
	"github.com/WilliamArmst/testTwoStageRocket/internal/environment"
	"github.com/WilliamArmst/testTwoStageRocket/internal/flight"
)

// EnvPrefix is prepended to every environment override, e.g.
// ROCKETSIM_CACHE_BACKEND for cache.backend.
const EnvPrefix = "ROCKETSIM"

func setDefaults() {
	def := environment.DefaultConfig()
	launch := flight.DefaultLaunch()

	viper.SetDefault("log.level", "info")

	viper.SetDefault("cache.backend", artifact.BackendFile)
	viper.SetDefault("cache.dir", "./environments")
	viper.SetDefault("cache.sqlitePath", "./environments.db")
	viper.SetDefault("cache.redisAddr", "localhost:6379")
	viper.SetDefault("cache.redisTTL", 0)

	viper.SetDefault("forecast.url", "https://api.open-meteo.com/v1/forecast")
	viper.SetDefault("forecast.timeout", def.FetchTimeout)
	viper.SetDefault("forecast.model", def.Model)
	viper.SetDefault("forecast.hour", def.Hour)

	viper.SetDefault("location.latitude", def.Location.Latitude)
	viper.SetDefault("location.longitude", def.Location.Longitude)
	viper.SetDefault("location.elevation", def.Location.Elevation)
	viper.SetDefault("location.datum", def.Datum)
	viper.SetDefault("location.timezone", def.Timezone)
	viper.SetDefault("location.maxExpectedHeight", def.MaxExpectedHeight)

	viper.SetDefault("solver.url", "")
	viper.SetDefault("solver.timeout", 5*time.Minute)

	viper.SetDefault("launch.railLength", launch.RailLength)
	viper.SetDefault("launch.inclination", launch.Inclination)
	viper.SetDefault("launch.heading", launch.Heading)

	viper.SetDefault("design.file", "")

	viper.SetDefault("http.addr", ":8080")
	viper.SetDefault("http.trustProxy", false)
	viper.SetDefault("http.maxFetchesPerClient", 2)
	viper.SetDefault("http.maxFetches", 16)
	viper.SetDefault("http.retainDays", 1)
	viper.SetDefault("http.sweepInterval", 10*time.Minute)
	viper.SetDefault("auth.enabled", false)
	viper.SetDefault("auth.token", "")
	viper.SetDefault("auth.publicCached", false)

	viper.SetDefault("metrics.textfile", "")
}

// flagKeys maps command-line flag names to the keys they override.
var flagKeys = map[string]string{
	"log-level":        "log.level",
	"cache-backend":    "cache.backend",
	"cache-dir":        "cache.dir",
	"design":           "design.file",
	"solver-url":       "solver.url",
	"addr":             "http.addr",
	"metrics-textfile": "metrics.textfile",
}

// Load populates the global viper registry. configFile may be empty, in
// which case rocketsim.yaml is looked up in the working directory and its
// absence is not an error. Flags from flagKeys that are defined in flags
// override every other source once set.
func Load(configFile string, flags *pflag.FlagSet) error {
	_ = godotenv.Load()

	setDefaults()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("rocketsim")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := viper.BindPFlag(key, f); err != nil {
				return fmt.Errorf("binding flag %s: %w", name, err)
			}
		}
	}
	return nil
}

// ConfigFile returns the config file in use, or "" when none was read.
func ConfigFile() string {
	return viper.ConfigFileUsed()
}

// ParseLevel converts a string log level to slog.Level. Unknown levels map
// to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogLevel returns the configured log level.
func LogLevel() slog.Level {
	return ParseLevel(viper.GetString("log.level"))
}

// Artifact returns the artifact store configuration.
func Artifact(logger *slog.Logger) artifact.Config {
	cfg := artifact.Config{
		Backend:    strings.ToLower(viper.GetString("cache.backend")),
		Dir:        viper.GetString("cache.dir"),
		SQLitePath: viper.GetString("cache.sqlitePath"),
		RedisAddr:  viper.GetString("cache.redisAddr"),
		RedisTTL:   viper.GetInt("cache.redisTTL"),
	}
	if cfg.RedisTTL < 0 {
		logger.Warn("invalid cache.redisTTL value, keeping keys forever", "value", cfg.RedisTTL)
		cfg.RedisTTL = 0
	}

	logger.Info("cache config",
		"backend", cfg.Backend,
		"dir", cfg.Dir,
		"sqlite_path", cfg.SQLitePath,
		"redis_addr", cfg.RedisAddr,
	)
	return cfg
}

// Environment returns the resolver configuration. Invalid values are logged
// and replaced by their defaults.
func Environment(logger *slog.Logger) environment.Config {
	def := environment.DefaultConfig()
	cfg := environment.Config{
		Location: environment.Location{
			Latitude:  viper.GetFloat64("location.latitude"),
			Longitude: viper.GetFloat64("location.longitude"),
			Elevation: viper.GetFloat64("location.elevation"),
		},
		Datum:             viper.GetString("location.datum"),
		Timezone:          viper.GetString("location.timezone"),
		MaxExpectedHeight: viper.GetFloat64("location.maxExpectedHeight"),
		Model:             viper.GetString("forecast.model"),
		Hour:              viper.GetInt("forecast.hour"),
		FetchTimeout:      viper.GetDuration("forecast.timeout"),
	}

	if cfg.Location.Latitude < -90 || cfg.Location.Latitude > 90 ||
		cfg.Location.Longitude < -180 || cfg.Location.Longitude > 180 {
		logger.Warn("invalid launch site coordinates, using default",
			"latitude", cfg.Location.Latitude,
			"longitude", cfg.Location.Longitude,
		)
		cfg.Location = def.Location
	}
	if cfg.Hour < 0 || cfg.Hour > 23 {
		logger.Warn("invalid forecast.hour value, using default", "value", cfg.Hour, "default", def.Hour)
		cfg.Hour = def.Hour
	}
	if cfg.FetchTimeout < 0 {
		logger.Warn("invalid forecast.timeout value, using default", "value", cfg.FetchTimeout, "default", def.FetchTimeout)
		cfg.FetchTimeout = def.FetchTimeout
	}
	if !(cfg.MaxExpectedHeight > 0) {
		logger.Warn("invalid location.maxExpectedHeight value, using default", "value", cfg.MaxExpectedHeight)
		cfg.MaxExpectedHeight = def.MaxExpectedHeight
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}

	logger.Info("environment config",
		"latitude", cfg.Location.Latitude,
		"longitude", cfg.Location.Longitude,
		"elevation", cfg.Location.Elevation,
		"model", cfg.Model,
		"hour", cfg.Hour,
		"fetch_timeout_seconds", cfg.FetchTimeout.Seconds(),
	)
	return cfg
}

// ForecastURL returns the forecast API endpoint.
func ForecastURL() string {
	return viper.GetString("forecast.url")
}

// Launch returns the launch rail parameters. Invalid values are logged and
// replaced by the defaults.
func Launch(logger *slog.Logger) flight.Launch {
	l := flight.Launch{
		RailLength:  viper.GetFloat64("launch.railLength"),
		Inclination: viper.GetFloat64("launch.inclination"),
		Heading:     viper.GetFloat64("launch.heading"),
	}
	if err := l.Validate(); err != nil {
		logger.Warn("invalid launch config, using default", "error", err)
		return flight.DefaultLaunch()
	}
	return l
}

// SolverURL returns the solver endpoint; empty disables simulation.
func SolverURL() string {
	return viper.GetString("solver.url")
}

// SolverTimeout returns the per-request solver timeout.
func SolverTimeout() time.Duration {
	return viper.GetDuration("solver.timeout")
}

// DesignFile returns the HCL design path; empty selects the built-in design.
func DesignFile() string {
	return viper.GetString("design.file")
}

// HTTPAddr returns the listen address for serve mode.
func HTTPAddr() string {
	return viper.GetString("http.addr")
}

// Serve holds the serve-mode request limits.
type Serve struct {
	TrustProxy   bool
	MaxPerClient int
	MaxTotal     int
}

// ServeLimits returns the serve-mode request limits.
func ServeLimits(logger *slog.Logger) Serve {
	cfg := Serve{
		TrustProxy:   viper.GetBool("http.trustProxy"),
		MaxPerClient: viper.GetInt("http.maxFetchesPerClient"),
		MaxTotal:     viper.GetInt("http.maxFetches"),
	}
	if cfg.MaxPerClient < 1 {
		logger.Warn("invalid http.maxFetchesPerClient value, using default", "value", cfg.MaxPerClient, "default", 2)
		cfg.MaxPerClient = 2
	}
	if cfg.MaxTotal < cfg.MaxPerClient {
		logger.Warn("http.maxFetches below per-client limit, raising it", "value", cfg.MaxTotal, "per_client", cfg.MaxPerClient)
		cfg.MaxTotal = cfg.MaxPerClient
	}
	return cfg
}

// MemoryCache returns the serve-mode in-memory environment cache config.
func MemoryCache(logger *slog.Logger) cache.Config {
	cfg := cache.Config{
		Retain:        viper.GetInt("http.retainDays"),
		SweepInterval: viper.GetDuration("http.sweepInterval"),
	}
	if cfg.Retain < 0 {
		logger.Warn("invalid http.retainDays value, using default", "value", cfg.Retain, "default", 1)
		cfg.Retain = 1
	}
	if cfg.SweepInterval <= 0 {
		logger.Warn("invalid http.sweepInterval value, using default", "value", cfg.SweepInterval)
		cfg.SweepInterval = 10 * time.Minute
	}
	return cfg
}

// MetricsTextfile returns the path the CLI writes metrics to after a run.
func MetricsTextfile() string {
	return viper.GetString("metrics.textfile")
}

// Auth returns the serve-mode authentication config.
func Auth(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{
		Enabled:      viper.GetBool("auth.enabled"),
		PublicCached: viper.GetBool("auth.publicCached"),
	}
	if cfg.Enabled {
		cfg.Token = viper.GetString("auth.token")
		if cfg.Token == "" {
			return cfg, errors.New("auth.token is required when auth is enabled")
		}
		logger.Info("auth enabled", "public_cached_reads", cfg.PublicCached)
	}
	return cfg, nil
}

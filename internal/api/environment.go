package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/WilliamArmst/testTwoStageRocket/internal/environment"
	"github.com/WilliamArmst/testTwoStageRocket/internal/httputil"
	"github.com/WilliamArmst/testTwoStageRocket/internal/metrics"
)

// Environments resolves launch-day environments.
type Environments interface {
	Resolve(ctx context.Context, date time.Time) (*environment.Resolution, error)
	Cached(ctx context.Context, date time.Time) (*environment.Record, error)
}

// parseDate accepts YYYY-MM-DD, "today" and "tomorrow" (UTC).
func parseDate(s string, now time.Time) (time.Time, bool) {
	today := environment.Day(now)
	switch strings.ToLower(s) {
	case "today":
		return today, true
	case "tomorrow":
		return today.AddDate(0, 0, 1), true
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

type environmentHandler struct {
	envs       Environments
	limiter    *fetchLimiter
	trustProxy bool
	logger     *slog.Logger
	now        func() time.Time
}

// ServeHTTP answers GET /api/v1/environment/{date} with the artifact
// document for that day. With ?cached=true only an existing artifact is
// returned; otherwise a miss is filled from the forecast.
func (h *environmentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	date, ok := parseDate(r.PathValue("date"), h.now())
	if !ok {
		metrics.IncAPIErrors("bad_request")
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD, today or tomorrow")
		return
	}

	cachedOnly := false
	if v := r.URL.Query().Get("cached"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			metrics.IncAPIErrors("bad_request")
			writeError(w, http.StatusBadRequest, "invalid cached parameter, must be a boolean")
			return
		}
		cachedOnly = b
	}

	if cachedOnly {
		rec, err := h.envs.Cached(r.Context(), date)
		if err != nil {
			writeError(w, http.StatusNotFound, "no cached environment for "+date.Format(time.DateOnly))
			return
		}
		h.writeRecord(w, rec, environment.SourceCache, environment.Key(date))
		return
	}

	ip := httputil.ClientIP(r, h.trustProxy)
	if !h.limiter.acquire(ip) {
		metrics.IncAPIErrors("rate_limit")
		h.logger.Warn("environment fetch limit exceeded",
			"component", "api",
			"remote_ip", ip,
			"current_count", h.limiter.count(ip),
		)
		w.Header().Set("Retry-After", "30")
		writeError(w, http.StatusTooManyRequests, "too many concurrent environment requests")
		return
	}
	defer h.limiter.release(ip)

	res, err := h.envs.Resolve(r.Context(), date)
	if err != nil {
		metrics.IncAPIErrors("forecast")
		h.logger.Error("environment resolution failed",
			"component", "api",
			"date", date.Format(time.DateOnly),
			"error", err,
		)
		status := http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		writeError(w, status, "forecast unavailable")
		return
	}
	if res.PersistErr != nil {
		w.Header().Set("X-Environment-Persisted", "false")
	}
	h.writeRecord(w, res.Record, res.Source, res.Key)
}

func (h *environmentHandler) writeRecord(w http.ResponseWriter, rec *environment.Record, src environment.Source, key string) {
	data, err := environment.Encode(rec)
	if err != nil {
		metrics.IncAPIErrors("encode")
		h.logger.Error("encoding environment", "component", "api", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Environment-Source", string(src))
	w.Header().Set("X-Environment-Key", key)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

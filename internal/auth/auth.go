// Package auth guards the serve-mode API with a shared bearer token.
//
// Only requests that can make the server fetch a forecast need the token.
// Vehicle and motor descriptions are static, and an environment read with
// cached=true never leaves the artifact store, so both stay public.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/WilliamArmst/testTwoStageRocket/internal/metrics"
)

// Config holds authentication configuration. PublicCached leaves
// cached-only environment reads open when auth is enabled.
type Config struct {
	Enabled      bool
	Token        string
	PublicCached bool
}

const environmentPrefix = "/api/v1/environment/"

var operationalPaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

var staticPrefixes = []string{
	"/api/v1/vehicles",
	"/api/v1/motors",
}

// public reports whether r can be served without a token under cfg.
func (cfg Config) public(r *http.Request) bool {
	path := r.URL.Path
	if operationalPaths[path] {
		return true
	}
	for _, prefix := range staticPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	if cfg.PublicCached && strings.HasPrefix(path, environmentPrefix) {
		cached, err := strconv.ParseBool(r.URL.Query().Get("cached"))
		return err == nil && cached
	}
	return false
}

// bearer extracts the token of an "Authorization: Bearer <token>" header.
// The scheme is case-insensitive.
func bearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Middleware rejects requests that need the token and do not carry it.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || cfg.public(r) {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearer(r.Header.Get("Authorization"))
			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(cfg.Token)) != 1 {
				metrics.IncAPIErrors("unauthorized")
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", `Bearer realm="rocketsim"`)
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

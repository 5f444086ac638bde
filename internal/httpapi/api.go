// Package httpapi exposes the cookie-authenticated HTTP boundary of the
// service.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"skincheck.org/internal/access"
	"skincheck.org/internal/account"
	"skincheck.org/internal/analysis"
	"skincheck.org/internal/obs"
	"skincheck.org/internal/session"
	"skincheck.org/internal/stats"
	"skincheck.org/internal/stream"
)

// ReadyProbe checks readiness, typically by pinging the database.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// AccountStore is the account surface the handlers need.
type AccountStore interface {
	Create(ctx context.Context, email, password, name string) (*account.Account, error)
	FindByEmail(ctx context.Context, email string) (*account.Account, error)
	ListAll(ctx context.Context) ([]*account.Account, error)
}

// SessionStore is the session surface the handlers need.
type SessionStore interface {
	Create(ctx context.Context, accountID string) (string, time.Time, error)
	Resolve(ctx context.Context, token string) (*session.Principal, error)
	Revoke(ctx context.Context, token string) error
}

// AnalysisStore is the analysis surface the handlers need.
type AnalysisStore interface {
	Create(ctx context.Context, accountID, imageRef string, res analysis.Result) (*analysis.Record, error)
	ListByAccount(ctx context.Context, accountID string) ([]*analysis.Record, error)
	ListRecent(ctx context.Context, limit int) ([]*analysis.Record, error)
}

// StatsProvider serves the administrative overview.
type StatsProvider interface {
	Overview(ctx context.Context) (stats.Overview, error)
}

// Deps bundles the collaborators injected into the API.
type Deps struct {
	Accounts AccountStore
	Sessions SessionStore
	Analyses AnalysisStore
	Stats    StatsProvider
	// Predict supplies the externally-produced classification result when a
	// submission does not carry one.
	Predict func() analysis.Result
	// Events receives one event per stored analysis and feeds the admin
	// dashboard stream. Optional; nil disables the feed.
	Events *stream.Stream
	// SecureCookies marks session cookies Secure; enable behind TLS.
	SecureCookies bool
	// RateBurst and RatePerSec tune the per-IP rate limiter; zero keeps the
	// defaults.
	RateBurst  int
	RatePerSec int
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string
	deps       Deps
	gate       *access.Gate

	rateBurst  int
	ratePerSec int
}

func New(rp ReadyProbe, version string, deps Deps) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		deps:       deps,
		gate:       access.NewGate(deps.Sessions),
		rateBurst:  20,
		ratePerSec: 10,
	}
	if deps.RateBurst > 0 {
		a.rateBurst = deps.RateBurst
	}
	if deps.RatePerSec > 0 {
		a.ratePerSec = deps.RatePerSec
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/v1/auth/register", a.handleRegister)
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/auth/logout", a.handleLogout)

	a.mux.HandleFunc("/v1/analyses", a.handleAnalyses)

	a.mux.HandleFunc("/v1/admin/analyses", a.handleAdminAnalyses)
	a.mux.HandleFunc("/v1/admin/users", a.handleAdminUsers)
	a.mux.HandleFunc("/v1/admin/stats", a.handleAdminStats)
	a.mux.HandleFunc("/v1/admin/events", a.handleAdminEvents)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler assembles the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withSession(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "skincheck-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"schoolgrid.org/internal/authz"
	"schoolgrid.org/internal/obs"
	"schoolgrid.org/internal/roster"
)

// ReadyProbe pings the backing store for /readyz.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options carries the collaborators the HTTP layer needs.
type Options struct {
	ReadyProbe ReadyProbe
	Version    string
	Profiles   authz.ProfileReader
	Directory  authz.Directory
	Roster     roster.Reader
}

// API is the HTTP layer. Controllers here stay thin: validate input, resolve
// scope and permission, query, shape JSON.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	profiles authz.ProfileReader
	scopes   *authz.ScopeResolver
	perms    *authz.PermissionResolver
	roster   *roster.Service
}

func New(opts Options) (*API, error) {
	if opts.Directory == nil {
		return nil, errors.New("httpapi: directory is required")
	}
	if opts.Profiles == nil {
		return nil, errors.New("httpapi: profile reader is required")
	}
	scopes, err := authz.NewScopeResolver(opts.Directory)
	if err != nil {
		return nil, err
	}
	perms, err := authz.NewPermissionResolver(opts.Directory)
	if err != nil {
		return nil, err
	}
	rosterSvc, err := roster.NewService(opts.Roster)
	if err != nil {
		return nil, err
	}

	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: opts.ReadyProbe,
		version:    opts.Version,
		profiles:   opts.Profiles,
		scopes:     scopes,
		perms:      perms,
		roster:     rosterSvc,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// dev token mint
	a.mux.HandleFunc("/v1/auth/token", a.handleAuthToken)

	// authorization surface
	a.mux.HandleFunc("/v1/me/schools", a.handleMySchools)
	a.mux.HandleFunc("/v1/me/permissions", a.handleMyPermissions)
	a.mux.HandleFunc("/v1/authz/check", a.handleAuthzCheck)
	a.mux.HandleFunc("/v1/students", a.handleStudents)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not_found", "resource not found")
	})

	return a, nil
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 100, 50)
	h = SecurityHeaders(h)
	h = CORS(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "schoolgrid-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "schoolgrid-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError shapes every error response: a stable machine-readable code
// plus a human message. Denials always carry code "unauthorized" with a
// generic message; the reason for a denial lives in logs, never in the body.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	payload := map[string]any{
		"error": msg,
		"code":  code,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, status, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"skincheck.org/internal/access"
	"skincheck.org/internal/account"
	"skincheck.org/internal/analysis"
	"skincheck.org/internal/session"
)

type adminUserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// requireAdmin extracts the principal and enforces the admin role. Handlers
// behind it never run for non-admin callers.
func (a *API) requireAdmin(w http.ResponseWriter, r *http.Request) (*session.Principal, bool) {
	principal, ok := access.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "invalid session")
		return nil, false
	}
	if err := a.gate.RequireRole(principal, account.RoleAdmin); err != nil {
		a.handleError(w, r, err)
		return nil, false
	}
	return principal, true
}

func (a *API) handleAdminAnalyses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}

	limit, err := parsePositiveInt(r.URL.Query().Get("limit"), 50, 1, 50)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	records, err := a.deps.Analyses.ListRecent(r.Context(), limit)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	if records == nil {
		records = []*analysis.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (a *API) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}

	accounts, err := a.deps.Accounts.ListAll(r.Context())
	if err != nil {
		a.handleError(w, r, err)
		return
	}

	res := make([]adminUserResponse, 0, len(accounts))
	for _, acc := range accounts {
		res = append(res, adminUserResponse{
			ID:        acc.ID,
			Email:     acc.Email,
			Name:      acc.Name,
			Role:      string(acc.Role),
			CreatedAt: acc.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}

	overview, err := a.deps.Stats.Overview(r.Context())
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// handleAdminEvents streams analysis activity as server-sent events. The
// subscription lives until the client disconnects.
func (a *API) handleAdminEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	if a.deps.Events == nil {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for evt := range a.deps.Events.Subscribe(r.Context()) {
		data, err := json.Marshal(evt)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}
}

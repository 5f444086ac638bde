package httpapi

import (
	"net/http"

	"skincheck.org/internal/access"
	"skincheck.org/internal/analysis"
	"skincheck.org/internal/audit"
	"skincheck.org/internal/obs"
	"skincheck.org/internal/stream"
)

type analysisRequest struct {
	// ImageRef is the opaque reference to the uploaded image; byte storage
	// lives outside this service.
	ImageRef string `json:"image_ref"`
	// Result optionally carries the externally-produced classification. When
	// absent the configured predictor supplies one.
	Result *analysis.Result `json:"result,omitempty"`
}

func (a *API) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createAnalysis(w, r)
	case http.MethodGet:
		a.listOwnAnalyses(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet)
	}
}

func (a *API) createAnalysis(w http.ResponseWriter, r *http.Request) {
	principal, ok := access.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "invalid session")
		return
	}

	var req analysisRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.ImageRef == "" {
		writeError(w, r, http.StatusBadRequest, "image_ref is required")
		return
	}

	var res analysis.Result
	if req.Result != nil {
		res = *req.Result
	} else {
		res = a.deps.Predict()
	}

	rec, err := a.deps.Analyses.Create(r.Context(), principal.AccountID, req.ImageRef, res)
	if err != nil {
		a.handleError(w, r, err)
		return
	}

	obs.ObserveAnalysisCreated()
	_ = audit.LogEvent(r.Context(), "analysis_created", map[string]any{
		"analysis_id": rec.ID,
		"disease":     rec.Disease,
	})
	if a.deps.Events != nil {
		a.deps.Events.Publish(stream.Event{
			AnalysisID: rec.ID,
			AccountID:  rec.AccountID,
			Disease:    rec.Disease,
			Severity:   rec.Severity,
			Confidence: rec.Confidence,
			CreatedAt:  rec.CreatedAt,
		})
	}
	writeJSON(w, http.StatusCreated, rec)
}

// listOwnAnalyses returns records scoped to the caller's account only.
func (a *API) listOwnAnalyses(w http.ResponseWriter, r *http.Request) {
	principal, ok := access.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "invalid session")
		return
	}

	records, err := a.deps.Analyses.ListByAccount(r.Context(), principal.AccountID)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	if records == nil {
		records = []*analysis.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

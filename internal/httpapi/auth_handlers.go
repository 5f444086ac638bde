package httpapi

import (
	"errors"
	"net/http"
	"time"

	"skincheck.org/internal/account"
	"skincheck.org/internal/audit"
	"skincheck.org/internal/obs"
)

const sessionCookieName = "session"

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	acc, err := a.deps.Accounts.Create(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		a.handleError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "account_registered", map[string]any{
		"account_id": acc.ID,
	})
	writeJSON(w, http.StatusCreated, map[string]any{"id": acc.ID})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "email and password are required")
		return
	}

	// A missing account and a wrong password produce the same response, so
	// the endpoint cannot be used to enumerate registered emails.
	acc, err := a.deps.Accounts.FindByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			obs.ObserveLogin("denied")
			_ = audit.LogEvent(r.Context(), "login_denied", map[string]any{"email": req.Email})
			writeError(w, r, http.StatusUnauthorized, "invalid credentials")
			return
		}
		a.handleError(w, r, err)
		return
	}
	if err := account.VerifyPassword(acc.PasswordHash, req.Password); err != nil {
		obs.ObserveLogin("denied")
		_ = audit.LogEvent(r.Context(), "login_denied", map[string]any{"email": req.Email})
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := a.deps.Sessions.Create(r.Context(), acc.ID)
	if err != nil {
		a.handleError(w, r, err)
		return
	}

	a.setSessionCookie(w, token, expiresAt)
	obs.ObserveLogin("ok")
	_ = audit.LogEvent(r.Context(), "login_succeeded", map[string]any{"account_id": acc.ID})
	writeJSON(w, http.StatusOK, map[string]any{
		"user": userResponse{
			ID:    acc.ID,
			Email: acc.Email,
			Name:  acc.Name,
			Role:  string(acc.Role),
		},
	})
}

// handleLogout revokes the current session if one is attached and clears the
// cookie. It succeeds even without a session.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if err := a.deps.Sessions.Revoke(r.Context(), cookie.Value); err != nil {
			obs.LogRequest(map[string]any{
				"level":      "error",
				"msg":        "session_revoke_failed",
				"request_id": RequestIDFromContext(r.Context()),
				"error":      err.Error(),
			})
		} else {
			_ = audit.LogEvent(r.Context(), "session_revoked", nil)
		}
	}

	a.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"message": "logged out"})
}

func (a *API) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   a.deps.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *API) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.deps.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

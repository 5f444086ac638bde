package httpapi

import (
	"errors"
	"net/http"

	"skincheck.org/internal/access"
)

var publicPaths = []string{
	"/",
	"/healthz",
	"/readyz",
	"/metrics",
	"/v1/auth/register",
	"/v1/auth/login",
	"/v1/auth/logout",
}

// withSession resolves the session cookie to a principal for every
// privileged path. Unauthenticated requests are rejected here, before any
// handler or repository runs.
func (a *API) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token := sessionTokenFromRequest(r)
		principal, err := a.gate.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, access.ErrUnauthenticated) {
				writeError(w, r, http.StatusUnauthorized, "invalid session")
			} else {
				writeError(w, r, http.StatusInternalServerError, "authentication error")
			}
			return
		}

		ctx := access.ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionTokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

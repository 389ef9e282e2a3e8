package auth

import (
	"net/http"
	"strings"

	"github.com/debemdeboas/quill/internal/api"
	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/errs"
)

// TokenFromRequest returns the bearer token, falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get(config.HAuthorization); strings.HasPrefix(h, config.BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(h, config.BearerPrefix))
	}
	if cookie, err := r.Cookie(config.CookieSession); err == nil {
		return cookie.Value
	}
	return ""
}

// WithSession flags requests that carry a valid session. Requests without one
// proceed unflagged.
func (g *Gate) WithSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g.Valid(TokenFromRequest(r)) {
				r = r.WithContext(ContextWithAdmin(r.Context()))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin answers 401 unless the request was flagged by WithSession.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			api.WriteError(w, r, errs.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

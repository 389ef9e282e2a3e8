package auth

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/debemdeboas/quill/internal/api"
	"github.com/debemdeboas/quill/internal/config"
	"github.com/rs/zerolog"
)

// LoginHandler accepts JSON or form credentials. On success the token is
// returned in the body and set as an HttpOnly cookie.
func LoginHandler(g *Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := zerolog.Ctx(r.Context())

		var creds api.Credentials
		mediaType, _, _ := mime.ParseMediaType(r.Header.Get(config.HCType))
		if mediaType == config.CTypeJSON {
			if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
				l.Warn().Err(err).Msg("Malformed login body")
				api.WriteJSON(w, http.StatusBadRequest, api.Response{Message: config.ErrMalformedJSON})
				return
			}
		} else {
			creds.Username = r.PostFormValue("username")
			creds.Password = r.PostFormValue("password")
		}

		token, ok := g.Authenticate(creds.Username, creds.Password)
		if !ok {
			api.WriteJSON(w, http.StatusUnauthorized, api.Response{Message: config.ErrInvalidCredentials})
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     config.CookieSession,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
			Secure:   r.TLS != nil,
			MaxAge:   int(g.TTL().Seconds()),
		})

		api.WriteOK(w, api.Response{Token: token})
	}
}

// Package api holds the JSON bodies exchanged between the publishing client
// and the server, and the helpers handlers use to write them.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/errs"
	"github.com/debemdeboas/quill/internal/model"
	"github.com/rs/zerolog"
)

var apiLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	apiLogger = l
}

const (
	PathLogin        = "/api/auth/login"
	PathAssets       = "/api/assets"
	PathPosts        = "/api/posts"
	PathDeletedPosts = "/api/posts/deleted"
)

func PostPath(id model.PostID) string {
	return PathPosts + "/" + string(id)
}

// Response is the single envelope every API endpoint answers with. Only the
// fields relevant to an endpoint are set.
type Response struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message,omitempty"`
	ID       model.PostID     `json:"id,omitempty"`
	ImageURL string           `json:"image_url,omitempty"`
	Token    string           `json:"token,omitempty"`
	Post     *model.PostView  `json:"post,omitempty"`
	Posts    []model.PostView `json:"posts,omitempty"`
}

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HCType, config.CTypeJSONUTF8)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		apiLogger.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func WriteOK(w http.ResponseWriter, resp Response) {
	resp.Success = true
	WriteJSON(w, http.StatusOK, resp)
}

// WriteError answers with the status mapped from err. Internal failures are
// logged on the request logger and reported with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := errs.HTTPStatus(err)
	msg := err.Error()

	var verr *errs.ValidationError
	switch {
	case errors.As(err, &verr):
		msg = verr.Reason
	case errors.Is(err, errs.ErrNotFound):
		msg = config.ErrPostNotFound
	case errors.Is(err, errs.ErrUnauthorized):
		msg = config.ErrSessionRequired
	case status >= http.StatusInternalServerError:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Request failed")
		msg = config.ErrInternalServerError
	}

	WriteJSON(w, status, Response{Success: false, Message: msg})
}

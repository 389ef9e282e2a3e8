package posts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/debemdeboas/quill/internal/api"
	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/errs"
	"github.com/debemdeboas/quill/internal/model"
	"github.com/debemdeboas/quill/internal/render"
	"github.com/debemdeboas/quill/internal/theme"
	"github.com/debemdeboas/quill/internal/util"
	"github.com/rs/zerolog"
)

// maxEnvelopeBytes bounds a create request body. A 50 000 character body is
// at most 200 KB of UTF-8.
const maxEnvelopeBytes = 1 << 20

type Handler struct {
	svc      *Service
	renderer *render.Renderer
	perPage  int

	index    *template.Template
	post     *template.Template
	notFound *template.Template
}

// NewHandler parses the page templates from templates, which must hold the
// TemplatesLocalDir directory.
func NewHandler(svc *Service, renderer *render.Renderer, templates fs.FS) (*Handler, error) {
	parse := func(page string) (*template.Template, error) {
		return template.New(config.TemplateLayout).Funcs(templateFuncs).ParseFS(templates,
			path.Join(config.TemplatesLocalDir, config.TemplateLayout),
			path.Join(config.TemplatesLocalDir, page),
		)
	}

	h := &Handler{svc: svc, renderer: renderer}
	if config.AppConfig != nil {
		h.perPage = config.AppConfig.Content.PostsPerPage
	}

	var err error
	if h.index, err = parse(config.TemplateIndex); err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}
	if h.post, err = parse(config.TemplatePost); err != nil {
		return nil, fmt.Errorf("parse post template: %w", err)
	}
	if h.notFound, err = parse(config.TemplateNotFound); err != nil {
		return nil, fmt.Errorf("parse not found template: %w", err)
	}
	return h, nil
}

var templateFuncs = template.FuncMap{
	"postURL": func(id model.PostID) string { return config.PostsUrlPath + string(id) },
}

// API

// decodeEnvelope reads a JSON envelope of at most maxEnvelopeBytes. It
// answers the request itself on failure.
func (h *Handler) decodeEnvelope(w http.ResponseWriter, r *http.Request) (model.Envelope, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxEnvelopeBytes)

	var env model.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.WriteError(w, r, errs.Validation("content", config.ErrContentTooLong, h.svc.maxChars))
			return env, false
		}
		api.WriteError(w, r, &errs.ValidationError{Reason: config.ErrMalformedJSON, Err: err})
		return env, false
	}
	return env, true
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	env, ok := h.decodeEnvelope(w, r)
	if !ok {
		return
	}

	id, err := h.svc.Create(r.Context(), env)
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Rejected post")
		api.WriteError(w, r, err)
		return
	}

	api.WriteOK(w, api.Response{ID: id})
}

func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	env, ok := h.decodeEnvelope(w, r)
	if !ok {
		return
	}

	id := model.PostID(r.PathValue("id"))
	if err := h.svc.Update(r.Context(), id, env); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("post_id", string(id)).Msg("Rejected edit")
		api.WriteError(w, r, err)
		return
	}

	api.WriteOK(w, api.Response{ID: id})
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.svc.Get(r.Context(), model.PostID(r.PathValue("id")))
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	view := post.View()
	api.WriteOK(w, api.Response{Post: &view})
}

func views(posts []model.Post) []model.PostView {
	out := make([]model.PostView, len(posts))
	for i := range posts {
		out[i] = posts[i].View()
	}
	return out
}

func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.List(r.Context())
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteOK(w, api.Response{Posts: views(posts)})
}

func (h *Handler) ListDeletedPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.ListDeleted(r.Context())
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteOK(w, api.Response{Posts: views(posts)})
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id := model.PostID(r.PathValue("id"))
	if err := h.svc.Delete(r.Context(), id); err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteOK(w, api.Response{ID: id})
}

func (h *Handler) RestorePost(w http.ResponseWriter, r *http.Request) {
	id := model.PostID(r.PathValue("id"))
	if err := h.svc.Restore(r.Context(), id); err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteOK(w, api.Response{ID: id})
}

// Pages

func (h *Handler) execute(w http.ResponseWriter, r *http.Request, tmpl *template.Template, status int, data any) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, config.TemplateLayout, data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("template", tmpl.Name()).Msg("Failed to render template")
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
		return
	}

	w.Header().Set(config.HCType, config.CTypeHTML+"; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func (h *Handler) ServeIndex(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.List(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msgf(config.ErrGetPostsFmt, err)
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	posts, page, more := paginate(posts, page, h.perPage)

	data := struct {
		*model.PageData
		Posts    []model.Post
		Page     int
		NextPage int
		PrevPage int
	}{
		PageData: model.NewPageData(r),
		Posts:    posts,
		Page:     page,
	}
	if more {
		data.NextPage = page + 1
	}
	if page > 1 {
		data.PrevPage = page - 1
	}

	h.execute(w, r, h.index, http.StatusOK, data)
}

// paginate returns the 1-based page of posts and whether more follow. A
// non-positive perPage disables paging.
func paginate(posts []model.Post, page, perPage int) ([]model.Post, int, bool) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		return posts, 1, false
	}

	start := (page - 1) * perPage
	if start >= len(posts) {
		return nil, page, false
	}
	end := min(start+perPage, len(posts))
	return posts[start:end], page, end < len(posts)
}

// ServeNotFound renders the not-found page. Missing posts are an expected
// outcome, so nothing is logged above debug.
func (h *Handler) ServeNotFound(w http.ResponseWriter, r *http.Request) {
	zerolog.Ctx(r.Context()).Debug().Str("path", r.URL.Path).Msg("Not found")
	h.execute(w, r, h.notFound, http.StatusNotFound, model.NewPageData(r))
}

// readPost loads the post named by the request path. Deleted posts are only
// left out of listings, so they still open by URL.
func (h *Handler) readPost(r *http.Request) (*model.Post, error) {
	return h.svc.Get(r.Context(), model.PostID(r.PathValue("id")))
}

func (h *Handler) pageError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errs.ErrNotFound) {
		h.ServeNotFound(w, r)
		return
	}
	zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to load post")
	http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
}

func (h *Handler) ServePost(w http.ResponseWriter, r *http.Request) {
	post, err := h.readPost(r)
	if err != nil {
		h.pageError(w, r, err)
		return
	}

	rendered, err := h.renderer.Render(post)
	if err != nil {
		h.pageError(w, r, err)
		return
	}

	data := struct {
		*model.PageData
		Post     *model.RenderedPost
		Unlisted bool
	}{
		PageData: model.NewPageData(r),
		Post:     rendered,
		Unlisted: !post.Visible(),
	}

	etag := post.BodyHash + post.ModifiedDate.UTC().Format(time.RFC3339Nano) + data.SyntaxTheme
	w.Header().Set(config.HETag, util.ContentHash([]byte(etag)))
	h.execute(w, r, h.post, http.StatusOK, data)
}

// ServePostSource shows the highlighted markdown of a post.
func (h *Handler) ServePostSource(w http.ResponseWriter, r *http.Request) {
	post, err := h.readPost(r)
	if err != nil {
		h.pageError(w, r, err)
		return
	}

	source, err := render.HighlightSource(string(post.Body))
	if err != nil {
		h.pageError(w, r, err)
		return
	}

	data := struct {
		*model.PageData
		Post *model.RenderedPost
	}{
		PageData: model.NewPageData(r),
		Post: &model.RenderedPost{
			ID:          post.ID,
			Title:       post.GetTitle(),
			HTML:        source,
			ImageURL:    post.ImageURL,
			CreatedDate: post.CreatedDate,
		},
	}

	h.execute(w, r, h.post, http.StatusOK, data)
}

// ServeSyntaxCSS answers with the stylesheet of the chroma style in the path.
func (h *Handler) ServeSyntaxCSS(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("theme")
	if !theme.IsSyntaxTheme(name) {
		h.ServeNotFound(w, r)
		return
	}

	css := []byte(theme.GenerateSyntaxCSS(name))
	w.Header().Set(config.HCType, config.CTypeCSS)
	w.Header().Set(config.HETag, util.ContentHash(css))
	w.WriteHeader(http.StatusOK)
	w.Write(css)
}

func ServeRobots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(config.HCType, "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("User-agent: *\nDisallow:"))
}

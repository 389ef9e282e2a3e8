// Package gateway talks to the post store: the server API on the client side
// and the persistence interface shared with the server.
package gateway

import (
	"context"
	"net/http"

	"github.com/debemdeboas/quill/internal/api"
	"github.com/debemdeboas/quill/internal/errs"
	"github.com/debemdeboas/quill/internal/model"
)

// Gateway persists envelopes and reads stored posts back.
type Gateway interface {
	Create(ctx context.Context, env model.Envelope) (model.PostID, error)
	// Update replaces the title and body of an existing post.
	Update(ctx context.Context, id model.PostID, env model.Envelope) error
	// Get returns errs.ErrNotFound for a missing or malformed id. Deleted posts
	// are still returned.
	Get(ctx context.Context, id model.PostID) (*model.Post, error)
	// List returns visible posts, newest first.
	List(ctx context.Context) ([]model.Post, error)
}

// HTTPGateway is the Gateway backed by the server API.
type HTTPGateway struct {
	Client *Client
}

var _ Gateway = (*HTTPGateway)(nil)

func NewHTTPGateway(c *Client) *HTTPGateway {
	return &HTTPGateway{Client: c}
}

func (g *HTTPGateway) Create(ctx context.Context, env model.Envelope) (model.PostID, error) {
	var resp api.Response
	if err := g.Client.DoJSON(ctx, "create post", http.MethodPost, api.PathPosts, env, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", errs.Protocol("create post: response carries no id")
	}
	return resp.ID, nil
}

func (g *HTTPGateway) Update(ctx context.Context, id model.PostID, env model.Envelope) error {
	if !model.ValidPostID(id) {
		return errs.ErrNotFound
	}
	return g.Client.DoJSON(ctx, "update post", http.MethodPut, api.PostPath(id), env, nil)
}

func (g *HTTPGateway) Get(ctx context.Context, id model.PostID) (*model.Post, error) {
	if !model.ValidPostID(id) {
		return nil, errs.ErrNotFound
	}

	var resp api.Response
	if err := g.Client.DoJSON(ctx, "get post", http.MethodGet, api.PostPath(id), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Post == nil {
		return nil, errs.Protocol("get post: response carries no post")
	}
	return resp.Post.Post(), nil
}

func (g *HTTPGateway) List(ctx context.Context) ([]model.Post, error) {
	var resp api.Response
	if err := g.Client.DoJSON(ctx, "list posts", http.MethodGet, api.PathPosts, nil, &resp); err != nil {
		return nil, err
	}

	posts := make([]model.Post, 0, len(resp.Posts))
	for _, v := range resp.Posts {
		posts = append(posts, *v.Post())
	}
	return posts, nil
}

// ListDeleted returns the soft-deleted posts. It needs an admin session.
func (g *HTTPGateway) ListDeleted(ctx context.Context) ([]model.Post, error) {
	var resp api.Response
	if err := g.Client.DoJSON(ctx, "list deleted posts", http.MethodGet, api.PathDeletedPosts, nil, &resp); err != nil {
		return nil, err
	}

	posts := make([]model.Post, 0, len(resp.Posts))
	for _, v := range resp.Posts {
		posts = append(posts, *v.Post())
	}
	return posts, nil
}

// Delete soft-deletes a post.
func (g *HTTPGateway) Delete(ctx context.Context, id model.PostID) error {
	return g.Client.DoJSON(ctx, "delete post", http.MethodDelete, api.PostPath(id), nil, nil)
}

func (g *HTTPGateway) Restore(ctx context.Context, id model.PostID) error {
	return g.Client.DoJSON(ctx, "restore post", http.MethodPost, api.PostPath(id)+"/restore", nil, nil)
}

// Login exchanges the admin credential for a session token.
func (g *HTTPGateway) Login(ctx context.Context, username, password string) (string, error) {
	var resp api.Response
	err := g.Client.DoJSON(ctx, "login", http.MethodPost, api.PathLogin,
		api.Credentials{Username: username, Password: password}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errs.Protocol("login: response carries no token")
	}
	return resp.Token, nil
}

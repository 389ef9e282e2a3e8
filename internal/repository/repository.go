// Package repository stores posts in the SQL database.
package repository

import (
	"context"

	"github.com/debemdeboas/quill/internal/model"
	"github.com/rs/zerolog"
)

var repoLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	repoLogger = l
}

type PostRepository interface {
	NewPost() *model.Post
	SavePost(ctx context.Context, post *model.Post) error
	// ReadPost returns deleted posts too; errs.ErrNotFound when id is unknown.
	ReadPost(ctx context.Context, id model.PostID) (*model.Post, error)
	// ListPosts returns visible posts, newest first.
	ListPosts(ctx context.Context) ([]model.Post, error)
	ListDeleted(ctx context.Context) ([]model.Post, error)
	SetDeleted(ctx context.Context, id model.PostID, deleted bool) error
}

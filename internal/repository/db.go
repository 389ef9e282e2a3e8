package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/debemdeboas/quill/internal/db"
	"github.com/debemdeboas/quill/internal/errs"
	"github.com/debemdeboas/quill/internal/model"
	"github.com/debemdeboas/quill/internal/util"
	"github.com/debemdeboas/quill/internal/util/compression"
	"github.com/google/uuid"
)

const postColumns = `id, title, content, content_hash, image_url, created_at, modified_at, is_deleted`

type DBPostRepository struct { // implements PostRepository
	db         db.DB
	compressor compression.Compressor
}

var _ PostRepository = (*DBPostRepository)(nil)

func NewDBPostRepository(db db.DB) *DBPostRepository {
	return &DBPostRepository{
		db:         db,
		compressor: compression.ZstdCompressor{},
	}
}

func (r *DBPostRepository) NewPost() *model.Post {
	now := time.Now().UTC()

	return &model.Post{
		ID: model.PostID(uuid.New().String()),

		CreatedDate:  now,
		ModifiedDate: now,
	}
}

// SavePost inserts post, or replaces the stored row with the same id.
func (r *DBPostRepository) SavePost(ctx context.Context, post *model.Post) error {
	compressed, err := r.compressor.Compress(post.Body)
	if err != nil {
		return fmt.Errorf("error compressing content: %w", err)
	}

	// Hash the compressed content, as stored
	post.BodyHash = util.ContentHash(compressed)

	var imageURL sql.NullString
	if post.ImageURL != "" {
		imageURL = sql.NullString{String: post.ImageURL, Valid: true}
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     title = excluded.title,
		     content = excluded.content,
		     content_hash = excluded.content_hash,
		     image_url = excluded.image_url,
		     modified_at = excluded.modified_at,
		     is_deleted = excluded.is_deleted`,
		post.ID, post.Title, compressed, post.BodyHash, imageURL,
		post.CreatedDate, post.ModifiedDate, post.IsDeleted,
	)
	if err != nil {
		return &errs.StorageError{Op: "save post", Err: err}
	}

	repoLogger.Debug().
		Str("post_id", string(post.ID)).
		Str("title", post.Title).
		Msg("Post saved")
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *DBPostRepository) scanPost(s scanner) (*model.Post, error) {
	var (
		post       model.Post
		compressed []byte
		imageURL   sql.NullString
	)
	err := s.Scan(&post.ID, &post.Title, &compressed, &post.BodyHash, &imageURL,
		&post.CreatedDate, &post.ModifiedDate, &post.IsDeleted)
	if err != nil {
		return nil, err
	}

	post.Body, err = r.compressor.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("error decompressing content of %s: %w", post.ID, err)
	}
	post.ImageURL = imageURL.String
	return &post, nil
}

func (r *DBPostRepository) ReadPost(ctx context.Context, id model.PostID) (*model.Post, error) {
	if !model.ValidPostID(id) {
		return nil, errs.ErrNotFound
	}

	row := r.db.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	post, err := r.scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, &errs.StorageError{Op: "read post", Err: err}
	}
	return post, nil
}

func (r *DBPostRepository) listWhere(ctx context.Context, deleted bool) ([]model.Post, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+postColumns+` FROM posts WHERE is_deleted = ? ORDER BY created_at DESC, id`, deleted)
	if err != nil {
		return nil, &errs.StorageError{Op: "list posts", Err: err}
	}
	defer rows.Close()

	posts := make([]model.Post, 0)
	for rows.Next() {
		post, err := r.scanPost(rows)
		if err != nil {
			return nil, &errs.StorageError{Op: "list posts", Err: err}
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, &errs.StorageError{Op: "list posts", Err: err}
	}
	return posts, nil
}

func (r *DBPostRepository) ListPosts(ctx context.Context) ([]model.Post, error) {
	return r.listWhere(ctx, false)
}

func (r *DBPostRepository) ListDeleted(ctx context.Context) ([]model.Post, error) {
	return r.listWhere(ctx, true)
}

// SetDeleted flips the soft-delete flag. Rows are never removed.
func (r *DBPostRepository) SetDeleted(ctx context.Context, id model.PostID, deleted bool) error {
	if !model.ValidPostID(id) {
		return errs.ErrNotFound
	}

	res, err := r.db.Exec(ctx,
		`UPDATE posts SET is_deleted = ?, modified_at = ? WHERE id = ?`,
		deleted, time.Now().UTC(), id,
	)
	if err != nil {
		return &errs.StorageError{Op: "set deleted", Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.ErrNotFound
	}

	repoLogger.Info().
		Str("post_id", string(id)).
		Bool("deleted", deleted).
		Msg("Post visibility changed")
	return nil
}

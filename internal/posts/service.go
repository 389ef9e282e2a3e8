// Package posts serves stored posts: the JSON API the publishing client talks
// to and the rendered HTML pages readers see.
package posts

import (
	"context"
	"strings"
	"time"

	"github.com/debemdeboas/quill/internal/codec"
	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/errs"
	"github.com/debemdeboas/quill/internal/gateway"
	"github.com/debemdeboas/quill/internal/metrics"
	"github.com/debemdeboas/quill/internal/model"
	"github.com/debemdeboas/quill/internal/repository"
	"github.com/debemdeboas/quill/internal/rewrite"
	"github.com/debemdeboas/quill/internal/util"
	"github.com/rs/zerolog"
)

var postsLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	postsLogger = l
}

// Service is the server-side Gateway over the post repository.
type Service struct {
	repo     repository.PostRepository
	codec    codec.Codec
	maxChars int
}

var _ gateway.Gateway = (*Service)(nil)

func NewService(repo repository.PostRepository, cfg config.ContentConfig) *Service {
	maxChars := cfg.MaxChars
	if maxChars <= 0 {
		maxChars = config.Default().Content.MaxChars
	}
	return &Service{
		repo:     repo,
		codec:    codec.New(cfg.CompressThreshold).WithCharLimit(maxChars),
		maxChars: maxChars,
	}
}

// accepted is an envelope that passed decoding and every content check.
type accepted struct {
	title    string
	body     string
	imageURL string
}

// accept decodes env, normalizes its body and applies the checks shared by
// creates and edits.
func (s *Service) accept(env model.Envelope) (accepted, error) {
	body, err := s.codec.DecodeEnvelope(env)
	if err != nil {
		return accepted{}, err
	}
	body = util.NormalizeContent(body)

	title := strings.TrimSpace(env.Title)
	if title == "" {
		return accepted{}, errs.Validation("title", config.ErrTitleRequired)
	}
	if strings.TrimSpace(body) == "" {
		return accepted{}, errs.Validation("content", config.ErrContentRequired)
	}
	if util.CharCount(body) > s.maxChars {
		return accepted{}, errs.Validation("content", config.ErrContentTooLong, s.maxChars)
	}

	imageURL := env.ImageURL()
	if imageURL != "" && !rewrite.IsAbsolute(imageURL) {
		return accepted{}, errs.Validation("image_url", "image url %q is not absolute", imageURL)
	}
	return accepted{title: title, body: body, imageURL: imageURL}, nil
}

// Create decodes the envelope, normalizes and checks its body and stores it as
// a new post.
func (s *Service) Create(ctx context.Context, env model.Envelope) (model.PostID, error) {
	in, err := s.accept(env)
	if err != nil {
		return "", err
	}

	post := s.repo.NewPost()
	post.Title = in.title
	post.Body = []byte(in.body)
	post.ImageURL = in.imageURL

	if err := s.repo.SavePost(ctx, post); err != nil {
		return "", err
	}
	metrics.PostsCreated.Inc()

	postsLogger.Info().
		Str("post_id", string(post.ID)).
		Str("title", post.Title).
		Int("chars", util.CharCount(in.body)).
		Str("encoding", string(env.Encoding)).
		Msg("Post created")
	return post.ID, nil
}

// Update replaces the title and body of an existing post. The primary image
// is replaced only when the envelope names one. Deleted posts can be edited
// and stay deleted.
func (s *Service) Update(ctx context.Context, id model.PostID, env model.Envelope) error {
	in, err := s.accept(env)
	if err != nil {
		return err
	}

	post, err := s.repo.ReadPost(ctx, id)
	if err != nil {
		return err
	}
	post.Title = in.title
	post.Body = []byte(in.body)
	if in.imageURL != "" {
		post.ImageURL = in.imageURL
	}
	post.ModifiedDate = time.Now().UTC()

	if err := s.repo.SavePost(ctx, post); err != nil {
		return err
	}
	metrics.PostsUpdated.Inc()

	postsLogger.Info().
		Str("post_id", string(post.ID)).
		Str("title", post.Title).
		Int("chars", util.CharCount(in.body)).
		Msg("Post updated")
	return nil
}

func (s *Service) Get(ctx context.Context, id model.PostID) (*model.Post, error) {
	return s.repo.ReadPost(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]model.Post, error) {
	return s.repo.ListPosts(ctx)
}

func (s *Service) ListDeleted(ctx context.Context) ([]model.Post, error) {
	return s.repo.ListDeleted(ctx)
}

func (s *Service) Delete(ctx context.Context, id model.PostID) error {
	return s.repo.SetDeleted(ctx, id, true)
}

func (s *Service) Restore(ctx context.Context, id model.PostID) error {
	return s.repo.SetDeleted(ctx, id, false)
}

// Package publish turns a draft into a stored post: it uploads the draft's
// images, points the body at their URLs and hands the envelope to the store.
package publish

import (
	"context"
	"slices"
	"strings"

	"github.com/debemdeboas/quill/internal/codec"
	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/errs"
	"github.com/debemdeboas/quill/internal/gateway"
	"github.com/debemdeboas/quill/internal/model"
	"github.com/debemdeboas/quill/internal/rewrite"
	"github.com/debemdeboas/quill/internal/upload"
	"github.com/debemdeboas/quill/internal/util"
	"github.com/rs/zerolog"
)

var publishLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	publishLogger = l
}

// AssetValidator checks a local asset without any network call.
// *asset.Resolver satisfies it.
type AssetValidator interface {
	Validate(file model.LocalAsset) error
}

// Publisher submits drafts. One Publisher serves one editing session, so a
// retried submission only uploads the files that failed before.
type Publisher struct {
	// Session reports whether a valid admin session is present.
	Session func() bool

	Validator AssetValidator
	Uploads   *upload.Orchestrator
	Codec     codec.Codec
	Gateway   gateway.Gateway
	MaxChars  int
}

// Uploader is both validator and uploader, as *asset.Resolver is.
type Uploader interface {
	AssetValidator
	upload.Uploader
}

func New(cfg config.ContentConfig, assets Uploader, gw gateway.Gateway, session func() bool) *Publisher {
	return &Publisher{
		Session:   session,
		Validator: assets,
		Uploads:   upload.New(assets),
		Codec:     codec.New(cfg.CompressThreshold),
		Gateway:   gw,
		MaxChars:  cfg.MaxChars,
	}
}

func (p *Publisher) maxChars() int {
	if p.MaxChars > 0 {
		return p.MaxChars
	}
	return config.Default().Content.MaxChars
}

// title is the draft title, or the front matter title when the draft has none.
func (p *Publisher) title(draft *model.Draft) string {
	if t := strings.TrimSpace(draft.Title); t != "" {
		return t
	}
	return util.FrontMatterTitle(draft.Body)
}

// Validate checks everything that can be checked locally.
func (p *Publisher) Validate(draft *model.Draft) error {
	if p.title(draft) == "" {
		return errs.Validation("title", config.ErrTitleRequired)
	}
	if strings.TrimSpace(draft.Body) == "" {
		return errs.Validation("content", config.ErrContentRequired)
	}
	if n := draft.BodyChars(); n > p.maxChars() {
		return errs.Validation("content", config.ErrContentTooLong, p.maxChars())
	}

	for _, a := range draft.Assets {
		if err := p.Validator.Validate(a); err != nil {
			return err
		}
	}

	// Every relative image must be one of the attached files.
	names := draft.AssetNames()
	resolved := p.Uploads.Resolved()
	var missing []string
	for _, src := range rewrite.Unresolved(draft.Body) {
		if _, ok := resolved[src]; ok || slices.Contains(names, src) {
			continue
		}
		missing = append(missing, src)
	}
	if len(missing) > 0 {
		return errs.Validation("content", "image references without an attached file: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Submit validates draft, resolves its assets and creates the post. Nothing is
// created unless every asset was uploaded.
func (p *Publisher) Submit(ctx context.Context, draft *model.Draft) (model.PostID, error) {
	env, assets, err := p.prepare(ctx, draft)
	if err != nil {
		return "", err
	}

	id, err := p.Gateway.Create(ctx, env)
	if err != nil {
		return "", err
	}

	publishLogger.Info().
		Str("post_id", string(id)).
		Str("title", env.Title).
		Int("assets", len(assets)).
		Str("encoding", string(env.Encoding)).
		Msg("Draft published")
	return id, nil
}

// SubmitEdit runs draft through the same pipeline as Submit and replaces the
// title and body of post id with it.
func (p *Publisher) SubmitEdit(ctx context.Context, id model.PostID, draft *model.Draft) error {
	env, assets, err := p.prepare(ctx, draft)
	if err != nil {
		return err
	}

	if err := p.Gateway.Update(ctx, id, env); err != nil {
		return err
	}

	publishLogger.Info().
		Str("post_id", string(id)).
		Str("title", env.Title).
		Int("assets", len(assets)).
		Str("encoding", string(env.Encoding)).
		Msg("Edit published")
	return nil
}

// prepare checks the session, validates draft, uploads its assets and builds
// the envelope with every image reference resolved.
func (p *Publisher) prepare(ctx context.Context, draft *model.Draft) (model.Envelope, map[string]string, error) {
	if p.Session != nil && !p.Session() {
		return model.Envelope{}, nil, errs.ErrUnauthorized
	}
	if err := p.Validate(draft); err != nil {
		return model.Envelope{}, nil, err
	}

	assets, err := p.Uploads.ResolveAll(ctx, draft)
	if err != nil {
		return model.Envelope{}, nil, err
	}

	body := rewrite.Rewrite(draft.Body, assets)
	if rest := rewrite.Unresolved(body); len(rest) > 0 {
		return model.Envelope{}, nil, errs.Validation("content", "unresolved image references: %s", strings.Join(rest, ", "))
	}

	sources := rewrite.ImageSources(body)
	p.reportOrphans(draft, assets, sources)

	env, err := p.Codec.EncodeEnvelope(p.title(draft), body, primaryImage(draft, assets, sources))
	if err != nil {
		return model.Envelope{}, nil, err
	}
	return env, assets, nil
}

// primaryImage is the URL of the first attached asset, else the first
// absolute image in the body, else nil.
func primaryImage(draft *model.Draft, assets map[string]string, sources []string) *string {
	for _, name := range draft.AssetNames() {
		if url, ok := assets[name]; ok {
			return &url
		}
	}
	for _, src := range sources {
		if rewrite.IsAbsolute(src) {
			return &src
		}
	}
	return nil
}

// reportOrphans logs uploaded assets the submitted body never references.
// They stay in the store.
func (p *Publisher) reportOrphans(draft *model.Draft, assets map[string]string, sources []string) {
	for _, name := range draft.AssetNames() {
		url, ok := assets[name]
		if !ok || slices.Contains(sources, url) {
			continue
		}
		publishLogger.Warn().
			Str("filename", name).
			Str("url", url).
			Msg("Uploaded asset is not referenced by the post")
	}
}

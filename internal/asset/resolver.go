package asset

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/errs"
	"github.com/debemdeboas/quill/internal/metrics"
	"github.com/debemdeboas/quill/internal/model"
	"github.com/debemdeboas/quill/internal/rewrite"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const DefaultMaxBytes int64 = 5 << 20

var DefaultAllowedTypes = []string{"image/jpeg", "image/png", "image/gif"}

// Resolver checks a local asset and hands it to a Store. It never retries.
type Resolver struct {
	Store        Store
	MaxBytes     int64
	AllowedTypes []string
}

func NewResolver(store Store, cfg config.AssetsConfig) *Resolver {
	return &Resolver{
		Store:        store,
		MaxBytes:     cfg.MaxBytes,
		AllowedTypes: cfg.AllowedTypes,
	}
}

func (r *Resolver) maxBytes() int64 {
	if r.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return r.MaxBytes
}

func (r *Resolver) allowedTypes() []any {
	types := r.AllowedTypes
	if len(types) == 0 {
		types = DefaultAllowedTypes
	}
	out := make([]any, len(types))
	for i, t := range types {
		out[i] = t
	}
	return out
}

// Validate reports the first problem with file as a ValidationError.
func (r *Resolver) Validate(file model.LocalAsset) error {
	size := file.Size()
	err := validation.Errors{
		"filename": validation.Validate(file.Filename,
			validation.Required,
			validation.By(func(any) error {
				if filepath.Base(file.Filename) != file.Filename {
					return errors.New("must be a bare file name")
				}
				return nil
			}),
		),
		"size": validation.Validate(size,
			validation.Required.Error("file is empty"),
			validation.Max(r.maxBytes()).Error("file exceeds the size limit"),
		),
		"mime_type": validation.Validate(file.MimeType,
			validation.Required,
			validation.In(r.allowedTypes()...).Error("unsupported image type"),
		),
	}.Filter()
	if err == nil {
		return nil
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for _, field := range []string{"filename", "size", "mime_type"} {
			if ferr, ok := verrs[field]; ok {
				return &errs.ValidationError{Field: field, Reason: ferr.Error(), Err: err}
			}
		}
	}
	return &errs.ValidationError{Reason: err.Error(), Err: err}
}

// Upload validates file, stores it and returns its absolute URL.
func (r *Resolver) Upload(ctx context.Context, file model.LocalAsset) (string, error) {
	if err := r.Validate(file); err != nil {
		metrics.AssetUploads.WithLabelValues(metrics.ResultRejected).Inc()
		return "", err
	}

	url, err := r.Store.Put(ctx, file)
	if err != nil {
		metrics.AssetUploads.WithLabelValues(metrics.ResultFailed).Inc()
		var (
			serr *errs.StorageError
			perr *errs.ProtocolError
		)
		if errors.As(err, &serr) || errors.As(err, &perr) || errors.Is(err, errs.ErrUnauthorized) {
			return "", err
		}
		return "", &errs.StorageError{Op: "upload " + file.Filename, Err: err}
	}

	if !rewrite.IsAbsolute(url) {
		metrics.AssetUploads.WithLabelValues(metrics.ResultFailed).Inc()
		return "", &errs.ProtocolError{Reason: "store returned a non-absolute url", Body: url}
	}

	metrics.AssetUploads.WithLabelValues(metrics.ResultOK).Inc()
	assetLogger.Debug().
		Str("filename", file.Filename).
		Str("url", url).
		Msg("Asset uploaded")
	return url, nil
}

// Package asset uploads local image files to an asset store and serves the
// upload endpoint that backs the HTTP store.
package asset

import (
	"context"

	"github.com/debemdeboas/quill/internal/model"
	"github.com/rs/zerolog"
)

var assetLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	assetLogger = l
}

// Store persists one asset and returns the public URL it is served from.
type Store interface {
	Put(ctx context.Context, file model.LocalAsset) (string, error)
}

// StoreFunc adapts a function to Store.
type StoreFunc func(ctx context.Context, file model.LocalAsset) (string, error)

func (f StoreFunc) Put(ctx context.Context, file model.LocalAsset) (string, error) {
	return f(ctx, file)
}

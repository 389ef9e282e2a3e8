// Package upload resolves every local asset of a draft to a durable URL,
// uploading the pending ones concurrently.
package upload

import (
	"context"
	"maps"
	"sync"

	"github.com/debemdeboas/quill/internal/errs"
	"github.com/debemdeboas/quill/internal/model"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var uploadLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	uploadLogger = l
}

// Uploader stores one asset and returns its URL. *asset.Resolver satisfies it.
type Uploader interface {
	Upload(ctx context.Context, file model.LocalAsset) (string, error)
}

// Orchestrator owns the filename to URL map of one editing session. Files
// already in the map are never uploaded again.
type Orchestrator struct {
	uploader Uploader

	mu       sync.Mutex
	resolved map[string]string
}

func New(u Uploader) *Orchestrator {
	return &Orchestrator{
		uploader: u,
		resolved: make(map[string]string),
	}
}

// Resolved returns a copy of the current map.
func (o *Orchestrator) Resolved() map[string]string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return maps.Clone(o.resolved)
}

// pending returns the assets still to upload, one per filename in draft
// order. A repeated filename keeps the bytes of its last occurrence.
func (o *Orchestrator) pending(draft *model.Draft) []model.LocalAsset {
	o.mu.Lock()
	defer o.mu.Unlock()

	index := make(map[string]int)
	var out []model.LocalAsset
	for _, a := range draft.Assets {
		if _, done := o.resolved[a.Filename]; done {
			continue
		}
		if i, seen := index[a.Filename]; seen {
			out[i] = a
			continue
		}
		index[a.Filename] = len(out)
		out = append(out, a)
	}
	return out
}

// ResolveAll uploads every pending asset of draft and returns the full map.
// Uploads run concurrently and a failure does not stop the others. When any
// fail, the successful ones are still recorded and an AggregateUploadError
// names the failures in draft order.
func (o *Orchestrator) ResolveAll(ctx context.Context, draft *model.Draft) (map[string]string, error) {
	todo := o.pending(draft)
	if len(todo) == 0 {
		return o.Resolved(), nil
	}

	failures := make([]error, len(todo))
	var g errgroup.Group
	for i, a := range todo {
		g.Go(func() error {
			url, err := o.uploader.Upload(ctx, a)
			if err != nil {
				failures[i] = err
				uploadLogger.Warn().Err(err).Str("filename", a.Filename).Msg("Asset upload failed")
				return nil
			}

			o.mu.Lock()
			o.resolved[a.Filename] = url
			o.mu.Unlock()
			return nil
		})
	}
	g.Wait()

	var agg *errs.AggregateUploadError
	for i, err := range failures {
		if err == nil {
			continue
		}
		if agg == nil {
			agg = &errs.AggregateUploadError{Causes: make(map[string]error)}
		}
		name := todo[i].Filename
		agg.Failed = append(agg.Failed, name)
		agg.Causes[name] = err
	}
	if agg != nil {
		return nil, agg
	}

	uploadLogger.Debug().Int("uploaded", len(todo)).Msg("Draft assets resolved")
	return o.Resolved(), nil
}

package asset

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/debemdeboas/quill/internal/errs"
	"github.com/debemdeboas/quill/internal/model"
	"github.com/google/uuid"
)

// FSStore writes assets under Dir, which the server exposes at PublicBaseURL.
type FSStore struct {
	Dir           string
	PublicBaseURL string
}

var _ Store = (*FSStore)(nil)

func NewFSStore(dir, publicBaseURL string) *FSStore {
	return &FSStore{Dir: dir, PublicBaseURL: publicBaseURL}
}

// ObjectName prefixes the base name with a fresh uuid so that two uploads of
// the same filename never collide.
func ObjectName(filename string) string {
	base := filepath.Base(filepath.Clean("/" + filename))
	base = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r < 0x20 {
			return '_'
		}
		return r
	}, base)
	return uuid.NewString() + "_" + base
}

func publicURL(base, name string) string {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + url.PathEscape(name)
}

func (s *FSStore) Put(ctx context.Context, file model.LocalAsset) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", &errs.StorageError{Op: "create upload dir", Err: err}
	}

	name := ObjectName(file.Filename)
	if err := os.WriteFile(filepath.Join(s.Dir, name), file.Data, 0o644); err != nil {
		return "", &errs.StorageError{Op: "write " + name, Err: err}
	}

	assetLogger.Info().
		Str("filename", file.Filename).
		Str("object", name).
		Msg("Stored asset on disk")
	return publicURL(s.PublicBaseURL, name), nil
}

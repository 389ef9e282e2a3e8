package asset

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/debemdeboas/quill/internal/api"
	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/errs"
	"github.com/debemdeboas/quill/internal/gateway"
	"github.com/debemdeboas/quill/internal/model"
)

// HTTPStore uploads assets to the server's asset endpoint.
type HTTPStore struct {
	Client *gateway.Client
}

var _ Store = (*HTTPStore)(nil)

func NewHTTPStore(c *gateway.Client) *HTTPStore {
	return &HTTPStore{Client: c}
}

func (s *HTTPStore) Put(ctx context.Context, file model.LocalAsset) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, config.FormFieldImage, file.Filename))
	h.Set(config.HCType, file.MimeType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(file.Data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	var resp api.Response
	op := "upload " + file.Filename
	if err := s.Client.Do(ctx, op, http.MethodPost, api.PathAssets, &buf, mw.FormDataContentType(), &resp); err != nil {
		return "", err
	}
	if resp.ImageURL == "" {
		return "", errs.Protocol("%s: response carries no image_url", op)
	}
	return resp.ImageURL, nil
}

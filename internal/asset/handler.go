package asset

import (
	"errors"
	"io"
	"net/http"

	"github.com/debemdeboas/quill/internal/api"
	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/errs"
	"github.com/debemdeboas/quill/internal/model"
)

// multipartOverhead leaves room for the form framing around the file.
const multipartOverhead = 64 << 10

// UploadHandler accepts a single image in the multipart field "image" and
// answers with the URL it was stored at.
func UploadHandler(res *Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := res.maxBytes() + multipartOverhead
		r.Body = http.MaxBytesReader(w, r.Body, limit)

		if err := r.ParseMultipartForm(limit); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				api.WriteError(w, r, errs.Validation("size", "file exceeds the size limit"))
				return
			}
			api.WriteError(w, r, errs.Validation(config.FormFieldImage, config.ErrMissingImage))
			return
		}
		defer r.MultipartForm.RemoveAll()

		f, header, err := r.FormFile(config.FormFieldImage)
		if err != nil {
			api.WriteError(w, r, errs.Validation(config.FormFieldImage, config.ErrMissingImage))
			return
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			api.WriteError(w, r, &errs.StorageError{Op: "read upload", Err: err})
			return
		}

		mimeType := header.Header.Get(config.HCType)
		if mimeType == "" || mimeType == "application/octet-stream" {
			mimeType = http.DetectContentType(data)
		}

		url, err := res.Upload(r.Context(), model.LocalAsset{
			Filename: header.Filename,
			Data:     data,
			MimeType: mimeType,
		})
		if err != nil {
			api.WriteError(w, r, err)
			return
		}

		api.WriteOK(w, api.Response{ImageURL: url})
	}
}

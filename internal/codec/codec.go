// Package codec turns post bodies into their transport payload and back.
package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/debemdeboas/quill/internal/errs"
	"github.com/debemdeboas/quill/internal/model"
	"github.com/debemdeboas/quill/internal/util/compression"
)

// Codec compresses bodies of at least Threshold bytes as gzip-base64. A zero
// Threshold sends every body as is.
type Codec struct {
	Threshold  int
	Compressor compression.Compressor
	// MaxDecodedBytes rejects compressed payloads that inflate past it. Zero
	// means no cap.
	MaxDecodedBytes int64
}

func New(threshold int) Codec {
	return Codec{Threshold: threshold, Compressor: compression.GzipCompressor{}}
}

// WithCharLimit bounds decoding to what maxChars characters can occupy in
// UTF-8, so a small payload cannot inflate into an unbounded body.
func (c Codec) WithCharLimit(maxChars int) Codec {
	c.MaxDecodedBytes = int64(maxChars) * utf8.UTFMax
	c.Compressor = compression.GzipCompressor{Limit: c.MaxDecodedBytes}
	return c
}

func (c Codec) gzip() compression.Compressor {
	if c.Compressor == nil {
		return compression.GzipCompressor{}
	}
	return c.Compressor
}

// Encode returns the payload for body together with the encoding the
// receiver needs to reverse it.
func (c Codec) Encode(body string) (string, model.Encoding, error) {
	if c.Threshold <= 0 || len(body) < c.Threshold {
		return body, model.EncodingNone, nil
	}

	compressed, err := c.gzip().Compress([]byte(body))
	if err != nil {
		return "", "", err
	}
	return base64.StdEncoding.EncodeToString(compressed), model.EncodingGzipBase64, nil
}

// Decode reverses Encode. An empty encoding is read as EncodingNone.
func (c Codec) Decode(payload string, enc model.Encoding) (string, error) {
	switch enc {
	case "", model.EncodingNone:
		return payload, nil
	case model.EncodingGzipBase64:
		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", &errs.ProtocolError{Reason: "payload is not valid base64", Err: err}
		}
		body, err := c.gzip().Decompress(raw)
		if errors.Is(err, compression.ErrTooLarge) {
			return "", &errs.ValidationError{
				Field:  "content",
				Reason: fmt.Sprintf("decoded body exceeds %d bytes", c.MaxDecodedBytes),
				Err:    err,
			}
		}
		if err != nil {
			return "", &errs.ProtocolError{Reason: "payload is not valid gzip", Err: err}
		}
		if !utf8.Valid(body) {
			return "", errs.Protocol("decoded payload is not UTF-8")
		}
		return string(body), nil
	default:
		return "", errs.Protocol("unknown encoding %q", enc)
	}
}

// EncodeEnvelope builds the wire envelope for an already rewritten body.
func (c Codec) EncodeEnvelope(title, body string, primaryImage *string) (model.Envelope, error) {
	payload, enc, err := c.Encode(body)
	if err != nil {
		return model.Envelope{}, err
	}
	return model.Envelope{
		Title:           title,
		Body:            payload,
		PrimaryImageURL: primaryImage,
		Encoding:        enc,
	}, nil
}

// DecodeEnvelope returns the envelope body as text.
func (c Codec) DecodeEnvelope(e model.Envelope) (string, error) {
	return c.Decode(e.Body, e.Encoding)
}

package compression

import (
	"bytes"
	"errors"
	"io"

	"github.com/klauspost/compress/gzip"
)

// GzipCompressor produces standard RFC 1952 streams, readable by any gzip
// implementation on the other side of the wire.
type GzipCompressor struct {
	// Level defaults to gzip.DefaultCompression when zero.
	Level int
	// Limit caps the decompressed size in bytes. Zero means no cap.
	Limit int64
}

// ErrTooLarge is returned when decompressed data would exceed Limit.
var ErrTooLarge = errors.New("decompressed data exceeds limit")

func (g GzipCompressor) Compress(data []byte) ([]byte, error) {
	level := g.Level
	if level == 0 {
		level = gzip.DefaultCompression
	}

	var b bytes.Buffer
	writer, err := gzip.NewWriterLevel(&b, level)
	if err != nil {
		return nil, err
	}
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func (g GzipCompressor) Decompress(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	if g.Limit <= 0 {
		return io.ReadAll(reader)
	}
	out, err := io.ReadAll(io.LimitReader(reader, g.Limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > g.Limit {
		return nil, ErrTooLarge
	}
	return out, nil
}

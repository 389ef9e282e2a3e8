// Package compression wraps the codecs used for stored post bodies (zstd) and
// for transport envelopes (gzip).
package compression

type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

var (
	_ Compressor = GzipCompressor{}
	_ Compressor = ZstdCompressor{}
)

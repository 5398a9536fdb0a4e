package broker

import (
	"bufio"
	"bytes"
	"io"

	"github.com/andybalholm/brotli"
)

// ContentEncodingBrotli is the content_encoding header value set on every
// compressed publish.
const ContentEncodingBrotli = "br"

const (
	brotliQuality = 10
	brotliWindow  = 22
	brotliBuffer  = 4096
)

// Compress brotli-compresses b at the fixed quality/window settings the
// wire contract requires.
func Compress(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterOptions(&buf, brotli.WriterOptions{
		Quality: brotliQuality,
		LGWin:   brotliWindow,
	})
	if _, err := w.Write(b); err != nil {
		_ = w.Close()
		return nil, ErrCompressionError(err)
	}
	if err := w.Close(); err != nil {
		return nil, ErrCompressionError(err)
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress. The input is read through a fixed-size
// buffer matching the wire contract's buffer setting.
func Decompress(b []byte) ([]byte, error) {
	buffered := bufio.NewReaderSize(bytes.NewReader(b), brotliBuffer)
	r := brotli.NewReader(buffered)
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, ErrDecompressionError(err)
	}
	return out, nil
}

// DecodeBody inspects a message's content_encoding header and decompresses
// the body when it is "br", passing it through unchanged otherwise.
func DecodeBody(contentEncoding string, body []byte) ([]byte, error) {
	if contentEncoding == ContentEncodingBrotli {
		return Decompress(body)
	}
	return body, nil
}

package sink

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Format names a compression codec.
type Format string

const (
	FormatNone Format = "none"
	FormatZstd Format = "zstd"
	FormatGzip Format = "gzip"
)

// DetectFormat guesses the codec from the object key's suffix.
func DetectFormat(key string) Format {
	switch {
	case strings.HasSuffix(key, ".zst"), strings.HasSuffix(key, ".zstd"):
		return FormatZstd
	case strings.HasSuffix(key, ".gz"):
		return FormatGzip
	default:
		return FormatNone
	}
}

// ParseFormat parses a -decompress flag value.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "none", "":
		return FormatNone, nil
	case "zstd", "zst":
		return FormatZstd, nil
	case "gzip", "gz":
		return FormatGzip, nil
	default:
		return FormatNone, fmt.Errorf("unknown compression format %q", s)
	}
}

// Decompressor is a WriteCloser that decodes the bytes written to it and
// forwards the plaintext to dst. The decoders are pull-based readers, so
// writes feed a pipe drained by a decoding goroutine; Close flushes the
// pipe and reports any decode error.
type Decompressor struct {
	pw   *io.PipeWriter
	errc chan error
}

// NewDecompressor wraps dst with the given codec.
func NewDecompressor(dst io.Writer, format Format) (*Decompressor, error) {
	if format == FormatNone {
		return nil, fmt.Errorf("no decompression format selected")
	}

	pr, pw := io.Pipe()
	errc := make(chan error, 1)

	go func() {
		var (
			r   io.Reader
			err error
		)
		switch format {
		case FormatZstd:
			var zr *zstd.Decoder
			zr, err = zstd.NewReader(pr)
			if err == nil {
				defer zr.Close()
				r = zr
			}
		case FormatGzip:
			var gr *gzip.Reader
			gr, err = gzip.NewReader(pr)
			if err == nil {
				defer gr.Close()
				r = gr
			}
		}
		if err != nil {
			pr.CloseWithError(err)
			errc <- fmt.Errorf("open %s decoder: %w", format, err)
			return
		}

		_, err = io.Copy(dst, r)
		if err != nil {
			pr.CloseWithError(err)
			errc <- fmt.Errorf("decompress: %w", err)
			return
		}
		// Drain any trailing bytes so the writer side never blocks.
		io.Copy(io.Discard, pr)
		errc <- nil
	}()

	return &Decompressor{pw: pw, errc: errc}, nil
}

// Write feeds compressed bytes to the decoder.
func (d *Decompressor) Write(p []byte) (int, error) {
	return d.pw.Write(p)
}

// Close signals end of input and waits for the decoder to drain.
func (d *Decompressor) Close() error {
	d.pw.Close()
	return <-d.errc
}

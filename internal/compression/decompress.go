// Package compression opens catalog files that may be stored compressed.
package compression

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
)

// MaxDecompressedSize bounds how much data a compressed catalog may expand to.
const MaxDecompressedSize = 32 * 1024 * 1024

// Format identifies the compression of a file by its name.
type Format int

// Supported formats.
const (
	FormatPlain Format = iota
	FormatGzip
	FormatXz
	FormatBzip2
)

// DetectFormat returns the compression format implied by name's suffix.
func DetectFormat(name string) Format {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".gz"):
		return FormatGzip
	case strings.HasSuffix(lower, ".xz"):
		return FormatXz
	case strings.HasSuffix(lower, ".bz2"):
		return FormatBzip2
	default:
		return FormatPlain
	}
}

// TrimSuffix strips a recognised compression suffix from name.
func TrimSuffix(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range []string{".gz", ".xz", ".bz2"} {
		if strings.HasSuffix(lower, ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// IsCatalogFile reports whether name is an XML catalog, compressed or not.
func IsCatalogFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(TrimSuffix(name)), ".xml")
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open opens path for reading, transparently decompressing gzip, xz and
// bzip2 files. Decompressed output is limited to MaxDecompressedSize.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path) // #nosec G304 - catalog paths come from configuration and directory scans
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	switch DetectFormat(path) {
	case FormatGzip:
		gzr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return &readCloser{Reader: NewLimitedReader(gzr, MaxDecompressedSize), closers: []io.Closer{gzr, f}}, nil
	case FormatXz:
		xzr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return &readCloser{Reader: NewLimitedReader(xzr, MaxDecompressedSize), closers: []io.Closer{f}}, nil
	case FormatBzip2:
		bzr := bzip2.NewReader(f)
		return &readCloser{Reader: NewLimitedReader(bzr, MaxDecompressedSize), closers: []io.Closer{f}}, nil
	default:
		return f, nil
	}
}

// LimitedReader wraps an io.Reader and fails once more than the allowed
// number of bytes has been produced.
type LimitedReader struct {
	R         io.Reader
	Remaining int64
}

// Read implements io.Reader with size limits.
func (l *LimitedReader) Read(p []byte) (int, error) {
	if l.Remaining <= 0 {
		// Only an error if the source still has data.
		var probe [1]byte
		n, err := l.R.Read(probe[:])
		if n == 0 && err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("decompression size limit exceeded")
	}
	if int64(len(p)) > l.Remaining {
		p = p[:l.Remaining]
	}
	n, err := l.R.Read(p)
	l.Remaining -= int64(n)
	return n, err
}

// NewLimitedReader creates a new LimitedReader with the specified size limit.
func NewLimitedReader(r io.Reader, maxBytes int64) *LimitedReader {
	return &LimitedReader{
		R:         r,
		Remaining: maxBytes,
	}
}

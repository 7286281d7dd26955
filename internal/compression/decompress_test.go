package compression

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

const sample = `<?xml version="1.0"?><wallpapers></wallpapers>`

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"a.xml", FormatPlain},
		{"a.xml.gz", FormatGzip},
		{"a.XML.XZ", FormatXz},
		{"a.xml.bz2", FormatBzip2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.name))
		})
	}
}

func TestIsCatalogFile(t *testing.T) {
	assert.True(t, IsCatalogFile("ukui-wallpapers.xml"))
	assert.True(t, IsCatalogFile("ukui-wallpapers.xml.xz"))
	assert.False(t, IsCatalogFile("wallpapers.list"))
	assert.False(t, IsCatalogFile("backgrounds.xml~"))
	assert.False(t, IsCatalogFile("archive.tar.gz"))
}

func readAll(t *testing.T, path string) string {
	t.Helper()
	rc, err := Open(path)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestOpenPlainGzipXz(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "a.xml")
	require.NoError(t, os.WriteFile(plain, []byte(sample), 0o644))
	assert.Equal(t, sample, readAll(t, plain))

	var gzBuf bytes.Buffer
	gw := gzip.NewWriter(&gzBuf)
	_, err := gw.Write([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	gzPath := filepath.Join(dir, "b.xml.gz")
	require.NoError(t, os.WriteFile(gzPath, gzBuf.Bytes(), 0o644))
	assert.Equal(t, sample, readAll(t, gzPath))

	var xzBuf bytes.Buffer
	xw, err := xz.NewWriter(&xzBuf)
	require.NoError(t, err)
	_, err = xw.Write([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, xw.Close())
	xzPath := filepath.Join(dir, "c.xml.xz")
	require.NoError(t, os.WriteFile(xzPath, xzBuf.Bytes(), 0o644))
	assert.Equal(t, sample, readAll(t, xzPath))
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.xml"))
	assert.Error(t, err)
}

func TestLimitedReader(t *testing.T) {
	lr := NewLimitedReader(strings.NewReader("abcdef"), 3)
	_, err := io.ReadAll(lr)
	assert.ErrorContains(t, err, "limit exceeded")

	exact := NewLimitedReader(strings.NewReader("abc"), 3)
	data, err := io.ReadAll(exact)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}

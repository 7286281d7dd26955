// Package thumbnail resolves file metadata and thumbnails for wallpaper
// images.
package thumbnail

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/patrickmn/go-cache"
	"github.com/srlehn/thumbnails"
	_ "golang.org/x/image/bmp"  // Register BMP format
	_ "golang.org/x/image/tiff" // Register TIFF format
	_ "golang.org/x/image/webp" // Register WebP format
)

// DefaultSize is the freedesktop "large" thumbnail height.
const DefaultSize = 128

// Info describes a wallpaper file as seen by the file system and the
// thumbnail cache.
type Info struct {
	Path     string
	Name     string
	Size     int64
	ModTime  time.Time
	MimeType string
	// Width and Height are zero when the file is not a decodable image.
	Width  int
	Height int
	// Thumbnail is nil unless thumbnails are enabled and one could be made.
	Thumbnail image.Image
}

// Opener produces a thumbnail for filename at the given size. It matches
// thumbnails.OpenThumbnail.
type Opener func(filename string, size image.Point, runThumbnailer bool) (image.Image, error)

// Option configures a Factory.
type Option func(*Factory)

// WithThumbnails enables thumbnail lookup; when run is true external
// thumbnailers may be invoked to create missing thumbnails.
func WithThumbnails(enabled, run bool) Option {
	return func(f *Factory) {
		f.thumbnails = enabled
		f.runThumbnailer = run
	}
}

// WithSize sets the thumbnail height in pixels.
func WithSize(size int) Option {
	return func(f *Factory) {
		if size > 0 {
			f.size = size
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) Option {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithOpener replaces the thumbnail opener (useful for testing).
func WithOpener(open Opener) Option {
	return func(f *Factory) {
		f.open = open
	}
}

// Factory resolves Info for paths and caches the results keyed by path and
// modification time.
type Factory struct {
	cache          *cache.Cache
	size           int
	thumbnails     bool
	runThumbnailer bool
	open           Opener
	logger         hclog.Logger
}

// NewFactory creates a factory. Thumbnails are disabled by default.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		cache:  cache.New(10*time.Minute, 20*time.Minute),
		size:   DefaultSize,
		open:   thumbnails.OpenThumbnail,
		logger: hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Lookup returns metadata for path. It fails when the path does not exist
// or is a directory.
func (f *Factory) Lookup(path string) (*Info, error) {
	if path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	st, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	key := fmt.Sprintf("%s\x00%d", path, st.ModTime().UnixNano())
	if cached, ok := f.cache.Get(key); ok {
		return cached.(*Info), nil
	}

	info := &Info{
		Path:     path,
		Name:     filepath.Base(path),
		Size:     st.Size(),
		ModTime:  st.ModTime(),
		MimeType: mimeType(path),
	}

	if w, h, err := decodeDimensions(path); err == nil {
		info.Width, info.Height = w, h
	} else {
		f.logger.Debug("no image dimensions", "path", path, "error", err)
	}

	if f.thumbnails {
		img, err := f.open(path, image.Point{Y: f.size}, f.runThumbnailer)
		if err != nil {
			f.logger.Debug("no thumbnail", "path", path, "error", err)
		} else {
			info.Thumbnail = img
		}
	}

	f.cache.SetDefault(key, info)
	return info, nil
}

// Flush drops every cached entry.
func (f *Factory) Flush() {
	f.cache.Flush()
}

func decodeDimensions(path string) (int, int, error) {
	file, err := os.Open(path) // #nosec G304 - wallpaper paths come from catalogs the user installed
	if err != nil {
		return 0, 0, err
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

func mimeType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t := mime.TypeByExtension(ext); t != "" {
		if i := strings.IndexByte(t, ';'); i >= 0 {
			t = t[:i]
		}
		return t
	}
	switch ext {
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}

// NoneName is the display name of the "no background" entry.
const NoneName = "No Desktop Background"

// NoneInfo describes the "(none)" sentinel, which has no backing file.
func NoneInfo() *Info {
	return &Info{
		Path:     "(none)",
		Name:     NoneName,
		MimeType: "image/x-no-data",
	}
}

// Package images decodes image sources and decorates Image nodes with
// their intrinsic size.
package images

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// DefaultCacheTTL is how long a decoded image stays cached.
const DefaultCacheTTL = 10 * time.Minute

// ErrNotDataURI is returned for data URIs that are malformed.
var ErrNotDataURI = errors.New("images: malformed data URI")

// Loader decodes images from files or data URIs and caches the result. It
// is safe for concurrent use.
type Loader struct {
	base  string
	log   *zap.Logger
	cache *cache.Cache
}

type Option func(*Loader)

// WithBaseDir resolves relative sources against dir, usually the
// directory of the view file.
func WithBaseDir(dir string) Option {
	return func(l *Loader) { l.base = dir }
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Loader) { l.log = log }
}

func WithCacheTTL(d time.Duration) Option {
	return func(l *Loader) {
		if d > 0 {
			l.cache = cache.New(d, 0)
		}
	}
}

func NewLoader(opts ...Option) *Loader {
	l := &Loader{log: zap.NewNop(), cache: cache.New(DefaultCacheTTL, 0)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load decodes source, which is a data URI or a file path.
func (l *Loader) Load(source string) (image.Image, error) {
	if img, ok := l.cache.Get(source); ok {
		return img.(image.Image), nil
	}

	var (
		img image.Image
		err error
	)
	if IsDataURI(source) {
		img, err = LoadDataURI(source)
	} else {
		img, err = l.loadFile(source)
	}
	if err != nil {
		return nil, err
	}
	l.cache.Set(source, img, cache.DefaultExpiration)
	return img, nil
}

// Size returns the pixel dimensions of source.
func (l *Loader) Size(source string) (width, height int, err error) {
	img, err := l.Load(source)
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

func (l *Loader) loadFile(path string) (image.Image, error) {
	if !filepath.IsAbs(path) && l.base != "" {
		path = filepath.Join(l.base, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("images: open: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("images: decode %s: %w", path, err)
	}
	return img, nil
}

// IsDataURI reports whether s is a data: URI.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// LoadDataURI decodes an image embedded as data:[<mime>][;base64],<data>.
func LoadDataURI(uri string) (image.Image, error) {
	if !IsDataURI(uri) {
		return nil, ErrNotDataURI
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, ErrNotDataURI
	}

	var data []byte
	if strings.HasSuffix(header, ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotDataURI, err)
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotDataURI, err)
		}
		data = []byte(unescaped)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("images: decode data URI: %w", err)
	}
	return img, nil
}

package text

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"

	"vista/pkg/css"
)

// FontConfig holds paths to font files used for measurement and painting.
// Empty paths fall back to the Go fonts compiled into the binary.
type FontConfig struct {
	Regular    string
	Bold       string
	Italic     string
	BoldItalic string
	Monospace  string
	MonoBold   string
}

// Font file names looked up by FontConfigFromDir.
var fontFiles = map[string]func(*FontConfig) *string{
	"Regular.ttf":    func(c *FontConfig) *string { return &c.Regular },
	"Bold.ttf":       func(c *FontConfig) *string { return &c.Bold },
	"Italic.ttf":     func(c *FontConfig) *string { return &c.Italic },
	"BoldItalic.ttf": func(c *FontConfig) *string { return &c.BoldItalic },
	"Mono.ttf":       func(c *FontConfig) *string { return &c.Monospace },
	"MonoBold.ttf":   func(c *FontConfig) *string { return &c.MonoBold },
}

// FontConfigFromDir picks up Regular.ttf, Bold.ttf, Italic.ttf,
// BoldItalic.ttf, Mono.ttf and MonoBold.ttf from dir. Missing files keep
// the built-in fallback.
func FontConfigFromDir(dir string) FontConfig {
	var cfg FontConfig
	if dir == "" {
		return cfg
	}
	for name, field := range fontFiles {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			*field(&cfg) = path
		}
	}
	return cfg
}

// variant names one face of a family; it doubles as the key of the
// built-in fallback.
type variant string

const (
	regular    variant = "regular"
	bold       variant = "bold"
	italic     variant = "italic"
	boldItalic variant = "bold-italic"
	mono       variant = "mono"
	monoBold   variant = "mono-bold"
)

var builtin = map[variant][]byte{
	regular:    goregular.TTF,
	bold:       gobold.TTF,
	italic:     goitalic.TTF,
	boldItalic: gobolditalic.TTF,
	mono:       gomono.TTF,
	monoBold:   gomonobold.TTF,
}

func variantOf(s css.Style) variant {
	monospace := strings.Contains(strings.ToLower(s.FontFamily), "mono")
	switch {
	case monospace && s.IsBold():
		return monoBold
	case monospace:
		return mono
	case s.IsBold() && s.IsItalic():
		return boldItalic
	case s.IsBold():
		return bold
	case s.IsItalic():
		return italic
	}
	return regular
}

// path returns the configured file for v, or "" for the built-in face.
func (fc FontConfig) path(v variant) string {
	switch v {
	case monoBold:
		if fc.MonoBold != "" {
			return fc.MonoBold
		}
		return fc.Monospace
	case mono:
		return fc.Monospace
	case boldItalic:
		if fc.BoldItalic != "" {
			return fc.BoldItalic
		}
		return fc.Bold
	case bold:
		return fc.Bold
	case italic:
		return fc.Italic
	}
	return fc.Regular
}

// loadFace opens v at size points, from disk when configured.
func (fc FontConfig) loadFace(v variant, size float64) (font.Face, error) {
	if p := fc.path(v); p != "" {
		face, err := gg.LoadFontFace(p, size)
		if err != nil {
			return nil, fmt.Errorf("load font %s: %w", p, err)
		}
		return face, nil
	}
	f, err := truetype.Parse(builtin[v])
	if err != nil {
		return nil, fmt.Errorf("parse built-in %s font: %w", v, err)
	}
	return truetype.NewFace(f, &truetype.Options{Size: size}), nil
}

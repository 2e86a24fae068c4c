// Package visualtest compares painted frames pixel by pixel.
package visualtest

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

// ErrSizeMismatch is returned when two frames have different bounds.
var ErrSizeMismatch = errors.New("visualtest: frame sizes differ")

type Result struct {
	Match           bool
	DifferentPixels int
	TotalPixels     int
	// MaxDifference is the largest 8-bit channel difference seen.
	MaxDifference int
	// Diff marks differing pixels red over a grey copy of actual.
	Diff *image.RGBA
}

type Options struct {
	// Tolerance is the largest per-channel difference (0-255) still
	// counted as equal.
	Tolerance int
	// FuzzyRadius lets a pixel match any expected pixel this close, which
	// absorbs one-pixel glyph shifts.
	FuzzyRadius int
	// MaxDifferentPercent passes frames whose share of differing pixels
	// is at most this.
	MaxDifferentPercent float64
}

func DefaultOptions() Options {
	return Options{Tolerance: 2}
}

// Compare reports how far actual is from expected.
func Compare(actual, expected image.Image, opts Options) (Result, error) {
	b := actual.Bounds()
	if b != expected.Bounds() {
		return Result{}, fmt.Errorf("%w: %v vs %v", ErrSizeMismatch, b, expected.Bounds())
	}

	res := Result{Match: true, TotalPixels: b.Dx() * b.Dy(), Diff: image.NewRGBA(b)}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			d := distance(actual.At(x, y), expected.At(x, y))
			res.MaxDifference = max(res.MaxDifference, d)
			if d <= opts.Tolerance || (opts.FuzzyRadius > 0 && near(actual, expected, x, y, opts)) {
				r, _, _, _ := actual.At(x, y).RGBA()
				grey := uint8(r >> 8)
				res.Diff.Set(x, y, color.RGBA{grey, grey, grey, 255})
				continue
			}
			res.Match = false
			res.DifferentPixels++
			res.Diff.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}

	if !res.Match && opts.MaxDifferentPercent > 0 && res.TotalPixels > 0 {
		if float64(res.DifferentPixels)/float64(res.TotalPixels)*100 <= opts.MaxDifferentPercent {
			res.Match = true
		}
	}
	return res, nil
}

// CompareFiles decodes two PNGs and compares them. When the frames differ
// and diffPath is set, the diff image is written there.
func CompareFiles(actualPath, expectedPath, diffPath string, opts Options) (Result, error) {
	actual, err := load(actualPath)
	if err != nil {
		return Result{}, err
	}
	expected, err := load(expectedPath)
	if err != nil {
		return Result{}, err
	}
	res, err := Compare(actual, expected, opts)
	if err != nil {
		return res, err
	}
	if !res.Match && diffPath != "" {
		if err := save(res.Diff, diffPath); err != nil {
			return res, err
		}
	}
	return res, nil
}

func near(actual, expected image.Image, x, y int, opts Options) bool {
	b := expected.Bounds()
	c := actual.At(x, y)
	for dy := -opts.FuzzyRadius; dy <= opts.FuzzyRadius; dy++ {
		for dx := -opts.FuzzyRadius; dx <= opts.FuzzyRadius; dx++ {
			p := image.Pt(x+dx, y+dy)
			if p.In(b) && distance(c, expected.At(p.X, p.Y)) <= opts.Tolerance {
				return true
			}
		}
	}
	return false
}

func distance(a, b color.Color) int {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	channel := func(x, y uint32) int {
		d := int(x>>8) - int(y>>8)
		if d < 0 {
			return -d
		}
		return d
	}
	return max(channel(ar, br), channel(ag, bg), channel(ab, bb), channel(aa, ba))
}

func load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("visualtest: %w", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("visualtest: decode %s: %w", path, err)
	}
	return img, nil
}

func save(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("visualtest: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("visualtest: encode %s: %w", path, err)
	}
	return nil
}

// Package geom holds the plain geometry values shared by the box model,
// the layout solvers and the painter.
package geom

import "fmt"

type Point struct {
	X, Y float64
}

func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

type Size struct {
	Width, Height float64
}

// Rect is an axis-aligned rectangle. Width and Height are never negative
// when produced by this module.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

func NewRect(x, y, w, h float64) Rect {
	return Rect{X: x, Y: y, Width: w, Height: h}
}

func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

func (r Rect) TopLeft() Point { return Point{X: r.X, Y: r.Y} }

func (r Rect) Size() Size { return Size{Width: r.Width, Height: r.Height} }

// IsEmpty reports whether the rectangle covers no area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

func (r Rect) Translated(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

func (r Rect) WithZeroOrigin() Rect {
	return Rect{Width: r.Width, Height: r.Height}
}

func (r Rect) WithSize(w, h float64) Rect {
	r.Width = w
	r.Height = h
	return r
}

// Contains reports whether p lies inside r, right and bottom edges excluded.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X < r.Right() && p.Y < r.Bottom()
}

func (r Rect) String() string {
	return fmt.Sprintf("%g,%g %gx%g", r.X, r.Y, r.Width, r.Height)
}

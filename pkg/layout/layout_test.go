package layout

import (
	"testing"

	"vista/pkg/boxmodel"
	"vista/pkg/geom"
	"vista/pkg/tree"
)

// decorate gives every node a box model, then every node with children or
// a display attribute a container, deepest first.
func decorate(t *testing.T, root *tree.Node, opts ...Option) {
	t.Helper()
	root.Walk(func(n *tree.Node) bool {
		boxmodel.New(n)
		return true
	})
	var attach func(n *tree.Node)
	attach = func(n *tree.Node) {
		for _, c := range n.Children() {
			attach(c)
		}
		if n.NumChildren() > 0 || n.Has(AttrDisplay) {
			c := NewContainer(n, opts...)
			t.Cleanup(c.Close)
		}
	}
	attach(root)
}

func boundsOf(t *testing.T, n *tree.Node) geom.Rect {
	t.Helper()
	box, ok := boxmodel.Of(n)
	if !ok {
		t.Fatalf("%s has no box model", n.Type())
	}
	return box.Bounds()
}

func sized(w, h float64, attrs ...tree.Attr) *tree.Node {
	return tree.NewNode("Component", append([]tree.Attr{tree.A("width", w), tree.A("height", h)}, attrs...))
}

func item(w, h float64) *Item {
	it := newItem()
	it.Width, it.Height = w, h
	return it
}

package script

import (
	"github.com/dop251/goja"

	"vista/pkg/css"
	"vista/pkg/geom"
	"vista/pkg/tree"
)

// nodeAccessor backs the script proxy of one node. Unknown keys read and
// write attributes, so `node.width = 40` is the same as
// `node.set("width", 40)`.
type nodeAccessor struct {
	d    *Driver
	node *tree.Node
}

func (a *nodeAccessor) Get(key string) goja.Value {
	d, n, vm := a.d, a.node, a.d.vm

	switch key {
	case "type":
		return vm.ToValue(n.Type())
	case "parent":
		if p := n.Parent(); p != nil {
			return d.proxy(p)
		}
		return goja.Null()
	case "children":
		kids := n.Children()
		out := make([]any, len(kids))
		for i, c := range kids {
			out[i] = d.proxy(c)
		}
		return vm.NewArray(out...)
	case "get":
		return vm.ToValue(func(name string) goja.Value { return d.toJS(n.Value(name)) })
	case "has":
		return vm.ToValue(func(name string) bool { return n.Has(name) })
	case "set":
		return vm.ToValue(func(name string, v goja.Value) { n.Set(name, d.toValue(v)) })
	case "remove":
		return vm.ToValue(func(name string) { n.Remove(name) })
	case "appendChild":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			child := a.child(call.Argument(0), "appendChild")
			n.AppendChild(child)
			return call.Argument(0)
		})
	case "insertChild":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			child := a.child(call.Argument(0), "insertChild")
			n.InsertChild(child, int(call.Argument(1).ToInteger()))
			return call.Argument(0)
		})
	case "removeChild":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			child := a.child(call.Argument(0), "removeChild")
			if child.Parent() != n {
				panic(vm.NewTypeError("removeChild: node is not a child"))
			}
			n.RemoveChild(child)
			return call.Argument(0)
		})
	case "bounds":
		return a.rect(d.view.Bounds(n))
	case "absoluteBounds":
		return a.rect(d.view.AbsoluteBounds(n))
	case "computedStyle":
		return a.style(d.view.Style(n))

	case "hover":
		return a.state(css.AttrMouse, tree.String(css.MouseHover))
	case "press":
		return a.state(css.AttrMouse, tree.String(css.MouseActive))
	case "release":
		return a.state(css.AttrMouse, tree.String(css.MouseHover))
	case "leave":
		return a.state(css.AttrMouse, tree.String(css.MouseNone))
	case "focus":
		return a.state(css.AttrKeyboard, tree.String(css.KeyboardFocus))
	case "blur":
		return a.state(css.AttrKeyboard, tree.String(css.KeyboardNone))
	case "enable":
		return a.state(css.AttrEnabled, tree.Bool(true))
	case "disable":
		return a.state(css.AttrEnabled, tree.Bool(false))
	case "toggle":
		return vm.ToValue(func() bool {
			on := !n.Value(css.AttrToggled).AsBool()
			n.Set(css.AttrToggled, tree.Bool(on))
			return on
		})
	}

	v, ok := n.Get(key)
	if !ok {
		return goja.Undefined()
	}
	return d.toJS(v)
}

func (a *nodeAccessor) Set(key string, val goja.Value) bool {
	switch key {
	case "type", "parent", "children", "bounds", "absoluteBounds", "computedStyle":
		return false
	}
	v := a.d.toValue(val)
	if v.IsUndefined() {
		a.node.Remove(key)
		return true
	}
	a.node.Set(key, v)
	return true
}

func (a *nodeAccessor) Has(key string) bool {
	return a.node.Has(key)
}

func (a *nodeAccessor) Delete(key string) bool {
	a.node.Remove(key)
	return true
}

func (a *nodeAccessor) Keys() []string {
	return a.node.AttributeNames()
}

func (a *nodeAccessor) child(v goja.Value, op string) *tree.Node {
	child := a.d.unwrap(v)
	if child == nil {
		panic(a.d.vm.NewTypeError(op + ": argument is not a node"))
	}
	if child == a.node || a.node.IsAChildOf(child) {
		panic(a.d.vm.NewTypeError(op + ": would create a cycle"))
	}
	return child
}

func (a *nodeAccessor) state(name string, v tree.Value) goja.Value {
	return a.d.vm.ToValue(func() { a.node.Set(name, v) })
}

func (a *nodeAccessor) rect(r geom.Rect) goja.Value {
	obj := a.d.vm.NewObject()
	obj.Set("x", r.X)
	obj.Set("y", r.Y)
	obj.Set("width", r.Width)
	obj.Set("height", r.Height)
	return obj
}

func (a *nodeAccessor) style(s css.Style) goja.Value {
	obj := a.d.vm.NewObject()
	obj.Set("background", s.Background.String())
	obj.Set("foreground", s.Foreground.String())
	obj.Set("border", s.Border.String())
	obj.Set("fontFamily", s.FontFamily)
	obj.Set("fontSize", s.FontSize)
	obj.Set("fontStyle", s.FontStyle)
	obj.Set("fontWeight", s.FontWeight)
	obj.Set("letterSpacing", s.LetterSpacing)
	obj.Set("textDecoration", s.TextDecoration)
	obj.Set("fontStretch", s.FontStretch)
	return obj
}

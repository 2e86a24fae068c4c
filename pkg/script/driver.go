// Package script drives an interpreted view from JavaScript. Scripts
// mutate node attributes, add and remove nodes, toggle interaction state
// and, with a manual clock, step transitions frame by frame.
package script

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"vista/pkg/engine"
	"vista/pkg/kinetics"
	"vista/pkg/tree"
)

// Driver executes scripts against one view. Like the view, it must only
// be used from the goroutine that owns the tree.
type Driver struct {
	vm    *goja.Runtime
	view  *engine.View
	log   *zap.Logger
	clock *kinetics.ManualClock

	proxies map[*tree.Node]*goja.Object
	nodes   map[*goja.Object]*tree.Node
}

type Option func(*Driver)

func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) { d.log = l }
}

// WithClock exposes clock.advance to scripts. It should be the clock the
// view's engine was built with.
func WithClock(c *kinetics.ManualClock) Option {
	return func(d *Driver) { d.clock = c }
}

// New binds a fresh runtime to v.
func New(v *engine.View, opts ...Option) *Driver {
	d := &Driver{
		vm:      goja.New(),
		view:    v,
		log:     zap.NewNop(),
		proxies: make(map[*tree.Node]*goja.Object),
		nodes:   make(map[*goja.Object]*tree.Node),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With(zap.String("view", v.ID.String()))

	(&consoleAPI{log: d.log}).register(d.vm)
	d.registerView()
	d.registerClock()
	return d
}

// Run executes src; name labels it in stack traces. A thrown exception is
// returned with its JavaScript stack.
func (d *Driver) Run(name, src string) error {
	_, err := d.vm.RunScript(name, src)
	if err != nil {
		var ex *goja.Exception
		if errors.As(err, &ex) {
			return fmt.Errorf("script %s: %s", name, ex.String())
		}
		return fmt.Errorf("script %s: %w", name, err)
	}
	return nil
}

// RunFile executes the script at path.
func (d *Driver) RunFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("script: read: %w", err)
	}
	return d.Run(path, string(src))
}

// Interrupt stops a running script from another goroutine.
func (d *Driver) Interrupt(reason string) {
	d.vm.Interrupt(reason)
}

func (d *Driver) registerView() {
	vm := d.vm
	view := vm.NewObject()
	view.Set("id", d.view.ID.String())
	view.Set("root", d.proxy(d.view.Root()))
	view.Set("find", func(id string) goja.Value {
		n := d.view.Find(id)
		if n == nil {
			return goja.Null()
		}
		return d.proxy(n)
	})
	view.Set("tick", func() int { return d.view.Tick() })
	view.Set("resize", func(w, h float64) { d.view.Resize(w, h) })
	view.Set("create", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(vm.NewTypeError("create: element type required"))
		}
		n := tree.NewNode(call.Argument(0).String(), nil)
		if attrs := call.Argument(1); !goja.IsUndefined(attrs) && !goja.IsNull(attrs) {
			obj := attrs.ToObject(vm)
			for _, k := range obj.Keys() {
				n.Set(k, d.toValue(obj.Get(k)))
			}
		}
		return d.proxy(n)
	})
	vm.Set("view", view)
}

func (d *Driver) registerClock() {
	clock := d.vm.NewObject()
	clock.Set("now", func() float64 {
		return float64(d.view.Registry().Now().UnixNano()) / float64(time.Millisecond)
	})
	clock.Set("advance", func(ms float64) int {
		if d.clock == nil {
			panic(d.vm.NewTypeError("clock.advance needs a manual clock"))
		}
		d.clock.Advance(time.Duration(ms * float64(time.Millisecond)))
		return d.view.Tick()
	})
	d.vm.Set("clock", clock)
}

// proxy returns the one JS object standing for n, so that === works.
func (d *Driver) proxy(n *tree.Node) *goja.Object {
	if p, ok := d.proxies[n]; ok {
		return p
	}
	p := d.vm.NewDynamicObject(&nodeAccessor{d: d, node: n})
	d.proxies[n] = p
	d.nodes[p] = n
	return p
}

func (d *Driver) unwrap(v goja.Value) *tree.Node {
	if v == nil || goja.IsNull(v) || goja.IsUndefined(v) {
		return nil
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil
	}
	if n, ok := d.nodes[obj]; ok {
		return n
	}
	for p, n := range d.nodes {
		if p.SameAs(obj) {
			return n
		}
	}
	return nil
}

// toValue converts a script value into an attribute value. Plain objects
// go through JSON so that key order survives; functions become handles.
func (d *Driver) toValue(v goja.Value) tree.Value {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return tree.Undefined
	}
	if _, isFn := goja.AssertFunction(v); isFn {
		return tree.Handle(v.Export())
	}
	if obj, ok := v.(*goja.Object); ok && obj.ClassName() == "Object" {
		text, err := d.vm.RunString("JSON.stringify")
		if err == nil {
			if stringify, ok := goja.AssertFunction(text); ok {
				if s, err := stringify(goja.Undefined(), v); err == nil {
					if parsed, err := tree.ParseObject(s.String()); err == nil {
						return tree.ObjectValue(parsed)
					}
				}
			}
		}
	}
	return tree.From(v.Export())
}

// toJS converts an attribute value for scripts.
func (d *Driver) toJS(v tree.Value) goja.Value {
	switch v.Kind() {
	case tree.KindUndefined:
		return goja.Undefined()
	case tree.KindString:
		return d.vm.ToValue(v.AsString())
	case tree.KindNumber:
		return d.vm.ToValue(v.AsNumber())
	case tree.KindBool:
		return d.vm.ToValue(v.AsBool())
	case tree.KindArray:
		items := v.AsArray()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = d.toJS(item)
		}
		return d.vm.NewArray(out...)
	case tree.KindObject:
		obj := d.vm.NewObject()
		o := v.AsObject()
		for _, k := range o.Keys() {
			obj.Set(k, d.toJS(o.Value(k)))
		}
		return obj
	}
	return d.vm.ToValue(v.AsHandle())
}

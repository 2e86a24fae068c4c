// Package kinetics implements transition descriptors, timing curves,
// value interpolation and the registry that polls running transitions.
package kinetics

import (
	"context"
	"reflect"
	"slices"
	"time"

	"go.uber.org/zap"

	"vista/pkg/tree"
)

// DefaultTickRate is the nominal poll frequency.
const DefaultTickRate = 60

type key struct {
	store tree.Store
	name  string
}

type watcher struct {
	fn     func(done bool)
	active bool
}

type entry struct {
	transition *Transition
	running    bool
	watchers   []*watcher
}

// Registry owns every transition of one engine. All methods except Run
// must be called from the goroutine that owns the property tree.
type Registry struct {
	clock   Clock
	interps *Interpolators
	log     *zap.Logger
	entries map[key]*entry
	// order lists entry keys by first registration; Tick walks it.
	order  []key
	closed bool
}

type Option func(*Registry)

func WithClock(c Clock) Option { return func(r *Registry) { r.clock = c } }

func WithLogger(l *zap.Logger) Option { return func(r *Registry) { r.log = l } }

func WithInterpolators(set *Interpolators) Option {
	return func(r *Registry) { r.interps = set }
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		clock:   SystemClock(),
		log:     zap.NewNop(),
		entries: make(map[key]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.interps == nil {
		r.interps = NewInterpolators()
	}
	return r
}

func (r *Registry) Clock() Clock { return r.clock }

func (r *Registry) Now() time.Time { return r.clock.Now() }

func (r *Registry) Interpolators() *Interpolators { return r.interps }

// Get returns the transition for (store, name), if one was ever started.
func (r *Registry) Get(store tree.Store, name string) *Transition {
	if e, ok := r.entries[key{store, name}]; ok {
		return e.transition
	}
	return nil
}

// Retarget starts or redirects the transition for (store, name). When a
// transition is still running its current value becomes the new source,
// so the value never jumps.
func (r *Registry) Retarget(store tree.Store, name string, d Descriptor, previous, target any) *Transition {
	if r.closed {
		return nil
	}
	now := r.clock.Now()
	k := key{store, name}
	e := r.entry(k)
	source := previous
	if e.transition != nil && !e.transition.Finished(now) {
		source = r.blend(e.transition.source, e.transition.target, e.transition.ProgressAt(now))
	}
	e.transition = newTransition(d, now, source, target)
	e.running = true
	r.log.Debug("transition started",
		zap.String("property", name),
		zap.Duration("duration", d.Duration),
		zap.Duration("delay", d.Delay),
		zap.String("easing", d.EasingName))
	return e.transition
}

// Watch registers fn to be called on every tick while the (store, name)
// transition runs; done is true on the final call.
func (r *Registry) Watch(store tree.Store, name string, fn func(done bool)) tree.Unsubscribe {
	e := r.entry(key{store, name})
	w := &watcher{fn: fn, active: true}
	e.watchers = append(e.watchers, w)
	return func() {
		w.active = false
		for i, other := range e.watchers {
			if other == w {
				e.watchers = append(e.watchers[:i], e.watchers[i+1:]...)
				break
			}
		}
	}
}

// Tick polls every running transition, notifies watchers and retires the
// ones that completed. It returns the number still running.
func (r *Registry) Tick() int {
	if r.closed {
		return 0
	}
	now := r.clock.Now()
	running := 0
	for _, k := range slices.Clone(r.order) {
		e, ok := r.entries[k]
		if !ok || !e.running || e.transition == nil {
			continue
		}
		done := e.transition.Finished(now)
		if done {
			e.running = false
			r.log.Debug("transition completed", zap.String("property", k.name))
		} else {
			running++
		}
		for _, w := range append([]*watcher(nil), e.watchers...) {
			if w.active {
				w.fn(done)
			}
		}
	}
	return running
}

// Running reports how many transitions have not yet been retired.
func (r *Registry) Running() int {
	n := 0
	for _, e := range r.entries {
		if e.running {
			n++
		}
	}
	return n
}

// Drop discards the transition of (store, name) so the attribute reads
// through again. Watchers stay registered.
func (r *Registry) Drop(store tree.Store, name string) {
	if e, ok := r.entries[key{store, name}]; ok {
		e.transition = nil
		e.running = false
	}
}

// Forget drops every transition and watcher attached to store.
func (r *Registry) Forget(store tree.Store) {
	r.order = slices.DeleteFunc(r.order, func(k key) bool {
		if k.store != store {
			return false
		}
		delete(r.entries, k)
		return true
	})
}

// Close drops all state; later calls become no-ops.
func (r *Registry) Close() {
	r.closed = true
	clear(r.entries)
	r.order = nil
}

func (r *Registry) entry(k key) *entry {
	e, ok := r.entries[k]
	if !ok {
		e = &entry{}
		r.entries[k] = e
		r.order = append(r.order, k)
	}
	return e
}

// Run polls at rate ticks per second until ctx is done. Each poll is handed
// to post, which must run it on the goroutine that owns the tree.
func (r *Registry) Run(ctx context.Context, rate float64, post func(func())) {
	if rate <= 0 {
		rate = DefaultTickRate
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			post(func() { r.Tick() })
		}
	}
}

func (r *Registry) blend(source, target any, p float64) any {
	if source == nil || target == nil {
		return target
	}
	if p <= 0 {
		return source
	}
	if p >= 1 {
		return target
	}
	fn, ok := r.interps.byType[reflect.TypeOf(source)]
	if !ok || reflect.TypeOf(source) != reflect.TypeOf(target) {
		return target
	}
	return fn(source, target, p)
}

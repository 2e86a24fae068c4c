package kinetics

import (
	"time"
)

// Transition interpolates one attribute from a source to a target value.
// Source and target hold the typed values of the property that drives it.
type Transition struct {
	Descriptor
	commencement time.Time
	source       any
	target       any
}

func newTransition(d Descriptor, now time.Time, source, target any) *Transition {
	return &Transition{Descriptor: d, commencement: now, source: source, target: target}
}

func (t *Transition) Commencement() time.Time { return t.commencement }

func (t *Transition) Source() any { return t.source }

func (t *Transition) Target() any { return t.target }

// ProgressAt returns eased progress in [0, 1]. It is exactly 0 up to the
// end of the delay and exactly 1 from the end of the duration onwards.
func (t *Transition) ProgressAt(now time.Time) float64 {
	if t.Duration <= 0 {
		return 1
	}
	elapsed := now.Sub(t.commencement) - t.Delay
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= t.Duration {
		return 1
	}
	easing := t.Easing
	if easing == nil {
		easing = Linear
	}
	return clamp01(easing(float64(elapsed) / float64(t.Duration)))
}

// Finished reports whether the transition has reached its target.
func (t *Transition) Finished(now time.Time) bool {
	return t.ProgressAt(now) >= 1
}

// Current returns the interpolated value at now.
func Current[T any](set *Interpolators, t *Transition, now time.Time) T {
	source, _ := t.source.(T)
	target, _ := t.target.(T)
	return Interpolate(set, source, target, t.ProgressAt(now))
}

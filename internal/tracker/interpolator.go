// Package tracker turns raw position samples into display state:
// smooth marker transitions and a continuously re-derived freshness
// classification.
package tracker

import (
	"time"

	"github.com/pradeeshk/bus-tracker/internal/model"
)

// DefaultAnimationDuration is the marker transition length.
const DefaultAnimationDuration = 8 * time.Second

// Lerp linearly interpolates latitude and longitude independently.
// progress is clamped to [0, 1].
func Lerp(from, to model.Coordinate, progress float64) model.Coordinate {
	if progress <= 0 {
		return from
	}
	if progress >= 1 {
		return to
	}
	return model.Coordinate{
		Lat:  from.Lat + (to.Lat-from.Lat)*progress,
		Long: from.Long + (to.Long-from.Long)*progress,
	}
}

// Animator produces a continuous transition between authoritative
// position samples instead of discrete jumps. It is a pure state
// machine over explicit clock values: the caller drives it from
// whatever frame loop it has, so the math is testable without a
// rendering surface.
type Animator struct {
	duration time.Duration

	from      model.Coordinate
	to        model.Coordinate
	start     time.Time
	animating bool

	rendered    model.Coordinate
	hasRendered bool
}

// NewAnimator creates an animator with the given transition duration.
// Non-positive durations fall back to DefaultAnimationDuration.
func NewAnimator(duration time.Duration) *Animator {
	if duration <= 0 {
		duration = DefaultAnimationDuration
	}
	return &Animator{duration: duration}
}

// SetTarget points the animator at a new authoritative position.
//
// With no previously rendered position, or when the target equals the
// last rendered position exactly, the marker snaps there immediately.
// Otherwise a transition starts from the currently rendered position,
// which may be mid-flight from a previous transition, so a new sample
// never causes a visual jump back to the prior animation's origin.
func (a *Animator) SetTarget(target model.Coordinate, now time.Time) {
	if !a.hasRendered || a.rendered.Equal(target) {
		a.rendered = target
		a.hasRendered = true
		a.animating = false
		return
	}

	a.from = a.Position(now)
	a.to = target
	a.start = now
	a.animating = true
}

// Position returns the coordinate to draw at the given instant and
// records it as the last rendered position. Once a transition
// completes the animator stays at the target until retargeted.
func (a *Animator) Position(now time.Time) model.Coordinate {
	if !a.animating {
		return a.rendered
	}

	progress := float64(now.Sub(a.start)) / float64(a.duration)
	a.rendered = Lerp(a.from, a.to, progress)
	if progress >= 1 {
		a.animating = false
	}
	return a.rendered
}

// Animating reports whether a transition is currently in flight.
func (a *Animator) Animating() bool {
	return a.animating
}

// Cancel discards any in-flight transition, leaving the marker at the
// last rendered position.
func (a *Animator) Cancel() {
	a.animating = false
}

package tracker

import (
	"math"
	"testing"
	"time"

	"github.com/pradeeshk/bus-tracker/internal/model"
)

func coordNear(a, b model.Coordinate) bool {
	return math.Abs(a.Lat-b.Lat) < 1e-9 && math.Abs(a.Long-b.Long) < 1e-9
}

func TestLerp(t *testing.T) {
	t.Parallel()

	from := model.Coordinate{Lat: 13.0, Long: 80.0}
	to := model.Coordinate{Lat: 13.01, Long: 80.01}

	tests := []struct {
		name     string
		progress float64
		want     model.Coordinate
	}{
		{name: "start", progress: 0, want: from},
		{name: "halfway", progress: 0.5, want: model.Coordinate{Lat: 13.005, Long: 80.005}},
		{name: "end", progress: 1, want: to},
		{name: "clamped below", progress: -0.5, want: from},
		{name: "clamped above", progress: 1.5, want: to},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Lerp(from, to, tc.progress)
			if !coordNear(got, tc.want) {
				t.Fatalf("Lerp(%v) = %+v, want %+v", tc.progress, got, tc.want)
			}
		})
	}
}

func TestAnimatorSnapsOnFirstSample(t *testing.T) {
	t.Parallel()

	a := NewAnimator(8 * time.Second)
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	target := model.Coordinate{Lat: 13.0, Long: 80.0}

	a.SetTarget(target, now)

	if a.Animating() {
		t.Fatal("first sample should snap, not animate")
	}
	if got := a.Position(now); !coordNear(got, target) {
		t.Fatalf("Position = %+v, want %+v", got, target)
	}
}

func TestAnimatorTransition(t *testing.T) {
	t.Parallel()

	a := NewAnimator(8 * time.Second)
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	a.SetTarget(model.Coordinate{Lat: 13.0, Long: 80.0}, now)
	a.SetTarget(model.Coordinate{Lat: 13.01, Long: 80.01}, now)

	if !a.Animating() {
		t.Fatal("second distinct sample should start a transition")
	}

	got := a.Position(now.Add(4 * time.Second))
	want := model.Coordinate{Lat: 13.005, Long: 80.005}
	if !coordNear(got, want) {
		t.Fatalf("midpoint = %+v, want %+v", got, want)
	}

	got = a.Position(now.Add(8 * time.Second))
	want = model.Coordinate{Lat: 13.01, Long: 80.01}
	if !coordNear(got, want) {
		t.Fatalf("endpoint = %+v, want %+v", got, want)
	}
	if a.Animating() {
		t.Fatal("transition should finish at full progress")
	}
}

func TestAnimatorRetargetsMidFlight(t *testing.T) {
	t.Parallel()

	a := NewAnimator(8 * time.Second)
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	a.SetTarget(model.Coordinate{Lat: 13.0, Long: 80.0}, now)
	a.SetTarget(model.Coordinate{Lat: 13.01, Long: 80.01}, now)

	// Render halfway, then retarget. The new transition must start at
	// the halfway point, not jump back to the original origin.
	mid := a.Position(now.Add(4 * time.Second))

	retargetAt := now.Add(4 * time.Second)
	a.SetTarget(model.Coordinate{Lat: 13.02, Long: 80.02}, retargetAt)

	if got := a.Position(retargetAt); !coordNear(got, mid) {
		t.Fatalf("retarget origin = %+v, want mid-flight position %+v", got, mid)
	}

	got := a.Position(retargetAt.Add(8 * time.Second))
	want := model.Coordinate{Lat: 13.02, Long: 80.02}
	if !coordNear(got, want) {
		t.Fatalf("retargeted endpoint = %+v, want %+v", got, want)
	}
}

func TestAnimatorEqualTargetSnaps(t *testing.T) {
	t.Parallel()

	a := NewAnimator(8 * time.Second)
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	pos := model.Coordinate{Lat: 13.0, Long: 80.0}

	a.SetTarget(pos, now)
	a.SetTarget(pos, now.Add(time.Second))

	if a.Animating() {
		t.Fatal("identical target should not start a transition")
	}
}

func TestAnimatorCancel(t *testing.T) {
	t.Parallel()

	a := NewAnimator(8 * time.Second)
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	a.SetTarget(model.Coordinate{Lat: 13.0, Long: 80.0}, now)
	a.SetTarget(model.Coordinate{Lat: 13.01, Long: 80.01}, now)

	rendered := a.Position(now.Add(2 * time.Second))
	a.Cancel()

	if a.Animating() {
		t.Fatal("Cancel should stop the transition")
	}
	if got := a.Position(now.Add(6 * time.Second)); !coordNear(got, rendered) {
		t.Fatalf("after Cancel position = %+v, want last rendered %+v", got, rendered)
	}
}

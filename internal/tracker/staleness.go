package tracker

import (
	"fmt"
	"sync"
	"time"
)

// DefaultStaleThreshold is the age at which the feed is flagged degraded.
const DefaultStaleThreshold = 5 * time.Second

// Freshness is a snapshot of how old the last position update is.
type Freshness struct {
	// Elapsed is the time since the last update was received.
	Elapsed time.Duration

	// Label is the user-facing classification ("just now", "45s ago",
	// "2m ago").
	Label string

	// Degraded is true once Elapsed crosses the stale threshold.
	Degraded bool
}

// Classify derives the user-facing label for an elapsed duration.
func Classify(elapsed time.Duration) string {
	seconds := int(elapsed.Seconds())
	switch {
	case seconds < 1:
		return "just now"
	case seconds < 60:
		return fmt.Sprintf("%ds ago", seconds)
	default:
		return fmt.Sprintf("%dm ago", seconds/60)
	}
}

// Monitor re-evaluates freshness on a fixed cadence, independent of
// whether new samples arrive, so a silent feed is still reported as
// increasingly stale. Each monitor owns its ticker goroutine; Stop
// must be called when the owning subscription goes away so no timer
// outlives it.
type Monitor struct {
	threshold time.Duration
	interval  time.Duration
	updates   chan Freshness

	mu         sync.Mutex
	lastUpdate time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// NewMonitor starts a staleness monitor ticking once per second,
// measuring against the given threshold (non-positive values fall
// back to DefaultStaleThreshold).
func NewMonitor(threshold time.Duration) *Monitor {
	return newMonitorWithInterval(threshold, time.Second)
}

func newMonitorWithInterval(threshold, interval time.Duration) *Monitor {
	if threshold <= 0 {
		threshold = DefaultStaleThreshold
	}

	m := &Monitor{
		threshold:  threshold,
		interval:   interval,
		updates:    make(chan Freshness, 1),
		lastUpdate: time.Now(),
		stop:       make(chan struct{}),
	}
	go m.loop()
	return m
}

// Touch records that an authoritative update was just received.
func (m *Monitor) Touch(at time.Time) {
	m.mu.Lock()
	m.lastUpdate = at
	m.mu.Unlock()
}

// Updates delivers a Freshness snapshot once per tick. The channel is
// closed by Stop.
func (m *Monitor) Updates() <-chan Freshness {
	return m.updates
}

// Current computes the freshness right now, outside the tick cadence.
func (m *Monitor) Current() Freshness {
	return m.at(time.Now())
}

// Stop halts the ticker goroutine and closes the updates channel.
// Safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Monitor) at(now time.Time) Freshness {
	m.mu.Lock()
	last := m.lastUpdate
	m.mu.Unlock()

	elapsed := now.Sub(last)
	if elapsed < 0 {
		elapsed = 0
	}

	return Freshness{
		Elapsed:  elapsed,
		Label:    Classify(elapsed),
		Degraded: elapsed >= m.threshold,
	}
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	defer close(m.updates)

	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			f := m.at(now)
			select {
			case m.updates <- f:
			default:
				// Replace the pending snapshot so consumers always
				// see the newest classification.
				select {
				case <-m.updates:
				default:
				}
				select {
				case m.updates <- f:
				default:
				}
			}
		}
	}
}

package antigaming

import (
	"slices"
	"sync"
	"time"
)

const (
	// DefaultTrackerMaxEvents is the number of events retained per key.
	DefaultTrackerMaxEvents = 500
	// DefaultTrackerMaxAge is the maximum age of an event before eviction.
	DefaultTrackerMaxAge = DefaultWeightWindow
)

// Tracker keeps a bounded, chronologically ordered buffer of recent events
// per key (typically a project ID) so detection can run over the live window
// without reloading the audit log.
type Tracker struct {
	buffers   map[string][]AlertEvent
	maxEvents int
	maxAge    time.Duration
	mu        sync.RWMutex
}

// NewTracker creates a Tracker. Non-positive arguments use the defaults.
func NewTracker(maxEvents int, maxAge time.Duration) *Tracker {
	if maxEvents <= 0 {
		maxEvents = DefaultTrackerMaxEvents
	}
	if maxAge <= 0 {
		maxAge = DefaultTrackerMaxAge
	}
	return &Tracker{
		buffers:   make(map[string][]AlertEvent),
		maxEvents: maxEvents,
		maxAge:    maxAge,
	}
}

// Record adds an event under key and evicts stale entries.
func (t *Tracker) Record(key string, event AlertEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.Timestamp = event.Timestamp.UTC()

	t.mu.Lock()
	defer t.mu.Unlock()

	events := append(t.buffers[key], event)
	if n := len(events); n > 1 && event.Timestamp.Before(events[n-2].Timestamp) {
		slices.SortStableFunc(events, func(a, b AlertEvent) int {
			return a.Timestamp.Compare(b.Timestamp)
		})
	}

	// Evict events older than maxAge, relative to the newest one
	cutoff := events[len(events)-1].Timestamp.Add(-t.maxAge)
	start := 0
	for start < len(events) && events[start].Timestamp.Before(cutoff) {
		start++
	}
	events = events[start:]

	// Cap buffer size
	if len(events) > t.maxEvents {
		events = events[len(events)-t.maxEvents:]
	}

	t.buffers[key] = events
}

// Events returns a copy of the buffered events for key, oldest first.
func (t *Tracker) Events(key string) []AlertEvent {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.buffers[key])
}

// Forget drops every event recorded under key.
func (t *Tracker) Forget(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.buffers, key)
}

// Keys returns the number of keys with buffered events.
func (t *Tracker) Keys() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.buffers)
}

// Verdict runs detector over the events buffered for key.
func (t *Tracker) Verdict(key string, detector *Detector, in Inputs) GamingVerdict {
	return detector.Detect(t.Events(key), in)
}

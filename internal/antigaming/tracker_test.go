package antigaming

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestTracker_RecordAndVerdict(t *testing.T) {
	tracker := NewTracker(0, 0)
	for _, e := range updatedEvents(11, time.Minute) {
		tracker.Record("project-a", e)
	}
	tracker.Record("project-b", AlertEvent{Type: EventUpdated, Timestamp: baseTime})

	d := NewDetector(DefaultConfig())
	assert.True(t, tracker.Verdict("project-a", d, Inputs{}).IsGaming)
	assert.False(t, tracker.Verdict("project-b", d, Inputs{}).IsGaming)
	assert.False(t, tracker.Verdict("unknown", d, Inputs{}).IsGaming)
	assert.Equal(t, 2, tracker.Keys())
}

func TestTracker_KeepsChronologicalOrder(t *testing.T) {
	tracker := NewTracker(10, time.Hour)
	tracker.Record("p", AlertEvent{Type: EventCreated, Signature: "late", Timestamp: baseTime.Add(2 * time.Minute)})
	tracker.Record("p", AlertEvent{Type: EventCreated, Signature: "early", Timestamp: baseTime})
	tracker.Record("p", AlertEvent{Type: EventCreated, Signature: "mid", Timestamp: baseTime.Add(time.Minute)})

	events := tracker.Events("p")
	require.Len(t, events, 3)
	assert.Equal(t, "early", events[0].Signature)
	assert.Equal(t, "mid", events[1].Signature)
	assert.Equal(t, "late", events[2].Signature)
}

func TestTracker_EvictsByAgeAndCount(t *testing.T) {
	tracker := NewTracker(3, 10*time.Minute)
	for i := range 5 {
		tracker.Record("p", AlertEvent{Type: EventUpdated, Signature: fmt.Sprint(i), Timestamp: baseTime.Add(time.Duration(i) * time.Minute)})
	}
	events := tracker.Events("p")
	require.Len(t, events, 3)
	assert.Equal(t, "2", events[0].Signature)

	tracker.Record("p", AlertEvent{Type: EventUpdated, Signature: "later", Timestamp: baseTime.Add(time.Hour)})
	events = tracker.Events("p")
	require.Len(t, events, 1)
	assert.Equal(t, "later", events[0].Signature)
}

func TestTracker_EventsIsACopy(t *testing.T) {
	tracker := NewTracker(10, time.Hour)
	tracker.Record("p", AlertEvent{Type: EventCreated, Signature: "s", Timestamp: baseTime})

	events := tracker.Events("p")
	events[0].Signature = "mutated"
	assert.Equal(t, "s", tracker.Events("p")[0].Signature)

	tracker.Forget("p")
	assert.Empty(t, tracker.Events("p"))
}

func TestTracker_ZeroTimestampUsesNow(t *testing.T) {
	tracker := NewTracker(10, time.Hour)
	before := time.Now().UTC()
	tracker.Record("p", AlertEvent{Type: EventCreated})

	events := tracker.Events("p")
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.Before(before))
	assert.Equal(t, time.UTC, events[0].Timestamp.Location())
}

func TestTracker_Concurrent(t *testing.T) {
	defer goleak.VerifyNone(t)

	tracker := NewTracker(1000, 24*time.Hour)
	d := NewDetector(DefaultConfig())

	var wg sync.WaitGroup
	for w := range 4 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := range 100 {
				tracker.Record(fmt.Sprintf("p%d", w%2), AlertEvent{
					Type:      EventUpdated,
					Timestamp: baseTime.Add(time.Duration(i) * time.Second),
				})
			}
		}()
		go func() {
			defer wg.Done()
			for range 100 {
				_ = tracker.Verdict(fmt.Sprintf("p%d", w%2), d, Inputs{})
			}
		}()
	}
	wg.Wait()

	assert.Len(t, tracker.Events("p0"), 200)
	assert.True(t, tracker.Verdict("p0", d, Inputs{}).IsGaming)
}

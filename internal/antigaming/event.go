// Package antigaming flags attempts to manipulate the coherence score by
// looking for suspicious patterns in the stream of user actions on alerts
// and weight profiles.
package antigaming

import (
	"encoding/json"
	"fmt"
	"time"
)

// localTimestampLayout is RFC 3339 without a zone offset.
const localTimestampLayout = "2006-01-02T15:04:05.999999999"

// EventType is the kind of user action recorded in the audit log.
type EventType string

const (
	EventCreated  EventType = "created"
	EventUpdated  EventType = "updated"
	EventResolved EventType = "resolved"
	EventChange   EventType = "change"
)

// IsValid reports whether t is one of the known event types.
func (t EventType) IsValid() bool {
	switch t {
	case EventCreated, EventUpdated, EventResolved, EventChange:
		return true
	default:
		return false
	}
}

// AlertEvent is one user action relevant to gaming detection. Signature is a
// stable key identifying the same finding across create/resolve cycles.
type AlertEvent struct {
	Type                EventType `json:"type"`
	ActorID             string    `json:"actor_id"`
	Signature           string    `json:"signature"`
	Timestamp           time.Time `json:"timestamp"`
	WeightChangePercent *float64  `json:"weight_change_percent,omitempty"`
}

// within reports whether the event falls in [from, to].
func (e *AlertEvent) within(from, to time.Time) bool {
	ts := e.Timestamp.UTC()
	return !ts.Before(from) && !ts.After(to)
}

// ParseTimestamp parses an RFC 3339 timestamp. A timestamp without a zone
// offset is taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, nil
	}
	ts, err := time.ParseInLocation(localTimestampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: want RFC 3339", s)
	}
	return ts, nil
}

// UnmarshalJSON decodes an event, accepting timestamps without a zone offset
// as UTC. A missing or null timestamp leaves the zero time.
func (e *AlertEvent) UnmarshalJSON(data []byte) error {
	type plain AlertEvent
	var aux struct {
		plain
		Timestamp *string `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	event := AlertEvent(aux.plain)
	if aux.Timestamp != nil && *aux.Timestamp != "" {
		ts, err := ParseTimestamp(*aux.Timestamp)
		if err != nil {
			return err
		}
		event.Timestamp = ts
	}
	*e = event
	return nil
}

package nav

import "encoding/json"

// Event is the unit delivered to sinks: one detected navigation change,
// stamped by the forwarder that observed it.
type Event struct {
	ID        string    `json:"id"`        // UUIDv7
	Seq       uint64    `json:"seq"`       // monotonically increasing per forwarder (gap detection)
	Source    string    `json:"source"`    // host label, e.g. the observed page URL
	Timestamp int64     `json:"timestamp"` // epoch milliseconds
	Snapshot  *Snapshot `json:"snapshot"`
}

// MarshalEvent serialises an Event to JSON.
func MarshalEvent(e *Event) ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalEvent deserialises an Event from JSON.
func UnmarshalEvent(data []byte) (*Event, error) {
	var raw struct {
		ID        string          `json:"id"`
		Seq       uint64          `json:"seq"`
		Source    string          `json:"source"`
		Timestamp int64           `json:"timestamp"`
		Snapshot  json.RawMessage `json:"snapshot"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	e := &Event{ID: raw.ID, Seq: raw.Seq, Source: raw.Source, Timestamp: raw.Timestamp}
	if len(raw.Snapshot) > 0 && string(raw.Snapshot) != "null" {
		snap, err := UnmarshalSnapshot(raw.Snapshot)
		if err != nil {
			return nil, err
		}
		e.Snapshot = snap
	}
	return e, nil
}

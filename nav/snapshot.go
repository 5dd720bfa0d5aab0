// Package nav defines the navigation types shared by navwatch components.
// A Snapshot is the public contract: hosts produce readings, the observer
// turns them into snapshots, and sinks and subscribers consume them.
package nav

import "encoding/json"

// Location is the location-like half of a navigation reading.
type Location struct {
	Pathname string `json:"pathname"`
	Search   string `json:"search"` // raw query including the leading "?", or empty
}

// String returns the path as it would appear in the address bar.
func (l Location) String() string {
	return l.Pathname + l.Search
}

// Snapshot is an immutable capture of navigation state at one instant.
// The zero value is not useful; use NewSnapshot.
type Snapshot struct {
	pathname string
	search   string
	state    any
}

// NewSnapshot captures state and loc verbatim.
func NewSnapshot(state any, loc Location) *Snapshot {
	return &Snapshot{
		pathname: loc.Pathname,
		search:   loc.Search,
		state:    state,
	}
}

func (s *Snapshot) Pathname() string { return s.pathname }
func (s *Snapshot) Search() string   { return s.search }

// State returns the captured history state. Callers must not mutate it.
func (s *Snapshot) State() any { return s.state }

// Location returns the pathname and search of the snapshot.
func (s *Snapshot) Location() Location {
	return Location{Pathname: s.pathname, Search: s.search}
}

// IsUpdated reports whether the given current state differs from the
// snapshot. Checks run cheapest first: pathname, search, then deep equality
// of state.
func (s *Snapshot) IsUpdated(state any, loc Location) bool {
	return s.pathname != loc.Pathname ||
		s.search != loc.Search ||
		!StateEqual(s.state, state)
}

type snapshotJSON struct {
	Pathname string `json:"pathname"`
	Search   string `json:"search"`
	State    any    `json:"state"`
}

func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotJSON{Pathname: s.pathname, Search: s.search, State: s.state})
}

// UnmarshalSnapshot decodes a snapshot from its JSON form. State is decoded
// into JSON-like Go values (map[string]any, []any, float64, string, bool, nil).
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var v snapshotJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return NewSnapshot(v.State, Location{Pathname: v.Pathname, Search: v.Search}), nil
}

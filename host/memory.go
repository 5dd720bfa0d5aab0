package host

import (
	"context"
	"sync"

	"github.com/hazyhaar/navwatch/nav"
)

// Push records one PushState call received by a Memory host.
type Push struct {
	State any
	Title string
	Path  string
}

// Memory is an in-process Host. External code mutates it with Navigate and
// SetState the way page scripts mutate a browser's location and history.
// Read returns a deep copy of the state so snapshots never alias it.
type Memory struct {
	mu     sync.Mutex
	loc    nav.Location
	state  any
	pushes []Push
	reads  int
	err    error
}

// NewMemory creates a Memory host positioned at loc with the given state.
func NewMemory(loc nav.Location, state any) *Memory {
	return &Memory{loc: loc, state: cloneState(state)}
}

func (m *Memory) Read(_ context.Context) (Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.err != nil {
		return Reading{}, m.err
	}
	return Reading{Location: m.loc, State: cloneState(m.state)}, nil
}

// PushState records the call and applies it: the path is resolved against
// the current location, the state replaces the history state.
func (m *Memory) PushState(_ context.Context, state any, title, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushes = append(m.pushes, Push{State: state, Title: title, Path: path})
	m.loc = ResolvePath(m.loc, path)
	m.state = cloneState(state)
	return nil
}

// Navigate changes the location without touching the state.
func (m *Memory) Navigate(loc nav.Location) {
	m.mu.Lock()
	m.loc = loc
	m.mu.Unlock()
}

// SetState replaces the history state without touching the location.
func (m *Memory) SetState(state any) {
	m.mu.Lock()
	m.state = cloneState(state)
	m.mu.Unlock()
}

// FailReads makes every subsequent Read return err. Pass nil to recover.
func (m *Memory) FailReads(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// Pushes returns the PushState calls received so far.
func (m *Memory) Pushes() []Push {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Push(nil), m.pushes...)
}

// Reads returns how many times Read was called.
func (m *Memory) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// cloneState deep-copies the JSON-like containers of v. Leaves are shared.
func cloneState(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneState(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneState(e)
		}
		return out
	default:
		return v
	}
}

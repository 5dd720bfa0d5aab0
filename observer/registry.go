package observer

import "github.com/hazyhaar/navwatch/nav"

// Token identifies one subscription. It is opaque to callers and only
// used to remove the subscription again.
type Token string

// Callback receives the new snapshot after each detected change.
type Callback func(*nav.Snapshot)

// registry maps tokens to callbacks and remembers subscription order.
// Not safe for concurrent use; the Observer guards it.
type registry struct {
	order []Token
	subs  map[Token]Callback
}

func newRegistry() *registry {
	return &registry{subs: make(map[Token]Callback)}
}

func (r *registry) add(id Token, cb Callback) {
	if _, ok := r.subs[id]; !ok {
		r.order = append(r.order, id)
	}
	r.subs[id] = cb
}

// remove deletes id and reports whether it was present.
func (r *registry) remove(id Token) bool {
	if _, ok := r.subs[id]; !ok {
		return false
	}
	delete(r.subs, id)
	for i, t := range r.order {
		if t == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *registry) len() int    { return len(r.subs) }
func (r *registry) empty() bool { return len(r.subs) == 0 }

// callbacks returns the registered callbacks in subscription order. The
// returned slice is a copy: later registry changes do not affect it.
func (r *registry) callbacks() []Callback {
	out := make([]Callback, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.subs[id])
	}
	return out
}

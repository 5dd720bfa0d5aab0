package observer

import (
	"testing"

	"github.com/hazyhaar/navwatch/nav"
)

func TestRegistry_AddRemove(t *testing.T) {
	r := newRegistry()
	if !r.empty() {
		t.Fatal("new registry should be empty")
	}

	r.add("a", func(*nav.Snapshot) {})
	r.add("b", func(*nav.Snapshot) {})
	if r.len() != 2 {
		t.Fatalf("len: got %d, want 2", r.len())
	}

	if !r.remove("a") {
		t.Fatal("remove(a) should report presence")
	}
	if r.remove("a") {
		t.Fatal("second remove(a) should be a no-op")
	}
	if r.len() != 1 || len(r.order) != 1 || r.order[0] != "b" {
		t.Fatalf("after remove: len=%d order=%v", r.len(), r.order)
	}
}

func TestRegistry_CallbacksIsACopy(t *testing.T) {
	r := newRegistry()
	n := 0
	r.add("a", func(*nav.Snapshot) { n++ })

	cbs := r.callbacks()
	r.remove("a")
	r.add("b", func(*nav.Snapshot) { n += 10 })

	for _, cb := range cbs {
		cb(nil)
	}
	if n != 1 {
		t.Fatalf("copied callbacks: got %d, want 1", n)
	}
}

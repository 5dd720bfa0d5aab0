package host

import (
	"context"
	"errors"
	"testing"

	"github.com/hazyhaar/navwatch/nav"
)

func TestResolvePath(t *testing.T) {
	cur := nav.Location{Pathname: "/app/list", Search: "?x=1"}
	cases := []struct {
		in   string
		want nav.Location
	}{
		{"/c", nav.Location{Pathname: "/c"}},
		{"/c?x=1&y=2", nav.Location{Pathname: "/c", Search: "?x=1&y=2"}},
		{"/c?x=1#frag", nav.Location{Pathname: "/c", Search: "?x=1"}},
		{"/c?", nav.Location{Pathname: "/c"}},
		{"?tab=2", nav.Location{Pathname: "/app/list", Search: "?tab=2"}},
		{"detail", nav.Location{Pathname: "/app/detail"}},
		{"detail?id=7", nav.Location{Pathname: "/app/detail", Search: "?id=7"}},
		{"./", nav.Location{Pathname: "/app/"}},
		{"../root", nav.Location{Pathname: "/root"}},
		{"#frag", nav.Location{Pathname: "/app/list", Search: "?x=1"}},
		{"", nav.Location{Pathname: "/app/list", Search: "?x=1"}},
		{"https://other.example/p?z=9", nav.Location{Pathname: "/p", Search: "?z=9"}},
	}
	for _, c := range cases {
		got := ResolvePath(cur, c.in)
		if got != c.want {
			t.Errorf("ResolvePath(%s, %q): got %+v, want %+v", cur, c.in, got, c.want)
		}
	}
}

func TestMemory_PushResolvesRelativePath(t *testing.T) {
	m := NewMemory(nav.Location{Pathname: "/app/list"}, nil)

	m.PushState(context.Background(), nil, "", "?tab=2")
	r, _ := m.Read(context.Background())
	if r.Location != (nav.Location{Pathname: "/app/list", Search: "?tab=2"}) {
		t.Fatalf("after ?tab=2: got %+v", r.Location)
	}

	m.PushState(context.Background(), nil, "", "detail")
	r, _ = m.Read(context.Background())
	if r.Location != (nav.Location{Pathname: "/app/detail"}) {
		t.Fatalf("after detail: got %+v", r.Location)
	}
}

func TestMemory_ReadReturnsCopy(t *testing.T) {
	state := map[string]any{"list": []any{"a"}}
	m := NewMemory(nav.Location{Pathname: "/a"}, state)

	r, err := m.Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	r.State.(map[string]any)["list"].([]any)[0] = "mutated"

	again, _ := m.Read(context.Background())
	if got := again.State.(map[string]any)["list"].([]any)[0]; got != "a" {
		t.Fatalf("host state aliased by reader: got %v", got)
	}
	if m.Reads() != 2 {
		t.Fatalf("Reads: got %d, want 2", m.Reads())
	}
}

func TestMemory_PushStateApplies(t *testing.T) {
	m := NewMemory(nav.Location{Pathname: "/a"}, nil)
	if err := m.PushState(context.Background(), map[string]any{"x": 1}, "", "/c?q=2"); err != nil {
		t.Fatal(err)
	}

	pushes := m.Pushes()
	if len(pushes) != 1 || pushes[0].Path != "/c?q=2" || pushes[0].Title != "" {
		t.Fatalf("Pushes: got %+v", pushes)
	}

	r, _ := m.Read(context.Background())
	if r.Location.Pathname != "/c" || r.Location.Search != "?q=2" {
		t.Fatalf("location after push: got %+v", r.Location)
	}
	if !nav.StateEqual(r.State, map[string]any{"x": 1}) {
		t.Fatalf("state after push: got %v", r.State)
	}
}

func TestMemory_FailReads(t *testing.T) {
	m := NewMemory(nav.Location{Pathname: "/a"}, nil)
	boom := errors.New("tab crashed")
	m.FailReads(boom)
	if _, err := m.Read(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Read error: got %v, want %v", err, boom)
	}
	m.FailReads(nil)
	if _, err := m.Read(context.Background()); err != nil {
		t.Fatalf("Read after recovery: %v", err)
	}
}

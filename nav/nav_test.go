package nav

import (
	"encoding/json"
	"math"
	"testing"
)

func TestIsUpdated_Reflexive(t *testing.T) {
	cases := []struct {
		loc   Location
		state any
	}{
		{Location{Pathname: "/a"}, nil},
		{Location{Pathname: "/a", Search: "?q=1"}, "plain"},
		{Location{Pathname: "/", Search: ""}, map[string]any{"x": 1.0, "list": []any{"a", true, nil}}},
	}
	for _, c := range cases {
		snap := NewSnapshot(c.state, c.loc)
		if snap.IsUpdated(c.state, c.loc) {
			t.Errorf("IsUpdated(%v, %v) on identical values: got true", c.state, c.loc)
		}
	}
}

func TestIsUpdated_PathnameChange(t *testing.T) {
	snap := NewSnapshot(nil, Location{Pathname: "/a"})
	if !snap.IsUpdated(nil, Location{Pathname: "/b"}) {
		t.Fatal("pathname change not detected")
	}
}

func TestIsUpdated_SearchChange(t *testing.T) {
	snap := NewSnapshot(nil, Location{Pathname: "/a", Search: "?page=1"})
	if !snap.IsUpdated(nil, Location{Pathname: "/a", Search: "?page=2"}) {
		t.Fatal("search change not detected")
	}
	if !snap.IsUpdated(nil, Location{Pathname: "/a"}) {
		t.Fatal("search removal not detected")
	}
}

func TestIsUpdated_NestedStateChange(t *testing.T) {
	loc := Location{Pathname: "/a"}
	before := map[string]any{"user": map[string]any{"id": 1.0, "tags": []any{"a", "b"}}}
	after := map[string]any{"user": map[string]any{"id": 1.0, "tags": []any{"a", "c"}}}

	snap := NewSnapshot(before, loc)
	if !snap.IsUpdated(after, loc) {
		t.Fatal("nested state change not detected")
	}
}

func TestIsUpdated_StructurallyEqualStateIsNotIdentity(t *testing.T) {
	loc := Location{Pathname: "/a"}
	snap := NewSnapshot(map[string]any{"x": []any{1.0, 2.0}}, loc)
	// A distinct value of the same shape must compare equal.
	if snap.IsUpdated(map[string]any{"x": []any{1.0, 2.0}}, loc) {
		t.Fatal("structurally equal state reported as updated")
	}
}

func TestStateEqual_NumericKinds(t *testing.T) {
	a := map[string]any{"x": int64(1), "y": []any{int(2)}}
	b := map[string]any{"x": float64(1), "y": []any{float64(2)}}
	if !StateEqual(a, b) {
		t.Fatal("int64(1) and float64(1) should compare equal")
	}
	if StateEqual(map[string]any{"x": int64(1)}, map[string]any{"x": 1.5}) {
		t.Fatal("1 and 1.5 should differ")
	}
}

func TestStateEqual_NaN(t *testing.T) {
	if !StateEqual(math.NaN(), math.NaN()) {
		t.Fatal("NaN should equal NaN")
	}
	state := map[string]any{"ratio": math.NaN(), "list": []any{math.NaN(), 1.0}}
	snap := NewSnapshot(state, Location{Pathname: "/a"})
	if snap.IsUpdated(map[string]any{"ratio": math.NaN(), "list": []any{math.NaN(), 1.0}}, Location{Pathname: "/a"}) {
		t.Fatal("unchanged state holding NaN reported as updated")
	}
	if StateEqual(math.NaN(), 0.0) {
		t.Fatal("NaN and 0 should differ")
	}
}

func TestStateEqual_NilHandling(t *testing.T) {
	if !StateEqual(nil, nil) {
		t.Error("nil should equal nil")
	}
	if StateEqual(nil, map[string]any{}) {
		t.Error("nil should not equal an empty object")
	}
	if StateEqual(nil, 0.0) {
		t.Error("nil should not equal 0")
	}
	if StateEqual([]any{}, map[string]any{}) {
		t.Error("empty array should not equal empty object")
	}
}

func TestStateEqual_StructWithUnexportedFields(t *testing.T) {
	type cursor struct {
		page int
		Tag  string
	}
	if !StateEqual(cursor{page: 1, Tag: "a"}, cursor{page: 1, Tag: "a"}) {
		t.Error("equal structs reported different")
	}
	if StateEqual(cursor{page: 1}, cursor{page: 2}) {
		t.Error("unexported field difference not detected")
	}
}

func TestSnapshot_Accessors(t *testing.T) {
	state := map[string]any{"k": "v"}
	snap := NewSnapshot(state, Location{Pathname: "/p", Search: "?s=1"})

	if snap.Pathname() != "/p" {
		t.Errorf("Pathname: got %q", snap.Pathname())
	}
	if snap.Search() != "?s=1" {
		t.Errorf("Search: got %q", snap.Search())
	}
	if snap.Location().String() != "/p?s=1" {
		t.Errorf("Location: got %q", snap.Location().String())
	}
	if !StateEqual(snap.State(), state) {
		t.Errorf("State: got %v", snap.State())
	}
}

func TestSnapshot_JSON(t *testing.T) {
	snap := NewSnapshot(map[string]any{"x": 1.0}, Location{Pathname: "/c", Search: "?a=b"})

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"pathname":"/c","search":"?a=b","state":{"x":1}}`
	if string(data) != want {
		t.Fatalf("json: got %s, want %s", data, want)
	}

	back, err := UnmarshalSnapshot(data)
	if err != nil {
		t.Fatal(err)
	}
	if back.IsUpdated(snap.State(), snap.Location()) {
		t.Fatal("decoded snapshot differs from original")
	}
}

func TestEvent_RoundTrip(t *testing.T) {
	e := &Event{
		ID:        "evt-1",
		Seq:       7,
		Source:    "https://example.com",
		Timestamp: 1700000000000,
		Snapshot:  NewSnapshot(nil, Location{Pathname: "/x"}),
	}
	data, err := MarshalEvent(e)
	if err != nil {
		t.Fatal(err)
	}
	got, err := UnmarshalEvent(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != e.ID || got.Seq != e.Seq || got.Source != e.Source || got.Timestamp != e.Timestamp {
		t.Fatalf("event header: got %+v", got)
	}
	if got.Snapshot == nil || got.Snapshot.Pathname() != "/x" {
		t.Fatalf("event snapshot: got %+v", got.Snapshot)
	}
}

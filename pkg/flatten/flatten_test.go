package flatten

import (
	"testing"
	"time"
)

func TestFlattenTopLevelWithTwoReplies(t *testing.T) {
	published := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	threads := []Thread{
		{
			Top: Node{ID: "t1", Author: "alice", Text: "first!", PublishedAt: published},
			Replies: []Node{
				{ID: "r1", Author: "bob", Text: "reply one"},
				{ID: "r2", Author: "carol", Text: "reply two"},
			},
		},
	}

	nodes := Flatten(threads)

	if len(nodes) != 3 {
		t.Fatalf("got %d records, want 3", len(nodes))
	}
	if nodes[0].ID != "t1" || nodes[0].ParentID != "" {
		t.Errorf("top node = %+v, want id t1 with empty parent", nodes[0])
	}
	for i, id := range []string{"r1", "r2"} {
		got := nodes[i+1]
		if got.ID != id {
			t.Errorf("nodes[%d].ID = %s, want %s (original order)", i+1, got.ID, id)
		}
		if got.ParentID != "t1" {
			t.Errorf("nodes[%d].ParentID = %q, want t1", i+1, got.ParentID)
		}
	}
}

func TestFlattenPreservesThreadGroupOrder(t *testing.T) {
	threads := []Thread{
		{Top: Node{ID: "a"}, Replies: []Node{{ID: "a1"}}},
		{Top: Node{ID: "b"}},
		{Top: Node{ID: "c"}, Replies: []Node{{ID: "c1"}, {ID: "c2"}}},
	}

	nodes := Flatten(threads)

	want := []string{"a", "a1", "b", "c", "c1", "c2"}
	if len(nodes) != len(want) {
		t.Fatalf("got %d records, want %d", len(nodes), len(want))
	}
	for i, id := range want {
		if nodes[i].ID != id {
			t.Errorf("nodes[%d].ID = %s, want %s", i, nodes[i].ID, id)
		}
	}
}

func TestFlattenOverridesStaleParentReference(t *testing.T) {
	// Parentage is derived from thread ownership, not trusted from input.
	threads := []Thread{
		{
			Top:     Node{ID: "t1", ParentID: "bogus"},
			Replies: []Node{{ID: "r1", ParentID: "other"}},
		},
	}

	nodes := Flatten(threads)

	if nodes[0].ParentID != "" {
		t.Errorf("top ParentID = %q, want empty", nodes[0].ParentID)
	}
	if nodes[1].ParentID != "t1" {
		t.Errorf("reply ParentID = %q, want t1", nodes[1].ParentID)
	}
}

func TestFlattenEmpty(t *testing.T) {
	if nodes := Flatten(nil); len(nodes) != 0 {
		t.Errorf("Flatten(nil) = %v, want empty", nodes)
	}
}

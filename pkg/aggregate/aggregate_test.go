package aggregate

import (
	"errors"
	"strings"
	"testing"
)

type entity struct {
	id    string
	title string
}

func ok(id string) Result[entity] {
	return Ok(id, entity{id: id, title: "title-" + id})
}

func TestMergeDedupAndDeclarationOrder(t *testing.T) {
	// Direct IDs [A, B], container discovers [B, C]. The collection must be
	// [A, B, C] no matter which fetch happened to finish first upstream.
	direct := Source[entity]{Name: "direct", Results: []Result[entity]{ok("A"), ok("B")}}
	container := Source[entity]{Name: "playlist:PL1", Container: true, Results: []Result[entity]{ok("B"), ok("C")}}

	got := Merge(nil, direct, container)

	want := []string{"A", "B", "C"}
	if len(got) != len(want) {
		t.Fatalf("got %d entities, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].id != id {
			t.Errorf("got[%d].id = %s, want %s", i, got[i].id, id)
		}
	}
}

func TestMergeFirstSeenWinsKeepsFirstValue(t *testing.T) {
	first := Source[entity]{Name: "direct", Results: []Result[entity]{
		{ID: "A", Value: entity{id: "A", title: "from-direct"}},
	}}
	second := Source[entity]{Name: "playlist:PL1", Container: true, Results: []Result[entity]{
		{ID: "A", Value: entity{id: "A", title: "from-playlist"}},
	}}

	got := Merge(nil, first, second)

	if len(got) != 1 {
		t.Fatalf("got %d entities, want 1", len(got))
	}
	if got[0].title != "from-direct" {
		t.Errorf("title = %s, want from-direct (first occurrence wins)", got[0].title)
	}
}

func TestMergeDropsFailuresAndRecordsReason(t *testing.T) {
	fetchErr := errors.New("status 500")
	rep := NewReport()

	src := Source[entity]{Name: "direct", Results: []Result[entity]{
		ok("A"),
		ok("B"),
		Failed[entity]("C", fetchErr),
	}}

	got := Merge(rep, src)

	if len(got) != 2 {
		t.Fatalf("got %d entities, want 2", len(got))
	}
	if got[0].id != "A" || got[1].id != "B" {
		t.Errorf("collection = %v, want [A B]", got)
	}

	succeeded, failed := rep.Counts()
	if succeeded != 2 || failed != 1 {
		t.Errorf("counts = (%d, %d), want (2, 1)", succeeded, failed)
	}

	var found bool
	for _, e := range rep.Entities() {
		if e.ID == "C" {
			found = true
			if e.OK {
				t.Error("entity C should be recorded as failed")
			}
			if !strings.Contains(e.Reason, "status 500") {
				t.Errorf("reason = %q, want it to mention status 500", e.Reason)
			}
		}
	}
	if !found {
		t.Error("no outcome recorded for entity C")
	}
}

func TestMergeContainerSubmissionOrder(t *testing.T) {
	direct := Source[entity]{Name: "direct", Results: []Result[entity]{ok("d1")}}
	pl1 := Source[entity]{Name: "playlist:PL1", Container: true, Results: []Result[entity]{ok("p1a"), ok("p1b")}}
	pl2 := Source[entity]{Name: "playlist:PL2", Container: true, Results: []Result[entity]{ok("p2a")}}

	got := Merge(nil, direct, pl1, pl2)

	want := []string{"d1", "p1a", "p1b", "p2a"}
	for i, id := range want {
		if got[i].id != id {
			t.Errorf("got[%d].id = %s, want %s", i, got[i].id, id)
		}
	}
}

func TestReportContainerOutcomes(t *testing.T) {
	rep := NewReport()
	rep.Container("PL1", 12, nil)
	rep.Container("PL2", 3, errors.New("scan aborted"))

	containers := rep.Containers()
	if len(containers) != 2 {
		t.Fatalf("containers = %d, want 2", len(containers))
	}
	if !containers[0].OK || containers[0].Members != 12 {
		t.Errorf("container PL1 = %+v", containers[0])
	}
	if containers[1].OK || containers[1].Reason == "" {
		t.Errorf("container PL2 = %+v", containers[1])
	}
}

func TestNilReportIsSafe(t *testing.T) {
	var rep *Report
	rep.Container("PL1", 0, nil)

	src := Source[entity]{Name: "direct", Results: []Result[entity]{ok("A")}}
	if got := Merge(rep, src); len(got) != 1 {
		t.Errorf("merge with nil report = %d entities, want 1", len(got))
	}
}

package page

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// chainFetcher serves a fixed chain of pages keyed by cursor.
func chainFetcher(pages map[string]Page[string]) FetchFunc[string] {
	return func(_ context.Context, cursor string) (Page[string], error) {
		pg, ok := pages[cursor]
		if !ok {
			return Page[string]{}, fmt.Errorf("unknown cursor %q", cursor)
		}
		return pg, nil
	}
}

func TestNewNormalizesCursorInvariant(t *testing.T) {
	pg := New([]string{"a"}, "", true)

	if pg.HasMore {
		t.Error("HasMore must be false when cursor is empty")
	}
}

func TestAllTerminatesAndConcatenatesInOrder(t *testing.T) {
	fetch := chainFetcher(map[string]Page[string]{
		"":   New([]string{"a", "b"}, "c1", true),
		"c1": New([]string{"c"}, "c2", true),
		"c2": New([]string{"d", "e"}, "", false),
	})

	items, err := NewPaginator("test", fetch).All(context.Background())
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}

	want := []string{"a", "b", "c", "d", "e"}
	if len(items) != len(want) {
		t.Fatalf("got %d items, want %d", len(items), len(want))
	}
	for i, w := range want {
		if items[i] != w {
			t.Errorf("items[%d] = %q, want %q", i, items[i], w)
		}
	}
}

func TestAllContinuesPastEmptyIntermediatePage(t *testing.T) {
	fetch := chainFetcher(map[string]Page[string]{
		"":   New([]string{"a"}, "c1", true),
		"c1": New[string](nil, "c2", true), // empty page, stream not done
		"c2": New([]string{"b"}, "", false),
	})

	items, err := NewPaginator("test", fetch).All(context.Background())
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(items) != 2 || items[0] != "a" || items[1] != "b" {
		t.Errorf("items = %v, want [a b]", items)
	}
}

func TestAllKeepsPartialResultsOnFailure(t *testing.T) {
	fetchErr := errors.New("remote rejected")
	calls := 0
	fetch := func(_ context.Context, cursor string) (Page[string], error) {
		calls++
		if cursor == "" {
			return New([]string{"a", "b"}, "c1", true), nil
		}
		return Page[string]{}, fetchErr
	}

	items, err := NewPaginator("test", fetch).All(context.Background())
	if !errors.Is(err, fetchErr) {
		t.Fatalf("All() error = %v, want wrapped %v", err, fetchErr)
	}
	if len(items) != 2 {
		t.Errorf("partial items = %v, want [a b]", items)
	}
	if calls != 2 {
		t.Errorf("fetch calls = %d, want 2", calls)
	}
}

func TestAllStopsFetchingOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	fetch := func(_ context.Context, cursor string) (Page[string], error) {
		cancel() // cancel after the first page is served
		return New([]string{"a"}, "c1", true), nil
	}

	items, err := NewPaginator("test", fetch).All(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("All() error = %v, want context.Canceled", err)
	}
	// The page already fetched must still be surfaced.
	if len(items) != 1 || items[0] != "a" {
		t.Errorf("items = %v, want [a]", items)
	}
}

func TestAllNeverRequestsPageAheadOfCursor(t *testing.T) {
	var seen []string
	fetch := func(_ context.Context, cursor string) (Page[string], error) {
		seen = append(seen, cursor)
		switch cursor {
		case "":
			return New([]string{"a"}, "p2", true), nil
		case "p2":
			return New([]string{"b"}, "", false), nil
		}
		return Page[string]{}, fmt.Errorf("unexpected cursor %q", cursor)
	}

	if _, err := NewPaginator("test", fetch).All(context.Background()); err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(seen) != 2 || seen[0] != "" || seen[1] != "p2" {
		t.Errorf("cursor order = %v, want [\"\" p2]", seen)
	}
}

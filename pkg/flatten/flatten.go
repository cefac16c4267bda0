// Package flatten converts nested reply trees into flat, parent-referencing
// lists. Comment threads arrive from both APIs as a top-level node owning
// its replies; downstream analysis wants a single ordered list where each
// record carries an explicit parent reference instead of nesting.
package flatten

import "time"

// Node is one flattened comment record. ParentID is empty for top-level
// nodes and holds the thread root's ID for replies.
type Node struct {
	ID          string    `json:"id"`
	Author      string    `json:"author"`
	Text        string    `json:"text"`
	PublishedAt time.Time `json:"published_at"`
	ParentID    string    `json:"parent_id,omitempty"`
}

// Thread is a top-level node together with its replies in original order.
type Thread struct {
	Top     Node
	Replies []Node
}

// Flatten converts threads into a flat ordered list: each top-level node
// is emitted first, immediately followed by its replies in original order
// with ParentID set to the top-level node's ID. Threads are never
// reordered relative to each other.
//
// Known limitation: only one level of nesting is modeled, matching what
// both source APIs deliver today. Should an API ever hand back
// replies-to-replies, the domain clients collect them into the thread's
// reply list, so they come out attributed to the thread root rather than
// their direct parent.
func Flatten(threads []Thread) []Node {
	n := 0
	for _, th := range threads {
		n += 1 + len(th.Replies)
	}

	nodes := make([]Node, 0, n)
	for _, th := range threads {
		top := th.Top
		top.ParentID = ""
		nodes = append(nodes, top)

		for _, reply := range th.Replies {
			reply.ParentID = th.Top.ID
			nodes = append(nodes, reply)
		}
	}
	return nodes
}

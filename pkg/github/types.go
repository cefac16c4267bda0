package github

import (
	"time"

	"threadvault/pkg/flatten"
)

// Issue is an archived issue with its flattened comment list.
type Issue struct {
	ID        string         `json:"id"`
	Number    int            `json:"number"`
	Title     string         `json:"title"`
	URL       string         `json:"url"`
	State     string         `json:"state"`
	Author    string         `json:"author"`
	Body      string         `json:"body"`
	Labels    []string       `json:"labels,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	Comments  []flatten.Node `json:"comments"`
}

// Discussion is an archived discussion with its flattened comment list,
// replies carrying their parent comment's ID.
type Discussion struct {
	ID        string         `json:"id"`
	Number    int            `json:"number"`
	Title     string         `json:"title"`
	URL       string         `json:"url"`
	Author    string         `json:"author"`
	Body      string         `json:"body"`
	Category  string         `json:"category"`
	CreatedAt time.Time      `json:"created_at"`
	Comments  []flatten.Node `json:"comments"`
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// Wire types mirroring the GraphQL response shape.

type actor struct {
	Login string `json:"login"`
}

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type commentNode struct {
	ID        string `json:"id"`
	Body      string `json:"body"`
	CreatedAt string `json:"createdAt"`
	Author    actor  `json:"author"`
}

func (c commentNode) node() flatten.Node {
	created, _ := time.Parse(time.RFC3339, c.CreatedAt)
	return flatten.Node{
		ID:          c.ID,
		Author:      c.Author.Login,
		Text:        c.Body,
		PublishedAt: created,
	}
}

type commentConnection struct {
	Nodes    []commentNode `json:"nodes"`
	PageInfo pageInfo      `json:"pageInfo"`
}

type discussionCommentNode struct {
	commentNode
	Replies struct {
		Nodes []commentNode `json:"nodes"`
	} `json:"replies"`
}

func (c discussionCommentNode) thread() flatten.Thread {
	th := flatten.Thread{Top: c.commentNode.node()}
	for _, r := range c.Replies.Nodes {
		th.Replies = append(th.Replies, r.node())
	}
	return th
}

type discussionCommentConnection struct {
	Nodes    []discussionCommentNode `json:"nodes"`
	PageInfo pageInfo                `json:"pageInfo"`
}

type issueNode struct {
	ID        string `json:"id"`
	Number    int    `json:"number"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	State     string `json:"state"`
	Body      string `json:"body"`
	CreatedAt string `json:"createdAt"`
	Author    actor  `json:"author"`
	Labels    struct {
		Nodes []struct {
			Name string `json:"name"`
		} `json:"nodes"`
	} `json:"labels"`
	Comments commentConnection `json:"comments"`
}

type discussionNode struct {
	ID        string `json:"id"`
	Number    int    `json:"number"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Body      string `json:"body"`
	CreatedAt string `json:"createdAt"`
	Author    actor  `json:"author"`
	Category  struct {
		Name string `json:"name"`
	} `json:"category"`
	Comments discussionCommentConnection `json:"comments"`
}

type issuesData struct {
	Repository struct {
		Issues struct {
			Nodes    []issueNode `json:"nodes"`
			PageInfo pageInfo    `json:"pageInfo"`
		} `json:"issues"`
	} `json:"repository"`
}

type issueCommentsData struct {
	Node struct {
		Comments commentConnection `json:"comments"`
	} `json:"node"`
}

type discussionsData struct {
	Repository struct {
		Discussions struct {
			Nodes    []discussionNode `json:"nodes"`
			PageInfo pageInfo         `json:"pageInfo"`
		} `json:"discussions"`
	} `json:"repository"`
}

type discussionCommentsData struct {
	Node struct {
		Comments discussionCommentConnection `json:"comments"`
	} `json:"node"`
}
